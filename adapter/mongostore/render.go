package mongostore

import (
	"fmt"

	"github.com/goliatone/go-records/filter"
	"github.com/goliatone/go-records/pipeline"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// defaultOrder pins skip and limit stages that run before any sort to
// insertion order.
var defaultOrder = bson.D{{Key: "$sort", Value: bson.D{
	{Key: pipeline.CreatedAtField, Value: 1},
	{Key: pipeline.IDField, Value: 1},
}}}

// RenderPipeline translates p into aggregation stages.
func RenderPipeline(p pipeline.Pipeline) (mongo.Pipeline, error) {
	stages := p.Stages()
	out := make(mongo.Pipeline, 0, len(stages)+1)
	sorted := false
	for _, stage := range stages {
		if !sorted && (stage.Kind == pipeline.KindSkip || stage.Kind == pipeline.KindLimit) {
			out = append(out, defaultOrder)
			sorted = true
		}
		switch stage.Kind {
		case pipeline.KindMatch:
			out = append(out, bson.D{{Key: "$match", Value: RenderPredicate(stage.Predicate)}})
		case pipeline.KindSkip:
			out = append(out, bson.D{{Key: "$skip", Value: stage.N}})
		case pipeline.KindLimit:
			out = append(out, bson.D{{Key: "$limit", Value: stage.N}})
		case pipeline.KindSort:
			sortKeys := bson.D{}
			for _, key := range stage.SortKeys() {
				dir := 1
				if key.Descending {
					dir = -1
				}
				sortKeys = append(sortKeys, bson.E{Key: key.Field, Value: dir})
			}
			out = append(out, bson.D{{Key: "$sort", Value: sortKeys}})
			sorted = true
		case pipeline.KindCount:
			field := stage.Field
			if field == "" {
				field = pipeline.CountField
			}
			out = append(out, bson.D{{Key: "$count", Value: field}})
		default:
			return nil, fmt.Errorf("mongostore: unsupported stage %s", stage.Kind)
		}
	}
	return out, nil
}

// RenderPredicate translates pred into a query document. The neutral
// predicate renders as the empty document.
func RenderPredicate(pred filter.Predicate) bson.D {
	switch pred.Op() {
	case filter.OpAnd:
		children := pred.Children()
		switch len(children) {
		case 0:
			return bson.D{}
		case 1:
			return RenderPredicate(children[0])
		}
		clauses := make(bson.A, 0, len(children))
		for _, child := range children {
			clauses = append(clauses, RenderPredicate(child))
		}
		return bson.D{{Key: "$and", Value: clauses}}
	case filter.OpEq:
		return bson.D{{Key: pred.Field(), Value: pred.Value()}}
	case filter.OpLt:
		return operator(pred, "$lt")
	case filter.OpLte:
		return operator(pred, "$lte")
	case filter.OpGt:
		return operator(pred, "$gt")
	case filter.OpGte:
		return operator(pred, "$gte")
	case filter.OpIn:
		return bson.D{{Key: pred.Field(), Value: bson.D{{Key: "$in", Value: bson.A(pred.Values())}}}}
	case filter.OpRegex:
		pattern, _ := pred.Value().(string)
		return bson.D{{Key: pred.Field(), Value: bson.Regex{Pattern: pattern, Options: pred.Options()}}}
	default:
		return bson.D{}
	}
}

func operator(pred filter.Predicate, op string) bson.D {
	return bson.D{{Key: pred.Field(), Value: bson.D{{Key: op, Value: pred.Value()}}}}
}
