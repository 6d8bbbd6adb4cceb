package sqlitestore

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"sync"

	"github.com/goliatone/go-records/filter"
	"github.com/goliatone/go-records/pipeline"
	"github.com/uptrace/bun"
)

type plan struct {
	query      *bun.SelectQuery
	countField string
}

// defaultOrder is insertion order. It applies to every level until a sort
// stage replaces it so skip and limit never page in scan order.
var defaultOrder = []pipeline.SortKey{
	{Field: pipeline.CreatedAtField},
	{Field: pipeline.IDField},
}

// compile nests one select per stage. The active ordering is re-applied at
// every level because SQLite does not carry subquery order outwards.
func compile(db bun.IDB, collection string, p pipeline.Pipeline) (plan, error) {
	q := db.NewSelect().
		TableExpr("?", bun.Ident(collection)).
		ColumnExpr("id, doc, attrs")
	order := defaultOrder

	stages := p.Stages()
	for i, stage := range stages {
		from := db.NewSelect().TableExpr("(?) AS ?", q, bun.Ident(fmt.Sprintf("s%d", i)))
		if stage.Kind == pipeline.KindCount {
			if i != len(stages)-1 {
				return plan{}, fmt.Errorf("sqlitestore: count must be the last stage")
			}
			field := stage.Field
			if field == "" {
				field = pipeline.CountField
			}
			return plan{query: from.ColumnExpr("COUNT(*)"), countField: field}, nil
		}

		next := from.ColumnExpr("id, doc, attrs")
		switch stage.Kind {
		case pipeline.KindMatch:
			where, args := compilePredicate(stage.Predicate)
			next = next.Where(where, args...)
		case pipeline.KindSkip:
			next = next.Limit(math.MaxInt32).Offset(int(stage.N))
		case pipeline.KindLimit:
			next = next.Limit(int(stage.N))
		case pipeline.KindSort:
			order = stage.SortKeys()
		default:
			return plan{}, fmt.Errorf("sqlitestore: unsupported stage %s", stage.Kind)
		}
		q = applyOrder(next, order)
	}
	return plan{query: q}, nil
}

// applyOrder orders q by keys and finally by the primary key so equal sort
// values keep a stable order.
func applyOrder(q *bun.SelectQuery, keys []pipeline.SortKey) *bun.SelectQuery {
	byID := false
	for _, key := range keys {
		if key.Field == pipeline.IDField {
			byID = true
			q = q.OrderExpr("id " + direction(key.Descending))
			continue
		}
		q = q.OrderExpr("json_extract(attrs, ?) "+direction(key.Descending), jsonPath(key.Field))
	}
	if !byID {
		q = q.OrderExpr("id ASC")
	}
	return q
}

func direction(descending bool) string {
	if descending {
		return "DESC"
	}
	return "ASC"
}

// compilePredicate renders pred as a WHERE fragment with bun placeholders.
func compilePredicate(pred filter.Predicate) (string, []any) {
	switch pred.Op() {
	case filter.OpAnd:
		children := pred.Children()
		if len(children) == 0 {
			return "1 = 1", nil
		}
		parts := make([]string, 0, len(children))
		args := make([]any, 0, len(children)*2)
		for _, child := range children {
			sql, childArgs := compilePredicate(child)
			parts = append(parts, "("+sql+")")
			args = append(args, childArgs...)
		}
		return strings.Join(parts, " AND "), args
	case filter.OpEq:
		if pred.Value() == nil {
			return "json_extract(attrs, ?) IS NULL", []any{jsonPath(pred.Field())}
		}
		return comparison(pred, "=")
	case filter.OpLt:
		return comparison(pred, "<")
	case filter.OpLte:
		return comparison(pred, "<=")
	case filter.OpGt:
		return comparison(pred, ">")
	case filter.OpGte:
		return comparison(pred, ">=")
	case filter.OpIn:
		values := pred.Values()
		if len(values) == 0 {
			return "1 = 0", nil
		}
		converted := make([]any, 0, len(values))
		for _, v := range values {
			converted = append(converted, sqlValue(v))
		}
		return "json_extract(attrs, ?) IN (?)", []any{jsonPath(pred.Field()), bun.In(converted)}
	case filter.OpRegex:
		pattern, _ := pred.Value().(string)
		return "json_extract(attrs, ?) REGEXP ?", []any{jsonPath(pred.Field()), goPattern(pattern, pred.Options())}
	default:
		return "1 = 0", nil
	}
}

func comparison(pred filter.Predicate, op string) (string, []any) {
	return "json_extract(attrs, ?) " + op + " ?", []any{jsonPath(pred.Field()), sqlValue(pred.Value())}
}

// jsonPath turns a dotted document path into a quoted SQLite JSON path.
func jsonPath(field string) string {
	var b strings.Builder
	b.WriteString("$")
	for _, part := range strings.Split(field, ".") {
		b.WriteString(`."`)
		b.WriteString(strings.ReplaceAll(part, `"`, ""))
		b.WriteString(`"`)
	}
	return b.String()
}

func goPattern(pattern, options string) string {
	var flags strings.Builder
	for _, opt := range options {
		switch opt {
		case 'i', 'm', 's':
			flags.WriteRune(opt)
		}
	}
	if flags.Len() == 0 {
		return pattern
	}
	return "(?" + flags.String() + ")" + pattern
}

var patterns sync.Map

func regexpMatch(pattern string, value any) (bool, error) {
	var subject string
	switch v := value.(type) {
	case string:
		subject = v
	case []byte:
		subject = string(v)
	default:
		return false, nil
	}
	if cached, ok := patterns.Load(pattern); ok {
		return cached.(*regexp.Regexp).MatchString(subject), nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false, err
	}
	patterns.Store(pattern, re)
	return re.MatchString(subject), nil
}
