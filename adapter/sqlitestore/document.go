package sqlitestore

import (
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"github.com/goliatone/go-records/store"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// timeLayout is fixed width so projected timestamps compare as text.
const timeLayout = "2006-01-02T15:04:05.000Z"

// documentRow is bound to a collection table per query with ModelTableExpr.
type documentRow struct {
	bun.BaseModel `bun:"table:documents,alias:d"`

	ID    string `bun:"id,pk"`
	Doc   []byte `bun:"doc"`
	Attrs string `bun:"attrs"`
}

// documentHandlers adapts string document ids to the uuid keyed handlers the
// repository expects. Non uuid ids report uuid.Nil.
func documentHandlers() repository.ModelHandlers[*documentRow] {
	return repository.ModelHandlers[*documentRow]{
		NewRecord: func() *documentRow { return &documentRow{} },
		GetID: func(row *documentRow) uuid.UUID {
			if row == nil {
				return uuid.Nil
			}
			id, err := uuid.Parse(row.ID)
			if err != nil {
				return uuid.Nil
			}
			return id
		},
		SetID: func(row *documentRow, id uuid.UUID) {
			if row != nil {
				row.ID = id.String()
			}
		},
	}
}

func inCollection(collection string) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.ModelTableExpr("? AS d", bun.Ident(collection))
	}
}

func byDocumentID(id string) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("d.id = ?", id)
	}
}

func encode(doc store.Document) (documentRow, error) {
	raw, err := bson.Marshal(doc.Value)
	if err != nil {
		return documentRow{}, err
	}
	attrs, err := project(raw)
	if err != nil {
		return documentRow{}, err
	}
	return documentRow{ID: doc.ID, Doc: raw, Attrs: attrs}, nil
}

// project renders a BSON document as the JSON queried by compiled pipelines.
func project(raw bson.Raw) (string, error) {
	value, err := projectDocument(raw)
	if err != nil {
		return "", err
	}
	out, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func projectDocument(raw bson.Raw) (map[string]any, error) {
	elems, err := raw.Elements()
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(elems))
	for _, elem := range elems {
		value, err := projectValue(elem.Value())
		if err != nil {
			return nil, err
		}
		out[elem.Key()] = value
	}
	return out, nil
}

func projectValue(v bson.RawValue) (any, error) {
	switch v.Type {
	case bson.TypeEmbeddedDocument:
		return projectDocument(v.Document())
	case bson.TypeArray:
		values, err := v.Array().Values()
		if err != nil {
			return nil, err
		}
		out := make([]any, 0, len(values))
		for _, item := range values {
			projected, err := projectValue(item)
			if err != nil {
				return nil, err
			}
			out = append(out, projected)
		}
		return out, nil
	case bson.TypeString:
		return v.StringValue(), nil
	case bson.TypeBoolean:
		return v.Boolean(), nil
	case bson.TypeInt32:
		return int64(v.Int32()), nil
	case bson.TypeInt64:
		return v.Int64(), nil
	case bson.TypeDouble:
		return v.Double(), nil
	case bson.TypeDateTime:
		return formatTime(time.UnixMilli(v.DateTime())), nil
	case bson.TypeObjectID:
		return v.ObjectID().Hex(), nil
	case bson.TypeNull, bson.TypeUndefined:
		return nil, nil
	default:
		return v.String(), nil
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// sqlValue converts a predicate operand to the form stored in the projection.
func sqlValue(v any) any {
	switch value := v.(type) {
	case nil:
		return nil
	case string:
		return value
	case time.Time:
		return formatTime(value)
	case *time.Time:
		if value == nil {
			return nil
		}
		return formatTime(*value)
	case bson.DateTime:
		return formatTime(value.Time())
	case bool:
		if value {
			return 1
		}
		return 0
	case bson.ObjectID:
		return value.Hex()
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return sqlValue(rv.Bool())
	default:
		return fmt.Sprint(v)
	}
}
