package pipeline

import (
	"strings"

	"github.com/goliatone/go-records/cursor"
	"github.com/goliatone/go-records/filter"
	"github.com/goliatone/go-records/pkg/types"
)

const (
	// CreatedAtField is the document path keyset pagination runs over.
	CreatedAtField = "created_at"
	// IDField is the identifier path used to break sort ties.
	IDField = "_id"
	// CountField holds the result of a count stage.
	CountField = "count"
)

// Cursor appends keyset pagination: items older than the decoded cursor,
// newest first, capped at the page size. A nil filter is the identity.
// Items sharing a timestamp come back in descending identifier order.
func Cursor(p Pipeline, f *types.CursorFilters) (Pipeline, error) {
	if f == nil {
		return p, nil
	}
	return keyset(p, f.Cursor, f.PageSize())
}

// CursorLookahead is Cursor with room for one item past the page, so callers
// can tell whether another page exists.
func CursorLookahead(p Pipeline, f *types.CursorFilters) (Pipeline, error) {
	if f == nil {
		return p, nil
	}
	return keyset(p, f.Cursor, f.PageSize()+1)
}

func keyset(p Pipeline, token string, limit int64) (Pipeline, error) {
	if strings.TrimSpace(token) != "" {
		after, err := cursor.Decode(token)
		if err != nil {
			return p, err
		}
		p = p.Match(filter.Lt(CreatedAtField, after))
	}
	return p.SortBy(CreatedAtField, types.SortDescending, SortKey{Field: IDField, Descending: true}).
		Limit(limit), nil
}

// Paginate appends skip and limit stages. A nil filter is the identity.
func Paginate(p Pipeline, f *types.PaginationFilters) Pipeline {
	if f == nil {
		return p
	}
	skip := f.Skip
	if skip < 0 {
		skip = 0
	}
	take := f.Take
	if take <= 0 {
		take = types.DefaultPageSize
	}
	return p.Skip(skip).Limit(take)
}

// Sort appends a sort stage, breaking ties on the identifier in the same
// direction. A nil filter or blank field is the identity.
func Sort(p Pipeline, f *types.SortFilters) Pipeline {
	if f == nil || strings.TrimSpace(f.Field) == "" {
		return p
	}
	field := strings.TrimSpace(f.Field)
	if field == IDField {
		return p.SortBy(field, f.Direction)
	}
	return p.SortBy(field, f.Direction, SortKey{Field: IDField, Descending: !f.Direction.Ascending()})
}

// Filter appends a match stage unless pred is neutral.
func Filter(p Pipeline, pred filter.Predicate) Pipeline {
	if pred.IsEmpty() {
		return p
	}
	return p.Match(pred)
}
