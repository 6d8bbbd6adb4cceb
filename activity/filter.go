package activity

import (
	"regexp"
	"strings"

	"github.com/goliatone/go-records/filter"
	"github.com/goliatone/go-records/pipeline"
	"github.com/goliatone/go-records/pkg/types"
)

// FilterStage appends the match stage selecting activities that satisfy f.
// Soft deleted activities are excluded unless f.IsDeleted asks for them.
func FilterStage(p pipeline.Pipeline, f *types.ActivityFilters) pipeline.Pipeline {
	if f == nil {
		return p
	}
	return pipeline.Filter(p, Predicate(f))
}

// Predicate combines every populated field of f into one conjunction.
func Predicate(f *types.ActivityFilters) filter.Predicate {
	if f == nil {
		return filter.Empty()
	}
	keyword := strings.TrimSpace(f.Keyword)
	if keyword != "" {
		keyword = regexp.QuoteMeta(keyword)
	}
	return filter.And(
		filter.MatchIfNotEmpty(FieldID, f.ID),
		filter.MatchIfNotEmpty(FieldAction, f.Action),
		filter.MustBeInIfNotEmpty(FieldAction, f.Actions),
		filter.MatchIfNotEmptyEnum(FieldLevel, f.Level),
		filter.MatchIfNotEmpty(FieldTenant, f.TenantID),
		filter.MatchIfNotEmpty(FieldUser, f.UserID),
		filter.MatchIfNotEmpty(FieldResource, f.ResourceID),
		filter.MatchIfNotEmpty(FieldResourceKind, f.ResourceKind),
		filter.MatchIfNotEmpty(FieldChannel, f.Channel),
		filter.MustBeInIfNotEmpty(FieldChannel, f.Channels),
		filter.MatchIfContains(FieldDescription, keyword),
		filter.MustBeWithinIfNotNull(FieldCreatedAt, f.CreatedFrom, f.CreatedTo),
		filter.MatchIfNotEmptyDictionary(FieldMetadata, f.Metadata),
		filter.MatchBool(FieldIsDeleted, f.IsDeleted, false),
	)
}
