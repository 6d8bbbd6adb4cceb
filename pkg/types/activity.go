package types

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// ActivityLevel grades an activity for audit dashboards.
type ActivityLevel int

const (
	ActivityLevelInfo ActivityLevel = iota
	ActivityLevelNotice
	ActivityLevelWarning
	ActivityLevelCritical
)

// ResourceRef points at the object an activity acted upon.
type ResourceRef struct {
	Identifier string `bson:"identifier" json:"identifier"`
	Kind       string `bson:"kind,omitempty" json:"kind,omitempty"`
	Name       string `bson:"name,omitempty" json:"name,omitempty"`
}

// UserRef identifies the user that performed an activity.
type UserRef struct {
	ID    string `bson:"_id" json:"id"`
	Name  string `bson:"name,omitempty" json:"name,omitempty"`
	Email string `bson:"email,omitempty" json:"email,omitempty"`
	Role  string `bson:"role,omitempty" json:"role,omitempty"`
}

// TenantRef identifies the tenant an activity belongs to.
type TenantRef struct {
	ID   string `bson:"_id" json:"id"`
	Name string `bson:"name,omitempty" json:"name,omitempty"`
}

// Activity is an audit log record.
type Activity struct {
	Aggregate `bson:",inline"`

	Action      string         `bson:"action" json:"action"`
	Description string         `bson:"description,omitempty" json:"description,omitempty"`
	Level       ActivityLevel  `bson:"level" json:"level"`
	Resource    ResourceRef    `bson:"resource" json:"resource"`
	User        UserRef        `bson:"user" json:"user"`
	Tenant      TenantRef      `bson:"tenant" json:"tenant"`
	Channel     string         `bson:"channel,omitempty" json:"channel,omitempty"`
	IP          string         `bson:"ip,omitempty" json:"ip,omitempty"`
	Metadata    map[string]any `bson:"metadata,omitempty" json:"metadata,omitempty"`
}

// ActivityFilters narrows activity reads. Nil or blank fields do not
// constrain the result, except IsDeleted which defaults to false.
type ActivityFilters struct {
	ID           string         `json:"id,omitempty"`
	Action       string         `json:"action,omitempty"`
	Actions      []string       `json:"actions,omitempty"`
	Level        *ActivityLevel `json:"level,omitempty"`
	TenantID     string         `json:"tenant_id,omitempty"`
	UserID       string         `json:"user_id,omitempty"`
	ResourceID   string         `json:"resource_id,omitempty"`
	ResourceKind string         `json:"resource_kind,omitempty"`
	Channel      string         `json:"channel,omitempty"`
	Channels     []string       `json:"channels,omitempty"`
	Keyword      string         `json:"keyword,omitempty"`
	IsDeleted    *bool          `json:"is_deleted,omitempty"`
	CreatedFrom  *time.Time     `json:"created_from,omitempty"`
	CreatedTo    *time.Time     `json:"created_to,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`

	Pagination *PaginationFilters `json:"pagination,omitempty"`
	Sort       *SortFilters       `json:"sort,omitempty"`
	Cursor     *CursorFilters     `json:"cursor,omitempty"`
}

// Type implements gocommand.Message.
func (ActivityFilters) Type() string {
	return "query.activity.feed"
}

// Validate implements gocommand.Message.
func (f ActivityFilters) Validate() error {
	if f.CreatedFrom != nil && f.CreatedTo != nil && f.CreatedFrom.After(*f.CreatedTo) {
		return goerrors.Wrap(ErrInvalidDateRange, goerrors.CategoryValidation, "invalid activity filters").
			WithCode(goerrors.CodeBadRequest)
	}
	if f.Pagination != nil && (f.Pagination.Skip < 0 || f.Pagination.Take < 0) {
		return goerrors.New("go-records: pagination values must not be negative", goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest)
	}
	if f.Sort != nil && strings.ContainsAny(f.Sort.Field, "$\"") {
		return goerrors.New("go-records: invalid sort field", goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest)
	}
	return nil
}

// ActivityCountFilter counts activities matching the embedded filters.
type ActivityCountFilter struct {
	ActivityFilters
}

// Type implements gocommand.Message.
func (ActivityCountFilter) Type() string {
	return "query.activity.count"
}

// ActivityCursorFilter requests a keyset page of activities.
type ActivityCursorFilter struct {
	ActivityFilters
}

// Type implements gocommand.Message.
func (ActivityCursorFilter) Type() string {
	return "query.activity.cursor"
}

// ActivityCursorPage is one page of a keyset-paginated activity feed.
type ActivityCursorPage struct {
	Items      []*Activity `json:"items"`
	NextCursor string      `json:"next_cursor,omitempty"`
	HasMore    bool        `json:"has_more"`
}

// ActivityWriter persists activity records.
type ActivityWriter interface {
	Insert(ctx context.Context, activity *Activity, behavior InsertBehavior) (*Activity, error)
	InsertMany(ctx context.Context, activities []*Activity, behavior InsertBehavior) ([]*Activity, error)
	Update(ctx context.Context, activity *Activity) (*Activity, error)
	Delete(ctx context.Context, activity *Activity, behavior DeleteBehavior) (bool, error)
	FindByID(ctx context.Context, id string) (*Activity, error)
}

// ActivityReader exposes the read side of the activity store.
type ActivityReader interface {
	GetActivities(ctx context.Context, filters *ActivityFilters) ([]*Activity, error)
	Count(ctx context.Context, filters *ActivityFilters) (int64, error)
	GetActivitiesByCursor(ctx context.Context, filters *ActivityFilters) (ActivityCursorPage, error)
}

// ActivityRepository combines the read and write sides.
type ActivityRepository interface {
	ActivityWriter
	ActivityReader
}
