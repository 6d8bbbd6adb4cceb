package types

import "time"

// Entity carries the identity and lifecycle fields shared by every stored
// record. ID and CreatedAt are assigned by the store on insert.
type Entity struct {
	ID        string     `bson:"_id" json:"id"`
	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt *time.Time `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
	IsDeleted bool       `bson:"is_deleted" json:"is_deleted"`
	DeletedAt *time.Time `bson:"deleted_at,omitempty" json:"deleted_at,omitempty"`
}

// GetID returns the record identifier.
func (e *Entity) GetID() string { return e.ID }

// SetID assigns the record identifier.
func (e *Entity) SetID(id string) { e.ID = id }

// GetCreatedAt returns the creation timestamp.
func (e *Entity) GetCreatedAt() time.Time { return e.CreatedAt }

// SetCreatedAt assigns the creation timestamp.
func (e *Entity) SetCreatedAt(t time.Time) { e.CreatedAt = t }

// MarkAsUpdated stamps the last modification time.
func (e *Entity) MarkAsUpdated(now time.Time) {
	e.UpdatedAt = &now
}

// MarkAsDeleted flags the record as deleted and stamps the deletion time.
func (e *Entity) MarkAsDeleted(now time.Time) {
	e.IsDeleted = true
	e.DeletedAt = &now
}

// Aggregate is an Entity whose soft delete state is part of its contract.
type Aggregate struct {
	Entity `bson:",inline"`
}

// Deleted reports whether the aggregate was soft deleted.
func (a *Aggregate) Deleted() bool { return a.IsDeleted }

// InsertBehavior selects how an insert reacts to a duplicate key.
type InsertBehavior int

const (
	// InsertFailIfExists surfaces the duplicate key error unchanged.
	InsertFailIfExists InsertBehavior = iota
	// InsertIgnoreIfExists reports success without writing.
	InsertIgnoreIfExists
	// InsertOverwrite replaces the stored record.
	InsertOverwrite
)

// Valid reports whether the behavior is one of the known values.
func (b InsertBehavior) Valid() bool {
	return b >= InsertFailIfExists && b <= InsertOverwrite
}

func (b InsertBehavior) String() string {
	switch b {
	case InsertFailIfExists:
		return "fail"
	case InsertIgnoreIfExists:
		return "ignore"
	case InsertOverwrite:
		return "overwrite"
	default:
		return "unknown"
	}
}

// DeleteBehavior selects between flagging and physically removing a record.
type DeleteBehavior int

const (
	// DeleteSoft persists the deleted flag and timestamps.
	DeleteSoft DeleteBehavior = iota
	// DeleteHard removes the stored record.
	DeleteHard
)

func (b DeleteBehavior) String() string {
	switch b {
	case DeleteSoft:
		return "soft"
	case DeleteHard:
		return "hard"
	default:
		return "unknown"
	}
}
