package types

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Clock abstracts time retrieval for deterministic testing.
type Clock interface {
	Now() time.Time
}

// IDGenerator abstracts UUID creation.
type IDGenerator interface {
	UUID() uuid.UUID
}

// Logger captures basic logging hooks used by stores and handlers.
type Logger interface {
	Debug(msg string, fields ...any)
	Info(msg string, fields ...any)
	Error(msg string, err error, fields ...any)
}

// Hooks exposes callbacks fired after successful writes.
type Hooks struct {
	AfterActivity       func(context.Context, *Activity)
	AfterActivityDelete func(context.Context, *Activity, DeleteBehavior)
}

// SystemClock defers to time.Now for production usage.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// UUIDGenerator produces UUIDv4 identifiers.
type UUIDGenerator struct{}

// UUID returns a randomly generated UUID.
func (UUIDGenerator) UUID() uuid.UUID { return uuid.New() }

// NopLogger discards all log lines.
type NopLogger struct{}

// Debug implements Logger.
func (NopLogger) Debug(string, ...any) {}

// Info implements Logger.
func (NopLogger) Info(string, ...any) {}

// Error implements Logger.
func (NopLogger) Error(string, error, ...any) {}

var (
	// ErrMissingDriver occurs when a store is built without a document driver.
	ErrMissingDriver = errors.New("go-records: missing document driver")
	// ErrMissingCollection occurs when a store is built without a collection name.
	ErrMissingCollection = errors.New("go-records: missing collection name")
	// ErrMissingRecordFactory occurs when a store cannot allocate records to decode into.
	ErrMissingRecordFactory = errors.New("go-records: missing record factory")
	// ErrServiceNotReady indicates the service has not been properly configured.
	ErrServiceNotReady = errors.New("go-records: service not ready")
	// ErrMissingActivityRepository occurs when no activity repository was supplied.
	ErrMissingActivityRepository = errors.New("go-records: missing activity repository")
	// ErrActivityRequired occurs when a write command receives no activity payload.
	ErrActivityRequired = errors.New("go-records: activity payload required")
	// ErrActivitiesRequired occurs when a bulk command receives no activities.
	ErrActivitiesRequired = errors.New("go-records: activities required")
	// ErrInvalidInsertBehavior occurs when a command names an unknown conflict policy.
	ErrInvalidInsertBehavior = errors.New("go-records: invalid insert behavior")
	// ErrActivityActionRequired indicates an activity is missing its action.
	ErrActivityActionRequired = errors.New("go-records: activity action required")
	// ErrActivityIDRequired indicates a command targeting a stored activity omitted its id.
	ErrActivityIDRequired = errors.New("go-records: activity id required")
	// ErrInvalidDateRange indicates the lower date bound is after the upper bound.
	ErrInvalidDateRange = errors.New("go-records: created_from must not be after created_to")
)
