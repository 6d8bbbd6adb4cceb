package command

import (
	"github.com/goliatone/go-records/pkg/types"
)

var (
	// ErrActivityRequired indicates a log command was invoked without a payload.
	ErrActivityRequired = types.ErrActivityRequired
	// ErrActivitiesRequired occurs when bulk logging is invoked without activities.
	ErrActivitiesRequired = types.ErrActivitiesRequired
	// ErrActivityActionRequired indicates an activity is missing its action.
	ErrActivityActionRequired = types.ErrActivityActionRequired
	// ErrActivityIDRequired signals the activity ID was missing.
	ErrActivityIDRequired = types.ErrActivityIDRequired
	// ErrInvalidInsertBehavior indicates the conflict policy is not a known value.
	ErrInvalidInsertBehavior = types.ErrInvalidInsertBehavior
)
