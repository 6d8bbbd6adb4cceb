package command

import (
	"context"
	"fmt"
	"strings"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-masker"
	"github.com/goliatone/go-records/activity"
	"github.com/goliatone/go-records/pkg/types"
)

// ActivityLogInput wraps an activity to persist.
type ActivityLogInput struct {
	Activity *types.Activity
	Behavior types.InsertBehavior
	Result   *types.Activity
}

// Type implements gocommand.Message.
func (ActivityLogInput) Type() string {
	return "command.activity.log"
}

// Validate implements gocommand.Message.
func (input ActivityLogInput) Validate() error {
	if err := validateActivity(input.Activity); err != nil {
		return err
	}
	if !input.Behavior.Valid() {
		return ErrInvalidInsertBehavior
	}
	return nil
}

// ActivityLogCommand logs a single activity.
type ActivityLogCommand struct {
	repo   types.ActivityWriter
	masker *masker.Masker
	hooks  types.Hooks
	logger types.Logger
}

// ActivityLogConfig wires dependencies for the log commands.
type ActivityLogConfig struct {
	Repository types.ActivityWriter
	Masker     *masker.Masker
	Hooks      types.Hooks
	Logger     types.Logger
}

// NewActivityLogCommand constructs the logging command handler.
func NewActivityLogCommand(cfg ActivityLogConfig) *ActivityLogCommand {
	return &ActivityLogCommand{
		repo:   cfg.Repository,
		masker: cfg.Masker,
		hooks:  cfg.Hooks,
		logger: safeLogger(cfg.Logger),
	}
}

var _ gocommand.Commander[ActivityLogInput] = (*ActivityLogCommand)(nil)

// Execute validates, masks and persists the supplied activity.
func (c *ActivityLogCommand) Execute(ctx context.Context, input ActivityLogInput) error {
	if c.repo == nil {
		return types.ErrMissingActivityRepository
	}
	if err := input.Validate(); err != nil {
		return err
	}
	activity.SanitizeActivity(c.masker, input.Activity)

	logged, err := c.repo.Insert(ctx, input.Activity, input.Behavior)
	if err != nil {
		c.logger.Error("activity log failed", err, "action", input.Activity.Action)
		return err
	}
	if input.Result != nil && logged != nil {
		*input.Result = *logged
	}
	emitActivityHook(ctx, c.hooks, logged)
	return nil
}

// ActivityBulkLogInput persists many activities in one batch.
type ActivityBulkLogInput struct {
	Activities []*types.Activity
	Behavior   types.InsertBehavior
	Results    *[]*types.Activity
}

// Type implements gocommand.Message.
func (ActivityBulkLogInput) Type() string {
	return "command.activity.log.bulk"
}

// Validate implements gocommand.Message.
func (input ActivityBulkLogInput) Validate() error {
	if len(input.Activities) == 0 {
		return ErrActivitiesRequired
	}
	for i, a := range input.Activities {
		if err := validateActivity(a); err != nil {
			return fmt.Errorf("activity %d: %w", i, err)
		}
	}
	if !input.Behavior.Valid() {
		return ErrInvalidInsertBehavior
	}
	return nil
}

// ActivityBulkLogCommand logs activities in batches.
type ActivityBulkLogCommand struct {
	repo   types.ActivityWriter
	masker *masker.Masker
	hooks  types.Hooks
	logger types.Logger
}

// NewActivityBulkLogCommand constructs the bulk logging handler.
func NewActivityBulkLogCommand(cfg ActivityLogConfig) *ActivityBulkLogCommand {
	return &ActivityBulkLogCommand{
		repo:   cfg.Repository,
		masker: cfg.Masker,
		hooks:  cfg.Hooks,
		logger: safeLogger(cfg.Logger),
	}
}

var _ gocommand.Commander[ActivityBulkLogInput] = (*ActivityBulkLogCommand)(nil)

// Execute validates, masks and persists every activity of the batch.
func (c *ActivityBulkLogCommand) Execute(ctx context.Context, input ActivityBulkLogInput) error {
	if c.repo == nil {
		return types.ErrMissingActivityRepository
	}
	if err := input.Validate(); err != nil {
		return err
	}
	for _, a := range input.Activities {
		activity.SanitizeActivity(c.masker, a)
	}

	logged, err := c.repo.InsertMany(ctx, input.Activities, input.Behavior)
	if err != nil {
		c.logger.Error("activity bulk log failed", err, "count", len(input.Activities))
		return err
	}
	if input.Results != nil {
		*input.Results = logged
	}
	for _, a := range logged {
		emitActivityHook(ctx, c.hooks, a)
	}
	c.logger.Info("activity bulk log stored", "count", len(logged), "behavior", input.Behavior.String())
	return nil
}

func validateActivity(a *types.Activity) error {
	if a == nil {
		return ErrActivityRequired
	}
	if strings.TrimSpace(a.Action) == "" {
		return ErrActivityActionRequired
	}
	return nil
}
