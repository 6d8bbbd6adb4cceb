package command

import (
	"context"
	"strings"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-records/pkg/types"
)

// ActivityDeleteInput removes or flags a stored activity.
type ActivityDeleteInput struct {
	ID       string
	Behavior types.DeleteBehavior
	// Deleted reports whether a stored activity was affected.
	Deleted *bool
}

// Type implements gocommand.Message.
func (ActivityDeleteInput) Type() string {
	return "command.activity.delete"
}

// Validate implements gocommand.Message.
func (input ActivityDeleteInput) Validate() error {
	if strings.TrimSpace(input.ID) == "" {
		return ErrActivityIDRequired
	}
	return nil
}

// ActivityDeleteCommand soft or hard deletes activities.
type ActivityDeleteCommand struct {
	repo   types.ActivityWriter
	hooks  types.Hooks
	logger types.Logger
}

// ActivityDeleteConfig wires dependencies for the delete command.
type ActivityDeleteConfig struct {
	Repository types.ActivityWriter
	Hooks      types.Hooks
	Logger     types.Logger
}

// NewActivityDeleteCommand constructs the delete handler.
func NewActivityDeleteCommand(cfg ActivityDeleteConfig) *ActivityDeleteCommand {
	return &ActivityDeleteCommand{
		repo:   cfg.Repository,
		hooks:  cfg.Hooks,
		logger: safeLogger(cfg.Logger),
	}
}

var _ gocommand.Commander[ActivityDeleteInput] = (*ActivityDeleteCommand)(nil)

// Execute loads the activity and deletes it with the requested behavior.
func (c *ActivityDeleteCommand) Execute(ctx context.Context, input ActivityDeleteInput) error {
	if c.repo == nil {
		return types.ErrMissingActivityRepository
	}
	if err := input.Validate(); err != nil {
		return err
	}
	record, err := c.repo.FindByID(ctx, strings.TrimSpace(input.ID))
	if err != nil {
		return err
	}
	ok, err := c.repo.Delete(ctx, record, input.Behavior)
	if err != nil {
		c.logger.Error("activity delete failed", err, "id", record.ID)
		return err
	}
	if input.Deleted != nil {
		*input.Deleted = ok
	}
	if ok && c.hooks.AfterActivityDelete != nil {
		c.hooks.AfterActivityDelete(ctx, record, input.Behavior)
	}
	return nil
}
