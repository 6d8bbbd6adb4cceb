package command

import (
	"context"

	"github.com/goliatone/go-records/pkg/types"
)

func safeLogger(logger types.Logger) types.Logger {
	if logger != nil {
		return logger
	}
	return types.NopLogger{}
}

func emitActivityHook(ctx context.Context, hooks types.Hooks, activity *types.Activity) {
	if hooks.AfterActivity == nil || activity == nil {
		return
	}
	hooks.AfterActivity(ctx, activity)
}
