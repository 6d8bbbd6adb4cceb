package activity

import (
	"strings"

	"github.com/goliatone/go-auth"
	"github.com/goliatone/go-records/pkg/authctx"
	"github.com/goliatone/go-records/pkg/types"
)

// ActivityOption mutates the Activity produced by BuildFromActor.
type ActivityOption func(*types.Activity)

// WithChannel sets the channel/module field used for downstream filtering.
func WithChannel(channel string) ActivityOption {
	return func(activity *types.Activity) {
		activity.Channel = strings.TrimSpace(channel)
	}
}

// WithLevel sets the activity level.
func WithLevel(level types.ActivityLevel) ActivityOption {
	return func(activity *types.Activity) {
		activity.Level = level
	}
}

// WithDescription sets the human readable description.
func WithDescription(description string) ActivityOption {
	return func(activity *types.Activity) {
		activity.Description = strings.TrimSpace(description)
	}
}

// WithIP records the client address the activity originated from.
func WithIP(ip string) ActivityOption {
	return func(activity *types.Activity) {
		activity.IP = strings.TrimSpace(ip)
	}
}

// BuildFromActor constructs an Activity using the actor metadata supplied by
// go-auth middleware plus the action, resource and optional metadata. The
// metadata map is copied.
func BuildFromActor(actor *auth.ActorContext, action string, resource types.ResourceRef, metadata map[string]any, opts ...ActivityOption) (*types.Activity, error) {
	user, err := authctx.UserRefFromActorContext(actor)
	if err != nil {
		return nil, err
	}

	activity := &types.Activity{
		Action: strings.TrimSpace(action),
		Resource: types.ResourceRef{
			Identifier: strings.TrimSpace(resource.Identifier),
			Kind:       strings.TrimSpace(resource.Kind),
			Name:       strings.TrimSpace(resource.Name),
		},
		User:     user,
		Tenant:   authctx.TenantRefFromActorContext(actor),
		Metadata: cloneMetadata(metadata),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(activity)
		}
	}
	return activity, nil
}
