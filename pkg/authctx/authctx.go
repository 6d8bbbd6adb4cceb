package authctx

import (
	"context"
	"strings"

	auth "github.com/goliatone/go-auth"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-records/pkg/types"
)

const (
	textCodeActorMissing = "ACTOR_CONTEXT_MISSING"
	textCodeActorInvalid = "ACTOR_CONTEXT_INVALID"
)

// ActorFromContext is a thin wrapper around go-auth helpers so callers do not
// need to import auth directly when they only need the actor payload.
func ActorFromContext(ctx context.Context) (*auth.ActorContext, bool) {
	return auth.ActorFromContext(ctx)
}

// ResolveActorContext returns the actor metadata stored by go-auth middleware
// or rebuilds it from JWT claims when the ContextEnricher hook was not
// configured.
func ResolveActorContext(ctx context.Context) (*auth.ActorContext, error) {
	if ctx == nil {
		return nil, errors.New("go-records: missing request context", errors.CategoryAuth).
			WithCode(errors.CodeUnauthorized).
			WithTextCode(textCodeActorMissing)
	}

	if actor, ok := auth.ActorFromContext(ctx); ok && actor != nil {
		return actor, nil
	}

	if claims, ok := auth.GetClaims(ctx); ok && claims != nil {
		if actor := auth.ActorContextFromClaims(claims); actor != nil {
			return actor, nil
		}
	}

	return nil, errors.New("go-records: auth actor context not found on request", errors.CategoryAuth).
		WithCode(errors.CodeUnauthorized).
		WithTextCode(textCodeActorMissing)
}

// ResolveActor returns the user and tenant references stamped on activities
// together with the richer auth.ActorContext payload.
func ResolveActor(ctx context.Context) (types.UserRef, types.TenantRef, *auth.ActorContext, error) {
	actorCtx, err := ResolveActorContext(ctx)
	if err != nil {
		return types.UserRef{}, types.TenantRef{}, nil, err
	}
	user, err := UserRefFromActorContext(actorCtx)
	if err != nil {
		return types.UserRef{}, types.TenantRef{}, nil, err
	}
	return user, TenantRefFromActorContext(actorCtx), actorCtx, nil
}

// UserRefFromActorContext converts the auth middleware payload into the
// embedded user reference of an activity.
func UserRefFromActorContext(actor *auth.ActorContext) (types.UserRef, error) {
	if actor == nil {
		return types.UserRef{}, errors.New("go-records: actor context is nil", errors.CategoryAuth).
			WithCode(errors.CodeUnauthorized).
			WithTextCode(textCodeActorInvalid)
	}
	id := strings.TrimSpace(actor.ActorID)
	if id == "" {
		return types.UserRef{}, errors.New("go-records: actor context missing actor_id", errors.CategoryAuth).
			WithCode(errors.CodeUnauthorized).
			WithTextCode(textCodeActorInvalid)
	}

	ref := types.UserRef{
		ID:   id,
		Role: strings.TrimSpace(actor.Role),
	}
	if ref.Role == "" {
		ref.Role = strings.TrimSpace(actor.Subject)
	}
	return ref, nil
}

// TenantRefFromActorContext returns the tenant the actor is scoped to. The
// organization identifier stands in when no tenant was resolved.
func TenantRefFromActorContext(actor *auth.ActorContext) types.TenantRef {
	if actor == nil {
		return types.TenantRef{}
	}
	id := strings.TrimSpace(actor.TenantID)
	if id == "" {
		id = strings.TrimSpace(actor.OrganizationID)
	}
	return types.TenantRef{ID: id}
}
