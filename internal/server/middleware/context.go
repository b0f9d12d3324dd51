package middleware

import (
	"context"

	"github.com/gosuda/tenantdesk/internal/domain"
)

type contextKey string

const ContextKeyActor contextKey = "actor"

// WithActor stores the authenticated actor in ctx.
func WithActor(ctx context.Context, actor *domain.Actor) context.Context {
	return context.WithValue(ctx, ContextKeyActor, actor)
}

func ActorFromContext(ctx context.Context) (*domain.Actor, bool) {
	v, ok := ctx.Value(ContextKeyActor).(*domain.Actor)
	return v, ok && v != nil
}

// ScopeFromContext derives the Tenant Scope of the request's actor. It is
// recomputed per call from the actor, never stored on its own.
func ScopeFromContext(ctx context.Context) domain.Scope {
	actor, _ := ActorFromContext(ctx)
	return actor.Scope()
}

func RoleFromContext(ctx context.Context) (domain.Role, bool) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return "", false
	}
	return actor.Role, true
}
