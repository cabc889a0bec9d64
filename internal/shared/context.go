package shared

import (
	"context"

	"github.com/google/uuid"
)

// Actor identifies the authenticated user performing a request.
type Actor struct {
	ID       uuid.UUID
	Username string
	Admin    bool
}

type actorContextKey struct{}

// ContextWithActor stores the acting user in context.
func ContextWithActor(ctx context.Context, actor *Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext extracts the acting user from context.
func ActorFromContext(ctx context.Context) *Actor {
	actor, _ := ctx.Value(actorContextKey{}).(*Actor)
	return actor
}

// ActorID returns the acting user id, or uuid.Nil when unauthenticated.
func ActorID(ctx context.Context) uuid.UUID {
	if actor := ActorFromContext(ctx); actor != nil {
		return actor.ID
	}
	return uuid.Nil
}
