package access

import "context"

// Actor is the employee performing a request.
type Actor struct {
	Name  string
	Email string
	Roles RoleSet
}

// NewActor builds an actor from raw role tokens.
func NewActor(name, email string, roles []string) Actor {
	return Actor{Name: name, Email: email, Roles: ParseRoles(roles)}
}

type actorKey struct{}

// WithActor stores the actor in ctx.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// ActorFromContext returns the actor stored by WithActor.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorKey{}).(Actor)
	return a, ok
}
