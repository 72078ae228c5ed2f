// Package requestctx carries host-verified caller identity through a request.
package requestctx

import "context"

// actorIDContextKey is the context key for the authenticated caller identity.
type actorIDContextKey struct{}

// WithActorID stores a caller identity in context.
func WithActorID(ctx context.Context, actorID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, actorIDContextKey{}, actorID)
}

// ActorIDFromContext returns the caller identity stored in context.
func ActorIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(actorIDContextKey{}).(string)
	return value
}
