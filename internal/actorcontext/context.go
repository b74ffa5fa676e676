// Package actorcontext propagates the identity recorded on audit entries.
package actorcontext

import "context"

type contextKey string

const (
	actorKey     contextKey = "pricebook.actor"
	requestIDKey contextKey = "pricebook.request_id"
)

const (
	// DefaultUser is recorded for request mutations with no X-Actor header.
	DefaultUser = "User"
	// SystemUser is recorded for boot-time and seed mutations.
	SystemUser = "System"
)

func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFromContext returns the acting identity, defaulting to DefaultUser.
func ActorFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(actorKey).(string); ok && v != "" {
		return v
	}
	return DefaultUser
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func RequestIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}
