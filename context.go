package permkit

import "context"

// Context keys for permkit values.
type contextKey string

const (
	contextKeyActorID   contextKey = "permkit:actor_id"
	contextKeyActorRole contextKey = "permkit:actor_role"
	contextKeyRequestID contextKey = "permkit:request_id"
)

// WithActorID adds the acting user's identifier to the context.
func WithActorID(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, contextKeyActorID, actorID)
}

// GetActorID retrieves the actor ID from context.
// Returns empty string if not set.
func GetActorID(ctx context.Context) string {
	if v := ctx.Value(contextKeyActorID); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// WithActorRole adds the actor's role reference to the context.
func WithActorRole(ctx context.Context, ref RoleRef) context.Context {
	return context.WithValue(ctx, contextKeyActorRole, ref)
}

// GetActorRole retrieves the actor's role reference from context.
// Returns the anonymous reference if not set.
func GetActorRole(ctx context.Context) RoleRef {
	if v := ctx.Value(contextKeyActorRole); v != nil {
		if ref, ok := v.(RoleRef); ok {
			return ref
		}
	}
	return AnonymousRef()
}

// WithRequestID adds a request ID to the context (for change-log correlation).
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, contextKeyRequestID, requestID)
}

// GetRequestID retrieves the request ID from context.
func GetRequestID(ctx context.Context) string {
	if v := ctx.Value(contextKeyRequestID); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
