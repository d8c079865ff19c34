package permkit

import "net/http"

// Middleware provides HTTP middleware gating handlers on permissions.
type Middleware struct {
	resolver     *Resolver
	getActor     func(*http.Request) (RoleRef, string)
	errorHandler func(http.ResponseWriter, *http.Request, error)
}

// MiddlewareOption configures the Middleware.
type MiddlewareOption func(*Middleware)

// NewMiddleware creates a new Middleware instance.
//
// Example:
//
//	mw := permkit.NewMiddleware(resolver,
//	    permkit.WithActorExtractor(func(r *http.Request) (permkit.RoleRef, string) {
//	        session := sessionFrom(r)
//	        return permkit.IDRef(session.RoleID), session.UserID
//	    }),
//	)
func NewMiddleware(resolver *Resolver, opts ...MiddlewareOption) *Middleware {
	m := &Middleware{
		resolver:     resolver,
		getActor:     defaultGetActor,
		errorHandler: defaultErrorHandler,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// WithActorExtractor sets a custom function to extract the actor's role
// reference and identifier from a request.
func WithActorExtractor(fn func(*http.Request) (RoleRef, string)) MiddlewareOption {
	return func(m *Middleware) {
		m.getActor = fn
	}
}

// WithErrorHandler sets a custom error handler for middleware.
func WithErrorHandler(fn func(http.ResponseWriter, *http.Request, error)) MiddlewareOption {
	return func(m *Middleware) {
		m.errorHandler = fn
	}
}

func defaultGetActor(r *http.Request) (RoleRef, string) {
	ctx := r.Context()
	return GetActorRole(ctx), GetActorID(ctx)
}

func defaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	if IsUnauthorized(err) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

// RequirePermission creates middleware that requires a specific permission.
//
// Example:
//
//	router.With(mw.RequirePermission("posts.update")).
//	    Put("/posts/{id}", updatePostHandler)
func (m *Middleware) RequirePermission(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ref, actorID := m.getActor(r)

			if !m.resolver.CheckPermission(r.Context(), ref, permission, actorID) {
				m.errorHandler(w, r, NewError(ErrUnauthorized, "missing required permission").
					WithActor(actorID))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireOperation creates middleware that requires the permission for one
// collection verb, denying anonymous callers on non-read verbs outright.
//
// Example:
//
//	router.With(mw.RequireOperation("posts", permkit.OperationDelete)).
//	    Delete("/posts/{id}", deletePostHandler)
func (m *Middleware) RequireOperation(collection string, op Operation) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ref, actorID := m.getActor(r)

			if actorID == "" && ref.IsAnonymous() && !op.IsRead() {
				m.errorHandler(w, r, NewError(ErrUnauthorized, "anonymous callers may only read"))
				return
			}

			required := collection + "." + string(op)
			if !m.resolver.CheckPermission(r.Context(), ref, required, actorID) {
				m.errorHandler(w, r, NewError(ErrUnauthorized, "missing required permission").
					WithActor(actorID))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
