package permkit

import "context"

// Decision is the result of an access function: a plain allow/deny, or an
// allow constrained by an opaque query filter understood by the host
// persistence layer (row-level filtering stays host logic; this package only
// passes such filters through).
type Decision struct {
	Allowed bool
	Filter  map[string]any
}

// Allow returns an unconstrained allow decision.
func Allow() Decision {
	return Decision{Allowed: true}
}

// Deny returns a deny decision.
func Deny() Decision {
	return Decision{}
}

// AllowWhere returns an allow decision constrained by a query filter.
func AllowWhere(filter map[string]any) Decision {
	return Decision{Allowed: true, Filter: filter}
}

// AccessArgs identifies the actor of an inbound operation.
type AccessArgs struct {
	Ref     RoleRef
	ActorID string
}

// AccessFunc is the per-operation decision function shape the host's
// authorization layer consumes.
type AccessFunc func(ctx context.Context, args AccessArgs) (Decision, error)

// AccessPolicy builds per-operation access functions that layer the
// permission check in front of any pre-existing, collection-specific access
// logic.
type AccessPolicy struct {
	resolver *Resolver
}

// NewAccessPolicy creates an AccessPolicy over a resolver.
func NewAccessPolicy(resolver *Resolver) *AccessPolicy {
	return &AccessPolicy{resolver: resolver}
}

// Access returns the decision function for one collection verb.
//
// The permission check is a necessary but not sufficient gate: a denial
// short-circuits without ever consulting the prior decision, while a grant
// delegates to the prior decision (when one exists) and returns its result
// verbatim, boolean or query constraint alike. Anonymous callers are denied
// non-read operations before any permission work happens.
//
// Example:
//
//	policy := permkit.NewAccessPolicy(resolver)
//	readPosts := policy.Access("posts", permkit.OperationRead, existingReadAccess)
func (p *AccessPolicy) Access(collection string, op Operation, prior AccessFunc) AccessFunc {
	required := collection + "." + string(op)

	return func(ctx context.Context, args AccessArgs) (Decision, error) {
		if args.ActorID == "" && args.Ref.IsAnonymous() && !op.IsRead() {
			return Deny(), nil
		}

		if !p.resolver.CheckPermission(ctx, args.Ref, required, args.ActorID) {
			return Deny(), nil
		}

		if prior != nil {
			return prior(ctx, args)
		}
		return Allow(), nil
	}
}

// CollectionAccess bundles the four verb decisions for one collection.
type CollectionAccess struct {
	Create AccessFunc
	Read   AccessFunc
	Update AccessFunc
	Delete AccessFunc
}

// ForCollection returns access functions for all four verbs of a collection,
// with no prior decisions attached.
func (p *AccessPolicy) ForCollection(collection string) CollectionAccess {
	return CollectionAccess{
		Create: p.Access(collection, OperationCreate, nil),
		Read:   p.Access(collection, OperationRead, nil),
		Update: p.Access(collection, OperationUpdate, nil),
		Delete: p.Access(collection, OperationDelete, nil),
	}
}

// ForRoles returns access functions for the host's roles collection itself,
// under the slug the resolver was configured with. Role mutations additionally
// go through the AssignmentGuard; these functions only gate the raw verbs.
func (p *AccessPolicy) ForRoles() CollectionAccess {
	return p.ForCollection(p.resolver.cfg.RolesCollection)
}
