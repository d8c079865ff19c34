package permkit

import (
	"context"
	"log/slog"
)

// Resolver turns an actor's role reference into an effective permission set
// and answers permission checks against it.
//
// Resolution is total: every failure path (missing role, inactive role,
// lookup error) resolves to a denial, never to an error in the caller's
// control flow. Lookup failures are logged as warnings with the attempted
// identifier.
type Resolver struct {
	cfg     Config
	matcher *PermissionMatcher
	lookup  RoleLookup
	logger  *slog.Logger
}

// NewResolver creates a Resolver over a role lookup collaborator.
func NewResolver(cfg Config, lookup RoleLookup) *Resolver {
	cfg = cfg.withDefaults()
	return &Resolver{
		cfg:     cfg,
		matcher: NewPermissionMatcher(),
		lookup:  lookup,
		logger:  cfg.Logger,
	}
}

// Matcher returns the resolver's permission matcher.
func (r *Resolver) Matcher() *PermissionMatcher {
	return r.matcher
}

// CheckPermission reports whether the actor identified by ref/actorID holds
// the required permission.
//
// Resolution order:
//  1. The first-user sentinel bypasses roles entirely (bootstrap).
//  2. Fully anonymous callers are evaluated against the configured public
//     permission set, unless public access is disabled.
//  3. An authenticated actor without a role is denied.
//  4. A resolved role record is used as-is; an identifier is looked up.
//  5. A missing or inactive role denies.
func (r *Resolver) CheckPermission(ctx context.Context, ref RoleRef, required string, actorID string) bool {
	if actorID != "" && actorID == r.cfg.FirstUserID {
		return true
	}

	if ref.IsAnonymous() {
		if actorID != "" {
			// Authenticated but roleless: no permissions.
			return false
		}
		if r.cfg.DisablePublicAccess {
			return false
		}
		return r.matcher.HasPermission(r.cfg.PublicPermissions, required)
	}

	role := r.resolve(ctx, ref)
	if role == nil || !role.Active {
		return false
	}

	return r.matcher.HasPermission(role.Permissions, required)
}

// EffectivePermissions returns the permission set the actor operates with,
// or nil when the actor has none. The first user resolves to the universal
// wildcard; anonymous callers resolve to the public set when enabled.
func (r *Resolver) EffectivePermissions(ctx context.Context, ref RoleRef, actorID string) []string {
	if actorID != "" && actorID == r.cfg.FirstUserID {
		return []string{"*"}
	}

	if ref.IsAnonymous() {
		if actorID != "" || r.cfg.DisablePublicAccess {
			return nil
		}
		return append([]string(nil), r.cfg.PublicPermissions...)
	}

	role := r.resolve(ctx, ref)
	if role == nil || !role.Active {
		return nil
	}
	return append([]string(nil), role.Permissions...)
}

// ResolveRole resolves a reference to its role record, or nil when it cannot
// be resolved. Inactive roles are returned as-is; callers that care about
// activity check the flag.
func (r *Resolver) ResolveRole(ctx context.Context, ref RoleRef) *Role {
	return r.resolve(ctx, ref)
}

func (r *Resolver) resolve(ctx context.Context, ref RoleRef) *Role {
	if role, ok := ref.Role(); ok {
		return role
	}

	id, ok := ref.ID()
	if !ok {
		return nil
	}

	if r.lookup == nil {
		r.logger.Warn("role lookup unavailable", "role_id", id)
		return nil
	}

	role, err := r.lookup.FindRoleByID(ctx, id)
	if err != nil {
		r.logger.Warn("role lookup failed", "role_id", id, "error", err)
		return nil
	}
	if role == nil {
		r.logger.Warn("role not found", "role_id", id)
		return nil
	}
	return role
}
