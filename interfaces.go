package permkit

import "context"

// RoleLookup is the narrow collaborator the resolver needs: fetch a role by
// its identifier.
type RoleLookup interface {
	// FindRoleByID returns the role, or (nil, nil) when no such role exists.
	FindRoleByID(ctx context.Context, id string) (*Role, error)
}

// RoleStore is the persistence collaborator consumed by the synchronization
// engine and the bundled middleware helpers.
type RoleStore interface {
	RoleLookup

	// FindRoleByName returns the roles matching a name. Zero or one element
	// is expected; the list framing follows the host convention.
	FindRoleByName(ctx context.Context, name string) ([]Role, error)

	// CreateRole persists a new role and returns the stored record.
	CreateRole(ctx context.Context, role *Role) (*Role, error)

	// UpdateRole overwrites the mutable fields of an existing role and
	// returns the stored record.
	UpdateRole(ctx context.Context, id string, role *Role) (*Role, error)
}

// ConditionalUpdater is an optional RoleStore upgrade: an update that only
// applies while the persisted config version still matches expectedVersion.
// Stores backed by an engine with a native conditional write should implement
// it; the synchronization engine prefers it over the read-recheck-write
// fallback because it closes the re-check window entirely.
type ConditionalUpdater interface {
	// UpdateRoleIfVersion behaves like UpdateRole but fails with
	// ErrConcurrentUpdate when the persisted config version no longer equals
	// expectedVersion.
	UpdateRoleIfVersion(ctx context.Context, id string, role *Role, expectedVersion int64) (*Role, error)
}

// RoleCounter is an optional counting surface, used by hosts to detect
// bootstrap states such as "no roles yet".
type RoleCounter interface {
	CountRoles(ctx context.Context) (int, error)
}
