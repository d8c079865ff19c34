// Package permkit provides role-based access control for content-management
// backends: wildcard permission matching, protected system roles, optimistic
// role synchronization and per-operation access decisions.
//
// PermKit is a plugin-shaped library: it owns the permission evaluation and
// role reconciliation logic and leaves schema definition, rendering and
// request plumbing to the host framework.
//
// # Core Concepts
//
// Permission: a dot-separated capability string like "posts.read" or
// "users.invite". Wildcards are supported per segment: "*" (everything),
// "posts.*" (everything under posts), "*.read" (read on every resource),
// "a.*.c" (any value in the middle position).
//
// Role: a named permission set persisted as a record. Roles can be protected
// (undeletable, name immutable) and system-managed (content owned by the
// synchronization engine, reconciled from declarative definitions at
// startup). A user editing a system-managed role forks it away from system
// management.
//
// Actor: whoever performs an operation, referenced by a RoleRef - a resolved
// role record, a role identifier, or nothing at all (anonymous). The reserved
// first-user identifier bypasses roles entirely so a fresh installation can
// be bootstrapped.
//
// # Basic Usage
//
//	// 1. Create the store and run migrations
//	db, _ := dbkit.New(dbkit.Config{URL: "postgres://..."})
//	store := permkit.NewStore(db)
//	_, _ = db.Migrate(ctx, store.Migrations())
//
//	// 2. Reconcile the system roles at startup
//	sync := permkit.NewSynchronizer(store)
//	results := sync.SyncSystemRoles(ctx, []permkit.RoleDefinition{
//	    {Name: "admin", Label: "Administrator", Permissions: []string{"*"}, Protected: permkit.Bool(true)},
//	    {Name: "editor", Label: "Editor", Permissions: []string{"posts.*", "media.*"}},
//	    {Name: "viewer", Label: "Viewer", Permissions: []string{"*.read"}},
//	})
//
//	// 3. Build access decisions for a collection
//	resolver := permkit.NewResolver(permkit.Config{}, store)
//	policy := permkit.NewAccessPolicy(resolver)
//	canUpdate := policy.Access("posts", permkit.OperationUpdate, existingUpdateAccess)
//
//	// 4. Decide
//	decision, err := canUpdate(ctx, permkit.AccessArgs{
//	    Ref:     permkit.IDRef(user.RoleID),
//	    ActorID: user.ID,
//	})
//
// # Wildcard Permissions
//
// Matching is positional and anchored: "users.*" matches "users.read" but
// never "usersx.read". The literal "*" grants everything. Compiled wildcard
// patterns are cached in a bounded LRU so arbitrary user-defined permission
// strings cannot grow memory without bound.
//
// # Role Synchronization
//
// SyncSystemRoles is idempotent and safe to run on every process start. Each
// system-managed role carries a content hash over its sorted permission and
// visibility lists plus a monotonically increasing config version used as an
// optimistic-lock token. Concurrent writers lose with a "Concurrent update
// detected" failure entry instead of clobbering each other; user-forked roles
// (systemManaged false) are never touched.
//
// # Guarding Role Mutations
//
// AssignmentGuard enforces the invariants at role-mutation points: assigning
// a role requires the actor's grant set to semantically cover the target
// role's grants (protected roles require the literal "*"), a protected role's
// name is immutable, and the holder of a full-access role cannot remove "*"
// from their own role (self-lockout prevention). Violations surface as
// ValidationError values with per-field messages, distinct from ordinary
// permission denials.
package permkit
