package permkit

import (
	"time"

	"github.com/uptrace/bun"
)

// Role is a persisted role record.
//
// A role is either system-managed (its content is owned by the synchronization
// engine and reconciled from a RoleDefinition) or user-managed (created or
// forked by a human editor, never touched by sync). Protected roles cannot be
// deleted and their name is immutable.
type Role struct {
	bun.BaseModel `bun:"table:roles,alias:r"`

	ID          string   `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Name        string   `bun:"name,notnull,unique"`
	Label       string   `bun:"label"`
	Description string   `bun:"description"`
	Permissions []string `bun:"permissions,type:text[]"`

	// VisibleFor restricts which collections may display or assign the role.
	// Empty means visible everywhere.
	VisibleFor []string `bun:"visible_for,type:text[]"`

	Active    bool `bun:"active,notnull,default:true"`
	Protected bool `bun:"protected,notnull,default:false"`

	// SystemManaged marks the role's lifecycle as owned by the sync engine.
	SystemManaged bool `bun:"system_managed,notnull,default:false"`

	// ConfigHash is the content digest of permissions+visibleFor, present only
	// on system-managed roles. ConfigVersion is the optimistic-lock token; it
	// only ever increases.
	ConfigHash    string `bun:"config_hash"`
	ConfigVersion int64  `bun:"config_version,notnull,default:0"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// Clone returns a deep copy of the role.
func (r *Role) Clone() *Role {
	if r == nil {
		return nil
	}
	out := *r
	out.Permissions = append([]string(nil), r.Permissions...)
	out.VisibleFor = append([]string(nil), r.VisibleFor...)
	return &out
}

// GrantsEverything reports whether the role's grant set contains the literal
// universal wildcard.
func (r *Role) GrantsEverything() bool {
	if r == nil {
		return false
	}
	for _, p := range r.Permissions {
		if p == "*" {
			return true
		}
	}
	return false
}

// RoleDefinition is the declarative desired state for a system-managed role,
// reconciled into storage by the Synchronizer.
//
// Protected and Active are pointers so "unset" can be told apart from an
// explicit false: an unset Active defaults to true at creation, an unset
// Protected keeps the persisted value on update.
type RoleDefinition struct {
	Name        string
	Label       string
	Description string
	Permissions []string
	VisibleFor  []string
	Protected   *bool
	Active      *bool
}

// Bool returns a pointer to b, for optional definition and update fields.
func Bool(b bool) *bool { return &b }

// String returns a pointer to s, for optional update fields.
func String(s string) *string { return &s }

// Strings returns a pointer to a copy of values, for optional update fields.
func Strings(values ...string) *[]string {
	out := append([]string(nil), values...)
	return &out
}

// SyncFailure records a desired role the synchronization run could not apply.
type SyncFailure struct {
	Role  string
	Error string
}

// SyncResults summarizes a synchronization run. Roles whose persisted content
// already matches the desired state appear in none of the lists.
type SyncResults struct {
	Created []string
	Updated []string
	Skipped []string
	Failed  []SyncFailure
}

// RoleRefKind discriminates the RoleRef union.
type RoleRefKind int

const (
	// RoleRefAnonymous means no role at all (public caller or roleless user).
	RoleRefAnonymous RoleRefKind = iota
	// RoleRefResolved carries a fully loaded role record.
	RoleRefResolved
	// RoleRefID carries a role identifier that still needs a lookup.
	RoleRefID
)

// RoleRef is an actor's role reference, resolved once at the boundary instead
// of shape-checking raw values inside the core logic. The zero value is the
// anonymous reference.
type RoleRef struct {
	kind RoleRefKind
	role *Role
	id   string
}

// AnonymousRef returns the reference for a caller with no role.
func AnonymousRef() RoleRef {
	return RoleRef{kind: RoleRefAnonymous}
}

// ResolvedRef wraps an already loaded role record. A nil record degrades to
// the anonymous reference.
func ResolvedRef(role *Role) RoleRef {
	if role == nil {
		return AnonymousRef()
	}
	return RoleRef{kind: RoleRefResolved, role: role}
}

// IDRef wraps a role identifier that the resolver will look up. An empty
// identifier degrades to the anonymous reference.
func IDRef(id string) RoleRef {
	if id == "" {
		return AnonymousRef()
	}
	return RoleRef{kind: RoleRefID, id: id}
}

// Kind returns the variant of the reference.
func (ref RoleRef) Kind() RoleRefKind {
	return ref.kind
}

// IsAnonymous reports whether the reference carries no role.
func (ref RoleRef) IsAnonymous() bool {
	return ref.kind == RoleRefAnonymous
}

// Role returns the resolved record, if this is a resolved reference.
func (ref RoleRef) Role() (*Role, bool) {
	return ref.role, ref.kind == RoleRefResolved
}

// ID returns the role identifier, if this is an identifier reference.
func (ref RoleRef) ID() (string, bool) {
	return ref.id, ref.kind == RoleRefID
}

// Operation is a collection verb as seen by the access layer.
type Operation string

const (
	OperationCreate Operation = "create"
	OperationRead   Operation = "read"
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
)

// IsRead reports whether the operation is read-shaped. Anonymous callers may
// only ever reach the permission check for read-shaped operations.
func (op Operation) IsRead() bool {
	return op == OperationRead
}
