package permkit

// Actor identifies the authenticated actor at a role-mutation point: who they
// are, which role they currently hold, and the permission set they operate
// with.
type Actor struct {
	ID          string
	RoleID      string
	Permissions []string
}

// RoleUpdate is a partial update to a role document. Nil fields are left
// untouched.
type RoleUpdate struct {
	Name        *string
	Label       *string
	Description *string
	Permissions *[]string
	VisibleFor  *[]string
	Active      *bool
	Protected   *bool
}

// ApplyTo writes the non-nil fields of the update onto a role record.
func (u RoleUpdate) ApplyTo(role *Role) {
	if u.Name != nil {
		role.Name = *u.Name
	}
	if u.Label != nil {
		role.Label = *u.Label
	}
	if u.Description != nil {
		role.Description = *u.Description
	}
	if u.Permissions != nil {
		role.Permissions = append([]string(nil), (*u.Permissions)...)
	}
	if u.VisibleFor != nil {
		role.VisibleFor = append([]string(nil), (*u.VisibleFor)...)
	}
	if u.Active != nil {
		role.Active = *u.Active
	}
	if u.Protected != nil {
		role.Protected = *u.Protected
	}
}

// AssignmentGuard vets role assignments and role mutations. All methods are
// pure; callers resolve identifier-form inputs first.
type AssignmentGuard struct {
	matcher *PermissionMatcher
}

// NewAssignmentGuard creates a guard sharing the given matcher. A nil matcher
// uses the package default.
func NewAssignmentGuard(matcher *PermissionMatcher) *AssignmentGuard {
	if matcher == nil {
		matcher = DefaultMatcher
	}
	return &AssignmentGuard{matcher: matcher}
}

// CanAssign reports whether an actor with the given permission set may assign
// the target role.
//
// Protected roles require the literal universal wildcard, regardless of any
// other permission the actor holds. For everything else the actor's grant set
// must semantically cover every permission the target role grants: an actor
// holding "posts.*" may assign a role granting "posts.read", but not one that
// additionally grants "users.read". A role with no permissions can always be
// assigned.
func (g *AssignmentGuard) CanAssign(actorPermissions []string, target *Role) bool {
	if target == nil {
		return false
	}

	if target.Protected {
		return containsLiteral(actorPermissions, "*")
	}

	for _, p := range target.Permissions {
		if !g.matcher.HasPermission(actorPermissions, p) {
			return false
		}
	}
	return true
}

// ValidateUpdate vets a partial update to an existing role document and
// returns a ValidationError when a business rule forbids it.
//
// Rules enforced:
//   - A protected role's name is immutable, whatever the actor's permission
//     level. Other fields remain editable.
//   - The holder of a full-access role may not remove the universal wildcard
//     from that same role (self-lockout prevention). Editing a different
//     full-access role the same way is allowed.
func (g *AssignmentGuard) ValidateUpdate(actor Actor, existing *Role, update RoleUpdate) error {
	if existing == nil {
		return NewError(ErrRoleNotFound, "cannot update a role that does not exist")
	}

	if existing.Protected && update.Name != nil && *update.Name != existing.Name {
		return NewValidationError(ErrProtectedRole, "name",
			"the name of a protected role cannot be changed")
	}

	if update.Permissions != nil &&
		existing.ID != "" && existing.ID == actor.RoleID &&
		existing.GrantsEverything() &&
		!containsLiteral(*update.Permissions, "*") {
		return NewValidationError(ErrSelfLockout, "permissions",
			"removing full access from your own role would lock you out")
	}

	return nil
}

// ValidateDelete vets the deletion of a role document. Protected roles can
// never be deleted.
func (g *AssignmentGuard) ValidateDelete(existing *Role) error {
	if existing == nil {
		return NewError(ErrRoleNotFound, "cannot delete a role that does not exist")
	}
	if existing.Protected {
		return NewValidationError(ErrProtectedRole, "protected",
			"protected roles cannot be deleted")
	}
	return nil
}

func containsLiteral(set []string, value string) bool {
	for _, p := range set {
		if p == value {
			return true
		}
	}
	return false
}

// DefaultGuard is the default assignment guard instance.
var DefaultGuard = NewAssignmentGuard(DefaultMatcher)

// CanAssignRole is a convenience function using the default guard.
func CanAssignRole(actorPermissions []string, target *Role) bool {
	return DefaultGuard.CanAssign(actorPermissions, target)
}
