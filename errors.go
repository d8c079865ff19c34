package permkit

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for permkit operations.
var (
	// ErrInvalidPermission is returned when a permission string is malformed.
	ErrInvalidPermission = errors.New("permkit: invalid permission")

	// ErrUnauthorized is returned when an actor lacks a required permission.
	ErrUnauthorized = errors.New("permkit: unauthorized")

	// ErrCannotAssign is returned when an actor tries to assign a role whose
	// grant set they do not fully cover.
	ErrCannotAssign = errors.New("permkit: cannot assign role")

	// ErrProtectedRole is returned on attempts to delete a protected role or
	// change its identity fields.
	ErrProtectedRole = errors.New("permkit: role is protected")

	// ErrSelfLockout is returned when an actor tries to remove the universal
	// wildcard from their own currently assigned role.
	ErrSelfLockout = errors.New("permkit: cannot remove full access from own role")

	// ErrConcurrentUpdate is returned when an optimistic version check fails.
	ErrConcurrentUpdate = errors.New("permkit: concurrent update detected")

	// ErrRoleNotFound is returned when a role record does not exist.
	ErrRoleNotFound = errors.New("permkit: role not found")

	// ErrDatabaseError is returned when a storage operation fails.
	ErrDatabaseError = errors.New("permkit: database error")
)

// Error wraps a sentinel error with additional context.
type Error struct {
	Err     error  // Underlying sentinel error
	Message string // Additional context
	Role    string // Role name involved (if applicable)
	RoleID  string // Role identifier involved (if applicable)
	ActorID string // Actor who triggered the error (if applicable)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is checks if the error matches a target error.
func (e *Error) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewError creates a new Error with context.
func NewError(err error, message string) *Error {
	return &Error{
		Err:     err,
		Message: message,
	}
}

// WithRole adds the role name to the error.
func (e *Error) WithRole(role string) *Error {
	e.Role = role
	return e
}

// WithRoleID adds the role identifier to the error.
func (e *Error) WithRoleID(roleID string) *Error {
	e.RoleID = roleID
	return e
}

// WithActor adds actor information to the error.
func (e *Error) WithActor(actorID string) *Error {
	e.ActorID = actorID
	return e
}

// FieldError is a single per-field message inside a ValidationError.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError is a business-rule violation raised at the point where a
// role mutation is accepted or rejected. It carries an error kind (one of the
// sentinels above) and the offending fields, so hosts can surface it to end
// users distinctly from a generic permission denial.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Err.Error()
	}
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return fmt.Sprintf("%s (%s)", e.Err.Error(), strings.Join(parts, "; "))
}

// Unwrap returns the error kind for errors.Is/As.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a ValidationError for a kind with one field.
func NewValidationError(kind error, field, message string) *ValidationError {
	return &ValidationError{
		Err:    kind,
		Fields: []FieldError{{Field: field, Message: message}},
	}
}

// WithField appends another offending field.
func (e *ValidationError) WithField(field, message string) *ValidationError {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
	return e
}

// IsUnauthorized checks if an error is an authorization error.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsCannotAssign checks if an error is due to lacking assignment coverage.
func IsCannotAssign(err error) bool {
	return errors.Is(err, ErrCannotAssign)
}

// IsProtectedRole checks if an error is due to a protected role.
func IsProtectedRole(err error) bool {
	return errors.Is(err, ErrProtectedRole)
}

// IsSelfLockout checks if an error is a self-lockout rejection.
func IsSelfLockout(err error) bool {
	return errors.Is(err, ErrSelfLockout)
}

// IsConcurrentUpdate checks if an error is an optimistic-lock conflict.
func IsConcurrentUpdate(err error) bool {
	return errors.Is(err, ErrConcurrentUpdate)
}

// IsRoleNotFound checks if an error means the role record does not exist.
func IsRoleNotFound(err error) bool {
	return errors.Is(err, ErrRoleNotFound)
}
