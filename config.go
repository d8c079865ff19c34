package permkit

import "log/slog"

// Defaults applied by Config.withDefaults.
const (
	// DefaultRolesCollection is the slug of the roles collection in the host.
	DefaultRolesCollection = "roles"

	// DefaultFirstUserID is the reserved identifier of the very first account.
	// The holder bypasses role resolution entirely so the system can be
	// bootstrapped before any role exists.
	DefaultFirstUserID = "1"
)

// DefaultPublicPermissions is the grant set evaluated for anonymous callers
// when public access is enabled: read everything, nothing else.
func DefaultPublicPermissions() []string {
	return []string{"*.read"}
}

// Config carries the settings shared by the resolver, the access policies and
// the synchronization engine. It is passed explicitly to constructors; there
// is no package-level mutable configuration.
type Config struct {
	// RolesCollection is the slug under which the host stores role documents.
	// Defaults to "roles".
	RolesCollection string

	// FirstUserID is the reserved actor identifier granted unconditional
	// access. Defaults to "1". Hosts with numeric identifiers pass their
	// decimal rendering.
	FirstUserID string

	// PublicPermissions is the grant set evaluated for anonymous callers.
	// Defaults to read-all ("*.read"). Ignored when DisablePublicAccess is set.
	PublicPermissions []string

	// DisablePublicAccess denies anonymous callers outright instead of
	// evaluating PublicPermissions.
	DisablePublicAccess bool

	// Logger receives warnings for failed role lookups and sync diagnostics.
	// Defaults to slog.Default().
	Logger *slog.Logger
}

func (c Config) withDefaults() Config {
	if c.RolesCollection == "" {
		c.RolesCollection = DefaultRolesCollection
	}
	if c.FirstUserID == "" {
		c.FirstUserID = DefaultFirstUserID
	}
	if c.PublicPermissions == nil {
		c.PublicPermissions = DefaultPublicPermissions()
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}
