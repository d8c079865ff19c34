package permkit

import (
	"context"
	"time"

	"github.com/fernandezvara/dbkit"
	"github.com/uptrace/bun"
)

// Store is the PostgreSQL-backed RoleStore, built on dbkit/bun.
//
// Error Handling:
// All database operations use dbkit's chainable error wrapping to provide
// detailed context about failed operations, preserving original error types
// for classification (dbkit.IsDuplicate, dbkit.IsNotFound).
type Store struct {
	db dbkit.IDB
}

// NewStore creates a Store over a dbkit database handle.
//
// Example:
//
//	db, _ := dbkit.New(dbkit.Config{URL: "postgres://..."})
//	store := permkit.NewStore(db)
//	_, _ = db.Migrate(ctx, store.Migrations())
func NewStore(db dbkit.IDB) *Store {
	return &Store{db: db}
}

// roleColumns are the columns written by UpdateRole.
var roleColumns = []string{
	"name", "label", "description", "permissions", "visible_for",
	"active", "protected", "system_managed", "config_hash", "config_version",
	"updated_at",
}

// FindRoleByID returns the role with the given identifier, or (nil, nil)
// when it does not exist.
func (s *Store) FindRoleByID(ctx context.Context, id string) (*Role, error) {
	var role Role
	err := dbkit.WithErr1(s.db.NewSelect().Model(&role).Where("id = ?", id).Limit(1).Scan(ctx), "FindRoleByID").Err()
	if err != nil {
		if dbkit.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &role, nil
}

// FindRoleByName returns the roles matching a name. The name column carries a
// unique constraint, so zero or one element comes back.
func (s *Store) FindRoleByName(ctx context.Context, name string) ([]Role, error) {
	var roles []Role
	err := dbkit.WithErr1(s.db.NewSelect().Model(&roles).Where("name = ?", name).Scan(ctx), "FindRoleByName").Err()
	if err != nil {
		return nil, err
	}
	return roles, nil
}

// CreateRole persists a new role and returns the stored record.
func (s *Store) CreateRole(ctx context.Context, role *Role) (*Role, error) {
	stored := role.Clone()
	now := time.Now()
	stored.CreatedAt = now
	stored.UpdatedAt = now

	result, err := s.db.NewInsert().Model(stored).Returning("*").Exec(ctx)
	if err := dbkit.WithErr(result, err, "CreateRole").Err(); err != nil {
		return nil, err
	}
	return stored, nil
}

// UpdateRole overwrites the mutable fields of an existing role.
func (s *Store) UpdateRole(ctx context.Context, id string, role *Role) (*Role, error) {
	stored := role.Clone()
	stored.ID = id
	stored.UpdatedAt = time.Now()

	result, err := s.db.NewUpdate().Model(stored).
		Column(roleColumns...).
		Where("id = ?", id).
		Exec(ctx)
	if err := dbkit.WithErr(result, err, "UpdateRole").Err(); err != nil {
		return nil, err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return nil, NewError(ErrRoleNotFound, "no role with this id").WithRoleID(id)
	}
	return s.FindRoleByID(ctx, id)
}

// UpdateRoleIfVersion updates a role only while its persisted config version
// still equals expectedVersion, as a single conditional statement. Returns
// ErrConcurrentUpdate when another writer moved the version first.
func (s *Store) UpdateRoleIfVersion(ctx context.Context, id string, role *Role, expectedVersion int64) (*Role, error) {
	stored := role.Clone()
	stored.ID = id
	stored.UpdatedAt = time.Now()

	result, err := s.db.NewUpdate().Model(stored).
		Column(roleColumns...).
		Where("id = ? AND config_version = ?", id, expectedVersion).
		Exec(ctx)
	if err := dbkit.WithErr(result, err, "UpdateRoleIfVersion").Err(); err != nil {
		return nil, err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		// Either the role is gone or its version moved. Tell the two apart.
		current, ferr := s.FindRoleByID(ctx, id)
		if ferr != nil {
			return nil, ferr
		}
		if current == nil {
			return nil, NewError(ErrRoleNotFound, "no role with this id").WithRoleID(id)
		}
		return nil, NewError(ErrConcurrentUpdate, "config version moved").WithRoleID(id)
	}
	return s.FindRoleByID(ctx, id)
}

// CountRoles returns the number of role records.
func (s *Store) CountRoles(ctx context.Context) (int, error) {
	return dbkit.Count[Role](ctx, s.db, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q
	})
}

// Migrations returns all database migrations required for permkit.
// Use dbkit.Migrate(ctx, store.Migrations()) to run migrations.
func (s *Store) Migrations() []dbkit.Migration {
	return []dbkit.Migration{
		{
			ID:          "permkit-001",
			Description: "Create roles table",
			SQL: `
                CREATE TABLE IF NOT EXISTS roles (
                    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
                    name TEXT NOT NULL UNIQUE,
                    label TEXT,
                    description TEXT,
                    permissions TEXT[],
                    visible_for TEXT[],
                    active BOOLEAN NOT NULL DEFAULT true,
                    protected BOOLEAN NOT NULL DEFAULT false,
                    system_managed BOOLEAN NOT NULL DEFAULT false,
                    config_hash TEXT,
                    config_version BIGINT NOT NULL DEFAULT 0,
                    created_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    updated_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp
                )`,
		},
		{
			ID:          "permkit-002",
			Description: "Create role_change_log table",
			SQL: `
                CREATE TABLE IF NOT EXISTS role_change_log (
                    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
                    timestamp TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    action TEXT NOT NULL,
                    role_name TEXT NOT NULL,
                    detail TEXT,
                    actor_id TEXT,
                    request_id TEXT
                )`,
		},
	}
}

// Health performs a comprehensive health check of the database connection.
func (s *Store) Health(ctx context.Context) dbkit.HealthStatus {
	if db, ok := s.db.(*dbkit.DBKit); ok {
		return db.Health(ctx)
	}
	return dbkit.HealthStatus{
		Healthy: s.IsHealthy(ctx),
		Error:   "Limited health check - not a DBKit instance",
	}
}

// IsHealthy performs a simple health check of the database connection.
func (s *Store) IsHealthy(ctx context.Context) bool {
	if db, ok := s.db.(*dbkit.DBKit); ok {
		return db.IsHealthy(ctx)
	}
	return s.Ping(ctx) == nil
}

// Ping performs a basic connectivity test to the database.
func (s *Store) Ping(ctx context.Context) error {
	var result int
	return s.db.NewSelect().Model((*struct{})(nil)).ColumnExpr("1").Limit(1).Scan(ctx, &result)
}
