package permkit

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is a thread-safe, in-memory RoleStore. It backs tests and
// embedded hosts that have no database; it makes defensive copies on every
// boundary so callers can never mutate its internal state.
//
// It implements ConditionalUpdater: the version compare and the write happen
// under the same lock, so its conditional update is genuinely atomic.
type MemoryStore struct {
	mu    sync.RWMutex
	roles map[string]*Role // by id
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{roles: make(map[string]*Role)}
}

// FindRoleByID returns the role with the given identifier, or (nil, nil)
// when it does not exist.
func (m *MemoryStore) FindRoleByID(ctx context.Context, id string) (*Role, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	role, ok := m.roles[id]
	if !ok {
		return nil, nil
	}
	return role.Clone(), nil
}

// FindRoleByName returns the roles matching a name (zero or one).
func (m *MemoryStore) FindRoleByName(ctx context.Context, name string) ([]Role, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, role := range m.roles {
		if role.Name == name {
			return []Role{*role.Clone()}, nil
		}
	}
	return nil, nil
}

// CreateRole persists a new role. Names are unique; creating a role under a
// taken name fails the way a duplicate-key insert would.
func (m *MemoryStore) CreateRole(ctx context.Context, role *Role) (*Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.roles {
		if existing.Name == role.Name {
			return nil, NewError(ErrDatabaseError, "duplicate role name").WithRole(role.Name)
		}
	}

	stored := role.Clone()
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	m.roles[stored.ID] = stored
	return stored.Clone(), nil
}

// UpdateRole overwrites an existing role.
func (m *MemoryStore) UpdateRole(ctx context.Context, id string, role *Role) (*Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.roles[id]; !ok {
		return nil, NewError(ErrRoleNotFound, "no role with this id").WithRoleID(id)
	}

	stored := role.Clone()
	stored.ID = id
	m.roles[id] = stored
	return stored.Clone(), nil
}

// UpdateRoleIfVersion updates a role only while its persisted config version
// still equals expectedVersion. The check and the write share one lock.
func (m *MemoryStore) UpdateRoleIfVersion(ctx context.Context, id string, role *Role, expectedVersion int64) (*Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.roles[id]
	if !ok {
		return nil, NewError(ErrRoleNotFound, "no role with this id").WithRoleID(id)
	}
	if current.ConfigVersion != expectedVersion {
		return nil, NewError(ErrConcurrentUpdate, "config version moved").WithRoleID(id)
	}

	stored := role.Clone()
	stored.ID = id
	m.roles[id] = stored
	return stored.Clone(), nil
}

// DeleteRole removes a role record. The caller is responsible for running
// AssignmentGuard.ValidateDelete first.
func (m *MemoryStore) DeleteRole(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.roles[id]; !ok {
		return NewError(ErrRoleNotFound, "no role with this id").WithRoleID(id)
	}
	delete(m.roles, id)
	return nil
}

// CountRoles returns the number of role records.
func (m *MemoryStore) CountRoles(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.roles), nil
}
