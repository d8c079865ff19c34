package permkit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMemoryStoreCRUD tests the basic record lifecycle
func TestMemoryStoreCRUD(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	created, err := store.CreateRole(ctx, &Role{
		Name:        "editor",
		Permissions: []string{"posts.*"},
		Active:      true,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID, "an id is generated when none is supplied")

	found, err := store.FindRoleByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "editor", found.Name)

	byName, err := store.FindRoleByName(ctx, "editor")
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, created.ID, byName[0].ID)

	update := found.Clone()
	update.Label = "Content Editor"
	updated, err := store.UpdateRole(ctx, created.ID, update)
	require.NoError(t, err)
	assert.Equal(t, "Content Editor", updated.Label)

	require.NoError(t, store.DeleteRole(ctx, created.ID))

	gone, err := store.FindRoleByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, gone, "a missing role is (nil, nil), not an error")

	count, err := store.CountRoles(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

// TestMemoryStoreMissingRecords tests not-found behavior per operation
func TestMemoryStoreMissingRecords(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	byName, err := store.FindRoleByName(ctx, "ghost")
	require.NoError(t, err)
	assert.Empty(t, byName)

	_, err = store.UpdateRole(ctx, "ghost", &Role{Name: "ghost"})
	assert.True(t, IsRoleNotFound(err))

	_, err = store.UpdateRoleIfVersion(ctx, "ghost", &Role{Name: "ghost"}, 1)
	assert.True(t, IsRoleNotFound(err))

	assert.True(t, IsRoleNotFound(store.DeleteRole(ctx, "ghost")))
}

// TestMemoryStoreDuplicateName tests the unique-name constraint
func TestMemoryStoreDuplicateName(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.CreateRole(ctx, &Role{Name: "editor"})
	require.NoError(t, err)

	_, err = store.CreateRole(ctx, &Role{Name: "editor"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDatabaseError)
}

// TestMemoryStoreConditionalUpdate tests the version-guarded write
func TestMemoryStoreConditionalUpdate(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	created, err := store.CreateRole(ctx, &Role{Name: "editor", ConfigVersion: 1})
	require.NoError(t, err)

	next := created.Clone()
	next.ConfigVersion = 2
	updated, err := store.UpdateRoleIfVersion(ctx, created.ID, next, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.ConfigVersion)

	// The version moved, so the same expectation now fails.
	_, err = store.UpdateRoleIfVersion(ctx, created.ID, next, 1)
	assert.True(t, IsConcurrentUpdate(err))
}

// TestMemoryStoreIsolation tests that returned records share no storage with
// the store's internal state
func TestMemoryStoreIsolation(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	input := &Role{Name: "editor", Permissions: []string{"posts.*"}}
	created, err := store.CreateRole(ctx, input)
	require.NoError(t, err)

	// Mutating the input after creation must not reach the stored record.
	input.Permissions[0] = "mutated"
	// Neither must mutating the returned copy.
	created.Permissions[0] = "also mutated"

	stored, err := store.FindRoleByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"posts.*"}, stored.Permissions)

	// And mutating a fetched copy must not reach the next fetch.
	stored.Permissions[0] = "still mutated"
	again, err := store.FindRoleByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"posts.*"}, again.Permissions)
}
