package permkit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uniqueName(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

func TestIntegrationRoleLifecycle(t *testing.T) {
	if !RequireDatabase(t) {
		return
	}

	ctx := context.Background()
	store, db, err := SetupTestStore(ctx)
	require.NoError(t, err)
	defer db.Close()

	name := uniqueName("editor")
	created, err := store.CreateRole(ctx, &Role{
		Name:        name,
		Label:       "Editor",
		Permissions: []string{"posts.*", "media.read"},
		VisibleFor:  []string{"users"},
		Active:      true,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	found, err := store.FindRoleByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, []string{"posts.*", "media.read"}, found.Permissions)

	byName, err := store.FindRoleByName(ctx, name)
	require.NoError(t, err)
	require.Len(t, byName, 1)

	missing, err := store.FindRoleByID(ctx, "00000000-0000-0000-0000-000000000000")
	require.NoError(t, err)
	assert.Nil(t, missing)

	update := found.Clone()
	update.Label = "Content Editor"
	updated, err := store.UpdateRole(ctx, created.ID, update)
	require.NoError(t, err)
	assert.Equal(t, "Content Editor", updated.Label)

	count, err := store.CountRoles(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, count, 1)
}

func TestIntegrationConditionalUpdate(t *testing.T) {
	if !RequireDatabase(t) {
		return
	}

	ctx := context.Background()
	store, db, err := SetupTestStore(ctx)
	require.NoError(t, err)
	defer db.Close()

	created, err := store.CreateRole(ctx, &Role{
		Name:          uniqueName("versioned"),
		Permissions:   []string{"posts.read"},
		Active:        true,
		SystemManaged: true,
		ConfigVersion: 1,
	})
	require.NoError(t, err)

	next := created.Clone()
	next.Permissions = []string{"posts.*"}
	next.ConfigVersion = 2
	updated, err := store.UpdateRoleIfVersion(ctx, created.ID, next, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.ConfigVersion)

	_, err = store.UpdateRoleIfVersion(ctx, created.ID, next, 1)
	assert.True(t, IsConcurrentUpdate(err), "a stale expected version must conflict")
}

func TestIntegrationSyncRoundTrip(t *testing.T) {
	if !RequireDatabase(t) {
		return
	}

	ctx := context.Background()
	store, db, err := SetupTestStore(ctx)
	require.NoError(t, err)
	defer db.Close()

	adminName := uniqueName("admin")
	editorName := uniqueName("editor")

	sync := NewSynchronizer(store)
	desired := []RoleDefinition{
		{Name: adminName, Label: "Administrator", Permissions: []string{"*"}, Protected: Bool(true)},
		{Name: editorName, Label: "Editor", Permissions: []string{"posts.*", "media.*"}},
	}

	first := sync.SyncSystemRoles(ctx, desired)
	assert.ElementsMatch(t, []string{adminName, editorName}, first.Created)
	require.Empty(t, first.Failed)

	// A second identical run converges to all no-ops.
	second := sync.SyncSystemRoles(ctx, desired)
	assert.Empty(t, second.Created)
	assert.Empty(t, second.Updated)
	assert.Empty(t, second.Failed)

	// Forking a role hands it to the user and takes it out of sync's reach.
	editors, err := store.FindRoleByName(ctx, editorName)
	require.NoError(t, err)
	require.Len(t, editors, 1)
	fork := editors[0].Clone()
	fork.SystemManaged = false
	fork.Permissions = []string{"posts.read"}
	_, err = store.UpdateRole(ctx, fork.ID, fork)
	require.NoError(t, err)

	third := sync.SyncSystemRoles(ctx, desired)
	assert.Equal(t, []string{editorName}, third.Skipped)

	kept, err := store.FindRoleByID(ctx, fork.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"posts.read"}, kept.Permissions)
}

func TestIntegrationResolverAgainstStore(t *testing.T) {
	if !RequireDatabase(t) {
		return
	}

	ctx := context.Background()
	store, db, err := SetupTestStore(ctx)
	require.NoError(t, err)
	defer db.Close()

	created, err := store.CreateRole(ctx, &Role{
		Name:        uniqueName("publisher"),
		Permissions: []string{"posts.*"},
		Active:      true,
	})
	require.NoError(t, err)

	resolver := NewResolver(Config{}, store)
	assert.True(t, resolver.CheckPermission(ctx, IDRef(created.ID), "posts.update", "42"))
	assert.False(t, resolver.CheckPermission(ctx, IDRef(created.ID), "users.update", "42"))
	assert.False(t, resolver.CheckPermission(ctx, IDRef("00000000-0000-0000-0000-000000000000"), "posts.read", "42"))
}

func TestIntegrationChangeLog(t *testing.T) {
	if !RequireDatabase(t) {
		return
	}

	ctx := context.Background()
	store, db, err := SetupTestStore(ctx)
	require.NoError(t, err)
	defer db.Close()

	logger := NewChangeLogger(db)
	sync := NewSynchronizer(store, WithChangeHook(logger.Hook()))

	name := uniqueName("audited")
	ctx = WithActorID(ctx, "42")
	results := sync.SyncSystemRoles(ctx, []RoleDefinition{
		{Name: name, Permissions: []string{"posts.read"}},
	})
	require.Equal(t, []string{name}, results.Created)

	entries, err := logger.GetChangeLog(ctx, NewChangeLogFilter().WithRole(name))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, string(ChangeCreated), entries[0].Action)
	assert.Equal(t, "42", entries[0].ActorID)
}

func TestIntegrationHealth(t *testing.T) {
	if !RequireDatabase(t) {
		return
	}

	ctx := context.Background()
	store, db, err := SetupTestStore(ctx)
	require.NoError(t, err)
	defer db.Close()

	assert.True(t, store.IsHealthy(ctx))
	assert.NoError(t, store.Ping(ctx))

	health := store.Health(ctx)
	assert.True(t, health.Healthy)
}
