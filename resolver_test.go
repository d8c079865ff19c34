package permkit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubLookup struct {
	roles map[string]*Role
	err   error
	calls int
}

func (s *stubLookup) FindRoleByID(ctx context.Context, id string) (*Role, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.roles[id], nil
}

func quietConfig() Config {
	return Config{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// TestResolverFirstUserBootstrap tests the reserved first-user escape hatch
func TestResolverFirstUserBootstrap(t *testing.T) {
	ctx := context.Background()
	lookup := &stubLookup{}
	resolver := NewResolver(quietConfig(), lookup)

	t.Run("First user passes without any role", func(t *testing.T) {
		assert.True(t, resolver.CheckPermission(ctx, AnonymousRef(), "anything.delete", "1"))
		assert.Equal(t, 0, lookup.calls, "bootstrap must not hit the store")
	})

	t.Run("Other users without role are denied", func(t *testing.T) {
		assert.False(t, resolver.CheckPermission(ctx, AnonymousRef(), "anything.delete", "2"))
	})

	t.Run("First user effective permissions are universal", func(t *testing.T) {
		assert.Equal(t, []string{"*"}, resolver.EffectivePermissions(ctx, AnonymousRef(), "1"))
	})

	t.Run("Custom sentinel is honored", func(t *testing.T) {
		cfg := quietConfig()
		cfg.FirstUserID = "bootstrap"
		r := NewResolver(cfg, lookup)
		assert.True(t, r.CheckPermission(ctx, AnonymousRef(), "anything.delete", "bootstrap"))
		assert.False(t, r.CheckPermission(ctx, AnonymousRef(), "anything.delete", "1"))
	})
}

// TestResolverAnonymousAccess tests the public permission set
func TestResolverAnonymousAccess(t *testing.T) {
	ctx := context.Background()

	t.Run("Default public set grants reads only", func(t *testing.T) {
		resolver := NewResolver(quietConfig(), &stubLookup{})
		assert.True(t, resolver.CheckPermission(ctx, AnonymousRef(), "posts.read", ""))
		assert.False(t, resolver.CheckPermission(ctx, AnonymousRef(), "posts.create", ""))
	})

	t.Run("Custom public set", func(t *testing.T) {
		cfg := quietConfig()
		cfg.PublicPermissions = []string{"posts.read", "comments.create"}
		resolver := NewResolver(cfg, &stubLookup{})
		assert.True(t, resolver.CheckPermission(ctx, AnonymousRef(), "comments.create", ""))
		assert.False(t, resolver.CheckPermission(ctx, AnonymousRef(), "users.read", ""))
	})

	t.Run("Disabled public access denies everything", func(t *testing.T) {
		cfg := quietConfig()
		cfg.DisablePublicAccess = true
		resolver := NewResolver(cfg, &stubLookup{})
		assert.False(t, resolver.CheckPermission(ctx, AnonymousRef(), "posts.read", ""))
		assert.Nil(t, resolver.EffectivePermissions(ctx, AnonymousRef(), ""))
	})

	t.Run("Authenticated but roleless actor is denied", func(t *testing.T) {
		resolver := NewResolver(quietConfig(), &stubLookup{})
		assert.False(t, resolver.CheckPermission(ctx, AnonymousRef(), "posts.read", "42"))
	})
}

// TestResolverResolvedRecord tests evaluation against an in-hand role record
func TestResolverResolvedRecord(t *testing.T) {
	ctx := context.Background()
	lookup := &stubLookup{}
	resolver := NewResolver(quietConfig(), lookup)

	editor := &Role{ID: "r1", Name: "editor", Active: true, Permissions: []string{"posts.*"}}

	assert.True(t, resolver.CheckPermission(ctx, ResolvedRef(editor), "posts.read", "7"))
	assert.False(t, resolver.CheckPermission(ctx, ResolvedRef(editor), "users.read", "7"))
	assert.Equal(t, 0, lookup.calls, "resolved records must not trigger lookups")
}

// TestResolverIdentifierLookup tests the lookup round-trip and its failure
// modes
func TestResolverIdentifierLookup(t *testing.T) {
	ctx := context.Background()

	t.Run("Active role grants its permissions", func(t *testing.T) {
		lookup := &stubLookup{roles: map[string]*Role{
			"r1": {ID: "r1", Name: "editor", Active: true, Permissions: []string{"posts.*"}},
		}}
		resolver := NewResolver(quietConfig(), lookup)
		assert.True(t, resolver.CheckPermission(ctx, IDRef("r1"), "posts.write", "7"))
		assert.Equal(t, 1, lookup.calls)
	})

	t.Run("Inactive role grants nothing", func(t *testing.T) {
		lookup := &stubLookup{roles: map[string]*Role{
			"r1": {ID: "r1", Name: "editor", Active: false, Permissions: []string{"*"}},
		}}
		resolver := NewResolver(quietConfig(), lookup)
		assert.False(t, resolver.CheckPermission(ctx, IDRef("r1"), "posts.read", "7"))
	})

	t.Run("Missing role denies without error", func(t *testing.T) {
		resolver := NewResolver(quietConfig(), &stubLookup{})
		assert.False(t, resolver.CheckPermission(ctx, IDRef("ghost"), "posts.read", "7"))
	})

	t.Run("Lookup failure denies without error", func(t *testing.T) {
		lookup := &stubLookup{err: errors.New("connection refused")}
		resolver := NewResolver(quietConfig(), lookup)
		assert.False(t, resolver.CheckPermission(ctx, IDRef("r1"), "posts.read", "7"))
	})

	t.Run("Nil lookup collaborator denies", func(t *testing.T) {
		resolver := NewResolver(quietConfig(), nil)
		assert.False(t, resolver.CheckPermission(ctx, IDRef("r1"), "posts.read", "7"))
	})
}

// TestResolverEffectivePermissions tests the permission-set surface
func TestResolverEffectivePermissions(t *testing.T) {
	ctx := context.Background()
	role := &Role{ID: "r1", Name: "editor", Active: true, Permissions: []string{"posts.*", "media.read"}}
	resolver := NewResolver(quietConfig(), &stubLookup{roles: map[string]*Role{"r1": role}})

	t.Run("Copies the role's permission set", func(t *testing.T) {
		perms := resolver.EffectivePermissions(ctx, IDRef("r1"), "7")
		assert.Equal(t, []string{"posts.*", "media.read"}, perms)

		perms[0] = "mutated"
		assert.Equal(t, "posts.*", role.Permissions[0], "caller mutations must not reach the record")
	})

	t.Run("Anonymous default is the public set", func(t *testing.T) {
		perms := resolver.EffectivePermissions(ctx, AnonymousRef(), "")
		assert.Equal(t, DefaultPublicPermissions(), perms)
	})

	t.Run("Roleless authenticated actor has none", func(t *testing.T) {
		assert.Nil(t, resolver.EffectivePermissions(ctx, AnonymousRef(), "7"))
	})
}
