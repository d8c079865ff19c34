package permkit

import (
	"context"
	"fmt"
	"log/slog"
)

// Synchronizer reconciles a declarative list of system roles against the
// persisted role records.
//
// Reconciliation is optimistic: no lock is held across the read-then-write
// gap. Each role carries a monotonically increasing config version, and a
// write only proceeds when the version observed at decision time still holds.
// Where the store implements ConditionalUpdater the check and the write are a
// single conditional statement; otherwise the engine re-fetches the role
// immediately before writing and compares versions, accepting that a second
// race inside that window remains theoretically possible.
//
// Losers of a race are reported as failures ("Concurrent update detected")
// and are not retried: the run is best effort and idempotent, so the next
// process start reconverges.
type Synchronizer struct {
	store  RoleStore
	logger *slog.Logger
	hook   ChangeHook
}

// SynchronizerOption configures a Synchronizer.
type SynchronizerOption func(*Synchronizer)

// WithSyncLogger sets the logger used for sync diagnostics.
func WithSyncLogger(logger *slog.Logger) SynchronizerOption {
	return func(s *Synchronizer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithChangeHook registers a hook invoked once per desired role with the
// outcome of its reconciliation.
func WithChangeHook(hook ChangeHook) SynchronizerOption {
	return func(s *Synchronizer) {
		s.hook = hook
	}
}

// NewSynchronizer creates a Synchronizer over a role store.
func NewSynchronizer(store RoleStore, opts ...SynchronizerOption) *Synchronizer {
	s := &Synchronizer{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type syncOutcome int

const (
	outcomeUnchanged syncOutcome = iota
	outcomeCreated
	outcomeUpdated
	outcomeSkipped
)

// SyncSystemRoles reconciles the desired role definitions into storage.
//
// Per definition, independently of the others:
//   - missing roles are created with configVersion 1 and systemManaged set;
//   - roles forked by a user (systemManaged false) are skipped untouched;
//   - system-managed roles whose content hash already matches are left alone;
//   - drifted system-managed roles are updated under the optimistic version
//     check, bumping the version.
//
// A failure for one definition never aborts the run; it is recorded in the
// results and processing continues. Definitions are processed sequentially.
func (s *Synchronizer) SyncSystemRoles(ctx context.Context, desired []RoleDefinition) SyncResults {
	results := SyncResults{}

	for _, def := range desired {
		outcome, err := s.syncRole(ctx, def)
		if err != nil {
			s.logger.Warn("role sync failed", "role", def.Name, "error", err)
			results.Failed = append(results.Failed, SyncFailure{Role: def.Name, Error: err.Error()})
			s.emit(ctx, ChangeEvent{Action: ChangeSyncFailed, RoleName: def.Name, Detail: err.Error()})
			continue
		}

		switch outcome {
		case outcomeCreated:
			s.logger.Debug("role created", "role", def.Name)
			results.Created = append(results.Created, def.Name)
			s.emit(ctx, ChangeEvent{Action: ChangeCreated, RoleName: def.Name})
		case outcomeUpdated:
			s.logger.Debug("role updated", "role", def.Name)
			results.Updated = append(results.Updated, def.Name)
			s.emit(ctx, ChangeEvent{Action: ChangeUpdated, RoleName: def.Name})
		case outcomeSkipped:
			s.logger.Debug("role skipped, user managed", "role", def.Name)
			results.Skipped = append(results.Skipped, def.Name)
			s.emit(ctx, ChangeEvent{Action: ChangeSkipped, RoleName: def.Name})
		case outcomeUnchanged:
			// Hash matched, nothing to report.
		}
	}

	return results
}

// syncRole reconciles a single definition. Panics from a misbehaving store
// are contained here so one definition cannot abort the whole run.
func (s *Synchronizer) syncRole(ctx context.Context, def RoleDefinition) (outcome syncOutcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			outcome = outcomeUnchanged
			err = fmt.Errorf("unexpected error syncing role %q: %v", def.Name, r)
		}
	}()

	newHash := ConfigHash(def.Permissions, def.VisibleFor)

	matches, err := s.store.FindRoleByName(ctx, def.Name)
	if err != nil {
		return outcomeUnchanged, fmt.Errorf("lookup failed: %w", err)
	}

	if len(matches) == 0 {
		return s.createRole(ctx, def, newHash)
	}

	existing := &matches[0]

	if !existing.SystemManaged {
		// User fork: never touch it, whatever the hash says.
		return outcomeSkipped, nil
	}

	if existing.ConfigHash == newHash {
		return outcomeUnchanged, nil
	}

	return s.updateRole(ctx, def, existing, newHash)
}

func (s *Synchronizer) createRole(ctx context.Context, def RoleDefinition, newHash string) (syncOutcome, error) {
	role := &Role{
		Name:          def.Name,
		Label:         def.Label,
		Description:   def.Description,
		Permissions:   append([]string(nil), def.Permissions...),
		VisibleFor:    append([]string(nil), def.VisibleFor...),
		Active:        true,
		SystemManaged: true,
		ConfigHash:    newHash,
		ConfigVersion: 1,
	}
	if def.Active != nil {
		role.Active = *def.Active
	}
	if def.Protected != nil {
		role.Protected = *def.Protected
	}

	if _, err := s.store.CreateRole(ctx, role); err != nil {
		// Most likely a concurrent writer raced the creation. Not retried.
		return outcomeUnchanged, fmt.Errorf("creation failed: %w", err)
	}
	return outcomeCreated, nil
}

func (s *Synchronizer) updateRole(ctx context.Context, def RoleDefinition, existing *Role, newHash string) (syncOutcome, error) {
	updated := existing.Clone()
	updated.Permissions = append([]string(nil), def.Permissions...)
	updated.VisibleFor = append([]string(nil), def.VisibleFor...)
	updated.ConfigHash = newHash
	if def.Protected != nil {
		updated.Protected = *def.Protected
	}

	if cu, ok := s.store.(ConditionalUpdater); ok {
		updated.ConfigVersion = existing.ConfigVersion + 1
		if _, err := cu.UpdateRoleIfVersion(ctx, existing.ID, updated, existing.ConfigVersion); err != nil {
			if IsConcurrentUpdate(err) {
				return outcomeUnchanged, fmt.Errorf("Concurrent update detected for role %q", def.Name)
			}
			return outcomeUnchanged, fmt.Errorf("update failed: %w", err)
		}
		return outcomeUpdated, nil
	}

	// No conditional primitive: re-read immediately before writing and compare
	// the version against the snapshot. A second race inside this window is
	// possible and accepted.
	fresh, err := s.store.FindRoleByID(ctx, existing.ID)
	if err != nil {
		return outcomeUnchanged, fmt.Errorf("re-fetch failed: %w", err)
	}
	if fresh == nil {
		return outcomeUnchanged, fmt.Errorf("role %q disappeared during sync", def.Name)
	}
	if fresh.ConfigVersion != existing.ConfigVersion {
		return outcomeUnchanged, fmt.Errorf("Concurrent update detected for role %q", def.Name)
	}

	updated.ConfigVersion = fresh.ConfigVersion + 1
	if _, err := s.store.UpdateRole(ctx, existing.ID, updated); err != nil {
		return outcomeUnchanged, fmt.Errorf("update failed: %w", err)
	}
	return outcomeUpdated, nil
}

func (s *Synchronizer) emit(ctx context.Context, event ChangeEvent) {
	if s.hook == nil {
		return
	}
	s.hook(ctx, event)
}
