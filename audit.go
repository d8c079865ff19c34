package permkit

import (
	"context"
	"time"

	"github.com/fernandezvara/dbkit"
	"github.com/uptrace/bun"
)

// ChangeAction is the kind of role change reported through the hook.
type ChangeAction string

const (
	ChangeCreated    ChangeAction = "created"
	ChangeUpdated    ChangeAction = "updated"
	ChangeSkipped    ChangeAction = "skipped"
	ChangeSyncFailed ChangeAction = "sync_failed"
)

// ChangeEvent describes a single role-change outcome.
type ChangeEvent struct {
	Action   ChangeAction
	RoleName string
	Detail   string
}

// ChangeHook receives role-change outcomes. It is the narrow audit surface
// this package exposes; hosts wanting a full audit trail wire their own sink,
// or the bundled ChangeLogger.
type ChangeHook func(ctx context.Context, event ChangeEvent)

// RoleChangeLog is a persisted role-change entry for compliance and debugging.
type RoleChangeLog struct {
	bun.BaseModel `bun:"table:role_change_log,alias:rcl"`

	ID        string    `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Timestamp time.Time `bun:"timestamp,notnull,default:current_timestamp"`

	Action   string `bun:"action,notnull"`
	RoleName string `bun:"role_name,notnull"`
	Detail   string `bun:"detail"`

	// Request metadata, taken from context when present.
	ActorID   string `bun:"actor_id"`
	RequestID string `bun:"request_id"`
}

// ChangeLogger persists change events to the role_change_log table.
type ChangeLogger struct {
	db dbkit.IDB
}

// NewChangeLogger creates a ChangeLogger over a dbkit database handle.
func NewChangeLogger(db dbkit.IDB) *ChangeLogger {
	return &ChangeLogger{db: db}
}

// Hook returns a ChangeHook that records events through this logger. Write
// failures are swallowed: logging must never fail the change it describes.
func (l *ChangeLogger) Hook() ChangeHook {
	return func(ctx context.Context, event ChangeEvent) {
		_ = l.Record(ctx, event)
	}
}

// Record persists a single change event.
func (l *ChangeLogger) Record(ctx context.Context, event ChangeEvent) error {
	entry := &RoleChangeLog{
		Action:    string(event.Action),
		RoleName:  event.RoleName,
		Detail:    event.Detail,
		ActorID:   GetActorID(ctx),
		RequestID: GetRequestID(ctx),
		Timestamp: time.Now(),
	}
	_, err := l.db.NewInsert().Model(entry).Exec(ctx)
	return dbkit.WithErr1(err, "RecordRoleChange").Err()
}

// ChangeLogFilter provides options for filtering change-log queries.
type ChangeLogFilter struct {
	RoleName string
	Action   string
	ActorID  string

	Since time.Time
	Until time.Time

	Limit  int
	Offset int
}

// NewChangeLogFilter creates a ChangeLogFilter with default values.
func NewChangeLogFilter() ChangeLogFilter {
	return ChangeLogFilter{Limit: 100}
}

// WithRole sets the role name filter.
func (f ChangeLogFilter) WithRole(name string) ChangeLogFilter {
	f.RoleName = name
	return f
}

// WithAction sets the action filter.
func (f ChangeLogFilter) WithAction(action ChangeAction) ChangeLogFilter {
	f.Action = string(action)
	return f
}

// WithActor sets the actor ID filter.
func (f ChangeLogFilter) WithActor(actorID string) ChangeLogFilter {
	f.ActorID = actorID
	return f
}

// WithTimeRange sets the time range filter.
func (f ChangeLogFilter) WithTimeRange(since, until time.Time) ChangeLogFilter {
	f.Since = since
	f.Until = until
	return f
}

// WithPagination sets both limit and offset.
func (f ChangeLogFilter) WithPagination(limit, offset int) ChangeLogFilter {
	f.Limit = limit
	f.Offset = offset
	return f
}

// GetChangeLog retrieves change-log entries with optional filters, newest
// first.
func (l *ChangeLogger) GetChangeLog(ctx context.Context, filter ChangeLogFilter) ([]RoleChangeLog, error) {
	var logs []RoleChangeLog
	q := l.db.NewSelect().Model(&logs)
	if filter.RoleName != "" {
		q = q.Where("role_name = ?", filter.RoleName)
	}
	if filter.Action != "" {
		q = q.Where("action = ?", filter.Action)
	}
	if filter.ActorID != "" {
		q = q.Where("actor_id = ?", filter.ActorID)
	}
	if !filter.Since.IsZero() {
		q = q.Where("timestamp >= ?", filter.Since)
	}
	if !filter.Until.IsZero() {
		q = q.Where("timestamp <= ?", filter.Until)
	}

	limit := filter.Limit
	if limit == 0 {
		limit = 100
	}
	q = q.Limit(limit)

	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	q = q.Order("timestamp DESC")
	if err := dbkit.WithErr1(q.Scan(ctx), "GetChangeLog").Err(); err != nil {
		return nil, err
	}

	return logs, nil
}
