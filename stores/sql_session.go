package stores

import (
	"context"
	"time"

	"github.com/oarkflow/squealx"

	recordauth "github.com/andreibyf/aishacrm-2-sub006"
)

// SQLSessionStore persists session overrides in SQL (squealx). One row
// per session; saves upsert and stamp updated_at so stale sessions can be
// purged.
type SQLSessionStore struct {
	db *squealx.DB
}

func NewSQLSessionStore(db *squealx.DB) *SQLSessionStore {
	return &SQLSessionStore{db: db}
}

func (s *SQLSessionStore) Load(ctx context.Context, sessionID string) (recordauth.SessionContext, error) {
	q := `SELECT tenant_override, employee_override FROM session_context WHERE session_id = :session_id`
	r, err := s.db.NamedQueryContext(ctx, q, map[string]any{"session_id": sessionID})
	if err != nil {
		return recordauth.SessionContext{}, err
	}
	defer r.Close()
	if !r.Next() {
		return recordauth.SessionContext{}, nil
	}
	var sc recordauth.SessionContext
	if err := r.Scan(&sc.TenantOverride, &sc.EmployeeOverride); err != nil {
		return recordauth.SessionContext{}, err
	}
	return sc, nil
}

func (s *SQLSessionStore) Save(ctx context.Context, sessionID string, sc recordauth.SessionContext) error {
	q := `INSERT INTO session_context(session_id, tenant_override, employee_override, updated_at)
		VALUES(:session_id, :tenant_override, :employee_override, :updated_at)
		ON CONFLICT(session_id) DO UPDATE SET
			tenant_override = :tenant_override,
			employee_override = :employee_override,
			updated_at = :updated_at`
	_, err := s.db.NamedExecContext(ctx, q, map[string]any{
		"session_id":        sessionID,
		"tenant_override":   sc.TenantOverride,
		"employee_override": sc.EmployeeOverride,
		"updated_at":        time.Now().UTC(),
	})
	return err
}

func (s *SQLSessionStore) Delete(ctx context.Context, sessionID string) error {
	q := `DELETE FROM session_context WHERE session_id = :session_id`
	_, err := s.db.NamedExecContext(ctx, q, map[string]any{"session_id": sessionID})
	return err
}

// LastSaved returns when the session's overrides were last written, zero
// when the session has no row.
func (s *SQLSessionStore) LastSaved(ctx context.Context, sessionID string) (time.Time, error) {
	q := `SELECT updated_at FROM session_context WHERE session_id = :session_id`
	r, err := s.db.NamedQueryContext(ctx, q, map[string]any{"session_id": sessionID})
	if err != nil {
		return time.Time{}, err
	}
	defer r.Close()
	if !r.Next() {
		return time.Time{}, nil
	}
	var raw any
	if err := r.Scan(&raw); err != nil {
		return time.Time{}, err
	}
	return scanTime(raw), nil
}

// PurgeStale deletes session rows untouched for longer than maxAge. Run
// it alongside the application's session sweeper so override rows cannot
// outlive the sessions they belonged to.
func (s *SQLSessionStore) PurgeStale(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-maxAge)
	q := `DELETE FROM session_context WHERE updated_at < :cutoff`
	res, err := s.db.NamedExecContext(ctx, q, map[string]any{"cutoff": cutoff})
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, nil
}
