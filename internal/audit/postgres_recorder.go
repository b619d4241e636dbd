package audit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRecorder implements Recorder against the audit_log table.
type PostgresRecorder struct {
	pool *pgxpool.Pool
}

// NewRecorder creates a Recorder backed by the given connection pool.
func NewRecorder(pool *pgxpool.Pool) Recorder {
	return &PostgresRecorder{pool: pool}
}

// Record appends an entry. Storage failures are logged, never propagated.
func (r *PostgresRecorder) Record(ctx context.Context, projectID *uuid.UUID, action, subject string) {
	actor := ActorFromContext(ctx)

	query := `INSERT INTO audit_log (project_id, actor, action, subject) VALUES ($1, $2, $3, $4)`
	if _, err := r.pool.Exec(ctx, query, projectID, actor, action, subject); err != nil {
		slog.Error("failed to record audit entry", "action", action, "actor", actor, "error", err)
	}
}

// ListByProject returns the trail for a project, newest first.
func (r *PostgresRecorder) ListByProject(ctx context.Context, projectID uuid.UUID) ([]Entry, error) {
	query := `
		SELECT id, project_id, actor, action, subject, created_at
		FROM audit_log
		WHERE project_id = $1
		ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing audit entries: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.ProjectID, &e.Actor, &e.Action, &e.Subject, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning audit row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating audit rows: %w", err)
	}

	return entries, nil
}

// NopRecorder discards entries. Used in tests and tools that do not audit.
type NopRecorder struct{}

// Record is a no-op.
func (NopRecorder) Record(context.Context, *uuid.UUID, string, string) {}

// ListByProject returns an empty trail.
func (NopRecorder) ListByProject(context.Context, uuid.UUID) ([]Entry, error) {
	return []Entry{}, nil
}
