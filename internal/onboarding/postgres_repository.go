package onboarding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository implements Repository using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Repository backed by the given connection pool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &PostgresRepository{pool: pool}
}

// SeedDefaults inserts the default milestone placeholders for a new project.
// Existing rows are left alone, so seeding is idempotent.
func (r *PostgresRepository) SeedDefaults(ctx context.Context, projectID uuid.UUID) error {
	query := `
		INSERT INTO milestones (project_id, key, title, status, sort)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (project_id, key) DO NOTHING`

	for _, m := range defaultMilestones {
		if _, err := r.pool.Exec(ctx, query, projectID, m.Key, m.Title, StatusNotStarted, m.Sort); err != nil {
			return fmt.Errorf("seeding milestone %s: %w", m.Key, err)
		}
	}

	return nil
}

// ListMilestones retrieves a project's milestones in sort order.
func (r *PostgresRepository) ListMilestones(ctx context.Context, projectID uuid.UUID) ([]Milestone, error) {
	query := `
		SELECT id, project_id, key, title, status, sort
		FROM milestones
		WHERE project_id = $1
		ORDER BY sort ASC`

	rows, err := r.pool.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing milestones: %w", err)
	}
	defer rows.Close()

	milestones := []Milestone{}
	for rows.Next() {
		var m Milestone
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.Key, &m.Title, &m.Status, &m.Sort); err != nil {
			return nil, fmt.Errorf("scanning milestone row: %w", err)
		}
		milestones = append(milestones, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating milestone rows: %w", err)
	}

	return milestones, nil
}

// SetMilestoneStatus updates one milestone's status.
func (r *PostgresRepository) SetMilestoneStatus(ctx context.Context, projectID uuid.UUID, key, status string) error {
	query := `UPDATE milestones SET status = $3 WHERE project_id = $1 AND key = $2`

	result, err := r.pool.Exec(ctx, query, projectID, key, status)
	if err != nil {
		return fmt.Errorf("updating milestone status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrMilestoneNotFound
	}

	return nil
}

// UpsertStepData saves a step's form payload, replacing any earlier save.
func (r *PostgresRepository) UpsertStepData(ctx context.Context, projectID uuid.UUID, step int, payload json.RawMessage) error {
	query := `
		INSERT INTO onboarding_steps (project_id, step, payload, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (project_id, step) DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()`

	if _, err := r.pool.Exec(ctx, query, projectID, step, payload); err != nil {
		return fmt.Errorf("upserting onboarding step: %w", err)
	}

	return nil
}

// GetStepData retrieves a step's saved payload.
func (r *PostgresRepository) GetStepData(ctx context.Context, projectID uuid.UUID, step int) (*StepData, error) {
	query := `
		SELECT project_id, step, payload, updated_at
		FROM onboarding_steps
		WHERE project_id = $1 AND step = $2`

	var d StepData
	err := r.pool.QueryRow(ctx, query, projectID, step).Scan(&d.ProjectID, &d.Step, &d.Payload, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStepNotFound
		}
		return nil, fmt.Errorf("querying onboarding step: %w", err)
	}

	return &d, nil
}
