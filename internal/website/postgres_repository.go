package website

import (
	"context"
	"fmt"

	"github.com/google/uuid"
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

// Create inserts a new website URL record.
func (r *PostgresRepository) Create(ctx context.Context, u *URL) error {
	query := `
		INSERT INTO project_website_urls (project_id, url, label, created_by)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query, u.ProjectID, u.Address, u.Label, u.CreatedBy).
		Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting website url: %w", err)
	}

	return nil
}

// ListByProject retrieves a project's website URLs, newest first.
func (r *PostgresRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]URL, error) {
	query := `
		SELECT id, project_id, url, label, created_by, created_at, updated_at
		FROM project_website_urls
		WHERE project_id = $1
		ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing website urls: %w", err)
	}
	defer rows.Close()

	urls := []URL{}
	for rows.Next() {
		var u URL
		err := rows.Scan(&u.ID, &u.ProjectID, &u.Address, &u.Label, &u.CreatedBy, &u.CreatedAt, &u.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning website url row: %w", err)
		}
		urls = append(urls, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating website url rows: %w", err)
	}

	return urls, nil
}

// Delete removes a URL scoped to its project.
func (r *PostgresRepository) Delete(ctx context.Context, projectID, urlID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM project_website_urls WHERE id = $1 AND project_id = $2`, urlID, projectID)
	if err != nil {
		return fmt.Errorf("deleting website url: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrURLNotFound
	}

	return nil
}
