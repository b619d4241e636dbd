package upload

import (
	"context"
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

// Create inserts a new file record.
func (r *PostgresRepository) Create(ctx context.Context, f *File) error {
	query := `
		INSERT INTO files (project_id, uploader_id, name, s3_key, content_type, size, kind)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err := r.pool.QueryRow(ctx, query, f.ProjectID, f.UploaderID, f.Name, f.S3Key, f.ContentType, f.Size, f.Kind).
		Scan(&f.ID, &f.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting file record: %w", err)
	}

	return nil
}

// GetByID retrieves a single file record.
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*File, error) {
	query := `
		SELECT id, project_id, uploader_id, name, s3_key, content_type, size, kind, created_at
		FROM files
		WHERE id = $1`

	var f File
	err := r.pool.QueryRow(ctx, query, id).
		Scan(&f.ID, &f.ProjectID, &f.UploaderID, &f.Name, &f.S3Key, &f.ContentType, &f.Size, &f.Kind, &f.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("querying file record: %w", err)
	}

	return &f, nil
}

// ListByProject retrieves a project's file records, newest first, optionally
// filtered to one kind.
func (r *PostgresRepository) ListByProject(ctx context.Context, projectID uuid.UUID, kind string) ([]File, error) {
	query := `
		SELECT id, project_id, uploader_id, name, s3_key, content_type, size, kind, created_at
		FROM files
		WHERE project_id = $1 AND ($2 = '' OR kind = $2)
		ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, projectID, kind)
	if err != nil {
		return nil, fmt.Errorf("listing file records: %w", err)
	}
	defer rows.Close()

	files := []File{}
	for rows.Next() {
		var f File
		err := rows.Scan(&f.ID, &f.ProjectID, &f.UploaderID, &f.Name, &f.S3Key, &f.ContentType, &f.Size, &f.Kind, &f.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning file row: %w", err)
		}
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating file rows: %w", err)
	}

	return files, nil
}
