package clientcode

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
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

// Insert persists a new code row.
func (r *PostgresRepository) Insert(ctx context.Context, c *Code) error {
	query := `
		INSERT INTO client_codes (project_id, label, client_name, client_email, notes, code_hash, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err := r.pool.QueryRow(ctx, query,
		c.ProjectID, c.Label, c.ClientName, c.ClientEmail, c.Notes, c.CodeHash, c.IsActive,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateHash
		}
		return fmt.Errorf("inserting client code: %w", err)
	}

	return nil
}

// GetByID retrieves a non-deleted code by id.
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Code, error) {
	query := `
		SELECT id, project_id, label, client_name, client_email, notes,
		       code_hash, is_active, created_at, last_rotated_at, deleted_at
		FROM client_codes
		WHERE id = $1 AND deleted_at IS NULL`

	c, err := scanCode(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCodeNotFound
		}
		return nil, fmt.Errorf("querying client code: %w", err)
	}
	return c, nil
}

// FindActiveByHash retrieves the active, non-deleted code with the given hash.
func (r *PostgresRepository) FindActiveByHash(ctx context.Context, hash string) (*Code, error) {
	query := `
		SELECT id, project_id, label, client_name, client_email, notes,
		       code_hash, is_active, created_at, last_rotated_at, deleted_at
		FROM client_codes
		WHERE code_hash = $1 AND is_active = true AND deleted_at IS NULL`

	c, err := scanCode(r.pool.QueryRow(ctx, query, hash))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCode
		}
		return nil, fmt.Errorf("querying client code by hash: %w", err)
	}
	return c, nil
}

// ListByProject retrieves all non-deleted codes for a project, oldest first.
func (r *PostgresRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]Code, error) {
	query := `
		SELECT id, project_id, label, client_name, client_email, notes,
		       code_hash, is_active, created_at, last_rotated_at, deleted_at
		FROM client_codes
		WHERE project_id = $1 AND deleted_at IS NULL
		ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing client codes: %w", err)
	}
	defer rows.Close()

	codes := []Code{}
	for rows.Next() {
		c, err := scanCode(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning client code row: %w", err)
		}
		codes = append(codes, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating client code rows: %w", err)
	}

	return codes, nil
}

// UpdateHash swaps the hash on a live row and stamps last_rotated_at. The old
// hash stops matching the instant this update commits.
func (r *PostgresRepository) UpdateHash(ctx context.Context, id uuid.UUID, hash string) error {
	query := `
		UPDATE client_codes
		SET code_hash = $2, last_rotated_at = now()
		WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.pool.Exec(ctx, query, id, hash)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateHash
		}
		return fmt.Errorf("updating client code hash: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrCodeNotFound
	}
	return nil
}

// SetActive toggles the activation gate without touching the hash.
func (r *PostgresRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	query := `UPDATE client_codes SET is_active = $2 WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.pool.Exec(ctx, query, id, active)
	if err != nil {
		return fmt.Errorf("updating client code active flag: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrCodeNotFound
	}
	return nil
}

// SoftDelete stamps deleted_at. Deleted rows are excluded from every other query.
func (r *PostgresRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE client_codes SET deleted_at = now() WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("soft-deleting client code: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrCodeNotFound
	}
	return nil
}

// UpdateMetadata updates descriptive fields only; nil fields are untouched.
func (r *PostgresRepository) UpdateMetadata(ctx context.Context, id uuid.UUID, meta Metadata) error {
	query := `
		UPDATE client_codes
		SET label        = COALESCE($2, label),
		    client_name  = COALESCE($3, client_name),
		    client_email = COALESCE($4, client_email),
		    notes        = COALESCE($5, notes)
		WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.pool.Exec(ctx, query, id, meta.Label, meta.ClientName, meta.ClientEmail, meta.Notes)
	if err != nil {
		return fmt.Errorf("updating client code metadata: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrCodeNotFound
	}
	return nil
}

// CandidateInUse checks both generations for a live claim on the candidate.
func (r *PostgresRepository) CandidateInUse(ctx context.Context, plaintext, hash string, excludeCode, excludeProject uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM client_codes
			WHERE code_hash = $1 AND deleted_at IS NULL AND id != $3
		) OR EXISTS (
			SELECT 1 FROM projects
			WHERE (client_code_hash = $1 OR client_code = $2) AND id != $4
		)`

	var inUse bool
	err := r.pool.QueryRow(ctx, query, hash, plaintext, excludeCode, excludeProject).Scan(&inUse)
	if err != nil {
		return false, fmt.Errorf("checking candidate collision: %w", err)
	}
	return inUse, nil
}

// FindProjectByCodeHash resolves a legacy project-level code by hash.
func (r *PostgresRepository) FindProjectByCodeHash(ctx context.Context, hash string) (uuid.UUID, error) {
	query := `SELECT id FROM projects WHERE client_code_hash = $1 AND client_code_active = true`

	var id uuid.UUID
	err := r.pool.QueryRow(ctx, query, hash).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, ErrInvalidCode
		}
		return uuid.Nil, fmt.Errorf("querying project by code hash: %w", err)
	}
	return id, nil
}

// FindProjectByPlaintext resolves a legacy project whose code predates hashing.
func (r *PostgresRepository) FindProjectByPlaintext(ctx context.Context, plaintext string) (uuid.UUID, error) {
	query := `SELECT id FROM projects WHERE client_code = $1 AND client_code_hash IS NULL`

	var id uuid.UUID
	err := r.pool.QueryRow(ctx, query, plaintext).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, ErrInvalidCode
		}
		return uuid.Nil, fmt.Errorf("querying project by plaintext code: %w", err)
	}
	return id, nil
}

// UpgradeLegacyRow persists the hash for a pre-migration project row in place.
func (r *PostgresRepository) UpgradeLegacyRow(ctx context.Context, projectID uuid.UUID, hash string) error {
	query := `
		UPDATE projects
		SET client_code_hash = $2, client_code_active = true, client_code_created_at = now()
		WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, projectID, hash)
	if err != nil {
		return fmt.Errorf("upgrading legacy code row: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrCodeNotFound
	}
	return nil
}

// ReplaceProjectCode swaps a legacy project-level code and its hash in one write.
func (r *PostgresRepository) ReplaceProjectCode(ctx context.Context, projectID uuid.UUID, plaintext, hash string) error {
	query := `
		UPDATE projects
		SET client_code = $2, client_code_hash = $3, client_code_active = true,
		    client_code_created_at = now(), updated_at = now()
		WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, projectID, plaintext, hash)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateHash
		}
		return fmt.Errorf("replacing project client code: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrCodeNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCode(row rowScanner) (*Code, error) {
	var c Code
	err := row.Scan(
		&c.ID, &c.ProjectID, &c.Label, &c.ClientName, &c.ClientEmail, &c.Notes,
		&c.CodeHash, &c.IsActive, &c.CreatedAt, &c.LastRotatedAt, &c.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
