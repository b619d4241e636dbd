package member

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

// Create inserts a new membership. A primary-key conflict means a concurrent
// join already won; it surfaces as ErrAlreadyMember so the caller can fall
// back to the existing row.
func (r *PostgresRepository) Create(ctx context.Context, m *Member) error {
	query := `
		INSERT INTO project_members (project_id, user_id, role)
		VALUES ($1, $2, $3)
		RETURNING created_at`

	err := r.pool.QueryRow(ctx, query, m.ProjectID, m.UserID, m.Role).Scan(&m.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrAlreadyMember
		}
		return fmt.Errorf("inserting project member: %w", err)
	}

	return nil
}

// Get retrieves a single membership by its composite key.
func (r *PostgresRepository) Get(ctx context.Context, projectID, userID uuid.UUID) (*Member, error) {
	query := `
		SELECT project_id, user_id, role, created_at
		FROM project_members
		WHERE project_id = $1 AND user_id = $2`

	var m Member
	err := r.pool.QueryRow(ctx, query, projectID, userID).Scan(&m.ProjectID, &m.UserID, &m.Role, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("querying project member: %w", err)
	}

	return &m, nil
}

// ListByProject retrieves all members of a project, oldest first.
func (r *PostgresRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]Member, error) {
	query := `
		SELECT project_id, user_id, role, created_at
		FROM project_members
		WHERE project_id = $1
		ORDER BY created_at ASC`

	return r.list(ctx, query, projectID)
}

// ListByUser retrieves all memberships held by a user.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]Member, error) {
	query := `
		SELECT project_id, user_id, role, created_at
		FROM project_members
		WHERE user_id = $1
		ORDER BY created_at ASC`

	return r.list(ctx, query, userID)
}

// HasClientAdmin reports whether the project already has a client_admin.
func (r *PostgresRepository) HasClientAdmin(ctx context.Context, projectID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM project_members
			WHERE project_id = $1 AND role = 'client_admin'
		)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, projectID).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking for client admin: %w", err)
	}

	return exists, nil
}

// UpdateRole changes an existing member's role.
func (r *PostgresRepository) UpdateRole(ctx context.Context, projectID, userID uuid.UUID, role string) error {
	query := `UPDATE project_members SET role = $3 WHERE project_id = $1 AND user_id = $2`

	result, err := r.pool.Exec(ctx, query, projectID, userID, role)
	if err != nil {
		return fmt.Errorf("updating member role: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrMemberNotFound
	}

	return nil
}

func (r *PostgresRepository) list(ctx context.Context, query string, arg any) ([]Member, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("listing project members: %w", err)
	}
	defer rows.Close()

	members := []Member{}
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.ProjectID, &m.UserID, &m.Role, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning member row: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating member rows: %w", err)
	}

	return members, nil
}
