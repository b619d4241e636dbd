package project

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

const projectColumns = `id, agency_id, name, status, client_code, client_code_hash,
	client_code_active, client_code_created_at, created_at, updated_at`

// Create inserts a new project record, including its initial legacy code.
func (r *PostgresRepository) Create(ctx context.Context, p *Project) error {
	query := `
		INSERT INTO projects (agency_id, name, status, client_code, client_code_hash,
		                      client_code_active, client_code_created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		RETURNING id, client_code_created_at, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		p.AgencyID, p.Name, p.Status, p.ClientCode, p.ClientCodeHash, p.ClientCodeActive,
	).Scan(&p.ID, &p.ClientCodeCreatedAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting project: %w", err)
	}

	return nil
}

// GetByID retrieves a single project by id.
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Project, error) {
	query := fmt.Sprintf(`SELECT %s FROM projects WHERE id = $1`, projectColumns)

	p, err := scanProject(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("querying project: %w", err)
	}
	return p, nil
}

// ListByAgency retrieves all projects of an agency, newest first.
func (r *PostgresRepository) ListByAgency(ctx context.Context, agencyID uuid.UUID) ([]Project, error) {
	query := fmt.Sprintf(`SELECT %s FROM projects WHERE agency_id = $1 ORDER BY created_at DESC`, projectColumns)
	return r.list(ctx, query, agencyID)
}

// ListByIDs retrieves the projects with the given ids.
func (r *PostgresRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]Project, error) {
	if len(ids) == 0 {
		return []Project{}, nil
	}
	query := fmt.Sprintf(`SELECT %s FROM projects WHERE id = ANY($1) ORDER BY created_at DESC`, projectColumns)
	return r.list(ctx, query, ids)
}

// CreateAgency inserts a new agency record.
func (r *PostgresRepository) CreateAgency(ctx context.Context, a *Agency) error {
	query := `
		INSERT INTO agencies (name, slug)
		VALUES ($1, $2)
		RETURNING id, created_at`

	err := r.pool.QueryRow(ctx, query, a.Name, a.Slug).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateSlug
		}
		return fmt.Errorf("inserting agency: %w", err)
	}

	return nil
}

// GetAgency retrieves a single agency by id.
func (r *PostgresRepository) GetAgency(ctx context.Context, id uuid.UUID) (*Agency, error) {
	query := `SELECT id, name, slug, created_at FROM agencies WHERE id = $1`

	var a Agency
	err := r.pool.QueryRow(ctx, query, id).Scan(&a.ID, &a.Name, &a.Slug, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAgencyNotFound
		}
		return nil, fmt.Errorf("querying agency: %w", err)
	}
	return &a, nil
}

func (r *PostgresRepository) list(ctx context.Context, query string, arg any) ([]Project, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	defer rows.Close()

	projects := []Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning project row: %w", err)
		}
		projects = append(projects, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating project rows: %w", err)
	}

	return projects, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*Project, error) {
	var p Project
	err := row.Scan(
		&p.ID, &p.AgencyID, &p.Name, &p.Status, &p.ClientCode, &p.ClientCodeHash,
		&p.ClientCodeActive, &p.ClientCodeCreatedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
