package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresProfileRepository implements ProfileRepository using pgxpool.
type PostgresProfileRepository struct {
	pool *pgxpool.Pool
}

// NewProfileRepository creates a ProfileRepository backed by the given pool.
func NewProfileRepository(pool *pgxpool.Pool) ProfileRepository {
	return &PostgresProfileRepository{pool: pool}
}

// GetByID retrieves a profile by id.
func (r *PostgresProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*Profile, error) {
	query := `SELECT id, email, created_at FROM profiles WHERE id = $1`

	var p Profile
	err := r.pool.QueryRow(ctx, query, id).Scan(&p.ID, &p.Email, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("querying profile: %w", err)
	}
	return &p, nil
}

// GetByEmail retrieves a profile by its lowercased email.
func (r *PostgresProfileRepository) GetByEmail(ctx context.Context, email string) (*Profile, error) {
	query := `SELECT id, email, created_at FROM profiles WHERE email = $1`

	var p Profile
	err := r.pool.QueryRow(ctx, query, strings.ToLower(email)).Scan(&p.ID, &p.Email, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("querying profile by email: %w", err)
	}
	return &p, nil
}

// UpsertByEmail returns the profile for email, creating it if absent.
func (r *PostgresProfileRepository) UpsertByEmail(ctx context.Context, email string) (*Profile, error) {
	query := `
		INSERT INTO profiles (email)
		VALUES ($1)
		ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email
		RETURNING id, email, created_at`

	var p Profile
	err := r.pool.QueryRow(ctx, query, strings.ToLower(email)).Scan(&p.ID, &p.Email, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("upserting profile: %w", err)
	}
	return &p, nil
}

// PostgresLoginTokenRepository implements LoginTokenRepository using pgxpool.
type PostgresLoginTokenRepository struct {
	pool *pgxpool.Pool
}

// NewLoginTokenRepository creates a LoginTokenRepository backed by the given pool.
func NewLoginTokenRepository(pool *pgxpool.Pool) LoginTokenRepository {
	return &PostgresLoginTokenRepository{pool: pool}
}

// Create inserts a new login token record.
func (r *PostgresLoginTokenRepository) Create(ctx context.Context, t *LoginToken) error {
	query := `
		INSERT INTO login_tokens (email, prefix, token_hash, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := r.pool.QueryRow(ctx, query, t.Email, t.Prefix, t.TokenHash, t.ExpiresAt).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting login token: %w", err)
	}
	return nil
}

// FindLiveByPrefix retrieves unconsumed, unexpired tokens with the prefix.
func (r *PostgresLoginTokenRepository) FindLiveByPrefix(ctx context.Context, prefix string) ([]LoginToken, error) {
	query := `
		SELECT id, email, prefix, token_hash, expires_at, consumed_at, created_at
		FROM login_tokens
		WHERE prefix = $1 AND consumed_at IS NULL AND expires_at > now()`

	rows, err := r.pool.Query(ctx, query, prefix)
	if err != nil {
		return nil, fmt.Errorf("querying login tokens by prefix: %w", err)
	}
	defer rows.Close()

	tokens := []LoginToken{}
	for rows.Next() {
		var t LoginToken
		err := rows.Scan(&t.ID, &t.Email, &t.Prefix, &t.TokenHash, &t.ExpiresAt, &t.ConsumedAt, &t.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning login token row: %w", err)
		}
		tokens = append(tokens, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating login token rows: %w", err)
	}

	return tokens, nil
}

// Consume marks a token used; returns false if it was already consumed.
func (r *PostgresLoginTokenRepository) Consume(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `UPDATE login_tokens SET consumed_at = now() WHERE id = $1 AND consumed_at IS NULL`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("consuming login token: %w", err)
	}
	return result.RowsAffected() > 0, nil
}
