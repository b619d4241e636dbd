package ticket

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

// Create inserts a new ticket.
func (r *PostgresRepository) Create(ctx context.Context, t *Ticket) error {
	query := `
		INSERT INTO tickets (project_id, author_id, subject, body, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query, t.ProjectID, t.AuthorID, t.Subject, t.Body, StatusOpen).
		Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting ticket: %w", err)
	}
	t.Status = StatusOpen

	return nil
}

// GetByID retrieves a single ticket.
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Ticket, error) {
	query := `
		SELECT id, project_id, author_id, subject, body, status, created_at, updated_at
		FROM tickets
		WHERE id = $1`

	var t Ticket
	err := r.pool.QueryRow(ctx, query, id).
		Scan(&t.ID, &t.ProjectID, &t.AuthorID, &t.Subject, &t.Body, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTicketNotFound
		}
		return nil, fmt.Errorf("querying ticket: %w", err)
	}

	return &t, nil
}

// ListByProject retrieves a project's tickets, newest first.
func (r *PostgresRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]Ticket, error) {
	query := `
		SELECT id, project_id, author_id, subject, body, status, created_at, updated_at
		FROM tickets
		WHERE project_id = $1
		ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing tickets: %w", err)
	}
	defer rows.Close()

	tickets := []Ticket{}
	for rows.Next() {
		var t Ticket
		err := rows.Scan(&t.ID, &t.ProjectID, &t.AuthorID, &t.Subject, &t.Body, &t.Status, &t.CreatedAt, &t.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning ticket row: %w", err)
		}
		tickets = append(tickets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating ticket rows: %w", err)
	}

	return tickets, nil
}

// SetStatus updates a ticket's status.
func (r *PostgresRepository) SetStatus(ctx context.Context, id uuid.UUID, status string) error {
	query := `UPDATE tickets SET status = $2, updated_at = now() WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("updating ticket status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrTicketNotFound
	}

	return nil
}

// AddReply appends a reply to a ticket and bumps its updated_at.
func (r *PostgresRepository) AddReply(ctx context.Context, reply *Reply) error {
	query := `
		INSERT INTO ticket_replies (ticket_id, author_id, body)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := r.pool.QueryRow(ctx, query, reply.TicketID, reply.AuthorID, reply.Body).
		Scan(&reply.ID, &reply.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting ticket reply: %w", err)
	}

	if _, err := r.pool.Exec(ctx, `UPDATE tickets SET updated_at = now() WHERE id = $1`, reply.TicketID); err != nil {
		return fmt.Errorf("touching ticket: %w", err)
	}

	return nil
}

// ListReplies retrieves a ticket's replies, oldest first.
func (r *PostgresRepository) ListReplies(ctx context.Context, ticketID uuid.UUID) ([]Reply, error) {
	query := `
		SELECT id, ticket_id, author_id, body, created_at
		FROM ticket_replies
		WHERE ticket_id = $1
		ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, fmt.Errorf("listing ticket replies: %w", err)
	}
	defer rows.Close()

	replies := []Reply{}
	for rows.Next() {
		var rep Reply
		if err := rows.Scan(&rep.ID, &rep.TicketID, &rep.AuthorID, &rep.Body, &rep.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning reply row: %w", err)
		}
		replies = append(replies, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating reply rows: %w", err)
	}

	return replies, nil
}
