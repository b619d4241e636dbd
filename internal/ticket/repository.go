package ticket

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrTicketNotFound is returned when a ticket record is not found.
var ErrTicketNotFound = errors.New("ticket not found")

// Repository provides operations on the tickets and ticket_replies tables.
type Repository interface {
	Create(ctx context.Context, t *Ticket) error
	GetByID(ctx context.Context, id uuid.UUID) (*Ticket, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]Ticket, error)
	SetStatus(ctx context.Context, id uuid.UUID, status string) error

	AddReply(ctx context.Context, r *Reply) error
	ListReplies(ctx context.Context, ticketID uuid.UUID) ([]Reply, error)
}
