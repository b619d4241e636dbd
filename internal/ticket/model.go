package ticket

import (
	"time"

	"github.com/google/uuid"
)

// Ticket statuses.
const (
	StatusOpen   = "open"
	StatusClosed = "closed"
)

// ValidStatus reports whether status is a defined ticket status.
func ValidStatus(status string) bool {
	return status == StatusOpen || status == StatusClosed
}

// Ticket represents a row in the tickets table.
type Ticket struct {
	ID        uuid.UUID
	ProjectID uuid.UUID
	AuthorID  uuid.UUID
	Subject   string
	Body      string
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Reply represents a row in the ticket_replies table.
type Reply struct {
	ID        uuid.UUID
	TicketID  uuid.UUID
	AuthorID  uuid.UUID
	Body      string
	CreatedAt time.Time
}
