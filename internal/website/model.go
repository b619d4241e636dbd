package website

import (
	"time"

	"github.com/google/uuid"
)

// URL is one live or staging site address attached to a project, shown to
// clients on the portal dashboard.
type URL struct {
	ID        uuid.UUID
	ProjectID uuid.UUID
	Address   string
	Label     string
	CreatedBy *uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}
