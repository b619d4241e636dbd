package website

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrURLNotFound is returned when a website URL record is not found.
var ErrURLNotFound = errors.New("website url not found")

// Repository provides operations on the project_website_urls table.
type Repository interface {
	Create(ctx context.Context, u *URL) error
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]URL, error)

	// Delete removes a URL. The project id is part of the key so a caller
	// authorized for one project cannot delete another project's rows.
	Delete(ctx context.Context, projectID, urlID uuid.UUID) error
}
