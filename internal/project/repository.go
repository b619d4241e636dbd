package project

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrProjectNotFound is returned when a project record is not found.
var ErrProjectNotFound = errors.New("project not found")

// ErrAgencyNotFound is returned when an agency record is not found.
var ErrAgencyNotFound = errors.New("agency not found")

// ErrDuplicateSlug is returned when an agency slug already exists.
var ErrDuplicateSlug = errors.New("agency slug already exists")

// Repository provides operations on the projects and agencies tables.
type Repository interface {
	Create(ctx context.Context, p *Project) error
	GetByID(ctx context.Context, id uuid.UUID) (*Project, error)
	ListByAgency(ctx context.Context, agencyID uuid.UUID) ([]Project, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]Project, error)

	CreateAgency(ctx context.Context, a *Agency) error
	GetAgency(ctx context.Context, id uuid.UUID) (*Agency, error)
}
