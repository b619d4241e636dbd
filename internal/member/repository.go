package member

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrAlreadyMember is returned when a (project, user) membership already
// exists. Callers treat it as success, not failure.
var ErrAlreadyMember = errors.New("already a project member")

// ErrMemberNotFound is returned when a membership record is not found.
var ErrMemberNotFound = errors.New("project member not found")

// Repository provides operations on the project_members table. Memberships
// are created and promoted here; removal is out of this subsystem's scope.
type Repository interface {
	Create(ctx context.Context, m *Member) error
	Get(ctx context.Context, projectID, userID uuid.UUID) (*Member, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]Member, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Member, error)
	HasClientAdmin(ctx context.Context, projectID uuid.UUID) (bool, error)
	UpdateRole(ctx context.Context, projectID, userID uuid.UUID, role string) error
}
