package onboarding

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
)

// ErrMilestoneNotFound is returned when a milestone record is not found.
var ErrMilestoneNotFound = errors.New("milestone not found")

// ErrStepNotFound is returned when a step has no saved data.
var ErrStepNotFound = errors.New("onboarding step not found")

// Repository provides operations on the milestones and onboarding_steps tables.
type Repository interface {
	SeedDefaults(ctx context.Context, projectID uuid.UUID) error
	ListMilestones(ctx context.Context, projectID uuid.UUID) ([]Milestone, error)
	SetMilestoneStatus(ctx context.Context, projectID uuid.UUID, key, status string) error

	UpsertStepData(ctx context.Context, projectID uuid.UUID, step int, payload json.RawMessage) error
	GetStepData(ctx context.Context, projectID uuid.UUID, step int) (*StepData, error)
}
