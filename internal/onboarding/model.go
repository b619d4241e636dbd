package onboarding

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Milestone statuses.
const (
	StatusNotStarted = "not_started"
	StatusInProgress = "in_progress"
	StatusComplete   = "complete"
)

// ValidStatus reports whether status is a defined milestone status.
func ValidStatus(status string) bool {
	switch status {
	case StatusNotStarted, StatusInProgress, StatusComplete:
		return true
	}
	return false
}

// Milestone represents a row in the milestones table.
type Milestone struct {
	ID        uuid.UUID
	ProjectID uuid.UUID
	Key       string
	Title     string
	Status    string
	Sort      int
}

// StepData is one saved onboarding-form step for a project. Payload is the
// raw submitted form JSON; its field semantics are the UI's business.
type StepData struct {
	ProjectID uuid.UUID
	Step      int
	Payload   json.RawMessage
	UpdatedAt time.Time
}

// defaultMilestones are seeded for every new project.
var defaultMilestones = []Milestone{
	{Key: "sitemap", Title: "Sitemap", Sort: 1},
	{Key: "homepage_concept", Title: "Homepage Concept", Sort: 2},
	{Key: "full_build", Title: "Full Build", Sort: 3},
	{Key: "qa", Title: "QA", Sort: 4},
	{Key: "launch", Title: "Launch", Sort: 5},
}
