package project

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/agencykit/portal/internal/audit"
	"github.com/agencykit/portal/internal/clientcode"
	"github.com/agencykit/portal/internal/member"
	"github.com/agencykit/portal/internal/onboarding"
)

// ErrInvalidBootstrapSecret is returned when the bootstrap secret does not match.
var ErrInvalidBootstrapSecret = errors.New("invalid bootstrap secret")

// Service owns project creation and its side effects: the initial client
// code, the default onboarding milestones, and the creator's membership.
type Service struct {
	repo            Repository
	codes           *clientcode.Service
	members         member.Repository
	steps           onboarding.Repository
	auditor         audit.Recorder
	bootstrapSecret string
}

// NewService creates a new project Service.
func NewService(repo Repository, codes *clientcode.Service, members member.Repository, steps onboarding.Repository, auditor audit.Recorder, bootstrapSecret string) *Service {
	return &Service{
		repo:            repo,
		codes:           codes,
		members:         members,
		steps:           steps,
		auditor:         auditor,
		bootstrapSecret: bootstrapSecret,
	}
}

// Create provisions a project: a fresh legacy client code on the row, the
// default milestone placeholders, and the creator bound as agency_admin.
// Returns the project and the code plaintext, shown exactly once.
func (s *Service) Create(ctx context.Context, agencyID uuid.UUID, name string, creatorID uuid.UUID) (*Project, string, error) {
	if _, err := s.repo.GetAgency(ctx, agencyID); err != nil {
		return nil, "", err
	}

	plaintext, hash, err := s.codes.NewProjectCode(ctx)
	if err != nil {
		return nil, "", err
	}

	p := &Project{
		AgencyID:         agencyID,
		Name:             name,
		Status:           "active",
		ClientCode:       &plaintext,
		ClientCodeHash:   &hash,
		ClientCodeActive: true,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, "", err
	}

	if err := s.steps.SeedDefaults(ctx, p.ID); err != nil {
		// The project exists; missing placeholders are recoverable.
		slog.Error("failed to seed default milestones", "project_id", p.ID, "error", err)
	}

	m := &member.Member{ProjectID: p.ID, UserID: creatorID, Role: member.RoleAgencyAdmin}
	if err := s.members.Create(ctx, m); err != nil && !errors.Is(err, member.ErrAlreadyMember) {
		return nil, "", fmt.Errorf("binding project creator: %w", err)
	}

	s.auditor.Record(ctx, &p.ID, "project.created", name)

	return p, plaintext, nil
}

// Get retrieves a project by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Project, error) {
	return s.repo.GetByID(ctx, id)
}

// ListForUser returns the projects the user is a member of.
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID) ([]Project, error) {
	memberships, err := s.members.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(memberships))
	for _, m := range memberships {
		ids = append(ids, m.ProjectID)
	}

	return s.repo.ListByIDs(ctx, ids)
}

// Bootstrap creates an agency with an initial admin project and binds the
// given user as agency_admin. Guarded by the configured bootstrap secret.
func (s *Service) Bootstrap(ctx context.Context, secret, agencyName string, adminUserID uuid.UUID) (*Agency, error) {
	if s.bootstrapSecret == "" || secret != s.bootstrapSecret {
		return nil, ErrInvalidBootstrapSecret
	}

	a := &Agency{
		Name: agencyName,
		Slug: slugify(agencyName),
	}
	if err := s.repo.CreateAgency(ctx, a); err != nil {
		return nil, err
	}

	if _, _, err := s.Create(ctx, a.ID, fmt.Sprintf("%s - Admin Project", agencyName), adminUserID); err != nil {
		return nil, fmt.Errorf("creating bootstrap project: %w", err)
	}

	return a, nil
}

func slugify(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "-")
}
