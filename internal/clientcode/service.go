package clientcode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/agencykit/portal/internal/audit"
)

// maxIssueAttempts bounds the candidate-generation loop. With 32^8
// combinations, exhausting it means something is badly wrong, but it must be
// a reported error rather than an infinite loop.
const maxIssueAttempts = 10

// Service owns the client-code credential lifecycle: issuance, validation,
// rotation, activation and soft deletion. It is the only caller of Hasher.
type Service struct {
	repo    Repository
	hasher  *Hasher
	auditor audit.Recorder
}

// NewService creates a new client-code Service.
func NewService(repo Repository, hasher *Hasher, auditor audit.Recorder) *Service {
	return &Service{
		repo:    repo,
		hasher:  hasher,
		auditor: auditor,
	}
}

// Issue creates a new code for a project and returns the plaintext exactly
// once. The plaintext is never persisted and cannot be retrieved again.
func (s *Service) Issue(ctx context.Context, projectID uuid.UUID, meta Metadata) (string, *Code, error) {
	budget := maxIssueAttempts
	for {
		plaintext, hash, err := s.nextCandidate(ctx, uuid.Nil, uuid.Nil, &budget)
		if err != nil {
			return "", nil, err
		}

		code := &Code{
			ProjectID: projectID,
			CodeHash:  hash,
			IsActive:  true,
		}
		if meta.Label != nil {
			code.Label = *meta.Label
		}
		code.ClientName = meta.ClientName
		code.ClientEmail = meta.ClientEmail
		code.Notes = meta.Notes

		if err := s.repo.Insert(ctx, code); err != nil {
			// The unique index is the real safety net for the
			// check-then-insert race; a duplicate here means a collision
			// landed between the check and the insert. Spend the rest of
			// the attempt budget on fresh candidates.
			if errors.Is(err, ErrDuplicateHash) {
				continue
			}
			return "", nil, fmt.Errorf("persisting client code: %w", err)
		}

		s.auditor.Record(ctx, &projectID, "code.issued", code.ID.String())

		return plaintext, code, nil
	}
}

// Validate resolves a candidate plaintext to its owning project. Inactive,
// deleted and unknown codes are indistinguishable to the caller.
func (s *Service) Validate(ctx context.Context, raw string) (uuid.UUID, error) {
	normalized := Normalize(raw)
	if len(normalized) < CodeLength {
		return uuid.Nil, ErrInvalidFormat
	}

	hash := s.hasher.Hash(normalized)

	code, err := s.repo.FindActiveByHash(ctx, hash)
	if err == nil {
		return code.ProjectID, nil
	}
	if !errors.Is(err, ErrInvalidCode) {
		return uuid.Nil, err
	}

	// Legacy generation: one code on the project row itself.
	projectID, err := s.repo.FindProjectByCodeHash(ctx, hash)
	if err == nil {
		return projectID, nil
	}
	if !errors.Is(err, ErrInvalidCode) {
		return uuid.Nil, err
	}

	return s.migrateLegacyRow(ctx, normalized, hash)
}

// migrateLegacyRow resolves a pre-hashing plaintext row and upgrades it in
// place so future lookups hit the hash path. Absence here means the code is
// simply invalid.
func (s *Service) migrateLegacyRow(ctx context.Context, normalized, hash string) (uuid.UUID, error) {
	projectID, err := s.repo.FindProjectByPlaintext(ctx, normalized)
	if err != nil {
		return uuid.Nil, err
	}

	if err := s.repo.UpgradeLegacyRow(ctx, projectID, hash); err != nil {
		// The code did resolve; a failed upgrade only delays the migration.
		slog.Warn("failed to upgrade legacy client code row", "project_id", projectID, "error", err)
	} else {
		s.auditor.Record(ctx, &projectID, "code.legacy_upgraded", "")
	}

	return projectID, nil
}

// Rotate replaces the hash of an existing code. The old plaintext stops
// validating the instant the swap commits. Returns the new plaintext once.
func (s *Service) Rotate(ctx context.Context, codeID uuid.UUID) (string, error) {
	code, err := s.repo.GetByID(ctx, codeID)
	if err != nil {
		return "", err
	}

	budget := maxIssueAttempts
	for {
		plaintext, hash, err := s.nextCandidate(ctx, codeID, uuid.Nil, &budget)
		if err != nil {
			return "", err
		}

		if err := s.repo.UpdateHash(ctx, codeID, hash); err != nil {
			if errors.Is(err, ErrDuplicateHash) {
				continue
			}
			return "", err
		}

		s.auditor.Record(ctx, &code.ProjectID, "code.rotated", codeID.String())

		return plaintext, nil
	}
}

// RotateProject regenerates the legacy project-level code. The plaintext is
// kept on the row for backward compatibility with that generation.
func (s *Service) RotateProject(ctx context.Context, projectID uuid.UUID) (string, error) {
	budget := maxIssueAttempts
	for {
		plaintext, hash, err := s.nextCandidate(ctx, uuid.Nil, projectID, &budget)
		if err != nil {
			return "", err
		}

		if err := s.repo.ReplaceProjectCode(ctx, projectID, plaintext, hash); err != nil {
			if errors.Is(err, ErrDuplicateHash) {
				continue
			}
			return "", err
		}

		s.auditor.Record(ctx, &projectID, "code.project_rotated", "")

		return plaintext, nil
	}
}

// NewProjectCode produces a collision-checked plaintext and hash for a
// project being created. Persistence is the caller's insert; the unique
// constraint on projects.client_code_hash backstops the race.
func (s *Service) NewProjectCode(ctx context.Context) (plaintext, hash string, err error) {
	return s.uniqueCandidate(ctx, uuid.Nil, uuid.Nil)
}

// SetActive toggles the validation gate without changing the hash.
func (s *Service) SetActive(ctx context.Context, codeID uuid.UUID, active bool) error {
	code, err := s.repo.GetByID(ctx, codeID)
	if err != nil {
		return err
	}

	if err := s.repo.SetActive(ctx, codeID, active); err != nil {
		return err
	}

	action := "code.deactivated"
	if active {
		action = "code.activated"
	}
	s.auditor.Record(ctx, &code.ProjectID, action, codeID.String())

	return nil
}

// SoftDelete permanently retires a code. Deleted codes never validate and
// never appear in listings.
func (s *Service) SoftDelete(ctx context.Context, codeID uuid.UUID) error {
	code, err := s.repo.GetByID(ctx, codeID)
	if err != nil {
		return err
	}

	if err := s.repo.SoftDelete(ctx, codeID); err != nil {
		return err
	}

	s.auditor.Record(ctx, &code.ProjectID, "code.deleted", codeID.String())

	return nil
}

// Get retrieves a single code's metadata by id.
func (s *Service) Get(ctx context.Context, codeID uuid.UUID) (*Code, error) {
	return s.repo.GetByID(ctx, codeID)
}

// List returns metadata for all non-deleted codes of a project. Plaintext is
// never available here.
func (s *Service) List(ctx context.Context, projectID uuid.UUID) ([]Code, error) {
	return s.repo.ListByProject(ctx, projectID)
}

// UpdateMetadata updates descriptive fields; the hash is untouched.
func (s *Service) UpdateMetadata(ctx context.Context, codeID uuid.UUID, meta Metadata) error {
	code, err := s.repo.GetByID(ctx, codeID)
	if err != nil {
		return err
	}

	if err := s.repo.UpdateMetadata(ctx, codeID, meta); err != nil {
		return err
	}

	s.auditor.Record(ctx, &code.ProjectID, "code.updated", codeID.String())

	return nil
}

// uniqueCandidate generates candidates until one collides with no live row in
// either generation, excluding the row being rotated from the check.
func (s *Service) uniqueCandidate(ctx context.Context, excludeCode, excludeProject uuid.UUID) (string, string, error) {
	budget := maxIssueAttempts
	return s.nextCandidate(ctx, excludeCode, excludeProject, &budget)
}

// nextCandidate draws candidates from the shared attempt budget until one is
// free. Callers that lose a storage race afterwards come back with the same
// budget, so the total draws per operation stay bounded.
func (s *Service) nextCandidate(ctx context.Context, excludeCode, excludeProject uuid.UUID, budget *int) (string, string, error) {
	for *budget > 0 {
		*budget--

		plaintext, err := Generate()
		if err != nil {
			return "", "", err
		}

		hash := s.hasher.Hash(plaintext)

		inUse, err := s.repo.CandidateInUse(ctx, plaintext, hash, excludeCode, excludeProject)
		if err != nil {
			return "", "", fmt.Errorf("checking candidate uniqueness: %w", err)
		}
		if !inUse {
			return plaintext, hash, nil
		}
	}

	return "", "", ErrCodeSpaceExhausted
}
