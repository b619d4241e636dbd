package clientcode

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrInvalidFormat is returned when a candidate code fails the cheap format
// gate (empty or shorter than CodeLength) before any lookup.
var ErrInvalidFormat = errors.New("invalid client code format")

// ErrInvalidCode is returned when a code matches no active, undeleted row.
// Callers must not distinguish not-found from inactive or deleted.
var ErrInvalidCode = errors.New("invalid client code")

// ErrCodeSpaceExhausted is returned when the issuance retry budget is spent
// without finding a collision-free candidate.
var ErrCodeSpaceExhausted = errors.New("client code space exhausted")

// ErrCodeNotFound is returned when operating on a missing or deleted code id.
var ErrCodeNotFound = errors.New("client code not found")

// ErrDuplicateHash is returned when an insert or rotation loses the race
// against the unique hash index.
var ErrDuplicateHash = errors.New("client code hash already exists")

// Repository provides storage for both generations of client codes: the
// client_codes table and the legacy per-project columns on projects.
type Repository interface {
	Insert(ctx context.Context, code *Code) error
	GetByID(ctx context.Context, id uuid.UUID) (*Code, error)
	FindActiveByHash(ctx context.Context, hash string) (*Code, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]Code, error)
	UpdateHash(ctx context.Context, id uuid.UUID, hash string) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	UpdateMetadata(ctx context.Context, id uuid.UUID, meta Metadata) error

	// CandidateInUse reports whether a live row in either generation
	// already claims the candidate's hash or plaintext. excludeCode and
	// excludeProject skip the row being rotated; pass uuid.Nil to check
	// against everything.
	CandidateInUse(ctx context.Context, plaintext, hash string, excludeCode, excludeProject uuid.UUID) (bool, error)

	// Legacy generation: one optional code on the project row itself.
	FindProjectByCodeHash(ctx context.Context, hash string) (uuid.UUID, error)
	FindProjectByPlaintext(ctx context.Context, plaintext string) (uuid.UUID, error)
	UpgradeLegacyRow(ctx context.Context, projectID uuid.UUID, hash string) error
	ReplaceProjectCode(ctx context.Context, projectID uuid.UUID, plaintext, hash string) error
}
