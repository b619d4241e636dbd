package upload

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrFileNotFound is returned when a file record is not found.
var ErrFileNotFound = errors.New("file not found")

// ErrContractNotPDF is returned when a contract upload is not a PDF.
var ErrContractNotPDF = errors.New("contracts must be PDF files")

// ErrInvalidKind is returned when a file kind is not a defined kind.
var ErrInvalidKind = errors.New("invalid file kind")

// Repository provides operations on the files table.
type Repository interface {
	Create(ctx context.Context, f *File) error
	GetByID(ctx context.Context, id uuid.UUID) (*File, error)

	// ListByProject retrieves a project's file records, newest first. An
	// empty kind lists every record regardless of kind.
	ListByProject(ctx context.Context, projectID uuid.UUID, kind string) ([]File, error)
}
