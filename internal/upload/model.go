package upload

import (
	"time"

	"github.com/google/uuid"
)

// File kinds. Contracts share the files table but carry their own access
// rules: only agency admins may upload them, and only as PDF.
const (
	KindGeneral  = "general"
	KindContract = "contract"
)

// ValidKind reports whether kind is a defined file kind.
func ValidKind(kind string) bool {
	switch kind {
	case KindGeneral, KindContract:
		return true
	}
	return false
}

// File represents a row in the files table. The object itself lives in the
// blob store under S3Key; the portal only ever hands out signed URLs.
type File struct {
	ID          uuid.UUID
	ProjectID   uuid.UUID
	UploaderID  uuid.UUID
	Name        string
	S3Key       string
	ContentType string
	Size        int64
	Kind        string
	CreatedAt   time.Time
}
