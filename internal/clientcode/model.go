package clientcode

import (
	"time"

	"github.com/google/uuid"
)

// Code represents a row in the client_codes table. The plaintext code is
// never stored; CodeHash is the durable lookup key.
type Code struct {
	ID            uuid.UUID
	ProjectID     uuid.UUID
	Label         string
	ClientName    *string
	ClientEmail   *string
	Notes         *string
	CodeHash      string
	IsActive      bool
	CreatedAt     time.Time
	LastRotatedAt *time.Time
	DeletedAt     *time.Time
}

// Metadata holds the descriptive fields of a code. Nil fields are left
// unchanged on update.
type Metadata struct {
	Label       *string
	ClientName  *string
	ClientEmail *string
	Notes       *string
}
