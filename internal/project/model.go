package project

import (
	"time"

	"github.com/google/uuid"
)

// Agency represents a row in the agencies table.
type Agency struct {
	ID        uuid.UUID
	Name      string
	Slug      string
	CreatedAt time.Time
}

// Project represents a row in the projects table. The client_code columns
// are the legacy single-code-per-project generation: the plaintext is kept
// for rows that predate hashing, the hash is the lookup key.
type Project struct {
	ID                  uuid.UUID
	AgencyID            uuid.UUID
	Name                string
	Status              string
	ClientCode          *string
	ClientCodeHash      *string
	ClientCodeActive    bool
	ClientCodeCreatedAt *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}
