package identity

import (
	"time"

	"github.com/google/uuid"
)

// Profile represents a row in the profiles table. Profiles are created
// lazily the first time an email completes the login-link exchange.
type Profile struct {
	ID        uuid.UUID
	Email     string
	CreatedAt time.Time
}

// LoginToken represents a row in the login_tokens table. The raw token is
// emailed once; only its bcrypt hash is stored, alongside the prefix used to
// narrow the candidate set at exchange time.
type LoginToken struct {
	ID         uuid.UUID
	Email      string
	Prefix     string
	TokenHash  string
	ExpiresAt  time.Time
	ConsumedAt *time.Time
	CreatedAt  time.Time
}

// Identity is the authenticated principal attached to a request.
type Identity struct {
	UserID uuid.UUID
	Email  string
}
