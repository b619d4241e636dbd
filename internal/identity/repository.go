package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrProfileNotFound is returned when a profile record is not found.
var ErrProfileNotFound = errors.New("profile not found")

// ErrInvalidLoginToken is returned when a login token does not resolve to a
// live, unconsumed, unexpired record.
var ErrInvalidLoginToken = errors.New("invalid or expired login token")

// ProfileRepository provides operations on the profiles table.
type ProfileRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Profile, error)
	GetByEmail(ctx context.Context, email string) (*Profile, error)
	// UpsertByEmail returns the existing profile for email or creates one.
	UpsertByEmail(ctx context.Context, email string) (*Profile, error)
}

// LoginTokenRepository provides operations on the login_tokens table.
type LoginTokenRepository interface {
	Create(ctx context.Context, t *LoginToken) error
	FindLiveByPrefix(ctx context.Context, prefix string) ([]LoginToken, error)
	// Consume marks a token used. It affects nothing if the token was
	// already consumed, making the exchange single-use under races.
	Consume(ctx context.Context, id uuid.UUID) (bool, error)
}
