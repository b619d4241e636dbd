// Package token issues and verifies the signed tokens the portal hands to
// browsers: the login session, the short-lived pending-join stash, and the
// active-project pin. All are HS256 JWTs under one server secret; the
// cookies carrying them are a transport detail owned by the API layer.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Lifetimes for each token kind.
const (
	SessionTTL     = 30 * 24 * time.Hour
	PendingJoinTTL = 10 * time.Minute
	ProjectPinTTL  = 30 * 24 * time.Hour
)

const issuer = "portal"

// ErrInvalidToken is returned for any token that fails to parse, verify, or
// carry the expected claims. Expired tokens are not distinguished.
var ErrInvalidToken = errors.New("invalid token")

// SessionClaims identifies an authenticated principal.
type SessionClaims struct {
	UserID uuid.UUID
	Email  string
}

type sessionClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

type pendingJoinClaims struct {
	jwt.RegisteredClaims
	// Code is the normalized plaintext, not the hash and not a project id,
	// so the authoritative validation is repeated after authentication.
	Code string `json:"code"`
}

type projectPinClaims struct {
	jwt.RegisteredClaims
	ProjectID string `json:"project_id"`
}

// Manager signs and verifies portal tokens.
type Manager struct {
	secret []byte
	now    func() time.Time
}

// NewManager creates a Manager keyed with the given secret.
func NewManager(secret string) *Manager {
	return &Manager{secret: []byte(secret), now: time.Now}
}

// IssueSession returns a session token for an authenticated user.
func (m *Manager) IssueSession(userID uuid.UUID, email string) (string, error) {
	claims := sessionClaims{
		RegisteredClaims: m.registered(userID.String(), SessionTTL),
		Email:            email,
	}
	return m.sign(claims)
}

// ParseSession verifies a session token and returns its claims.
func (m *Manager) ParseSession(raw string) (*SessionClaims, error) {
	var claims sessionClaims
	if err := m.parse(raw, &claims); err != nil {
		return nil, err
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil || claims.Email == "" {
		return nil, ErrInvalidToken
	}

	return &SessionClaims{UserID: userID, Email: claims.Email}, nil
}

// IssuePendingJoin stashes a normalized plaintext code for one
// authentication round-trip.
func (m *Manager) IssuePendingJoin(code string) (string, error) {
	claims := pendingJoinClaims{
		RegisteredClaims: m.registered("", PendingJoinTTL),
		Code:             code,
	}
	return m.sign(claims)
}

// ParsePendingJoin verifies a pending-join token and returns the stashed code.
func (m *Manager) ParsePendingJoin(raw string) (string, error) {
	var claims pendingJoinClaims
	if err := m.parse(raw, &claims); err != nil {
		return "", err
	}
	if claims.Code == "" {
		return "", ErrInvalidToken
	}
	return claims.Code, nil
}

// IssueProjectPin returns the long-lived active-project pin token.
func (m *Manager) IssueProjectPin(projectID uuid.UUID) (string, error) {
	claims := projectPinClaims{
		RegisteredClaims: m.registered("", ProjectPinTTL),
		ProjectID:        projectID.String(),
	}
	return m.sign(claims)
}

// ParseProjectPin verifies a pin token and returns the pinned project id.
func (m *Manager) ParseProjectPin(raw string) (uuid.UUID, error) {
	var claims projectPinClaims
	if err := m.parse(raw, &claims); err != nil {
		return uuid.Nil, err
	}

	projectID, err := uuid.Parse(claims.ProjectID)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	return projectID, nil
}

func (m *Manager) registered(subject string, ttl time.Duration) jwt.RegisteredClaims {
	now := m.now().UTC()
	return jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        uuid.New().String(),
	}
}

func (m *Manager) sign(claims jwt.Claims) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

func (m *Manager) parse(raw string, claims jwt.Claims) error {
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return ErrInvalidToken
	}
	return nil
}
