package identity

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// loginTokenTTL is how long an emailed sign-in link stays valid.
const loginTokenTTL = 15 * time.Minute

const tokenPrefixLen = 8

// Service implements the passwordless email-link exchange: it issues
// one-time login tokens, mails them, and resolves them back to profiles.
type Service struct {
	profiles   ProfileRepository
	tokens     LoginTokenRepository
	mailer     Mailer
	siteURL    string
	bcryptCost int
}

// NewService creates a new identity Service.
func NewService(profiles ProfileRepository, tokens LoginTokenRepository, mailer Mailer, siteURL string, bcryptCost int) *Service {
	return &Service{
		profiles:   profiles,
		tokens:     tokens,
		mailer:     mailer,
		siteURL:    siteURL,
		bcryptCost: bcryptCost,
	}
}

// SendLoginLink issues a one-time token for the address and emails the
// callback link. The raw token exists only in that email.
func (s *Service) SendLoginLink(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("invalid email address: %w", err)
	}

	raw, prefix, hash, err := s.generateToken()
	if err != nil {
		return err
	}

	t := &LoginToken{
		Email:     email,
		Prefix:    prefix,
		TokenHash: hash,
		ExpiresAt: time.Now().UTC().Add(loginTokenTTL),
	}
	if err := s.tokens.Create(ctx, t); err != nil {
		return err
	}

	link := fmt.Sprintf("%s/auth/callback?token=%s", strings.TrimRight(s.siteURL, "/"), url.QueryEscape(raw))
	if err := s.mailer.SendLoginLink(ctx, email, link); err != nil {
		return fmt.Errorf("sending login link: %w", err)
	}

	return nil
}

// ExchangeLoginToken resolves a raw token to an authenticated identity,
// consuming it. Each token works at most once.
func (s *Service) ExchangeLoginToken(ctx context.Context, raw string) (*Identity, error) {
	if len(raw) < tokenPrefixLen {
		return nil, ErrInvalidLoginToken
	}

	candidates, err := s.tokens.FindLiveByPrefix(ctx, raw[:tokenPrefixLen])
	if err != nil {
		return nil, fmt.Errorf("finding login tokens by prefix: %w", err)
	}

	for _, t := range candidates {
		if bcrypt.CompareHashAndPassword([]byte(t.TokenHash), []byte(raw)) != nil {
			continue
		}

		consumed, err := s.tokens.Consume(ctx, t.ID)
		if err != nil {
			return nil, err
		}
		if !consumed {
			// A concurrent exchange got there first.
			return nil, ErrInvalidLoginToken
		}

		profile, err := s.profiles.UpsertByEmail(ctx, t.Email)
		if err != nil {
			return nil, err
		}

		return &Identity{UserID: profile.ID, Email: profile.Email}, nil
	}

	return nil, ErrInvalidLoginToken
}

// generateToken creates a raw login token: 32 random bytes -> base64url with
// a "lgn_" marker. Returns the raw token, its prefix, and the bcrypt hash.
func (s *Service) generateToken() (raw, prefix, hash string, err error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", "", "", fmt.Errorf("generating random bytes: %w", err)
	}

	raw = "lgn_" + base64.RawURLEncoding.EncodeToString(b)
	prefix = raw[:tokenPrefixLen]

	hashBytes, err := bcrypt.GenerateFromPassword([]byte(raw), s.bcryptCost)
	if err != nil {
		return "", "", "", fmt.Errorf("hashing login token: %w", err)
	}

	return raw, prefix, string(hashBytes), nil
}
