// Package join turns a validated client code into a durable project
// membership and an active-project pin, idempotently.
package join

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/agencykit/portal/internal/audit"
	"github.com/agencykit/portal/internal/clientcode"
	"github.com/agencykit/portal/internal/member"
	"github.com/agencykit/portal/internal/token"
)

// BindResult reports the membership established (or confirmed) by a bind.
type BindResult struct {
	ProjectID uuid.UUID
	Role      string
	// Joined is false when the membership already existed.
	Joined bool
}

// Binder implements the two-phase join: pre-auth validation stashes the
// normalized plaintext in a signed short-lived token; the post-auth bind
// re-validates it fresh and creates the membership.
type Binder struct {
	codes       *clientcode.Service
	members     member.Repository
	tokens      *token.Manager
	auditor     audit.Recorder
	adminEmails map[string]bool
}

// NewBinder creates a Binder. adminEmails is the configured allow-list of
// agency operator addresses, compared case-insensitively.
func NewBinder(codes *clientcode.Service, members member.Repository, tokens *token.Manager, auditor audit.Recorder, adminEmails []string) *Binder {
	allowed := make(map[string]bool, len(adminEmails))
	for _, e := range adminEmails {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			allowed[e] = true
		}
	}
	return &Binder{
		codes:       codes,
		members:     members,
		tokens:      tokens,
		auditor:     auditor,
		adminEmails: allowed,
	}
}

// ValidatePreAuth checks a raw code before the user has authenticated. On
// success it returns a signed pending-join token carrying the normalized
// plaintext. The token deliberately holds the plaintext rather than the
// resolved project, so the authoritative lookup is repeated at bind time and
// a code rotated or deactivated during the email round-trip is rejected.
func (b *Binder) ValidatePreAuth(ctx context.Context, raw string) (string, error) {
	if _, err := b.codes.Validate(ctx, raw); err != nil {
		return "", err
	}

	pending, err := b.tokens.IssuePendingJoin(clientcode.Normalize(raw))
	if err != nil {
		return "", fmt.Errorf("issuing pending-join token: %w", err)
	}
	return pending, nil
}

// BindAfterAuth consumes a pending-join token for a freshly authenticated
// user. A missing or stale token is a plain login, not an error. Calling it
// twice for the same user and project is side-effect-free after the first
// success: the (project_id, user_id) primary key makes the losing writer of
// a duplicate-tab race fall back to the existing row.
func (b *Binder) BindAfterAuth(ctx context.Context, userID uuid.UUID, email, pendingToken string) (*BindResult, error) {
	if pendingToken == "" {
		return nil, nil
	}

	code, err := b.tokens.ParsePendingJoin(pendingToken)
	if err != nil {
		slog.Info("ignoring stale pending-join token", "user_id", userID)
		return nil, nil
	}

	// Fresh, authoritative validation; the pre-auth decision is never trusted.
	projectID, err := b.codes.Validate(ctx, code)
	if err != nil {
		if errors.Is(err, clientcode.ErrInvalidCode) || errors.Is(err, clientcode.ErrInvalidFormat) {
			slog.Warn("pending client code no longer valid at bind time", "user_id", userID)
			return nil, nil
		}
		return nil, err
	}

	isAdmin := b.adminEmails[strings.ToLower(email)]

	existing, err := b.members.Get(ctx, projectID, userID)
	if err != nil && !errors.Is(err, member.ErrMemberNotFound) {
		return nil, err
	}
	if existing != nil {
		return b.confirmExisting(ctx, existing, isAdmin)
	}

	role, err := b.roleForNewMember(ctx, projectID, isAdmin)
	if err != nil {
		return nil, err
	}

	m := &member.Member{ProjectID: projectID, UserID: userID, Role: role}
	if err := b.members.Create(ctx, m); err != nil {
		if errors.Is(err, member.ErrAlreadyMember) {
			// Lost the race to a concurrent bind; the stored row wins.
			winner, getErr := b.members.Get(ctx, projectID, userID)
			if getErr != nil {
				return nil, getErr
			}
			return b.confirmExisting(ctx, winner, isAdmin)
		}
		return nil, err
	}

	b.auditor.Record(ctx, &projectID, "member.joined", fmt.Sprintf("%s as %s", userID, role))

	return &BindResult{ProjectID: projectID, Role: role, Joined: true}, nil
}

// confirmExisting returns the existing membership unchanged, except for the
// one permitted role transition: escalating an allow-listed admin upward.
func (b *Binder) confirmExisting(ctx context.Context, m *member.Member, isAdmin bool) (*BindResult, error) {
	role := m.Role
	if isAdmin && role != member.RoleAgencyAdmin {
		if err := b.members.UpdateRole(ctx, m.ProjectID, m.UserID, member.RoleAgencyAdmin); err != nil {
			return nil, err
		}
		role = member.RoleAgencyAdmin
		b.auditor.Record(ctx, &m.ProjectID, "member.promoted", fmt.Sprintf("%s to %s", m.UserID, role))
	}

	return &BindResult{ProjectID: m.ProjectID, Role: role, Joined: false}, nil
}

// roleForNewMember applies the first-joiner rule: allow-listed emails become
// agency_admin, the first client becomes client_admin, everyone after that
// client_member.
func (b *Binder) roleForNewMember(ctx context.Context, projectID uuid.UUID, isAdmin bool) (string, error) {
	if isAdmin {
		return member.RoleAgencyAdmin, nil
	}

	hasAdmin, err := b.members.HasClientAdmin(ctx, projectID)
	if err != nil {
		return "", err
	}
	if hasAdmin {
		return member.RoleClientMember, nil
	}
	return member.RoleClientAdmin, nil
}
