package handler_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/agencykit/portal/internal/clientcode"
	"github.com/agencykit/portal/internal/identity"
	"github.com/agencykit/portal/internal/member"
)

// In-memory fakes shared by the handler tests. They enforce the same
// constraints the real tables do (unique hash, membership primary key,
// single-use login tokens) so handlers are exercised against honest storage.

type memCodeRepo struct {
	codes map[uuid.UUID]*clientcode.Code
}

func newMemCodeRepo() *memCodeRepo {
	return &memCodeRepo{codes: make(map[uuid.UUID]*clientcode.Code)}
}

func (f *memCodeRepo) Insert(_ context.Context, code *clientcode.Code) error {
	for _, existing := range f.codes {
		if existing.CodeHash == code.CodeHash && existing.DeletedAt == nil {
			return clientcode.ErrDuplicateHash
		}
	}
	code.ID = uuid.New()
	stored := *code
	f.codes[code.ID] = &stored
	return nil
}

func (f *memCodeRepo) GetByID(_ context.Context, id uuid.UUID) (*clientcode.Code, error) {
	code, ok := f.codes[id]
	if !ok || code.DeletedAt != nil {
		return nil, clientcode.ErrCodeNotFound
	}
	copied := *code
	return &copied, nil
}

func (f *memCodeRepo) FindActiveByHash(_ context.Context, hash string) (*clientcode.Code, error) {
	for _, code := range f.codes {
		if code.CodeHash == hash && code.IsActive && code.DeletedAt == nil {
			copied := *code
			return &copied, nil
		}
	}
	return nil, clientcode.ErrInvalidCode
}

func (f *memCodeRepo) ListByProject(_ context.Context, projectID uuid.UUID) ([]clientcode.Code, error) {
	out := []clientcode.Code{}
	for _, code := range f.codes {
		if code.ProjectID == projectID && code.DeletedAt == nil {
			out = append(out, *code)
		}
	}
	return out, nil
}

func (f *memCodeRepo) UpdateHash(_ context.Context, id uuid.UUID, hash string) error {
	code, ok := f.codes[id]
	if !ok || code.DeletedAt != nil {
		return clientcode.ErrCodeNotFound
	}
	code.CodeHash = hash
	return nil
}

func (f *memCodeRepo) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	code, ok := f.codes[id]
	if !ok || code.DeletedAt != nil {
		return clientcode.ErrCodeNotFound
	}
	code.IsActive = active
	return nil
}

func (f *memCodeRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	code, ok := f.codes[id]
	if !ok || code.DeletedAt != nil {
		return clientcode.ErrCodeNotFound
	}
	now := time.Now()
	code.DeletedAt = &now
	return nil
}

func (f *memCodeRepo) UpdateMetadata(_ context.Context, id uuid.UUID, meta clientcode.Metadata) error {
	code, ok := f.codes[id]
	if !ok || code.DeletedAt != nil {
		return clientcode.ErrCodeNotFound
	}
	if meta.Label != nil {
		code.Label = *meta.Label
	}
	if meta.ClientName != nil {
		code.ClientName = meta.ClientName
	}
	if meta.ClientEmail != nil {
		code.ClientEmail = meta.ClientEmail
	}
	if meta.Notes != nil {
		code.Notes = meta.Notes
	}
	return nil
}

func (f *memCodeRepo) CandidateInUse(_ context.Context, _, hash string, excludeCode, _ uuid.UUID) (bool, error) {
	for id, code := range f.codes {
		if id != excludeCode && code.CodeHash == hash && code.DeletedAt == nil {
			return true, nil
		}
	}
	return false, nil
}

func (f *memCodeRepo) FindProjectByCodeHash(context.Context, string) (uuid.UUID, error) {
	return uuid.Nil, clientcode.ErrInvalidCode
}

func (f *memCodeRepo) FindProjectByPlaintext(context.Context, string) (uuid.UUID, error) {
	return uuid.Nil, clientcode.ErrInvalidCode
}

func (f *memCodeRepo) UpgradeLegacyRow(context.Context, uuid.UUID, string) error {
	return clientcode.ErrCodeNotFound
}

func (f *memCodeRepo) ReplaceProjectCode(context.Context, uuid.UUID, string, string) error {
	return nil
}

type membershipKey struct {
	projectID uuid.UUID
	userID    uuid.UUID
}

type memMemberRepo struct {
	members map[membershipKey]*member.Member
}

func newMemMemberRepo() *memMemberRepo {
	return &memMemberRepo{members: make(map[membershipKey]*member.Member)}
}

func (f *memMemberRepo) Create(_ context.Context, m *member.Member) error {
	key := membershipKey{m.ProjectID, m.UserID}
	if _, exists := f.members[key]; exists {
		return member.ErrAlreadyMember
	}
	stored := *m
	f.members[key] = &stored
	return nil
}

func (f *memMemberRepo) Get(_ context.Context, projectID, userID uuid.UUID) (*member.Member, error) {
	m, ok := f.members[membershipKey{projectID, userID}]
	if !ok {
		return nil, member.ErrMemberNotFound
	}
	copied := *m
	return &copied, nil
}

func (f *memMemberRepo) ListByProject(_ context.Context, projectID uuid.UUID) ([]member.Member, error) {
	out := []member.Member{}
	for key, m := range f.members {
		if key.projectID == projectID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (f *memMemberRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]member.Member, error) {
	out := []member.Member{}
	for key, m := range f.members {
		if key.userID == userID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (f *memMemberRepo) HasClientAdmin(_ context.Context, projectID uuid.UUID) (bool, error) {
	for key, m := range f.members {
		if key.projectID == projectID && m.Role == member.RoleClientAdmin {
			return true, nil
		}
	}
	return false, nil
}

func (f *memMemberRepo) UpdateRole(_ context.Context, projectID, userID uuid.UUID, role string) error {
	m, ok := f.members[membershipKey{projectID, userID}]
	if !ok {
		return member.ErrMemberNotFound
	}
	m.Role = role
	return nil
}

type memProfileRepo struct {
	profiles map[string]*identity.Profile
}

func newMemProfileRepo() *memProfileRepo {
	return &memProfileRepo{profiles: make(map[string]*identity.Profile)}
}

func (f *memProfileRepo) GetByID(_ context.Context, id uuid.UUID) (*identity.Profile, error) {
	for _, p := range f.profiles {
		if p.ID == id {
			copied := *p
			return &copied, nil
		}
	}
	return nil, identity.ErrProfileNotFound
}

func (f *memProfileRepo) GetByEmail(_ context.Context, email string) (*identity.Profile, error) {
	p, ok := f.profiles[email]
	if !ok {
		return nil, identity.ErrProfileNotFound
	}
	copied := *p
	return &copied, nil
}

func (f *memProfileRepo) UpsertByEmail(_ context.Context, email string) (*identity.Profile, error) {
	if p, ok := f.profiles[email]; ok {
		copied := *p
		return &copied, nil
	}
	p := &identity.Profile{ID: uuid.New(), Email: email}
	f.profiles[email] = p
	copied := *p
	return &copied, nil
}

type memTokenRepo struct {
	tokens map[uuid.UUID]*identity.LoginToken
}

func newMemTokenRepo() *memTokenRepo {
	return &memTokenRepo{tokens: make(map[uuid.UUID]*identity.LoginToken)}
}

func (f *memTokenRepo) Create(_ context.Context, t *identity.LoginToken) error {
	t.ID = uuid.New()
	stored := *t
	f.tokens[t.ID] = &stored
	return nil
}

func (f *memTokenRepo) FindLiveByPrefix(_ context.Context, prefix string) ([]identity.LoginToken, error) {
	out := []identity.LoginToken{}
	for _, t := range f.tokens {
		if t.Prefix == prefix && t.ConsumedAt == nil && t.ExpiresAt.After(time.Now()) {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f *memTokenRepo) Consume(_ context.Context, id uuid.UUID) (bool, error) {
	t, ok := f.tokens[id]
	if !ok || t.ConsumedAt != nil {
		return false, nil
	}
	now := time.Now()
	t.ConsumedAt = &now
	return true, nil
}

// linkMailer records the last mailed link.
type linkMailer struct {
	link string
}

func (m *linkMailer) SendLoginLink(_ context.Context, _, link string) error {
	m.link = link
	return nil
}

// decodeEnvelope unmarshals a response body into the standard envelope shape.
func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}
