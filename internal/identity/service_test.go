package identity_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agencykit/portal/internal/identity"
)

const testBcryptCost = 4 // low cost for fast tests

type fakeProfileRepo struct {
	profiles map[string]*identity.Profile
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: make(map[string]*identity.Profile)}
}

func (f *fakeProfileRepo) GetByID(_ context.Context, id uuid.UUID) (*identity.Profile, error) {
	for _, p := range f.profiles {
		if p.ID == id {
			copied := *p
			return &copied, nil
		}
	}
	return nil, identity.ErrProfileNotFound
}

func (f *fakeProfileRepo) GetByEmail(_ context.Context, email string) (*identity.Profile, error) {
	p, ok := f.profiles[email]
	if !ok {
		return nil, identity.ErrProfileNotFound
	}
	copied := *p
	return &copied, nil
}

func (f *fakeProfileRepo) UpsertByEmail(_ context.Context, email string) (*identity.Profile, error) {
	if p, ok := f.profiles[email]; ok {
		copied := *p
		return &copied, nil
	}
	p := &identity.Profile{ID: uuid.New(), Email: email}
	f.profiles[email] = p
	copied := *p
	return &copied, nil
}

type fakeTokenRepo struct {
	tokens map[uuid.UUID]*identity.LoginToken
	now    func() time.Time
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{
		tokens: make(map[uuid.UUID]*identity.LoginToken),
		now:    time.Now,
	}
}

func (f *fakeTokenRepo) Create(_ context.Context, t *identity.LoginToken) error {
	t.ID = uuid.New()
	stored := *t
	f.tokens[t.ID] = &stored
	return nil
}

func (f *fakeTokenRepo) FindLiveByPrefix(_ context.Context, prefix string) ([]identity.LoginToken, error) {
	out := []identity.LoginToken{}
	for _, t := range f.tokens {
		if t.Prefix == prefix && t.ConsumedAt == nil && t.ExpiresAt.After(f.now()) {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f *fakeTokenRepo) Consume(_ context.Context, id uuid.UUID) (bool, error) {
	t, ok := f.tokens[id]
	if !ok || t.ConsumedAt != nil {
		return false, nil
	}
	now := f.now()
	t.ConsumedAt = &now
	return true, nil
}

// captureMailer records the last link instead of sending it.
type captureMailer struct {
	to   string
	link string
}

func (m *captureMailer) SendLoginLink(_ context.Context, to, link string) error {
	m.to = to
	m.link = link
	return nil
}

func setupIdentityService(t *testing.T) (*identity.Service, *fakeTokenRepo, *captureMailer) {
	t.Helper()

	tokens := newFakeTokenRepo()
	mailer := &captureMailer{}
	svc := identity.NewService(newFakeProfileRepo(), tokens, mailer, "https://portal.example", testBcryptCost)
	return svc, tokens, mailer
}

// rawTokenFromLink extracts the token query parameter from the mailed link.
func rawTokenFromLink(t *testing.T, link string) string {
	t.Helper()
	i := strings.Index(link, "token=")
	require.GreaterOrEqual(t, i, 0, "link should carry a token parameter")
	return link[i+len("token="):]
}

func TestSendLoginLink_MailsCallbackURL(t *testing.T) {
	svc, tokens, mailer := setupIdentityService(t)

	err := svc.SendLoginLink(context.Background(), "  User@Example.com ")
	require.NoError(t, err)

	assert.Equal(t, "user@example.com", mailer.to, "address is normalized before sending")
	assert.True(t, strings.HasPrefix(mailer.link, "https://portal.example/auth/callback?token=lgn_"))

	require.Len(t, tokens.tokens, 1)
	for _, stored := range tokens.tokens {
		assert.Equal(t, "user@example.com", stored.Email)
		assert.NotContains(t, mailer.link, stored.TokenHash, "only the hash is stored, only the raw is mailed")
	}
}

func TestSendLoginLink_RejectsBadAddress(t *testing.T) {
	svc, tokens, _ := setupIdentityService(t)

	err := svc.SendLoginLink(context.Background(), "not-an-address")
	assert.Error(t, err)
	assert.Empty(t, tokens.tokens)
}

func TestExchangeLoginToken_RoundTrip(t *testing.T) {
	svc, _, mailer := setupIdentityService(t)

	require.NoError(t, svc.SendLoginLink(context.Background(), "user@example.com"))
	raw := rawTokenFromLink(t, mailer.link)

	ident, err := svc.ExchangeLoginToken(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", ident.Email)
	assert.NotEqual(t, uuid.Nil, ident.UserID)
}

func TestExchangeLoginToken_SingleUse(t *testing.T) {
	svc, _, mailer := setupIdentityService(t)

	require.NoError(t, svc.SendLoginLink(context.Background(), "user@example.com"))
	raw := rawTokenFromLink(t, mailer.link)

	_, err := svc.ExchangeLoginToken(context.Background(), raw)
	require.NoError(t, err)

	_, err = svc.ExchangeLoginToken(context.Background(), raw)
	assert.ErrorIs(t, err, identity.ErrInvalidLoginToken)
}

func TestExchangeLoginToken_Expired(t *testing.T) {
	svc, tokens, mailer := setupIdentityService(t)

	require.NoError(t, svc.SendLoginLink(context.Background(), "user@example.com"))
	raw := rawTokenFromLink(t, mailer.link)

	tokens.now = func() time.Time { return time.Now().Add(time.Hour) }

	_, err := svc.ExchangeLoginToken(context.Background(), raw)
	assert.ErrorIs(t, err, identity.ErrInvalidLoginToken)
}

func TestExchangeLoginToken_Garbage(t *testing.T) {
	svc, _, _ := setupIdentityService(t)

	_, err := svc.ExchangeLoginToken(context.Background(), "short")
	assert.ErrorIs(t, err, identity.ErrInvalidLoginToken)

	_, err = svc.ExchangeLoginToken(context.Background(), "lgn_definitely-not-a-real-token-value")
	assert.ErrorIs(t, err, identity.ErrInvalidLoginToken)
}

func TestExchangeLoginToken_ReturnsSameProfile(t *testing.T) {
	svc, _, mailer := setupIdentityService(t)

	require.NoError(t, svc.SendLoginLink(context.Background(), "user@example.com"))
	first, err := svc.ExchangeLoginToken(context.Background(), rawTokenFromLink(t, mailer.link))
	require.NoError(t, err)

	require.NoError(t, svc.SendLoginLink(context.Background(), "user@example.com"))
	second, err := svc.ExchangeLoginToken(context.Background(), rawTokenFromLink(t, mailer.link))
	require.NoError(t, err)

	assert.Equal(t, first.UserID, second.UserID, "repeat logins resolve to one profile")
}
