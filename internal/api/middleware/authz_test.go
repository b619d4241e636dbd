package middleware_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agencykit/portal/internal/api/middleware"
	"github.com/agencykit/portal/internal/member"
	"github.com/agencykit/portal/internal/token"
)

// stubMemberRepo returns a fixed membership for one (project, user) pair.
type stubMemberRepo struct {
	projectID uuid.UUID
	userID    uuid.UUID
	role      string
}

func (s *stubMemberRepo) Get(_ context.Context, projectID, userID uuid.UUID) (*member.Member, error) {
	if projectID == s.projectID && userID == s.userID {
		return &member.Member{ProjectID: projectID, UserID: userID, Role: s.role}, nil
	}
	return nil, member.ErrMemberNotFound
}

func (s *stubMemberRepo) Create(context.Context, *member.Member) error { return nil }
func (s *stubMemberRepo) ListByProject(context.Context, uuid.UUID) ([]member.Member, error) {
	return nil, nil
}
func (s *stubMemberRepo) ListByUser(context.Context, uuid.UUID) ([]member.Member, error) {
	return nil, nil
}
func (s *stubMemberRepo) HasClientAdmin(context.Context, uuid.UUID) (bool, error) {
	return false, nil
}
func (s *stubMemberRepo) UpdateRole(context.Context, uuid.UUID, uuid.UUID, string) error {
	return nil
}

type authzFixture struct {
	router    *chi.Mux
	tokens    *token.Manager
	session   string
	projectID uuid.UUID
	captured  *member.Member
}

func setupAuthz(t *testing.T, role string, adminOnly bool) *authzFixture {
	t.Helper()

	tokens := token.NewManager("test-secret")
	projectID := uuid.New()
	userID := uuid.New()
	repo := &stubMemberRepo{projectID: projectID, userID: userID, role: role}

	session, err := tokens.IssueSession(userID, "user@example.com")
	require.NoError(t, err)

	fx := &authzFixture{tokens: tokens, session: session, projectID: projectID}

	r := chi.NewRouter()
	r.Route("/projects/{projectID}", func(r chi.Router) {
		r.Use(middleware.Session(tokens))
		r.Use(middleware.RequireProjectMember(repo, tokens))
		if adminOnly {
			r.Use(middleware.RequireAgencyAdmin())
		}
		r.Get("/", func(w http.ResponseWriter, req *http.Request) {
			fx.captured = middleware.GetMember(req.Context())
			w.WriteHeader(http.StatusOK)
		})
	})
	fx.router = r

	return fx
}

func (fx *authzFixture) get(t *testing.T, projectID uuid.UUID, extra ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/projects/"+projectID.String()+"/", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: fx.session})
	for _, c := range extra {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	fx.router.ServeHTTP(w, req)
	return w
}

func TestRequireProjectMember_MemberPasses(t *testing.T) {
	fx := setupAuthz(t, member.RoleClientMember, false)

	w := fx.get(t, fx.projectID)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, fx.captured)
	assert.Equal(t, member.RoleClientMember, fx.captured.Role)
}

func TestRequireProjectMember_NonMemberForbidden(t *testing.T) {
	fx := setupAuthz(t, member.RoleClientMember, false)

	w := fx.get(t, uuid.New())

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Nil(t, fx.captured)
}

func TestRequireProjectMember_PinMismatchConflicts(t *testing.T) {
	fx := setupAuthz(t, member.RoleClientMember, false)

	otherProject := uuid.New()
	pin, err := fx.tokens.IssueProjectPin(otherProject)
	require.NoError(t, err)

	w := fx.get(t, fx.projectID, &http.Cookie{Name: middleware.PinCookie, Value: pin})

	assert.Equal(t, http.StatusConflict, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	errObj := body["error"].(map[string]any)
	assert.Equal(t, "PROJECT_PINNED", errObj["code"])
	details := errObj["details"].(map[string]any)
	assert.Equal(t, otherProject.String(), details["pinnedProjectId"])
}

func TestRequireProjectMember_MatchingPinPasses(t *testing.T) {
	fx := setupAuthz(t, member.RoleClientMember, false)

	pin, err := fx.tokens.IssueProjectPin(fx.projectID)
	require.NoError(t, err)

	w := fx.get(t, fx.projectID, &http.Cookie{Name: middleware.PinCookie, Value: pin})

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireProjectMember_GarbagePinIgnored(t *testing.T) {
	fx := setupAuthz(t, member.RoleClientMember, false)

	// An unparseable pin is dropped, not fatal; membership still decides.
	w := fx.get(t, fx.projectID, &http.Cookie{Name: middleware.PinCookie, Value: "garbage"})

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireAgencyAdmin_AdminPasses(t *testing.T) {
	fx := setupAuthz(t, member.RoleAgencyAdmin, true)

	w := fx.get(t, fx.projectID)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireAgencyAdmin_ClientAdminForbidden(t *testing.T) {
	fx := setupAuthz(t, member.RoleClientAdmin, true)

	w := fx.get(t, fx.projectID)

	assert.Equal(t, http.StatusForbidden, w.Code)
}
