package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agencykit/portal/internal/api/handler"
	"github.com/agencykit/portal/internal/api/middleware"
	"github.com/agencykit/portal/internal/audit"
	"github.com/agencykit/portal/internal/clientcode"
	"github.com/agencykit/portal/internal/member"
	"github.com/agencykit/portal/internal/token"
)

type codeFixture struct {
	router    *chi.Mux
	codes     *clientcode.Service
	members   *memMemberRepo
	tokens    *token.Manager
	projectID uuid.UUID
	adminID   uuid.UUID
}

func setupCodeRoutes(t *testing.T) *codeFixture {
	t.Helper()

	codes := clientcode.NewService(newMemCodeRepo(), clientcode.NewHasher("test-secret"), audit.NopRecorder{})
	members := newMemMemberRepo()
	tokens := token.NewManager("test-session-secret")

	projectID := uuid.New()
	adminID := uuid.New()
	require.NoError(t, members.Create(context.Background(), &member.Member{
		ProjectID: projectID, UserID: adminID, Role: member.RoleAgencyAdmin,
	}))

	codeHandler := handler.NewCodeHandler(codes, members)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Group(func(r chi.Router) {
		r.Use(middleware.Session(tokens))

		r.Route("/projects/{projectID}", func(r chi.Router) {
			r.Use(middleware.RequireProjectMember(members, tokens))
			r.Use(middleware.RequireAgencyAdmin())
			r.Get("/codes", codeHandler.List)
			r.Post("/codes", codeHandler.Issue)
		})
		r.Route("/codes/{codeID}", func(r chi.Router) {
			r.Post("/rotate", codeHandler.Rotate)
			r.Post("/deactivate", codeHandler.Deactivate)
			r.Delete("/", codeHandler.Delete)
		})
	})

	return &codeFixture{
		router:    r,
		codes:     codes,
		members:   members,
		tokens:    tokens,
		projectID: projectID,
		adminID:   adminID,
	}
}

func (fx *codeFixture) do(t *testing.T, userID uuid.UUID, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	session, err := fx.tokens.IssueSession(userID, "someone@example.com")
	require.NoError(t, err)

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: session})
	w := httptest.NewRecorder()
	fx.router.ServeHTTP(w, req)
	return w
}

func TestIssueCode_ReturnsPlaintextOnce(t *testing.T) {
	fx := setupCodeRoutes(t)

	w := fx.do(t, fx.adminID, http.MethodPost, "/projects/"+fx.projectID.String()+"/codes",
		`{"label":"Acme kickoff","clientEmail":"client@acme.example"}`)

	require.Equal(t, http.StatusCreated, w.Code)
	data := decodeEnvelope(t, w)["data"].(map[string]any)
	code := data["code"].(string)
	assert.Len(t, code, clientcode.CodeLength)
	assert.Equal(t, "Acme kickoff", data["label"])

	// Listing never exposes the plaintext again.
	w = fx.do(t, fx.adminID, http.MethodGet, "/projects/"+fx.projectID.String()+"/codes", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), code)
}

func TestIssueCode_RequiresAgencyAdmin(t *testing.T) {
	fx := setupCodeRoutes(t)

	clientID := uuid.New()
	require.NoError(t, fx.members.Create(context.Background(), &member.Member{
		ProjectID: fx.projectID, UserID: clientID, Role: member.RoleClientAdmin,
	}))

	w := fx.do(t, clientID, http.MethodPost, "/projects/"+fx.projectID.String()+"/codes",
		`{"label":"sneaky"}`)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestIssueCode_ValidationError(t *testing.T) {
	fx := setupCodeRoutes(t)

	w := fx.do(t, fx.adminID, http.MethodPost, "/projects/"+fx.projectID.String()+"/codes",
		`{"label":"x","clientEmail":"not-an-address"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	errObj := decodeEnvelope(t, w)["error"].(map[string]any)
	assert.Equal(t, "VALIDATION_ERROR", errObj["code"])
}

func TestRotateCode_AdminOfOwningProject(t *testing.T) {
	fx := setupCodeRoutes(t)

	plaintext, code, err := fx.codes.Issue(context.Background(), fx.projectID, clientcode.Metadata{})
	require.NoError(t, err)

	w := fx.do(t, fx.adminID, http.MethodPost, "/codes/"+code.ID.String()+"/rotate", "")
	require.Equal(t, http.StatusOK, w.Code)

	data := decodeEnvelope(t, w)["data"].(map[string]any)
	rotated := data["code"].(string)
	assert.NotEqual(t, plaintext, rotated)

	_, err = fx.codes.Validate(context.Background(), plaintext)
	assert.ErrorIs(t, err, clientcode.ErrInvalidCode)
}

func TestRotateCode_OutsiderForbidden(t *testing.T) {
	fx := setupCodeRoutes(t)

	_, code, err := fx.codes.Issue(context.Background(), fx.projectID, clientcode.Metadata{})
	require.NoError(t, err)

	// An agency_admin of a different project has no standing here.
	otherAdmin := uuid.New()
	require.NoError(t, fx.members.Create(context.Background(), &member.Member{
		ProjectID: uuid.New(), UserID: otherAdmin, Role: member.RoleAgencyAdmin,
	}))

	w := fx.do(t, otherAdmin, http.MethodPost, "/codes/"+code.ID.String()+"/rotate", "")

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestDeactivateAndDeleteCode(t *testing.T) {
	fx := setupCodeRoutes(t)

	plaintext, code, err := fx.codes.Issue(context.Background(), fx.projectID, clientcode.Metadata{})
	require.NoError(t, err)

	w := fx.do(t, fx.adminID, http.MethodPost, "/codes/"+code.ID.String()+"/deactivate", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	_, err = fx.codes.Validate(context.Background(), plaintext)
	assert.ErrorIs(t, err, clientcode.ErrInvalidCode)

	w = fx.do(t, fx.adminID, http.MethodDelete, "/codes/"+code.ID.String()+"/", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	// Operations on a deleted code 404.
	w = fx.do(t, fx.adminID, http.MethodPost, "/codes/"+code.ID.String()+"/rotate", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
