package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agencykit/portal/internal/api/middleware"
	"github.com/agencykit/portal/internal/audit"
	"github.com/agencykit/portal/internal/identity"
	"github.com/agencykit/portal/internal/token"
)

func sessionHandler(t *testing.T, tokens *token.Manager, captured **identity.Identity) http.Handler {
	t.Helper()
	return middleware.Session(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*captured = middleware.GetIdentity(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
}

func TestSession_ValidCookie(t *testing.T) {
	tokens := token.NewManager("test-secret")
	userID := uuid.New()
	raw, err := tokens.IssueSession(userID, "user@example.com")
	require.NoError(t, err)

	var captured *identity.Identity
	handler := sessionHandler(t, tokens, &captured)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: raw})
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, captured)
	assert.Equal(t, userID, captured.UserID)
	assert.Equal(t, "user@example.com", captured.Email)
}

func TestSession_BearerFallback(t *testing.T) {
	tokens := token.NewManager("test-secret")
	raw, err := tokens.IssueSession(uuid.New(), "user@example.com")
	require.NoError(t, err)

	var captured *identity.Identity
	handler := sessionHandler(t, tokens, &captured)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotNil(t, captured)
}

func TestSession_MissingCredentials(t *testing.T) {
	tokens := token.NewManager("test-secret")

	var captured *identity.Identity
	handler := sessionHandler(t, tokens, &captured)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Nil(t, captured)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	errObj, ok := body["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "UNAUTHORIZED", errObj["code"])
}

func TestSession_BadToken(t *testing.T) {
	tokens := token.NewManager("test-secret")

	var captured *identity.Identity
	handler := sessionHandler(t, tokens, &captured)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: "garbage"})
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Nil(t, captured)
}

func TestSession_SetsAuditActor(t *testing.T) {
	tokens := token.NewManager("test-secret")
	raw, err := tokens.IssueSession(uuid.New(), "user@example.com")
	require.NoError(t, err)

	var actor string
	handler := middleware.Session(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor = audit.ActorFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: raw})
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "user@example.com", actor)
}
