package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/agencykit/portal/internal/api/middleware"
	"github.com/agencykit/portal/internal/api/response"
	"github.com/agencykit/portal/internal/identity"
	"github.com/agencykit/portal/internal/join"
	"github.com/agencykit/portal/internal/token"
)

// PendingJoinCookie carries the signed pending-join token between the
// pre-auth code validation and the post-auth callback.
const PendingJoinCookie = "pending_client_code"

type loginLinkRequest struct {
	Email string `json:"email"`
}

type callbackResponse struct {
	UserID    string  `json:"userId"`
	Email     string  `json:"email"`
	ProjectID *string `json:"projectId,omitempty"`
	Role      *string `json:"role,omitempty"`
}

// AuthHandler handles the passwordless login flow and its callback.
type AuthHandler struct {
	ids     *identity.Service
	binder  *join.Binder
	tokens  *token.Manager
	cookies CookieWriter
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(ids *identity.Service, binder *join.Binder, tokens *token.Manager, cookies CookieWriter) *AuthHandler {
	return &AuthHandler{
		ids:     ids,
		binder:  binder,
		tokens:  tokens,
		cookies: cookies,
	}
}

// LoginLink handles POST /auth/login-link. It always answers 202 for a
// well-formed address so the endpoint cannot be used to enumerate accounts.
func (h *AuthHandler) LoginLink(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var req loginLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		response.Err(w, http.StatusBadRequest, "INVALID_REQUEST", "email is required", requestID)
		return
	}

	if err := h.ids.SendLoginLink(r.Context(), req.Email); err != nil {
		slog.Warn("failed to send login link", "error", err)
	}

	response.Success(w, http.StatusAccepted, map[string]bool{"sent": true}, requestID)
}

// Callback handles GET /auth/callback?token=. It exchanges the emailed
// token for a session, then consumes any pending-join stash. The pending
// cookie never survives the round-trip, whatever the outcome.
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	ident, err := h.ids.ExchangeLoginToken(r.Context(), r.URL.Query().Get("token"))
	if err != nil {
		h.cookies.Clear(w, PendingJoinCookie)
		response.Err(w, http.StatusUnauthorized, "INVALID_LOGIN_TOKEN", "Invalid or expired sign-in link", requestID)
		return
	}

	var pending string
	if c, cerr := r.Cookie(PendingJoinCookie); cerr == nil {
		pending = c.Value
	}

	result, err := h.binder.BindAfterAuth(r.Context(), ident.UserID, ident.Email, pending)
	h.cookies.Clear(w, PendingJoinCookie)
	if err != nil {
		slog.Error("failed to bind pending join", "user_id", ident.UserID, "error", err)
	}

	session, err := h.tokens.IssueSession(ident.UserID, ident.Email)
	if err != nil {
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to establish session", requestID)
		return
	}
	h.cookies.Set(w, middleware.SessionCookie, session, int(token.SessionTTL.Seconds()))

	resp := callbackResponse{UserID: ident.UserID.String(), Email: ident.Email}
	if result != nil {
		pin, perr := h.tokens.IssueProjectPin(result.ProjectID)
		if perr == nil {
			h.cookies.Set(w, middleware.PinCookie, pin, int(token.ProjectPinTTL.Seconds()))
		}
		projectID := result.ProjectID.String()
		role := result.Role
		resp.ProjectID = &projectID
		resp.Role = &role
	}

	response.Success(w, http.StatusOK, resp, requestID)
}

// Logout handles POST /auth/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.cookies.Clear(w, middleware.SessionCookie)
	h.cookies.Clear(w, middleware.PinCookie)
	h.cookies.Clear(w, PendingJoinCookie)
	response.NoContent(w)
}
