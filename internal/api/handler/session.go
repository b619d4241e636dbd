package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/agencykit/portal/internal/api/middleware"
	"github.com/agencykit/portal/internal/api/response"
	"github.com/agencykit/portal/internal/member"
	"github.com/agencykit/portal/internal/token"
)

type setActiveProjectRequest struct {
	ProjectID string `json:"projectId"`
}

// SessionHandler handles the active-project pin.
type SessionHandler struct {
	members member.Repository
	tokens  *token.Manager
	cookies CookieWriter
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(members member.Repository, tokens *token.Manager, cookies CookieWriter) *SessionHandler {
	return &SessionHandler{members: members, tokens: tokens, cookies: cookies}
}

// SetActiveProject handles PUT /session/active-project. Membership is
// verified before pinning; the pin itself grants nothing.
func (h *SessionHandler) SetActiveProject(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	ident := middleware.GetIdentity(r.Context())

	var req setActiveProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProjectID == "" {
		response.Err(w, http.StatusBadRequest, "INVALID_REQUEST", "projectId is required", requestID)
		return
	}

	projectID, err := uuid.Parse(req.ProjectID)
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "Invalid project id", requestID)
		return
	}

	if _, err := h.members.Get(r.Context(), projectID, ident.UserID); err != nil {
		if errors.Is(err, member.ErrMemberNotFound) {
			response.Err(w, http.StatusForbidden, "FORBIDDEN", "Not a member of this project", requestID)
			return
		}
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Membership check failed", requestID)
		return
	}

	pin, err := h.tokens.IssueProjectPin(projectID)
	if err != nil {
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to pin project", requestID)
		return
	}
	h.cookies.Set(w, middleware.PinCookie, pin, int(token.ProjectPinTTL.Seconds()))

	response.Success(w, http.StatusOK, map[string]string{"projectId": projectID.String()}, requestID)
}

// ClearActiveProject handles DELETE /session/active-project, releasing the pin.
func (h *SessionHandler) ClearActiveProject(w http.ResponseWriter, r *http.Request) {
	h.cookies.Clear(w, middleware.PinCookie)
	response.NoContent(w)
}
