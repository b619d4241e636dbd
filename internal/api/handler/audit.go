package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/agencykit/portal/internal/api/middleware"
	"github.com/agencykit/portal/internal/api/response"
	"github.com/agencykit/portal/internal/audit"
)

type auditEntryResponse struct {
	ID        string `json:"id"`
	Actor     string `json:"actor"`
	Action    string `json:"action"`
	Subject   string `json:"subject"`
	CreatedAt string `json:"createdAt"`
}

// AuditHandler exposes a project's audit trail to agency admins.
type AuditHandler struct {
	auditor audit.Recorder
}

// NewAuditHandler creates a new AuditHandler.
func NewAuditHandler(auditor audit.Recorder) *AuditHandler {
	return &AuditHandler{auditor: auditor}
}

// List handles GET /projects/{projectID}/audit.
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	projectID, err := uuid.Parse(chi.URLParam(r, "projectID"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "Invalid project id", requestID)
		return
	}

	entries, err := h.auditor.ListByProject(r.Context(), projectID)
	if err != nil {
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list audit entries", requestID)
		return
	}

	out := make([]auditEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, auditEntryResponse{
			ID:        e.ID.String(),
			Actor:     e.Actor,
			Action:    e.Action,
			Subject:   e.Subject,
			CreatedAt: e.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	response.Success(w, http.StatusOK, out, requestID)
}
