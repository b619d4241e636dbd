package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/agencykit/portal/internal/api/middleware"
	"github.com/agencykit/portal/internal/api/response"
	"github.com/agencykit/portal/internal/api/validation"
	"github.com/agencykit/portal/internal/audit"
	"github.com/agencykit/portal/internal/website"
)

type addWebsiteURLRequest struct {
	URL   string `json:"url"`
	Label string `json:"label"`
}

type websiteURLResponse struct {
	ID        string `json:"id"`
	ProjectID string `json:"projectId"`
	URL       string `json:"url"`
	Label     string `json:"label"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// WebsiteHandler manages a project's website URLs. Members read them; only
// agency admins write, which the route layer enforces.
type WebsiteHandler struct {
	urls    website.Repository
	auditor audit.Recorder
}

// NewWebsiteHandler creates a new WebsiteHandler.
func NewWebsiteHandler(urls website.Repository, auditor audit.Recorder) *WebsiteHandler {
	return &WebsiteHandler{urls: urls, auditor: auditor}
}

// Create handles POST /projects/{projectID}/website-urls.
func (h *WebsiteHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	ident := middleware.GetIdentity(r.Context())

	projectID, err := uuid.Parse(chi.URLParam(r, "projectID"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "Invalid project id", requestID)
		return
	}

	var req addWebsiteURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body", requestID)
		return
	}

	validationErrs := validation.ValidateAddWebsiteURLRequest(validation.AddWebsiteURLRequest{
		URL:   req.URL,
		Label: req.Label,
	})
	if len(validationErrs) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request", validationErrs, requestID)
		return
	}

	u := &website.URL{
		ProjectID: projectID,
		Address:   strings.TrimSpace(req.URL),
		Label:     strings.TrimSpace(req.Label),
		CreatedBy: &ident.UserID,
	}
	if err := h.urls.Create(r.Context(), u); err != nil {
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to add website URL", requestID)
		return
	}

	h.auditor.Record(r.Context(), &projectID, "website_url.added", u.ID.String())

	response.Success(w, http.StatusCreated, toWebsiteURLResponse(u), requestID)
}

// List handles GET /projects/{projectID}/website-urls.
func (h *WebsiteHandler) List(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	projectID, err := uuid.Parse(chi.URLParam(r, "projectID"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "Invalid project id", requestID)
		return
	}

	urls, err := h.urls.ListByProject(r.Context(), projectID)
	if err != nil {
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list website URLs", requestID)
		return
	}

	out := make([]websiteURLResponse, 0, len(urls))
	for i := range urls {
		out = append(out, toWebsiteURLResponse(&urls[i]))
	}

	response.Success(w, http.StatusOK, out, requestID)
}

// Delete handles DELETE /projects/{projectID}/website-urls/{urlID}.
func (h *WebsiteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	projectID, err := uuid.Parse(chi.URLParam(r, "projectID"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "Invalid project id", requestID)
		return
	}
	urlID, err := uuid.Parse(chi.URLParam(r, "urlID"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "Invalid url id", requestID)
		return
	}

	if err := h.urls.Delete(r.Context(), projectID, urlID); err != nil {
		if errors.Is(err, website.ErrURLNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Website URL not found", requestID)
			return
		}
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete website URL", requestID)
		return
	}

	h.auditor.Record(r.Context(), &projectID, "website_url.deleted", urlID.String())

	response.NoContent(w)
}

func toWebsiteURLResponse(u *website.URL) websiteURLResponse {
	return websiteURLResponse{
		ID:        u.ID.String(),
		ProjectID: u.ProjectID.String(),
		URL:       u.Address,
		Label:     u.Label,
		CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: u.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
