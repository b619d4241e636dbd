package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/agencykit/portal/internal/api/middleware"
	"github.com/agencykit/portal/internal/api/response"
	"github.com/agencykit/portal/internal/api/validation"
	"github.com/agencykit/portal/internal/clientcode"
	"github.com/agencykit/portal/internal/member"
)

type issueCodeRequest struct {
	Label       string `json:"label"`
	ClientName  string `json:"clientName"`
	ClientEmail string `json:"clientEmail"`
	Notes       string `json:"notes"`
}

type updateCodeRequest struct {
	Label       *string `json:"label"`
	ClientName  *string `json:"clientName"`
	ClientEmail *string `json:"clientEmail"`
	Notes       *string `json:"notes"`
}

type codeResponse struct {
	ID            string  `json:"id"`
	ProjectID     string  `json:"projectId"`
	Label         string  `json:"label"`
	ClientName    *string `json:"clientName,omitempty"`
	ClientEmail   *string `json:"clientEmail,omitempty"`
	Notes         *string `json:"notes,omitempty"`
	IsActive      bool    `json:"isActive"`
	CreatedAt     string  `json:"createdAt"`
	LastRotatedAt *string `json:"lastRotatedAt,omitempty"`
}

type issuedCodeResponse struct {
	codeResponse
	// Code is the plaintext, present exactly once in this response and
	// never retrievable again.
	Code string `json:"code"`
}

type rotatedCodeResponse struct {
	Code string `json:"code"`
}

// CodeHandler handles client-code administration endpoints. Project-scoped
// routes are gated agency_admin by middleware; code-id routes resolve the
// owning project first and check the caller's role against it.
type CodeHandler struct {
	codes   *clientcode.Service
	members member.Repository
}

// NewCodeHandler creates a new CodeHandler.
func NewCodeHandler(codes *clientcode.Service, members member.Repository) *CodeHandler {
	return &CodeHandler{codes: codes, members: members}
}

// Issue handles POST /projects/{projectID}/codes.
func (h *CodeHandler) Issue(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	projectID, err := uuid.Parse(chi.URLParam(r, "projectID"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "Invalid project id", requestID)
		return
	}

	var req issueCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body", requestID)
		return
	}

	validationErrs := validation.ValidateIssueCodeRequest(validation.IssueCodeRequest{
		Label:       req.Label,
		ClientEmail: req.ClientEmail,
	})
	if len(validationErrs) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request", validationErrs, requestID)
		return
	}

	meta := clientcode.Metadata{Label: &req.Label}
	if req.ClientName != "" {
		meta.ClientName = &req.ClientName
	}
	if req.ClientEmail != "" {
		meta.ClientEmail = &req.ClientEmail
	}
	if req.Notes != "" {
		meta.Notes = &req.Notes
	}

	plaintext, code, err := h.codes.Issue(r.Context(), projectID, meta)
	if err != nil {
		if errors.Is(err, clientcode.ErrCodeSpaceExhausted) {
			response.Err(w, http.StatusServiceUnavailable, "CODE_SPACE_EXHAUSTED", "Could not generate a unique code", requestID)
			return
		}
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to issue code", requestID)
		return
	}

	response.Success(w, http.StatusCreated, issuedCodeResponse{
		codeResponse: toCodeResponse(code),
		Code:         plaintext,
	}, requestID)
}

// List handles GET /projects/{projectID}/codes. Metadata only; plaintext
// codes are not stored and cannot be listed.
func (h *CodeHandler) List(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	projectID, err := uuid.Parse(chi.URLParam(r, "projectID"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "Invalid project id", requestID)
		return
	}

	codes, err := h.codes.List(r.Context(), projectID)
	if err != nil {
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list codes", requestID)
		return
	}

	out := make([]codeResponse, 0, len(codes))
	for i := range codes {
		out = append(out, toCodeResponse(&codes[i]))
	}

	response.Success(w, http.StatusOK, out, requestID)
}

// RotateProject handles POST /projects/{projectID}/code/rotate, regenerating
// the legacy project-level code.
func (h *CodeHandler) RotateProject(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	projectID, err := uuid.Parse(chi.URLParam(r, "projectID"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "Invalid project id", requestID)
		return
	}

	plaintext, err := h.codes.RotateProject(r.Context(), projectID)
	if err != nil {
		h.writeCodeError(w, err, requestID)
		return
	}

	response.Success(w, http.StatusOK, rotatedCodeResponse{Code: plaintext}, requestID)
}

// Rotate handles POST /codes/{codeID}/rotate.
func (h *CodeHandler) Rotate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	codeID, ok := h.authorizeCodeAdmin(w, r, requestID)
	if !ok {
		return
	}

	plaintext, err := h.codes.Rotate(r.Context(), codeID)
	if err != nil {
		h.writeCodeError(w, err, requestID)
		return
	}

	response.Success(w, http.StatusOK, rotatedCodeResponse{Code: plaintext}, requestID)
}

// Activate handles POST /codes/{codeID}/activate.
func (h *CodeHandler) Activate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true)
}

// Deactivate handles POST /codes/{codeID}/deactivate.
func (h *CodeHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false)
}

func (h *CodeHandler) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	requestID := middleware.GetRequestID(r.Context())

	codeID, ok := h.authorizeCodeAdmin(w, r, requestID)
	if !ok {
		return
	}

	if err := h.codes.SetActive(r.Context(), codeID, active); err != nil {
		h.writeCodeError(w, err, requestID)
		return
	}

	response.NoContent(w)
}

// Delete handles DELETE /codes/{codeID}. Codes are soft-deleted and never
// come back.
func (h *CodeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	codeID, ok := h.authorizeCodeAdmin(w, r, requestID)
	if !ok {
		return
	}

	if err := h.codes.SoftDelete(r.Context(), codeID); err != nil {
		h.writeCodeError(w, err, requestID)
		return
	}

	response.NoContent(w)
}

// Update handles PATCH /codes/{codeID}, metadata only.
func (h *CodeHandler) Update(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	codeID, ok := h.authorizeCodeAdmin(w, r, requestID)
	if !ok {
		return
	}

	var req updateCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body", requestID)
		return
	}

	if req.ClientEmail != nil && *req.ClientEmail != "" {
		validationErrs := validation.ValidateIssueCodeRequest(validation.IssueCodeRequest{ClientEmail: *req.ClientEmail})
		if len(validationErrs) > 0 {
			response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request", validationErrs, requestID)
			return
		}
	}

	meta := clientcode.Metadata{
		Label:       req.Label,
		ClientName:  req.ClientName,
		ClientEmail: req.ClientEmail,
		Notes:       req.Notes,
	}
	if err := h.codes.UpdateMetadata(r.Context(), codeID, meta); err != nil {
		h.writeCodeError(w, err, requestID)
		return
	}

	response.NoContent(w)
}

// authorizeCodeAdmin resolves {codeID}, finds the owning project, and
// requires the caller to be its agency_admin.
func (h *CodeHandler) authorizeCodeAdmin(w http.ResponseWriter, r *http.Request, requestID string) (uuid.UUID, bool) {
	ident := middleware.GetIdentity(r.Context())
	if ident == nil {
		response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required", requestID)
		return uuid.Nil, false
	}

	codeID, err := uuid.Parse(chi.URLParam(r, "codeID"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "Invalid code id", requestID)
		return uuid.Nil, false
	}

	code, err := h.codes.Get(r.Context(), codeID)
	if err != nil {
		h.writeCodeError(w, err, requestID)
		return uuid.Nil, false
	}

	m, err := h.members.Get(r.Context(), code.ProjectID, ident.UserID)
	if err != nil || m.Role != member.RoleAgencyAdmin {
		response.Err(w, http.StatusForbidden, "FORBIDDEN", "Must be agency_admin for this project", requestID)
		return uuid.Nil, false
	}

	return codeID, true
}

func (h *CodeHandler) writeCodeError(w http.ResponseWriter, err error, requestID string) {
	switch {
	case errors.Is(err, clientcode.ErrCodeNotFound):
		response.Err(w, http.StatusNotFound, "NOT_FOUND", "Client code not found", requestID)
	case errors.Is(err, clientcode.ErrCodeSpaceExhausted):
		response.Err(w, http.StatusServiceUnavailable, "CODE_SPACE_EXHAUSTED", "Could not generate a unique code", requestID)
	default:
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Code operation failed", requestID)
	}
}

func toCodeResponse(c *clientcode.Code) codeResponse {
	resp := codeResponse{
		ID:          c.ID.String(),
		ProjectID:   c.ProjectID.String(),
		Label:       c.Label,
		ClientName:  c.ClientName,
		ClientEmail: c.ClientEmail,
		Notes:       c.Notes,
		IsActive:    c.IsActive,
		CreatedAt:   c.CreatedAt.UTC().Format(time.RFC3339),
	}
	if c.LastRotatedAt != nil {
		rotated := c.LastRotatedAt.UTC().Format(time.RFC3339)
		resp.LastRotatedAt = &rotated
	}
	return resp
}
