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
	"github.com/agencykit/portal/internal/upload"
)

type requestUploadRequest struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

type fileResponse struct {
	ID          string `json:"id"`
	ProjectID   string `json:"projectId"`
	UploaderID  string `json:"uploaderId"`
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	Kind        string `json:"kind"`
	CreatedAt   string `json:"createdAt"`
}

type uploadGrantResponse struct {
	File      fileResponse `json:"file"`
	UploadURL string       `json:"uploadUrl"`
}

type downloadURLResponse struct {
	DownloadURL string `json:"downloadUrl"`
}

// UploadHandler handles file upload and download endpoints. The portal never
// proxies file bytes; clients talk to the blob store with presigned URLs.
type UploadHandler struct {
	uploads *upload.Service
}

// NewUploadHandler creates a new UploadHandler.
func NewUploadHandler(uploads *upload.Service) *UploadHandler {
	return &UploadHandler{uploads: uploads}
}

// Request handles POST /projects/{projectID}/uploads.
func (h *UploadHandler) Request(w http.ResponseWriter, r *http.Request) {
	h.request(w, r, upload.KindGeneral)
}

// RequestContract handles POST /projects/{projectID}/contracts. The route is
// mounted behind the agency-admin gate.
func (h *UploadHandler) RequestContract(w http.ResponseWriter, r *http.Request) {
	h.request(w, r, upload.KindContract)
}

func (h *UploadHandler) request(w http.ResponseWriter, r *http.Request, kind string) {
	requestID := middleware.GetRequestID(r.Context())
	ident := middleware.GetIdentity(r.Context())

	projectID, err := uuid.Parse(chi.URLParam(r, "projectID"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "Invalid project id", requestID)
		return
	}

	var req requestUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body", requestID)
		return
	}

	validationErrs := validation.ValidateRequestUploadRequest(validation.RequestUploadRequest{
		Name: req.Name,
		Size: req.Size,
	})
	if len(validationErrs) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request", validationErrs, requestID)
		return
	}

	grant, err := h.uploads.RequestUpload(r.Context(), projectID, ident.UserID, req.Name, req.ContentType, req.Size, kind)
	if err != nil {
		if errors.Is(err, upload.ErrContractNotPDF) {
			response.Err(w, http.StatusBadRequest, "INVALID_CONTENT_TYPE", "Contracts must be PDF files", requestID)
			return
		}
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create upload", requestID)
		return
	}

	response.Success(w, http.StatusCreated, uploadGrantResponse{
		File:      toFileResponse(&grant.File),
		UploadURL: grant.URL,
	}, requestID)
}

// List handles GET /projects/{projectID}/uploads. Every kind is listed;
// contracts also appear on their own endpoint.
func (h *UploadHandler) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "")
}

// ListContracts handles GET /projects/{projectID}/contracts.
func (h *UploadHandler) ListContracts(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, upload.KindContract)
}

func (h *UploadHandler) list(w http.ResponseWriter, r *http.Request, kind string) {
	requestID := middleware.GetRequestID(r.Context())

	projectID, err := uuid.Parse(chi.URLParam(r, "projectID"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "Invalid project id", requestID)
		return
	}

	files, err := h.uploads.List(r.Context(), projectID, kind)
	if err != nil {
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list files", requestID)
		return
	}

	out := make([]fileResponse, 0, len(files))
	for i := range files {
		out = append(out, toFileResponse(&files[i]))
	}

	response.Success(w, http.StatusOK, out, requestID)
}

// Download handles GET /projects/{projectID}/uploads/{fileID}/download.
func (h *UploadHandler) Download(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	projectID, err := uuid.Parse(chi.URLParam(r, "projectID"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "Invalid project id", requestID)
		return
	}
	fileID, err := uuid.Parse(chi.URLParam(r, "fileID"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "Invalid file id", requestID)
		return
	}

	url, err := h.uploads.DownloadURL(r.Context(), projectID, fileID)
	if err != nil {
		if errors.Is(err, upload.ErrFileNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "File not found", requestID)
			return
		}
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to sign download", requestID)
		return
	}

	response.Success(w, http.StatusOK, downloadURLResponse{DownloadURL: url}, requestID)
}

func toFileResponse(f *upload.File) fileResponse {
	return fileResponse{
		ID:          f.ID.String(),
		ProjectID:   f.ProjectID.String(),
		UploaderID:  f.UploaderID.String(),
		Name:        f.Name,
		ContentType: f.ContentType,
		Size:        f.Size,
		Kind:        f.Kind,
		CreatedAt:   f.CreatedAt.UTC().Format(time.RFC3339),
	}
}
