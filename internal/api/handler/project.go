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
	"github.com/agencykit/portal/internal/member"
	"github.com/agencykit/portal/internal/project"
)

type createProjectRequest struct {
	Name     string `json:"name"`
	AgencyID string `json:"agencyId"`
}

type bootstrapRequest struct {
	Secret     string `json:"secret"`
	AgencyName string `json:"agencyName"`
}

type projectResponse struct {
	ID               string `json:"id"`
	AgencyID         string `json:"agencyId"`
	Name             string `json:"name"`
	Status           string `json:"status"`
	ClientCodeActive bool   `json:"clientCodeActive"`
	CreatedAt        string `json:"createdAt"`
}

type createdProjectResponse struct {
	projectResponse
	// ClientCode is the initial code plaintext, shown exactly once.
	ClientCode string `json:"clientCode"`
}

// ProjectHandler handles project endpoints.
type ProjectHandler struct {
	projects *project.Service
	members  member.Repository
}

// NewProjectHandler creates a new ProjectHandler.
func NewProjectHandler(projects *project.Service, members member.Repository) *ProjectHandler {
	return &ProjectHandler{projects: projects, members: members}
}

// Create handles POST /projects. Only principals who already hold
// agency_admin on some project may create new ones.
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	ident := middleware.GetIdentity(r.Context())

	if !h.isAgencyAdminAnywhere(r, ident.UserID) {
		response.Err(w, http.StatusForbidden, "FORBIDDEN", "Must be agency_admin to create projects", requestID)
		return
	}

	var req createProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body", requestID)
		return
	}

	validationErrs := validation.ValidateCreateProjectRequest(validation.CreateProjectRequest{
		Name:     req.Name,
		AgencyID: req.AgencyID,
	})
	if len(validationErrs) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request", validationErrs, requestID)
		return
	}

	agencyID, err := uuid.Parse(req.AgencyID)
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "Invalid agency id", requestID)
		return
	}

	p, plaintext, err := h.projects.Create(r.Context(), agencyID, req.Name, ident.UserID)
	if err != nil {
		if errors.Is(err, project.ErrAgencyNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Agency not found", requestID)
			return
		}
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create project", requestID)
		return
	}

	response.Success(w, http.StatusCreated, createdProjectResponse{
		projectResponse: toProjectResponse(p),
		ClientCode:      plaintext,
	}, requestID)
}

// List handles GET /projects, returning the caller's projects.
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	ident := middleware.GetIdentity(r.Context())

	projects, err := h.projects.ListForUser(r.Context(), ident.UserID)
	if err != nil {
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list projects", requestID)
		return
	}

	out := make([]projectResponse, 0, len(projects))
	for i := range projects {
		out = append(out, toProjectResponse(&projects[i]))
	}

	response.Success(w, http.StatusOK, out, requestID)
}

// Get handles GET /projects/{projectID}. Membership is enforced by middleware.
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	projectID, err := uuid.Parse(chi.URLParam(r, "projectID"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "Invalid project id", requestID)
		return
	}

	p, err := h.projects.Get(r.Context(), projectID)
	if err != nil {
		if errors.Is(err, project.ErrProjectNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Project not found", requestID)
			return
		}
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch project", requestID)
		return
	}

	response.Success(w, http.StatusOK, toProjectResponse(p), requestID)
}

// Members handles GET /projects/{projectID}/members.
func (h *ProjectHandler) Members(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	projectID, err := uuid.Parse(chi.URLParam(r, "projectID"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "Invalid project id", requestID)
		return
	}

	members, err := h.members.ListByProject(r.Context(), projectID)
	if err != nil {
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list members", requestID)
		return
	}

	type memberResponse struct {
		UserID    string `json:"userId"`
		Role      string `json:"role"`
		CreatedAt string `json:"createdAt"`
	}
	out := make([]memberResponse, 0, len(members))
	for _, m := range members {
		out = append(out, memberResponse{
			UserID:    m.UserID.String(),
			Role:      m.Role,
			CreatedAt: m.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	response.Success(w, http.StatusOK, out, requestID)
}

// Bootstrap handles POST /bootstrap: first-run agency setup guarded by the
// configured bootstrap secret.
func (h *ProjectHandler) Bootstrap(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	ident := middleware.GetIdentity(r.Context())

	var req bootstrapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AgencyName == "" {
		response.Err(w, http.StatusBadRequest, "INVALID_REQUEST", "agencyName is required", requestID)
		return
	}

	agency, err := h.projects.Bootstrap(r.Context(), req.Secret, req.AgencyName, ident.UserID)
	if err != nil {
		switch {
		case errors.Is(err, project.ErrInvalidBootstrapSecret):
			response.Err(w, http.StatusForbidden, "FORBIDDEN", "Invalid bootstrap secret", requestID)
		case errors.Is(err, project.ErrDuplicateSlug):
			response.Err(w, http.StatusConflict, "CONFLICT", "Agency already exists", requestID)
		default:
			response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Bootstrap failed", requestID)
		}
		return
	}

	response.Success(w, http.StatusCreated, map[string]string{
		"agencyId": agency.ID.String(),
		"slug":     agency.Slug,
	}, requestID)
}

func (h *ProjectHandler) isAgencyAdminAnywhere(r *http.Request, userID uuid.UUID) bool {
	memberships, err := h.members.ListByUser(r.Context(), userID)
	if err != nil {
		return false
	}
	for _, m := range memberships {
		if m.Role == member.RoleAgencyAdmin {
			return true
		}
	}
	return false
}

func toProjectResponse(p *project.Project) projectResponse {
	return projectResponse{
		ID:               p.ID.String(),
		AgencyID:         p.AgencyID.String(),
		Name:             p.Name,
		Status:           p.Status,
		ClientCodeActive: p.ClientCodeActive,
		CreatedAt:        p.CreatedAt.UTC().Format(time.RFC3339),
	}
}
