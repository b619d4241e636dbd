package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/agencykit/portal/internal/api/middleware"
	"github.com/agencykit/portal/internal/api/response"
	"github.com/agencykit/portal/internal/onboarding"
)

type milestoneResponse struct {
	Key    string `json:"key"`
	Title  string `json:"title"`
	Status string `json:"status"`
	Sort   int    `json:"sort"`
}

type setMilestoneStatusRequest struct {
	Status string `json:"status"`
}

// OnboardingHandler handles milestone and onboarding-step endpoints.
type OnboardingHandler struct {
	repo onboarding.Repository
}

// NewOnboardingHandler creates a new OnboardingHandler.
func NewOnboardingHandler(repo onboarding.Repository) *OnboardingHandler {
	return &OnboardingHandler{repo: repo}
}

// ListMilestones handles GET /projects/{projectID}/milestones.
func (h *OnboardingHandler) ListMilestones(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	projectID, err := uuid.Parse(chi.URLParam(r, "projectID"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "Invalid project id", requestID)
		return
	}

	milestones, err := h.repo.ListMilestones(r.Context(), projectID)
	if err != nil {
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list milestones", requestID)
		return
	}

	out := make([]milestoneResponse, 0, len(milestones))
	for _, m := range milestones {
		out = append(out, milestoneResponse{Key: m.Key, Title: m.Title, Status: m.Status, Sort: m.Sort})
	}

	response.Success(w, http.StatusOK, out, requestID)
}

// SetMilestoneStatus handles PUT /projects/{projectID}/milestones/{key}/status.
func (h *OnboardingHandler) SetMilestoneStatus(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	projectID, err := uuid.Parse(chi.URLParam(r, "projectID"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "Invalid project id", requestID)
		return
	}

	var req setMilestoneStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !onboarding.ValidStatus(req.Status) {
		response.Err(w, http.StatusBadRequest, "INVALID_REQUEST", "status must be not_started, in_progress or complete", requestID)
		return
	}

	if err := h.repo.SetMilestoneStatus(r.Context(), projectID, chi.URLParam(r, "key"), req.Status); err != nil {
		if errors.Is(err, onboarding.ErrMilestoneNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Milestone not found", requestID)
			return
		}
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update milestone", requestID)
		return
	}

	response.NoContent(w)
}

// SaveStep handles PUT /projects/{projectID}/steps/{step}. The payload
// is stored as submitted; field semantics belong to the form UI.
func (h *OnboardingHandler) SaveStep(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	projectID, step, ok := h.stepParams(w, r, requestID)
	if !ok {
		return
	}

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil || !json.Valid(payload) {
		response.Err(w, http.StatusBadRequest, "INVALID_REQUEST", "Body must be a JSON document", requestID)
		return
	}

	if err := h.repo.UpsertStepData(r.Context(), projectID, step, payload); err != nil {
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to save step", requestID)
		return
	}

	response.NoContent(w)
}

// GetStep handles GET /projects/{projectID}/steps/{step}.
func (h *OnboardingHandler) GetStep(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	projectID, step, ok := h.stepParams(w, r, requestID)
	if !ok {
		return
	}

	data, err := h.repo.GetStepData(r.Context(), projectID, step)
	if err != nil {
		if errors.Is(err, onboarding.ErrStepNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "No data saved for this step", requestID)
			return
		}
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch step", requestID)
		return
	}

	response.Success(w, http.StatusOK, map[string]any{
		"step":      data.Step,
		"payload":   json.RawMessage(data.Payload),
		"updatedAt": data.UpdatedAt.UTC().Format(time.RFC3339),
	}, requestID)
}

func (h *OnboardingHandler) stepParams(w http.ResponseWriter, r *http.Request, requestID string) (uuid.UUID, int, bool) {
	projectID, err := uuid.Parse(chi.URLParam(r, "projectID"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "Invalid project id", requestID)
		return uuid.Nil, 0, false
	}

	step, err := strconv.Atoi(chi.URLParam(r, "step"))
	if err != nil || step < 1 || step > 20 {
		response.Err(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid step number", requestID)
		return uuid.Nil, 0, false
	}

	return projectID, step, true
}
