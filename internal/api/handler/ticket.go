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
	"github.com/agencykit/portal/internal/ticket"
)

type createTicketRequest struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type addReplyRequest struct {
	Body string `json:"body"`
}

type setTicketStatusRequest struct {
	Status string `json:"status"`
}

type ticketResponse struct {
	ID        string `json:"id"`
	ProjectID string `json:"projectId"`
	AuthorID  string `json:"authorId"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	Status    string `json:"status"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

type replyResponse struct {
	ID        string `json:"id"`
	AuthorID  string `json:"authorId"`
	Body      string `json:"body"`
	CreatedAt string `json:"createdAt"`
}

type ticketDetailResponse struct {
	ticketResponse
	Replies []replyResponse `json:"replies"`
}

// TicketHandler handles support-ticket endpoints. Ticket-id routes resolve
// the owning project and re-check the caller's membership against it.
type TicketHandler struct {
	tickets ticket.Repository
	members member.Repository
}

// NewTicketHandler creates a new TicketHandler.
func NewTicketHandler(tickets ticket.Repository, members member.Repository) *TicketHandler {
	return &TicketHandler{tickets: tickets, members: members}
}

// Create handles POST /projects/{projectID}/tickets.
func (h *TicketHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	ident := middleware.GetIdentity(r.Context())

	projectID, err := uuid.Parse(chi.URLParam(r, "projectID"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "Invalid project id", requestID)
		return
	}

	var req createTicketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body", requestID)
		return
	}

	validationErrs := validation.ValidateCreateTicketRequest(validation.CreateTicketRequest{
		Subject: req.Subject,
		Body:    req.Body,
	})
	if len(validationErrs) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request", validationErrs, requestID)
		return
	}

	t := &ticket.Ticket{
		ProjectID: projectID,
		AuthorID:  ident.UserID,
		Subject:   req.Subject,
		Body:      req.Body,
	}
	if err := h.tickets.Create(r.Context(), t); err != nil {
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create ticket", requestID)
		return
	}

	response.Success(w, http.StatusCreated, toTicketResponse(t), requestID)
}

// List handles GET /projects/{projectID}/tickets.
func (h *TicketHandler) List(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	projectID, err := uuid.Parse(chi.URLParam(r, "projectID"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "Invalid project id", requestID)
		return
	}

	tickets, err := h.tickets.ListByProject(r.Context(), projectID)
	if err != nil {
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list tickets", requestID)
		return
	}

	out := make([]ticketResponse, 0, len(tickets))
	for i := range tickets {
		out = append(out, toTicketResponse(&tickets[i]))
	}

	response.Success(w, http.StatusOK, out, requestID)
}

// Get handles GET /tickets/{ticketID}, including replies.
func (h *TicketHandler) Get(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	t, ok := h.authorizeTicket(w, r, requestID)
	if !ok {
		return
	}

	replies, err := h.tickets.ListReplies(r.Context(), t.ID)
	if err != nil {
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list replies", requestID)
		return
	}

	detail := ticketDetailResponse{ticketResponse: toTicketResponse(t), Replies: []replyResponse{}}
	for _, rep := range replies {
		detail.Replies = append(detail.Replies, replyResponse{
			ID:        rep.ID.String(),
			AuthorID:  rep.AuthorID.String(),
			Body:      rep.Body,
			CreatedAt: rep.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	response.Success(w, http.StatusOK, detail, requestID)
}

// AddReply handles POST /tickets/{ticketID}/replies.
func (h *TicketHandler) AddReply(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	ident := middleware.GetIdentity(r.Context())

	t, ok := h.authorizeTicket(w, r, requestID)
	if !ok {
		return
	}

	var req addReplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Body == "" {
		response.Err(w, http.StatusBadRequest, "INVALID_REQUEST", "body is required", requestID)
		return
	}

	reply := &ticket.Reply{TicketID: t.ID, AuthorID: ident.UserID, Body: req.Body}
	if err := h.tickets.AddReply(r.Context(), reply); err != nil {
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to add reply", requestID)
		return
	}

	response.Success(w, http.StatusCreated, replyResponse{
		ID:        reply.ID.String(),
		AuthorID:  reply.AuthorID.String(),
		Body:      reply.Body,
		CreatedAt: reply.CreatedAt.UTC().Format(time.RFC3339),
	}, requestID)
}

// SetStatus handles POST /tickets/{ticketID}/status.
func (h *TicketHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	t, ok := h.authorizeTicket(w, r, requestID)
	if !ok {
		return
	}

	var req setTicketStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !ticket.ValidStatus(req.Status) {
		response.Err(w, http.StatusBadRequest, "INVALID_REQUEST", "status must be open or closed", requestID)
		return
	}

	if err := h.tickets.SetStatus(r.Context(), t.ID, req.Status); err != nil {
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update ticket", requestID)
		return
	}

	response.NoContent(w)
}

// authorizeTicket resolves {ticketID} and requires the caller to be a member
// of the owning project.
func (h *TicketHandler) authorizeTicket(w http.ResponseWriter, r *http.Request, requestID string) (*ticket.Ticket, bool) {
	ident := middleware.GetIdentity(r.Context())
	if ident == nil {
		response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required", requestID)
		return nil, false
	}

	ticketID, err := uuid.Parse(chi.URLParam(r, "ticketID"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "Invalid ticket id", requestID)
		return nil, false
	}

	t, err := h.tickets.GetByID(r.Context(), ticketID)
	if err != nil {
		if errors.Is(err, ticket.ErrTicketNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Ticket not found", requestID)
			return nil, false
		}
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch ticket", requestID)
		return nil, false
	}

	if _, err := h.members.Get(r.Context(), t.ProjectID, ident.UserID); err != nil {
		response.Err(w, http.StatusForbidden, "FORBIDDEN", "Not a member of this project", requestID)
		return nil, false
	}

	return t, true
}

func toTicketResponse(t *ticket.Ticket) ticketResponse {
	return ticketResponse{
		ID:        t.ID.String(),
		ProjectID: t.ProjectID.String(),
		AuthorID:  t.AuthorID.String(),
		Subject:   t.Subject,
		Body:      t.Body,
		Status:    t.Status,
		CreatedAt: t.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: t.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
