package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/agencykit/portal/internal/api/middleware"
	"github.com/agencykit/portal/internal/api/response"
	"github.com/agencykit/portal/internal/clientcode"
	"github.com/agencykit/portal/internal/join"
	"github.com/agencykit/portal/internal/token"
)

type validateCodeRequest struct {
	Code string `json:"code"`
}

// JoinHandler handles pre-authentication client-code validation.
type JoinHandler struct {
	binder  *join.Binder
	cookies CookieWriter
}

// NewJoinHandler creates a new JoinHandler.
func NewJoinHandler(binder *join.Binder, cookies CookieWriter) *JoinHandler {
	return &JoinHandler{binder: binder, cookies: cookies}
}

// Validate handles POST /join/validate. On success the pending-join token
// rides a short-lived cookie into the authentication round-trip. The error
// message never distinguishes unknown from inactive or deleted codes.
func (h *JoinHandler) Validate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var req validateCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_REQUEST", "code is required", requestID)
		return
	}

	pending, err := h.binder.ValidatePreAuth(r.Context(), req.Code)
	if err != nil {
		if errors.Is(err, clientcode.ErrInvalidFormat) || errors.Is(err, clientcode.ErrInvalidCode) {
			response.Err(w, http.StatusBadRequest, "INVALID_CODE", "Invalid client code", requestID)
			return
		}
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to validate code", requestID)
		return
	}

	h.cookies.Set(w, PendingJoinCookie, pending, int(token.PendingJoinTTL.Seconds()))
	response.Success(w, http.StatusOK, map[string]bool{"valid": true}, requestID)
}
