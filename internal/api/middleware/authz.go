package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/agencykit/portal/internal/api/response"
	"github.com/agencykit/portal/internal/member"
	"github.com/agencykit/portal/internal/token"
)

const memberKey contextKey = "member"

// PinCookie is the cookie carrying the signed active-project pin.
const PinCookie = "active_project_id"

// RequireProjectMember gates project-scoped routes. Membership is looked up
// fresh on every request; the active-project pin is a routing convenience,
// never a substitute for this check. A valid pin for a different project
// gets 409 with the pinned project id so the client can switch context.
func RequireProjectMember(members member.Repository, tokens *token.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := GetRequestID(r.Context())

			ident := GetIdentity(r.Context())
			if ident == nil {
				response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required", requestID)
				return
			}

			projectID, err := uuid.Parse(chi.URLParam(r, "projectID"))
			if err != nil {
				response.Err(w, http.StatusBadRequest, "INVALID_ID", "Invalid project id", requestID)
				return
			}

			if c, cerr := r.Cookie(PinCookie); cerr == nil && c.Value != "" {
				if pinned, perr := tokens.ParseProjectPin(c.Value); perr == nil && pinned != projectID {
					response.ErrWithDetails(w, http.StatusConflict, "PROJECT_PINNED",
						"Another project is pinned for this session",
						map[string]string{"pinnedProjectId": pinned.String()}, requestID)
					return
				}
			}

			m, err := members.Get(r.Context(), projectID, ident.UserID)
			if err != nil {
				if errors.Is(err, member.ErrMemberNotFound) {
					response.Err(w, http.StatusForbidden, "FORBIDDEN", "Not a member of this project", requestID)
					return
				}
				response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Membership check failed", requestID)
				return
			}

			ctx := context.WithValue(r.Context(), memberKey, m)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAgencyAdmin rejects members whose project role is not agency_admin.
// It must run after RequireProjectMember.
func RequireAgencyAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := GetRequestID(r.Context())

			m := GetMember(r.Context())
			if m == nil {
				response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required", requestID)
				return
			}
			if m.Role != member.RoleAgencyAdmin {
				response.Err(w, http.StatusForbidden, "FORBIDDEN", "Must be agency_admin for this project", requestID)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GetMember retrieves the requesting user's project membership from the context.
func GetMember(ctx context.Context) *member.Member {
	if m, ok := ctx.Value(memberKey).(*member.Member); ok {
		return m
	}
	return nil
}
