package middleware

import (
	"context"
	"net/http"

	"github.com/agencykit/portal/internal/api/response"
	"github.com/agencykit/portal/internal/audit"
	"github.com/agencykit/portal/internal/identity"
	"github.com/agencykit/portal/internal/token"
)

const identityKey contextKey = "identity"

// SessionCookie is the cookie carrying the signed session token.
const SessionCookie = "portal_session"

// Session is middleware that resolves the session cookie (or a Bearer
// token) to an Identity. Requests without a valid session get 401.
func Session(tokens *token.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := GetRequestID(r.Context())

			raw := sessionToken(r)
			if raw == "" {
				response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required", requestID)
				return
			}

			claims, err := tokens.ParseSession(raw)
			if err != nil {
				response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or expired session", requestID)
				return
			}

			ident := &identity.Identity{UserID: claims.UserID, Email: claims.Email}
			ctx := context.WithValue(r.Context(), identityKey, ident)
			ctx = audit.WithActor(ctx, ident.Email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetIdentity retrieves the authenticated Identity from the request context.
func GetIdentity(ctx context.Context) *identity.Identity {
	if id, ok := ctx.Value(identityKey).(*identity.Identity); ok {
		return id
	}
	return nil
}

func sessionToken(r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	const bearer = "Bearer "
	if h := r.Header.Get("Authorization"); len(h) > len(bearer) && h[:len(bearer)] == bearer {
		return h[len(bearer):]
	}
	return ""
}
