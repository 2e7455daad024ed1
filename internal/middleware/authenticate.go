package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/vidfriends/mediahub/internal/apperr"
	"github.com/vidfriends/mediahub/internal/authz"
	"github.com/vidfriends/mediahub/internal/logging"
	"github.com/vidfriends/mediahub/internal/models"
)

// AccessCookie names the cookie carrying the access token.
const AccessCookie = "accessToken"

// TokenVerifier resolves an access token to the user it was issued for.
type TokenVerifier interface {
	VerifyAccess(ctx context.Context, token string) (models.User, error)
}

// RequireAuth rejects requests without a valid access token and stores the principal on
// the request context.
func RequireAuth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return authenticate(verifier, true)
}

// OptionalAuth attaches the principal when a valid access token is presented and lets
// anonymous requests through unchanged.
func OptionalAuth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return authenticate(verifier, false)
}

func authenticate(verifier TokenVerifier, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token := accessToken(r)

			if token == "" || verifier == nil {
				if required {
					logging.FromContext(ctx).Warn("missing access token")
					writeError(w, http.StatusUnauthorized, "unauthorized request")
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			user, err := verifier.VerifyAccess(ctx, token)
			if err != nil {
				if required {
					logging.FromContext(ctx).Warn("access token rejected", "error", err)
					writeError(w, apperr.KindOf(err).Status(), apperr.Message(err))
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			ctx = logging.WithPrincipalID(ctx, user.ID)
			ctx = authz.WithPrincipal(ctx, &authz.Principal{ID: user.ID, Username: user.Username})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func accessToken(r *http.Request) string {
	if cookie, err := r.Cookie(AccessCookie); err == nil {
		if value := strings.TrimSpace(cookie.Value); value != "" {
			return value
		}
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// writeError emits the API error envelope for requests rejected before reaching a handler.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":  status,
		"message": message,
		"data":    nil,
		"success": false,
	})
}
