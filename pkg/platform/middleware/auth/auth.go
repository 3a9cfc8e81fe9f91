package auth

import (
	"log/slog"
	"net/http"
	"strings"

	id "authgate/pkg/domain"
	"authgate/pkg/requestcontext"
)

// TokenValidator verifies an access token and returns the subject user ID.
type TokenValidator interface {
	ValidateAccessToken(token string) (string, error)
}

// TokenFromRequest returns the access token from cookieName, falling back to
// an "Authorization: Bearer" header.
func TokenFromRequest(r *http.Request, cookieName string) string {
	if cookieName != "" {
		if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
			return c.Value
		}
	}
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// AccessToken resolves the caller's access token into the request context.
// Requests without a token, or with one the validator rejects, continue as
// anonymous; handlers decide whether a session is required.
func AccessToken(cookieName string, validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token := TokenFromRequest(r, cookieName)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			if validator != nil {
				subject, err := validator.ValidateAccessToken(token)
				if err != nil {
					logger.DebugContext(ctx, "ignoring invalid access token",
						"error", err,
						"request_id", requestcontext.RequestID(ctx),
					)
					next.ServeHTTP(w, r)
					return
				}
				userID, err := id.ParseUserID(subject)
				if err != nil {
					logger.WarnContext(ctx, "access token with malformed subject",
						"error", err,
						"request_id", requestcontext.RequestID(ctx),
					)
					next.ServeHTTP(w, r)
					return
				}
				ctx = requestcontext.WithUserID(ctx, userID)
			}

			ctx = requestcontext.WithAccessToken(ctx, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
