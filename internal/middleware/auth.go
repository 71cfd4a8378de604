package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/simosa/fyp/internal/auth"
)

// TokenValidator validates a raw bearer token.
type TokenValidator interface {
	Validate(token string) (*auth.Claims, error)
}

// Authenticate resolves an optional "Authorization: Bearer" token to a user
// id stored with SetUserID. Requests without the header pass through
// anonymously; a malformed, expired or invalid token is rejected with 401.
// A nil validator disables authentication and every request is anonymous.
func Authenticate(v TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if v == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				writeError(r.Context(), w, http.StatusUnauthorized, ErrCodeUnauthorized,
					"Authorization header must use the Bearer scheme")
				return
			}

			claims, err := v.Validate(strings.TrimSpace(token))
			if err != nil {
				msg := "Invalid access token"
				if errors.Is(err, auth.ErrExpiredToken) {
					msg = "Access token has expired"
				}
				writeError(r.Context(), w, http.StatusUnauthorized, ErrCodeUnauthorized, msg)
				return
			}

			next.ServeHTTP(w, r.WithContext(SetUserID(r.Context(), claims.UserID())))
		})
	}
}
