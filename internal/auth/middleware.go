package auth

import (
	"context"
	"net/http"
	"strings"
)

// contextKey keeps values set here from colliding with other packages.
type contextKey string

const subjectKey contextKey = "subject"

// CookieName is the cookie RequireAuth reads when no Authorization header
// is present.
const CookieName = "token"

// RequireAuth rejects requests without a valid token with 401 and stores
// the token subject in the request context otherwise.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject, err := extractSubject(r, tokens)
			if err != nil {
				w.Header().Set("Content-Type", "application/json; charset=utf-8")
				w.Header().Set("WWW-Authenticate", `Bearer realm="pantry"`)
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized","message":"valid authentication required"}` + "\n"))
				return
			}

			ctx := context.WithValue(r.Context(), subjectKey, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SubjectFromContext returns the authenticated subject, if any.
func SubjectFromContext(ctx context.Context) (string, bool) {
	sub, ok := ctx.Value(subjectKey).(string)
	return sub, ok && sub != ""
}

// extractSubject prefers the Authorization header and falls back to the cookie.
func extractSubject(r *http.Request, tokens *TokenService) (string, error) {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return tokens.Validate(strings.TrimSpace(token))
		}
	}

	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return "", err
	}
	return tokens.Validate(cookie.Value)
}
