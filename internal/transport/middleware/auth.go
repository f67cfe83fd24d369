package middleware

import (
	"net/http"
	"strings"

	"github.com/heartmarshall/quotespell/pkg/ctxutil"
)

type tokenValidator interface {
	ValidateToken(token string) (subject string, role string, err error)
}

// Auth attaches the bearer token's subject and role to the context.
// Requests without a token pass through anonymously. A malformed or
// rejected token gets 401.
func Auth(validator tokenValidator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := extractBearerToken(header)
			if !ok {
				writeAuthError(w, http.StatusUnauthorized, "invalid authorization header")
				return
			}

			subject, role, err := validator.ValidateToken(token)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			ctx := ctxutil.WithSubject(r.Context(), subject, role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin answers 401 for anonymous callers and 403 for non-admins.
func RequireAdmin() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := ctxutil.SubjectFromCtx(r.Context()); !ok {
				writeAuthError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			if !ctxutil.IsAdminCtx(r.Context()) {
				writeAuthError(w, http.StatusForbidden, "admin role required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func extractBearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func writeAuthError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + msg + `"}`))
}
