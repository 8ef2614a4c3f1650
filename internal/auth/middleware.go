package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/noah-isme/backend-perhiasan/internal/common"
)

// DefaultCookieName carries the admin session token.
const DefaultCookieName = "perhiasan_admin"

var errNoToken = errors.New("auth: session missing")

// Middleware gates admin routes on a valid session.
type Middleware struct {
	Service    *Service
	CookieName string
}

// RequireAdmin rejects requests without a valid admin session and stores the
// admin email on the request context otherwise.
func (m Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		email, err := m.authenticate(r)
		if err != nil {
			if errors.Is(err, errNoToken) {
				common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "admin session required", nil)
				return
			}
			common.WriteError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(common.WithAdmin(r.Context(), email)))
	})
}

func (m Middleware) authenticate(r *http.Request) (string, error) {
	if m.Service == nil {
		return "", common.NewAppError("UNAUTHORIZED", "admin auth not configured", http.StatusUnauthorized, nil)
	}
	token := extractToken(r, m.cookieName())
	if token == "" {
		return "", errNoToken
	}
	return m.Service.ParseSession(token)
}

func (m Middleware) cookieName() string {
	if m.CookieName == "" {
		return DefaultCookieName
	}
	return m.CookieName
}

func extractToken(r *http.Request, cookieName string) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	if cookie, err := r.Cookie(cookieName); err == nil {
		return strings.TrimSpace(cookie.Value)
	}
	return ""
}
