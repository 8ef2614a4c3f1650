package auth

import (
	"net/http"
	"time"

	"github.com/noah-isme/backend-perhiasan/internal/common"
)

// Handler exposes the admin login, logout and session endpoints.
type Handler struct {
	Service        *Service
	CookieName     string
	CookieDomain   string
	CookieSecure   bool
	CookieSameSite http.SameSite
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login handles POST /admin/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "auth service not configured", nil)
		return
	}
	var req loginRequest
	if err := common.DecodeJSON(r, &req, 4<<10); err != nil {
		common.WriteError(w, err)
		return
	}
	session, err := h.Service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	h.setCookie(w, session.Token, session.ExpiresAt, 0)
	common.JSON(w, http.StatusOK, map[string]any{"data": session})
}

// Logout handles POST /admin/logout. It always succeeds.
func (h *Handler) Logout(w http.ResponseWriter, _ *http.Request) {
	h.setCookie(w, "", time.Time{}, -1)
	w.WriteHeader(http.StatusNoContent)
}

// Session handles GET /admin/session, reporting whether the caller holds a
// valid admin session.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	authenticated := false
	email := ""
	if h.Service != nil {
		if token := extractToken(r, h.cookieName()); token != "" {
			if subject, err := h.Service.ParseSession(token); err == nil {
				authenticated = true
				email = subject
			}
		}
	}
	body := map[string]any{"authenticated": authenticated}
	if authenticated {
		body["email"] = email
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": body})
}

func (h *Handler) cookieName() string {
	if h.CookieName == "" {
		return DefaultCookieName
	}
	return h.CookieName
}

func (h *Handler) setCookie(w http.ResponseWriter, value string, expires time.Time, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName(),
		Value:    value,
		Domain:   h.CookieDomain,
		Path:     "/",
		Expires:  expires,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.CookieSecure,
		SameSite: h.CookieSameSite,
	})
}
