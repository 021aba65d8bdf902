package token

import (
	"net/http"
	"strings"
	"time"
)

// CookieName is the auth-token cookie shared by both processes. Like the
// secret, the name is part of the deployment contract.
const CookieName = "campusride_token"

// FromRequest extracts a token from the request, preferring the
// Authorization header over the cookie fallback. The second return value is
// false when neither transport carries a token.
func FromRequest(r *http.Request) (string, bool) {
	if h := r.Header.Get("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") && parts[1] != "" {
			return parts[1], true
		}
		return "", false
	}

	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		return c.Value, true
	}
	return "", false
}

// SetCookie writes the auth-token cookie. HttpOnly keeps it away from
// scripts; SameSite=Lax keeps it off cross-site POSTs.
func SetCookie(w http.ResponseWriter, tokenString string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    tokenString,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the auth-token cookie. Outstanding tokens stay valid
// until their own expiry; logout is client-side only.
func ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
