package auth

import (
	"net/http"
	"time"
)

const RefreshCookieName = "refresh_token"

// CookiePolicy builds the refresh cookie. Set and Clear share every
// attribute; a browser ignores a clearing cookie whose path or flags differ.
type CookiePolicy struct {
	Name   string
	Path   string
	Secure bool
}

func NewCookiePolicy(path string, secure bool) CookiePolicy {
	if path == "" {
		path = "/"
	}
	return CookiePolicy{
		Name:   RefreshCookieName,
		Path:   path,
		Secure: secure,
	}
}

func (p CookiePolicy) Set(w http.ResponseWriter, refreshToken string) {
	http.SetCookie(w, p.cookie(refreshToken))
}

func (p CookiePolicy) Clear(w http.ResponseWriter) {
	c := p.cookie("")
	c.MaxAge = -1
	c.Expires = time.Unix(0, 0)
	http.SetCookie(w, c)
}

func (p CookiePolicy) cookie(value string) *http.Cookie {
	return &http.Cookie{
		Name:     p.Name,
		Value:    value,
		Path:     p.Path,
		HttpOnly: true,
		Secure:   p.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}
