package session

import (
	"net/http"
	"time"
)

// CookieOptions are shared by the cookie-backed stores.
type CookieOptions struct {
	Name   string
	Secure bool
	MaxAge time.Duration // 0: browser session cookie
}

// NewCookie returns the session cookie carrying value. An empty value expires the cookie.
func (o CookieOptions) NewCookie(value string) *http.Cookie {
	c := &http.Cookie{
		Name:     o.Name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   o.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	switch {
	case value == "":
		c.MaxAge = -1
		c.Expires = time.Unix(0, 0)
	case o.MaxAge > 0:
		c.MaxAge = int(o.MaxAge.Seconds())
		c.Expires = time.Now().Add(o.MaxAge)
	}
	return c
}

// Read returns the cookie value sent with r, or "".
func (o CookieOptions) Read(r *http.Request) string {
	c, err := r.Cookie(o.Name)
	if err != nil {
		return ""
	}
	return c.Value
}
