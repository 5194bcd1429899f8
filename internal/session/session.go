// Package session issues and verifies the admin session credential.
//
// There is no server-side session table: the cookie value is the whole
// session. The value is an HMAC-signed payload carrying issue and expiry
// times, so a tampered or forged cookie fails to decode and an expired
// one fails the explicit expiry check.
package session

import (
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
)

// CookieName is the admin session cookie.
const CookieName = "vitrin_admin"

// Token is the signed cookie payload.
type Token struct {
	IssuedAt  int64 `json:"iat"`
	ExpiresAt int64 `json:"exp"`
}

// Manager mints and verifies session tokens.
type Manager struct {
	codec  *securecookie.SecureCookie
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

// NewManager creates a Manager signing with secret. secure controls the
// cookie's Secure flag (true behind HTTPS).
func NewManager(secret []byte, ttl time.Duration, secure bool) *Manager {
	codec := securecookie.New(secret, nil)
	codec.SetSerializer(securecookie.JSONEncoder{})
	codec.MaxAge(int(ttl.Seconds()))
	return &Manager{
		codec:  codec,
		ttl:    ttl,
		secure: secure,
		now:    time.Now,
	}
}

// Issue mints a fresh token and returns its encoded value plus expiry.
func (m *Manager) Issue() (string, time.Time, error) {
	now := m.now()
	expires := now.Add(m.ttl)
	encoded, err := m.codec.Encode(CookieName, Token{
		IssuedAt:  now.Unix(),
		ExpiresAt: expires.Unix(),
	})
	if err != nil {
		return "", time.Time{}, err
	}
	return encoded, expires, nil
}

// Cookie builds the Set-Cookie value for an issued token: HTTP-only,
// strict same-site, root path, explicit max-age.
func (m *Manager) Cookie(value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteStrictMode,
	}
}

// ClearCookie builds a cookie that removes the session.
func (m *Manager) ClearCookie() *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteStrictMode,
	}
}

// Verify reports whether the request carries a well-formed, unexpired
// session cookie.
func (m *Manager) Verify(r *http.Request) bool {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return false
	}
	var tok Token
	if err := m.codec.Decode(CookieName, c.Value, &tok); err != nil {
		return false
	}
	return m.now().Unix() < tok.ExpiresAt
}
