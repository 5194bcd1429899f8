package session

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestManager(t *testing.T, ttl time.Duration, secure bool) *Manager {
	t.Helper()
	return NewManager([]byte("0123456789abcdef0123456789abcdef"), ttl, secure)
}

func requestWithCookie(value string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/admin/api/blog", nil)
	r.AddCookie(&http.Cookie{Name: CookieName, Value: value})
	return r
}

func TestIssueAndVerify(t *testing.T) {
	m := newTestManager(t, time.Hour, false)
	value, expires, err := m.Issue()
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if !expires.After(time.Now()) {
		t.Error("expiry should be in the future")
	}
	if !m.Verify(requestWithCookie(value)) {
		t.Error("freshly issued token should verify")
	}
}

func TestVerifyRejectsTampered(t *testing.T) {
	m := newTestManager(t, time.Hour, false)
	value, _, _ := m.Issue()

	tampered := value[:len(value)-2] + "xx"
	if m.Verify(requestWithCookie(tampered)) {
		t.Error("tampered token should not verify")
	}
	if m.Verify(requestWithCookie("authenticated")) {
		t.Error("bare sentinel string should not verify")
	}
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	m1 := newTestManager(t, time.Hour, false)
	m2 := NewManager([]byte("another-secret-key-entirely-here"), time.Hour, false)

	value, _, _ := m1.Issue()
	if m2.Verify(requestWithCookie(value)) {
		t.Error("token signed with a different key should not verify")
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	m := newTestManager(t, time.Hour, false)
	base := time.Unix(100000, 0)
	m.now = func() time.Time { return base }

	value, _, err := m.Issue()
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	m.now = func() time.Time { return base.Add(2 * time.Hour) }
	if m.Verify(requestWithCookie(value)) {
		t.Error("expired token should not verify")
	}
}

func TestVerifyRejectsMissingCookie(t *testing.T) {
	m := newTestManager(t, time.Hour, false)
	r := httptest.NewRequest(http.MethodGet, "/admin/api/blog", nil)
	if m.Verify(r) {
		t.Error("request without cookie should not verify")
	}
}

func TestCookieFlags(t *testing.T) {
	m := newTestManager(t, time.Hour, true)
	value, expires, _ := m.Issue()
	c := m.Cookie(value, expires)

	if !c.HttpOnly {
		t.Error("cookie must be HttpOnly")
	}
	if !c.Secure {
		t.Error("cookie must be Secure when configured")
	}
	if c.SameSite != http.SameSiteStrictMode {
		t.Error("cookie must be SameSite=Strict")
	}
	if c.Path != "/" {
		t.Errorf("path = %q, want /", c.Path)
	}
	if c.MaxAge != 3600 {
		t.Errorf("max-age = %d, want 3600", c.MaxAge)
	}
}

func TestClearCookie(t *testing.T) {
	m := newTestManager(t, time.Hour, false)
	c := m.ClearCookie()
	if c.MaxAge != -1 {
		t.Errorf("max-age = %d, want -1", c.MaxAge)
	}
	if c.Value != "" {
		t.Errorf("value = %q, want empty", c.Value)
	}
}

func TestTokenValueIsOpaque(t *testing.T) {
	m := newTestManager(t, time.Hour, false)
	value, _, _ := m.Issue()
	if strings.Contains(value, "exp") || strings.Contains(value, "{") {
		t.Errorf("token leaks structure: %q", value)
	}
}
