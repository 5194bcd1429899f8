// Package api implements the public and admin HTTP surface using chi.
package api

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/harlan/vitrin/internal/session"
)

// RouteGate is the single authorization checkpoint for the admin tree.
// Requests without a valid session cookie are turned away here; no
// handler behind the gate re-checks. Browser navigations (HTML-accepting
// requests) are redirected to the login page with the original URL in
// `from`; API clients get a 401 envelope.
func RouteGate(sessions *session.Manager, loginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if sessions.Verify(r) {
				next.ServeHTTP(w, r)
				return
			}
			if acceptsHTML(r) {
				target := loginPath + "?from=" + url.QueryEscape(r.URL.RequestURI())
				http.Redirect(w, r, target, http.StatusSeeOther)
				return
			}
			writeError(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
		})
	}
}

func acceptsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}
