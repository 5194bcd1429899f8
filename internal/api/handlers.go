package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"github.com/harlan/vitrin/internal/apperr"
	"github.com/harlan/vitrin/internal/auth"
	"github.com/harlan/vitrin/internal/filestore"
	"github.com/harlan/vitrin/internal/session"
)

const maxBodyBytes = 1 << 20

// Handler holds the admin API route handlers.
type Handler struct {
	auth     *auth.Authenticator
	sessions *session.Manager
	store    *filestore.Store
	logger   *slog.Logger
}

// NewHandler creates a Handler.
func NewHandler(a *auth.Authenticator, sessions *session.Manager, store *filestore.Store, logger *slog.Logger) *Handler {
	return &Handler{auth: a, sessions: sessions, store: store, logger: logger}
}

// clientIP extracts the peer address; chi's RealIP middleware has
// already rewritten RemoteAddr when X-Forwarded-For applies.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Login handles POST /admin/api/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation", "invalid JSON body")
		return
	}

	result, rl, err := h.auth.Login(clientIP(r), req.Password)
	if err != nil {
		if errors.Is(err, apperr.ErrRateLimited) {
			secs := int(rl.RetryAfter.Seconds())
			if secs < 1 {
				secs = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(secs))
		}
		writeAppError(w, h.logger, err)
		return
	}

	http.SetCookie(w, h.sessions.Cookie(result.Token, result.ExpiresAt))
	// The login body is flat, not enveloped: token and expiry sit at the
	// top level next to success.
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"token":     result.Token,
		"expiresAt": result.ExpiresAt.UTC(),
	})
}

// Logout handles POST /admin/api/logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, h.sessions.ClearCookie())
	writeData(w, http.StatusOK, map[string]any{"authenticated": false})
}

// Session handles GET /admin/api/session. The gate already verified the
// cookie; reaching this handler means the session is live.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, map[string]any{"authenticated": true})
}

// GetData handles GET /admin/api/data?file={resource}.
func (h *Handler) GetData(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("file")
	if name == "" {
		writeError(w, http.StatusBadRequest, "validation", "query parameter 'file' is required")
		return
	}
	doc, err := h.store.Load(name)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, doc)
}

// SaveData handles POST /admin/api/data with body {file, data}.
func (h *Handler) SaveData(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req struct {
		File string          `json:"file"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation", "invalid JSON body")
		return
	}
	if req.File == "" || len(req.Data) == 0 {
		writeError(w, http.StatusBadRequest, "validation", "file and data are required")
		return
	}
	if err := h.store.Save(req.File, filestore.Document(req.Data)); err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"file": req.File})
}
