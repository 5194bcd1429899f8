package api

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/harlan/vitrin/internal/apperr"
	"github.com/harlan/vitrin/internal/blog"
	"github.com/harlan/vitrin/internal/filestore"
	"github.com/harlan/vitrin/internal/slug"
)

const maxUploadBytes = 50 << 20 // 50 MB

// UploadHandler stores and serves per-post image uploads. Files live
// under <root>/<slug>/<filename>; the slug passes the same validation
// as everywhere else and the filename must be a plain base name, so no
// request can address a path outside its post's directory.
type UploadHandler struct {
	root   string
	repo   *blog.Repository
	logger *slog.Logger
}

// NewUploadHandler creates a handler rooted at the uploads directory.
func NewUploadHandler(root string, repo *blog.Repository, logger *slog.Logger) *UploadHandler {
	return &UploadHandler{root: root, repo: repo, logger: logger}
}

// safePath validates both path components and returns the absolute
// target under the uploads root.
func (h *UploadHandler) safePath(rawSlug, filename string) (string, string, error) {
	s, err := slug.Validate(rawSlug)
	if err != nil {
		return "", "", err
	}
	if filename == "" {
		return "", "", apperr.Validation("filename", "filename is required")
	}
	cleaned := filepath.Clean(filename)
	if cleaned != filepath.Base(cleaned) || strings.Contains(cleaned, "..") || cleaned == "." {
		return "", "", apperr.Validation("filename", fmt.Sprintf("invalid filename: %s", filename))
	}
	return s, filepath.Join(h.root, s, cleaned), nil
}

// Upload handles POST /admin/api/blog/{slug}/uploads
// (multipart/form-data, field "file"). The post must exist.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	rawSlug := chi.URLParam(r, "slug")

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "validation", "file too large or invalid multipart")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation", "missing 'file' field in multipart form")
		return
	}
	defer file.Close()

	s, abs, err := h.safePath(rawSlug, header.Filename)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	if _, _, err := h.repo.Get(s); err != nil {
		writeAppError(w, h.logger, err)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeAppError(w, h.logger, apperr.Persistence("read upload", err))
		return
	}

	// Atomic write, same as every other file in the tree: a mid-copy
	// failure must never leave a partial file behind the public URL.
	dir, err := filestore.NewDir(filepath.Dir(abs))
	if err != nil {
		writeAppError(w, h.logger, apperr.Persistence("create upload dir", err))
		return
	}
	name := filepath.Base(abs)
	if err := dir.Write(name, data); err != nil {
		writeAppError(w, h.logger, err)
		return
	}

	h.logger.Info("upload stored",
		slog.String("slug", s),
		slog.String("filename", name),
		slog.Int("size", len(data)))
	writeData(w, http.StatusCreated, map[string]any{
		"filename": name,
		"size":     len(data),
		"url":      "/uploads/" + s + "/" + name,
	})
}

// ServeFile handles GET /uploads/{slug}/{filename}.
func (h *UploadHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	_, abs, err := h.safePath(chi.URLParam(r, "slug"), chi.URLParam(r, "filename"))
	if err != nil {
		var verr *apperr.ValidationError
		if errors.Is(err, apperr.ErrInvalidSlug) || errors.As(err, &verr) {
			http.NotFound(w, r)
			return
		}
		writeAppError(w, h.logger, err)
		return
	}
	if _, statErr := os.Stat(abs); os.IsNotExist(statErr) {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, abs)
}
