package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/harlan/vitrin/internal/apperr"
	"github.com/harlan/vitrin/internal/blog"
	"github.com/harlan/vitrin/internal/sse"
)

// BlogHandler serves the public read endpoints and the gated CRUD
// endpoints over the blog repository.
type BlogHandler struct {
	repo   *blog.Repository
	cache  *blog.Cache
	broker *sse.Broker
	logger *slog.Logger
}

// NewBlogHandler creates a BlogHandler. broker may be nil when no event
// feed is wired.
func NewBlogHandler(repo *blog.Repository, cache *blog.Cache, broker *sse.Broker, logger *slog.Logger) *BlogHandler {
	return &BlogHandler{repo: repo, cache: cache, broker: broker, logger: logger}
}

func (h *BlogHandler) publishEvent(kind, slug string) {
	if h.broker != nil {
		h.broker.PublishPostEvent(kind, slug)
	}
}

type postRequest struct {
	Metadata blog.Post `json:"metadata"`
	Content  string    `json:"content"`
}

// PublicList handles GET /api/blog: published posts, newest first,
// optional ?tag= filter.
func (h *BlogHandler) PublicList(w http.ResponseWriter, r *http.Request) {
	posts, err := h.cache.ListPublished(r.URL.Query().Get("tag"))
	if err != nil {
		h.logger.Error("list posts failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
		return
	}
	if posts == nil {
		posts = []blog.Post{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"posts": posts})
}

// PublicGet handles GET /api/blog/{slug}. Drafts are indistinguishable
// from absent posts.
func (h *BlogHandler) PublicGet(w http.ResponseWriter, r *http.Request) {
	post, content, err := h.repo.Get(chi.URLParam(r, "slug"))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) || errors.Is(err, apperr.ErrInvalidSlug) {
			http.NotFound(w, r)
			return
		}
		h.logger.Error("get post failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
		return
	}
	if !post.Published {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"metadata": post,
		"content":  content,
	})
}

// AdminList handles GET /admin/api/blog: every post, drafts included.
func (h *BlogHandler) AdminList(w http.ResponseWriter, r *http.Request) {
	posts, err := h.repo.List()
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	if posts == nil {
		posts = []blog.Post{}
	}
	writeData(w, http.StatusOK, map[string]any{"posts": posts})
}

// Create handles POST /admin/api/blog with body {metadata, content}.
func (h *BlogHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := decodePostRequest(w, r)
	if !ok {
		return
	}
	post, err := h.repo.Create(req.Metadata, req.Content)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	h.publishEvent("created", post.Slug)
	writeData(w, http.StatusCreated, map[string]any{"metadata": post})
}

// Update handles PUT /admin/api/blog with body {metadata, content}.
func (h *BlogHandler) Update(w http.ResponseWriter, r *http.Request) {
	req, ok := decodePostRequest(w, r)
	if !ok {
		return
	}
	post, err := h.repo.Update(req.Metadata, req.Content)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	h.publishEvent("updated", post.Slug)
	writeData(w, http.StatusOK, map[string]any{"metadata": post})
}

// Delete handles DELETE /admin/api/blog?slug=.
func (h *BlogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	slug := r.URL.Query().Get("slug")
	if slug == "" {
		writeError(w, http.StatusBadRequest, "validation", "query parameter 'slug' is required")
		return
	}
	if err := h.repo.Delete(slug); err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	h.publishEvent("deleted", slug)
	writeData(w, http.StatusOK, map[string]any{"slug": slug})
}

func decodePostRequest(w http.ResponseWriter, r *http.Request) (postRequest, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	var req postRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation", "invalid JSON body")
		return postRequest{}, false
	}
	return req, true
}
