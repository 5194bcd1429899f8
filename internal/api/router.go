package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RouterConfig bundles the handlers behind the router.
type RouterConfig struct {
	Handler *Handler
	Blog    *BlogHandler
	Uploads *UploadHandler
	// Gate wraps every admin route except login.
	Gate func(http.Handler) http.Handler
	// Events, if non-nil, is mounted at GET /admin/api/events.
	Events http.Handler
	// AdminEnabled mounts the /admin tree; when false the deployment
	// exposes the read-only surface only.
	AdminEnabled bool
}

// NewRouter creates the chi router with all routes mounted.
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health/live", healthOK)
	r.Get("/health/ready", healthOK)

	r.Get("/api/blog", cfg.Blog.PublicList)
	r.Get("/api/blog/{slug}", cfg.Blog.PublicGet)
	r.Get("/uploads/{slug}/{filename}", cfg.Uploads.ServeFile)

	if cfg.AdminEnabled {
		r.Route("/admin/api", func(r chi.Router) {
			r.Post("/login", cfg.Handler.Login)

			r.Group(func(r chi.Router) {
				r.Use(cfg.Gate)
				r.Post("/logout", cfg.Handler.Logout)
				r.Get("/session", cfg.Handler.Session)
				r.Get("/data", cfg.Handler.GetData)
				r.Post("/data", cfg.Handler.SaveData)
				r.Get("/blog", cfg.Blog.AdminList)
				r.Post("/blog", cfg.Blog.Create)
				r.Put("/blog", cfg.Blog.Update)
				r.Delete("/blog", cfg.Blog.Delete)
				r.Post("/blog/{slug}/uploads", cfg.Uploads.Upload)
				if cfg.Events != nil {
					r.Get("/events", cfg.Events.ServeHTTP)
				}
			})
		})
	}

	return r
}

func healthOK(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
