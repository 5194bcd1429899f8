// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/harlan/vitrin/internal/api"
	"github.com/harlan/vitrin/internal/auth"
	"github.com/harlan/vitrin/internal/blog"
	"github.com/harlan/vitrin/internal/filestore"
	"github.com/harlan/vitrin/internal/mcpserver"
	"github.com/harlan/vitrin/internal/ratelimit"
	"github.com/harlan/vitrin/internal/revalidate"
	"github.com/harlan/vitrin/internal/session"
	"github.com/harlan/vitrin/internal/sse"
)

// postsSubdir is where post content files live under the data dir.
const postsSubdir = "blog/posts"

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("data_dir", cfg.Content.DataDir),
		slog.String("uploads_dir", cfg.Content.UploadsDir),
		slog.Bool("admin_enabled", cfg.Admin.Enabled),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Ensure content directories exist.
	if err := os.MkdirAll(cfg.Content.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	if err := os.MkdirAll(cfg.Content.UploadsDir, 0o755); err != nil {
		return fmt.Errorf("create uploads dir: %w", err)
	}

	// Revalidation fan-out: admin writes and external edits both land
	// here; subscribers are the SSE broker and the post cache.
	hub := revalidate.NewHub(logger)
	broker := sse.NewBroker()
	defer broker.Close()
	hub.Subscribe(broker.Invalidate)

	store, repo, cache, uploads, err := buildContent(cfg, hub, logger)
	if err != nil {
		return err
	}
	hub.Subscribe(cache.HandleInvalidation)

	routerCfg := api.RouterConfig{
		Blog:         api.NewBlogHandler(repo, cache, broker, logger),
		Uploads:      uploads,
		Events:       broker,
		AdminEnabled: cfg.Admin.Enabled,
	}

	if cfg.Admin.Enabled {
		sessions := session.NewManager([]byte(cfg.Admin.SessionSecret), cfg.Admin.SessionTTL(), cfg.Admin.CookieSecure)
		limiter := ratelimit.New(ratelimit.DefaultMaxKeys)
		authn := auth.New(cfg.Admin.Password, limiter, sessions, logger,
			cfg.Admin.LoginMaxAttempts, cfg.Admin.LoginWindow())

		routerCfg.Handler = api.NewHandler(authn, sessions, store, logger)
		routerCfg.Gate = api.RouteGate(sessions, "/admin/login")
	}

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: api.NewRouter(routerCfg),
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Watch the data dir so out-of-band edits trigger revalidation too.
	g.Go(func() error {
		if err := filestore.Watch(gCtx, cfg.Content.DataDir, logger, hub); err != nil {
			logger.Warn("data dir watcher stopped", slog.String("error", err.Error()))
		}
		return nil
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP starts the MCP stdio server over the same content layer. No
// HTTP, no sessions: the transport is stdin/stdout and access control
// is whoever can exec the binary.
func RunMCP(ctx context.Context, opts ...Option) error {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := app.config

	// Logs go to stderr: stdout carries the MCP protocol.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	if err := os.MkdirAll(cfg.Content.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	store, repo, _, _, err := buildContent(cfg, revalidate.Nop{}, logger)
	if err != nil {
		return err
	}

	logger.Info("Starting MCP server on stdio", slog.String("data_dir", cfg.Content.DataDir))
	return mcpserver.New(repo, store).ServeStdio()
}

// buildContent wires the store, repository, cache, and upload handler
// shared by the HTTP and MCP entrypoints.
func buildContent(cfg *Config, notifier revalidate.Notifier, logger *slog.Logger) (*filestore.Store, *blog.Repository, *blog.Cache, *api.UploadHandler, error) {
	store, err := filestore.NewStore(cfg.Content.DataDir, notifier, logger)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("init file store: %w", err)
	}
	content, err := filestore.NewDir(filepath.Join(cfg.Content.DataDir, postsSubdir))
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("init content dir: %w", err)
	}
	uploadsDir, err := filestore.NewDir(cfg.Content.UploadsDir)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("init uploads dir: %w", err)
	}

	repo := blog.NewRepository(store, content, uploadsDir, notifier, logger)
	cache := blog.NewCache(repo, cfg.Content.CacheTTL())
	uploads := api.NewUploadHandler(cfg.Content.UploadsDir, repo, logger)
	return store, repo, cache, uploads, nil
}
