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
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/reviewink/internal/api"
	"github.com/starford/reviewink/internal/feedback"
	"github.com/starford/reviewink/internal/feedbackservice"
	"github.com/starford/reviewink/internal/frames"
	"github.com/starford/reviewink/internal/mcpserver"
	"github.com/starford/reviewink/internal/session"
	"github.com/starford/reviewink/internal/sse"
	"github.com/starford/reviewink/internal/storage"
)

// services are the components shared by the HTTP server and the MCP server.
type services struct {
	db       *feedback.DB
	frames   *frames.Service
	feedback *feedbackservice.Service
}

func (a *application) build(logger *slog.Logger, notify feedbackservice.Notifier) (*services, error) {
	cfg := a.config

	store, err := storage.NewFS(cfg.Frames.CachePath)
	if err != nil {
		return nil, fmt.Errorf("init frame cache: %w", err)
	}

	var capturer frames.Capturer
	if cfg.Frames.APIURL != "" {
		c, err := frames.NewHTTPCapturer(cfg.Frames.APIURL, cfg.Frames.Timeout)
		if err != nil {
			return nil, fmt.Errorf("init frame capture: %w", err)
		}
		capturer = c
	} else {
		logger.Warn("frames: no capture api configured, serving cached frames only")
	}
	fs := frames.NewService(store, capturer)

	db, err := feedback.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init feedback store: %w", err)
	}

	opts := []feedbackservice.Option{feedbackservice.WithFrames(fs)}
	if notify != nil {
		opts = append(opts, feedbackservice.WithNotifier(notify))
	}
	return &services{
		db:       db,
		frames:   fs,
		feedback: feedbackservice.NewService(db, opts...),
	}, nil
}

func (a *application) apply(opts []Option) error {
	for _, opt := range opts {
		opt(a)
	}
	if a.config == nil {
		return fmt.Errorf("config is required")
	}
	return nil
}

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}
	if err := app.apply(opts); err != nil {
		return err
	}
	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("frames_cache_path", cfg.Frames.CachePath),
		slog.Bool("frames_capture", cfg.Frames.APIURL != ""),
		slog.Bool("auth_enabled", cfg.Auth.AuthEnabled()),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// SSE broker.
	broker := sse.NewBroker(cfg.App.TimelineThrottle)
	defer broker.Close()

	svc, err := app.build(logger, broker)
	if err != nil {
		return err
	}
	defer svc.db.Close()

	// Live drawing sessions read the drawing section on every connect.
	live := newLiveDrawing(cfg.Drawing)
	sessions := session.NewHandler(svc.feedback, session.NewHub(), live.SessionDefaults)

	apiRouter := api.NewRouter(api.Deps{
		Feedback:    svc.feedback,
		Frames:      svc.frames,
		Sessions:    sessions,
		Events:      broker,
		AuthEnabled: cfg.Auth.AuthEnabled(),
		Token:       cfg.Auth.Token,
	})

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := svc.db.PingContext(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Reload the drawing section when the config file changes.
	if app.configPath != "" {
		g.Go(func() error {
			if err := watchConfig(gCtx, app.configPath, live, logger); err != nil {
				logger.Warn("config watcher disabled", slog.String("error", err.Error()))
			}
			return nil
		})
	}

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
		defer signal.Stop(quit)

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

		// Shutdown does not wait for hijacked session connections.
		broker.Close()
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group so the config watcher stops with the server.
var errShutdown = errors.New("shutdown")

// RunMCP serves the MCP tools on stdin/stdout until the client disconnects.
// Logs go to stderr because stdout carries the protocol.
func RunMCP(_ context.Context, opts ...Option) error {
	app := &application{}
	if err := app.apply(opts); err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: app.config.App.LogLevel,
	}))
	slog.SetDefault(logger)

	svc, err := app.build(logger, nil)
	if err != nil {
		return err
	}
	defer svc.db.Close()

	logger.Info("MCP server starting on stdio")
	return mcpserver.New(svc.feedback, svc.frames).ServeStdio()
}
