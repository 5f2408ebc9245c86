package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/desertthunder/playlister/internal/auth"
	"github.com/desertthunder/playlister/internal/engine"
	"github.com/desertthunder/playlister/internal/shared"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Handler mounts the routes of one resource.
type Handler interface {
	Routes(r chi.Router)
}

// Options configures a [Server].
type Options struct {
	Server shared.ServerConfig
	Auth   shared.AuthConfig
	Logger *log.Logger
}

// Server serves the playlist API.
type Server struct {
	engine *engine.Engine
	issuer *auth.Issuer
	cfg    shared.ServerConfig
	secure bool
	logger *log.Logger
}

// New creates a [Server] backed by eng.
func New(eng *engine.Engine, issuer *auth.Issuer, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	return &Server{
		engine: eng,
		issuer: issuer,
		cfg:    opts.Server,
		secure: opts.Auth.CookieSecure,
		logger: shared.WithLogger(logger, "component", "server"),
	}
}

// Router builds the full route tree with middleware applied.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		RequestLogger(s.logger),
		CORS(s.cfg.CORSOrigin),
		RateLimit(s.cfg.RequestsPerSecond, s.cfg.Burst),
		s.Authenticate,
	)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"}, "")
	})

	r.Route("/api", func(r chi.Router) {
		for path, h := range map[string]Handler{
			"/auth":      &authHandler{s},
			"/users":     &userHandler{s},
			"/songs":     &songHandler{s},
			"/playlists": &playlistHandler{s},
		} {
			r.Route(path, h.Routes)
		}
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then drains in-flight requests.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
		close(serverErrors)
	}()

	select {
	case err, ok := <-serverErrors:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
