// Package httpapi exposes the bundle store over a small local JSON API.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nikbrunner/bundles/internal/logger"
	"github.com/nikbrunner/bundles/internal/search"
	"github.com/nikbrunner/bundles/internal/storage"
)

// Deps holds what the handlers need.
type Deps struct {
	Store     *storage.Store
	Logger    logger.Logger
	Threshold int
	Search    search.Options
	StartTime time.Time
}

// Server wraps the HTTP server and its router.
type Server struct {
	http   *http.Server
	logger logger.Logger
}

// NewRouter builds the chi router with every route and middleware.
func NewRouter(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = logger.Nop()
	}
	if d.StartTime.IsZero() {
		d.StartTime = time.Now()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))
	r.Use(logRequests(d.Logger))

	h := &handlers{deps: d}
	r.Get("/healthz", h.healthz)

	r.Route("/bundles", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)

		r.Route("/{name}", func(r chi.Router) {
			r.Get("/", h.get)
			r.Patch("/", h.update)
			r.Delete("/", h.remove)
			r.Post("/pin", h.setPinned(true))
			r.Post("/unpin", h.setPinned(false))
			r.Post("/top", h.moveToTop)
			r.Post("/bottom", h.moveToBottom)
		})
	})

	return r
}

// New builds the server listening on addr.
func New(addr string, d Deps) *Server {
	if d.Logger == nil {
		d.Logger = logger.Nop()
	}
	return &Server{
		http: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(d),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
			MaxHeaderBytes:    1 << 20,
			ErrorLog:          logger.StdLog(d.Logger),
		},
		logger: d.Logger,
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", logger.String("addr", s.http.Addr))
		err := s.http.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("http server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
