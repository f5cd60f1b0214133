package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/vbonduro/glassinv/internal/service"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	inventory *service.InventoryService
	images    *service.ImageService
	tags      *service.TagService
	metrics   *metrics
	mux       *http.ServeMux
	logger    *slog.Logger
}

func NewServer(inv *service.InventoryService, images *service.ImageService, tags *service.TagService, logger *slog.Logger) *Server {
	s := &Server{
		inventory: inv,
		images:    images,
		tags:      tags,
		metrics:   newMetrics(),
		mux:       http.NewServeMux(),
		logger:    logger,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.Handle("GET /metrics", s.metrics.handler())

	s.mux.HandleFunc("GET /locations", s.handleLocationNames)
	s.mux.HandleFunc("GET /locations/{name}/inventories", s.handleInventoriesInLocation)
	s.mux.HandleFunc("GET /inventory/{id}/locations", s.handleFetchLocations)
	s.mux.HandleFunc("PUT /inventory/{id}/locations", s.handleReplaceLocations)
	s.mux.HandleFunc("POST /inventory/{id}/locations/add", s.handleAddQuantity)
	s.mux.HandleFunc("POST /inventory/{id}/locations/subtract", s.handleSubtractQuantity)
	s.mux.HandleFunc("POST /inventory/{id}/locations/move", s.handleMoveQuantity)

	s.mux.HandleFunc("GET /items/{stableID}/summary", s.handleItemSummary)
	s.mux.HandleFunc("GET /tags", s.handleTagNames)
	s.mux.HandleFunc("GET /tags/usage", s.handleTagUsage)

	s.mux.HandleFunc("POST /images", s.handleUploadImage)
	s.mux.HandleFunc("GET /images/{id}", s.handleGetImage)
	s.mux.HandleFunc("DELETE /images/{id}", s.handleDeleteImage)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// securityHeaders sets browser hardening headers on every response.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Content-Security-Policy", "default-src 'none'; img-src 'self'")
		next.ServeHTTP(w, r)
	})
}

// statusRecorder wraps http.ResponseWriter to capture the written status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// requestLogger logs and counts every request. The route label is the
// matched mux pattern so ids in paths do not explode metric cardinality.
func requestLogger(logger *slog.Logger, m *metrics, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		elapsed := time.Since(start)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		m.observe(r.Method, route, rec.status, elapsed)
		logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", elapsed.Milliseconds(),
		)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestLogger(s.logger, s.metrics, securityHeaders(s.mux)).ServeHTTP(w, r)
}

// Run serves on addr until ctx is cancelled, then drains in-flight requests
// for up to shutdownTimeout.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
