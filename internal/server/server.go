// Package server implements the HTTP server that exposes the shiksha
// educational RAG backend as a REST API: textbook ingestion, textbook chat,
// question-paper generation, answer-sheet correction, OCR, attendance, and
// the student leaderboard. The server is started by `shiksha serve`.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// New constructs a Server fronting the provided domain services.
func New(svc *Services, cfg *Config) (*Server, error) {
	if svc == nil {
		return nil, fmt.Errorf("server: services must not be nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.ReadTimeout == 0 {
		// ReadTimeout must allow full textbook PDFs to upload.
		cfg.ReadTimeout = 2 * time.Minute
	}
	if cfg.WriteTimeout == 0 {
		// Paper generation and grading hold the connection for several
		// model round-trips.
		cfg.WriteTimeout = 5 * time.Minute
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = defaultRateLimit
	}
	if cfg.RateBurst == 0 {
		cfg.RateBurst = defaultRateBurst
	}
	if cfg.MetricsRegistry == nil {
		reg := prometheus.NewRegistry()
		cfg.MetricsRegistry = reg
		cfg.MetricsGatherer = reg
	}

	s := &Server{
		svc:     svc,
		cfg:     cfg,
		log:     cfg.Logger,
		pingers: cfg.Pingers,
		metrics: newServerMetrics(cfg.MetricsRegistry),
	}

	rl, stopRL := newRateLimiter(cfg.RateLimit, cfg.RateBurst, cfg.Logger)
	s.stopRL = stopRL

	if cfg.APIKey == "" {
		cfg.Logger.Warn("api authentication disabled: SHIKSHA_API_KEY not set")
	}

	mux := http.NewServeMux()

	// Unprotected operational endpoints.
	mux.Handle("GET /api/health", s.instrument("health", http.HandlerFunc(s.handleHealth)))
	mux.Handle("GET /api/ready", s.instrument("ready", http.HandlerFunc(s.handleReady)))
	if cfg.MetricsGatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(cfg.MetricsGatherer, promhttp.HandlerOpts{}))
	}

	// Domain endpoints, behind auth and the per-IP rate limit. Routes whose
	// backing service is nil are left unregistered and return 404.
	s.registerAPIRoutes(mux, func(name string, h http.HandlerFunc) http.Handler {
		return authMiddleware(cfg.APIKey, rl.middleware(s.instrument(name, h)))
	})

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      requestLogger(cfg.Logger, mux),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s, nil
}

// registerAPIRoutes mounts all protected domain routes on mux. wrap applies
// the middleware chain (metrics, rate limit, auth) to each handler.
func (s *Server) registerAPIRoutes(mux *http.ServeMux, wrap func(name string, h http.HandlerFunc) http.Handler) {
	if s.svc.Ingestor != nil {
		mux.Handle("POST /api/textbooks", wrap("textbooks", s.handleTextbookUpload))
	}
	if s.svc.Collections != nil {
		mux.Handle("GET /api/collections", wrap("collections", s.handleCollections))
	}
	if s.svc.Tutor != nil {
		mux.Handle("POST /api/chat", wrap("chat", s.handleChat))
	}
	if s.svc.Papers != nil {
		mux.Handle("POST /api/papers", wrap("papers", s.handlePaperCreate))
		mux.Handle("GET /api/papers", wrap("papers", s.handlePaperList))
		mux.Handle("GET /api/papers/{id}", wrap("papers", s.handlePaperGet))
	}
	if s.svc.Grader != nil {
		mux.Handle("POST /api/corrections", wrap("corrections", s.handleCorrection))
	}
	if s.svc.OCR != nil {
		mux.Handle("POST /api/ocr", wrap("ocr", s.handleOCR))
	}
	if s.svc.Attendance != nil {
		mux.Handle("POST /api/attendance", wrap("attendance", s.handleAttendance))
	}
	if s.svc.Leaderboard != nil {
		mux.Handle("GET /api/leaderboard", wrap("leaderboard", s.handleLeaderboardList))
		mux.Handle("POST /api/leaderboard/seed", wrap("leaderboard", s.handleLeaderboardSeed))
		mux.Handle("GET /api/leaderboard/{studentID}", wrap("leaderboard", s.handleLeaderboardReport))
		mux.Handle("PUT /api/leaderboard/{studentID}/marks", wrap("leaderboard", s.handleLeaderboardMarks))
	}
}

// Start begins listening and serving HTTP requests. It blocks until the
// context is cancelled, then performs a graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.log.Info("server listening", slog.String("addr", "http://"+s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		s.stopRL()
		return fmt.Errorf("server: listen error: %w", err)
	case <-ctx.Done():
		s.stopRL()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: graceful shutdown failed: %w", err)
		}
		return nil
	}
}

// instrument wraps h so that every request increments the HTTP request
// counter and observes its latency, labelled by the logical handler name.
func (s *Server) instrument(name string, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		start := time.Now()
		h.ServeHTTP(rw, r)
		elapsed := time.Since(start)

		s.metrics.httpRequestsTotal.WithLabelValues(r.Method, name, strconv.Itoa(rw.status)).Inc()
		s.metrics.httpDurationSeconds.WithLabelValues(r.Method, name).Observe(elapsed.Seconds())
	})
}

// writeJSON encodes v as the JSON response body with the given status code.
// Encoding failures are logged rather than surfaced; headers are already out.
func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("response encode error",
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
	}
}
