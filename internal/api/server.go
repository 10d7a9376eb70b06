// Package api provides the HTTP server for lingopal.
// It is the presentation surface of the engagement engine: the reading app
// posts events and renders the reward deltas it gets back.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/lingopal/lingopal/internal/app/engagement"
	"github.com/lingopal/lingopal/internal/domain"
	"github.com/lingopal/lingopal/internal/health"
)

// Version is reported by /api/version.
const Version = "0.1.0"

// Server is the lingopal HTTP API server.
type Server struct {
	svc            *engagement.Service
	log            *zap.Logger
	health         *health.Checker
	metricsEnabled bool
}

// NewServer creates a new API server over svc.
func NewServer(svc *engagement.Service, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{svc: svc, log: log.Named("api")}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// SetHealth attaches a checker whose latest results /health reports.
func (s *Server) SetHealth(c *health.Checker) { s.health = c }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(corsMiddleware)

	r.Get("/health", s.handleHealth)

	r.Get("/api/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"version": Version,
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/progress", s.handleProgress)
		r.Get("/pet", s.handlePet)
		r.Get("/pet/tracks", s.handleTracks)
		r.Get("/achievements", s.handleAchievements)
		r.Get("/milestone", s.handleMilestone)
		r.Get("/quests", s.handleQuests)
		r.Get("/shop", s.handleShop)
		r.Get("/rewards/streak", s.handleStreakPreview)
		r.Get("/notices/policy", s.handleNoticePolicy)

		r.Route("/events", func(r chi.Router) {
			r.Post("/reading", s.handleReading)
			r.Post("/answer", s.handleAnswer)
			r.Post("/quiz/end", s.handleQuizEnd)
			r.Post("/login", s.handleLogin)
		})

		r.Post("/pet/evolution/{id}/ack", s.handleEvolutionAck)
		r.Post("/pet/evolution/cancel", s.handleEvolutionCancel)
		r.Post("/quests/{id}/claim", s.handleQuestClaim)
		r.Post("/shop/{item}/buy", s.handleBuy)
	})

	// Prometheus metrics endpoint
	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

// requestLogger logs one line per request at debug level.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("took", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

// handleHealth reports the checker's latest results, or plain ok when no
// checker is attached.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health == nil {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
		return
	}
	status, code := "ok", http.StatusOK
	if !s.health.IsHealthy() {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{
		"status": status,
		"checks": s.health.Statuses(),
	})
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    "error",
		},
	})
}

// statusFor maps engine errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrQuestNotFound),
		errors.Is(err, domain.ErrItemNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNoPendingTransition),
		errors.Is(err, domain.ErrTransitionMismatch),
		errors.Is(err, domain.ErrQuestNotCompleted),
		errors.Is(err, domain.ErrQuestAlreadyClaimed):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInsufficientCoins):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err with its mapped status. Server errors are logged.
func (s *Server) fail(w http.ResponseWriter, err error) {
	status := statusFor(err)
	switch {
	case domain.IsConfigurationError(err):
		s.log.Error("configuration error", zap.Error(err))
	case status >= http.StatusInternalServerError:
		s.log.Error("request failed", zap.Error(err))
	}
	writeError(w, status, err.Error())
}

// corsMiddleware adds CORS headers for local development.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
