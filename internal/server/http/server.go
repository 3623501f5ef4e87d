// Package httpserver exposes the validation API over HTTP.
package httpserver

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/linkpulse/linkpulse/internal/convert"
	"github.com/linkpulse/linkpulse/internal/repository"
	"github.com/linkpulse/linkpulse/internal/validator"
)

// Server wires the validator into HTTP handlers.
type Server struct {
	validator *validator.Validator
	events    repository.EventRepository
	log       *zap.Logger
}

// New constructs a Server. events may be nil; the reporting endpoint then
// answers 404.
func New(v *validator.Validator, events repository.EventRepository, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{validator: v, events: events, log: log}
}

// Router builds the chi router with the standard middleware stack. CORS is
// open: the tracking endpoint is called from arbitrary campaign pages.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Post("/api/v1/track", s.handleTrack)
	r.Get("/api/v1/affiliates/{affiliateID}/events", s.handleListEvents)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleTrack validates a click or conversion event. Blocked events answer
// 200 with success=false: the decision is the payload, not the status code.
func (s *Server) handleTrack(w http.ResponseWriter, r *http.Request) {
	var req convert.TrackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad request body"})
		return
	}

	ev, err := convert.ToTrackEvent(req, clientIP(r), r.UserAgent(), r.Referer())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	res := s.validator.Validate(r.Context(), ev)
	writeJSON(w, http.StatusOK, convert.FromValidationResult(res))
}

const (
	defaultEventLimit = 50
	maxEventLimit     = 200
)

// handleListEvents returns the most recent validated events for an affiliate.
func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	if s.events == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "reporting not available"})
		return
	}

	limit := defaultEventLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad limit"})
			return
		}
		if n > maxEventLimit {
			n = maxEventLimit
		}
		limit = n
	}

	affiliateID := chi.URLParam(r, "affiliateID")
	records, err := s.events.ListByAffiliate(r.Context(), affiliateID, limit)
	if err != nil {
		s.log.Error("list events", zap.String("affiliate", affiliateID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, convert.FromEventRecords(records))
}

func clientIP(r *http.Request) string {
	// RealIP middleware rewrites RemoteAddr from proxy headers; strip the
	// port when one survived.
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// requestLogger logs one line per request with latency and status.
func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
			)
		})
	}
}
