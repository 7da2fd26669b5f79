// Package httpapi serves the similarity engine over HTTP with chi.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"cardsim/internal/domain"
	logpkg "cardsim/internal/logger"
	"cardsim/internal/metrics"
)

// Error codes returned in ErrorResponse.Code.
const (
	CodeBadRequest   = "bad_request"
	CodeCardNotFound = "card_not_found"
	CodeInternal     = "internal_error"
)

// Limits bounds the page size of similar-card queries.
type Limits struct {
	DefaultLimit int
	MaxLimit     int
}

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SimilarResponse is the JSON body of a similar-card query.
type SimilarResponse struct {
	Card   string         `json:"card"`
	N      int            `json:"n"`
	Offset int            `json:"offset"`
	Items  []domain.Match `json:"items"`
}

// Server exposes a SimilarityEngine over HTTP.
type Server struct {
	engine domain.SimilarityEngine
	limits Limits
	logger *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(engine domain.SimilarityEngine, limits Limits, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if limits.MaxLimit <= 0 {
		limits.MaxLimit = 100
	}
	if limits.DefaultLimit <= 0 || limits.DefaultLimit > limits.MaxLimit {
		limits.DefaultLimit = min(10, limits.MaxLimit)
	}
	return &Server{engine: engine, limits: limits, logger: logger}
}

// Router builds the chi router with recovery, request ids, access logging
// and metrics.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(s.logger))
	r.Use(metrics.Middleware())

	r.Get("/healthz", s.Health)
	r.Get("/stats", s.Stats)
	r.Get("/cards/{name}", s.GetCard)
	r.Get("/cards/{name}/similar", s.GetSimilar)
	r.Handle("/metrics", promhttp.Handler())
	return r
}

// Health handles GET /healthz.
func (s *Server) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "build_id": s.engine.Stats().BuildID})
}

// Stats handles GET /stats.
func (s *Server) Stats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Stats())
}

// GetCard handles GET /cards/{name}.
func (s *Server) GetCard(w http.ResponseWriter, r *http.Request) {
	name, ok := s.cardName(w, r)
	if !ok {
		return
	}
	card, err := s.engine.GetCardByName(name)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

// GetSimilar handles GET /cards/{name}/similar?n=&offset=.
func (s *Server) GetSimilar(w http.ResponseWriter, r *http.Request) {
	name, ok := s.cardName(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	n, err := intParam(q, "n", s.limits.DefaultLimit)
	if err != nil || n < 1 {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "n must be a positive integer")
		return
	}
	n = min(n, s.limits.MaxLimit)
	offset, err := intParam(q, "offset", 0)
	if err != nil || offset < 0 {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "offset must be a non-negative integer")
		return
	}

	matches, err := s.engine.Similar(name, n, offset)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SimilarResponse{Card: name, N: n, Offset: offset, Items: matches})
}

func (s *Server) cardName(w http.ResponseWriter, r *http.Request) (string, bool) {
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil || name == "" {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid card name")
		return "", false
	}
	return name, true
}

func intParam(q url.Values, key string, def int) (int, error) {
	raw := q.Get(key)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		writeError(w, http.StatusNotFound, CodeCardNotFound, err.Error())
		return
	}
	logpkg.FromContext(r.Context()).Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternal, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}
