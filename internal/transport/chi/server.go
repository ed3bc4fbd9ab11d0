// Package chi implements the HTTP API over the retrieval use cases. Route
// registration lives in the composition root; this package owns the handlers
// and the domain-error to status-code mapping.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/carewell-ai/polisearch/internal/domain"
	dommode "github.com/carewell-ai/polisearch/internal/domain/sermon"
	logpkg "github.com/carewell-ai/polisearch/internal/logger"
	healthuc "github.com/carewell-ai/polisearch/internal/usecase/health"
	retrieveuc "github.com/carewell-ai/polisearch/internal/usecase/retrieve"
	sermonuc "github.com/carewell-ai/polisearch/internal/usecase/sermon"
)

type errorCode string

const (
	codeBadRequest             errorCode = "bad_request"
	codeEmptyQuery             errorCode = "empty_query"
	codeInvalidMode            errorCode = "invalid_mode"
	codeEmbeddingProviderError errorCode = "embedding_provider_error"
	codePoolExhausted          errorCode = "pool_exhausted"
	codeStoreQueryFailed       errorCode = "store_query_failed"
	codeUnauthorized           errorCode = "unauthorized"
	codeInternalError          errorCode = "internal_error"
)

type errorResponse struct {
	Code    errorCode `json:"code"`
	Message string    `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server exposes policy retrieval, sermon search, and health over HTTP.
// Handlers log through the request-scoped logger the logging middleware puts
// in the context, so error lines carry the request id.
type Server struct {
	retrieve      *retrieveuc.Service
	sermons       *sermonuc.Service
	health        *healthuc.Service
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	retrieve *retrieveuc.Service,
	sermons *sermonuc.Service,
	health *healthuc.Service,
) *Server {
	s := &Server{
		retrieve: retrieve,
		sermons:  sermons,
		health:   health,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrEmptyQuery, http.StatusBadRequest, codeEmptyQuery),
		sentinelHandler(domain.ErrInvalidMode, http.StatusBadRequest, codeInvalidMode),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeEmbeddingProviderError),
		sentinelHandler(domain.ErrPoolExhausted, http.StatusServiceUnavailable, codePoolExhausted),
		sentinelHandler(domain.ErrStoreQuery, http.StatusInternalServerError, codeStoreQueryFailed),
	}
	return s
}

// Retrieve handles POST /api/v1/retrieve.
func (s *Server) Retrieve(w http.ResponseWriter, r *http.Request) {
	var req retrieveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	res, err := s.retrieve.Retrieve(r.Context(), req.toDomain())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, retrieveResultToDTO(res))
}

// SearchSermons handles POST /api/v1/sermons/search.
func (s *Server) SearchSermons(w http.ResponseWriter, r *http.Request) {
	var req sermonSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	res, err := s.sermons.Search(r.Context(), sermonuc.Request{
		Query: req.Query,
		Mode:  dommode.Mode(req.Mode),
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, sermonResultToDTO(res))
}

// HealthCheck handles GET /api/v1/health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code errorCode, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without
// exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrEmptyQuery,
		domain.ErrInvalidMode,
		domain.ErrEmbeddingProviderError,
		domain.ErrPoolExhausted,
		domain.ErrStoreQuery,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code errorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContext(r.Context())
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("unmapped domain error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
