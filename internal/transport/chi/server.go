package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/answerdex/internal/domain"
	logpkg "github.com/kailas-cloud/answerdex/internal/logger"
	healthuc "github.com/kailas-cloud/answerdex/internal/usecase/health"
)

// Error codes returned in the JSON error envelope.
const (
	codeBadRequest            = "bad_request"
	codeUnauthorized          = "unauthorized"
	codeInvalidQuery          = "invalid_query"
	codeNotFound              = "not_found"
	codeRetrievalUnavailable  = "retrieval_unavailable"
	codeGenerationTimeout     = "generation_timeout"
	codeGenerationUnavailable = "generation_unavailable"
	codeEmbeddingFailure      = "embedding_failure"
	codeStoreUnavailable      = "store_unavailable"
	codeInternalError         = "internal_error"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Defaults are server-wide request defaults; per-request fields override them.
type Defaults struct {
	Strategy      string
	WeightLexical float64
	WeightVector  float64
}

// Server exposes the answer pipeline over HTTP.
type Server struct {
	answer        AnswerService
	search        SearchService
	documents     DocumentReader
	health        HealthService
	defaults      Defaults
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	answer AnswerService,
	search SearchService,
	documents DocumentReader,
	health HealthService,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		answer:    answer,
		search:    search,
		documents: documents,
		health:    health,
		logger:    logger,
	}
	// Order matters: a double retrieval failure wraps both
	// ErrRetrievalUnavailable and ErrEmbeddingFailure and must map to 503.
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, codeInvalidQuery),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrRetrievalUnavailable, http.StatusServiceUnavailable, codeRetrievalUnavailable),
		sentinelHandler(domain.ErrGenerationTimeout, http.StatusGatewayTimeout, codeGenerationTimeout),
		sentinelHandler(domain.ErrGenerationUnavailable, http.StatusServiceUnavailable, codeGenerationUnavailable),
		sentinelHandler(domain.ErrEmbeddingFailure, http.StatusBadGateway, codeEmbeddingFailure),
		sentinelHandler(domain.ErrStoreUnavailable, http.StatusServiceUnavailable, codeStoreUnavailable),
	}
	return s
}

// WithDefaults sets server-wide fusion defaults for incoming requests.
func (s *Server) WithDefaults(d Defaults) *Server {
	s.defaults = d
	return s
}

// Register mounts all API routes on the router.
func (s *Server) Register(r chi.Router) {
	r.Post("/v1/answer", s.handleAnswer)
	r.Post("/v1/search", s.handleSearch)
	r.Get("/v1/documents/{id}", s.handleGetDocument)
	r.Get("/health", s.handleHealth)
	r.Get("/metrics", s.handleMetrics)
}

// handleAnswer handles POST /v1/answer.
func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	areq, err := req.toDomain(s.defaults)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	res, err := s.answer.Answer(ctx, &areq)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	ids := res.UsedDocumentIDs
	if ids == nil {
		ids = []string{}
	}

	setUsageHeaders(w, usage)
	writeJSON(w, http.StatusOK, answerResponse{
		Answer:          res.Answer,
		UsedDocumentIDs: ids,
		Degraded:        res.Degraded,
		Grounded:        res.Grounded,
	})
}

// handleSearch handles POST /v1/search.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	sreq, err := req.toDomain(s.defaults)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	out, err := s.search.Search(ctx, &sreq)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	setUsageHeaders(w, usage)
	writeJSON(w, http.StatusOK, searchResponseFrom(out))
}

// handleGetDocument handles GET /v1/documents/{id}.
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	p, err := s.documents.GetByID(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, documentResponse{
		ID:          p.ID(),
		Title:       p.Title(),
		Description: p.Description(),
	})
}

// handleHealth handles GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
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

// handleMetrics handles GET /metrics.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func setUsageHeaders(w http.ResponseWriter, usage *domain.Usage) {
	if usage == nil {
		return
	}
	if usage.EmbeddingUsed {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(usage.EmbeddingTokens))
	}
	if usage.GenerationUsed {
		w.Header().Set("X-Generation-Tokens", strconv.Itoa(usage.GenerationTokens))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: errorBody{
		Code:    code,
		Message: message,
	}})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidQuery,
		domain.ErrNotFound,
		domain.ErrRetrievalUnavailable,
		domain.ErrGenerationTimeout,
		domain.ErrGenerationUnavailable,
		domain.ErrEmbeddingFailure,
		domain.ErrStoreUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// handleDomainError maps a domain error to an HTTP response. It logs through
// the request-scoped logger when the middleware injected one, so error lines
// carry the same request_id as the canonical request log.
func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContext(r.Context(), s.logger)
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
