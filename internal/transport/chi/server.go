package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/hybridsync/internal/domain"
	domset "github.com/kailas-cloud/hybridsync/internal/domain/settings"
	"github.com/kailas-cloud/hybridsync/internal/logger"
	healthuc "github.com/kailas-cloud/hybridsync/internal/usecase/health"
	migrationuc "github.com/kailas-cloud/hybridsync/internal/usecase/migration"
	searchuc "github.com/kailas-cloud/hybridsync/internal/usecase/search"
)

// Admin command messages.
const (
	MessageInitialized = "Hybrid collection initialized."
	MessagePopulated   = "Hybrid collection populated."
)

const maxRecordsPerRequest = 1000

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Collections names the source and target collections the server operates on.
type Collections struct {
	Source string
	Target string
}

// Server implements the hybridsync HTTP API.
type Server struct {
	lifecycle     Lifecycle
	migrator      Migrator
	search        Searcher
	settings      Settings
	health        HealthChecker
	collections   Collections
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	lifecycle Lifecycle,
	migrator Migrator,
	search Searcher,
	settings Settings,
	health HealthChecker,
	collections Collections,
	logger *zap.Logger,
) *Server {
	s := &Server{
		lifecycle:   lifecycle,
		migrator:    migrator,
		search:      search,
		settings:    settings,
		health:      health,
		collections: collections,
		logger:      logger,
	}
	// Order matters: a partial batch wraps ErrStoreUnavailable.
	s.errorHandlers = []errorHandler{
		partialBatchHandler,
		sentinelHandler(domain.ErrUnsupportedFilterValue, http.StatusBadRequest, ErrorResponseCodeUnsupportedFilter),
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, ErrorResponseCodeValidationFailed),
		sentinelHandler(domain.ErrInvalidSettings, http.StatusBadRequest, ErrorResponseCodeInvalidSettings),
		sentinelHandler(domain.ErrCollectionNotFound, http.StatusNotFound, ErrorResponseCodeCollectionNotFound),
		sentinelHandler(domain.ErrEmbeddingProviderError,
			http.StatusBadGateway, ErrorResponseCodeEmbeddingProviderError),
		sentinelHandler(domain.ErrEmbeddingFailure, http.StatusBadGateway, ErrorResponseCodeEmbeddingFailure),
		sentinelHandler(domain.ErrStoreUnavailable, http.StatusServiceUnavailable, ErrorResponseCodeStoreUnavailable),
	}
	return s
}

// InitCollection handles POST /v1/admin/init.
func (s *Server) InitCollection(w http.ResponseWriter, r *http.Request) {
	if err := s.lifecycle.Reset(r.Context(), s.collections.Target, s.collections.Source); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	logger.FromContext(r.Context()).Info("Hybrid collection reset",
		zap.String("source", s.collections.Source),
		zap.String("target", s.collections.Target),
	)
	writeJSON(w, http.StatusOK, MessageResponse{Message: MessageInitialized})
}

// MigrateCollection handles POST /v1/admin/migrate.
func (s *Server) MigrateCollection(w http.ResponseWriter, r *http.Request, params MigrateParams) {
	ctx := r.Context()
	if _, err := s.lifecycle.EnsureExists(ctx, s.collections.Target, s.collections.Source); err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	opts := migrationuc.Options{FailFast: derefBool(params.FailFast), Resume: derefBool(params.Resume)}
	rep, err := s.migrator.MigrateAll(ctx, s.collections.Source, s.collections.Target, opts)
	if err != nil && !isPartial(err) {
		s.handleDomainError(w, r, err)
		return
	}

	body := reportToAPI(rep)
	if err != nil {
		writeJSON(w, http.StatusMultiStatus, body)
		return
	}
	body.Message = MessagePopulated
	writeJSON(w, http.StatusOK, body)
}

// StoreRecords handles POST /v1/records.
func (s *Server) StoreRecords(w http.ResponseWriter, r *http.Request) {
	var req RecordsRequest
	dec := json.NewDecoder(r.Body)
	dec.UseNumber() // integer metadata must stay integral for exact filter matches
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(req.Records) == 0 || len(req.Records) > maxRecordsPerRequest {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeValidationFailed,
			fmt.Sprintf("records count must be between 1 and %d", maxRecordsPerRequest))
		return
	}

	records := make([]domain.SourceRecord, len(req.Records))
	for i, item := range req.Records {
		if item.ID == "" || len(item.Vector) == 0 {
			writeError(w, http.StatusBadRequest, ErrorResponseCodeValidationFailed,
				fmt.Sprintf("records[%d]: id and vector are required", i))
			return
		}
		records[i] = domain.SourceRecord{ID: item.ID, Dense: item.Vector, Payload: item.Payload}
	}

	rep, err := s.migrator.MigrateIncremental(r.Context(), s.collections.Target, records)
	if err != nil && !isPartial(err) {
		s.handleDomainError(w, r, err)
		return
	}
	status := http.StatusOK
	if err != nil {
		status = http.StatusMultiStatus
	}
	writeJSON(w, status, reportToAPI(rep))
}

// Search handles POST /v1/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	snapshot, err := s.settings.Refresh(ctx)
	if err != nil {
		// Refresh keeps the previous snapshot on failure.
		logger.FromContext(ctx).Warn("Settings refresh failed", zap.Error(err))
		snapshot = s.settings.Current()
	}

	q := searchuc.NewQuery(req.Query, req.Filter, snapshot)
	results, err := s.search.Search(ctx, q)
	setEmbeddingHeaders(w, usage)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]SearchResultItem, len(results))
	for i, res := range results {
		items[i] = SearchResultItem{ID: res.ID, Score: res.Score, Payload: res.Payload, Vector: res.Dense}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Items: items, K: q.K, Threshold: q.Threshold})
}

// GetSettings handles GET /v1/settings.
func (s *Server) GetSettings(w http.ResponseWriter, r *http.Request) {
	current, err := s.settings.Refresh(r.Context())
	if err != nil {
		logger.FromContext(r.Context()).Warn("Settings refresh failed", zap.Error(err))
		current = s.settings.Current()
	}
	writeJSON(w, http.StatusOK, current)
}

// PutSettings handles PUT /v1/settings.
func (s *Server) PutSettings(w http.ResponseWriter, r *http.Request) {
	var req domset.Settings
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	updated, err := s.settings.Update(r.Context(), req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// HealthCheck handles GET /health.
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

	writeJSON(w, httpStatus, HealthResponse{
		Status:    string(report.Status),
		Checks:    checks,
		CheckedAt: time.Now().UTC(),
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func setEmbeddingHeaders(w http.ResponseWriter, usage *domain.EmbeddingUsage) {
	if usage != nil && usage.Used {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(usage.TotalTokens))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorResponseCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrUnsupportedFilterValue,
		domain.ErrInvalidRequest,
		domain.ErrInvalidSettings,
		domain.ErrCollectionNotFound,
		domain.ErrEmbeddingProviderError,
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
func sentinelHandler(sentinel error, status int, code ErrorResponseCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// partialBatchHandler reports the failed ids with 207.
func partialBatchHandler(w http.ResponseWriter, err error, msg string) bool {
	var pe *domain.PartialBatchError
	if !errors.As(err, &pe) {
		return false
	}
	writeJSON(w, http.StatusMultiStatus, ErrorResponse{
		Code:    ErrorResponseCodePartialBatchFailure,
		Message: msg,
		Failed:  pe.Failed,
	})
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	log.Warn("Domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("Internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorResponseCodeInternalError, "internal error")
}

func isPartial(err error) bool {
	var pe *domain.PartialBatchError
	return errors.As(err, &pe)
}

func reportToAPI(rep migrationuc.Report) MigrationReport {
	return MigrationReport{
		Pages:       rep.Pages,
		Exported:    rep.Exported,
		Loaded:      rep.Loaded,
		Failed:      rep.Failed,
		ResumedFrom: rep.ResumedFrom,
		DurationMs:  rep.Duration.Milliseconds(),
	}
}

func derefBool(p *bool) bool {
	if p == nil {
		return false
	}
	return *p
}
