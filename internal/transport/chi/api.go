package chi

import "time"

// ErrorResponseCode is a machine-readable error code.
type ErrorResponseCode string

// Error codes.
const (
	ErrorResponseCodeBadRequest             ErrorResponseCode = "bad_request"
	ErrorResponseCodeUnauthorized           ErrorResponseCode = "unauthorized"
	ErrorResponseCodeValidationFailed       ErrorResponseCode = "validation_failed"
	ErrorResponseCodeUnsupportedFilter      ErrorResponseCode = "unsupported_filter_value"
	ErrorResponseCodeInvalidSettings        ErrorResponseCode = "invalid_settings"
	ErrorResponseCodeCollectionNotFound     ErrorResponseCode = "collection_not_found"
	ErrorResponseCodeEmbeddingFailure       ErrorResponseCode = "embedding_failure"
	ErrorResponseCodeEmbeddingProviderError ErrorResponseCode = "embedding_provider_error"
	ErrorResponseCodeStoreUnavailable       ErrorResponseCode = "store_unavailable"
	ErrorResponseCodePartialBatchFailure    ErrorResponseCode = "partial_batch_failure"
	ErrorResponseCodeInternalError          ErrorResponseCode = "internal_error"
)

// ErrorResponse is the error body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorResponseCode `json:"code"`
	Message string            `json:"message"`
	Failed  []string          `json:"failed,omitempty"`
}

// MessageResponse is returned by the admin commands.
type MessageResponse struct {
	Message string `json:"message"`
}

// MigrateParams are the query parameters of POST /v1/admin/migrate.
type MigrateParams struct {
	FailFast *bool `form:"fail_fast,omitempty" json:"fail_fast,omitempty"`
	Resume   *bool `form:"resume,omitempty" json:"resume,omitempty"`
}

// MigrationReport summarizes a migration run.
type MigrationReport struct {
	Message     string   `json:"message,omitempty"`
	Pages       int      `json:"pages"`
	Exported    int      `json:"exported"`
	Loaded      int      `json:"loaded"`
	Failed      []string `json:"failed,omitempty"`
	ResumedFrom string   `json:"resumed_from,omitempty"`
	DurationMs  int64    `json:"duration_ms"`
}

// RecordItem is one caller-supplied source record.
type RecordItem struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload"`
}

// RecordsRequest is the body of POST /v1/records.
type RecordsRequest struct {
	Records []RecordItem `json:"records"`
}

// SearchRequest is the body of POST /v1/search.
type SearchRequest struct {
	Query  string `json:"query"`
	Filter any    `json:"filter,omitempty"`
}

// SearchResultItem is one fused hit.
type SearchResultItem struct {
	ID      string         `json:"id"`
	Score   float64        `json:"score"`
	Payload map[string]any `json:"payload,omitempty"`
	Vector  []float32      `json:"vector,omitempty"`
}

// SearchResponse is the body of a successful search.
type SearchResponse struct {
	Items     []SearchResultItem `json:"items"`
	K         int                `json:"k"`
	Threshold float64            `json:"threshold"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks"`
	CheckedAt time.Time         `json:"checked_at"`
}
