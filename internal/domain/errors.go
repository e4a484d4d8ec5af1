package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrStoreUnavailable signals that the vector store is unreachable or rejected the call.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrEmbeddingFailure signals that the query text could not be vectorized.
	ErrEmbeddingFailure = errors.New("embedding failure")
	// ErrUnsupportedFilterValue signals a metadata filter value of an unknown type.
	ErrUnsupportedFilterValue = errors.New("unsupported filter value")
	// ErrCollectionNotFound signals a missing source or target collection.
	ErrCollectionNotFound = errors.New("collection not found")
	// ErrInvalidSettings signals runtime settings outside their allowed range.
	ErrInvalidSettings = errors.New("invalid settings")
	// ErrInvalidRequest signals a malformed caller request.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
)

// PartialBatchError reports the record ids that could not be loaded.
// Callers can retry exactly the failed subset.
type PartialBatchError struct {
	Failed []string
	Err    error
}

func (e *PartialBatchError) Error() string {
	ids := e.Failed
	suffix := ""
	if len(ids) > 10 {
		ids = ids[:10]
		suffix = fmt.Sprintf(" and %d more", len(e.Failed)-10)
	}
	msg := fmt.Sprintf("partial batch failure: %d record(s) failed [%s%s]",
		len(e.Failed), strings.Join(ids, ", "), suffix)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *PartialBatchError) Unwrap() error { return e.Err }

// NewPartialBatchError creates a partial failure for the given ids.
func NewPartialBatchError(failed []string, cause error) error {
	return &PartialBatchError{Failed: failed, Err: cause}
}

// FailedIDs extracts the failed ids from err, if it carries a PartialBatchError.
func FailedIDs(err error) []string {
	var pe *PartialBatchError
	if errors.As(err, &pe) {
		return pe.Failed
	}
	return nil
}
