package hybrid

import "github.com/kailas-cloud/hybridsync/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrStoreUnavailable       = domain.ErrStoreUnavailable
	ErrEmbeddingFailure       = domain.ErrEmbeddingFailure
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
	ErrUnsupportedFilterValue = domain.ErrUnsupportedFilterValue
	ErrCollectionNotFound     = domain.ErrCollectionNotFound
	ErrInvalidSettings        = domain.ErrInvalidSettings
	ErrInvalidRequest         = domain.ErrInvalidRequest
)

// PartialBatchError lists the record ids that failed to load.
// Use errors.As() to extract it.
type PartialBatchError = domain.PartialBatchError

// FailedIDs returns the failed record ids carried by err, or nil.
func FailedIDs(err error) []string {
	return domain.FailedIDs(err)
}
