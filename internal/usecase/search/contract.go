package search

import (
	"context"

	"github.com/kailas-cloud/hybridsync/internal/domain"
	"github.com/kailas-cloud/hybridsync/internal/domain/search/filter"
)

// Repository defines the storage contract for hybrid queries.
type Repository interface {
	Fused(
		ctx context.Context, collection string,
		vector []float32, text string, tree *filter.Tree,
		k int, threshold float64,
	) ([]domain.ScoredRecord, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
