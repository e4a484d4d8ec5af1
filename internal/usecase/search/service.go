package search

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kailas-cloud/hybridsync/internal/domain"
	"github.com/kailas-cloud/hybridsync/internal/domain/search/filter"
	domset "github.com/kailas-cloud/hybridsync/internal/domain/settings"
	"github.com/kailas-cloud/hybridsync/internal/metrics"
)

// Query is one hybrid query. K and Threshold come from one settings snapshot.
type Query struct {
	Text      string
	K         int
	Threshold float64
	// Filter is a JSON-like metadata mapping; nil means unconstrained.
	Filter any
}

// NewQuery builds a Query from a settings snapshot.
func NewQuery(text string, rawFilter any, s domset.Settings) Query {
	return Query{Text: text, K: s.K(), Threshold: s.Threshold(), Filter: rawFilter}
}

// Service executes hybrid queries against the target collection.
type Service struct {
	repo       Repository
	embed      Embedder
	collection string
}

// New creates a hybrid query executor for collection.
func New(repo Repository, embed Embedder, collection string) *Service {
	return &Service{repo: repo, embed: embed, collection: collection}
}

// Search compiles the filter, embeds the text and runs one fused query.
// The result is sorted by score descending, every score is at least
// q.Threshold and at most q.K records are returned.
func (s *Service) Search(ctx context.Context, q Query) ([]domain.ScoredRecord, error) {
	start := time.Now()
	results, err := s.search(ctx, q)
	metrics.SearchRequestsTotal.WithLabelValues(statusOf(err)).Inc()
	metrics.SearchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	metrics.SearchResults.Observe(float64(len(results)))
	return results, nil
}

func (s *Service) search(ctx context.Context, q Query) ([]domain.ScoredRecord, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, fmt.Errorf("%w: query text is empty", domain.ErrInvalidRequest)
	}
	if q.K <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidRequest, q.K)
	}
	if q.Threshold < 0 || q.Threshold > 1 {
		return nil, fmt.Errorf("%w: threshold must be in [0, 1], got %g", domain.ErrInvalidRequest, q.Threshold)
	}

	// Filter errors surface before any remote call.
	tree, err := filter.CompileAny(q.Filter)
	if err != nil {
		return nil, fmt.Errorf("compile filter: %w", err)
	}

	emb, err := s.embed.Embed(ctx, q.Text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingFailure, err)
	}
	if len(emb.Embedding) == 0 {
		return nil, fmt.Errorf("%w: empty embedding", domain.ErrEmbeddingFailure)
	}
	domain.UsageFromContext(ctx).AddTokens(emb.TotalTokens)

	results, err := s.repo.Fused(ctx, s.collection, emb.Embedding, q.Text, tree, q.K, q.Threshold)
	if err != nil {
		return nil, fmt.Errorf("hybrid search: %w", err)
	}

	return guard(results, q.K, q.Threshold), nil
}

// guard enforces ordering, threshold and k regardless of what the store returned.
func guard(results []domain.ScoredRecord, k int, threshold float64) []domain.ScoredRecord {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	out := results[:0]
	for _, r := range results {
		if r.Score < threshold {
			break
		}
		out = append(out, r)
		if len(out) == k {
			break
		}
	}
	return out
}

func statusOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrInvalidRequest), errors.Is(err, domain.ErrUnsupportedFilterValue):
		return "invalid_request"
	case errors.Is(err, domain.ErrEmbeddingFailure):
		return "embedding_error"
	default:
		return "store_error"
	}
}
