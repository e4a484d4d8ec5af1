package search

import (
	"context"

	"github.com/kailas-cloud/hybridsync/internal/db"
	"github.com/kailas-cloud/hybridsync/internal/domain"
	"github.com/kailas-cloud/hybridsync/internal/domain/search/filter"
	"github.com/kailas-cloud/hybridsync/internal/repository"
)

// store is the consumer interface for search operations (ISP).
type store interface {
	FusedQuery(ctx context.Context, q *db.FusedQuery) ([]db.ScoredPoint, error)
}

// Options tune the fused query.
type Options struct {
	PrefetchLimit int
	RankConstant  int
	WithVectors   bool
}

// Repo implements usecase/search.Repository.
type Repo struct {
	store store
	cfg   domain.HybridConfig
	opts  Options
}

// New creates a search repository.
func New(s store, cfg domain.HybridConfig, opts Options) *Repo {
	return &Repo{store: s, cfg: cfg.WithDefaults(), opts: opts}
}

// Fused runs one dense+sparse query against collection: both channels use
// the same filter, results are fused with RRF, truncated to k and cut at threshold.
func (r *Repo) Fused(
	ctx context.Context, collection string,
	vector []float32, text string, tree *filter.Tree,
	k int, threshold float64,
) ([]domain.ScoredRecord, error) {
	points, err := r.store.FusedQuery(ctx, &db.FusedQuery{
		Collection:     collection,
		DenseField:     r.cfg.DenseField,
		Dense:          vector,
		SparseField:    r.cfg.SparseField,
		SparseText:     text,
		SparseModel:    r.cfg.SparseModel,
		Filter:         tree,
		PrefetchLimit:  r.opts.PrefetchLimit,
		Limit:          k,
		ScoreThreshold: &threshold,
		RankConstant:   r.opts.RankConstant,
		WithVectors:    r.opts.WithVectors,
	})
	if err != nil {
		return nil, repository.StoreError("fused query "+collection, err)
	}

	out := make([]domain.ScoredRecord, len(points))
	for i, p := range points {
		out[i] = domain.ScoredRecord{ID: p.ID, Score: p.Score, Payload: p.Payload, Dense: p.Dense}
	}
	return out, nil
}
