package point

import (
	"context"
	"errors"

	"github.com/kailas-cloud/hybridsync/internal/db"
	"github.com/kailas-cloud/hybridsync/internal/domain"
	"github.com/kailas-cloud/hybridsync/internal/repository"
)

// store is the consumer interface for point export and load (ISP).
type store interface {
	Scroll(ctx context.Context, req *db.ScrollRequest) (*db.ScrollPage, error)
	Upsert(ctx context.Context, req *db.UpsertRequest) error
	AcknowledgesWrites() bool
}

// Repo implements usecase/migration.Repository.
type Repo struct {
	store store
	cfg   domain.HybridConfig
}

// New creates a point repository.
func New(s store, cfg domain.HybridConfig) *Repo {
	return &Repo{store: s, cfg: cfg.WithDefaults()}
}

// Page reads one page of source records starting at cursor.
func (r *Repo) Page(ctx context.Context, collection, cursor string, limit int) (domain.Page, error) {
	page, err := r.store.Scroll(ctx, &db.ScrollRequest{
		Collection:  collection,
		DenseField:  r.cfg.SourceDenseField,
		Cursor:      cursor,
		Limit:       limit,
		WithVectors: true,
		WithPayload: true,
	})
	if err != nil {
		return domain.Page{}, repository.StoreError("scroll "+collection, err)
	}

	out := domain.Page{Records: make([]domain.SourceRecord, len(page.Points)), Next: page.Next}
	for i, p := range page.Points {
		out.Records[i] = domain.SourceRecord{ID: p.ID, Dense: p.Dense, Payload: p.Payload}
	}
	return out, nil
}

// Upsert writes a batch of hybrid records by id. Any failure comes back as a
// *domain.PartialBatchError naming the ids that were not written.
func (r *Repo) Upsert(ctx context.Context, collection string, records []domain.HybridRecord) error {
	if len(records) == 0 {
		return nil
	}

	points := make([]db.Point, len(records))
	for i := range records {
		rec := &records[i]
		points[i] = db.Point{
			ID:          rec.ID,
			Dense:       rec.Dense,
			SparseText:  rec.Sparse.Text,
			SparseModel: rec.Sparse.Model,
			Payload:     rec.Payload,
		}
	}

	err := r.store.Upsert(ctx, &db.UpsertRequest{
		Collection:  collection,
		DenseField:  r.cfg.DenseField,
		SparseField: r.cfg.SparseField,
		Points:      points,
		Wait:        r.store.AcknowledgesWrites(),
	})
	if err == nil {
		return nil
	}

	var itemsErr *db.ItemsError
	if errors.As(err, &itemsErr) {
		return domain.NewPartialBatchError(itemsErr.IDs, repository.StoreError("upsert "+collection, itemsErr.Err))
	}

	ids := make([]string, len(records))
	for i := range records {
		ids[i] = records[i].ID
	}
	return domain.NewPartialBatchError(ids, repository.StoreError("upsert "+collection, err))
}

// AcknowledgesWrites reports whether a successful Upsert is already queryable.
func (r *Repo) AcknowledgesWrites() bool {
	return r.store.AcknowledgesWrites()
}
