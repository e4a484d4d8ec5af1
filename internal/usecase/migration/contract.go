package migration

import (
	"context"

	"github.com/kailas-cloud/hybridsync/internal/domain"
)

// Repository defines the point storage contract.
type Repository interface {
	Page(ctx context.Context, collection, cursor string, limit int) (domain.Page, error)
	Upsert(ctx context.Context, collection string, records []domain.HybridRecord) error
	AcknowledgesWrites() bool
}

// Checkpoints persists full-migration progress.
type Checkpoints interface {
	Load(ctx context.Context, source, target string) (domain.Checkpoint, bool, error)
	Save(ctx context.Context, cp domain.Checkpoint) error
	Clear(ctx context.Context, source, target string) error
}
