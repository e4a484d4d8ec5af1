package collection

import (
	"context"

	"github.com/kailas-cloud/hybridsync/internal/domain"
)

// Repository defines the storage contract for collections.
type Repository interface {
	Exists(ctx context.Context, name string) (bool, error)
	Create(ctx context.Context, shape domain.CollectionShape) error
	Delete(ctx context.Context, name string) error
	DenseDimension(ctx context.Context, name, field string) (int, error)
}
