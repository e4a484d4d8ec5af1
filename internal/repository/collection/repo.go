package collection

import (
	"context"
	"errors"

	"github.com/kailas-cloud/hybridsync/internal/db"
	"github.com/kailas-cloud/hybridsync/internal/domain"
	"github.com/kailas-cloud/hybridsync/internal/repository"
)

// store is the consumer interface for collections (ISP).
type store interface {
	CollectionExists(ctx context.Context, name string) (bool, error)
	CreateCollection(ctx context.Context, schema *db.CollectionSchema) error
	DeleteCollection(ctx context.Context, name string) error
	DenseDimension(ctx context.Context, name, field string) (int, error)
}

// Repo implements usecase/collection.Repository.
type Repo struct {
	store store
}

// New creates a collection repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Exists reports whether the collection is present.
func (r *Repo) Exists(ctx context.Context, name string) (bool, error) {
	ok, err := r.store.CollectionExists(ctx, name)
	if err != nil {
		return false, repository.StoreError("collection exists "+name, err)
	}
	return ok, nil
}

// Create creates a collection with the given shape.
// A concurrent creator winning the race is not an error.
func (r *Repo) Create(ctx context.Context, shape domain.CollectionShape) error {
	err := r.store.CreateCollection(ctx, &db.CollectionSchema{
		Name:        shape.Name,
		DenseField:  shape.DenseField,
		DenseDim:    shape.DenseDim,
		SparseField: shape.SparseField,
	})
	if err != nil && !errors.Is(err, db.ErrCollectionExists) {
		return repository.StoreError("create collection "+shape.Name, err)
	}
	return nil
}

// Delete removes a collection. Deleting an absent collection is not an error.
func (r *Repo) Delete(ctx context.Context, name string) error {
	err := r.store.DeleteCollection(ctx, name)
	if err != nil && !errors.Is(err, db.ErrCollectionNotFound) {
		return repository.StoreError("delete collection "+name, err)
	}
	return nil
}

// DenseDimension reads the size of a collection's dense vector.
func (r *Repo) DenseDimension(ctx context.Context, name, field string) (int, error) {
	dim, err := r.store.DenseDimension(ctx, name, field)
	if err != nil {
		return 0, repository.StoreError("dense dimension "+name, err)
	}
	return dim, nil
}
