package collection

import (
	"context"

	"github.com/kailas-cloud/hybridsync/internal/db"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	existsFn func(ctx context.Context, name string) (bool, error)
	createFn func(ctx context.Context, schema *db.CollectionSchema) error
	deleteFn func(ctx context.Context, name string) error
	dimFn    func(ctx context.Context, name, field string) (int, error)
}

func (m *mockStore) CollectionExists(ctx context.Context, name string) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, name)
	}
	return false, nil
}

func (m *mockStore) CreateCollection(ctx context.Context, schema *db.CollectionSchema) error {
	if m.createFn != nil {
		return m.createFn(ctx, schema)
	}
	return nil
}

func (m *mockStore) DeleteCollection(ctx context.Context, name string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, name)
	}
	return nil
}

func (m *mockStore) DenseDimension(ctx context.Context, name, field string) (int, error) {
	if m.dimFn != nil {
		return m.dimFn(ctx, name, field)
	}
	return 0, nil
}
