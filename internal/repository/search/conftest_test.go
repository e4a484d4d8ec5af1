package search

import (
	"context"

	"github.com/kailas-cloud/hybridsync/internal/db"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	queryFn func(ctx context.Context, q *db.FusedQuery) ([]db.ScoredPoint, error)
}

func (m *mockStore) FusedQuery(ctx context.Context, q *db.FusedQuery) ([]db.ScoredPoint, error) {
	if m.queryFn != nil {
		return m.queryFn(ctx, q)
	}
	return nil, nil
}
