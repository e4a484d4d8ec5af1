package point

import (
	"context"

	"github.com/kailas-cloud/hybridsync/internal/db"
)

type mockStore struct {
	scrollFn func(ctx context.Context, req *db.ScrollRequest) (*db.ScrollPage, error)
	upsertFn func(ctx context.Context, req *db.UpsertRequest) error
	ack      bool
}

func (m *mockStore) Scroll(ctx context.Context, req *db.ScrollRequest) (*db.ScrollPage, error) {
	if m.scrollFn != nil {
		return m.scrollFn(ctx, req)
	}
	return &db.ScrollPage{}, nil
}

func (m *mockStore) Upsert(ctx context.Context, req *db.UpsertRequest) error {
	if m.upsertFn != nil {
		return m.upsertFn(ctx, req)
	}
	return nil
}

func (m *mockStore) AcknowledgesWrites() bool { return m.ack }
