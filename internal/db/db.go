package db

import (
	"context"
	"time"
)

// Store is the vector store facade combining all sub-interfaces.
//
//nolint:interfacebloat // consumers depend on the narrow sub-interfaces
type Store interface {
	Pinger
	CollectionManager
	PointStore
	FusedSearcher
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks store connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CollectionManager provides collection lifecycle operations.
type CollectionManager interface {
	CollectionExists(ctx context.Context, name string) (bool, error)
	// CreateCollection returns ErrCollectionExists when the name is taken.
	CreateCollection(ctx context.Context, schema *CollectionSchema) error
	// DeleteCollection returns ErrCollectionNotFound when nothing was deleted.
	DeleteCollection(ctx context.Context, name string) error
	// DenseDimension returns the size of the dense field (or the unnamed vector when field is "").
	DenseDimension(ctx context.Context, name, field string) (int, error)
}

// PointStore reads and writes points.
type PointStore interface {
	Scroll(ctx context.Context, req *ScrollRequest) (*ScrollPage, error)
	// Upsert writes points idempotently by id. Per-point failures are
	// reported as *ItemsError.
	Upsert(ctx context.Context, req *UpsertRequest) error
	// AcknowledgesWrites reports whether a successful Upsert with Wait set
	// guarantees the points are visible to FusedQuery.
	AcknowledgesWrites() bool
}

// FusedSearcher runs a dense+sparse query fused with reciprocal rank fusion.
type FusedSearcher interface {
	FusedQuery(ctx context.Context, q *FusedQuery) ([]ScoredPoint, error)
}

// KVStore provides simple key-value operations.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
