package health

import "context"

// StorePinger checks vector store availability.
type StorePinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}

// CollectionChecker reports whether the target collection exists.
type CollectionChecker interface {
	Exists(ctx context.Context, name string) (bool, error)
}
