package chi

import (
	"context"

	"github.com/kailas-cloud/hybridsync/internal/domain"
	domset "github.com/kailas-cloud/hybridsync/internal/domain/settings"
	healthuc "github.com/kailas-cloud/hybridsync/internal/usecase/health"
	migrationuc "github.com/kailas-cloud/hybridsync/internal/usecase/migration"
	searchuc "github.com/kailas-cloud/hybridsync/internal/usecase/search"
)

// Lifecycle manages the target collection.
type Lifecycle interface {
	EnsureExists(ctx context.Context, target, source string) (bool, error)
	Reset(ctx context.Context, target, source string) error
}

// Migrator populates the target collection.
type Migrator interface {
	MigrateAll(ctx context.Context, source, target string, opts migrationuc.Options) (migrationuc.Report, error)
	MigrateIncremental(ctx context.Context, target string, records []domain.SourceRecord) (migrationuc.Report, error)
}

// Searcher runs hybrid queries.
type Searcher interface {
	Search(ctx context.Context, q searchuc.Query) ([]domain.ScoredRecord, error)
}

// Settings serves the runtime settings snapshot.
type Settings interface {
	Current() domset.Settings
	Refresh(ctx context.Context) (domset.Settings, error)
	Update(ctx context.Context, s domset.Settings) (domset.Settings, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}
