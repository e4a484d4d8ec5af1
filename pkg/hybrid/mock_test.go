package hybrid

import (
	"context"

	"github.com/kailas-cloud/hybridsync/internal/domain"
	domset "github.com/kailas-cloud/hybridsync/internal/domain/settings"
	healthuc "github.com/kailas-cloud/hybridsync/internal/usecase/health"
	migrationuc "github.com/kailas-cloud/hybridsync/internal/usecase/migration"
	searchuc "github.com/kailas-cloud/hybridsync/internal/usecase/search"
)

// --- lifecycleUseCase mock ---

type mockLifecycleUC struct {
	ensureFn func(ctx context.Context, target, source string) (bool, error)
	resetFn  func(ctx context.Context, target, source string) error
}

func (m *mockLifecycleUC) EnsureExists(ctx context.Context, target, source string) (bool, error) {
	return m.ensureFn(ctx, target, source)
}

func (m *mockLifecycleUC) Reset(ctx context.Context, target, source string) error {
	return m.resetFn(ctx, target, source)
}

// --- migrationUseCase mock ---

type mockMigrationUC struct {
	allFn         func(ctx context.Context, source, target string, opts migrationuc.Options) (migrationuc.Report, error)
	incrementalFn func(ctx context.Context, target string, records []domain.SourceRecord) (migrationuc.Report, error)
}

func (m *mockMigrationUC) MigrateAll(
	ctx context.Context, source, target string, opts migrationuc.Options,
) (migrationuc.Report, error) {
	return m.allFn(ctx, source, target, opts)
}

func (m *mockMigrationUC) MigrateIncremental(
	ctx context.Context, target string, records []domain.SourceRecord,
) (migrationuc.Report, error) {
	return m.incrementalFn(ctx, target, records)
}

// --- searchUseCase mock ---

type mockSearchUC struct {
	searchFn func(ctx context.Context, q searchuc.Query) ([]domain.ScoredRecord, error)
}

func (m *mockSearchUC) Search(ctx context.Context, q searchuc.Query) ([]domain.ScoredRecord, error) {
	return m.searchFn(ctx, q)
}

// --- settingsUseCase mock ---

type mockSettingsUC struct {
	current    domset.Settings
	refreshErr error
	updateErr  error
}

func (m *mockSettingsUC) Current() domset.Settings { return m.current }

func (m *mockSettingsUC) Refresh(context.Context) (domset.Settings, error) {
	return m.current, m.refreshErr
}

func (m *mockSettingsUC) Update(_ context.Context, s domset.Settings) (domset.Settings, error) {
	if m.updateErr != nil {
		return m.current, m.updateErr
	}
	m.current = s
	return s, nil
}

// --- healthUseCase mock ---

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(context.Context) healthuc.Report { return m.report }

// --- helpers ---

func testClient() *Client {
	return &Client{
		source:   "docs",
		target:   "docs_hybrid",
		settings: &mockSettingsUC{current: domset.Default()},
	}
}
