package hybrid

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/hybridsync/internal/db"
	dbQdrant "github.com/kailas-cloud/hybridsync/internal/db/qdrant"
	dbRedis "github.com/kailas-cloud/hybridsync/internal/db/redis"
	"github.com/kailas-cloud/hybridsync/internal/domain"
	domset "github.com/kailas-cloud/hybridsync/internal/domain/settings"
	"github.com/kailas-cloud/hybridsync/internal/repository/checkpoint"
	collectionrepo "github.com/kailas-cloud/hybridsync/internal/repository/collection"
	pointrepo "github.com/kailas-cloud/hybridsync/internal/repository/point"
	searchrepo "github.com/kailas-cloud/hybridsync/internal/repository/search"
	settingsrepo "github.com/kailas-cloud/hybridsync/internal/repository/settings"
	collectionuc "github.com/kailas-cloud/hybridsync/internal/usecase/collection"
	healthuc "github.com/kailas-cloud/hybridsync/internal/usecase/health"
	migrationuc "github.com/kailas-cloud/hybridsync/internal/usecase/migration"
	searchuc "github.com/kailas-cloud/hybridsync/internal/usecase/search"
	settingsuc "github.com/kailas-cloud/hybridsync/internal/usecase/settings"
)

const defaultReadinessTimeout = 10 * time.Second

// Internal use case interfaces, replaced by mocks in tests.
type lifecycleUseCase interface {
	EnsureExists(ctx context.Context, target, source string) (bool, error)
	Reset(ctx context.Context, target, source string) error
}

type migrationUseCase interface {
	MigrateAll(ctx context.Context, source, target string, opts migrationuc.Options) (migrationuc.Report, error)
	MigrateIncremental(ctx context.Context, target string, records []domain.SourceRecord) (migrationuc.Report, error)
}

type searchUseCase interface {
	Search(ctx context.Context, q searchuc.Query) ([]domain.ScoredRecord, error)
}

type settingsUseCase interface {
	Current() domset.Settings
	Refresh(ctx context.Context) (domset.Settings, error)
	Update(ctx context.Context, s domset.Settings) (domset.Settings, error)
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

// Client is the hybridsync SDK entry point.
type Client struct {
	store     db.Store
	source    string
	target    string
	lifecycle lifecycleUseCase
	migrator  migrationUseCase
	searchSvc searchUseCase
	settings  settingsUseCase
	healthSvc healthUseCase
	closers   []func()
	obs       *observer
}

// New creates a Client and connects to the store.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := newClientConfig(opts...)

	if cfg.driver == "" {
		return nil, errors.New("hybrid: store required (use WithQdrant or WithRedis)")
	}
	if cfg.source == "" {
		return nil, errors.New("hybrid: source collection required (use WithCollections)")
	}
	if cfg.target == "" {
		cfg.target = cfg.source + "_hybrid"
	}
	if cfg.target == cfg.source {
		return nil, errors.New("hybrid: target collection must differ from source")
	}

	store, err := createStore(cfg)
	if err != nil {
		return nil, err
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("hybrid: store not ready: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		store.Close()
		return nil, err
	}

	c, err := wireClient(store, cfg, obs)
	if err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func createStore(cfg *clientConfig) (db.Store, error) {
	switch cfg.driver {
	case "qdrant":
		s, err := dbQdrant.NewStore(dbQdrant.Config{
			Host:   cfg.qdrantHost,
			Port:   cfg.qdrantPort,
			APIKey: cfg.qdrantAPIKey,
			UseTLS: cfg.qdrantTLS,
			Wait:   true,
		})
		if err != nil {
			return nil, fmt.Errorf("hybrid: create qdrant store: %w", err)
		}
		return s, nil
	case "redis":
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.redisAddrs,
			Password: cfg.redisPassword,
		})
		if err != nil {
			return nil, fmt.Errorf("hybrid: create redis store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("hybrid: unknown driver %q", cfg.driver)
	}
}

// wireClient always returns a Client so the caller can release what was opened.
func wireClient(store db.Store, cfg *clientConfig, obs *observer) (*Client, error) {
	c := &Client{
		store:   store,
		source:  cfg.source,
		target:  cfg.target,
		closers: []func(){store.Close},
		obs:     obs,
	}

	// Internal services log through zap; the SDK reports through slog in observe.
	zl := zap.NewNop()

	hybrid := domain.HybridConfig{SourceDenseField: cfg.sourceDense}.WithDefaults()
	colRepo := collectionrepo.New(store)
	c.lifecycle = collectionuc.New(colRepo, hybrid)

	migrator := migrationuc.New(pointrepo.New(store, hybrid), migrationuc.Config{
		PageSize:    cfg.pageSize,
		BatchSize:   cfg.batchSize,
		SettleDelay: cfg.settleDelay,
	}, hybrid, zl)
	if cfg.checkpointPath != "" {
		cp, err := checkpoint.Open(cfg.checkpointPath)
		if err != nil {
			return c, fmt.Errorf("hybrid: open checkpoints: %w", err)
		}
		c.closers = append(c.closers, func() { _ = cp.Close() })
		migrator = migrator.WithCheckpoints(cp)
	}
	c.migrator = migrator

	var source settingsuc.Source
	if cfg.settingsPath != "" {
		source = settingsrepo.NewFileSource(cfg.settingsPath, domset.Default())
	}
	settings, err := settingsuc.NewRuntime(source, domset.Default(), zl)
	if err != nil {
		return c, fmt.Errorf("hybrid: settings: %w", err)
	}
	c.settings = settings

	var checker healthuc.EmbeddingChecker
	if cfg.embedder != nil {
		adapter := &embedderAdapter{inner: cfg.embedder}
		checker = adapter
		var emb domain.Embedder = adapter
		if cfg.queryInstruction != "" {
			emb = domain.NewInstructionEmbedder(adapter, cfg.queryInstruction)
		}
		c.searchSvc = searchuc.New(searchrepo.New(store, hybrid, searchrepo.Options{
			PrefetchLimit: cfg.prefetchLimit,
			RankConstant:  cfg.rrfConstant,
			WithVectors:   cfg.withVectors,
		}), emb, cfg.target)
	}
	c.healthSvc = healthuc.New(store, checker).WithCollection(colRepo, cfg.target)

	return c, nil
}

// Close releases all resources.
func (c *Client) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

// Ping checks store connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Bootstrap creates the target collection if it does not exist and reports
// whether it did. An existing target is left untouched.
func (c *Client) Bootstrap(ctx context.Context) (created bool, err error) {
	start := time.Now()
	defer func() { c.obs.observe("bootstrap", start, err) }()

	created, err = c.lifecycle.EnsureExists(ctx, c.target, c.source)
	if err != nil {
		return false, fmt.Errorf("bootstrap: %w", err)
	}
	return created, nil
}

// Init drops the target collection, if any, and recreates it empty.
func (c *Client) Init(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("init", start, err) }()

	if err = c.lifecycle.Reset(ctx, c.target, c.source); err != nil {
		return fmt.Errorf("init: %w", err)
	}
	return nil
}

// Migrate copies every source record into the target, creating the target
// first if needed. When some batches fail the report is returned together
// with a *PartialBatchError.
func (c *Client) Migrate(ctx context.Context, opts MigrateOptions) (rep Report, err error) {
	start := time.Now()
	defer func() { c.obs.observe("migrate", start, err) }()

	if _, err = c.lifecycle.EnsureExists(ctx, c.target, c.source); err != nil {
		return Report{}, fmt.Errorf("migrate: %w", err)
	}

	r, err := c.migrator.MigrateAll(ctx, c.source, c.target, migrationuc.Options{
		FailFast: opts.FailFast,
		Resume:   opts.Resume,
		Progress: opts.Progress,
	})
	rep = fromReport(r)
	c.obs.records(rep)
	if err != nil {
		return rep, fmt.Errorf("migrate: %w", err)
	}
	return rep, nil
}

// RecordsStored loads records that were just written to the source into
// the target, so the two collections stay in step.
func (c *Client) RecordsStored(ctx context.Context, records []Record) (rep Report, err error) {
	start := time.Now()
	defer func() { c.obs.observe("records_stored", start, err) }()

	if len(records) == 0 {
		return Report{}, nil
	}
	r, err := c.migrator.MigrateIncremental(ctx, c.target, toSourceRecords(records))
	rep = fromReport(r)
	c.obs.records(rep)
	if err != nil {
		return rep, fmt.Errorf("records stored: %w", err)
	}
	return rep, nil
}

// Recall runs one hybrid query with the current settings. filter is a
// JSON-like mapping of metadata fields, for example {"species": "dog"}
// (matched against metadata.species); nil means unconstrained.
func (c *Client) Recall(ctx context.Context, query string, filter map[string]any) (res []Result, err error) {
	start := time.Now()
	defer func() { c.obs.observe("recall", start, err) }()

	if c.searchSvc == nil {
		return nil, fmt.Errorf("recall: %w: no embedder configured (use WithEmbedder)", ErrInvalidRequest)
	}

	snapshot, rerr := c.settings.Refresh(ctx)
	if rerr != nil && c.obs != nil && c.obs.logger != nil {
		c.obs.logger.Warn("Settings refresh failed, using previous snapshot", "error", rerr)
	}

	var raw any
	if filter != nil {
		raw = filter
	}
	found, err := c.searchSvc.Search(ctx, searchuc.NewQuery(query, raw, snapshot))
	if err != nil {
		return nil, fmt.Errorf("recall: %w", err)
	}
	return fromScored(found), nil
}

// Settings returns the active runtime settings.
func (c *Client) Settings() Settings {
	return fromSettings(c.settings.Current())
}

// UpdateSettings validates and applies s, persisting it when a settings
// file is configured.
func (c *Client) UpdateSettings(ctx context.Context, s Settings) (_ Settings, err error) {
	start := time.Now()
	defer func() { c.obs.observe("update_settings", start, err) }()

	next, err := c.settings.Update(ctx, s.toDomain())
	if err != nil {
		return fromSettings(next), fmt.Errorf("update settings: %w", err)
	}
	return fromSettings(next), nil
}

// Health checks the store, the embedder and the target collection.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.healthSvc.Check(ctx)
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	return HealthStatus{
		Status: string(report.Status),
		Checks: checks,
	}
}
