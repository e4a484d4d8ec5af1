package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/hybridsync/internal/config"
	"github.com/kailas-cloud/hybridsync/internal/db"
	dbQdrant "github.com/kailas-cloud/hybridsync/internal/db/qdrant"
	dbRedis "github.com/kailas-cloud/hybridsync/internal/db/redis"
	"github.com/kailas-cloud/hybridsync/internal/domain"
	domset "github.com/kailas-cloud/hybridsync/internal/domain/settings"
	"github.com/kailas-cloud/hybridsync/internal/metrics"
	"github.com/kailas-cloud/hybridsync/internal/repository/checkpoint"
	collectionrepo "github.com/kailas-cloud/hybridsync/internal/repository/collection"
	"github.com/kailas-cloud/hybridsync/internal/repository/embcache"
	pointrepo "github.com/kailas-cloud/hybridsync/internal/repository/point"
	searchrepo "github.com/kailas-cloud/hybridsync/internal/repository/search"
	settingsrepo "github.com/kailas-cloud/hybridsync/internal/repository/settings"
	openaiEmb "github.com/kailas-cloud/hybridsync/internal/transport/openai"
	collectionuc "github.com/kailas-cloud/hybridsync/internal/usecase/collection"
	embeddinguc "github.com/kailas-cloud/hybridsync/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/hybridsync/internal/usecase/health"
	migrationuc "github.com/kailas-cloud/hybridsync/internal/usecase/migration"
	searchuc "github.com/kailas-cloud/hybridsync/internal/usecase/search"
	settingsuc "github.com/kailas-cloud/hybridsync/internal/usecase/settings"
)

// app is the composition root shared by every command.
type app struct {
	cfg       config.Config
	store     db.Store
	lifecycle *collectionuc.Service
	migrator  *migrationuc.Service
	search    *searchuc.Service
	settings  *settingsuc.Runtime
	health    *healthuc.Service
	closers   []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// buildApp connects to the store and wires repositories and use cases.
// withEmbedder is false for commands that never embed (init, migrate).
func buildApp(ctx context.Context, cfg config.Config, logger *zap.Logger, withEmbedder bool) (_ *app, err error) {
	a := &app{cfg: cfg}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	a.store, err = createStore(cfg)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, a.store.Close)

	readiness := time.Duration(cfg.Store.ReadinessTimeout) * time.Second
	if err := a.store.WaitForReady(ctx, readiness); err != nil {
		return nil, fmt.Errorf("store not ready: %w", err)
	}
	logger.Info("Connected to store", zap.String("driver", cfg.Store.Driver))

	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterMigrationMetrics()
	metrics.RegisterSearchMetrics()

	hybrid := domain.HybridConfig{
		SourceDenseField: cfg.Collections.SourceDenseField,
		DenseField:       cfg.Collections.DenseField,
		SparseField:      cfg.Collections.SparseField,
		SparseModel:      cfg.Collections.SparseModel,
	}

	colRepo := collectionrepo.New(a.store)
	a.lifecycle = collectionuc.New(colRepo, hybrid)

	a.migrator = migrationuc.New(pointrepo.New(a.store, hybrid), migrationuc.Config{
		PageSize:    cfg.Migration.PageSize,
		BatchSize:   cfg.Migration.BatchSize,
		SettleDelay: cfg.Migration.SettleDelay,
	}, hybrid, logger)
	if cfg.Migration.CheckpointPath != "" {
		cp, err := checkpoint.Open(cfg.Migration.CheckpointPath)
		if err != nil {
			return nil, fmt.Errorf("open checkpoints: %w", err)
		}
		a.closers = append(a.closers, func() { _ = cp.Close() })
		a.migrator = a.migrator.WithCheckpoints(cp)
	}

	defaults := domset.Settings{
		NumberOfHybridItems: cfg.Settings.NumberOfHybridItems,
		HybridThreshold:     cfg.Settings.Threshold(),
	}
	var source settingsuc.Source
	if cfg.Settings.Path != "" {
		source = settingsrepo.NewFileSource(cfg.Settings.Path, defaults)
	}
	a.settings, err = settingsuc.NewRuntime(source, defaults, logger)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	var embedder domain.Embedder
	if withEmbedder {
		embedder, err = buildEmbedder(cfg, logger, a)
		if err != nil {
			return nil, err
		}
		a.search = searchuc.New(searchrepo.New(a.store, hybrid, searchrepo.Options{
			PrefetchLimit: cfg.Search.PrefetchLimit,
			RankConstant:  cfg.Search.RRFConstant,
			WithVectors:   cfg.Search.WithVectors == nil || *cfg.Search.WithVectors,
		}), embedder, cfg.Collections.Target)
	}

	var checker healthuc.EmbeddingChecker
	if hc, ok := embedder.(healthuc.EmbeddingChecker); ok {
		checker = hc
	}
	a.health = healthuc.New(a.store, checker).WithCollection(colRepo, cfg.Collections.Target)

	return a, nil
}

func createStore(cfg config.Config) (db.Store, error) {
	switch cfg.Store.Driver {
	case config.DriverQdrant:
		q := cfg.Store.Qdrant
		s, err := dbQdrant.NewStore(dbQdrant.Config{
			Host:    q.Host,
			Port:    q.Port,
			APIKey:  q.APIKey,
			UseTLS:  q.UseTLS,
			Wait:    q.Wait == nil || *q.Wait,
			Timeout: time.Duration(q.TimeoutSec) * time.Second,
		})
		if err != nil {
			return nil, fmt.Errorf("create qdrant store: %w", err)
		}
		return s, nil
	case config.DriverRedis:
		s, err := newRedisStore(cfg.Store.Redis)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

func newRedisStore(r config.RedisConfig) (*dbRedis.Store, error) {
	s, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:           r.Addrs,
		Username:        r.Username,
		Password:        r.Password,
		DB:              r.DB,
		KeyPrefix:       r.KeyPrefix,
		HNSWM:           r.HNSWM,
		HNSWEFConstruct: r.HNSWEFConstruct,
	})
	if err != nil {
		return nil, fmt.Errorf("create redis store: %w", err)
	}
	return s, nil
}

// buildEmbedder composes provider -> instrumented -> cache -> instruction.
// The instruction is outermost so cache keys include it.
func buildEmbedder(cfg config.Config, logger *zap.Logger, a *app) (domain.Embedder, error) {
	e := cfg.Embedding
	if e.Model == "" {
		return nil, errors.New("embedding.model is required")
	}

	var embedder domain.Embedder = openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     e.APIKey,
		BaseURL:    e.BaseURL,
		Model:      e.Model,
		Dimensions: e.Dimensions,
		Provider:   e.Provider,
		Timeout:    time.Duration(e.TimeoutSec) * time.Second,
		Logger:     logger,
	})
	instrumented := embeddinguc.NewInstrumentedEmbedder(embedder, e.Provider, e.Model, e.Dimensions, logger)
	embedder = instrumented

	if e.Cache.Enabled {
		var kv db.KVStore
		if rs, ok := a.store.(*dbRedis.Store); ok {
			kv = rs
		} else {
			rs, err := newRedisStore(cfg.Store.Redis)
			if err != nil {
				return nil, fmt.Errorf("embedding cache: %w", err)
			}
			a.closers = append(a.closers, rs.Close)
			kv = rs
		}
		embedder = embcache.New(embedder, kv, embcache.Options{
			KeyPrefix: e.Cache.KeyPrefix,
			Model:     e.Model,
			TTL:       time.Duration(e.Cache.TTLSec) * time.Second,
		}, metrics.EmbeddingCacheTotal, logger)
	}

	if e.QueryInstruction != "" {
		embedder = domain.NewInstructionEmbedder(embedder, e.QueryInstruction)
	}

	return &checkedEmbedder{Embedder: embedder, health: instrumented}, nil
}

// checkedEmbedder exposes the provider health check through the decorator chain.
type checkedEmbedder struct {
	domain.Embedder
	health domain.HealthChecker
}

func (c *checkedEmbedder) HealthCheck(ctx context.Context) error {
	return c.health.HealthCheck(ctx) //nolint:wrapcheck // already wrapped by the instrumented embedder
}
