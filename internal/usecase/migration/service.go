package migration

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/hybridsync/internal/domain"
	"github.com/kailas-cloud/hybridsync/internal/metrics"
)

// Defaults for Config.
const (
	DefaultPageSize    = 100
	DefaultBatchSize   = 64
	DefaultSettleDelay = 5 * time.Second
)

// Config sizes export pages and load batches.
type Config struct {
	PageSize  int
	BatchSize int
	// SettleDelay is waited after the last batch when the store does not
	// acknowledge that written points are queryable.
	SettleDelay time.Duration
}

func (c Config) withDefaults() Config {
	if c.PageSize <= 0 {
		c.PageSize = DefaultPageSize
	}
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.SettleDelay < 0 {
		c.SettleDelay = 0
	} else if c.SettleDelay == 0 {
		c.SettleDelay = DefaultSettleDelay
	}
	return c
}

// Options control one MigrateAll run.
type Options struct {
	// FailFast aborts on the first failed batch.
	FailFast bool
	// Resume continues from the stored checkpoint, if any.
	Resume bool
	// Progress is called after every loaded page from the loader goroutine.
	Progress func(Progress)
}

// Progress is a running total of a migration.
type Progress struct {
	Pages    int
	Exported int
	Loaded   int
	Failed   int
}

// Report summarizes a migration run.
type Report struct {
	Pages    int
	Exported int
	Loaded   int
	Failed   []string
	// ResumedFrom is the checkpoint cursor the run started at, if any.
	ResumedFrom string
	Duration    time.Duration
}

// Service copies dense records into the hybrid collection.
type Service struct {
	repo        Repository
	checkpoints Checkpoints
	cfg         Config
	hybrid      domain.HybridConfig
	logger      *zap.Logger
}

// New creates a migration service.
func New(repo Repository, cfg Config, hybrid domain.HybridConfig, logger *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		cfg:    cfg.withDefaults(),
		hybrid: hybrid.WithDefaults(),
		logger: logger,
	}
}

// WithCheckpoints enables resumable full migrations.
func (s *Service) WithCheckpoints(c Checkpoints) *Service {
	s.checkpoints = c
	return s
}

// Pages lazily walks source from cursor ("" for the beginning), one store
// call per page. Iteration stops after the first error.
func (s *Service) Pages(ctx context.Context, source, cursor string) iter.Seq2[domain.Page, error] {
	return func(yield func(domain.Page, error) bool) {
		for {
			if err := ctx.Err(); err != nil {
				yield(domain.Page{}, err)
				return
			}
			page, err := s.repo.Page(ctx, source, cursor, s.cfg.PageSize)
			if err != nil {
				yield(domain.Page{}, fmt.Errorf("export page after %q: %w", cursor, err))
				return
			}
			if page.Next != "" && page.Next == cursor {
				yield(domain.Page{}, fmt.Errorf("export %s: cursor %q did not advance", source, cursor))
				return
			}
			metrics.MigrationPagesTotal.Inc()
			if !yield(page, nil) {
				return
			}
			if page.Next == "" {
				return
			}
			cursor = page.Next
		}
	}
}

// ExportAll yields every record of source exactly once, in store order.
func (s *Service) ExportAll(ctx context.Context, source string) iter.Seq2[domain.SourceRecord, error] {
	return func(yield func(domain.SourceRecord, error) bool) {
		for page, err := range s.Pages(ctx, source, "") {
			if err != nil {
				yield(domain.SourceRecord{}, err)
				return
			}
			for _, rec := range page.Records {
				if !yield(rec, nil) {
					return
				}
			}
		}
	}
}

// Transform projects a source record into the hybrid collection: the sparse
// channel is the page content under the configured lexical model, the rest
// is copied as is.
func (s *Service) Transform(rec domain.SourceRecord) domain.HybridRecord {
	return domain.HybridRecord{
		ID:    rec.ID,
		Dense: rec.Dense,
		Sparse: domain.SparseDocument{
			Text:  rec.Payload.PageContent(),
			Model: s.hybrid.SparseModel,
		},
		Payload: rec.Payload.Clone(),
	}
}

// LoadBatch upserts records into target. Failures come back as
// *domain.PartialBatchError.
func (s *Service) LoadBatch(ctx context.Context, target string, records []domain.HybridRecord) error {
	if len(records) == 0 {
		return nil
	}
	start := time.Now()
	err := s.repo.Upsert(ctx, target, records)
	metrics.MigrationBatchDuration.Observe(time.Since(start).Seconds())

	failed := len(domain.FailedIDs(err))
	if err != nil && failed == 0 {
		failed = len(records)
	}
	metrics.MigrationRecordsTotal.WithLabelValues("loaded").Add(float64(len(records) - failed))
	if failed > 0 {
		metrics.MigrationRecordsTotal.WithLabelValues("failed").Add(float64(failed))
	}

	if err != nil {
		return fmt.Errorf("load batch into %s: %w", target, err)
	}
	return nil
}

// MigrateAll exports every source record and loads it into target. Export
// runs one page ahead of a single ordered loader. Failed batches are
// collected into the report; the run continues unless FailFast is set.
// Returns after the settle barrier, so loaded records are queryable.
func (s *Service) MigrateAll(ctx context.Context, source, target string, opts Options) (Report, error) {
	start := time.Now()
	var rep Report

	if opts.Resume && s.checkpoints != nil {
		cp, ok, err := s.checkpoints.Load(ctx, source, target)
		if err != nil {
			s.logger.Warn("Failed to load checkpoint, starting over", zap.Error(err))
		} else if ok {
			rep.ResumedFrom = cp.Cursor
			s.logger.Info("Resuming migration",
				zap.String("source", source),
				zap.String("target", target),
				zap.String("cursor", cp.Cursor),
				zap.Int("loaded_before", cp.Loaded),
			)
		}
	}

	pages := make(chan domain.Page, 1)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(pages)
		for page, err := range s.Pages(gctx, source, rep.ResumedFrom) {
			if err != nil {
				return err
			}
			select {
			case pages <- page:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	g.Go(func() error {
		for page := range pages {
			rep.Pages++
			rep.Exported += len(page.Records)
			if err := s.loadPage(gctx, target, page, &rep, opts.FailFast); err != nil {
				return err
			}
			if opts.Progress != nil {
				opts.Progress(Progress{Pages: rep.Pages, Exported: rep.Exported, Loaded: rep.Loaded, Failed: len(rep.Failed)})
			}
			// A failed page must be re-read on resume, so the checkpoint stops advancing.
			if page.Next != "" && len(rep.Failed) == 0 {
				s.saveCheckpoint(gctx, domain.Checkpoint{
					Source: source, Target: target, Cursor: page.Next, Pages: rep.Pages, Loaded: rep.Loaded,
				})
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		rep.Duration = time.Since(start)
		s.finish("full", rep, err)
		return rep, fmt.Errorf("migrate %s to %s: %w", source, target, err)
	}

	if err := s.settle(ctx); err != nil {
		rep.Duration = time.Since(start)
		s.finish("full", rep, err)
		return rep, fmt.Errorf("migrate %s to %s: settle: %w", source, target, err)
	}

	if s.checkpoints != nil && len(rep.Failed) == 0 {
		if err := s.checkpoints.Clear(ctx, source, target); err != nil {
			s.logger.Warn("Failed to clear checkpoint", zap.Error(err))
		}
	}

	rep.Duration = time.Since(start)
	var err error
	if len(rep.Failed) > 0 {
		err = domain.NewPartialBatchError(rep.Failed, domain.ErrStoreUnavailable)
	}
	s.finish("full", rep, err)
	return rep, err
}

// MigrateIncremental transforms and loads records that were just stored in
// the source. No export, no settle wait.
func (s *Service) MigrateIncremental(ctx context.Context, target string, records []domain.SourceRecord) (Report, error) {
	start := time.Now()
	rep := Report{Exported: len(records)}

	if err := s.loadPage(ctx, target, domain.Page{Records: records}, &rep, false); err != nil {
		rep.Duration = time.Since(start)
		s.finish("incremental", rep, err)
		return rep, err
	}

	rep.Duration = time.Since(start)
	var err error
	if len(rep.Failed) > 0 {
		err = domain.NewPartialBatchError(rep.Failed, domain.ErrStoreUnavailable)
	}
	s.finish("incremental", rep, err)
	return rep, err
}

// loadPage loads one page in batches and folds the outcome into rep.
// Only errors that abort the run are returned.
func (s *Service) loadPage(ctx context.Context, target string, page domain.Page, rep *Report, failFast bool) error {
	for batch := range slices.Chunk(page.Records, s.cfg.BatchSize) {
		hybrid := make([]domain.HybridRecord, len(batch))
		for i, rec := range batch {
			hybrid[i] = s.Transform(rec)
		}

		err := s.LoadBatch(ctx, target, hybrid)
		if err == nil {
			rep.Loaded += len(batch)
			continue
		}

		ids := domain.FailedIDs(err)
		if ids == nil {
			return err
		}
		rep.Failed = append(rep.Failed, ids...)
		rep.Loaded += len(batch) - len(ids)
		s.logger.Warn("Batch partially failed",
			zap.String("target", target),
			zap.Int("batch_size", len(batch)),
			zap.Int("failed", len(ids)),
			zap.Error(err),
		)
		if failFast {
			return err
		}
	}
	return nil
}

// settle blocks until loaded records are visible to queries.
func (s *Service) settle(ctx context.Context) error {
	if s.repo.AcknowledgesWrites() || s.cfg.SettleDelay == 0 {
		return nil
	}
	timer := time.NewTimer(s.cfg.SettleDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) saveCheckpoint(ctx context.Context, cp domain.Checkpoint) {
	if s.checkpoints == nil {
		return
	}
	if err := s.checkpoints.Save(ctx, cp); err != nil {
		s.logger.Warn("Failed to save checkpoint", zap.String("cursor", cp.Cursor), zap.Error(err))
	}
}

func (s *Service) finish(kind string, rep Report, err error) {
	status := "ok"
	switch {
	case err == nil:
	case domain.FailedIDs(err) != nil:
		status = "partial"
	default:
		status = "error"
	}
	metrics.MigrationRunsTotal.WithLabelValues(kind, status).Inc()
	metrics.MigrationRunDuration.WithLabelValues(kind).Observe(rep.Duration.Seconds())

	fields := []zap.Field{
		zap.String("kind", kind),
		zap.String("status", status),
		zap.Int("pages", rep.Pages),
		zap.Int("exported", rep.Exported),
		zap.Int("loaded", rep.Loaded),
		zap.Int("failed", len(rep.Failed)),
		zap.Duration("duration", rep.Duration),
	}
	if err != nil {
		s.logger.Warn("Migration finished with errors", append(fields, zap.Error(err))...)
		return
	}
	s.logger.Info("Migration finished", fields...)
}
