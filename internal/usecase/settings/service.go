package settings

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	domset "github.com/kailas-cloud/hybridsync/internal/domain/settings"
)

// Runtime holds the active settings snapshot. Readers get one consistent
// value; Refresh and Update swap it atomically.
type Runtime struct {
	current atomic.Pointer[domset.Settings]
	source  Source
	logger  *zap.Logger
}

// NewRuntime creates a Runtime seeded with initial. source may be nil.
func NewRuntime(source Source, initial domset.Settings, logger *zap.Logger) (*Runtime, error) {
	if err := initial.Validate(); err != nil {
		return nil, err
	}
	r := &Runtime{source: source, logger: logger}
	r.current.Store(&initial)
	return r, nil
}

// Current returns the active snapshot.
func (r *Runtime) Current() domset.Settings {
	return *r.current.Load()
}

// Refresh reloads settings from the source. Invalid or unreadable settings
// keep the previous snapshot, which is returned together with the error.
func (r *Runtime) Refresh(ctx context.Context) (domset.Settings, error) {
	if r.source == nil {
		return r.Current(), nil
	}
	next, err := r.source.Load(ctx)
	if err != nil {
		return r.Current(), fmt.Errorf("load settings: %w", err)
	}
	if err := next.Validate(); err != nil {
		return r.Current(), err
	}

	prev := r.current.Swap(&next)
	if *prev != next {
		r.logger.Info("Settings changed",
			zap.Int("number_of_hybrid_items", next.NumberOfHybridItems),
			zap.Float64("hybrid_threshold", next.HybridThreshold),
		)
	}
	return next, nil
}

// Update validates s, persists it when the source is writable, and makes it current.
func (r *Runtime) Update(ctx context.Context, s domset.Settings) (domset.Settings, error) {
	if err := s.Validate(); err != nil {
		return r.Current(), err
	}
	if w, ok := r.source.(Writer); ok {
		if err := w.Save(ctx, s); err != nil {
			return r.Current(), fmt.Errorf("save settings: %w", err)
		}
	}
	r.current.Store(&s)
	return s, nil
}
