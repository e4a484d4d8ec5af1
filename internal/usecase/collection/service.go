package collection

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/hybridsync/internal/domain"
)

// Service manages the lifecycle of the hybrid target collection.
type Service struct {
	repo Repository
	cfg  domain.HybridConfig
}

// New creates a collection lifecycle service.
func New(repo Repository, cfg domain.HybridConfig) *Service {
	return &Service{repo: repo, cfg: cfg.WithDefaults()}
}

// EnsureExists creates target with the source's dense dimension unless it
// already exists. Returns true when the collection was created.
func (s *Service) EnsureExists(ctx context.Context, target, source string) (bool, error) {
	exists, err := s.repo.Exists(ctx, target)
	if err != nil {
		return false, fmt.Errorf("ensure %s: %w", target, err)
	}
	if exists {
		return false, nil
	}

	dim, err := s.repo.DenseDimension(ctx, source, s.cfg.SourceDenseField)
	if err != nil {
		return false, fmt.Errorf("ensure %s: read source %s: %w", target, source, err)
	}

	shape := domain.CollectionShape{
		Name:        target,
		DenseDim:    dim,
		DenseField:  s.cfg.DenseField,
		SparseField: s.cfg.SparseField,
	}
	if err := s.repo.Create(ctx, shape); err != nil {
		return false, fmt.Errorf("ensure %s: %w", target, err)
	}
	return true, nil
}

// DestroyIfExists deletes target when present. Returns true when a delete was issued.
func (s *Service) DestroyIfExists(ctx context.Context, target string) (bool, error) {
	exists, err := s.repo.Exists(ctx, target)
	if err != nil {
		return false, fmt.Errorf("destroy %s: %w", target, err)
	}
	if !exists {
		return false, nil
	}
	if err := s.repo.Delete(ctx, target); err != nil {
		return false, fmt.Errorf("destroy %s: %w", target, err)
	}
	return true, nil
}

// Reset drops target and recreates it empty with the source's shape.
func (s *Service) Reset(ctx context.Context, target, source string) error {
	if _, err := s.DestroyIfExists(ctx, target); err != nil {
		return err
	}
	if _, err := s.EnsureExists(ctx, target, source); err != nil {
		return err
	}
	return nil
}
