package collection

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/kailas-cloud/hybridsync/internal/domain"
)

// --- Mocks ---

// mockRepo is an in-memory collection registry.
type mockRepo struct {
	collections map[string]domain.CollectionShape
	calls       []string
	existsErr   error
	createErr   error
	deleteErr   error
}

func newMockRepo(existing ...domain.CollectionShape) *mockRepo {
	m := &mockRepo{collections: make(map[string]domain.CollectionShape)}
	for _, c := range existing {
		m.collections[c.Name] = c
	}
	return m
}

func (m *mockRepo) Exists(_ context.Context, name string) (bool, error) {
	m.calls = append(m.calls, "exists "+name)
	if m.existsErr != nil {
		return false, m.existsErr
	}
	_, ok := m.collections[name]
	return ok, nil
}

func (m *mockRepo) Create(_ context.Context, shape domain.CollectionShape) error {
	m.calls = append(m.calls, "create "+shape.Name)
	if m.createErr != nil {
		return m.createErr
	}
	m.collections[shape.Name] = shape
	return nil
}

func (m *mockRepo) Delete(_ context.Context, name string) error {
	m.calls = append(m.calls, "delete "+name)
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.collections, name)
	return nil
}

func (m *mockRepo) DenseDimension(_ context.Context, name, _ string) (int, error) {
	c, ok := m.collections[name]
	if !ok {
		return 0, fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, domain.ErrCollectionNotFound)
	}
	return c.DenseDim, nil
}

var source = domain.CollectionShape{Name: "docs", DenseDim: 384}

// --- Tests ---

func TestEnsureExists_Creates(t *testing.T) {
	repo := newMockRepo(source)
	svc := New(repo, domain.HybridConfig{})

	created, err := svc.EnsureExists(context.Background(), "docs_hybrid", "docs")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created {
		t.Error("expected created=true")
	}
	got := repo.collections["docs_hybrid"]
	want := domain.CollectionShape{Name: "docs_hybrid", DenseDim: 384, DenseField: "dense", SparseField: "sparse"}
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestEnsureExists_NoOpWhenPresent(t *testing.T) {
	repo := newMockRepo(source, domain.CollectionShape{Name: "docs_hybrid", DenseDim: 384})
	svc := New(repo, domain.HybridConfig{})

	created, err := svc.EnsureExists(context.Background(), "docs_hybrid", "docs")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created {
		t.Error("expected created=false")
	}
	if slices.Contains(repo.calls, "create docs_hybrid") {
		t.Error("create must not be issued for an existing collection")
	}
}

func TestEnsureExists_MissingSource(t *testing.T) {
	svc := New(newMockRepo(), domain.HybridConfig{})

	_, err := svc.EnsureExists(context.Background(), "docs_hybrid", "docs")
	if !errors.Is(err, domain.ErrStoreUnavailable) || !errors.Is(err, domain.ErrCollectionNotFound) {
		t.Fatalf("expected store-unavailable missing source, got %v", err)
	}
}

func TestEnsureExists_StoreDown(t *testing.T) {
	repo := newMockRepo(source)
	repo.existsErr = domain.ErrStoreUnavailable
	svc := New(repo, domain.HybridConfig{})

	if _, err := svc.EnsureExists(context.Background(), "docs_hybrid", "docs"); !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestDestroyIfExists(t *testing.T) {
	repo := newMockRepo(source, domain.CollectionShape{Name: "docs_hybrid"})
	svc := New(repo, domain.HybridConfig{})

	deleted, err := svc.DestroyIfExists(context.Background(), "docs_hybrid")
	if err != nil || !deleted {
		t.Fatalf("expected delete, got deleted=%v err=%v", deleted, err)
	}

	deleted, err = svc.DestroyIfExists(context.Background(), "docs_hybrid")
	if err != nil || deleted {
		t.Fatalf("second destroy must be a no-op, got deleted=%v err=%v", deleted, err)
	}
}

func TestReset_RecreatesSameShape(t *testing.T) {
	old := domain.CollectionShape{Name: "docs_hybrid", DenseDim: 384, DenseField: "dense", SparseField: "sparse"}
	repo := newMockRepo(source, old)
	svc := New(repo, domain.HybridConfig{})

	if err := svc.Reset(context.Background(), "docs_hybrid", "docs"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"exists docs_hybrid", "delete docs_hybrid", "exists docs_hybrid", "create docs_hybrid"}
	if !slices.Equal(repo.calls, want) {
		t.Errorf("expected calls %v, got %v", want, repo.calls)
	}
	if repo.collections["docs_hybrid"] != old {
		t.Errorf("expected same shape after reset, got %+v", repo.collections["docs_hybrid"])
	}
}

func TestReset_DeleteError(t *testing.T) {
	repo := newMockRepo(source, domain.CollectionShape{Name: "docs_hybrid"})
	repo.deleteErr = domain.ErrStoreUnavailable
	svc := New(repo, domain.HybridConfig{})

	if err := svc.Reset(context.Background(), "docs_hybrid", "docs"); !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	if slices.Contains(repo.calls, "create docs_hybrid") {
		t.Error("create must not run after a failed delete")
	}
}
