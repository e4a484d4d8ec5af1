package health

import (
	"context"
	"errors"
	"testing"
)

// --- Mocks ---

type mockStorePinger struct {
	err error
}

func (m *mockStorePinger) Ping(_ context.Context) error { return m.err }

type mockEmbeddingChecker struct {
	err error
}

func (m *mockEmbeddingChecker) HealthCheck(_ context.Context) error { return m.err }

type mockCollections struct {
	exists bool
	err    error
	asked  string
}

func (m *mockCollections) Exists(_ context.Context, name string) (bool, error) {
	m.asked = name
	return m.exists, m.err
}

// --- Tests ---

func TestCheck_AllHealthy(t *testing.T) {
	cols := &mockCollections{exists: true}
	svc := New(&mockStorePinger{}, &mockEmbeddingChecker{}).WithCollection(cols, "pets_hybrid")
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	for _, name := range []string{CheckStore, CheckEmbedding, CheckCollection} {
		if r.Checks[name] != CheckOK {
			t.Errorf("expected %s %q, got %q", name, CheckOK, r.Checks[name])
		}
	}
	if cols.asked != "pets_hybrid" {
		t.Errorf("expected target lookup, got %q", cols.asked)
	}
}

func TestCheck_StoreDownIsUnhealthy(t *testing.T) {
	svc := New(&mockStorePinger{err: errors.New("conn refused")}, &mockEmbeddingChecker{}).
		WithCollection(&mockCollections{exists: true}, "t")
	r := svc.Check(context.Background())

	if r.Status != Unhealthy {
		t.Errorf("expected %q, got %q", Unhealthy, r.Status)
	}
	if r.Checks[CheckStore] != CheckError {
		t.Errorf("expected store %q, got %q", CheckError, r.Checks[CheckStore])
	}
	if _, ok := r.Checks[CheckEmbedding]; ok {
		t.Error("embedding should not be checked when the store is down")
	}
}

func TestCheck_EmbeddingError(t *testing.T) {
	svc := New(&mockStorePinger{}, &mockEmbeddingChecker{err: errors.New("timeout")})
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks[CheckStore] != CheckOK {
		t.Errorf("expected store %q, got %q", CheckOK, r.Checks[CheckStore])
	}
	if r.Checks[CheckEmbedding] != CheckError {
		t.Errorf("expected embedding %q, got %q", CheckError, r.Checks[CheckEmbedding])
	}
}

func TestCheck_CollectionMissing(t *testing.T) {
	svc := New(&mockStorePinger{}, nil).WithCollection(&mockCollections{}, "t")
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks[CheckCollection] != CheckMissing {
		t.Errorf("expected collection %q, got %q", CheckMissing, r.Checks[CheckCollection])
	}
}

func TestCheck_CollectionError(t *testing.T) {
	svc := New(&mockStorePinger{}, nil).WithCollection(&mockCollections{err: errors.New("boom")}, "t")
	r := svc.Check(context.Background())

	if r.Checks[CheckCollection] != CheckError {
		t.Errorf("expected collection %q, got %q", CheckError, r.Checks[CheckCollection])
	}
}

func TestCheck_NoEmbedding(t *testing.T) {
	svc := New(&mockStorePinger{}, nil)
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if _, ok := r.Checks[CheckEmbedding]; ok {
		t.Error("embedding check should be absent when embedding is nil")
	}
	if _, ok := r.Checks[CheckCollection]; ok {
		t.Error("collection check should be absent when not configured")
	}
}
