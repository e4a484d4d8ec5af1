package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/hybridsync/internal/domain"
	domset "github.com/kailas-cloud/hybridsync/internal/domain/settings"
	healthuc "github.com/kailas-cloud/hybridsync/internal/usecase/health"
	migrationuc "github.com/kailas-cloud/hybridsync/internal/usecase/migration"
	searchuc "github.com/kailas-cloud/hybridsync/internal/usecase/search"
)

// --- Mocks ---

type mockLifecycle struct {
	resetErr  error
	ensureErr error
	resets    int
	ensures   int
}

func (m *mockLifecycle) EnsureExists(_ context.Context, _, _ string) (bool, error) {
	m.ensures++
	return false, m.ensureErr
}

func (m *mockLifecycle) Reset(_ context.Context, _, _ string) error {
	m.resets++
	return m.resetErr
}

type mockMigrator struct {
	report  migrationuc.Report
	err     error
	opts    migrationuc.Options
	records []domain.SourceRecord
}

func (m *mockMigrator) MigrateAll(
	_ context.Context, _, _ string, opts migrationuc.Options,
) (migrationuc.Report, error) {
	m.opts = opts
	return m.report, m.err
}

func (m *mockMigrator) MigrateIncremental(
	_ context.Context, _ string, records []domain.SourceRecord,
) (migrationuc.Report, error) {
	m.records = records
	return m.report, m.err
}

type mockSearcher struct {
	results []domain.ScoredRecord
	err     error
	tokens  int
	got     searchuc.Query
}

func (m *mockSearcher) Search(ctx context.Context, q searchuc.Query) ([]domain.ScoredRecord, error) {
	m.got = q
	if m.tokens > 0 {
		domain.UsageFromContext(ctx).AddTokens(m.tokens)
	}
	return m.results, m.err
}

type mockSettings struct {
	current    domset.Settings
	refreshErr error
}

func (m *mockSettings) Current() domset.Settings { return m.current }

func (m *mockSettings) Refresh(_ context.Context) (domset.Settings, error) {
	if m.refreshErr != nil {
		return m.current, m.refreshErr
	}
	return m.current, nil
}

func (m *mockSettings) Update(_ context.Context, s domset.Settings) (domset.Settings, error) {
	if err := s.Validate(); err != nil {
		return m.current, err
	}
	m.current = s
	return s, nil
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(_ context.Context) healthuc.Report { return m.report }

type fixture struct {
	lifecycle *mockLifecycle
	migrator  *mockMigrator
	search    *mockSearcher
	settings  *mockSettings
	health    *mockHealth
	handler   http.Handler
}

func newFixture() *fixture {
	f := &fixture{
		lifecycle: &mockLifecycle{},
		migrator:  &mockMigrator{},
		search:    &mockSearcher{},
		settings:  &mockSettings{current: domset.Default()},
		health: &mockHealth{report: healthuc.Report{
			Status: healthuc.Healthy,
			Checks: map[string]healthuc.CheckResult{healthuc.CheckStore: healthuc.CheckOK},
		}},
	}
	srv := NewServer(f.lifecycle, f.migrator, f.search, f.settings, f.health,
		Collections{Source: "pets", Target: "pets_hybrid"}, zap.NewNop())
	f.handler = NewRouter(srv, RouterOptions{Logger: zap.NewNop()})
	return f
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

// --- Admin ---

func TestInitCollection(t *testing.T) {
	f := newFixture()
	rr := f.do(t, "POST", "/v1/admin/init", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want 200: %s", rr.Code, rr.Body)
	}
	if got := decode[MessageResponse](t, rr); got.Message != MessageInitialized {
		t.Errorf("unexpected message %q", got.Message)
	}
	if f.lifecycle.resets != 1 {
		t.Errorf("expected one reset, got %d", f.lifecycle.resets)
	}
}

func TestInitCollection_StoreUnavailable(t *testing.T) {
	f := newFixture()
	f.lifecycle.resetErr = fmt.Errorf("ensure: %w", domain.ErrStoreUnavailable)

	rr := f.do(t, "POST", "/v1/admin/init", nil)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("got %d, want 503", rr.Code)
	}
	if got := decode[ErrorResponse](t, rr); got.Code != ErrorResponseCodeStoreUnavailable {
		t.Errorf("unexpected code %q", got.Code)
	}
}

func TestInitCollection_MissingSource(t *testing.T) {
	f := newFixture()
	f.lifecycle.resetErr = fmt.Errorf("read source: %w: %w", domain.ErrStoreUnavailable, domain.ErrCollectionNotFound)

	rr := f.do(t, "POST", "/v1/admin/init", nil)
	// ErrCollectionNotFound is checked before ErrStoreUnavailable.
	if rr.Code != http.StatusNotFound {
		t.Fatalf("got %d, want 404", rr.Code)
	}
}

func TestMigrateCollection(t *testing.T) {
	f := newFixture()
	f.migrator.report = migrationuc.Report{Pages: 3, Exported: 250, Loaded: 250}

	rr := f.do(t, "POST", "/v1/admin/migrate?fail_fast=true&resume=true", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want 200: %s", rr.Code, rr.Body)
	}
	got := decode[MigrationReport](t, rr)
	if got.Message != MessagePopulated || got.Loaded != 250 || got.Pages != 3 {
		t.Errorf("unexpected report %+v", got)
	}
	if !f.migrator.opts.FailFast || !f.migrator.opts.Resume {
		t.Errorf("query params not bound: %+v", f.migrator.opts)
	}
	if f.lifecycle.ensures != 1 {
		t.Error("migrate must ensure the target exists first")
	}
}

func TestMigrateCollection_DefaultParams(t *testing.T) {
	f := newFixture()
	rr := f.do(t, "POST", "/v1/admin/migrate", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want 200", rr.Code)
	}
	if f.migrator.opts.FailFast || f.migrator.opts.Resume {
		t.Errorf("expected zero options, got %+v", f.migrator.opts)
	}
}

func TestMigrateCollection_InvalidParam(t *testing.T) {
	f := newFixture()
	rr := f.do(t, "POST", "/v1/admin/migrate?fail_fast=maybe", nil)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400", rr.Code)
	}
}

func TestMigrateCollection_Partial(t *testing.T) {
	f := newFixture()
	f.migrator.report = migrationuc.Report{Pages: 1, Exported: 3, Loaded: 2, Failed: []string{"b"}}
	f.migrator.err = domain.NewPartialBatchError([]string{"b"}, domain.ErrStoreUnavailable)

	rr := f.do(t, "POST", "/v1/admin/migrate", nil)
	if rr.Code != http.StatusMultiStatus {
		t.Fatalf("got %d, want 207", rr.Code)
	}
	got := decode[MigrationReport](t, rr)
	if len(got.Failed) != 1 || got.Failed[0] != "b" || got.Message != "" {
		t.Errorf("unexpected report %+v", got)
	}
}

// --- Records ---

func TestStoreRecords(t *testing.T) {
	f := newFixture()
	f.migrator.report = migrationuc.Report{Pages: 1, Exported: 1, Loaded: 1}

	body := RecordsRequest{Records: []RecordItem{{
		ID:      "1",
		Vector:  []float32{0.1, 0.2},
		Payload: map[string]any{"page_content": "leash training basics"},
	}}}
	rr := f.do(t, "POST", "/v1/records", body)

	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want 200: %s", rr.Code, rr.Body)
	}
	if len(f.migrator.records) != 1 || f.migrator.records[0].ID != "1" {
		t.Errorf("unexpected records %+v", f.migrator.records)
	}
	if f.migrator.records[0].Payload.PageContent() != "leash training basics" {
		t.Error("payload not forwarded verbatim")
	}
}

func TestStoreRecords_KeepsIntegerMetadata(t *testing.T) {
	f := newFixture()
	f.migrator.report = migrationuc.Report{Exported: 1, Loaded: 1}

	body := RecordsRequest{Records: []RecordItem{{
		ID:      "1",
		Vector:  []float32{0.1},
		Payload: map[string]any{"page_content": "x", "metadata": map[string]any{"year": 2020}},
	}}}
	rr := f.do(t, "POST", "/v1/records", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want 200: %s", rr.Code, rr.Body)
	}

	meta, ok := f.migrator.records[0].Payload["metadata"].(map[string]any)
	if !ok {
		t.Fatalf("metadata not forwarded: %+v", f.migrator.records[0].Payload)
	}
	year, ok := meta["year"].(json.Number)
	if !ok {
		t.Fatalf("year decoded as %T, want json.Number", meta["year"])
	}
	if i, err := year.Int64(); err != nil || i != 2020 {
		t.Errorf("year = %s, want integer 2020", year)
	}
}

func TestStoreRecords_Validation(t *testing.T) {
	f := newFixture()

	if rr := f.do(t, "POST", "/v1/records", RecordsRequest{}); rr.Code != http.StatusBadRequest {
		t.Errorf("empty: got %d, want 400", rr.Code)
	}
	noVector := RecordsRequest{Records: []RecordItem{{ID: "1"}}}
	if rr := f.do(t, "POST", "/v1/records", noVector); rr.Code != http.StatusBadRequest {
		t.Errorf("no vector: got %d, want 400", rr.Code)
	}
}

func TestStoreRecords_Partial(t *testing.T) {
	f := newFixture()
	f.migrator.report = migrationuc.Report{Loaded: 1, Failed: []string{"2"}}
	f.migrator.err = domain.NewPartialBatchError([]string{"2"}, domain.ErrStoreUnavailable)

	body := RecordsRequest{Records: []RecordItem{
		{ID: "1", Vector: []float32{1}},
		{ID: "2", Vector: []float32{1}},
	}}
	rr := f.do(t, "POST", "/v1/records", body)
	if rr.Code != http.StatusMultiStatus {
		t.Fatalf("got %d, want 207", rr.Code)
	}
	if got := decode[MigrationReport](t, rr); len(got.Failed) != 1 || got.Failed[0] != "2" {
		t.Errorf("unexpected failed ids %v", got.Failed)
	}
}

// --- Search ---

func TestSearch_UsesSettingsSnapshot(t *testing.T) {
	f := newFixture()
	f.search.results = []domain.ScoredRecord{
		{ID: "a", Score: 0.9, Payload: domain.Payload{"metadata": map[string]any{"species": "dog"}}},
	}

	rr := f.do(t, "POST", "/v1/search", SearchRequest{
		Query:  "leash training",
		Filter: map[string]any{"species": "dog"},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want 200: %s", rr.Code, rr.Body)
	}
	got := decode[SearchResponse](t, rr)
	if len(got.Items) != 1 || got.Items[0].ID != "a" || got.K != 5 || got.Threshold != 0.5 {
		t.Errorf("unexpected response %+v", got)
	}
	q := f.search.got
	if q.Text != "leash training" || q.K != 5 || q.Threshold != 0.5 {
		t.Errorf("unexpected query %+v", q)
	}
	filter, ok := q.Filter.(map[string]any)
	if !ok || filter["species"] != "dog" {
		t.Errorf("filter not forwarded: %#v", q.Filter)
	}
}

func TestSearch_EmbeddingTokensHeader(t *testing.T) {
	f := newFixture()
	f.search.tokens = 7

	rr := f.do(t, "POST", "/v1/search", SearchRequest{Query: "x"})
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want 200", rr.Code)
	}
	if got := rr.Header().Get("X-Embedding-Tokens"); got != "7" {
		t.Errorf("X-Embedding-Tokens = %q, want 7", got)
	}
}

func TestSearch_RefreshFailureUsesCurrent(t *testing.T) {
	f := newFixture()
	f.settings.current = domset.Settings{NumberOfHybridItems: 3, HybridThreshold: 0.2}
	f.settings.refreshErr = errors.New("file unreadable")

	rr := f.do(t, "POST", "/v1/search", SearchRequest{Query: "x"})
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want 200", rr.Code)
	}
	if f.search.got.K != 3 || f.search.got.Threshold != 0.2 {
		t.Errorf("expected previous snapshot, got %+v", f.search.got)
	}
}

func TestSearch_ErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
		code ErrorResponseCode
	}{
		{"unsupported filter", domain.ErrUnsupportedFilterValue, http.StatusBadRequest, ErrorResponseCodeUnsupportedFilter},
		{"invalid request", domain.ErrInvalidRequest, http.StatusBadRequest, ErrorResponseCodeValidationFailed},
		{"embedding", fmt.Errorf("%w: %w", domain.ErrEmbeddingFailure, errors.New("x")),
			http.StatusBadGateway, ErrorResponseCodeEmbeddingFailure},
		{"store", domain.ErrStoreUnavailable, http.StatusServiceUnavailable, ErrorResponseCodeStoreUnavailable},
		{"missing", fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, domain.ErrCollectionNotFound),
			http.StatusNotFound, ErrorResponseCodeCollectionNotFound},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, ErrorResponseCodeInternalError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			f.search.err = tc.err

			rr := f.do(t, "POST", "/v1/search", SearchRequest{Query: "x"})
			if rr.Code != tc.want {
				t.Fatalf("got %d, want %d", rr.Code, tc.want)
			}
			if got := decode[ErrorResponse](t, rr); got.Code != tc.code {
				t.Errorf("code: got %q, want %q", got.Code, tc.code)
			}
		})
	}
}

func TestSearch_BadBody(t *testing.T) {
	f := newFixture()
	req := httptest.NewRequest("POST", "/v1/search", bytes.NewBufferString("{"))
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("got %d, want 400", rr.Code)
	}
}

// --- Settings ---

func TestSettings_GetAndPut(t *testing.T) {
	f := newFixture()

	rr := f.do(t, "GET", "/v1/settings", nil)
	if got := decode[domset.Settings](t, rr); got != domset.Default() {
		t.Errorf("unexpected settings %+v", got)
	}

	next := domset.Settings{NumberOfHybridItems: 8, HybridThreshold: 0.3}
	rr = f.do(t, "PUT", "/v1/settings", next)
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want 200", rr.Code)
	}
	if f.settings.current != next {
		t.Errorf("settings not updated: %+v", f.settings.current)
	}
}

func TestSettings_PutInvalid(t *testing.T) {
	f := newFixture()
	rr := f.do(t, "PUT", "/v1/settings", domset.Settings{NumberOfHybridItems: 0, HybridThreshold: 0.5})

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400", rr.Code)
	}
	if got := decode[ErrorResponse](t, rr); got.Code != ErrorResponseCodeInvalidSettings {
		t.Errorf("unexpected code %q", got.Code)
	}
	if f.settings.current != domset.Default() {
		t.Error("invalid settings must not replace the snapshot")
	}
}

// --- Health & routing ---

func TestHealthCheck(t *testing.T) {
	f := newFixture()
	rr := f.do(t, "GET", "/health", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want 200", rr.Code)
	}

	f.health.report = healthuc.Report{
		Status: healthuc.Degraded,
		Checks: map[string]healthuc.CheckResult{healthuc.CheckCollection: healthuc.CheckMissing},
	}
	rr = f.do(t, "GET", "/health", nil)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("got %d, want 503", rr.Code)
	}
	got := decode[HealthResponse](t, rr)
	if got.Status != "degraded" || got.Checks["collection"] != "missing" {
		t.Errorf("unexpected health %+v", got)
	}
}

func TestRouter_RequestIDAndNotFound(t *testing.T) {
	f := newFixture()
	rr := f.do(t, "GET", "/v1/unknown", nil)

	if rr.Code != http.StatusNotFound {
		t.Errorf("got %d, want 404", rr.Code)
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	f := newFixture()
	if rr := f.do(t, "DELETE", "/v1/settings", nil); rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("got %d, want 405", rr.Code)
	}
}
