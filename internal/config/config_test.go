package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	cfg := Config{
		HTTP:        HTTPConfig{Port: 8080},
		Collections: CollectionsConfig{Source: "pets"},
		Embedding:   EmbeddingConfig{Model: "text-embedding-3-small"},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_Valid(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 70000

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_UnknownDriver(t *testing.T) {
	cfg := validConfig()
	cfg.Store.Driver = "valkey"

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "store.driver") {
		t.Fatalf("expected driver error, got %v", err)
	}
}

func TestValidate_MissingRedisAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Store.Driver = DriverRedis

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing redis addrs")
	}

	cfg.Store.Redis.Addrs = []string{"localhost:6379"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_CacheNeedsRedis(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding.Cache.Enabled = true

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for cache without redis")
	}
}

func TestValidate_Collections(t *testing.T) {
	cfg := validConfig()
	cfg.Collections.Target = cfg.Collections.Source
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for target == source")
	}

	cfg = validConfig()
	cfg.Collections.SparseField = cfg.Collections.DenseField
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for identical vector fields")
	}

	cfg = validConfig()
	cfg.Collections.Source = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing source")
	}
}

func TestValidate_Threshold(t *testing.T) {
	cfg := validConfig()
	bad := 1.5
	cfg.Settings.HybridThreshold = &bad

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for threshold above 1")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{Collections: CollectionsConfig{Source: "pets"}}
	cfg.ApplyDefaults()

	if cfg.Store.Driver != DriverQdrant {
		t.Errorf("Driver = %q, want %q", cfg.Store.Driver, DriverQdrant)
	}
	if cfg.Store.Qdrant.Port != 6334 || cfg.Store.Qdrant.Wait == nil || !*cfg.Store.Qdrant.Wait {
		t.Errorf("unexpected qdrant defaults %+v", cfg.Store.Qdrant)
	}
	if cfg.Collections.Target != "pets_hybrid" {
		t.Errorf("Target = %q, want pets_hybrid", cfg.Collections.Target)
	}
	if cfg.Collections.DenseField != "dense" || cfg.Collections.SparseField != "sparse" {
		t.Errorf("unexpected fields %+v", cfg.Collections)
	}
	if cfg.Collections.SparseModel != "Qdrant/bm25" {
		t.Errorf("SparseModel = %q", cfg.Collections.SparseModel)
	}
	if cfg.Migration.PageSize != 100 || cfg.Migration.BatchSize != 64 {
		t.Errorf("unexpected migration defaults %+v", cfg.Migration)
	}
	if cfg.Migration.SettleDelay != 5*time.Second {
		t.Errorf("SettleDelay = %v, want 5s", cfg.Migration.SettleDelay)
	}
	if cfg.Search.PrefetchLimit != 50 || cfg.Search.RRFConstant != 2 {
		t.Errorf("unexpected search defaults %+v", cfg.Search)
	}
	if cfg.Search.WithVectors == nil || !*cfg.Search.WithVectors {
		t.Error("WithVectors should default to true")
	}
	if cfg.Settings.NumberOfHybridItems != 5 || cfg.Settings.Threshold() != 0.5 {
		t.Errorf("unexpected settings defaults %+v", cfg.Settings)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	zero := 0.0
	cfg := Config{
		Store:     StoreConfig{Driver: DriverRedis},
		Migration: MigrationConfig{PageSize: 10, SettleDelay: -1},
		Settings:  SettingsConfig{NumberOfHybridItems: 3, HybridThreshold: &zero},
	}
	cfg.ApplyDefaults()

	if cfg.Store.Driver != DriverRedis {
		t.Errorf("Driver overwritten: %q", cfg.Store.Driver)
	}
	if cfg.Migration.PageSize != 10 || cfg.Migration.SettleDelay != -1 {
		t.Errorf("migration overwritten: %+v", cfg.Migration)
	}
	if cfg.Settings.NumberOfHybridItems != 3 || cfg.Settings.Threshold() != 0 {
		t.Errorf("settings overwritten: %+v", cfg.Settings)
	}
}

func TestParse_ExpandsEnvAndDurations(t *testing.T) {
	t.Setenv("HYBRIDSYNC_TEST_KEY", "sk-test")

	cfg, err := Parse([]byte(`
http:
  port: 8080
collections:
  source: pets
migration:
  settle_delay: 250ms
embedding:
  model: text-embedding-3-small
  api_key: ${HYBRIDSYNC_TEST_KEY}
  base_url: ${HYBRIDSYNC_UNSET_URL:-http://localhost:11434/v1}
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Embedding.APIKey != "sk-test" {
		t.Errorf("APIKey = %q", cfg.Embedding.APIKey)
	}
	if cfg.Embedding.BaseURL != "http://localhost:11434/v1" {
		t.Errorf("BaseURL = %q", cfg.Embedding.BaseURL)
	}
	if cfg.Migration.SettleDelay != 250*time.Millisecond {
		t.Errorf("SettleDelay = %v", cfg.Migration.SettleDelay)
	}
}

func TestParse_WithVectorsOptOut(t *testing.T) {
	cfg, err := Parse([]byte(`
collections:
  source: pets
search:
  with_vectors: false
embedding:
  model: m
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Search.WithVectors == nil || *cfg.Search.WithVectors {
		t.Error("explicit with_vectors: false must be kept")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.yaml")
	data := "collections:\n  source: pets\nembedding:\n  model: m\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Collections.Target != "pets_hybrid" {
		t.Errorf("Target = %q", cfg.Collections.Target)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
