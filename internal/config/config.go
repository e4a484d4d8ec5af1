package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Store drivers.
const (
	DriverQdrant = "qdrant"
	DriverRedis  = "redis"
)

// Config holds the hybridsync configuration.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http"`
	Auth        AuthConfig        `yaml:"auth"`
	Store       StoreConfig       `yaml:"store"`
	Collections CollectionsConfig `yaml:"collections"`
	Migration   MigrationConfig   `yaml:"migration"`
	Search      SearchConfig      `yaml:"search"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	Settings    SettingsConfig    `yaml:"settings"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys   []string `yaml:"api_keys"`
	AdminKeys []string `yaml:"admin_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"` // migrations run inside the request
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// StoreConfig selects and configures the vector store.
type StoreConfig struct {
	Driver           string       `yaml:"driver"` // qdrant, redis (default: qdrant)
	ReadinessTimeout int          `yaml:"readiness_timeout_sec"`
	Qdrant           QdrantConfig `yaml:"qdrant"`
	Redis            RedisConfig  `yaml:"redis"`
}

// QdrantConfig holds Qdrant gRPC settings.
type QdrantConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	APIKey     string `yaml:"api_key"`
	UseTLS     bool   `yaml:"use_tls"`
	Wait       *bool  `yaml:"wait"` // default true
	TimeoutSec int    `yaml:"timeout_sec"`
}

// RedisConfig holds Redis connection and index settings.
type RedisConfig struct {
	Addrs           []string `yaml:"addrs"`
	Username        string   `yaml:"username"`
	Password        string   `yaml:"password"`
	DB              int      `yaml:"db"`
	KeyPrefix       string   `yaml:"key_prefix"`
	HNSWM           int      `yaml:"hnsw_m"`
	HNSWEFConstruct int      `yaml:"hnsw_ef_construction"`
}

// CollectionsConfig names the source and target collections and vector fields.
type CollectionsConfig struct {
	Source           string `yaml:"source"`
	Target           string `yaml:"target"`
	SourceDenseField string `yaml:"source_dense_field"` // empty: single unnamed vector
	DenseField       string `yaml:"dense_field"`
	SparseField      string `yaml:"sparse_field"`
	SparseModel      string `yaml:"sparse_model"`
}

// MigrationConfig holds migration pipeline settings.
type MigrationConfig struct {
	PageSize  int `yaml:"page_size"`
	BatchSize int `yaml:"batch_size"`
	// SettleDelay applies only to stores that do not acknowledge visible writes.
	// Zero uses the default, negative disables the wait.
	SettleDelay    time.Duration `yaml:"settle_delay"`
	CheckpointPath string        `yaml:"checkpoint_path"` // empty: no checkpoints
}

// SearchConfig holds fused query settings.
type SearchConfig struct {
	PrefetchLimit int   `yaml:"prefetch_limit"`
	RRFConstant   int   `yaml:"rrf_constant"`
	WithVectors   *bool `yaml:"with_vectors"` // default true
}

// EmbeddingConfig holds the query embedding provider settings.
type EmbeddingConfig struct {
	Provider         string      `yaml:"provider"`
	BaseURL          string      `yaml:"base_url"`
	APIKey           string      `yaml:"api_key"`
	Model            string      `yaml:"model"`
	Dimensions       int         `yaml:"dimensions"`
	QueryInstruction string      `yaml:"query_instruction"`
	TimeoutSec       int         `yaml:"timeout_sec"`
	Cache            CacheConfig `yaml:"cache"`
}

// CacheConfig holds query embedding cache settings. The cache lives in Redis.
type CacheConfig struct {
	Enabled   bool   `yaml:"enabled"`
	TTLSec    int    `yaml:"ttl_sec"` // 0: no expiry
	KeyPrefix string `yaml:"key_prefix"`
}

// SettingsConfig holds the runtime settings file and its defaults.
type SettingsConfig struct {
	Path                string   `yaml:"path"` // empty: static defaults
	NumberOfHybridItems int      `yaml:"number_of_hybrid_items"`
	HybridThreshold     *float64 `yaml:"hybrid_threshold"` // default 0.5; 0 is a valid value
}

// Threshold returns the configured default threshold.
func (s SettingsConfig) Threshold() float64 {
	if s.HybridThreshold == nil {
		return 0.5
	}
	return *s.HybridThreshold
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}
	return Parse(data)
}

// Parse decodes, defaults and validates a YAML document.
func Parse(data []byte) (Config, error) {
	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 600
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}

	if c.Store.Driver == "" {
		c.Store.Driver = DriverQdrant
	}
	if c.Store.ReadinessTimeout <= 0 {
		c.Store.ReadinessTimeout = 10
	}
	if c.Store.Qdrant.Host == "" {
		c.Store.Qdrant.Host = "localhost"
	}
	if c.Store.Qdrant.Port <= 0 {
		c.Store.Qdrant.Port = 6334
	}
	if c.Store.Qdrant.Wait == nil {
		wait := true
		c.Store.Qdrant.Wait = &wait
	}
	if c.Store.Redis.KeyPrefix == "" {
		c.Store.Redis.KeyPrefix = "hybridsync:"
	}

	if c.Collections.Target == "" && c.Collections.Source != "" {
		c.Collections.Target = c.Collections.Source + "_hybrid"
	}
	if c.Collections.DenseField == "" {
		c.Collections.DenseField = "dense"
	}
	if c.Collections.SparseField == "" {
		c.Collections.SparseField = "sparse"
	}
	if c.Collections.SparseModel == "" {
		c.Collections.SparseModel = "Qdrant/bm25"
	}

	if c.Migration.PageSize <= 0 {
		c.Migration.PageSize = 100
	}
	if c.Migration.BatchSize <= 0 {
		c.Migration.BatchSize = 64
	}
	if c.Migration.SettleDelay == 0 {
		c.Migration.SettleDelay = 5 * time.Second
	}

	if c.Search.PrefetchLimit <= 0 {
		c.Search.PrefetchLimit = 50
	}
	if c.Search.RRFConstant <= 0 {
		c.Search.RRFConstant = 2
	}
	if c.Search.WithVectors == nil {
		withVectors := true
		c.Search.WithVectors = &withVectors
	}

	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.TimeoutSec <= 0 {
		c.Embedding.TimeoutSec = 30
	}
	if c.Embedding.Cache.KeyPrefix == "" {
		c.Embedding.Cache.KeyPrefix = "hybridsync:emb_cache:"
	}

	if c.Settings.NumberOfHybridItems <= 0 {
		c.Settings.NumberOfHybridItems = 5
	}
	if c.Settings.HybridThreshold == nil {
		threshold := 0.5
		c.Settings.HybridThreshold = &threshold
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port < 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 0 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Store.Driver {
	case DriverQdrant:
	case DriverRedis:
		if len(c.Store.Redis.Addrs) == 0 {
			return fmt.Errorf("store.redis.addrs is required for the redis driver")
		}
	default:
		return fmt.Errorf("store.driver must be %q or %q, got %q", DriverQdrant, DriverRedis, c.Store.Driver)
	}
	if c.Embedding.Cache.Enabled && len(c.Store.Redis.Addrs) == 0 {
		return fmt.Errorf("embedding.cache requires store.redis.addrs")
	}
	if c.Collections.Source == "" {
		return fmt.Errorf("collections.source is required")
	}
	if c.Collections.Source == c.Collections.Target {
		return fmt.Errorf("collections.target must differ from collections.source")
	}
	if c.Collections.DenseField == c.Collections.SparseField {
		return fmt.Errorf("collections.dense_field and sparse_field must differ")
	}
	if c.Embedding.Model == "" {
		return fmt.Errorf("embedding.model is required")
	}
	if t := c.Settings.Threshold(); t < 0 || t > 1 {
		return fmt.Errorf("settings.hybrid_threshold must be in [0, 1], got %g", t)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
