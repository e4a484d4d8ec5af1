package hybrid

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	driver string // "qdrant" or "redis"

	qdrantHost   string
	qdrantPort   int
	qdrantAPIKey string
	qdrantTLS    bool

	redisAddrs    []string
	redisPassword string

	source, target string
	sourceDense    string

	embedder         Embedder
	queryInstruction string

	pageSize    int
	batchSize   int
	settleDelay time.Duration

	prefetchLimit int
	rrfConstant   int
	withVectors   bool

	settingsPath   string
	checkpointPath string

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

func newClientConfig(opts ...Option) *clientConfig {
	cfg := &clientConfig{withVectors: true}
	for _, o := range opts {
		o.apply(cfg)
	}
	return cfg
}

// WithQdrant stores both collections in Qdrant, reached over gRPC.
func WithQdrant(host string, port int, apiKey string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "qdrant"
		c.qdrantHost = host
		c.qdrantPort = port
		c.qdrantAPIKey = apiKey
	})
}

// WithQdrantTLS enables TLS for the Qdrant connection.
func WithQdrantTLS() Option {
	return optionFunc(func(c *clientConfig) {
		c.qdrantTLS = true
	})
}

// WithRedis stores both collections in Redis 8 with the query engine.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "redis"
		c.redisAddrs = []string{addr}
		c.redisPassword = password
	})
}

// WithCollections names the dense source and the hybrid target.
// An empty target defaults to source + "_hybrid".
func WithCollections(source, target string) Option {
	return optionFunc(func(c *clientConfig) {
		c.source = source
		c.target = target
	})
}

// WithSourceDenseField names the dense vector of a source collection that
// uses named vectors. Leave unset for a single unnamed vector.
func WithSourceDenseField(name string) Option {
	return optionFunc(func(c *clientConfig) {
		c.sourceDense = name
	})
}

// WithEmbedder sets the query embedding provider. Required for Recall.
// instruction, if not empty, is prepended to every query text.
func WithEmbedder(e Embedder, instruction string) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
		c.queryInstruction = instruction
	})
}

// WithMigration sizes export pages and load batches and sets the settle
// delay used when the store does not acknowledge indexed writes.
// Zero values keep the defaults (100, 64, 5s); a negative delay disables it.
func WithMigration(pageSize, batchSize int, settle time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.pageSize = pageSize
		c.batchSize = batchSize
		c.settleDelay = settle
	})
}

// WithSearch tunes per-channel candidate depth and the RRF rank constant,
// and whether results carry their dense vector.
// Zero values keep the defaults (50, 2); vectors are returned by default.
func WithSearch(prefetchLimit, rrfConstant int, withVectors bool) Option {
	return optionFunc(func(c *clientConfig) {
		c.prefetchLimit = prefetchLimit
		c.rrfConstant = rrfConstant
		c.withVectors = withVectors
	})
}

// WithSettingsFile persists runtime settings in a YAML file that is re-read
// before every Recall.
func WithSettingsFile(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.settingsPath = path
	})
}

// WithCheckpoints stores migration cursors in a bbolt file so Migrate can resume.
func WithCheckpoints(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.checkpointPath = path
	})
}

// WithLogger enables structured logging for client operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers client metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
