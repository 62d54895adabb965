package georecon

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/georecon/internal/loader"
)

// Option configures the Engine.
type Option interface {
	apply(*engineConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*engineConfig)

func (f optionFunc) apply(c *engineConfig) { f(c) }

type engineConfig struct {
	source   *loader.Config
	rows     []Row
	sizeHint int

	redisAddrs []string
	password   string
	keyPrefix  string
	retireTTL  time.Duration

	defaultLimit int
	maxLimit     int
	maxBatchSize int
	workers      int
	timeout      time.Duration

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithFile loads the gazetteer from a file. The format follows the extension:
// .db/.sqlite for SQLite, .parquet for parquet, anything else is read as a
// tab-separated GeoNames dump (plain, .gz or .zip).
func WithFile(path string) Option {
	return optionFunc(func(c *engineConfig) {
		c.source = &loader.Config{Path: path}
	})
}

// WithSQLite loads the gazetteer from a SQLite table. An empty table reads "geonames".
func WithSQLite(path, table string) Option {
	return optionFunc(func(c *engineConfig) {
		c.source = &loader.Config{Kind: loader.KindSQLite, Path: path, Table: table}
	})
}

// WithRows loads the gazetteer from in-memory rows instead of a file.
func WithRows(rows []Row) Option {
	return optionFunc(func(c *engineConfig) {
		c.rows = rows
		c.source = nil
	})
}

// WithSizeHint preallocates for the expected number of entities.
func WithSizeHint(n int) Option {
	return optionFunc(func(c *engineConfig) {
		c.sizeHint = n
	})
}

// WithRedis publishes entity records to Redis or Valkey and resolves
// candidates from there. The search index always stays in process.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *engineConfig) {
		c.redisAddrs = []string{addr}
		c.password = password
	})
}

// WithKeyPrefix sets the Redis key prefix. Default: "georecon".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *engineConfig) {
		c.keyPrefix = prefix
	})
}

// WithRetireTTL keeps the keys of a replaced generation for ttl after a
// Reload. It is raised to the batch timeout when shorter. Default: 5m.
func WithRetireTTL(ttl time.Duration) Option {
	return optionFunc(func(c *engineConfig) {
		c.retireTTL = ttl
	})
}

// WithLimits sets the default and maximum candidates per query.
// Defaults: 5 and 50.
func WithLimits(defaultLimit, maxLimit int) Option {
	return optionFunc(func(c *engineConfig) {
		c.defaultLimit = defaultLimit
		c.maxLimit = maxLimit
	})
}

// WithMaxBatchSize sets the maximum number of queries per Reconcile call.
// Default: 1000.
func WithMaxBatchSize(size int) Option {
	return optionFunc(func(c *engineConfig) {
		c.maxBatchSize = size
	})
}

// WithWorkers sets the number of queries evaluated concurrently. Default: 8.
func WithWorkers(n int) Option {
	return optionFunc(func(c *engineConfig) {
		c.workers = n
	})
}

// WithTimeout bounds a Reconcile call. Default: 10s.
func WithTimeout(d time.Duration) Option {
	return optionFunc(func(c *engineConfig) {
		c.timeout = d
	})
}

// WithLogger enables structured logging for engine operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *engineConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *engineConfig) {
		c.metricsReg = reg
	})
}
