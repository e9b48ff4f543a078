// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) initializer to build a Config with defaults.
// - Load layers a YAML file and GRADESTATS_ environment variables on top.
// - Validation errors wrap ErrInvalidConfig.
package config

import (
	"context"
	"time"

	"github.com/okian/gradestats/internal/domain/stats"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`
	// RequestTimeoutMS bounds a single HTTP request.
	RequestTimeoutMS int `koanf:"request_timeout_ms"`
	// ShutdownTimeoutMS bounds graceful shutdown.
	ShutdownTimeoutMS int `koanf:"shutdown_timeout_ms"`
	// CORSOrigins lists the allowed browser origins.
	CORSOrigins []string `koanf:"cors_origins"`

	// SourceDriver selects the record store: memory, file, sqlite, postgres or mongo.
	SourceDriver string `koanf:"source_driver"`
	// SourceDSN is the SQL data source name.
	SourceDSN string `koanf:"source_dsn"`
	// SourceFile is the YAML/JSON records file of the file driver.
	SourceFile string `koanf:"source_file"`
	// SourceWatch reloads the records file when it changes.
	SourceWatch bool `koanf:"source_watch"`

	MongoURI        string `koanf:"mongo_uri"`
	MongoDatabase   string `koanf:"mongo_database"`
	MongoCollection string `koanf:"mongo_collection"`

	// ConnectTimeoutMS bounds one source connection attempt.
	ConnectTimeoutMS int `koanf:"connect_timeout_ms"`
	// ConnectMaxTries caps source connection attempts at startup.
	ConnectMaxTries int `koanf:"connect_max_tries"`

	// CacheDriver selects the result cache: none, memory or redis.
	CacheDriver string `koanf:"cache_driver"`
	// CacheTTLMS is how long a computed result is served from cache.
	CacheTTLMS    int    `koanf:"cache_ttl_ms"`
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`

	// Weights maps score types to their weight in a class average.
	Weights map[string]float64 `koanf:"weights"`

	GlobalThreshold  float64   `koanf:"global_threshold"`
	GlobalBoundaries []float64 `koanf:"global_boundaries"`
	// SampleSize bounds the learner sample of global results.
	SampleSize int `koanf:"sample_size"`

	ClassThreshold  float64   `koanf:"class_threshold"`
	ClassBoundaries []float64 `koanf:"class_boundaries"`

	// MemberLimit caps the member ids listed per bucket (0 = no cap).
	MemberLimit int `koanf:"member_limit"`
	// IncludeEmptyBuckets also reports distribution ranges nobody falls into.
	IncludeEmptyBuckets bool `koanf:"include_empty_buckets"`
}

// New creates a Config populated with defaults. Context is accepted first to
// satisfy the project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	w := stats.DefaultWeights()
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":9080",
		RequestTimeoutMS:  30_000,
		ShutdownTimeoutMS: 10_000,
		CORSOrigins:       []string{"*"},
		SourceDriver:      "sqlite",
		MongoDatabase:     "perscholas",
		MongoCollection:   "grades",
		ConnectTimeoutMS:  5_000,
		ConnectMaxTries:   5,
		CacheDriver:       "none",
		CacheTTLMS:        30_000,
		RedisAddr:         "localhost:6379",
		Weights: map[string]float64{
			"exam":     w.Exam,
			"quiz":     w.Quiz,
			"homework": w.Homework,
		},
		GlobalThreshold:  stats.DefaultGlobalThreshold,
		GlobalBoundaries: stats.DefaultGlobalBoundaries(),
		SampleSize:       stats.DefaultSampleSize,
		ClassThreshold:   stats.DefaultClassThreshold,
		ClassBoundaries:  stats.DefaultClassBoundaries(),
	}
}

// RequestTimeout returns RequestTimeoutMS as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}

// ShutdownTimeout returns ShutdownTimeoutMS as a duration.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutMS) * time.Millisecond
}

// ConnectTimeout returns ConnectTimeoutMS as a duration.
func (c *Config) ConnectTimeout() time.Duration {
	return time.Duration(c.ConnectTimeoutMS) * time.Millisecond
}

// CacheTTL returns CacheTTLMS as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLMS) * time.Millisecond
}

// EngineWeights converts Weights into engine weights.
func (c *Config) EngineWeights() (stats.Weights, error) {
	return stats.WeightsFromMap(c.Weights)
}

// EngineOptions translates the statistics settings into engine options.
func (c *Config) EngineOptions() ([]stats.Option, error) {
	w, err := c.EngineWeights()
	if err != nil {
		return nil, err
	}
	return []stats.Option{
		stats.WithWeights(w),
		stats.WithGlobalMode(c.GlobalThreshold, c.GlobalBoundaries),
		stats.WithClassMode(c.ClassThreshold, c.ClassBoundaries),
		stats.WithSampleSize(c.SampleSize),
		stats.WithBucketOptions(
			stats.WithMemberLimit(c.MemberLimit),
			stats.WithEmptyBuckets(c.IncludeEmptyBuckets),
		),
	}, nil
}
