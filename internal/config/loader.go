package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/okian/gradestats/internal/domain/stats"
)

// Environment variable names read outside the prefixed key space.
const (
	EnvPrefix   = "GRADESTATS_"
	EnvFile     = "GRADESTATS_CONFIG"
	EnvWeights  = "GRADESTATS_WEIGHTS"
	EnvAtlasURI = "ATLAS_URI"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) if GRADESTATS_CONFIG is set
//  3. env (prefix GRADESTATS_)
//
// GRADESTATS_WEIGHTS takes "exam=0.5,quiz=0.3,homework=0.2". ATLAS_URI is
// used as mongo_uri when no other value is set.
func Load(ctx context.Context) (*Config, error) {
	base := New(ctx)

	k := koanf.New(".")

	if path := os.Getenv(EnvFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrLoadConfig, path, err)
		}
	}

	// Map env keys like GRADESTATS_SOURCE_DRIVER -> source_driver (flat keys).
	// Preserve underscores to match koanf tags on the struct. List keys take
	// comma separated values.
	envProvider := env.ProviderWithValue(EnvPrefix, ".", func(key, value string) (string, interface{}) {
		key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
		switch key {
		case "config", "weights":
			// Handled separately.
			return "", nil
		case "cors_origins", "global_boundaries", "class_boundaries":
			return key, splitList(value)
		}
		return key, value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %v", ErrLoadConfig, err)
	}

	// Slices and maps are decoded into empty fields so a shorter override
	// replaces the default instead of being merged into it.
	cfg := *base
	cfg.CORSOrigins = nil
	cfg.GlobalBoundaries = nil
	cfg.ClassBoundaries = nil
	cfg.Weights = nil
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}
	if cfg.CORSOrigins == nil {
		cfg.CORSOrigins = base.CORSOrigins
	}
	if cfg.GlobalBoundaries == nil {
		cfg.GlobalBoundaries = base.GlobalBoundaries
	}
	if cfg.ClassBoundaries == nil {
		cfg.ClassBoundaries = base.ClassBoundaries
	}
	if cfg.Weights == nil {
		cfg.Weights = base.Weights
	}

	if raw := os.Getenv(EnvWeights); raw != "" {
		w, err := parseWeights(raw)
		if err != nil {
			return nil, err
		}
		cfg.Weights = w
	}
	if cfg.MongoURI == "" {
		cfg.MongoURI = os.Getenv(EnvAtlasURI)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs *multierror.Error
	invalid := func(format string, args ...any) {
		errs = multierror.Append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if c.Addr == "" {
		invalid("addr must not be empty")
	}
	switch c.SourceDriver {
	case "memory", "sqlite", "postgres":
	case "file":
		if c.SourceFile == "" {
			invalid("source_file must be set for the file driver")
		}
	case "mongo":
		if c.MongoURI == "" {
			invalid("mongo_uri (or ATLAS_URI) must be set for the mongo driver")
		}
	default:
		invalid("unknown source_driver %q", c.SourceDriver)
	}
	if c.SourceWatch && c.SourceDriver != "file" {
		invalid("source_watch requires the file driver")
	}
	switch c.CacheDriver {
	case "none", "memory":
	case "redis":
		if c.RedisAddr == "" {
			invalid("redis_addr must be set for the redis cache")
		}
	default:
		invalid("unknown cache_driver %q", c.CacheDriver)
	}
	if c.CacheDriver != "none" && c.CacheTTLMS <= 0 {
		invalid("cache_ttl_ms must be positive")
	}
	if c.ConnectTimeoutMS <= 0 {
		invalid("connect_timeout_ms must be positive")
	}
	if c.ConnectMaxTries <= 0 {
		invalid("connect_max_tries must be positive")
	}
	if c.RequestTimeoutMS <= 0 {
		invalid("request_timeout_ms must be positive")
	}
	if c.SampleSize < 0 {
		invalid("sample_size must not be negative")
	}
	if c.MemberLimit < 0 {
		invalid("member_limit must not be negative")
	}
	if _, err := c.EngineWeights(); err != nil {
		invalid("weights: %v", err)
	}
	if err := stats.ValidateBoundaries(c.GlobalBoundaries); err != nil {
		invalid("global_boundaries: %v", err)
	}
	if err := stats.ValidateBoundaries(c.ClassBoundaries); err != nil {
		invalid("class_boundaries: %v", err)
	}
	return errs.ErrorOrNil()
}

// splitList splits a comma separated value, dropping blanks.
func splitList(raw string) []string {
	out := []string{}
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseWeights reads "type=weight" pairs separated by commas.
func parseWeights(raw string) (map[string]float64, error) {
	out := make(map[string]float64)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("%w: %s: expected type=weight, got %q", ErrInvalidConfig, EnvWeights, pair)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %q: %v", ErrInvalidConfig, EnvWeights, pair, err)
		}
		out[strings.ToLower(strings.TrimSpace(name))] = v
	}
	return out, nil
}
