// Package service wires the record store, result cache and statistics engine
// into the operations served by the HTTP API.
package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/okian/gradestats/internal/adapters/cache"
	"github.com/okian/gradestats/internal/adapters/repository"
	"github.com/okian/gradestats/internal/config"
	"github.com/okian/gradestats/internal/domain/stats"
	"github.com/okian/gradestats/pkg/logger"
	"github.com/okian/gradestats/pkg/metrics"
)

// Service implements the API dependencies for the statistics endpoints.
type Service struct {
	mu sync.RWMutex

	// Core components
	cfg    *config.Config
	store  repository.Store
	cache  cache.Cache
	engine *stats.Engine
	group  singleflight.Group

	// Components injected through options are not closed by Stop.
	ownStore bool
	ownCache bool

	// File watching
	watchCancel context.CancelFunc
	watchDone   chan struct{}

	started bool

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithConfig sets the configuration. Defaults from config.New are used otherwise.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg != nil {
			s.cfg = cfg
		}
	}
}

// WithStore injects a record store instead of opening the configured one.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithCache injects a result cache instead of opening the configured one.
func WithCache(c cache.Cache) Option {
	return func(s *Service) {
		if c != nil {
			s.cache = c
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service. Nothing is opened until Start.
func New(opts ...Option) *Service {
	s := &Service{}
	for _, opt := range opts {
		opt(s)
	}
	if s.cfg == nil {
		s.cfg = config.New(context.Background())
	}
	return s
}

// Start opens the store and cache and builds the engine.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting statistics service...")

	engineOpts, err := s.cfg.EngineOptions()
	if err != nil {
		return err
	}

	if s.store == nil {
		driver, err := repository.ParseDriver(s.cfg.SourceDriver)
		if err != nil {
			return err
		}
		store, err := repository.Open(ctx, driver,
			repository.WithDSN(s.cfg.SourceDSN),
			repository.WithFile(s.cfg.SourceFile),
			repository.WithMongo(s.cfg.MongoURI, s.cfg.MongoDatabase, s.cfg.MongoCollection),
			repository.WithConnectTimeout(s.cfg.ConnectTimeout()),
			repository.WithMaxTries(s.cfg.ConnectMaxTries),
			repository.WithLogger(s.logger.Named("repository")),
		)
		if err != nil {
			return err
		}
		s.store = store
		s.ownStore = true
	}

	if s.cache == nil {
		driver, err := cache.ParseDriver(s.cfg.CacheDriver)
		if err != nil {
			s.closeOwned()
			return err
		}
		c, err := cache.Open(ctx, driver, s.cfg.CacheTTL(), cache.RedisConfig{
			Addr:     s.cfg.RedisAddr,
			Password: s.cfg.RedisPassword,
			DB:       s.cfg.RedisDB,
		})
		if err != nil {
			s.closeOwned()
			return err
		}
		s.cache = c
		s.ownCache = true
	}

	engine, err := stats.NewEngine(instrumentedSource{store: s.store}, engineOpts...)
	if err != nil {
		s.closeOwned()
		return err
	}
	s.engine = engine

	if fs, ok := s.store.(*repository.FileStore); ok && s.cfg.SourceWatch {
		s.startWatch(fs)
	}

	s.started = true
	s.logger.Info(ctx, "statistics service started",
		logger.String("source_driver", string(s.store.Driver())),
		logger.String("cache", s.cfg.CacheDriver),
		logger.Bool("watch", s.watchCancel != nil),
	)
	return nil
}

// startWatch reloads the file store in the background and drops cached
// results whenever the file changes.
func (s *Service) startWatch(fs *repository.FileStore) {
	wctx, cancel := context.WithCancel(context.Background())
	s.watchCancel = cancel
	s.watchDone = make(chan struct{})
	c := s.cache
	go func() {
		defer close(s.watchDone)
		err := fs.Watch(wctx, func(records int) {
			if err := c.Flush(wctx); err != nil {
				metrics.RecordCacheError("flush")
				s.logger.Warn(wctx, "cache flush after reload failed", logger.Error(err))
			}
			s.logger.Debug(wctx, "cache flushed after reload", logger.Int("records", records))
		})
		if err != nil {
			s.logger.Error(wctx, "source watch stopped", logger.Error(err))
		}
	}()
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping statistics service...")

	if s.watchCancel != nil {
		s.watchCancel()
		<-s.watchDone
		s.watchCancel = nil
	}
	s.closeOwned()
	s.engine = nil

	s.started = false
	s.logger.Info(context.Background(), "statistics service stopped")
}

func (s *Service) closeOwned() {
	if s.ownCache && s.cache != nil {
		if err := s.cache.Close(); err != nil {
			s.logger.Warn(context.Background(), "closing cache failed", logger.Error(err))
		}
		s.cache = nil
		s.ownCache = false
	}
	if s.ownStore && s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Warn(context.Background(), "closing store failed", logger.Error(err))
		}
		s.store = nil
		s.ownStore = false
	}
}

// GlobalStats returns the statistics over every learner.
func (s *Service) GlobalStats(ctx context.Context) (*stats.Result, error) {
	return s.compute(ctx, stats.ScopeGlobal, cache.GlobalKey(), func(ctx context.Context, e *stats.Engine) (*stats.Result, error) {
		return e.ComputeGlobalStats(ctx)
	})
}

// ClassStats returns the statistics of one class. It fails with an error
// matching stats.ErrNotFound when the class has no records.
func (s *Service) ClassStats(ctx context.Context, classID int64) (*stats.Result, error) {
	return s.compute(ctx, stats.ScopeClass, cache.ClassKey(classID), func(ctx context.Context, e *stats.Engine) (*stats.Result, error) {
		return e.ComputeClassStats(ctx, classID)
	})
}

// compute serves key from cache or runs the engine. Concurrent requests for
// the same key share one computation. Cache failures are logged and bypassed;
// errors and not-found outcomes are never cached.
func (s *Service) compute(
	ctx context.Context,
	scope stats.Scope,
	key string,
	run func(context.Context, *stats.Engine) (*stats.Result, error),
) (*stats.Result, error) {
	s.mu.RLock()
	engine, c, started := s.engine, s.cache, s.started
	s.mu.RUnlock()
	if !started {
		return nil, ErrNotStarted
	}

	scopeLabel := string(scope)
	if res, ok, err := c.Get(ctx, key); err != nil {
		metrics.RecordCacheError("get")
		s.logger.Warn(ctx, "cache read failed, computing", logger.String("key", key), logger.Error(err))
	} else if ok {
		metrics.RecordCacheHit(scopeLabel)
		metrics.RecordStatsRequest(scopeLabel, "cached")
		return res, nil
	} else {
		metrics.RecordCacheMiss(scopeLabel)
	}

	// The shared computation outlives any single caller; each caller only
	// stops waiting on its own cancellation.
	ch := s.group.DoChan(key, func() (interface{}, error) {
		fctx, cancel := s.detach(ctx)
		defer cancel()
		start := time.Now()
		res, err := run(fctx, engine)
		metrics.RecordComputationLatency(scopeLabel, float64(time.Since(start).Microseconds())/1000.0)
		if err != nil {
			return nil, err
		}
		if err := c.Set(fctx, key, res); err != nil {
			metrics.RecordCacheError("set")
			s.logger.Warn(fctx, "cache write failed", logger.String("key", key), logger.Error(err))
		}
		return res, nil
	})
	var out singleflight.Result
	select {
	case <-ctx.Done():
		metrics.RecordStatsRequest(scopeLabel, "cancelled")
		return nil, ctx.Err()
	case out = <-ch:
	}
	if out.Err != nil {
		s.recordFailure(ctx, scopeLabel, out.Err)
		return nil, out.Err
	}

	res := out.Val.(*stats.Result)
	metrics.RecordStatsRequest(scopeLabel, "ok")
	metrics.UpdateLearnersTotal(scopeLabel, res.TotalEntities)
	metrics.UpdatePercentageAbove(scopeLabel, res.PercentageAboveThreshold)
	metrics.UpdateDistributionBuckets(scopeLabel, len(res.Distribution))
	metrics.MarkComputation(scopeLabel, time.Now())
	s.logger.Debug(ctx, "statistics computed",
		logger.String("scope", scopeLabel),
		logger.Int("learners", res.TotalEntities),
		logger.Float64("percentage_above_threshold", res.PercentageAboveThreshold),
	)
	return res, nil
}

// detach keeps ctx values such as the request id but drops its cancellation,
// bounding the work by the configured request timeout instead.
func (s *Service) detach(ctx context.Context) (context.Context, context.CancelFunc) {
	base := context.WithoutCancel(ctx)
	if d := s.cfg.RequestTimeout(); d > 0 {
		return context.WithTimeout(base, d)
	}
	return context.WithCancel(base)
}

func (s *Service) recordFailure(ctx context.Context, scope string, err error) {
	switch {
	case errors.Is(err, stats.ErrNotFound):
		metrics.RecordStatsRequest(scope, "not_found")
		metrics.RecordClassNotFound()
		s.logger.Debug(ctx, "no records for class", logger.Error(err))
	case errors.Is(err, stats.ErrDataSource):
		metrics.RecordStatsRequest(scope, "source_error")
		metrics.RecordComputationError("source")
		s.logger.Error(ctx, "statistics source failed", logger.String("scope", scope), logger.Error(err))
	default:
		metrics.RecordStatsRequest(scope, "computation_error")
		metrics.RecordComputationError("computation")
		s.logger.Error(ctx, "statistics computation failed", logger.String("scope", scope), logger.Error(err))
	}
}

// Ping reports whether the record store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	s.mu.RLock()
	store, started := s.store, s.started
	s.mu.RUnlock()
	if !started {
		return ErrNotStarted
	}
	return store.Ping(ctx)
}

// InvalidateCache drops every cached result.
func (s *Service) InvalidateCache(ctx context.Context) error {
	s.mu.RLock()
	c, started := s.cache, s.started
	s.mu.RUnlock()
	if !started {
		return ErrNotStarted
	}
	return c.Flush(ctx)
}

// GetStats returns service state for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := map[string]interface{}{
		"started":     s.started,
		"cacheDriver": s.cfg.CacheDriver,
		"watching":    s.watchCancel != nil,
	}
	if s.store != nil {
		out["sourceDriver"] = string(s.store.Driver())
	} else {
		out["sourceDriver"] = s.cfg.SourceDriver
	}
	return out
}
