package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/gradestats/internal/adapters/repository"
	"github.com/okian/gradestats/pkg/logger"
)

// ErrNotWritable is returned when the target store does not accept writes.
var ErrNotWritable = errors.New("store is not writable")

// resetter is implemented by stores that can drop their records.
type resetter interface {
	Reset(ctx context.Context) error
}

// Run generates records from cfg and writes them to the configured store.
func Run(ctx context.Context, cfg Config) (*Stats, error) {
	cfg = cfg.withDefaults()
	stats := &Stats{StartTime: time.Now()}
	log := logger.Named("seed")

	driver, err := repository.ParseDriver(cfg.Driver)
	if err != nil {
		return nil, err
	}

	log.Info(ctx, "starting seed run",
		logger.String("driver", string(driver)),
		logger.Int("learners", cfg.Learners),
		logger.Int("classes", cfg.Classes),
		logger.Int("classesPerLearner", cfg.ClassesPerLearner),
		logger.Int64("seed", cfg.Seed),
		logger.Int("workers", cfg.Workers),
		logger.Bool("reset", cfg.Reset))

	records := NewGenerator(cfg).Generate()
	stats.RecordsGenerated = len(records)

	if driver == repository.DriverFile {
		// The file source is replaced wholesale.
		if err := repository.WriteRecordsFile(cfg.File, records); err != nil {
			return nil, fmt.Errorf("write records file: %w", err)
		}
		stats.RecordsWritten = len(records)
		stats.Batches = 1
		return finish(ctx, log, stats), nil
	}

	store, err := repository.Open(ctx, driver,
		repository.WithDSN(cfg.DSN),
		repository.WithMongo(cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection),
		repository.WithLogger(log),
	)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			log.Error(ctx, "failed to close store", logger.Error(cerr))
		}
	}()

	w, ok := store.(repository.Writer)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotWritable, driver)
	}

	if cfg.Reset {
		r, ok := store.(resetter)
		if !ok {
			return nil, fmt.Errorf("%w: %s cannot be reset", ErrNotWritable, driver)
		}
		if err := r.Reset(ctx); err != nil {
			return nil, fmt.Errorf("reset store: %w", err)
		}
		log.Info(ctx, "existing records dropped")
	}

	written, err := Load(ctx, w, records, cfg.BatchSize, cfg.Workers)
	stats.RecordsWritten = written
	stats.Batches = batchCount(len(records), cfg.BatchSize)
	if err != nil {
		return stats, fmt.Errorf("load records: %w", err)
	}
	return finish(ctx, log, stats), nil
}

func finish(ctx context.Context, log logger.Logger, stats *Stats) *Stats {
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	log.Info(ctx, "seed run completed",
		logger.Int("generated", stats.RecordsGenerated),
		logger.Int("written", stats.RecordsWritten),
		logger.Int("batches", stats.Batches),
		logger.Duration("duration", stats.Duration))
	return stats
}
