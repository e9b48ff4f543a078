package seed

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/okian/gradestats/internal/adapters/repository"
	"github.com/okian/gradestats/internal/domain/grades"
)

// Load writes records to w in batches of batchSize with at most workers
// batches in flight. The first failing batch cancels the rest; the number
// of records written before the failure is returned with the error.
func Load(ctx context.Context, w repository.Writer, records []grades.ScoreRecord, batchSize, workers int) (int, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if workers <= 0 {
		workers = DefaultWorkers
	}

	var written atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for start := 0; start < len(records); start += batchSize {
		end := min(start+batchSize, len(records))
		batch := records[start:end]
		first := start
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := w.InsertScoreRecords(gctx, batch); err != nil {
				return fmt.Errorf("insert batch at %d: %w", first, err)
			}
			written.Add(int64(len(batch)))
			return nil
		})
	}

	err := g.Wait()
	return int(written.Load()), err
}

// batchCount returns how many batches Load issues for n records.
func batchCount(n, batchSize int) int {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return (n + batchSize - 1) / batchSize
}
