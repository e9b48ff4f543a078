package service

import (
	"context"
	"time"

	"github.com/okian/gradestats/internal/adapters/repository"
	"github.com/okian/gradestats/internal/domain/grades"
	"github.com/okian/gradestats/internal/domain/stats"
	"github.com/okian/gradestats/pkg/metrics"
)

// instrumentedSource records read latency, volume and failures of a store.
type instrumentedSource struct {
	store repository.Store
}

var _ stats.Source = instrumentedSource{}

func (s instrumentedSource) FetchScoreRecords(ctx context.Context, f grades.Filter) ([]grades.ScoreRecord, error) {
	driver := string(s.store.Driver())
	scope := string(stats.ScopeGlobal)
	if f.ClassID != nil {
		scope = string(stats.ScopeClass)
	}

	start := time.Now()
	records, err := s.store.FetchScoreRecords(ctx, f)
	metrics.RecordSourceFetchLatency(driver, float64(time.Since(start).Microseconds())/1000.0)
	if err != nil {
		metrics.RecordSourceError(driver)
		metrics.RecordErrorByComponent("source", driver)
		return nil, err
	}
	metrics.RecordRecordsFetched(scope, len(records))
	return records, nil
}
