// Package stats computes weighted academic performance statistics from raw
// score records.
//
// The pipeline is a chain of pure stages over in-memory slices:
//
//	fetch -> flatten -> group by (learner, class) -> weighted reduce
//	      -> [roll up per learner] -> classify + bucket -> Result
//
// An Engine holds only immutable configuration and is safe for concurrent
// use. The source read is the only blocking step of a request.
package stats

import (
	"context"
	"math"

	"github.com/okian/gradestats/internal/domain/grades"
)

// Default engine configuration constants.
const (
	DefaultGlobalThreshold = 50
	DefaultClassThreshold  = 70
	DefaultSampleSize      = 100

	percentageDecimals = 100 // round to 2 decimal places
)

// DefaultGlobalBoundaries are the distribution ranges for global mode.
func DefaultGlobalBoundaries() []float64 { return []float64{0, 20, 40, 60, 80, 100} }

// DefaultClassBoundaries are the distribution ranges for class mode.
func DefaultClassBoundaries() []float64 { return []float64{0, 60, 70, 80, 90, 100} }

// Source reads score records from the external store.
type Source interface {
	// FetchScoreRecords returns a snapshot of the records passing f.
	FetchScoreRecords(ctx context.Context, f grades.Filter) ([]grades.ScoreRecord, error)
}

// Scope selects the aggregation shape.
type Scope string

// Supported scopes.
const (
	ScopeGlobal Scope = "global"
	ScopeClass  Scope = "class"
)

// Mode holds the pass mark and distribution ranges of one scope.
type Mode struct {
	Threshold  float64
	Boundaries []float64
}

// Query parameterises a single pipeline run.
type Query struct {
	Scope Scope
	// ClassID is required for ScopeClass and ignored otherwise.
	ClassID    int64
	Threshold  float64
	Boundaries []float64
	// SampleSize bounds Result.Sample in global scope.
	SampleSize int
	// RoundPercentage rounds the percentage to 2 decimal places.
	RoundPercentage bool
}

// LearnerScore is a learner's weighted average within one class.
type LearnerScore struct {
	LearnerID   int64   `json:"learner_id"`
	WeightedAvg float64 `json:"weighted_avg"`
}

// Result is the summary produced for one request.
type Result struct {
	Scope                    Scope                   `json:"scope"`
	ClassID                  *int64                  `json:"class_id,omitempty"`
	Threshold                float64                 `json:"threshold"`
	TotalEntities            int                     `json:"total_learners"`
	EntitiesAboveThreshold   int                     `json:"learners_above_threshold"`
	PercentageAboveThreshold float64                 `json:"percentage_above_threshold"`
	Distribution             []Bucket                `json:"score_distribution"`
	Sample                   []grades.LearnerSummary `json:"sample_learners,omitempty"`
	LearnerScores            []LearnerScore          `json:"learner_scores,omitempty"`
}

// Engine runs the aggregation pipeline against a Source.
type Engine struct {
	source        Source
	weights       Weights
	global        Mode
	class         Mode
	sampleSize    int
	bucketOptions []BucketOption
}

// NewEngine creates an Engine. Configuration is validated up front so a
// misconfigured engine never serves a request.
func NewEngine(source Source, opts ...Option) (*Engine, error) {
	if source == nil {
		return nil, computationErrorf("source is nil")
	}
	e := &Engine{
		source:     source,
		weights:    DefaultWeights(),
		global:     Mode{Threshold: DefaultGlobalThreshold, Boundaries: DefaultGlobalBoundaries()},
		class:      Mode{Threshold: DefaultClassThreshold, Boundaries: DefaultClassBoundaries()},
		sampleSize: DefaultSampleSize,
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.weights.Validate(); err != nil {
		return nil, err
	}
	if err := ValidateBoundaries(e.global.Boundaries); err != nil {
		return nil, err
	}
	if err := ValidateBoundaries(e.class.Boundaries); err != nil {
		return nil, err
	}
	if e.sampleSize < 0 {
		return nil, computationErrorf("sample size must not be negative, got %d", e.sampleSize)
	}
	return e, nil
}

// GlobalQuery returns the configured global-mode query.
func (e *Engine) GlobalQuery() Query {
	return Query{
		Scope:      ScopeGlobal,
		Threshold:  e.global.Threshold,
		Boundaries: e.global.Boundaries,
		SampleSize: e.sampleSize,
	}
}

// ClassQuery returns the configured class-mode query for classID.
func (e *Engine) ClassQuery(classID int64) Query {
	return Query{
		Scope:           ScopeClass,
		ClassID:         classID,
		Threshold:       e.class.Threshold,
		Boundaries:      e.class.Boundaries,
		RoundPercentage: true,
	}
}

// ComputeGlobalStats aggregates every learner across all classes.
func (e *Engine) ComputeGlobalStats(ctx context.Context) (*Result, error) {
	return e.Compute(ctx, e.GlobalQuery())
}

// ComputeClassStats aggregates the learners of one class. It fails with a
// *NotFoundError when the class has no records.
func (e *Engine) ComputeClassStats(ctx context.Context, classID int64) (*Result, error) {
	return e.Compute(ctx, e.ClassQuery(classID))
}

// Compute runs the pipeline for q.
func (e *Engine) Compute(ctx context.Context, q Query) (*Result, error) {
	bucketer, err := NewBucketer(q.Boundaries, e.bucketOptions...)
	if err != nil {
		return nil, err
	}
	if q.SampleSize < 0 {
		return nil, computationErrorf("sample size must not be negative, got %d", q.SampleSize)
	}

	var filter grades.Filter
	switch q.Scope {
	case ScopeGlobal:
	case ScopeClass:
		filter = grades.ForClass(q.ClassID)
	default:
		return nil, computationErrorf("unknown scope %q", q.Scope)
	}

	records, err := e.source.FetchScoreRecords(ctx, filter)
	if err != nil {
		return nil, &DataSourceError{Op: "fetch score records", Err: err}
	}
	records = applyFilter(records, filter)

	res := &Result{Scope: q.Scope, Threshold: q.Threshold}
	var values []float64
	var points []Point

	avgs := Aggregate(records, e.weights)
	if q.Scope == ScopeClass {
		if len(records) == 0 {
			return nil, &NotFoundError{ClassID: q.ClassID}
		}
		classID := q.ClassID
		res.ClassID = &classID
		res.LearnerScores = make([]LearnerScore, len(avgs))
		values = make([]float64, len(avgs))
		points = make([]Point, len(avgs))
		for i, a := range avgs {
			res.LearnerScores[i] = LearnerScore{LearnerID: a.LearnerID, WeightedAvg: a.WeightedAvg}
			values[i] = a.WeightedAvg
			points[i] = Point{ID: a.LearnerID, Value: a.WeightedAvg}
		}
	} else {
		summaries := RollupLearners(avgs)
		values = make([]float64, len(summaries))
		points = make([]Point, len(summaries))
		for i := range summaries {
			summaries[i].AboveThreshold = Above(summaries[i].OverallAvg, q.Threshold)
			values[i] = summaries[i].OverallAvg
			points[i] = Point{ID: summaries[i].LearnerID, Value: summaries[i].OverallAvg}
		}
		res.Sample = summaries[:min(q.SampleSize, len(summaries))]
	}

	c := Classify(values, q.Threshold)
	res.TotalEntities = c.TotalCount
	res.EntitiesAboveThreshold = c.AboveCount
	res.PercentageAboveThreshold = c.Percentage
	if q.RoundPercentage {
		res.PercentageAboveThreshold = RoundPercentage(c.Percentage)
	}
	res.Distribution = bucketer.Distribute(points)
	return res, nil
}

// RoundPercentage rounds p to 2 decimal places.
func RoundPercentage(p float64) float64 {
	return math.Round(p*percentageDecimals) / percentageDecimals
}

func applyFilter(records []grades.ScoreRecord, f grades.Filter) []grades.ScoreRecord {
	if f.ClassID == nil {
		return records
	}
	out := records[:0:0]
	for _, r := range records {
		if f.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}
