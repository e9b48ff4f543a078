package seed

import (
	"math"
	"math/rand"

	"github.com/okian/gradestats/internal/domain/grades"
)

// Score ranges per performance profile.
const (
	avgPerformerMin    = 55.0
	avgPerformerRange  = 25.0
	highPerformerMin   = 80.0
	highPerformerRange = 15.0
	lowPerformerMin    = 20.0
	lowPerformerRange  = 35.0
	elitePerformerMin  = 95.0
	elitePerformerMax  = 100.0
	wideRangeMin       = 0.0
	wideRangeMax       = 100.0

	// jitter is the spread of one entry around the learner's level.
	jitter = 10.0
)

// Profile cases, drawn uniformly.
const (
	caseAveragePerformer = iota
	caseHighPerformer
	caseLowPerformer
	caseElitePerformer
	caseWideRange
	profileCount
)

// Generator produces deterministic synthetic score records.
type Generator struct {
	cfg Config
	rnd *rand.Rand
}

// NewGenerator creates a generator for cfg. Records depend only on cfg.
func NewGenerator(cfg Config) *Generator {
	cfg = cfg.withDefaults()
	return &Generator{
		cfg: cfg,
		rnd: rand.New(rand.NewSource(cfg.Seed)), //nolint:gosec // synthetic data only
	}
}

// Generate returns one record per learner and enrolled class. Learner ids
// run from 1 to Learners and class ids from 1 to Classes.
func (g *Generator) Generate() []grades.ScoreRecord {
	out := make([]grades.ScoreRecord, 0, g.cfg.Learners*g.cfg.ClassesPerLearner)
	for learner := 1; learner <= g.cfg.Learners; learner++ {
		level := g.level()
		for _, class := range g.classes() {
			out = append(out, grades.ScoreRecord{
				LearnerID: int64(learner),
				ClassID:   class,
				Scores:    g.entries(level),
			})
		}
	}
	return out
}

// classes picks ClassesPerLearner distinct class ids.
func (g *Generator) classes() []int64 {
	perm := g.rnd.Perm(g.cfg.Classes)[:g.cfg.ClassesPerLearner]
	ids := make([]int64, len(perm))
	for i, p := range perm {
		ids[i] = int64(p + 1)
	}
	return ids
}

func (g *Generator) entries(level float64) []grades.ScoreEntry {
	types := grades.ScoreTypes()
	scores := make([]grades.ScoreEntry, 0, len(types)*g.cfg.EntriesPerType)
	for _, t := range types {
		for i := 0; i < g.cfg.EntriesPerType; i++ {
			scores = append(scores, grades.ScoreEntry{Type: t, Score: g.score(level)})
		}
	}
	return scores
}

// level picks the learner's typical score from a performance profile.
func (g *Generator) level() float64 {
	switch g.rnd.Intn(profileCount) {
	case caseAveragePerformer:
		return avgPerformerMin + g.rnd.Float64()*avgPerformerRange
	case caseHighPerformer:
		return highPerformerMin + g.rnd.Float64()*highPerformerRange
	case caseLowPerformer:
		return lowPerformerMin + g.rnd.Float64()*lowPerformerRange
	case caseElitePerformer:
		return elitePerformerMin + g.rnd.Float64()*(elitePerformerMax-elitePerformerMin)
	default:
		return wideRangeMin + g.rnd.Float64()*(wideRangeMax-wideRangeMin)
	}
}

// score jitters level and clamps it to [0, 100] with one decimal place.
func (g *Generator) score(level float64) float64 {
	v := level + (g.rnd.Float64()*2-1)*jitter
	v = math.Max(wideRangeMin, math.Min(wideRangeMax, v))
	return math.Round(v*10) / 10
}
