package stats

import (
	"math"
	"sort"
	"strings"

	"github.com/okian/gradestats/internal/domain/grades"
)

// Default per-type weights.
const (
	DefaultExamWeight     = 0.5
	DefaultQuizWeight     = 0.3
	DefaultHomeworkWeight = 0.2

	weightSumTolerance = 1e-9
)

// Weights are the coefficients of the per-type means in a class average.
type Weights struct {
	Exam     float64
	Quiz     float64
	Homework float64
}

// DefaultWeights returns exam 0.5, quiz 0.3, homework 0.2.
func DefaultWeights() Weights {
	return Weights{Exam: DefaultExamWeight, Quiz: DefaultQuizWeight, Homework: DefaultHomeworkWeight}
}

// WeightsFromMap builds Weights from a type-name keyed map such as the one
// loaded from configuration. Missing types weigh 0; unknown keys are rejected.
func WeightsFromMap(m map[string]float64) (Weights, error) {
	var w Weights
	var unknown []string
	for name, v := range m {
		typ, ok := grades.ParseScoreType(name)
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		switch typ {
		case grades.ScoreTypeExam:
			w.Exam = v
		case grades.ScoreTypeQuiz:
			w.Quiz = v
		case grades.ScoreTypeHomework:
			w.Homework = v
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return Weights{}, computationErrorf("unknown score types in weights: %s", strings.Join(unknown, ", "))
	}
	return w, w.Validate()
}

// Validate checks that every weight is non-negative and that they sum to 1.
func (w Weights) Validate() error {
	if w.Exam < 0 || w.Quiz < 0 || w.Homework < 0 {
		return computationErrorf("weights must be non-negative: exam=%v quiz=%v homework=%v", w.Exam, w.Quiz, w.Homework)
	}
	if sum := w.Exam + w.Quiz + w.Homework; math.Abs(sum-1) > weightSumTolerance {
		return computationErrorf("weights must sum to 1, got %v", sum)
	}
	return nil
}

// Combine returns the weighted class average of the three per-type means.
func (w Weights) Combine(examMean, quizMean, homeworkMean float64) float64 {
	return w.Exam*examMean + w.Quiz*quizMean + w.Homework*homeworkMean
}
