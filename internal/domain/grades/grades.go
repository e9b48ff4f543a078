// Package grades contains the score records read from the grade store and
// the per-entity averages derived from them.
package grades

import "strings"

// ScoreType categorises a single score entry.
type ScoreType string

// Known score types. Anything else read from a store is carried through
// verbatim and contributes to no per-type mean.
const (
	ScoreTypeQuiz     ScoreType = "quiz"
	ScoreTypeExam     ScoreType = "exam"
	ScoreTypeHomework ScoreType = "homework"
)

// ScoreTypes lists the known score types in a stable order.
func ScoreTypes() []ScoreType {
	return []ScoreType{ScoreTypeExam, ScoreTypeQuiz, ScoreTypeHomework}
}

// ParseScoreType normalises s and reports whether it names a known type.
func ParseScoreType(s string) (ScoreType, bool) {
	t := ScoreType(strings.ToLower(strings.TrimSpace(s)))
	return t, t.Known()
}

// Known reports whether t is one of quiz, exam or homework.
func (t ScoreType) Known() bool {
	switch t {
	case ScoreTypeQuiz, ScoreTypeExam, ScoreTypeHomework:
		return true
	default:
		return false
	}
}

// String implements fmt.Stringer.
func (t ScoreType) String() string { return string(t) }

// ScoreEntry is one graded assignment. Score is expected in 0-100 but is
// not range checked.
type ScoreEntry struct {
	Type  ScoreType `json:"type" yaml:"type"`
	Score float64   `json:"score" yaml:"score"`
}

// ScoreRecord is a learner's score sheet for one class as held by the store.
// Records are read-only snapshots; nothing in this module mutates them.
type ScoreRecord struct {
	LearnerID int64        `json:"learner_id" yaml:"learner_id"`
	ClassID   int64        `json:"class_id" yaml:"class_id"`
	Scores    []ScoreEntry `json:"scores" yaml:"scores,omitempty"`
}

// Filter narrows a store read. A nil ClassID selects every record.
type Filter struct {
	ClassID *int64
}

// ForClass returns a Filter selecting records of a single class.
func ForClass(classID int64) Filter {
	return Filter{ClassID: &classID}
}

// Matches reports whether r passes the filter.
func (f Filter) Matches(r ScoreRecord) bool {
	return f.ClassID == nil || *f.ClassID == r.ClassID
}

// ClassAverage is the weighted average of one learner in one class.
type ClassAverage struct {
	LearnerID   int64   `json:"learner_id"`
	ClassID     int64   `json:"class_id"`
	WeightedAvg float64 `json:"weighted_avg"`
}

// LearnerSummary rolls a learner's class averages into an overall average.
type LearnerSummary struct {
	LearnerID        int64     `json:"learner_id"`
	PerClassAverages []float64 `json:"avg_per_class"`
	OverallAvg       float64   `json:"overall_avg"`
	AboveThreshold   bool      `json:"is_above_threshold"`
}
