package stats

import "github.com/okian/gradestats/internal/domain/grades"

// Tuple is a single score entry flattened out of its record.
type Tuple struct {
	LearnerID int64
	ClassID   int64
	Type      grades.ScoreType
	Score     float64
}

// Group collects the scores of one (learner, class) pair partitioned by type.
// A type with no entries is an empty slice.
type Group struct {
	LearnerID int64
	ClassID   int64
	Exam      []float64
	Quiz      []float64
	Homework  []float64
}

type groupKey struct {
	learnerID int64
	classID   int64
}

// Flatten emits one Tuple per score entry across all records, in record
// order. Records without entries produce nothing.
func Flatten(records []grades.ScoreRecord) []Tuple {
	n := 0
	for i := range records {
		n += len(records[i].Scores)
	}
	out := make([]Tuple, 0, n)
	for _, r := range records {
		for _, s := range r.Scores {
			out = append(out, Tuple{LearnerID: r.LearnerID, ClassID: r.ClassID, Type: s.Type, Score: s.Score})
		}
	}
	return out
}

// GroupByLearnerClass partitions tuples by (learner, class). Groups are
// returned in order of first appearance. Tuples of an unknown type still
// create their group but land in none of the per-type slices.
func GroupByLearnerClass(tuples []Tuple) []Group {
	index := make(map[groupKey]int)
	var groups []Group
	for _, t := range tuples {
		k := groupKey{learnerID: t.LearnerID, classID: t.ClassID}
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, Group{LearnerID: t.LearnerID, ClassID: t.ClassID})
		}
		g := &groups[i]
		switch t.Type {
		case grades.ScoreTypeExam:
			g.Exam = append(g.Exam, t.Score)
		case grades.ScoreTypeQuiz:
			g.Quiz = append(g.Quiz, t.Score)
		case grades.ScoreTypeHomework:
			g.Homework = append(g.Homework, t.Score)
		}
	}
	return groups
}

// ClassAverages reduces each group to its weighted average.
func ClassAverages(groups []Group, w Weights) []grades.ClassAverage {
	out := make([]grades.ClassAverage, len(groups))
	for i, g := range groups {
		out[i] = grades.ClassAverage{
			LearnerID:   g.LearnerID,
			ClassID:     g.ClassID,
			WeightedAvg: w.Combine(Mean(g.Exam), Mean(g.Quiz), Mean(g.Homework)),
		}
	}
	return out
}

// RollupLearners groups class averages by learner. The overall average is
// the plain mean of the learner's class averages, not weighted by class size.
// Learners are returned in order of first appearance.
func RollupLearners(avgs []grades.ClassAverage) []grades.LearnerSummary {
	index := make(map[int64]int)
	var out []grades.LearnerSummary
	for _, a := range avgs {
		i, ok := index[a.LearnerID]
		if !ok {
			i = len(out)
			index[a.LearnerID] = i
			out = append(out, grades.LearnerSummary{LearnerID: a.LearnerID})
		}
		out[i].PerClassAverages = append(out[i].PerClassAverages, a.WeightedAvg)
	}
	for i := range out {
		out[i].OverallAvg = Mean(out[i].PerClassAverages)
	}
	return out
}

// Aggregate runs flatten, group and reduce over records.
func Aggregate(records []grades.ScoreRecord, w Weights) []grades.ClassAverage {
	return ClassAverages(GroupByLearnerClass(Flatten(records)), w)
}
