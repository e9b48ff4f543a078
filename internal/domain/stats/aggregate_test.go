package stats_test

import (
	"errors"
	"math"
	"testing"

	"github.com/okian/gradestats/internal/domain/grades"
	"github.com/okian/gradestats/internal/domain/stats"
	. "github.com/smartystreets/goconvey/convey"
)

const epsilon = 1e-9

func entry(t grades.ScoreType, score float64) grades.ScoreEntry {
	return grades.ScoreEntry{Type: t, Score: score}
}

func TestMean(t *testing.T) {
	Convey("Given the mean helper", t, func() {
		Convey("When the slice is empty", func() {
			Convey("Then the mean should be 0, not NaN", func() {
				So(stats.Mean(nil), ShouldEqual, float64(0))
				So(stats.Mean([]float64{}), ShouldEqual, float64(0))
				So(math.IsNaN(stats.Mean(nil)), ShouldBeFalse)
			})
		})

		Convey("When the slice has values", func() {
			Convey("Then it should return the arithmetic mean", func() {
				So(stats.Mean([]float64{90}), ShouldEqual, float64(90))
				So(stats.Mean([]float64{80, 90, 100}), ShouldAlmostEqual, 90, epsilon)
			})
		})
	})
}

func TestFlatten(t *testing.T) {
	Convey("Given records with and without entries", t, func() {
		records := []grades.ScoreRecord{
			{LearnerID: 1, ClassID: 10, Scores: []grades.ScoreEntry{entry(grades.ScoreTypeQuiz, 90), entry(grades.ScoreTypeExam, 80)}},
			{LearnerID: 2, ClassID: 10},
			{LearnerID: 3, ClassID: 20, Scores: []grades.ScoreEntry{entry(grades.ScoreTypeHomework, 70)}},
		}

		Convey("When flattening", func() {
			tuples := stats.Flatten(records)

			Convey("Then one tuple per entry should be produced in order", func() {
				So(tuples, ShouldHaveLength, 3)
				So(tuples[0], ShouldResemble, stats.Tuple{LearnerID: 1, ClassID: 10, Type: grades.ScoreTypeQuiz, Score: 90})
				So(tuples[1], ShouldResemble, stats.Tuple{LearnerID: 1, ClassID: 10, Type: grades.ScoreTypeExam, Score: 80})
				So(tuples[2], ShouldResemble, stats.Tuple{LearnerID: 3, ClassID: 20, Type: grades.ScoreTypeHomework, Score: 70})
			})
		})
	})
}

func TestGroupByLearnerClass(t *testing.T) {
	Convey("Given tuples for several learner/class pairs", t, func() {
		tuples := []stats.Tuple{
			{LearnerID: 2, ClassID: 10, Type: grades.ScoreTypeExam, Score: 60},
			{LearnerID: 1, ClassID: 10, Type: grades.ScoreTypeQuiz, Score: 90},
			{LearnerID: 2, ClassID: 10, Type: grades.ScoreTypeExam, Score: 70},
			{LearnerID: 1, ClassID: 20, Type: "project", Score: 100},
		}

		Convey("When grouping", func() {
			groups := stats.GroupByLearnerClass(tuples)

			Convey("Then groups should follow first appearance", func() {
				So(groups, ShouldHaveLength, 3)
				So(groups[0].LearnerID, ShouldEqual, int64(2))
				So(groups[1].LearnerID, ShouldEqual, int64(1))
				So(groups[1].ClassID, ShouldEqual, int64(10))
				So(groups[2].ClassID, ShouldEqual, int64(20))
			})

			Convey("And scores should be partitioned by type", func() {
				So(groups[0].Exam, ShouldResemble, []float64{60, 70})
				So(groups[0].Quiz, ShouldBeEmpty)
				So(groups[0].Homework, ShouldBeEmpty)
				So(groups[1].Quiz, ShouldResemble, []float64{90})
			})

			Convey("And an unknown type should create a group with no scores", func() {
				So(groups[2].Exam, ShouldBeEmpty)
				So(groups[2].Quiz, ShouldBeEmpty)
				So(groups[2].Homework, ShouldBeEmpty)
			})
		})
	})
}

func TestAggregate(t *testing.T) {
	Convey("Given the reference single-record scenario", t, func() {
		records := []grades.ScoreRecord{{
			LearnerID: 1, ClassID: 10,
			Scores: []grades.ScoreEntry{
				entry(grades.ScoreTypeQuiz, 90),
				entry(grades.ScoreTypeExam, 80),
				entry(grades.ScoreTypeHomework, 70),
			},
		}}

		Convey("When aggregating with default weights", func() {
			avgs := stats.Aggregate(records, stats.DefaultWeights())

			Convey("Then the weighted average should be 0.5*80+0.3*90+0.2*70", func() {
				So(avgs, ShouldHaveLength, 1)
				So(avgs[0].LearnerID, ShouldEqual, int64(1))
				So(avgs[0].ClassID, ShouldEqual, int64(10))
				So(avgs[0].WeightedAvg, ShouldAlmostEqual, 81.0, epsilon)
			})
		})
	})

	Convey("Given a group missing whole score types", t, func() {
		records := []grades.ScoreRecord{{
			LearnerID: 1, ClassID: 10,
			Scores:    []grades.ScoreEntry{entry(grades.ScoreTypeExam, 80), entry(grades.ScoreTypeExam, 100)},
		}}

		Convey("When aggregating", func() {
			avgs := stats.Aggregate(records, stats.DefaultWeights())

			Convey("Then the missing types should contribute 0", func() {
				So(avgs[0].WeightedAvg, ShouldAlmostEqual, 45.0, epsilon)
				So(math.IsNaN(avgs[0].WeightedAvg), ShouldBeFalse)
			})
		})
	})

	Convey("Given a group with only unknown score types", t, func() {
		records := []grades.ScoreRecord{{
			LearnerID: 7, ClassID: 3,
			Scores:    []grades.ScoreEntry{entry("project", 100)},
		}}

		Convey("When aggregating", func() {
			avgs := stats.Aggregate(records, stats.DefaultWeights())

			Convey("Then the group should exist with a zero average", func() {
				So(avgs, ShouldHaveLength, 1)
				So(avgs[0].WeightedAvg, ShouldEqual, float64(0))
			})
		})
	})

	Convey("Given quiz scores scaled by a factor", t, func() {
		base := []grades.ScoreRecord{{
			LearnerID: 1, ClassID: 1,
			Scores: []grades.ScoreEntry{
				entry(grades.ScoreTypeQuiz, 40), entry(grades.ScoreTypeQuiz, 60),
				entry(grades.ScoreTypeExam, 50), entry(grades.ScoreTypeHomework, 30),
			},
		}}
		scaled := []grades.ScoreRecord{{
			LearnerID: 1, ClassID: 1,
			Scores: []grades.ScoreEntry{
				entry(grades.ScoreTypeQuiz, 80), entry(grades.ScoreTypeQuiz, 120),
				entry(grades.ScoreTypeExam, 50), entry(grades.ScoreTypeHomework, 30),
			},
		}}

		Convey("When aggregating both", func() {
			w := stats.DefaultWeights()
			a := stats.Aggregate(base, w)[0].WeightedAvg
			b := stats.Aggregate(scaled, w)[0].WeightedAvg

			Convey("Then the quiz contribution should scale by the same factor", func() {
				quizBase := w.Quiz * 50
				So(b-a, ShouldAlmostEqual, quizBase, epsilon)
			})
		})
	})
}

func TestRollupLearners(t *testing.T) {
	Convey("Given class averages for two learners", t, func() {
		avgs := []grades.ClassAverage{
			{LearnerID: 1, ClassID: 10, WeightedAvg: 80},
			{LearnerID: 2, ClassID: 10, WeightedAvg: 30},
			{LearnerID: 1, ClassID: 20, WeightedAvg: 40},
			{LearnerID: 1, ClassID: 30, WeightedAvg: 90},
		}

		Convey("When rolling up", func() {
			summaries := stats.RollupLearners(avgs)

			Convey("Then each learner should get the unweighted mean of its classes", func() {
				So(summaries, ShouldHaveLength, 2)
				So(summaries[0].LearnerID, ShouldEqual, int64(1))
				So(summaries[0].PerClassAverages, ShouldResemble, []float64{80, 40, 90})
				So(summaries[0].OverallAvg, ShouldAlmostEqual, 70, epsilon)
				So(summaries[1].LearnerID, ShouldEqual, int64(2))
				So(summaries[1].OverallAvg, ShouldEqual, float64(30))
			})
		})

		Convey("When all of a learner's class averages are zero", func() {
			summaries := stats.RollupLearners([]grades.ClassAverage{
				{LearnerID: 9, ClassID: 1}, {LearnerID: 9, ClassID: 2},
			})

			Convey("Then the overall average should be 0", func() {
				So(summaries[0].OverallAvg, ShouldEqual, float64(0))
			})
		})
	})
}

func TestWeights(t *testing.T) {
	Convey("Given weights", t, func() {
		Convey("When using the defaults", func() {
			w := stats.DefaultWeights()

			Convey("Then they should be valid and sum to 1", func() {
				So(w.Validate(), ShouldBeNil)
				So(w.Exam, ShouldEqual, 0.5)
				So(w.Quiz, ShouldEqual, 0.3)
				So(w.Homework, ShouldEqual, 0.2)
			})
		})

		Convey("When they do not sum to 1", func() {
			err := stats.Weights{Exam: 0.5, Quiz: 0.5, Homework: 0.5}.Validate()

			Convey("Then validation should fail with a computation error", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, stats.ErrComputation), ShouldBeTrue)
			})
		})

		Convey("When one is negative", func() {
			err := stats.Weights{Exam: 1.2, Quiz: -0.2}.Validate()

			Convey("Then validation should fail", func() {
				So(errors.Is(err, stats.ErrComputation), ShouldBeTrue)
			})
		})

		Convey("When built from a config map", func() {
			w, err := stats.WeightsFromMap(map[string]float64{"exam": 0.6, "Quiz": 0.2, "homework": 0.2})

			Convey("Then names should be matched case-insensitively", func() {
				So(err, ShouldBeNil)
				So(w, ShouldResemble, stats.Weights{Exam: 0.6, Quiz: 0.2, Homework: 0.2})
			})
		})

		Convey("When the config map names an unknown type", func() {
			_, err := stats.WeightsFromMap(map[string]float64{"exam": 1, "project": 0})

			Convey("Then it should be rejected", func() {
				So(errors.Is(err, stats.ErrComputation), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "project")
			})
		})
	})
}
