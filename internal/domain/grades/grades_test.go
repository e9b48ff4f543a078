package grades_test

import (
	"testing"

	"github.com/okian/gradestats/internal/domain/grades"
	. "github.com/smartystreets/goconvey/convey"
)

func TestParseScoreType(t *testing.T) {
	Convey("Given raw score type strings", t, func() {
		Convey("When they name a known type in any case", func() {
			quiz, okQuiz := grades.ParseScoreType("quiz")
			exam, okExam := grades.ParseScoreType(" EXAM ")
			hw, okHW := grades.ParseScoreType("Homework")

			Convey("Then they should parse to the canonical constant", func() {
				So(okQuiz, ShouldBeTrue)
				So(okExam, ShouldBeTrue)
				So(okHW, ShouldBeTrue)
				So(quiz, ShouldEqual, grades.ScoreTypeQuiz)
				So(exam, ShouldEqual, grades.ScoreTypeExam)
				So(hw, ShouldEqual, grades.ScoreTypeHomework)
			})
		})

		Convey("When they name an unknown type", func() {
			typ, ok := grades.ParseScoreType("project")

			Convey("Then parsing should report it as unknown", func() {
				So(ok, ShouldBeFalse)
				So(typ.Known(), ShouldBeFalse)
				So(typ.String(), ShouldEqual, "project")
			})
		})
	})
}

func TestScoreTypes(t *testing.T) {
	Convey("Given the list of known score types", t, func() {
		types := grades.ScoreTypes()

		Convey("Then it should contain exactly the three known types", func() {
			So(types, ShouldHaveLength, 3)
			for _, typ := range types {
				So(typ.Known(), ShouldBeTrue)
			}
		})
	})
}

func TestFilter(t *testing.T) {
	Convey("Given score records from two classes", t, func() {
		a := grades.ScoreRecord{LearnerID: 1, ClassID: 10}
		b := grades.ScoreRecord{LearnerID: 1, ClassID: 20}

		Convey("When the filter is empty", func() {
			f := grades.Filter{}

			Convey("Then every record should match", func() {
				So(f.Matches(a), ShouldBeTrue)
				So(f.Matches(b), ShouldBeTrue)
			})
		})

		Convey("When the filter selects one class", func() {
			f := grades.ForClass(10)

			Convey("Then only that class should match", func() {
				So(f.Matches(a), ShouldBeTrue)
				So(f.Matches(b), ShouldBeFalse)
				So(*f.ClassID, ShouldEqual, int64(10))
			})
		})
	})
}
