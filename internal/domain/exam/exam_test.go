package exam_test

import (
	"errors"
	"math"
	"testing"

	"github.com/okian/shangan/internal/domain/exam"
	. "github.com/smartystreets/goconvey/convey"
)

func TestFormulaComposite(t *testing.T) {
	Convey("Given the composite formulas", t, func() {
		Convey("When using written/3 + interview", func() {
			So(exam.FormulaThirdPlusInterview.Composite(150, 80), ShouldEqual, 130.0)
		})

		Convey("When using written/2 + interview", func() {
			So(exam.FormulaHalfPlusInterview.Composite(130, 75), ShouldEqual, 140.0)
		})

		Convey("When the formula is unknown", func() {
			So(func() { exam.Formula(0).Composite(1, 1) }, ShouldPanic)
			So(exam.Formula(0).String(), ShouldEqual, "unknown")
		})
	})
}

func TestLookup(t *testing.T) {
	Convey("Given the built-in profile table", t, func() {
		Convey("When looking up the institution exam", func() {
			p, err := exam.Lookup(exam.Institution)

			Convey("Then the fitted parameters should match", func() {
				So(err, ShouldBeNil)
				So(p.Name, ShouldEqual, "事业单位")
				So(p.WrittenMax, ShouldEqual, 300)
				So(p.WrittenMean, ShouldEqual, 160.0)
				So(p.WrittenStdDev, ShouldEqual, 25.80)
				So(p.InterviewMean, ShouldEqual, 74.0)
				So(p.InterviewStdDev, ShouldEqual, 4.86)
				So(p.Composite(200, 80), ShouldAlmostEqual, 146.6667, 0.0001)
				So(p.DefaultUserWritten(), ShouldEqual, 150)
			})
		})

		Convey("When looking up the civil service exam", func() {
			p, err := exam.Lookup(exam.CivilService)

			Convey("Then the fitted parameters should match", func() {
				So(err, ShouldBeNil)
				So(p.Name, ShouldEqual, "公务员")
				So(p.WrittenMax, ShouldEqual, 200)
				So(p.WrittenMean, ShouldEqual, 134.0)
				So(p.WrittenStdDev, ShouldEqual, 6.47)
				So(p.InterviewStdDev, ShouldEqual, 4.78)
				So(p.Composite(130, 75), ShouldEqual, 140.0)
				So(p.DefaultUserWritten(), ShouldEqual, 100)
			})
		})

		Convey("When looking up an unknown type", func() {
			_, err := exam.Lookup(exam.Type("bar_exam"))
			So(errors.Is(err, exam.ErrUnknownExam), ShouldBeTrue)
		})
	})
}

func TestParse(t *testing.T) {
	Convey("Given exam names from user input", t, func() {
		Convey("Then keys and display names should both resolve", func() {
			p, err := exam.Parse("CIVIL_SERVICE")
			So(err, ShouldBeNil)
			So(p.Type, ShouldEqual, exam.CivilService)

			p, err = exam.Parse(" 事业单位 ")
			So(err, ShouldBeNil)
			So(p.Type, ShouldEqual, exam.Institution)
		})

		Convey("Then garbage should be rejected", func() {
			_, err := exam.Parse("")
			So(errors.Is(err, exam.ErrUnknownExam), ShouldBeTrue)
		})
	})
}

func TestProfilesIsACopy(t *testing.T) {
	Convey("Given the profile list", t, func() {
		list := exam.Profiles()
		So(len(list), ShouldEqual, 2)
		list[0].WrittenMax = 1

		Convey("Then mutating it should not leak into lookups", func() {
			p, err := exam.Lookup(exam.Institution)
			So(err, ShouldBeNil)
			So(p.WrittenMax, ShouldEqual, 300)
		})
	})
}

func TestCheckCutoff(t *testing.T) {
	Convey("Given the institution profile", t, func() {
		p, err := exam.Lookup(exam.Institution)
		So(err, ShouldBeNil)

		Convey("Then cutoffs below the written maximum should pass", func() {
			So(p.CheckCutoff(0), ShouldBeNil)
			So(p.CheckCutoff(150), ShouldBeNil)
			So(p.CheckCutoff(299.5), ShouldBeNil)
		})

		Convey("Then cutoffs leaving no room to sample should fail", func() {
			for _, c := range []float64{300, 301, math.Inf(1), math.NaN()} {
				err := p.CheckCutoff(c)
				So(errors.Is(err, exam.ErrCutoffOutOfRange), ShouldBeTrue)
				var ce *exam.CutoffError
				So(errors.As(err, &ce), ShouldBeTrue)
				So(ce.WrittenMax, ShouldEqual, 300)
			}
		})
	})
}
