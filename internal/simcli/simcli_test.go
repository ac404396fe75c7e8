package simcli

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/okian/shangan/internal/domain/exam"
	"github.com/okian/shangan/internal/domain/simulation"
	. "github.com/smartystreets/goconvey/convey"
)

func execute(args ...string) (string, error) {
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestParseRival(t *testing.T) {
	Convey("Given rival flags", t, func() {
		Convey("When both scores are given", func() {
			n, rs, err := parseRival("1:w=170,i=80")
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 1)
			So(*rs.Written, ShouldEqual, 170.0)
			So(*rs.Interview, ShouldEqual, 80.0)
		})

		Convey("When only the interview is known", func() {
			n, rs, err := parseRival("2:interview=78.5")
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 2)
			So(rs.Written, ShouldBeNil)
			So(*rs.Interview, ShouldEqual, 78.5)
		})

		Convey("When the flag is malformed", func() {
			for _, bad := range []string{"w=170", "0:w=1", "9:w=1", "x:w=1", "1:w", "1:w=abc", "1:z=3", "1:w=NaN", "2:i=inf", "3:w=-Inf"} {
				_, _, err := parseRival(bad)
				So(errors.Is(err, ErrInvalidRival), ShouldBeTrue)
			}
		})

		Convey("When expanding several flags", func() {
			rivals, err := rivalScores([]string{"3:w=160", "1:i=70", "3:w=165"})
			So(err, ShouldBeNil)
			So(len(rivals), ShouldEqual, 3)
			So(rivals[1].Written, ShouldBeNil)
			So(rivals[1].Interview, ShouldBeNil)
			So(*rivals[2].Written, ShouldEqual, 165.0)
			So(*rivals[0].Interview, ShouldEqual, 70.0)
		})
	})
}

func TestRunCommand(t *testing.T) {
	Convey("Given the run command", t, func() {
		Convey("When every rival score is known", func() {
			out, err := execute("run", "--total", "2", "--slots", "1", "--cutoff", "150",
				"--written", "150", "--interview", "90", "--rival", "1:w=180,i=80", "--trials", "50")

			Convey("Then the report should show a certain promotion", func() {
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "100.00%")
				So(out, ShouldContainSubstring, "在 50 次模拟中，你成功上岸了 50 次。")
				So(out, ShouldContainSubstring, "*你")
			})
		})

		Convey("When JSON output is requested", func() {
			out, err := execute("run", "--exam", "civil_service", "--total", "3", "--slots", "1",
				"--cutoff", "120", "--interview", "80", "--trials", "20", "--json")

			Convey("Then the result should decode", func() {
				So(err, ShouldBeNil)
				var res simulation.Result
				So(json.Unmarshal([]byte(out), &res), ShouldBeNil)
				So(res.TotalTrials, ShouldEqual, 20)
				So(res.HighlightFirstRival, ShouldBeTrue)
				So(len(res.Representative.Participants), ShouldEqual, 3)
			})
		})

		Convey("When the parameters are out of range", func() {
			_, err := execute("run", "--total", "10", "--trials", "10")
			So(errors.Is(err, simulation.ErrInvalidParameters), ShouldBeTrue)
		})

		Convey("When the cutoff is at the written maximum", func() {
			_, err := execute("run", "--exam", "civil_service", "--cutoff", "200", "--trials", "10")
			So(errors.Is(err, exam.ErrCutoffOutOfRange), ShouldBeTrue)
		})

		Convey("When the exam is unknown", func() {
			_, err := execute("run", "--exam", "bar", "--trials", "10")
			So(errors.Is(err, exam.ErrUnknownExam), ShouldBeTrue)
		})
	})
}

func TestExamsCommand(t *testing.T) {
	Convey("Given the exams command", t, func() {
		out, err := execute("exams")
		So(err, ShouldBeNil)
		So(strings.Count(out, "\n"), ShouldEqual, 3)
		So(out, ShouldContainSubstring, "事业单位")
		So(out, ShouldContainSubstring, "written/2 + interview")
	})
}
