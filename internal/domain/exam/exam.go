// Package exam holds the fixed table of exam profiles and their composite
// score formulas.
package exam

import (
	"fmt"
	"math"
	"strings"
)

// Valid range for sampled interview scores.
const (
	InterviewMin = 60.0
	InterviewMax = 100.0
)

// defaultWrittenRatio positions the default user written score relative to writtenMax.
const defaultWrittenRatio = 0.5

// Type identifies an exam profile.
type Type string

// Known exam types.
const (
	Institution  Type = "institution"   // 事业单位
	CivilService Type = "civil_service" // 公务员
)

// Formula selects how written and interview scores combine.
type Formula int

// Supported formulas.
const (
	FormulaThirdPlusInterview Formula = iota + 1 // written/3 + interview
	FormulaHalfPlusInterview                     // written/2 + interview
)

// Composite combines a written and an interview score.
func (f Formula) Composite(written, interview float64) float64 {
	switch f {
	case FormulaThirdPlusInterview:
		return written/3.0 + interview
	case FormulaHalfPlusInterview:
		return written/2.0 + interview
	default:
		panic(fmt.Sprintf("exam: unknown formula %d", int(f)))
	}
}

// String returns a human readable form of the formula.
func (f Formula) String() string {
	switch f {
	case FormulaThirdPlusInterview:
		return "written/3 + interview"
	case FormulaHalfPlusInterview:
		return "written/2 + interview"
	default:
		return "unknown"
	}
}

// Profile describes the fitted score distributions of one exam type.
type Profile struct {
	Type            Type    `json:"type"`
	Name            string  `json:"name"`
	WrittenMax      float64 `json:"written_max"`
	WrittenMean     float64 `json:"written_mean"`
	WrittenStdDev   float64 `json:"written_stddev"`
	InterviewMean   float64 `json:"interview_mean"`
	InterviewStdDev float64 `json:"interview_stddev"`
	Formula         Formula `json:"-"`
}

// Composite applies the profile's formula.
func (p Profile) Composite(written, interview float64) float64 {
	return p.Formula.Composite(written, interview)
}

// DefaultUserWritten is the starting written score offered to a user who
// picks this exam.
func (p Profile) DefaultUserWritten() float64 {
	return math.Round(p.WrittenMax * defaultWrittenRatio)
}

// CheckCutoff rejects a written cutoff at or above WrittenMax, or one that
// is not a number. Sampled written scores must fall strictly between the
// two, so such a cutoff would leave the sampler nothing to accept.
func (p Profile) CheckCutoff(cutoff float64) error {
	if cutoff >= p.WrittenMax || math.IsNaN(cutoff) {
		return &CutoffError{Cutoff: cutoff, WrittenMax: p.WrittenMax}
	}
	return nil
}

var profiles = [...]Profile{
	{
		Type:            Institution,
		Name:            "事业单位",
		WrittenMax:      300,
		WrittenMean:     160.0,
		WrittenStdDev:   25.80,
		InterviewMean:   74.0,
		InterviewStdDev: 4.86,
		Formula:         FormulaThirdPlusInterview,
	},
	{
		Type:            CivilService,
		Name:            "公务员",
		WrittenMax:      200,
		WrittenMean:     134.0,
		WrittenStdDev:   6.47,
		InterviewMean:   74.0,
		InterviewStdDev: 4.78,
		Formula:         FormulaHalfPlusInterview,
	},
}

// Profiles returns a copy of the profile table in display order.
func Profiles() []Profile {
	out := make([]Profile, len(profiles))
	copy(out, profiles[:])
	return out
}

// Lookup returns the profile for t.
func Lookup(t Type) (Profile, error) {
	for _, p := range profiles {
		if p.Type == t {
			return p, nil
		}
	}
	return Profile{}, fmt.Errorf("%w: %q", ErrUnknownExam, string(t))
}

// Parse resolves either a type key or a display name to a profile.
func Parse(s string) (Profile, error) {
	s = strings.TrimSpace(s)
	for _, p := range profiles {
		if strings.EqualFold(string(p.Type), s) || p.Name == s {
			return p, nil
		}
	}
	return Profile{}, fmt.Errorf("%w: %q", ErrUnknownExam, s)
}
