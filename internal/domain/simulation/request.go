package simulation

import (
	"math"

	"github.com/okian/shangan/internal/domain/exam"
)

// Participant count bounds.
const (
	MinParticipants = 2
	MaxParticipants = 9
	MinSlots        = 1
)

// RivalScores holds whatever is known about one rival. A nil or
// non-positive field is unknown and gets sampled, so zero cannot be given.
type RivalScores struct {
	Written   *float64 `json:"written"`
	Interview *float64 `json:"interview"`
}

// Score returns a pointer to v for building RivalScores literals.
func Score(v float64) *float64 { return &v }

// Request is the input of one simulation run.
type Request struct {
	Profile           exam.Profile
	TotalParticipants int
	PromotionSlots    int
	WrittenCutoff     float64
	UserWritten       float64
	UserInterview     float64
	Rivals            []RivalScores
}

// Validate checks the participant and slot bounds.
func (r Request) Validate() error {
	if r.TotalParticipants < MinParticipants || r.TotalParticipants > MaxParticipants {
		return &InvalidParametersError{
			Field: "total_participants",
			Value: r.TotalParticipants,
			Min:   MinParticipants,
			Max:   MaxParticipants,
		}
	}
	if r.PromotionSlots < MinSlots || r.PromotionSlots >= r.TotalParticipants {
		return &InvalidParametersError{
			Field: "promotion_slots",
			Value: r.PromotionSlots,
			Min:   MinSlots,
			Max:   r.TotalParticipants - 1,
		}
	}
	return nil
}

// known returns the score when it is present and positive. Zero, negative
// and NaN inputs count as unknown, matching how blank form fields arrive.
func known(v *float64) (float64, bool) {
	if v == nil || *v <= 0 || math.IsNaN(*v) {
		return 0, false
	}
	return *v, true
}

// slot is the resolved per-rival input after normalization and pinning.
type slot struct {
	written, interview       float64
	hasWritten, hasInterview bool
	pinned                   bool
}

// slots normalizes Rivals to TotalParticipants-1 entries and applies the
// cutoff pinning rule. It reports whether rival #1 was pinned.
func (r Request) slots() ([]slot, bool) {
	n := r.TotalParticipants - 1
	out := make([]slot, n)
	for i := 0; i < n && i < len(r.Rivals); i++ {
		out[i].written, out[i].hasWritten = known(r.Rivals[i].Written)
		out[i].interview, out[i].hasInterview = known(r.Rivals[i].Interview)
	}
	pinned := false
	if n > 0 && r.UserWritten != r.WrittenCutoff {
		out[0].written = r.WrittenCutoff
		out[0].hasWritten = true
		out[0].pinned = true
		pinned = true
	}
	return out, pinned
}
