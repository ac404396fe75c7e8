package simulation

import "sort"

// Role distinguishes the user from rivals in a trial breakdown.
type Role string

// Participant roles.
const (
	RoleUser  Role = "user"
	RoleRival Role = "rival"
)

// Participant is one row of a trial breakdown.
type Participant struct {
	Role Role `json:"role"`
	// Rival is the 1-based rival number; zero for the user.
	Rival            int     `json:"rival,omitempty"`
	Written          float64 `json:"written"`
	Interview        float64 `json:"interview"`
	Composite        float64 `json:"composite"`
	WrittenSampled   bool    `json:"written_sampled"`
	InterviewSampled bool    `json:"interview_sampled"`
	PinnedToCutoff   bool    `json:"pinned_to_cutoff"`
}

// Trial is the ranked breakdown of a single trial.
type Trial struct {
	Participants []Participant `json:"participants"`
	UserRank     int           `json:"user_rank"`
	Promoted     bool          `json:"promoted"`
}

// CountAbove returns how many scores are strictly greater than user.
func CountAbove(user float64, scores []float64) int {
	n := 0
	for _, s := range scores {
		if s > user {
			n++
		}
	}
	return n
}

// IsPromoted reports whether user lands within slots. Scores equal to the
// user's do not push the user down.
func IsPromoted(user float64, scores []float64, slots int) bool {
	return CountAbove(user, scores) < slots
}

// RankTrial sorts participants by composite descending, keeping input order
// among equal scores, and returns the 1-based position of the user or -1 if
// no user row is present.
func RankTrial(participants []Participant) int {
	sort.SliceStable(participants, func(i, j int) bool {
		return participants[i].Composite > participants[j].Composite
	})
	for i, p := range participants {
		if p.Role == RoleUser {
			return i + 1
		}
	}
	return -1
}
