// Package report turns simulation results into the summary, mood and ranked
// table that callers present to users.
package report

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/okian/shangan/internal/domain/simulation"
	"github.com/okian/shangan/internal/domain/types"
)

// Mood thresholds on promotion probability.
const (
	happyAbove   = 0.5
	neutralAbove = 0.1
)

// Mood is a coarse reading of the promotion probability.
type Mood string

// Moods.
const (
	MoodHappy   Mood = "happy"
	MoodNeutral Mood = "neutral"
	MoodSad     Mood = "sad"
)

// MoodFor classifies probability p.
func MoodFor(p float64) Mood {
	switch {
	case p > happyAbove:
		return MoodHappy
	case p > neutralAbove:
		return MoodNeutral
	default:
		return MoodSad
	}
}

// Emoji returns the face shown for m.
func (m Mood) Emoji() string {
	switch m {
	case MoodHappy:
		return "😂"
	case MoodNeutral:
		return "🙂"
	default:
		return "😭"
	}
}

// Summary is the one-line count of successful trials.
func Summary(res simulation.Result) string {
	return fmt.Sprintf("在 %d 次模拟中，你成功上岸了 %d 次。", res.TotalTrials, res.PromotionCount)
}

// Status describes the user's placement in the representative trial.
func Status(res simulation.Result) string {
	outcome := "未能上岸。"
	if res.Promoted {
		outcome = "成功上岸！"
	}
	return fmt.Sprintf("你在该轮模拟中排名第 %d，%s", res.UserRank, outcome)
}

// RoleName labels a participant for display.
func RoleName(p simulation.Participant) string {
	if p.Role == simulation.RoleUser {
		return "你"
	}
	return "对手" + strconv.Itoa(p.Rival)
}

// Rows flattens the representative trial into ranked rows. Rival #1's written
// score is flagged only when the result highlights it.
func Rows(res simulation.Result) []types.Row {
	out := make([]types.Row, len(res.Representative.Participants))
	for i, p := range res.Representative.Participants {
		out[i] = types.Row{
			Rank:      i + 1,
			Role:      RoleName(p),
			Written:   p.Written,
			Interview: p.Interview,
			Composite: p.Composite,
			IsUser:    p.Role == simulation.RoleUser,
			AtCutoff:  res.HighlightFirstRival && p.Role == simulation.RoleRival && p.Rival == 1,
		}
	}
	return out
}

// WriteText renders the full report as plain text.
func WriteText(w io.Writer, res simulation.Result) error {
	mood := MoodFor(res.PromotionProbability)
	if _, err := fmt.Fprintf(w, "上岸概率: %.2f%% %s\n%s\n%s\n\n",
		res.PromotionProbability*100, mood.Emoji(), Summary(res), Status(res)); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "排名\t角色\t笔试\t面试\t总分\t")
	for _, r := range Rows(res) {
		written := strconv.FormatFloat(r.Written, 'f', 2, 64)
		if r.AtCutoff {
			written += " (进面分)"
		}
		role := r.Role
		if r.IsUser {
			role = "*" + role
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.2f\t%.2f\t\n", r.Rank, role, written, r.Interview, r.Composite)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("write table: %w", err)
	}
	return nil
}
