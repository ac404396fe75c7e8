// Package simulation estimates promotion probability by Monte Carlo: unknown
// rival scores are drawn from truncated normal pools, every trial ranks all
// participants, and the share of trials in which the user lands inside the
// promotion slots is the estimate.
package simulation

import (
	"context"
	"fmt"

	"github.com/okian/shangan/internal/domain/exam"
	"github.com/okian/shangan/internal/domain/sampler"
)

// Default engine configuration constants.
const (
	DefaultTrials     = 10_000
	DefaultYieldEvery = 1_000
)

// SamplingStats reports rejection sampling effort for one run.
type SamplingStats struct {
	Written   sampler.Stats `json:"written"`
	Interview sampler.Stats `json:"interview"`
}

// Result is the aggregate outcome of a run plus the breakdown of its last trial.
type Result struct {
	PromotionProbability float64       `json:"promotion_probability"`
	PromotionCount       int           `json:"promotion_count"`
	TotalTrials          int           `json:"total_trials"`
	UserComposite        float64       `json:"user_composite"`
	Representative       Trial         `json:"representative"`
	UserRank             int           `json:"user_rank"`
	Promoted             bool          `json:"promoted"`
	HighlightFirstRival  bool          `json:"highlight_first_rival"`
	Sampling             SamplingStats `json:"sampling"`
}

// Engine runs simulations. It holds configuration only; every Simulate call
// builds its own pools and counters, so one Engine may serve concurrent callers
// as long as its sampler is safe for concurrent use.
type Engine struct {
	sampler    sampler.Sampler
	trials     int
	batchSize  int
	yieldEvery int
	progress   ProgressFunc
}

// New creates an engine with the default sampler and trial count.
func New(opts ...Option) *Engine {
	e := &Engine{
		sampler:    sampler.NewNormal(),
		trials:     DefaultTrials,
		batchSize:  sampler.DefaultBatchSize,
		yieldEvery: DefaultYieldEvery,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Trials returns the configured number of trials per run.
func (e *Engine) Trials() int { return e.trials }

// Simulate runs the configured number of trials for req.
func (e *Engine) Simulate(ctx context.Context, req Request) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}
	p := req.Profile
	slots, pinned := req.slots()

	var unknownWritten, unknownInterview int
	for _, s := range slots {
		if !s.hasWritten {
			unknownWritten++
		}
		if !s.hasInterview {
			unknownInterview++
		}
	}

	var st SamplingStats
	writtenPool, ws, err := sampler.Fill(ctx, e.sampler, p.WrittenMean, p.WrittenStdDev,
		sampler.Open(req.WrittenCutoff, p.WrittenMax), unknownWritten*e.trials, e.batchSize)
	if err != nil {
		return Result{}, fmt.Errorf("written pool: %w", err)
	}
	st.Written = ws
	interviewPool, is, err := sampler.Fill(ctx, e.sampler, p.InterviewMean, p.InterviewStdDev,
		sampler.Closed(exam.InterviewMin, exam.InterviewMax), unknownInterview*e.trials, e.batchSize)
	if err != nil {
		return Result{}, fmt.Errorf("interview pool: %w", err)
	}
	st.Interview = is

	user := p.Composite(req.UserWritten, req.UserInterview)
	scores := make([]float64, len(slots))
	rows := make([]Participant, len(slots))
	promotedCount := 0

	for i := 0; i < e.trials; i++ {
		if i%e.yieldEvery == 0 {
			if err := ctx.Err(); err != nil {
				return Result{}, fmt.Errorf("simulation interrupted after %d trials: %w", i, err)
			}
			if e.progress != nil {
				e.progress(i, e.trials)
			}
		}
		for j, s := range slots {
			row := Participant{Role: RoleRival, Rival: j + 1, PinnedToCutoff: s.pinned}
			if s.hasWritten {
				row.Written = s.written
			} else {
				row.Written = writtenPool.Next()
				row.WrittenSampled = true
			}
			if s.hasInterview {
				row.Interview = s.interview
			} else {
				row.Interview = interviewPool.Next()
				row.InterviewSampled = true
			}
			row.Composite = p.Composite(row.Written, row.Interview)
			scores[j] = row.Composite
			rows[j] = row
		}
		if IsPromoted(user, scores, req.PromotionSlots) {
			promotedCount++
		}
	}

	last := Trial{Participants: make([]Participant, 0, len(rows)+1)}
	last.Participants = append(last.Participants, Participant{
		Role:      RoleUser,
		Written:   req.UserWritten,
		Interview: req.UserInterview,
		Composite: user,
	})
	last.Participants = append(last.Participants, rows...)
	last.Promoted = IsPromoted(user, scores, req.PromotionSlots)
	last.UserRank = RankTrial(last.Participants)

	return Result{
		PromotionProbability: float64(promotedCount) / float64(e.trials),
		PromotionCount:       promotedCount,
		TotalTrials:          e.trials,
		UserComposite:        user,
		Representative:       last,
		UserRank:             last.UserRank,
		Promoted:             last.Promoted,
		HighlightFirstRival:  pinned,
		Sampling:             st,
	}, nil
}
