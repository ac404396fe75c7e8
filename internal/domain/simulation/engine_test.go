package simulation_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/okian/shangan/internal/domain/exam"
	"github.com/okian/shangan/internal/domain/simulation"
	. "github.com/smartystreets/goconvey/convey"
)

// constSampler returns the mean for every draw and counts calls.
type constSampler struct {
	mu    sync.Mutex
	calls int
}

func (c *constSampler) Normal(mean, _ float64, count int) []float64 {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	out := make([]float64, count)
	for i := range out {
		out[i] = mean
	}
	return out
}

// cycleSampler replays a fixed sequence regardless of parameters.
type cycleSampler struct {
	seq []float64
	pos int
}

func (c *cycleSampler) Normal(_, _ float64, count int) []float64 {
	out := make([]float64, count)
	for i := range out {
		out[i] = c.seq[c.pos%len(c.seq)]
		c.pos++
	}
	return out
}

func institution() exam.Profile {
	p, err := exam.Lookup(exam.Institution)
	if err != nil {
		panic(err)
	}
	return p
}

func rivalRow(t simulation.Trial, n int) simulation.Participant {
	for _, p := range t.Participants {
		if p.Role == simulation.RoleRival && p.Rival == n {
			return p
		}
	}
	panic("rival not in trial")
}

func TestSimulateValidation(t *testing.T) {
	Convey("Given an engine with a counting sampler", t, func() {
		s := &constSampler{}
		engine := simulation.New(simulation.WithSampler(s))
		ctx := context.Background()
		base := simulation.Request{
			Profile:       institution(),
			WrittenCutoff: 150,
			UserWritten:   160,
			UserInterview: 75,
		}

		cases := []struct {
			name         string
			participants int
			slots        int
			field        string
		}{
			{"one participant", 1, 1, "total_participants"},
			{"ten participants", 10, 1, "total_participants"},
			{"zero slots", 3, 0, "promotion_slots"},
			{"slots equal participants", 3, 3, "promotion_slots"},
			{"slots above participants", 3, 5, "promotion_slots"},
		}
		for _, tc := range cases {
			Convey("When the request has "+tc.name, func() {
				req := base
				req.TotalParticipants = tc.participants
				req.PromotionSlots = tc.slots
				_, err := engine.Simulate(ctx, req)

				Convey("Then it should fail fast without sampling", func() {
					So(errors.Is(err, simulation.ErrInvalidParameters), ShouldBeTrue)
					var ipe *simulation.InvalidParametersError
					So(errors.As(err, &ipe), ShouldBeTrue)
					So(ipe.Field, ShouldEqual, tc.field)
					So(s.calls, ShouldEqual, 0)
				})
			})
		}
	})
}

func TestSimulateDeterministicWhenAllKnown(t *testing.T) {
	Convey("Given two participants with the rival fully known", t, func() {
		s := &constSampler{}
		engine := simulation.New(simulation.WithSampler(s))
		ctx := context.Background()

		Convey("When the pinned rival beats the user", func() {
			req := simulation.Request{
				Profile:           institution(),
				TotalParticipants: 2,
				PromotionSlots:    1,
				WrittenCutoff:     150,
				UserWritten:       160,
				UserInterview:     75,
				Rivals:            []simulation.RivalScores{{Written: simulation.Score(180), Interview: simulation.Score(80)}},
			}
			first, err1 := engine.Simulate(ctx, req)
			second, err2 := engine.Simulate(ctx, req)

			Convey("Then the outcome should be exactly zero both times", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(first.PromotionProbability, ShouldEqual, 0.0)
				So(second.PromotionProbability, ShouldEqual, first.PromotionProbability)
				So(first.HighlightFirstRival, ShouldBeTrue)
				So(rivalRow(first.Representative, 1).Written, ShouldEqual, 150.0)
				So(rivalRow(first.Representative, 1).Composite, ShouldEqual, 130.0)
				So(first.UserRank, ShouldEqual, 2)
				So(first.Promoted, ShouldBeFalse)
				So(s.calls, ShouldEqual, 0)
			})
		})

		Convey("When the user ties the unpinned rival", func() {
			req := simulation.Request{
				Profile:           institution(),
				TotalParticipants: 2,
				PromotionSlots:    1,
				WrittenCutoff:     150,
				UserWritten:       150,
				UserInterview:     90,
				Rivals:            []simulation.RivalScores{{Written: simulation.Score(180), Interview: simulation.Score(80)}},
			}
			res, err := engine.Simulate(ctx, req)

			Convey("Then the tie should not count against the user", func() {
				So(err, ShouldBeNil)
				So(res.PromotionProbability, ShouldEqual, 1.0)
				So(res.PromotionCount, ShouldEqual, res.TotalTrials)
				So(res.HighlightFirstRival, ShouldBeFalse)
				So(rivalRow(res.Representative, 1).Written, ShouldEqual, 180.0)
				So(res.UserRank, ShouldEqual, 1)
				So(res.Promoted, ShouldBeTrue)
				So(s.calls, ShouldEqual, 0)
			})
		})

		Convey("When a rival score is NaN", func() {
			req := simulation.Request{
				Profile:           institution(),
				TotalParticipants: 2,
				PromotionSlots:    1,
				WrittenCutoff:     150,
				UserWritten:       150,
				UserInterview:     90,
				Rivals:            []simulation.RivalScores{{Written: simulation.Score(180), Interview: simulation.Score(math.NaN())}},
			}
			res, err := engine.Simulate(ctx, req)

			Convey("Then it should be sampled like any unknown score", func() {
				So(err, ShouldBeNil)
				rival := rivalRow(res.Representative, 1)
				So(rival.InterviewSampled, ShouldBeTrue)
				So(rival.Interview, ShouldEqual, 74.0)
				So(rival.Composite, ShouldEqual, 134.0)
				So(res.PromotionProbability, ShouldEqual, 1.0)
				So(s.calls, ShouldBeGreaterThan, 0)
			})
		})
	})
}

func TestSimulatePinning(t *testing.T) {
	Convey("Given three participants with unknown rivals", t, func() {
		engine := simulation.New()
		ctx := context.Background()
		req := simulation.Request{
			Profile:           institution(),
			TotalParticipants: 3,
			PromotionSlots:    1,
			WrittenCutoff:     150,
			UserWritten:       160,
			UserInterview:     75,
		}

		Convey("When the user's written score differs from the cutoff", func() {
			res, err := engine.Simulate(ctx, req)

			Convey("Then rival #1's written score should be pinned to the cutoff", func() {
				So(err, ShouldBeNil)
				So(res.HighlightFirstRival, ShouldBeTrue)
				first := rivalRow(res.Representative, 1)
				So(first.Written, ShouldEqual, 150.0)
				So(first.PinnedToCutoff, ShouldBeTrue)
				So(first.WrittenSampled, ShouldBeFalse)
				So(first.InterviewSampled, ShouldBeTrue)
				So(rivalRow(res.Representative, 2).PinnedToCutoff, ShouldBeFalse)
			})

			Convey("And only the second rival's written score should be sampled", func() {
				So(res.Sampling.Written.Accepted, ShouldEqual, 1*res.TotalTrials)
				So(res.Sampling.Interview.Accepted, ShouldEqual, 2*res.TotalTrials)
			})
		})

		Convey("When the user's written score equals the cutoff", func() {
			req.UserWritten = 150
			res, err := engine.Simulate(ctx, req)

			Convey("Then no rival should be pinned", func() {
				So(err, ShouldBeNil)
				So(res.HighlightFirstRival, ShouldBeFalse)
				first := rivalRow(res.Representative, 1)
				So(first.PinnedToCutoff, ShouldBeFalse)
				So(first.WrittenSampled, ShouldBeTrue)
				So(first.Written, ShouldBeGreaterThan, 150.0)
				So(res.Sampling.Written.Accepted, ShouldEqual, 2*res.TotalTrials)
			})
		})
	})
}

func TestSimulateRivalNormalization(t *testing.T) {
	Convey("Given an engine with a constant sampler", t, func() {
		engine := simulation.New(simulation.WithSampler(&constSampler{}), simulation.WithTrials(10))
		ctx := context.Background()
		req := simulation.Request{
			Profile:           institution(),
			TotalParticipants: 4,
			PromotionSlots:    2,
			WrittenCutoff:     150,
			UserWritten:       150,
			UserInterview:     75,
		}

		Convey("When fewer rival entries than rivals are supplied", func() {
			req.Rivals = []simulation.RivalScores{{Written: simulation.Score(190)}}
			res, err := engine.Simulate(ctx, req)

			Convey("Then the missing rivals should be fully sampled", func() {
				So(err, ShouldBeNil)
				So(len(res.Representative.Participants), ShouldEqual, 4)
				So(rivalRow(res.Representative, 1).Written, ShouldEqual, 190.0)
				So(rivalRow(res.Representative, 3).WrittenSampled, ShouldBeTrue)
				So(rivalRow(res.Representative, 3).InterviewSampled, ShouldBeTrue)
			})
		})

		Convey("When rival scores are zero or negative", func() {
			req.Rivals = []simulation.RivalScores{
				{Written: simulation.Score(0), Interview: simulation.Score(-3)},
				{Written: simulation.Score(170), Interview: simulation.Score(0)},
				{},
			}
			res, err := engine.Simulate(ctx, req)

			Convey("Then they should be treated as unknown", func() {
				So(err, ShouldBeNil)
				first := rivalRow(res.Representative, 1)
				So(first.WrittenSampled, ShouldBeTrue)
				So(first.Written, ShouldEqual, 160.0)
				So(first.InterviewSampled, ShouldBeTrue)
				second := rivalRow(res.Representative, 2)
				So(second.WrittenSampled, ShouldBeFalse)
				So(second.InterviewSampled, ShouldBeTrue)
			})
		})

		Convey("When more rival entries than rivals are supplied", func() {
			req.Rivals = make([]simulation.RivalScores, 8)
			res, err := engine.Simulate(ctx, req)

			Convey("Then the surplus should be ignored", func() {
				So(err, ShouldBeNil)
				So(len(res.Representative.Participants), ShouldEqual, 4)
				So(res.Sampling.Written.Accepted, ShouldEqual, 3*10)
			})
		})
	})
}

func TestSimulateSampledBounds(t *testing.T) {
	Convey("Given a full field of unknown rivals and real sampling", t, func() {
		engine := simulation.New(simulation.WithTrials(500))
		ctx := context.Background()
		profiles := exam.Profiles()

		for _, p := range profiles {
			Convey("When simulating "+p.Name, func() {
				req := simulation.Request{
					Profile:           p,
					TotalParticipants: 9,
					PromotionSlots:    3,
					WrittenCutoff:     p.WrittenMean - p.WrittenStdDev,
					UserWritten:       p.WrittenMean - p.WrittenStdDev,
					UserInterview:     80,
				}

				Convey("Then every sampled score should respect its range", func() {
					for run := 0; run < 20; run++ {
						res, err := engine.Simulate(ctx, req)
						So(err, ShouldBeNil)
						for _, row := range res.Representative.Participants {
							if row.WrittenSampled {
								So(row.Written, ShouldBeGreaterThan, req.WrittenCutoff)
								So(row.Written, ShouldBeLessThan, p.WrittenMax)
							}
							if row.InterviewSampled {
								So(row.Interview, ShouldBeBetweenOrEqual, exam.InterviewMin, exam.InterviewMax)
							}
						}
					}
				})
			})
		}
	})
}

func TestSimulateEndToEnd(t *testing.T) {
	Convey("Given the 事业单位 example with one unknown rival", t, func() {
		engine := simulation.New()
		req := simulation.Request{
			Profile:           institution(),
			TotalParticipants: 2,
			PromotionSlots:    1,
			WrittenCutoff:     150,
			UserWritten:       200,
			UserInterview:     80,
			Rivals:            []simulation.RivalScores{{}},
		}

		Convey("When running the default number of trials", func() {
			res, err := engine.Simulate(context.Background(), req)

			Convey("Then the user should be very likely to advance", func() {
				So(err, ShouldBeNil)
				So(res.TotalTrials, ShouldEqual, simulation.DefaultTrials)
				So(res.UserComposite, ShouldAlmostEqual, 146.67, 0.01)
				So(res.PromotionProbability, ShouldBeGreaterThan, 0.8)
				So(res.PromotionProbability, ShouldBeLessThanOrEqualTo, 1.0)
				So(res.PromotionProbability, ShouldEqual, float64(res.PromotionCount)/float64(res.TotalTrials))
				So(len(res.Representative.Participants), ShouldEqual, 2)
			})
		})
	})
}

func TestSimulateProgress(t *testing.T) {
	Convey("Given a replaying sampler", t, func() {
		seq := []float64{155, 170, 149, 200, 62, 75, 99, 58, 160, 301, 88}
		req := simulation.Request{
			Profile:           institution(),
			TotalParticipants: 5,
			PromotionSlots:    2,
			WrittenCutoff:     150,
			UserWritten:       175,
			UserInterview:     76,
			Rivals:            []simulation.RivalScores{{}, {Interview: simulation.Score(81)}},
		}
		ctx := context.Background()

		Convey("When running with and without a progress hook", func() {
			var seen []int
			totals := map[int]bool{}
			hooked := simulation.New(
				simulation.WithSampler(&cycleSampler{seq: seq}),
				simulation.WithProgress(func(done, total int) {
					seen = append(seen, done)
					totals[total] = true
				}),
			)
			plain := simulation.New(simulation.WithSampler(&cycleSampler{seq: seq}))

			withHook, err1 := hooked.Simulate(ctx, req)
			without, err2 := plain.Simulate(ctx, req)

			Convey("Then the hook should fire every thousand trials", func() {
				So(err1, ShouldBeNil)
				So(seen, ShouldResemble, []int{0, 1000, 2000, 3000, 4000, 5000, 6000, 7000, 8000, 9000})
				So(totals, ShouldResemble, map[int]bool{simulation.DefaultTrials: true})
			})

			Convey("And the results should be identical", func() {
				So(err2, ShouldBeNil)
				So(withHook, ShouldResemble, without)
			})
		})

		Convey("When the caller stops while the trials run", func() {
			cctx, cancel := context.WithCancel(ctx)
			defer cancel()
			engine := simulation.New(
				simulation.WithSampler(&cycleSampler{seq: seq}),
				simulation.WithProgress(func(done, _ int) {
					if done == 2000 {
						cancel()
					}
				}),
			)
			res, err := engine.Simulate(cctx, req)

			Convey("Then no partial result should be reported", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
				So(res, ShouldResemble, simulation.Result{})
			})
		})
	})
}

func TestSimulateConcurrentCallers(t *testing.T) {
	Convey("Given one engine shared by several goroutines", t, func() {
		engine := simulation.New(simulation.WithTrials(2000))
		req := simulation.Request{
			Profile:           institution(),
			TotalParticipants: 6,
			PromotionSlots:    2,
			WrittenCutoff:     150,
			UserWritten:       170,
			UserInterview:     78,
		}

		Convey("When they simulate at the same time", func() {
			const callers = 8
			results := make([]simulation.Result, callers)
			errs := make([]error, callers)
			var wg sync.WaitGroup
			for i := 0; i < callers; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					results[i], errs[i] = engine.Simulate(context.Background(), req)
				}(i)
			}
			wg.Wait()

			Convey("Then every run should be complete and self-consistent", func() {
				for i := 0; i < callers; i++ {
					So(errs[i], ShouldBeNil)
					So(results[i].TotalTrials, ShouldEqual, 2000)
					So(results[i].PromotionProbability, ShouldBeBetweenOrEqual, 0.0, 1.0)
					So(results[i].Sampling.Written.Accepted, ShouldEqual, 4*2000)
					So(results[i].Sampling.Interview.Accepted, ShouldEqual, 5*2000)
				}
			})
		})
	})
}
