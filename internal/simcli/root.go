// Package simcli implements the offline simulate command.
package simcli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/okian/shangan/internal/config"
	"github.com/okian/shangan/internal/domain/exam"
	"github.com/okian/shangan/internal/domain/simulation"
	"github.com/okian/shangan/internal/report"
	"github.com/okian/shangan/pkg/logger"
)

type runOptions struct {
	exam      string
	total     int
	slots     int
	cutoff    float64
	written   float64
	interview float64
	rivals    []string
	trials    int
	asJSON    bool
}

// NewRootCommand builds the simulate command tree.
func NewRootCommand() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:           "simulate",
		Short:         "Estimate exam promotion probability by Monte Carlo simulation",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.Init(logger.WithWriter(cmd.ErrOrStderr())); err != nil {
				return err
			}
			return logger.SetLevelString(logLevel)
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log", "warn", "Log level (debug, info, warn, error)")

	root.AddCommand(newRunCommand(), newExamsCommand())
	return root
}

func newRunCommand() *cobra.Command {
	o := runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one promotion simulation",
		Example: `  simulate run --exam institution --total 3 --slots 1 --cutoff 150 \
    --written 160 --interview 75 --rival 1:w=170,i=80 --rival 2:i=78`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.run(cmd)
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.exam, "exam", string(exam.Institution), "Exam type key or display name")
	f.IntVar(&o.total, "total", 3, "Total participants, user included (2-9)")
	f.IntVar(&o.slots, "slots", 1, "Promotion slots (1 to total-1)")
	f.Float64Var(&o.cutoff, "cutoff", 150, "Written score cutoff for the interview")
	f.Float64Var(&o.written, "written", 0, "Your written score (default: half the exam maximum)")
	f.Float64Var(&o.interview, "interview", 75, "Your interview score")
	f.StringArrayVar(&o.rivals, "rival", nil, "Known rival scores as N:w=..,i=.. (repeatable)")
	f.IntVar(&o.trials, "trials", 0, "Trials per simulation (default from config)")
	f.BoolVar(&o.asJSON, "json", false, "Print the raw result as JSON")
	return cmd
}

func (o *runOptions) run(cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	log := logger.Named("simulate")

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	profile, err := exam.Parse(o.exam)
	if err != nil {
		return err
	}
	if err := profile.CheckCutoff(o.cutoff); err != nil {
		return err
	}
	rivals, err := rivalScores(o.rivals)
	if err != nil {
		return err
	}
	written := o.written
	if !cmd.Flags().Changed("written") {
		written = profile.DefaultUserWritten()
	}
	trials := cfg.Trials
	if o.trials > 0 {
		trials = o.trials
	}

	engine := simulation.New(
		simulation.WithTrials(trials),
		simulation.WithBatchSize(cfg.BatchSize),
		simulation.WithYieldEvery(cfg.YieldEvery),
		simulation.WithProgress(func(done, total int) {
			log.Debug(ctx, "progress", logger.Int("done", done), logger.Int("total", total))
		}),
	)
	res, err := engine.Simulate(ctx, simulation.Request{
		Profile:           profile,
		TotalParticipants: o.total,
		PromotionSlots:    o.slots,
		WrittenCutoff:     o.cutoff,
		UserWritten:       written,
		UserInterview:     o.interview,
		Rivals:            rivals,
	})
	if err != nil {
		return err
	}
	log.Info(ctx, "simulation finished",
		logger.String("exam", string(profile.Type)),
		logger.Int("trials", res.TotalTrials),
		logger.Float64("probability", res.PromotionProbability),
		logger.Int("written_drawn", res.Sampling.Written.Drawn),
		logger.Int("interview_drawn", res.Sampling.Interview.Drawn),
	)

	out := cmd.OutOrStdout()
	if o.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	return report.WriteText(out, res)
}

func newExamsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "exams",
		Short: "List supported exam profiles",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tNAME\tWRITTEN MAX\tWRITTEN μ/σ\tINTERVIEW μ/σ\tFORMULA")
			for _, p := range exam.Profiles() {
				fmt.Fprintf(tw, "%s\t%s\t%.0f\t%.2f/%.2f\t%.2f/%.2f\t%s\n",
					p.Type, p.Name, p.WrittenMax,
					p.WrittenMean, p.WrittenStdDev,
					p.InterviewMean, p.InterviewStdDev,
					p.Formula)
			}
			return tw.Flush()
		},
	}
}

// Execute runs the CLI root command.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
