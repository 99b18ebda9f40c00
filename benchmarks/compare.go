package benchmarks

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"github.com/zeu5/pricing-rl/dqn"
	"github.com/zeu5/pricing-rl/pricing"
	"github.com/zeu5/pricing-rl/report"
	"github.com/zeu5/pricing-rl/types"
	"go.uber.org/zap"
)

// Compare trains the deep Q-learning agent next to the fixed strategies,
// plots the reward curves and last price schedules and prints a summary per run
func Compare(ctx context.Context, cfg dqn.Config, logger *zap.Logger, runs int, saveFile, redisAddr string, recordTraces bool) error {
	sim, err := dqn.NewSimulator(cfg)
	if err != nil {
		return err
	}
	trainer, err := dqn.NewTrainer(cfg, sim.StateSize(), sim.NumActions(), logger)
	if err != nil {
		return err
	}

	c := types.NewComparison(&types.ComparisonConfig{
		Runs:         runs,
		Episodes:     cfg.Episodes,
		RecordPath:   saveFile,
		RecordTraces: recordTraces,
	})
	c.AddAnalysis("rewards", types.NewRewardAnalyzer(), types.RewardPlotter(saveFile, 20))
	c.AddAnalysis("prices", types.NewPriceAnalyzer(), types.PricePlotter(saveFile))
	c.AddAnalysis("summary", types.NewRewardAnalyzer(), report.SummaryComparator(os.Stdout))
	if redisAddr != "" {
		cli := newRedisClient(redisAddr)
		defer cli.Close()
		c.AddAnalysis("redis", report.NewRedisPublisher(ctx, cli, "pricing", logger), types.NoopComparator())
	}

	c.AddExperiment(types.NewExperiment("dqn", trainer, sim))
	c.AddExperiment(types.NewExperiment("constant", pricing.NewConstantPricePolicy(sim), sim))
	c.AddExperiment(types.NewExperiment("greedy", pricing.NewGreedyPolicy(sim), sim))
	c.AddExperiment(types.NewExperiment("random", types.NewRandomPolicy(sim.NumActions(), cfg.Seed), sim))

	return c.Run(ctx)
}

func CompareCommand() *cobra.Command {
	var redisAddr string
	var recordTraces bool
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare the learnt pricing against the constant, greedy and random strategies",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := commandConfig(cmd)
			if err != nil {
				return err
			}
			logger, err := newLogger(debug)
			if err != nil {
				return err
			}
			defer logger.Sync()

			stopProfiling, err := startProfiling(saveFile, logger)
			if err != nil {
				return err
			}
			defer stopProfiling()

			ctx, cancel := signalContext()
			defer cancel()
			return Compare(ctx, cfg, logger, runs, saveFile, redisAddr, recordTraces)
		},
	}
	cmd.PersistentFlags().StringVar(&redisAddr, "redis", "", "Publish every episode to the redis server at this address")
	cmd.PersistentFlags().BoolVar(&recordTraces, "traces", false, "Record every trace as json lines")
	return cmd
}
