package benchmarks

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/zeu5/pricing-rl/dqn"
	"github.com/zeu5/pricing-rl/report"
	"github.com/zeu5/pricing-rl/types"
	"github.com/zeu5/pricing-rl/util"
	"go.uber.org/zap"
)

// recordTraces writes every trace as a json line of <saveFile>/traces/<name>.jsonl
func recordTraces(saveFile, name string, traces []*types.Trace) error {
	tracesFile := path.Join(saveFile, "traces", name+".jsonl")
	if err := os.Remove(tracesFile); err != nil && !os.IsNotExist(err) {
		return err
	}
	lines := make([]string, len(traces))
	for i, t := range traces {
		bs, err := json.Marshal(t)
		if err != nil {
			return err
		}
		lines[i] = string(bs)
	}
	return util.AppendToFile(tracesFile, lines...)
}

func newRedisClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: addr,
	})
}

func TrainDQN(ctx context.Context, cfg dqn.Config, logger *zap.Logger, saveFile, redisAddr string) error {
	logger.Info("training",
		zap.Int("episodes", cfg.Episodes),
		zap.Int("horizon", cfg.Horizon),
		zap.String("approximator", cfg.Approximator),
		zap.Uint64("seed", cfg.Seed),
	)
	res, err := dqn.Train(ctx, cfg, logger)
	if err != nil {
		return err
	}

	if redisAddr != "" {
		cli := newRedisClient(redisAddr)
		defer cli.Close()
		publisher := report.NewRedisPublisher(ctx, cli, "pricing", logger)
		for i, t := range res.Traces {
			publisher.Analyze(0, i, "dqn", t)
		}
	}

	if err := recordTraces(saveFile, "dqn", res.Traces); err != nil {
		return err
	}
	rewards := make([]float64, len(res.Traces))
	for i, t := range res.Traces {
		rewards[i] = t.TotalReward()
	}
	types.RewardPlotter(saveFile, 20)(0, []string{"dqn"}, []types.DataSet{rewards})

	greedy, err := res.Trainer.Rollout(res.Simulator)
	if err != nil {
		return err
	}
	types.PricePlotter(saveFile)(0, []string{"dqn"}, []types.DataSet{greedy.Prices()})

	fmt.Println(report.RenderSummary(0, []report.RewardStats{report.Summarize("dqn", rewards)}))
	fmt.Printf("Greedy schedule: %v\n", greedy.Prices())
	fmt.Printf("Greedy profit: %.2f\n", greedy.TotalReward())
	return nil
}

func TrainCommand() *cobra.Command {
	var redisAddr string
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train the deep Q-learning agent and record its traces",
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
			return TrainDQN(ctx, cfg, logger, saveFile, redisAddr)
		},
	}
	cmd.PersistentFlags().StringVar(&redisAddr, "redis", "", "Publish every episode to the redis server at this address")
	return cmd
}
