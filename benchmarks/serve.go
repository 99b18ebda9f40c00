package benchmarks

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/zeu5/pricing-rl/dqn"
	"github.com/zeu5/pricing-rl/report"
	"github.com/zeu5/pricing-rl/types"
	"go.uber.org/zap"
)

// TrainAndServe exposes the episodes over http while training
// and keeps serving the learnt values until the context is cancelled
func TrainAndServe(ctx context.Context, cfg dqn.Config, logger *zap.Logger, addr string) error {
	sim, err := dqn.NewSimulator(cfg)
	if err != nil {
		return err
	}
	trainer, err := dqn.NewTrainer(cfg, sim.StateSize(), sim.NumActions(), logger)
	if err != nil {
		return err
	}
	store := report.NewStore()

	// values are only exposed once training is over
	server := report.NewServer(ctx, addr, store, nil, sim, logger)
	server.Start()

	agent := types.NewAgent(&types.AgentConfig{
		Episodes:    cfg.Episodes,
		Policy:      trainer,
		Environment: sim,
	})
	for episode := 0; episode < cfg.Episodes; episode++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		trace, err := agent.RunEpisode(episode)
		if err != nil {
			return err
		}
		store.Analyze(0, episode, "dqn", trace)
	}
	logger.Info("training finished, serving values", zap.Int("episodes", store.Len()))
	server.SetValues(trainer)

	<-ctx.Done()
	return nil
}

func ServeCommand() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Train the agent and serve its episodes and values over http",
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

			ctx, cancel := signalContext()
			defer cancel()
			return TrainAndServe(ctx, cfg, logger, addr)
		},
	}
	cmd.PersistentFlags().StringVar(&addr, "addr", ":8080", "Address to serve on")
	return cmd
}
