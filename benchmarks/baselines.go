package benchmarks

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"github.com/zeu5/pricing-rl/dqn"
	"github.com/zeu5/pricing-rl/pricing"
	"github.com/zeu5/pricing-rl/types"
)

// BaselineResult is the single episode outcome of a fixed policy
type BaselineResult struct {
	Name   string
	Profit float64
	Prices []float64
}

// Baselines plays one episode of every fixed pricing strategy
func Baselines(cfg dqn.Config) ([]BaselineResult, error) {
	sim, err := dqn.NewSimulator(cfg)
	if err != nil {
		return nil, err
	}
	policies := []struct {
		name   string
		policy types.Policy
	}{
		{"constant", pricing.NewConstantPricePolicy(sim)},
		{"greedy", pricing.NewGreedyPolicy(sim)},
		{"random", types.NewRandomPolicy(sim.NumActions(), cfg.Seed)},
	}
	out := make([]BaselineResult, 0, len(policies))
	for _, p := range policies {
		agent := types.NewAgent(&types.AgentConfig{
			Episodes:    1,
			Policy:      p.policy,
			Environment: sim,
		})
		trace, err := agent.RunEpisode(0)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p.name, err)
		}
		out = append(out, BaselineResult{
			Name:   p.name,
			Profit: trace.TotalReward(),
			Prices: trace.Prices(),
		})
	}
	return out, nil
}

func renderBaselines(results []BaselineResult) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("Strategy", "Profit", "First price", "Last price")
	for _, r := range results {
		first, last := 0.0, 0.0
		if len(r.Prices) > 0 {
			first, last = r.Prices[0], r.Prices[len(r.Prices)-1]
		}
		t.Row(r.Name, fmt.Sprintf("%.2f", r.Profit), fmt.Sprintf("%.0f", first), fmt.Sprintf("%.0f", last))
	}
	return t.Render()
}

func BaselinesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "baselines",
		Short: "Profit of the constant, greedy and random pricing strategies",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := commandConfig(cmd)
			if err != nil {
				return err
			}
			results, err := Baselines(cfg)
			if err != nil {
				return err
			}
			fmt.Println(renderBaselines(results))
			return nil
		},
	}
}
