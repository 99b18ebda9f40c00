package pricing

import (
	"github.com/zeu5/pricing-rl/types"
)

// OptimalConstantPrice searches the grid for the price that maximizes
// the total profit when held for the whole horizon
func OptimalConstantPrice(sim *Simulator) (int, float64) {
	bestAction := 0
	bestProfit := 0.0
	prices := make([]float64, sim.Horizon())
	for a, p := range sim.grid {
		for t := range prices {
			prices[t] = p
		}
		profit := sim.params.TotalProfit(prices)
		if a == 0 || profit > bestProfit {
			bestAction = a
			bestProfit = profit
		}
	}
	return bestAction, bestProfit
}

// ConstantPricePolicy always plays the same action
type ConstantPricePolicy struct {
	Action int
}

var _ types.Policy = &ConstantPricePolicy{}

func NewConstantPricePolicy(sim *Simulator) *ConstantPricePolicy {
	action, _ := OptimalConstantPrice(sim)
	return &ConstantPricePolicy{Action: action}
}

func (c *ConstantPricePolicy) NextAction(_ int, _ types.State) (int, error) {
	return c.Action, nil
}

func (c *ConstantPricePolicy) Update(_ int, _ types.Transition) error { return nil }

func (c *ConstantPricePolicy) UpdateIteration(_ int, _ *types.Trace) error { return nil }

func (c *ConstantPricePolicy) Reset() {}

// GreedyPolicy picks the price with the best immediate profit
// given the last price of the state
type GreedyPolicy struct {
	sim *Simulator
}

var _ types.Policy = &GreedyPolicy{}

func NewGreedyPolicy(sim *Simulator) *GreedyPolicy {
	return &GreedyPolicy{sim: sim}
}

func (g *GreedyPolicy) NextAction(step int, state types.State) (int, error) {
	best := 0
	bestProfit := 0.0
	for a, p := range g.sim.grid {
		profit := g.sim.params.Profit(p, g.sim.PrevPrice(step, state, p))
		if a == 0 || profit > bestProfit {
			best = a
			bestProfit = profit
		}
	}
	return best, nil
}

func (g *GreedyPolicy) Update(_ int, _ types.Transition) error { return nil }

func (g *GreedyPolicy) UpdateIteration(_ int, _ *types.Trace) error { return nil }

func (g *GreedyPolicy) Reset() {}
