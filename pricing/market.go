// Package pricing simulates the demand response of a market to a price schedule.
//
// Demand at price p given the previous price p' is
//
//	q = max(0, q0 - k*p - a*sqrt(max(0, p-p')) + b*sqrt(max(0, p'-p)))
//
// and the profit of a step is q*(p - unitCost). Price increases are damped by a,
// decreases are rewarded by b, both through a square root so large jumps
// saturate.
package pricing

import (
	"errors"
	"fmt"
	"math"

	"github.com/zeu5/pricing-rl/types"
)

var (
	ErrInvalidConfig = errors.New("invalid market configuration")
	ErrInvalidAction = errors.New("action outside the price grid")
)

// MarketParams are the coefficients of the demand response
type MarketParams struct {
	Q0       float64 `mapstructure:"q0" json:"q0"`
	K        float64 `mapstructure:"k" json:"k"`
	AQ       float64 `mapstructure:"a_q" json:"a_q"`
	BQ       float64 `mapstructure:"b_q" json:"b_q"`
	UnitCost float64 `mapstructure:"unit_cost" json:"unit_cost"`
}

func DefaultMarketParams() MarketParams {
	return MarketParams{
		Q0:       5000,
		K:        20,
		AQ:       300,
		BQ:       100,
		UnitCost: 100,
	}
}

func plus(x float64) float64 {
	if x < 0 {
		return 0
	}
	return x
}

func minus(x float64) float64 {
	if x > 0 {
		return 0
	}
	return -x
}

// Demand at price given the previous price, never negative
func (m MarketParams) Demand(price, prevPrice float64) float64 {
	delta := price - prevPrice
	return plus(m.Q0 - m.K*price - m.AQ*math.Sqrt(plus(delta)) + m.BQ*math.Sqrt(minus(delta)))
}

// Profit of a single step
func (m MarketParams) Profit(price, prevPrice float64) float64 {
	return m.Demand(price, prevPrice) * (price - m.UnitCost)
}

// TotalProfit of a price schedule. The first price is its own previous price.
func (m MarketParams) TotalProfit(prices []float64) float64 {
	total := 0.0
	for t, p := range prices {
		prev := p
		if t > 0 {
			prev = prices[t-1]
		}
		total += m.Profit(p, prev)
	}
	return total
}

// Simulator is the pricing environment.
// The state has 2*horizon entries: the most recent prices first,
// then a one-hot encoding of the time step.
type Simulator struct {
	params  MarketParams
	grid    []float64
	horizon int
}

var _ types.Environment = &Simulator{}
var _ types.ActionPricer = &Simulator{}

func NewSimulator(params MarketParams, grid []float64, horizon int) (*Simulator, error) {
	if horizon <= 0 {
		return nil, fmt.Errorf("%w: horizon must be positive, got %d", ErrInvalidConfig, horizon)
	}
	if len(grid) == 0 {
		return nil, fmt.Errorf("%w: empty price grid", ErrInvalidConfig)
	}
	for i := 1; i < len(grid); i++ {
		if grid[i] <= grid[i-1] {
			return nil, fmt.Errorf("%w: price grid must be strictly ascending at index %d", ErrInvalidConfig, i)
		}
	}
	g := make([]float64, len(grid))
	copy(g, grid)
	return &Simulator{
		params:  params,
		grid:    g,
		horizon: horizon,
	}, nil
}

// PriceGrid returns prices from min (inclusive) to max (exclusive) in increments of step
func PriceGrid(min, max, step float64) []float64 {
	grid := make([]float64, 0)
	if step <= 0 {
		return grid
	}
	for p := min; p < max; p += step {
		grid = append(grid, p)
	}
	return grid
}

func (s *Simulator) Params() MarketParams { return s.params }

func (s *Simulator) Horizon() int { return s.horizon }

func (s *Simulator) NumActions() int { return len(s.grid) }

func (s *Simulator) StateSize() int { return 2 * s.horizon }

// Price of the action, the action must be valid
func (s *Simulator) Price(action int) float64 {
	return s.grid[action]
}

// Reset returns the all zero initial state
func (s *Simulator) Reset() types.State {
	return make(types.State, 2*s.horizon)
}

// Step computes the successor state and the profit of choosing action at time t.
// The input state is left untouched.
func (s *Simulator) Step(t int, state types.State, action int) (types.State, float64, error) {
	if action < 0 || action >= len(s.grid) {
		return nil, 0, fmt.Errorf("%w: %d not in [0, %d)", ErrInvalidAction, action, len(s.grid))
	}
	if t < 0 || t >= s.horizon {
		return nil, 0, fmt.Errorf("%w: time index %d not in [0, %d)", ErrInvalidConfig, t, s.horizon)
	}
	if len(state) != 2*s.horizon {
		return nil, 0, fmt.Errorf("%w: state of size %d, expected %d", ErrInvalidConfig, len(state), 2*s.horizon)
	}
	T := s.horizon
	price := s.grid[action]

	next := state.Copy()
	copy(next[1:T], state[0:T-1])
	next[0] = price
	for i := T; i < 2*T; i++ {
		next[i] = 0
	}
	next[T+t] = 1

	return next, s.params.Profit(price, s.PrevPrice(t, state, price)), nil
}

// PrevPrice is the price the market compares against at time t
func (s *Simulator) PrevPrice(t int, state types.State, price float64) float64 {
	if t == 0 {
		return price
	}
	return state[0]
}
