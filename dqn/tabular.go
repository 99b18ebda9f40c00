package dqn

import (
	"fmt"

	"github.com/zeu5/pricing-rl/types"
)

// TabularApproximator keeps one row of values per visited state.
// Unvisited states evaluate to zero.
type TabularApproximator struct {
	table      map[string][]float64
	numActions int
	lr         float64
}

var _ TrainableApproximator = &TabularApproximator{}

func NewTabularApproximator(numActions int, lr float64) *TabularApproximator {
	return &TabularApproximator{
		table:      make(map[string][]float64),
		numActions: numActions,
		lr:         lr,
	}
}

func (q *TabularApproximator) NumActions() int {
	return q.numActions
}

func (q *TabularApproximator) Evaluate(s types.State) []float64 {
	out := make([]float64, q.numActions)
	if row, ok := q.table[s.Hash()]; ok {
		copy(out, row)
	}
	return out
}

// Set overwrites the value of the state and action
func (q *TabularApproximator) Set(s types.State, action int, val float64) {
	key := s.Hash()
	if _, ok := q.table[key]; !ok {
		q.table[key] = make([]float64, q.numActions)
	}
	q.table[key][action] = val
}

func (q *TabularApproximator) SynchronizeFrom(other ValueApproximator) error {
	o, ok := other.(*TabularApproximator)
	if !ok || o.numActions != q.numActions {
		return fmt.Errorf("%w: cannot copy %T into tabular", ErrIncompatibleApproximator, other)
	}
	table := make(map[string][]float64, len(o.table))
	for k, row := range o.table {
		r := make([]float64, len(row))
		copy(r, row)
		table[k] = r
	}
	q.table = table
	return nil
}

func (q *TabularApproximator) ApplyGradientStep(states []types.State, actions []int, grads []float64, bound float64) error {
	if err := checkBatch(states, actions, grads, q.numActions); err != nil {
		return err
	}
	acc := make(map[string][]float64)
	for i, s := range states {
		key := s.Hash()
		if _, ok := acc[key]; !ok {
			acc[key] = make([]float64, q.numActions)
		}
		acc[key][actions[i]] += grads[i]
	}
	for key, g := range acc {
		clip(g, bound)
		if _, ok := q.table[key]; !ok {
			q.table[key] = make([]float64, q.numActions)
		}
		for a := range g {
			q.table[key][a] -= q.lr * g[a]
		}
	}
	return nil
}
