package dqn

import (
	"fmt"
	"math"

	"github.com/zeu5/pricing-rl/types"
)

// ValueApproximator maps a state to one estimated value per action.
// Evaluation is deterministic for fixed parameters.
type ValueApproximator interface {
	Evaluate(types.State) []float64
	// SynchronizeFrom overwrites the parameters with a copy of other's.
	// Both instances evaluate identically until either one is updated.
	SynchronizeFrom(ValueApproximator) error
	NumActions() int
}

// TrainableApproximator is the approximator owned by the policy role
type TrainableApproximator interface {
	ValueApproximator
	// ApplyGradientStep takes one optimization step given the loss gradient
	// with respect to the predicted value of every (state, action) sample.
	// Each parameter gradient is clipped to [-clip, clip] before the update.
	ApplyGradientStep(states []types.State, actions []int, grads []float64, clip float64) error
}

// NewApproximator builds the approximator named in the config.
// Two calls with the same arguments produce identical parameters.
func NewApproximator(cfg Config, stateSize, numActions int, seed uint64) (TrainableApproximator, error) {
	switch cfg.Approximator {
	case "mlp":
		return NewMLPApproximator(stateSize, cfg.Hidden, numActions, cfg.LearningRate, seed), nil
	case "linear":
		return NewLinearApproximator(stateSize, numActions, cfg.LearningRate, seed), nil
	case "tabular":
		return NewTabularApproximator(numActions, cfg.LearningRate), nil
	}
	return nil, fmt.Errorf("%w: unknown approximator %q", ErrInvalidConfig, cfg.Approximator)
}

func clip(values []float64, bound float64) {
	for i, v := range values {
		values[i] = math.Max(-bound, math.Min(bound, v))
	}
}

func checkBatch(states []types.State, actions []int, grads []float64, numActions int) error {
	if len(states) != len(actions) || len(states) != len(grads) {
		return fmt.Errorf("%w: batch of %d states, %d actions, %d gradients", ErrInvalidConfig, len(states), len(actions), len(grads))
	}
	for _, a := range actions {
		if a < 0 || a >= numActions {
			return fmt.Errorf("%w: action %d not in [0, %d)", ErrInvalidConfig, a, numActions)
		}
	}
	return nil
}
