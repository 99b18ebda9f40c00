package dqn

import (
	"fmt"
	"math"

	"github.com/zeu5/pricing-rl/types"
	"gonum.org/v1/gonum/floats"
)

// Optimizer performs the bootstrapped value update of the policy approximator.
// The target approximator is only ever read.
type Optimizer struct {
	policy TrainableApproximator
	target ValueApproximator
	gamma  float64
	clip   float64
}

func NewOptimizer(policy TrainableApproximator, target ValueApproximator, gamma, clip float64) *Optimizer {
	return &Optimizer{
		policy: policy,
		target: target,
		gamma:  gamma,
		clip:   clip,
	}
}

// TerminalMask is true for every transition recorded without a successor
func TerminalMask(batch []types.Transition) []bool {
	mask := make([]bool, len(batch))
	for i, t := range batch {
		mask[i] = t.Terminal()
	}
	return mask
}

// BellmanTargets computes reward + gamma * max_a target(next_state).
// Terminal transitions bootstrap exactly zero.
func BellmanTargets(batch []types.Transition, target ValueApproximator, gamma float64) []float64 {
	mask := TerminalMask(batch)
	out := make([]float64, len(batch))
	for i, t := range batch {
		bootstrap := 0.0
		if !mask[i] {
			bootstrap = floats.Max(target.Evaluate(t.NextState))
		}
		out[i] = t.Reward + gamma*bootstrap
	}
	return out
}

// Huber is the smooth L1 distance: quadratic under 1, linear beyond
func Huber(diff float64) float64 {
	a := math.Abs(diff)
	if a < 1 {
		return 0.5 * diff * diff
	}
	return a - 0.5
}

// HuberGrad is the derivative of Huber
func HuberGrad(diff float64) float64 {
	if diff > 1 {
		return 1
	}
	if diff < -1 {
		return -1
	}
	return diff
}

// Step computes the batch loss and applies one gradient step to the policy.
// A non-finite loss is returned as an error and nothing is applied.
func (o *Optimizer) Step(batch []types.Transition) (float64, error) {
	if len(batch) == 0 {
		return 0, fmt.Errorf("%w: empty batch", ErrInsufficientData)
	}
	targets := BellmanTargets(batch, o.target, o.gamma)

	n := float64(len(batch))
	states := make([]types.State, len(batch))
	actions := make([]int, len(batch))
	grads := make([]float64, len(batch))
	loss := 0.0
	for i, t := range batch {
		predicted := o.policy.Evaluate(t.State)[t.Action]
		diff := predicted - targets[i]
		loss += Huber(diff) / n
		states[i] = t.State
		actions[i] = t.Action
		grads[i] = HuberGrad(diff) / n
	}
	if math.IsNaN(loss) || math.IsInf(loss, 0) {
		return loss, fmt.Errorf("%w: %f", ErrNonFiniteLoss, loss)
	}
	if err := o.policy.ApplyGradientStep(states, actions, grads, o.clip); err != nil {
		return loss, err
	}
	return loss, nil
}
