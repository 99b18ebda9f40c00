package dqn

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
)

// EpsilonGreedy explores with a probability that decays exponentially
// from start towards end with the number of calls
type EpsilonGreedy struct {
	start float64
	end   float64
	decay float64
	steps int
	rand  *rand.Rand
}

func NewEpsilonGreedy(start, end, decay float64, seed uint64) *EpsilonGreedy {
	return &EpsilonGreedy{
		start: start,
		end:   end,
		decay: decay,
		rand:  rand.New(rand.NewSource(seed)),
	}
}

// Threshold is the current exploration probability
func (e *EpsilonGreedy) Threshold() float64 {
	return e.end + (e.start-e.end)*math.Exp(-float64(e.steps)/e.decay)
}

// Steps is the number of actions selected so far
func (e *EpsilonGreedy) Steps() int {
	return e.steps
}

// SelectAction returns the first maximum of the values unless the draw
// falls under the threshold, in which case a uniformly random action is returned.
// Every call advances the step counter.
func (e *EpsilonGreedy) SelectAction(values []float64) int {
	threshold := e.Threshold()
	e.steps++
	if e.rand.Float64() < threshold {
		return e.rand.Intn(len(values))
	}
	return floats.MaxIdx(values)
}
