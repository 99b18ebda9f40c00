package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Environment is a finite horizon environment explored by the Agent.
// Step should not mutate the state passed to it.
type Environment interface {
	// Reset returns the initial state of an episode
	Reset() State
	// Step applies the action at the given time index and returns the successor and the reward
	Step(int, State, int) (State, float64, error)
	// Horizon is the number of steps in an episode
	Horizon() int
	// NumActions is the size of the discrete action space
	NumActions() int
}

// State is the numeric observation vector of the environment
type State []float64

// Copy returns an independent copy of the state
func (s State) Copy() State {
	if s == nil {
		return nil
	}
	out := make(State, len(s))
	copy(out, s)
	return out
}

// Hash is a deterministic key of the state
func (s State) Hash() string {
	parts := make([]string, len(s))
	for i, v := range s {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func (s State) Equal(other State) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Transition is one recorded step.
// NextState is nil when the step ended the episode.
type Transition struct {
	State     State
	Action    int
	NextState State
	Reward    float64
}

// Terminal is true when no successor was recorded for the transition
func (t Transition) Terminal() bool {
	return t.NextState == nil
}

func (t Transition) String() string {
	next := "terminal"
	if !t.Terminal() {
		next = t.NextState.Hash()
	}
	return fmt.Sprintf("%s -%d-> %s (%.3f)", t.State.Hash(), t.Action, next, t.Reward)
}
