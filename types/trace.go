package types

import (
	"encoding/json"
	"os"
)

// Trace of an episode: the transitions in order together with
// the reward and the price chosen at every step
type Trace struct {
	states     []State
	actions    []int
	nextStates []State
	rewards    []float64
	prices     []float64
}

func NewTrace() *Trace {
	return &Trace{
		states:     make([]State, 0),
		actions:    make([]int, 0),
		nextStates: make([]State, 0),
		rewards:    make([]float64, 0),
		prices:     make([]float64, 0),
	}
}

func (t *Trace) Append(state State, action int, nextState State, reward, price float64) {
	t.states = append(t.states, state)
	t.actions = append(t.actions, action)
	t.nextStates = append(t.nextStates, nextState)
	t.rewards = append(t.rewards, reward)
	t.prices = append(t.prices, price)
}

func (t *Trace) Len() int {
	return len(t.states)
}

func (t *Trace) Get(i int) (Transition, bool) {
	if i < 0 || i >= len(t.states) {
		return Transition{}, false
	}
	return Transition{
		State:     t.states[i],
		Action:    t.actions[i],
		NextState: t.nextStates[i],
		Reward:    t.rewards[i],
	}, true
}

func (t *Trace) Last() (Transition, bool) {
	return t.Get(len(t.states) - 1)
}

// Actions returns a copy of the chosen action indices
func (t *Trace) Actions() []int {
	out := make([]int, len(t.actions))
	copy(out, t.actions)
	return out
}

// Rewards returns a copy of the per step rewards
func (t *Trace) Rewards() []float64 {
	out := make([]float64, len(t.rewards))
	copy(out, t.rewards)
	return out
}

// Prices returns a copy of the chosen prices
func (t *Trace) Prices() []float64 {
	out := make([]float64, len(t.prices))
	copy(out, t.prices)
	return out
}

// TotalReward is the cumulative reward of the episode
func (t *Trace) TotalReward() float64 {
	total := 0.0
	for _, r := range t.rewards {
		total += r
	}
	return total
}

type traceJSON struct {
	Actions     []int     `json:"actions"`
	Prices      []float64 `json:"prices"`
	Rewards     []float64 `json:"rewards"`
	TotalReward float64   `json:"total_reward"`
}

func (t *Trace) MarshalJSON() ([]byte, error) {
	return json.Marshal(traceJSON{
		Actions:     t.actions,
		Prices:      t.prices,
		Rewards:     t.rewards,
		TotalReward: t.TotalReward(),
	})
}

// Record writes the trace as json to the given path
func (t *Trace) Record(p string) error {
	bs, err := json.Marshal(t)
	if err != nil {
		return err
	}
	return os.WriteFile(p, bs, 0644)
}
