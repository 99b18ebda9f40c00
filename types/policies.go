package types

import (
	"golang.org/x/exp/rand"
)

// Policy chooses actions for the Agent and learns from the transitions it observes
type Policy interface {
	// NextAction for the given step and state
	NextAction(int, State) (int, error)
	// Update is called with the transition recorded at every step
	Update(int, Transition) error
	// UpdateIteration is called at the end of every episode with its trace
	UpdateIteration(int, *Trace) error
	// Reset discards everything learnt so far
	Reset()
}

// RandomPolicy picks uniformly among the actions
type RandomPolicy struct {
	numActions int
	seed       uint64
	run        uint64
	rand       *rand.Rand
}

var _ Policy = &RandomPolicy{}

func NewRandomPolicy(numActions int, seed uint64) *RandomPolicy {
	return &RandomPolicy{
		numActions: numActions,
		seed:       seed,
		rand:       rand.New(rand.NewSource(seed)),
	}
}

// Reset moves to the next run, reseeding from seed+run
func (r *RandomPolicy) Reset() {
	r.run++
	r.rand = rand.New(rand.NewSource(r.seed + r.run))
}

func (r *RandomPolicy) UpdateIteration(_ int, _ *Trace) error {
	return nil
}

func (r *RandomPolicy) NextAction(_ int, _ State) (int, error) {
	return r.rand.Intn(r.numActions), nil
}

func (r *RandomPolicy) Update(_ int, _ Transition) error { return nil }
