package dqn

import (
	"fmt"
	"sync"

	"github.com/zeu5/pricing-rl/types"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/sampleuv"
)

// ReplayBuffer is a fixed capacity ring of transitions.
// Once full the oldest transition is overwritten first.
type ReplayBuffer struct {
	mu       sync.Mutex
	slots    []types.Transition
	size     int
	cursor   int
	capacity int
	src      rand.Source
}

func NewReplayBuffer(capacity int, seed uint64) (*ReplayBuffer, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: capacity must be positive, got %d", ErrInvalidConfig, capacity)
	}
	return &ReplayBuffer{
		slots:    make([]types.Transition, capacity),
		capacity: capacity,
		src:      rand.NewSource(seed),
	}, nil
}

// Push stores the transition, evicting the oldest one when full
func (rb *ReplayBuffer) Push(t types.Transition) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	rb.slots[rb.cursor] = t
	rb.cursor = (rb.cursor + 1) % rb.capacity
	if rb.size < rb.capacity {
		rb.size++
	}
}

// Sample draws n distinct stored transitions uniformly at random
func (rb *ReplayBuffer) Sample(n int) ([]types.Transition, error) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	if n <= 0 || n > rb.size {
		return nil, fmt.Errorf("%w: requested %d, have %d", ErrInsufficientData, n, rb.size)
	}
	idxs := make([]int, n)
	sampleuv.WithoutReplacement(idxs, rb.size, rb.src)

	batch := make([]types.Transition, n)
	for i, idx := range idxs {
		batch[i] = rb.slots[idx]
	}
	return batch, nil
}

func (rb *ReplayBuffer) Size() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	return rb.size
}

func (rb *ReplayBuffer) Capacity() int {
	return rb.capacity
}
