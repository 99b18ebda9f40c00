package dqn

import (
	"context"
	"fmt"

	"github.com/zeu5/pricing-rl/pricing"
	"github.com/zeu5/pricing-rl/types"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
)

// Trainer is the deep Q-learning policy. At every step it acts
// epsilon-greedily on the policy approximator, stores the transition and,
// once the buffer holds a batch, takes one optimization step.
// The target approximator is refreshed from the policy every TargetUpdate episodes.
type Trainer struct {
	cfg        Config
	stateSize  int
	numActions int
	logger     *zap.Logger

	policy      TrainableApproximator
	target      TrainableApproximator
	buffer      *ReplayBuffer
	exploration *EpsilonGreedy
	optimizer   *Optimizer

	losses []float64
	// run counts the resets; every run draws its own seeds
	run uint64
}

var _ types.Policy = &Trainer{}

func NewTrainer(cfg Config, stateSize, numActions int, logger *zap.Logger) (*Trainer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if stateSize <= 0 || numActions <= 0 {
		return nil, fmt.Errorf("%w: state size %d, actions %d", ErrInvalidConfig, stateSize, numActions)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &Trainer{
		cfg:        cfg,
		stateSize:  stateSize,
		numActions: numActions,
		logger:     logger,
	}
	if err := t.build(); err != nil {
		return nil, err
	}
	return t, nil
}

// seedsPerRun is the number of random sources derived from the seed in every run
const seedsPerRun = 4

// RunSeed is the first seed used by the given run; run 0 starts at cfg.Seed
func RunSeed(cfg Config, run uint64) uint64 {
	return cfg.Seed + seedsPerRun*run
}

// build creates fresh approximators, buffer and exploration for the current run
func (t *Trainer) build() error {
	seed := RunSeed(t.cfg, t.run)
	policy, err := NewApproximator(t.cfg, t.stateSize, t.numActions, seed)
	if err != nil {
		return err
	}
	target, err := NewApproximator(t.cfg, t.stateSize, t.numActions, seed+1)
	if err != nil {
		return err
	}
	if err := target.SynchronizeFrom(policy); err != nil {
		return err
	}
	buffer, err := NewReplayBuffer(t.cfg.Capacity, seed+2)
	if err != nil {
		return err
	}
	t.policy = policy
	t.target = target
	t.buffer = buffer
	t.exploration = NewEpsilonGreedy(t.cfg.EpsStart, t.cfg.EpsEnd, t.cfg.EpsDecay, seed+3)
	t.optimizer = NewOptimizer(policy, target, t.cfg.Gamma, t.cfg.GradClip)
	t.losses = make([]float64, 0)
	return nil
}

func (t *Trainer) NextAction(_ int, state types.State) (int, error) {
	if len(state) != t.stateSize {
		return 0, fmt.Errorf("%w: state of size %d, expected %d", ErrInvalidConfig, len(state), t.stateSize)
	}
	return t.exploration.SelectAction(t.policy.Evaluate(state)), nil
}

// Update stores the transition and optimizes when a full batch is available
func (t *Trainer) Update(_ int, transition types.Transition) error {
	t.buffer.Push(transition)
	if t.buffer.Size() < t.cfg.BatchSize {
		return nil
	}
	batch, err := t.buffer.Sample(t.cfg.BatchSize)
	if err != nil {
		return err
	}
	loss, err := t.optimizer.Step(batch)
	if err != nil {
		t.logger.Error("optimization step failed", zap.Error(err), zap.Int("steps", t.exploration.Steps()))
		return err
	}
	t.losses = append(t.losses, loss)
	return nil
}

// UpdateIteration refreshes the target approximator on the configured cadence
func (t *Trainer) UpdateIteration(episode int, trace *types.Trace) error {
	if episode%t.cfg.TargetUpdate == 0 {
		if err := t.target.SynchronizeFrom(t.policy); err != nil {
			return err
		}
		t.logger.Debug("target synchronized", zap.Int("episode", episode))
	}
	if t.cfg.LogEvery > 0 && episode%t.cfg.LogEvery == 0 {
		t.logger.Info("episode finished",
			zap.Int("episode", episode),
			zap.Float64("reward", trace.TotalReward()),
			zap.Float64("epsilon", t.exploration.Threshold()),
			zap.Int("buffer", t.buffer.Size()),
			zap.Float64("loss", t.LastLoss()),
		)
	}
	return nil
}

// Reset discards the learnt parameters and starts the next run.
// The run's seeds follow from cfg.Seed so a sequence of runs is reproducible.
func (t *Trainer) Reset() {
	t.run++
	if err := t.build(); err != nil {
		t.logger.Error("failed to reset trainer", zap.Error(err))
	}
}

// Values is the policy approximator's estimate for every action in the state
func (t *Trainer) Values(state types.State) []float64 {
	return t.policy.Evaluate(state)
}

// TargetValues is the target approximator's estimate for every action in the state
func (t *Trainer) TargetValues(state types.State) []float64 {
	return t.target.Evaluate(state)
}

// BestAction is the greedy action for the state
func (t *Trainer) BestAction(state types.State) int {
	return floats.MaxIdx(t.policy.Evaluate(state))
}

// Run is the number of resets so far
func (t *Trainer) Run() uint64 { return t.run }

func (t *Trainer) StateSize() int { return t.stateSize }

func (t *Trainer) NumActions() int { return t.numActions }

// Steps is the number of actions selected across all episodes
func (t *Trainer) Steps() int { return t.exploration.Steps() }

func (t *Trainer) BufferSize() int { return t.buffer.Size() }

// Losses of every optimization step so far
func (t *Trainer) Losses() []float64 {
	out := make([]float64, len(t.losses))
	copy(out, t.losses)
	return out
}

func (t *Trainer) LastLoss() float64 {
	if len(t.losses) == 0 {
		return 0
	}
	return t.losses[len(t.losses)-1]
}

// Result of a training run
type Result struct {
	Simulator *pricing.Simulator
	Trainer   *Trainer
	Traces    []*types.Trace
}

// NewSimulator builds the market described by the config
func NewSimulator(cfg Config) (*pricing.Simulator, error) {
	return pricing.NewSimulator(cfg.Market, cfg.PriceGrid(), cfg.Horizon)
}

// Train builds the simulator and trainer from the config and runs every episode
func Train(ctx context.Context, cfg Config, logger *zap.Logger) (*Result, error) {
	sim, err := NewSimulator(cfg)
	if err != nil {
		return nil, err
	}
	trainer, err := NewTrainer(cfg, sim.StateSize(), sim.NumActions(), logger)
	if err != nil {
		return nil, err
	}
	agent := types.NewAgent(&types.AgentConfig{
		Episodes:    cfg.Episodes,
		Policy:      trainer,
		Environment: sim,
	})
	if err := agent.Run(ctx); err != nil {
		return nil, err
	}
	return &Result{
		Simulator: sim,
		Trainer:   trainer,
		Traces:    agent.Traces(),
	}, nil
}

// greedyPolicy acts on the learnt values without exploring or learning
type greedyPolicy struct {
	trainer *Trainer
}

func (g greedyPolicy) NextAction(_ int, state types.State) (int, error) {
	if len(state) != g.trainer.stateSize {
		return 0, fmt.Errorf("%w: state of size %d, expected %d", ErrInvalidConfig, len(state), g.trainer.stateSize)
	}
	return g.trainer.BestAction(state), nil
}

func (g greedyPolicy) Update(int, types.Transition) error { return nil }

func (g greedyPolicy) UpdateIteration(int, *types.Trace) error { return nil }

func (g greedyPolicy) Reset() {}

// Greedy is a frozen view of the trainer that always exploits
func (t *Trainer) Greedy() types.Policy {
	return greedyPolicy{trainer: t}
}

// Rollout plays one greedy episode against the environment
func (t *Trainer) Rollout(env types.Environment) (*types.Trace, error) {
	agent := types.NewAgent(&types.AgentConfig{
		Episodes:    1,
		Policy:      t.Greedy(),
		Environment: env,
	})
	return agent.RunEpisode(0)
}
