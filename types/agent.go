package types

import (
	"context"
	"fmt"
)

type AgentConfig struct {
	Episodes    int
	Policy      Policy
	Environment Environment
}

// ActionPricer is implemented by environments whose actions map to a price
type ActionPricer interface {
	Price(int) float64
}

// RL Agent configured with the corresponding
// policy and environment
type Agent struct {
	config *AgentConfig
	// collects the traces of the run
	// Only populated if the Run function is invoked
	traces      []*Trace
	policy      Policy
	environment Environment
}

// Instantiates a new Agent
func NewAgent(config *AgentConfig) *Agent {
	return &Agent{
		config:      config,
		traces:      make([]*Trace, 0, config.Episodes),
		policy:      config.Policy,
		environment: config.Environment,
	}
}

// Run the agent for the specified number of episodes.
// The context is only checked between episodes.
func (a *Agent) Run(ctx context.Context) error {
	for i := 0; i < a.config.Episodes; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		trace, err := a.RunEpisode(i)
		if err != nil {
			return err
		}
		a.traces = append(a.traces, trace)
	}
	return nil
}

// Traces of the episodes executed so far
func (a *Agent) Traces() []*Trace {
	return a.traces
}

// RunEpisode runs a single episode over the full horizon and returns the resulting trace.
// The transition of the last step is stored without a successor,
// the live state still advances to the computed one.
func (a *Agent) RunEpisode(episode int) (*Trace, error) {
	state := a.environment.Reset()
	trace := NewTrace()
	horizon := a.environment.Horizon()
	pricer, hasPrices := a.environment.(ActionPricer)

	for i := 0; i < horizon; i++ {
		action, err := a.policy.NextAction(i, state)
		if err != nil {
			return nil, fmt.Errorf("episode %d step %d: %w", episode, i, err)
		}
		nextState, reward, err := a.environment.Step(i, state, action)
		if err != nil {
			return nil, fmt.Errorf("episode %d step %d: %w", episode, i, err)
		}

		stored := nextState.Copy()
		if i == horizon-1 {
			stored = nil
		}
		transition := Transition{
			State:     state.Copy(),
			Action:    action,
			NextState: stored,
			Reward:    reward,
		}
		if err := a.policy.Update(i, transition); err != nil {
			return nil, fmt.Errorf("episode %d step %d: %w", episode, i, err)
		}

		price := float64(action)
		if hasPrices {
			price = pricer.Price(action)
		}
		// the trace keeps its own copies, the policy may hold on to the transition
		trace.Append(transition.State.Copy(), action, transition.NextState.Copy(), reward, price)
		state = nextState
	}
	if err := a.policy.UpdateIteration(episode, trace); err != nil {
		return nil, fmt.Errorf("episode %d: %w", episode, err)
	}

	return trace, nil
}
