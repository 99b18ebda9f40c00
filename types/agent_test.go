package types

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path"
	"strings"
	"testing"
)

// counterEnv counts the steps taken; the reward is the action
type counterEnv struct {
	horizon int
}

func (c *counterEnv) Reset() State { return State{0} }

func (c *counterEnv) Step(_ int, s State, action int) (State, float64, error) {
	if action < 0 || action >= 3 {
		return nil, 0, errors.New("bad action")
	}
	return State{s[0] + 1}, float64(action), nil
}

func (c *counterEnv) Horizon() int { return c.horizon }

func (c *counterEnv) NumActions() int { return 3 }

func (c *counterEnv) Price(a int) float64 { return float64(10 * (a + 1)) }

// recordingPolicy always picks the same action and keeps what it observes
type recordingPolicy struct {
	action      int
	states      []State
	transitions []Transition
	episodes    []int
	resets      int
}

func (r *recordingPolicy) NextAction(_ int, s State) (int, error) {
	r.states = append(r.states, s.Copy())
	return r.action, nil
}

func (r *recordingPolicy) Update(_ int, t Transition) error {
	r.transitions = append(r.transitions, t)
	return nil
}

func (r *recordingPolicy) UpdateIteration(e int, _ *Trace) error {
	r.episodes = append(r.episodes, e)
	return nil
}

func (r *recordingPolicy) Reset() { r.resets++ }

func TestAgentTerminalTransition(t *testing.T) {
	policy := &recordingPolicy{action: 1}
	agent := NewAgent(&AgentConfig{Episodes: 1, Policy: policy, Environment: &counterEnv{horizon: 4}})
	trace, err := agent.RunEpisode(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(policy.transitions) != 4 {
		t.Fatalf("expected 4 transitions, got %d", len(policy.transitions))
	}
	for i, tr := range policy.transitions {
		if tr.State[0] != float64(i) {
			t.Errorf("step %d: expected state %d, got %v", i, i, tr.State)
		}
		if i < 3 && (tr.Terminal() || tr.NextState[0] != float64(i+1)) {
			t.Errorf("step %d: expected successor %d, got %v", i, i+1, tr.NextState)
		}
	}
	if !policy.transitions[3].Terminal() {
		t.Errorf("last transition should be terminal")
	}
	// the live state keeps advancing even though no successor was stored
	for i, s := range policy.states {
		if s[0] != float64(i) {
			t.Errorf("step %d acted on state %v", i, s)
		}
	}
	last, ok := trace.Last()
	if !ok || !last.Terminal() {
		t.Errorf("trace should end with a terminal transition")
	}
	if len(policy.episodes) != 1 || policy.episodes[0] != 0 {
		t.Errorf("expected one end of episode call, got %v", policy.episodes)
	}
}

func TestAgentTraceDoesNotAliasTransitions(t *testing.T) {
	policy := &recordingPolicy{action: 1}
	agent := NewAgent(&AgentConfig{Episodes: 1, Policy: policy, Environment: &counterEnv{horizon: 2}})
	trace, err := agent.RunEpisode(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first, _ := trace.Get(0)
	first.State[0] = 42
	first.NextState[0] = 42
	if policy.transitions[0].State[0] != 0 || policy.transitions[0].NextState[0] != 1 {
		t.Errorf("changing the trace leaked into the stored transition: %+v", policy.transitions[0])
	}
}

func TestRandomPolicyRuns(t *testing.T) {
	draw := func(p *RandomPolicy) []int {
		out := make([]int, 20)
		for i := range out {
			out[i], _ = p.NextAction(i, nil)
		}
		return out
	}
	equal := func(a, b []int) bool {
		for i := range a {
			if a[i] != b[i] {
				return false
			}
		}
		return true
	}
	a, b := NewRandomPolicy(10, 5), NewRandomPolicy(10, 5)
	a0, b0 := draw(a), draw(b)
	if !equal(a0, b0) {
		t.Errorf("same seed gave different actions")
	}
	a.Reset()
	b.Reset()
	a1, b1 := draw(a), draw(b)
	if !equal(a1, b1) {
		t.Errorf("second run is not reproducible")
	}
	if equal(a0, a1) {
		t.Errorf("second run repeated the first: %v", a1)
	}
}

func TestAgentTracePrices(t *testing.T) {
	agent := NewAgent(&AgentConfig{Episodes: 1, Policy: &recordingPolicy{action: 2}, Environment: &counterEnv{horizon: 3}})
	trace, err := agent.RunEpisode(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, p := range trace.Prices() {
		if p != 30 {
			t.Errorf("expected price 30, got %f", p)
		}
	}
	if trace.TotalReward() != 6 {
		t.Errorf("expected total reward 6, got %f", trace.TotalReward())
	}
}

func TestAgentRun(t *testing.T) {
	policy := &recordingPolicy{action: 0}
	agent := NewAgent(&AgentConfig{Episodes: 5, Policy: policy, Environment: &counterEnv{horizon: 2}})
	if err := agent.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(agent.Traces()) != 5 {
		t.Errorf("expected 5 traces, got %d", len(agent.Traces()))
	}
	for i, e := range policy.episodes {
		if e != i {
			t.Errorf("expected episode %d, got %d", i, e)
		}
	}
}

func TestAgentRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	agent := NewAgent(&AgentConfig{Episodes: 5, Policy: &recordingPolicy{}, Environment: &counterEnv{horizon: 2}})
	if err := agent.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if len(agent.Traces()) != 0 {
		t.Errorf("no episode should have run")
	}
}

func TestAgentStepError(t *testing.T) {
	agent := NewAgent(&AgentConfig{Episodes: 1, Policy: &recordingPolicy{action: 7}, Environment: &counterEnv{horizon: 2}})
	_, err := agent.RunEpisode(3)
	if err == nil || !strings.Contains(err.Error(), "episode 3 step 0") {
		t.Errorf("expected wrapped step error, got %v", err)
	}
}

func TestMovingAverage(t *testing.T) {
	got := MovingAverage([]float64{2, 4, 6, 8}, 2)
	want := []float64{2, 3, 5, 7}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: expected %f, got %f", i, want[i], got[i])
		}
	}
	if got := MovingAverage([]float64{1, 2}, 0); got[1] != 2 {
		t.Errorf("window below one should leave the series unchanged, got %v", got)
	}
}

func TestComparisonRecordsTraces(t *testing.T) {
	dir := t.TempDir()
	comparison := NewComparison(&ComparisonConfig{
		Runs:         2,
		Episodes:     3,
		RecordPath:   dir,
		RecordTraces: true,
	})
	policy := &recordingPolicy{action: 1}
	comparison.AddExperiment(NewExperiment("fixed", policy, &counterEnv{horizon: 2}))

	rewards := NewRewardAnalyzer()
	var seen [][]float64
	comparison.AddAnalysis("rewards", rewards, func(_ int, names []string, ds []DataSet) {
		if len(names) != 1 || names[0] != "fixed" {
			t.Errorf("unexpected experiment names %v", names)
		}
		seen = append(seen, ds[0].([]float64))
	})

	if err := comparison.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(seen) != 2 {
		t.Fatalf("expected the comparator to be called once per run, got %d", len(seen))
	}
	for _, rs := range seen {
		if len(rs) != 3 || rs[0] != 2 {
			t.Errorf("unexpected rewards %v", rs)
		}
	}
	if policy.resets != 2 {
		t.Errorf("expected the policy to be reset after each run, got %d", policy.resets)
	}

	bs, err := os.ReadFile(path.Join(dir, "traces", "fixed_0.jsonl"))
	if err != nil {
		t.Fatalf("traces not recorded: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(bs)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 recorded traces, got %d", len(lines))
	}
	var decoded struct {
		Actions     []int   `json:"actions"`
		TotalReward float64 `json:"total_reward"`
	}
	if err := json.Unmarshal([]byte(lines[0]), &decoded); err != nil {
		t.Fatalf("invalid trace json: %v", err)
	}
	if decoded.TotalReward != 2 || len(decoded.Actions) != 2 {
		t.Errorf("unexpected recorded trace %+v", decoded)
	}
	if _, err := os.Stat(path.Join(dir, "comparison_config.json")); err != nil {
		t.Errorf("comparison config not recorded: %v", err)
	}
}

func TestTraceRecord(t *testing.T) {
	trace := NewTrace()
	trace.Append(State{0}, 1, State{1}, 2.5, 100)
	trace.Append(State{1}, 0, nil, 1.5, 90)
	if _, ok := trace.Get(2); ok {
		t.Errorf("expected no transition past the end")
	}

	p := path.Join(t.TempDir(), "trace.json")
	if err := trace.Record(p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bs, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var decoded struct {
		Prices      []float64 `json:"prices"`
		TotalReward float64   `json:"total_reward"`
	}
	if err := json.Unmarshal(bs, &decoded); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if decoded.TotalReward != 4 || len(decoded.Prices) != 2 || decoded.Prices[1] != 90 {
		t.Errorf("unexpected recorded trace %+v", decoded)
	}
}
