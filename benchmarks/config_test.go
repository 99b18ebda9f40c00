package benchmarks

import (
	"context"
	"errors"
	"os"
	"path"
	"testing"

	"github.com/spf13/cobra"
	"github.com/zeu5/pricing-rl/dqn"
	"go.uber.org/zap"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	p := path.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(contents), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return p
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	def := dqn.DefaultConfig()
	if cfg.Horizon != def.Horizon || cfg.BatchSize != def.BatchSize || cfg.Market != def.Market {
		t.Errorf("expected the defaults, got %+v", cfg)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	p := writeConfig(t, `
horizon: 5
prices: [80, 90, 100]
batch_size: 32
approximator: linear
market:
  q0: 6000
`)
	cfg, err := LoadConfig(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Horizon != 5 || cfg.BatchSize != 32 || cfg.Approximator != "linear" {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if len(cfg.PriceGrid()) != 3 || cfg.PriceGrid()[2] != 100 {
		t.Errorf("unexpected grid %v", cfg.PriceGrid())
	}
	if cfg.Market.Q0 != 6000 || cfg.Market.K != dqn.DefaultConfig().Market.K {
		t.Errorf("market should merge with the defaults, got %+v", cfg.Market)
	}
	if cfg.Capacity != dqn.DefaultConfig().Capacity {
		t.Errorf("missing keys should keep their default, got capacity %d", cfg.Capacity)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(path.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Errorf("expected an error for a missing file")
	}
}

func TestApplyFlagsOnlyWhenSet(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().IntVar(&episodes, "episodes", 1000, "")
	cmd.Flags().IntVar(&horizon, "horizon", 20, "")
	cmd.Flags().Uint64Var(&seed, "seed", 1, "")
	if err := cmd.Flags().Parse([]string{"--episodes", "7"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg := dqn.DefaultConfig()
	cfg.Horizon = 5
	applyFlags(cmd, &cfg)
	if cfg.Episodes != 7 {
		t.Errorf("explicit flag should win, got %d episodes", cfg.Episodes)
	}
	if cfg.Horizon != 5 {
		t.Errorf("unset flag should not override, got horizon %d", cfg.Horizon)
	}
}

func smallConfig() dqn.Config {
	cfg := dqn.DefaultConfig()
	cfg.Horizon = 4
	cfg.Prices = []float64{80, 100, 120}
	cfg.Capacity = 32
	cfg.BatchSize = 4
	cfg.TargetUpdate = 2
	cfg.Episodes = 3
	cfg.Hidden = 8
	cfg.LogEvery = 0
	return cfg
}

func TestBaselines(t *testing.T) {
	results, err := Baselines(smallConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 strategies, got %d", len(results))
	}
	byName := make(map[string]BaselineResult)
	for _, r := range results {
		if len(r.Prices) != 4 {
			t.Errorf("%s: expected 4 prices, got %d", r.Name, len(r.Prices))
		}
		byName[r.Name] = r
	}
	if byName["constant"].Profit < byName["random"].Profit {
		t.Errorf("best constant price should not lose to random: %f < %f",
			byName["constant"].Profit, byName["random"].Profit)
	}
	if out := renderBaselines(results); out == "" {
		t.Errorf("empty baseline table")
	}
}

func TestBaselinesInvalidConfig(t *testing.T) {
	cfg := smallConfig()
	cfg.Horizon = 0
	if _, err := Baselines(cfg); err == nil {
		t.Errorf("expected an error for an invalid horizon")
	}
}

func TestCompareWritesResults(t *testing.T) {
	dir := t.TempDir()
	if err := Compare(context.Background(), smallConfig(), zap.NewNop(), 1, dir, "", true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, f := range []string{"0_rewards.png", "0_prices.png", "comparison_config.json", "traces/dqn_0.jsonl", "traces/random_0.jsonl"} {
		if _, err := os.Stat(path.Join(dir, f)); err != nil {
			t.Errorf("%s not written: %v", f, err)
		}
	}
}

func TestTrainDQNRecordsTraces(t *testing.T) {
	dir := t.TempDir()
	if err := TrainDQN(context.Background(), smallConfig(), zap.NewNop(), dir, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(path.Join(dir, "traces", "dqn.jsonl")); err != nil {
		t.Errorf("traces not recorded: %v", err)
	}
}

func TestTrainAndServeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := TrainAndServe(ctx, smallConfig(), zap.NewNop(), "127.0.0.1:0")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestProfilingWritesFiles(t *testing.T) {
	dir := t.TempDir()
	cpuprofile, memprofile = "cpu.prof", "mem.prof"
	defer func() { cpuprofile, memprofile = "", "" }()

	stop, err := startProfiling(dir, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := Baselines(smallConfig()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stop()
	for _, f := range []string{"cpu.prof", "mem.prof"} {
		if _, err := os.Stat(path.Join(dir, f)); err != nil {
			t.Errorf("%s not written: %v", f, err)
		}
	}
}
