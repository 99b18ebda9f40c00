package dqn

import (
	"errors"
	"fmt"

	"github.com/zeu5/pricing-rl/pricing"
)

var (
	ErrInvalidConfig            = errors.New("invalid training configuration")
	ErrInsufficientData         = errors.New("insufficient data in replay buffer")
	ErrNonFiniteLoss            = errors.New("non-finite loss")
	ErrIncompatibleApproximator = errors.New("incompatible approximator")
)

// Config holds everything needed to build a training run
type Config struct {
	Horizon   int                  `mapstructure:"horizon"`
	PriceMin  float64              `mapstructure:"price_min"`
	PriceMax  float64              `mapstructure:"price_max"`
	PriceStep float64              `mapstructure:"price_step"`
	Prices    []float64            `mapstructure:"prices"` // overrides the min/max/step grid when set
	Market    pricing.MarketParams `mapstructure:"market"`

	Capacity     int     `mapstructure:"capacity"`
	BatchSize    int     `mapstructure:"batch_size"`
	Gamma        float64 `mapstructure:"gamma"`
	TargetUpdate int     `mapstructure:"target_update"`

	EpsStart float64 `mapstructure:"eps_start"`
	EpsEnd   float64 `mapstructure:"eps_end"`
	EpsDecay float64 `mapstructure:"eps_decay"`

	Episodes     int     `mapstructure:"episodes"`
	LearningRate float64 `mapstructure:"learning_rate"`
	GradClip     float64 `mapstructure:"grad_clip"`

	// Approximator is one of "mlp", "linear" or "tabular"
	Approximator string `mapstructure:"approximator"`
	Hidden       int    `mapstructure:"hidden"`

	Seed     uint64 `mapstructure:"seed"`
	LogEvery int    `mapstructure:"log_every"`
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		Horizon:   20,
		PriceMin:  10,
		PriceMax:  500,
		PriceStep: 10,
		Market:    pricing.DefaultMarketParams(),

		Capacity:     10000,
		BatchSize:    512,
		Gamma:        1.0,
		TargetUpdate: 20,

		EpsStart: 0.9,
		EpsEnd:   0.05,
		EpsDecay: 400,

		Episodes:     1000,
		LearningRate: 0.005,
		GradClip:     1.0,

		Approximator: "mlp",
		Hidden:       128,

		Seed:     1,
		LogEvery: 20,
	}
}

// PriceGrid is the list of prices the agent chooses from
func (c Config) PriceGrid() []float64 {
	if len(c.Prices) > 0 {
		out := make([]float64, len(c.Prices))
		copy(out, c.Prices)
		return out
	}
	return pricing.PriceGrid(c.PriceMin, c.PriceMax, c.PriceStep)
}

// Validate reports the first invalid parameter
func (c Config) Validate() error {
	switch {
	case c.Horizon <= 0:
		return fmt.Errorf("%w: horizon must be positive, got %d", ErrInvalidConfig, c.Horizon)
	case len(c.PriceGrid()) == 0:
		return fmt.Errorf("%w: empty price grid", ErrInvalidConfig)
	case c.Capacity <= 0:
		return fmt.Errorf("%w: capacity must be positive, got %d", ErrInvalidConfig, c.Capacity)
	case c.BatchSize <= 0:
		return fmt.Errorf("%w: batch size must be positive, got %d", ErrInvalidConfig, c.BatchSize)
	case c.BatchSize > c.Capacity:
		return fmt.Errorf("%w: batch size %d exceeds capacity %d", ErrInvalidConfig, c.BatchSize, c.Capacity)
	case c.TargetUpdate <= 0:
		return fmt.Errorf("%w: target update period must be positive, got %d", ErrInvalidConfig, c.TargetUpdate)
	case c.Gamma < 0 || c.Gamma > 1:
		return fmt.Errorf("%w: gamma must be in [0, 1], got %f", ErrInvalidConfig, c.Gamma)
	case c.EpsDecay <= 0:
		return fmt.Errorf("%w: epsilon decay must be positive, got %f", ErrInvalidConfig, c.EpsDecay)
	case c.EpsStart < 0 || c.EpsStart > 1 || c.EpsEnd < 0 || c.EpsEnd > 1:
		return fmt.Errorf("%w: epsilon bounds must be in [0, 1]", ErrInvalidConfig)
	case c.Episodes < 0:
		return fmt.Errorf("%w: episodes must not be negative, got %d", ErrInvalidConfig, c.Episodes)
	case c.LearningRate <= 0:
		return fmt.Errorf("%w: learning rate must be positive, got %f", ErrInvalidConfig, c.LearningRate)
	case c.GradClip <= 0:
		return fmt.Errorf("%w: gradient clip must be positive, got %f", ErrInvalidConfig, c.GradClip)
	}
	grid := c.PriceGrid()
	for i := 1; i < len(grid); i++ {
		if grid[i] <= grid[i-1] {
			return fmt.Errorf("%w: price grid must be strictly ascending at index %d", ErrInvalidConfig, i)
		}
	}
	switch c.Approximator {
	case "mlp":
		if c.Hidden <= 0 {
			return fmt.Errorf("%w: hidden width must be positive, got %d", ErrInvalidConfig, c.Hidden)
		}
	case "linear", "tabular":
	default:
		return fmt.Errorf("%w: unknown approximator %q", ErrInvalidConfig, c.Approximator)
	}
	return nil
}
