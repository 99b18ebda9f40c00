package types

import (
	"fmt"
	"path"
	"strconv"

	"github.com/zeu5/pricing-rl/util"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// RewardAnalyzer collects the cumulative reward of every episode
type RewardAnalyzer struct {
	rewards []float64
}

var _ Analyzer = &RewardAnalyzer{}

func NewRewardAnalyzer() *RewardAnalyzer {
	return &RewardAnalyzer{rewards: make([]float64, 0)}
}

func (r *RewardAnalyzer) Analyze(_ int, _ int, _ string, t *Trace) {
	r.rewards = append(r.rewards, t.TotalReward())
}

// DataSet is a []float64 indexed by episode
func (r *RewardAnalyzer) DataSet() DataSet {
	out := make([]float64, len(r.rewards))
	copy(out, r.rewards)
	return out
}

func (r *RewardAnalyzer) Reset() {
	r.rewards = make([]float64, 0)
}

// PriceAnalyzer keeps the price sequence of the last episode
type PriceAnalyzer struct {
	prices []float64
}

var _ Analyzer = &PriceAnalyzer{}

func NewPriceAnalyzer() *PriceAnalyzer {
	return &PriceAnalyzer{prices: make([]float64, 0)}
}

func (p *PriceAnalyzer) Analyze(_ int, _ int, _ string, t *Trace) {
	p.prices = t.Prices()
}

// DataSet is the []float64 of prices indexed by step
func (p *PriceAnalyzer) DataSet() DataSet {
	out := make([]float64, len(p.prices))
	copy(out, p.prices)
	return out
}

func (p *PriceAnalyzer) Reset() {
	p.prices = make([]float64, 0)
}

// MovingAverage smooths the series with a trailing window
func MovingAverage(values []float64, window int) []float64 {
	if window < 1 {
		window = 1
	}
	out := make([]float64, len(values))
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		n := window
		if i+1 < window {
			n = i + 1
		}
		out[i] = sum / float64(n)
	}
	return out
}

func linePlot(title, xLabel, yLabel string, names []string, series [][]float64, savePath string) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	for i := 0; i < len(names); i++ {
		points := make(plotter.XYs, len(series[i]))
		for j, v := range series[i] {
			points[j] = plotter.XY{
				X: float64(j),
				Y: v,
			}
		}
		line, err := plotter.NewLine(points)
		if err != nil {
			continue
		}
		line.Color = plotutil.Color(i)
		p.Add(line)
		p.Legend.Add(names[i], line)
	}
	return p.Save(8*vg.Inch, 8*vg.Inch, savePath)
}

// RewardPlotter plots the (smoothed) reward curve of each experiment
func RewardPlotter(plotPath string, window int) Comparator {
	if err := util.EnsureDir(plotPath); err != nil {
		fmt.Printf("failed to create plot directory: %s\n", err)
	}
	return func(run int, names []string, ds []DataSet) {
		series := make([][]float64, len(names))
		for i := range names {
			series[i] = MovingAverage(ds[i].([]float64), window)
		}
		savePath := path.Join(plotPath, strconv.Itoa(run)+"_rewards.png")
		if err := linePlot("Return", "Episode", "Profit", names, series, savePath); err != nil {
			fmt.Printf("failed to save reward plot: %s\n", err)
		}
	}
}

// PricePlotter plots the last price sequence of each experiment
func PricePlotter(plotPath string) Comparator {
	if err := util.EnsureDir(plotPath); err != nil {
		fmt.Printf("failed to create plot directory: %s\n", err)
	}
	return func(run int, names []string, ds []DataSet) {
		series := make([][]float64, len(names))
		for i := range names {
			series[i] = ds[i].([]float64)
		}
		savePath := path.Join(plotPath, strconv.Itoa(run)+"_prices.png")
		if err := linePlot("Price schedule", "Step", "Price", names, series, savePath); err != nil {
			fmt.Printf("failed to save price plot: %s\n", err)
		}
	}
}
