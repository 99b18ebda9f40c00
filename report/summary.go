package report

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/zeu5/pricing-rl/types"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#9CA3AF")).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().
			Padding(0, 1)

	borderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#374151"))
)

// RewardStats summarizes the per episode rewards of one experiment
type RewardStats struct {
	Name string
	Mean float64
	Std  float64
	Best float64
	// mean over the last tenth of the episodes
	Final float64
}

// Summarize computes the statistics of the reward series
func Summarize(name string, rewards []float64) RewardStats {
	s := RewardStats{Name: name}
	if len(rewards) == 0 {
		return s
	}
	s.Mean, s.Std = stat.MeanStdDev(rewards, nil)
	if len(rewards) == 1 {
		s.Std = 0
	}
	s.Best = floats.Max(rewards)
	tail := len(rewards) / 10
	if tail == 0 {
		tail = 1
	}
	s.Final = stat.Mean(rewards[len(rewards)-tail:], nil)
	return s
}

// RenderSummary lays the statistics out as a table
func RenderSummary(run int, stats []RewardStats) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers("Experiment", "Mean", "Std", "Best", "Final").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == 0 {
				return headerStyle
			}
			return cellStyle
		})
	for _, s := range stats {
		t.Row(
			s.Name,
			fmt.Sprintf("%.2f", s.Mean),
			fmt.Sprintf("%.2f", s.Std),
			fmt.Sprintf("%.2f", s.Best),
			fmt.Sprintf("%.2f", s.Final),
		)
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(fmt.Sprintf("Run %d", run+1)),
		t.Render(),
	)
}

// SummaryComparator prints the reward statistics of every experiment.
// The datasets are expected to be the []float64 of a RewardAnalyzer or Store.
func SummaryComparator(w io.Writer) types.Comparator {
	return func(run int, names []string, ds []types.DataSet) {
		stats := make([]RewardStats, 0, len(names))
		for i, name := range names {
			rewards, ok := ds[i].([]float64)
			if !ok {
				continue
			}
			stats = append(stats, Summarize(name, rewards))
		}
		fmt.Fprintln(w, RenderSummary(run, stats))
	}
}
