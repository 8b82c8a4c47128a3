package viz

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	Panel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444466")).
		Padding(0, 1)

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00ffff"))

	Subtle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666688"))

	StatusRunning = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00ff88"))

	StatusFrozen = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffaa00"))

	StatusFailed = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ff4444"))

	MetricValue = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00ccff")).
			Bold(true)

	MetricLabel = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888899"))

	KeyHint = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666688")).
		Italic(true)

	barHigh = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff88"))
	barMid  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffcc00"))
	barLow  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444"))
)

// ProgressBar renders fraction (0..1) as a colored bar of width cells.
func ProgressBar(fraction float64, width int) string {
	filled := int(fraction * float64(width))
	filled = max(0, min(filled, width))

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	switch {
	case fraction > 0.8:
		return barHigh.Render(bar)
	case fraction > 0.4:
		return barMid.Render(bar)
	}
	return barLow.Render(bar)
}

// Metric renders "label value".
func Metric(label string, value any) string {
	return MetricLabel.Render(label) + " " + MetricValue.Render(fmt.Sprint(value))
}

// FormatVector prints a coordinate tuple with 4 decimals.
func FormatVector(v []float64) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = fmt.Sprintf("%.4f", x)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// SummaryData is what a finished run reports.
type SummaryData struct {
	Title        string
	ID           string
	Seed         int64
	Walkers      int
	Snapshots    int
	MeanPosition []float64
	Variance     []float64
	Diffusion    []float64
	Elapsed      string
}

// Summary renders a run summary panel.
func Summary(s SummaryData) string {
	lines := []string{Title.Render(s.Title)}
	if s.ID != "" {
		lines = append(lines, Metric("run", s.ID))
	}
	lines = append(lines,
		Metric("seed", s.Seed),
		Metric("walkers", s.Walkers),
	)
	if s.Snapshots > 0 {
		lines = append(lines, Metric("snapshots", s.Snapshots))
	}
	if s.MeanPosition != nil {
		lines = append(lines, Metric("mean", FormatVector(s.MeanPosition)))
	}
	if s.Variance != nil {
		lines = append(lines, Metric("variance", FormatVector(s.Variance)))
	}
	if s.Diffusion != nil {
		lines = append(lines, Metric("D_eff", FormatVector(s.Diffusion)))
	}
	if s.Elapsed != "" {
		lines = append(lines, Subtle.Render("took "+s.Elapsed))
	}
	return Panel.Render(strings.Join(lines, "\n"))
}
