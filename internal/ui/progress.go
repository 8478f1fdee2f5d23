package ui

import (
	"github.com/charmbracelet/bubbles/progress"
)

// ProgressBar draws a one-line completion bar for a transfer phase.
type ProgressBar struct {
	bar progress.Model
}

// NewProgressBar returns a bar width cells wide.
func NewProgressBar(width int) *ProgressBar {
	return &ProgressBar{
		bar: progress.New(
			progress.WithDefaultGradient(),
			progress.WithWidth(width),
			progress.WithoutPercentage(),
		),
	}
}

// Render draws the bar for step of total. Steps outside [0, total] are clamped
// and a non-positive total draws an empty bar.
func (b *ProgressBar) Render(step, total int) string {
	if total <= 0 {
		return b.bar.ViewAs(0)
	}
	step = min(max(step, 0), total)
	return b.bar.ViewAs(float64(step) / float64(total))
}
