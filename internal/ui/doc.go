// Package ui renders command output with lipgloss styles.
//
// [Palette] holds the named styles; [RenderSummary] formats the end-of-run report shown after a transfer.
// [ProgressBar] draws the search and add progress lines.
package ui
