package ui

import (
	"fmt"
	"strings"

	"github.com/desertthunder/sp2yt/internal/models"
	"github.com/desertthunder/sp2yt/internal/shared"
)

const rule = "═══════════════════════════════════════"

// Summary is the end-of-run view of a transfer.
type Summary struct {
	Source      string // Source playlist name
	Destination string // Destination playlist name
	URL         string // Destination playlist URL, empty when nothing was created
	Result      models.TransferResult
	Total       int
	Added       int
	DryRun      bool
	Skipped     string
	ReportPath  string
	Err         error
}

func (s Summary) title() string {
	switch {
	case s.Err != nil:
		return "Transfer Failed"
	case s.DryRun:
		return "Dry Run Complete"
	default:
		return "Transfer Complete!"
	}
}

// RenderSummary formats s with the palette p. A nil palette selects [DefaultPalette].
func RenderSummary(p *Palette, s Summary) string {
	if p == nil {
		p = DefaultPalette
	}

	var b strings.Builder
	line := func(str string) {
		b.WriteString(str)
		b.WriteString("\n")
	}

	line(rule)
	line(p.Title(s.title()))
	line(rule)

	line(p.Field("Source", fmt.Sprintf("%s (%d tracks)", s.Source, s.Total)))
	dest := s.Destination
	if s.URL != "" {
		dest = fmt.Sprintf("%s (%d tracks)", dest, s.Added)
	}
	line(p.Field("Destination", dest))
	if s.URL != "" {
		line(p.Field("URL", s.URL))
	}

	matched := len(s.Result.Matched)
	line(p.Field("Matched", fmt.Sprintf("%d/%d (%.1f%%)", matched, s.Total, s.Result.MatchPercentage())))

	if s.Skipped != "" {
		line(p.Warn("Playlist not created: " + s.Skipped))
	}
	if s.Err != nil {
		line(p.Err(s.Err.Error()))
	}

	if n := len(s.Result.Unmatched); n > 0 {
		b.WriteString("\n")
		line(p.Warn(fmt.Sprintf("Failed to match %d tracks:", n)))
		for _, u := range s.Result.Unmatched {
			line(fmt.Sprintf("  - %s [%s] %s", u.Track, shared.FormatDuration(u.Track.DurationSeconds), p.Help(u.Reason)))
		}
	} else if matched > 0 {
		line(p.OK("All tracks matched"))
	}

	if s.ReportPath != "" {
		b.WriteString("\n")
		line(p.Help("Report written to " + s.ReportPath))
	}
	return b.String()
}
