// Package formatter renders transfer reports (run summary and unmatched tracks) as plain text, CSV or JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/sp2yt/internal/models"
	"github.com/desertthunder/sp2yt/internal/shared"
)

// Format is a report file format.
type Format string

const (
	FormatText Format = "txt"
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat maps a config or flag value to a Format. Empty selects [FormatText].
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "txt", "text":
		return FormatText, nil
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown report format %q", shared.ErrInvalidArgument, s)
	}
}

// Ext returns the file extension for the format, including the dot.
func (f Format) Ext() string {
	return "." + string(f)
}

// Report is the log artifact of one transfer run.
type Report struct {
	RunID       string                  `json:"run_id"`
	Source      string                  `json:"source"`
	SourceID    string                  `json:"source_playlist_id"`
	SourceName  string                  `json:"source_playlist_name"`
	Destination string                  `json:"destination"`
	TargetName  string                  `json:"target_playlist_name"`
	PlaylistID  string                  `json:"target_playlist_id,omitempty"`
	PlaylistURL string                  `json:"target_playlist_url,omitempty"`
	DryRun      bool                    `json:"dry_run"`
	Skipped     string                  `json:"skipped,omitempty"`
	Error       string                  `json:"error,omitempty"`
	Total       int                     `json:"tracks_total"`
	Matched     int                     `json:"tracks_matched"`
	Added       int                     `json:"tracks_added"`
	StartedAt   time.Time               `json:"started_at"`
	FinishedAt  time.Time               `json:"finished_at"`
	Unmatched   []models.UnmatchedTrack `json:"unmatched"`
}

// Status returns a one word summary of how the run ended.
func (r *Report) Status() string {
	switch {
	case r.Error != "":
		return "failed"
	case r.Skipped != "":
		return "skipped"
	default:
		return "completed"
	}
}

// ExportToText renders the run summary followed by one numbered line per unmatched track
func ExportToText(r *Report) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Run: %s\n", r.RunID)
	fmt.Fprintf(&buf, "Source: %s playlist %q (%s)\n", r.Source, r.SourceName, r.SourceID)
	fmt.Fprintf(&buf, "Destination: %s playlist %q", r.Destination, r.TargetName)
	if r.PlaylistID != "" {
		fmt.Fprintf(&buf, " (%s)", r.PlaylistID)
	}
	buf.WriteString("\n")
	if r.PlaylistURL != "" {
		fmt.Fprintf(&buf, "URL: %s\n", r.PlaylistURL)
	}
	fmt.Fprintf(&buf, "Status: %s\n", r.Status())
	if r.DryRun {
		buf.WriteString("Dry run: yes\n")
	}
	if r.Skipped != "" {
		fmt.Fprintf(&buf, "Skipped: %s\n", r.Skipped)
	}
	if r.Error != "" {
		fmt.Fprintf(&buf, "Error: %s\n", r.Error)
	}
	fmt.Fprintf(&buf, "Started: %s\n", r.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(&buf, "Finished: %s\n", r.FinishedAt.Format(time.RFC3339))
	fmt.Fprintf(&buf, "Tracks: %d total, %d matched, %d unmatched, %d added\n\n", r.Total, r.Matched, len(r.Unmatched), r.Added)

	if len(r.Unmatched) == 0 {
		buf.WriteString("All tracks matched.\n")
		return buf.Bytes(), nil
	}

	buf.WriteString("Unmatched tracks:\n")
	for i, u := range r.Unmatched {
		fmt.Fprintf(&buf, "%d. %s [%s]: %s\n", i+1, u.Track, shared.FormatDuration(u.Track.DurationSeconds), u.Reason)
	}
	return buf.Bytes(), nil
}

// ExportToCSV converts the unmatched tracks to CSV format with columns: Position, Title, Artist, Album, Duration, Reason
//
// The run summary is not part of the CSV output.
func ExportToCSV(r *Report) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Position", "Title", "Artist", "Album", "Duration", "Reason"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, u := range r.Unmatched {
		record := []string{
			strconv.Itoa(i + 1),
			u.Track.Title,
			u.Track.Artist,
			u.Track.Album,
			strconv.Itoa(u.Track.DurationSeconds),
			u.Reason,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToJSON renders the whole report as indented JSON.
func ExportToJSON(r *Report) ([]byte, error) {
	if r.Unmatched == nil {
		cp := *r
		cp.Unmatched = []models.UnmatchedTrack{}
		r = &cp
	}
	data, err := shared.MarshalJSON(r, true)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}
	return append(data, '\n'), nil
}

// Render encodes the report in the given format.
func Render(r *Report, f Format) ([]byte, error) {
	switch f {
	case FormatText, "":
		return ExportToText(r)
	case FormatCSV:
		return ExportToCSV(r)
	case FormatJSON:
		return ExportToJSON(r)
	default:
		return nil, fmt.Errorf("%w: unknown report format %q", shared.ErrInvalidArgument, f)
	}
}

// DefaultReportPath returns unmatched_<short run id><ext> inside dir.
func DefaultReportPath(dir, runID string, f Format) string {
	if f == "" {
		f = FormatText
	}
	return filepath.Join(shared.ExpandHome(dir), "unmatched_"+shared.ShortID(runID)+f.Ext())
}

// WriteReport writes the report to path, creating parent directories.
//
// Returns the path written.
func WriteReport(r *Report, path string, f Format) (string, error) {
	data, err := Render(r, f)
	if err != nil {
		return "", err
	}

	path = shared.ExpandHome(path)
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create report directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report file: %w", err)
	}
	return path, nil
}
