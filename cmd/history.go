package main

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/sp2yt/internal/models"
	"github.com/desertthunder/sp2yt/internal/repositories"
	"github.com/desertthunder/sp2yt/internal/shared"
)

// runView is the JSON shape of a stored run.
type runView struct {
	ID               string           `json:"id"`
	Sequence         int              `json:"sequence"`
	Status           models.RunStatus `json:"status"`
	DryRun           bool             `json:"dry_run"`
	SourceService    string           `json:"source_service"`
	SourcePlaylistID string           `json:"source_playlist_id"`
	SourceName       string           `json:"source_name,omitempty"`
	TargetService    string           `json:"target_service"`
	TargetName       string           `json:"target_name"`
	TargetPlaylistID string           `json:"target_playlist_id,omitempty"`
	TracksTotal      int              `json:"tracks_total"`
	TracksMatched    int              `json:"tracks_matched"`
	TracksUnmatched  int              `json:"tracks_unmatched"`
	Error            string           `json:"error,omitempty"`
	StartedAt        time.Time        `json:"started_at"`
	CompletedAt      *time.Time       `json:"completed_at,omitempty"`
	Unmatched        []unmatchedView  `json:"unmatched,omitempty"`
}

type unmatchedView struct {
	Position int                    `json:"position"`
	Track    models.TrackDescriptor `json:"track"`
	Reason   string                 `json:"reason"`
}

func viewOf(run *models.TransferRun) runView {
	return runView{
		ID:               run.ID(),
		Sequence:         run.Sequence(),
		Status:           run.Status(),
		DryRun:           run.DryRun(),
		SourceService:    run.SourceService(),
		SourcePlaylistID: run.SourcePlaylistID(),
		SourceName:       run.SourceName(),
		TargetService:    run.TargetService(),
		TargetName:       run.TargetName(),
		TargetPlaylistID: run.TargetPlaylistID(),
		TracksTotal:      run.TracksTotal(),
		TracksMatched:    run.TracksMatched(),
		TracksUnmatched:  run.TracksUnmatched(),
		Error:            run.ErrorMessage(),
		StartedAt:        run.StartedAt(),
		CompletedAt:      run.CompletedAt(),
	}
}

// openRuns opens the history database named by the resolved config.
func (r *Runner) openRuns(cmd *cli.Command) (*repositories.TransferRunRepository, *sql.DB, error) {
	config, err := r.resolveConfig(cmd)
	if err != nil {
		return nil, nil, err
	}

	db, err := shared.OpenHistory(config.Database)
	if err != nil {
		return nil, nil, err
	}
	if db == nil {
		return nil, nil, fmt.Errorf("%w: database.path is empty, run history is disabled", shared.ErrMissingConfig)
	}
	return repositories.NewTransferRunRepository(db), db, nil
}

// HistoryList prints recent runs, newest first.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	repo, db, err := r.openRuns(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	criteria := map[string]any{"limit": int(cmd.Int("limit"))}
	if status := strings.TrimSpace(cmd.String("status")); status != "" {
		switch models.RunStatus(status) {
		case models.RunRunning, models.RunCompleted, models.RunFailed:
		default:
			return fmt.Errorf("%w: unknown status %q", shared.ErrInvalidArgument, status)
		}
		criteria["status"] = status
	}

	runs, err := repo.List(criteria)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if cmd.Bool("json") {
		views := make([]runView, 0, len(runs))
		for _, run := range runs {
			views = append(views, viewOf(run))
		}
		return r.writeJSON(views, true)
	}

	if len(runs) == 0 {
		return r.writePlain("No runs recorded yet.\n")
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "STARTED", "STATUS", "SOURCE", "TARGET", "MATCHED")
	for _, run := range runs {
		status := string(run.Status())
		if run.DryRun() {
			status += " (dry run)"
		}
		source := run.SourceName()
		if source == "" {
			source = run.SourcePlaylistID()
		}
		t.Row(
			shared.ShortID(run.ID()),
			run.StartedAt().Local().Format("2006-01-02 15:04"),
			status,
			source,
			run.TargetName(),
			strconv.Itoa(run.TracksMatched())+"/"+strconv.Itoa(run.TracksTotal()),
		)
	}
	return r.writePlain("%s\n", t.String())
}

// HistoryShow prints one run, found by ID or ID prefix, with its unmatched tracks.
func (r *Runner) HistoryShow(ctx context.Context, cmd *cli.Command) error {
	id := strings.TrimSpace(cmd.StringArg("run-id"))
	if id == "" {
		return fmt.Errorf("%w: run-id", shared.ErrMissingArgument)
	}

	repo, db, err := r.openRuns(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	run, err := repo.Find(id)
	if err != nil {
		return err
	}
	records, err := repo.ListUnmatched(run.ID())
	if err != nil {
		return fmt.Errorf("failed to load unmatched tracks: %w", err)
	}

	if cmd.Bool("json") {
		view := viewOf(run)
		for _, rec := range records {
			view.Unmatched = append(view.Unmatched, unmatchedView{Position: rec.Position, Track: rec.Track, Reason: rec.Reason})
		}
		return r.writeJSON(view, true)
	}

	p := r.palette
	lines := []string{
		p.Title(fmt.Sprintf("Run %s", run.ID())),
		p.Field("Status", string(run.Status())),
		p.Field("Source", fmt.Sprintf("%s %s %s", run.SourceService(), run.SourcePlaylistID(), run.SourceName())),
		p.Field("Target", fmt.Sprintf("%s %q", run.TargetService(), run.TargetName())),
		p.Field("Matched", fmt.Sprintf("%d/%d", run.TracksMatched(), run.TracksTotal())),
		p.Field("Started", run.StartedAt().Local().Format(time.RFC3339)),
	}
	if run.DryRun() {
		lines = append(lines, p.Field("Dry run", "yes"))
	}
	if id := run.TargetPlaylistID(); id != "" {
		lines = append(lines, p.Field("Playlist", id))
	}
	if at := run.CompletedAt(); at != nil {
		lines = append(lines, p.Field("Finished", at.Local().Format(time.RFC3339)))
	}
	if msg := run.ErrorMessage(); msg != "" {
		lines = append(lines, p.Err(msg))
	}

	if len(records) > 0 {
		lines = append(lines, "", p.Warn(fmt.Sprintf("Unmatched tracks (%d):", len(records))))
		for _, rec := range records {
			lines = append(lines, fmt.Sprintf("  %d. %s [%s] %s", rec.Position, rec.Track, shared.FormatDuration(rec.Track.DurationSeconds), p.Help(rec.Reason)))
		}
	}

	return r.writePlain("%s\n", strings.Join(lines, "\n"))
}
