package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/sp2yt/internal/formatter"
	"github.com/desertthunder/sp2yt/internal/matching"
	"github.com/desertthunder/sp2yt/internal/models"
	"github.com/desertthunder/sp2yt/internal/repositories"
	"github.com/desertthunder/sp2yt/internal/services"
	"github.com/desertthunder/sp2yt/internal/shared"
	"github.com/desertthunder/sp2yt/internal/tasks"
	"github.com/desertthunder/sp2yt/internal/ui"
)

const progressWidth = 20

// Transfer recreates the playlist given as the first argument under the name given as the second.
//
// The report and the history entry are written whether or not the run succeeds.
func (r *Runner) Transfer(ctx context.Context, cmd *cli.Command) error {
	args := cmd.Args()
	if args.Len() == 0 {
		return fmt.Errorf("%w: usage: %s %s", shared.ErrMissingArgument, cmd.Name, cmd.ArgsUsage)
	}
	if args.Len() > 2 {
		return fmt.Errorf("%w: expected 2 arguments, got %d (quote names containing spaces)", shared.ErrInvalidArgument, args.Len())
	}

	ref := strings.TrimSpace(args.Get(0))
	name := strings.TrimSpace(args.Get(1))
	dryRun := cmd.Bool("dry-run")
	if name == "" && !dryRun {
		return fmt.Errorf("%w: new playlist name", shared.ErrMissingArgument)
	}

	config, err := r.resolveConfig(cmd)
	if err != nil {
		return err
	}

	format, err := formatter.ParseFormat(firstNonEmpty(cmd.String("report-format"), config.Transfer.ReportFormat))
	if err != nil {
		return err
	}

	logger, closeLog, err := r.runLogger(firstNonEmpty(cmd.String("log-file"), config.Transfer.LogFile))
	if err != nil {
		return err
	}
	defer closeLog()

	source, err := r.sourceFor(config)
	if err != nil {
		return err
	}
	dest := r.destinationFor(config)

	run := r.startRun(config, source, dest, ref, name, dryRun, logger)
	logger = shared.WithLogger(logger, "run", shared.ShortID(run.id))
	logger.Info("starting transfer", "source", ref, "dest", name, "dry_run", dryRun)

	engine := tasks.NewTransferEngine(source, dest, tasks.Options{
		Matcher:     matching.New(matching.ConfigFrom(config.Matching)),
		SearchLimit: config.Matching.SearchLimit,
		BatchSize:   config.Transfer.BatchSize,
		SearchRate:  config.Matching.SearchRate,
		Logger:      logger,
	})

	req := tasks.TransferRequest{
		SourceRef:   ref,
		TargetName:  name,
		Description: firstNonEmpty(cmd.String("description"), config.Transfer.Description),
		Public:      cmd.Bool("public") || config.Transfer.Public,
		DryRun:      dryRun,
	}

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.printProgress(progressCh)
	}()

	result, runErr := engine.Run(ctx, req, progressCh)
	close(progressCh)
	<-done

	if result == nil {
		result = &tasks.TransferRunResult{FinishedAt: time.Now()}
	}

	run.finish(result, runErr)

	reportPath := ""
	if result.Source != nil {
		path := cmd.String("report")
		if path == "" {
			path = formatter.DefaultReportPath(config.Transfer.ReportDir, run.id, format)
		}
		report := buildReport(run.id, source, dest, req, result, runErr)
		if reportPath, err = formatter.WriteReport(report, path, format); err != nil {
			logger.Error("failed to write report", "path", path, "err", err)
			reportPath = ""
		} else {
			logger.Info("report written", "path", reportPath, "unmatched", len(result.Result.Unmatched))
		}
	}

	summary := ui.Summary{
		Destination: name,
		Result:      result.Result,
		Added:       result.Added,
		DryRun:      dryRun,
		Skipped:     result.Skipped,
		ReportPath:  reportPath,
		Err:         runErr,
	}
	if result.Source != nil {
		summary.Source = result.Source.Name
		summary.Total = len(result.Source.Tracks)
	}
	if result.Playlist != nil {
		summary.URL = dest.PlaylistURL(result.Playlist.ID)
	}
	r.writePlain("\n%s", ui.RenderSummary(r.palette, summary))

	if runErr != nil {
		return runErr
	}

	if cmd.Bool("open") && summary.URL != "" {
		if err := r.openBrowser(summary.URL); err != nil {
			logger.Warn("failed to open browser", "url", summary.URL, "err", err)
		}
	}
	return nil
}

// printProgress writes updates until ch is closed.
func (r *Runner) printProgress(ch <-chan tasks.ProgressUpdate) {
	bar := ui.NewProgressBar(progressWidth)
	for update := range ch {
		switch update.Phase {
		case tasks.FetchSource:
			r.writePlain("📥 %s\n", update.Message)
		case tasks.SearchTracks:
			// Only the outcome of each search is printed
			if update.Data != nil {
				r.writePlain("   %s %s\n", bar.Render(update.Step, update.Total), update.Message)
			}
		case tasks.CreatePlaylist:
			r.writePlain("\n📝 %s\n", update.Message)
		case tasks.AddTracks:
			r.writePlain("   %s %s\n", bar.Render(update.Step, update.Total), update.Message)
		}
	}
}

// runLogger returns the run logger, teeing to path when it is set.
func (r *Runner) runLogger(path string) (*log.Logger, func(), error) {
	if path == "" {
		return r.logger, func() {}, nil
	}

	f, err := shared.OpenLogFile(path)
	if err != nil {
		return nil, nil, err
	}

	logger := shared.NewLogger(io.MultiWriter(r.logOutput, f))
	logger.SetLevel(r.logger.GetLevel())
	return logger, func() { f.Close() }, nil
}

// historyRun tracks the history entry of one transfer. A nil repo records nothing.
type historyRun struct {
	id     string
	run    *models.TransferRun
	repo   *repositories.TransferRunRepository
	close  func()
	logger *log.Logger
}

func (r *Runner) startRun(config *shared.Config, source services.Source, dest services.Destination, ref, name string, dryRun bool, logger *log.Logger) *historyRun {
	playlistID := ref
	if id, err := services.ParsePlaylistID(ref); err == nil {
		playlistID = id
	}

	run := models.NewTransferRun(0, source.Name(), playlistID, dest.Name(), name)
	run.SetDryRun(dryRun)
	h := &historyRun{run: run, close: func() {}, logger: logger}

	db, err := shared.OpenHistory(config.Database)
	switch {
	case err != nil:
		logger.Warn("run history disabled", "err", err)
	case db != nil:
		repo := repositories.NewTransferRunRepository(db)
		if err := repo.Create(run); err != nil {
			logger.Warn("failed to record run", "err", err)
			db.Close()
		} else {
			h.repo = repo
			h.close = func() { db.Close() }
		}
	}

	if run.ID() == "" {
		run.SetID(shared.GenerateID())
	}
	h.id = run.ID()
	return h
}

func (h *historyRun) finish(result *tasks.TransferRunResult, runErr error) {
	defer h.close()
	if h.repo == nil {
		return
	}

	total := 0
	if result.Source != nil {
		total = len(result.Source.Tracks)
		h.run.SetSourceName(result.Source.Name)
	}
	if result.Playlist != nil {
		h.run.SetTargetPlaylistID(result.Playlist.ID)
	}
	h.run.SetCounts(total, len(result.Result.Matched), len(result.Result.Unmatched))

	if runErr != nil {
		h.run.Fail(result.FinishedAt, runErr)
	} else {
		h.run.Complete(result.FinishedAt)
	}

	if err := h.repo.Update(h.run); err != nil {
		h.logger.Warn("failed to update run history", "err", err)
		return
	}
	if err := h.repo.AddUnmatched(h.id, result.Result.Unmatched); err != nil {
		h.logger.Warn("failed to record unmatched tracks", "err", err)
	}
}

func buildReport(runID string, source services.Source, dest services.Destination, req tasks.TransferRequest, result *tasks.TransferRunResult, runErr error) *formatter.Report {
	report := &formatter.Report{
		RunID:       runID,
		Source:      source.Name(),
		SourceID:    req.SourceRef,
		Destination: dest.Name(),
		TargetName:  req.TargetName,
		DryRun:      req.DryRun,
		Skipped:     result.Skipped,
		Matched:     len(result.Result.Matched),
		Added:       result.Added,
		StartedAt:   result.StartedAt,
		FinishedAt:  result.FinishedAt,
		Unmatched:   result.Result.Unmatched,
	}
	if result.Source != nil {
		report.SourceID = result.Source.ID
		report.SourceName = result.Source.Name
		report.Total = len(result.Source.Tracks)
	}
	if result.Playlist != nil {
		report.PlaylistID = result.Playlist.ID
		report.PlaylistURL = dest.PlaylistURL(result.Playlist.ID)
	}
	if runErr != nil {
		report.Error = runErr.Error()
	}
	return report
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
