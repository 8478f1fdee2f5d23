package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/sp2yt/internal/matching"
	"github.com/desertthunder/sp2yt/internal/models"
	"github.com/desertthunder/sp2yt/internal/services"
	"github.com/desertthunder/sp2yt/internal/shared"
)

const (
	DefaultSearchLimit = 5
	DefaultBatchSize   = 50
)

// TransferRequest describes a single playlist transfer.
type TransferRequest struct {
	SourceRef   string // Playlist URL, URI or ID on the source service
	TargetName  string // Name of the playlist to create
	Description string // Defaults to "Transferred from <source> playlist <name>"
	Public      bool
	DryRun      bool // Match only; never create or modify a playlist
}

// TransferRunResult contains all data from a transfer operation.
//
// It is returned alongside fatal errors too, holding whatever was resolved before the failure.
type TransferRunResult struct {
	Source     *models.SourcePlaylist // Fetched source playlist
	Playlist   *models.Playlist       // Created destination playlist, nil when creation was skipped or failed
	Result     models.TransferResult  // Per-track outcomes in source order
	Skipped    string                 // Why playlist creation was skipped, if it was
	Added      int                    // Track IDs successfully added to Playlist
	StartedAt  time.Time
	FinishedAt time.Time
}

// Engine transfers a playlist from a source to a destination service.
type Engine interface {
	Run(ctx context.Context, req TransferRequest, progress chan<- ProgressUpdate) (*TransferRunResult, error)
}

// Options configures a [TransferEngine]. Zero values select the defaults.
type Options struct {
	Matcher     *matching.Matcher
	SearchLimit int
	BatchSize   int
	SearchRate  float64 // Searches per second, 0 for unlimited
	Logger      *log.Logger
}

// TransferEngine implements [Engine] with a sequential search loop.
type TransferEngine struct {
	source      services.Source
	dest        services.Destination
	matcher     *matching.Matcher
	searchLimit int
	batchSize   int
	limiter     *rate.Limiter
	logger      *log.Logger
}

// NewTransferEngine creates a new TransferEngine with the provided services.
func NewTransferEngine(source services.Source, dest services.Destination, opts Options) *TransferEngine {
	e := &TransferEngine{
		source:      source,
		dest:        dest,
		matcher:     opts.Matcher,
		searchLimit: opts.SearchLimit,
		batchSize:   opts.BatchSize,
		logger:      opts.Logger,
	}
	if e.matcher == nil {
		e.matcher = matching.New(matching.DefaultConfig())
	}
	if e.searchLimit <= 0 {
		e.searchLimit = DefaultSearchLimit
	}
	if e.batchSize <= 0 {
		e.batchSize = DefaultBatchSize
	}
	if opts.SearchRate > 0 {
		e.limiter = rate.NewLimiter(rate.Limit(opts.SearchRate), 1)
	}
	if e.logger == nil {
		e.logger = log.New(io.Discard)
	}
	return e
}

// Run fetches the source playlist, matches every track on the destination
// and creates the destination playlist with the matched tracks.
//
// A failed search downgrades that one track to unmatched. Authentication
// failures, cancellation and playlist creation errors end the run; the
// partial result is returned with the error.
func (e *TransferEngine) Run(ctx context.Context, req TransferRequest, progress chan<- ProgressUpdate) (*TransferRunResult, error) {
	if req.SourceRef == "" {
		return nil, fmt.Errorf("%w: source playlist", shared.ErrMissingArgument)
	}
	if req.TargetName == "" && !req.DryRun {
		return nil, fmt.Errorf("%w: destination playlist name", shared.ErrMissingArgument)
	}

	result := &TransferRunResult{StartedAt: time.Now()}
	defer func() { result.FinishedAt = time.Now() }()

	if err := e.source.Authenticate(ctx); err != nil {
		return result, fmt.Errorf("%s authentication failed: %w", e.source.Name(), err)
	}
	if err := e.dest.Authenticate(ctx); err != nil {
		return result, fmt.Errorf("%s authentication failed: %w", e.dest.Name(), err)
	}

	sendProgress(progress, fetchingSourceUpdate(e.source.Name()))
	source, err := e.source.FetchPlaylist(ctx, req.SourceRef)
	if err != nil {
		return result, fmt.Errorf("failed to fetch source playlist: %w", err)
	}
	result.Source = source
	sendProgress(progress, foundPlaylistUpdate(source))
	e.logger.Info("fetched source playlist", "name", source.Name, "tracks", len(source.Tracks))

	if err := e.matchTracks(ctx, source.Tracks, &result.Result, progress); err != nil {
		return result, err
	}

	matched, total := len(result.Result.Matched), len(source.Tracks)
	e.logger.Info("matching finished", "matched", matched, "unmatched", total-matched)

	switch {
	case req.DryRun:
		result.Skipped = "dry run"
		return result, nil
	case matched == 0:
		result.Skipped = "no tracks matched"
		e.logger.Warn("no tracks matched, skipping playlist creation", "tracks", total)
		return result, nil
	}

	description := req.Description
	if description == "" {
		description = fmt.Sprintf("Transferred from %s playlist %s", e.source.Name(), source.Name)
	}

	sendProgress(progress, createDestinationUpdate(e.dest.Name()))
	playlist, err := e.dest.CreatePlaylist(ctx, req.TargetName, description, req.Public)
	if err != nil {
		return result, fmt.Errorf("%w: %w", shared.ErrPlaylistCreation, err)
	}
	result.Playlist = playlist
	sendProgress(progress, createPlaylistUpdate(playlist))
	e.logger.Info("created playlist", "id", playlist.ID, "name", playlist.Name)

	if err := e.addTracks(ctx, result, progress); err != nil {
		return result, err
	}
	return result, nil
}

// matchTracks resolves each track, in order, before moving to the next.
func (e *TransferEngine) matchTracks(ctx context.Context, tracks []models.TrackDescriptor, out *models.TransferResult, progress chan<- ProgressUpdate) error {
	total := len(tracks)
	for i, track := range tracks {
		step := i + 1
		if err := ctx.Err(); err != nil {
			return err
		}
		if e.limiter != nil {
			if err := e.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		sendProgress(progress, searchTrackUpdate(step, total, track))
		candidates, err := e.dest.Search(ctx, track.Query(), e.searchLimit)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if errors.Is(err, shared.ErrAuthFailed) {
				return fmt.Errorf("%s search for %q: %w", e.dest.Name(), track.Query(), err)
			}
			searchErr := fmt.Errorf("%w: %v", shared.ErrSearchFailed, err)
			out.AddUnmatched(track, searchErr.Error())
			e.logger.Warn("search failed", "track", track.String(), "err", err)
			sendProgress(progress, unmatchedTrackUpdate(step, total, out.Unmatched[len(out.Unmatched)-1]))
			continue
		}

		best := e.matcher.Best(track, candidates)
		if !best.Matched {
			out.AddUnmatched(track, best.Reason)
			e.logger.Warn("no match", "track", track.String(), "reason", best.Reason)
			sendProgress(progress, unmatchedTrackUpdate(step, total, out.Unmatched[len(out.Unmatched)-1]))
			continue
		}

		out.AddMatched(track, best.Match)
		e.logger.Info("matched", "track", track.String(), "id", best.Match.DestinationID, "score", fmt.Sprintf("%.2f", best.Match.Score))
		sendProgress(progress, matchedTrackUpdate(step, total, out.Matched[len(out.Matched)-1]))
	}
	return nil
}

// addTracks inserts the matched IDs in batches of at most batchSize.
func (e *TransferEngine) addTracks(ctx context.Context, result *TransferRunResult, progress chan<- ProgressUpdate) error {
	ids := result.Result.IDs()
	for start := 0; start < len(ids); start += e.batchSize {
		end := min(start+e.batchSize, len(ids))
		if err := e.dest.AddItems(ctx, result.Playlist.ID, ids[start:end]); err != nil {
			return fmt.Errorf("%w: adding tracks %d-%d: %w", shared.ErrPlaylistCreation, start+1, end, err)
		}
		result.Added = end
		result.Playlist.TrackCount = end
		sendProgress(progress, addTracksUpdate(end, len(ids)))
		e.logger.Debug("added batch", "from", start+1, "to", end)
	}
	return nil
}

// sendProgress sends a progress update without blocking.
func sendProgress(ch chan<- ProgressUpdate, update ProgressUpdate) {
	if ch == nil {
		return
	}
	select {
	case ch <- update:
	default:
	}
}
