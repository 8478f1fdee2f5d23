package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/sp2yt/internal/models"
	"github.com/desertthunder/sp2yt/internal/shared"
)

// ErrRunNotFound is returned when no live run matches an ID or prefix.
var ErrRunNotFound = errors.New("transfer run not found")

const runColumns = `
	id, sequence, source_service, source_playlist_id, source_name,
	target_service, target_name, target_playlist_id, status, dry_run,
	tracks_total, tracks_matched, tracks_unmatched, error_message,
	started_at, completed_at, created_at, updated_at, deleted_at
`

// TransferRunRepository implements models.Repository[*models.TransferRun] for run history.
//
// Handles run CRUD operations with soft delete support, plus the unmatched tracks of each run.
type TransferRunRepository struct {
	db *sql.DB
}

var _ models.Repository[*models.TransferRun] = (*TransferRunRepository)(nil)

// NewTransferRunRepository creates a new TransferRunRepository with the given database connection
func NewTransferRunRepository(db *sql.DB) *TransferRunRepository {
	return &TransferRunRepository{db: db}
}

// Create inserts a new run with a sequence number. An ID is generated unless the run already has one.
func (r *TransferRunRepository) Create(run *models.TransferRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "transfer_runs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}
	run.SetSequence(sequence)

	if run.ID() == "" {
		run.SetID(shared.GenerateID())
	}

	query := `
		INSERT INTO transfer_runs (
			id, sequence, source_service, source_playlist_id, source_name,
			target_service, target_name, target_playlist_id, status, dry_run,
			tracks_total, tracks_matched, tracks_unmatched, error_message,
			started_at, completed_at, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		run.ID(),
		run.Sequence(),
		run.SourceService(),
		run.SourcePlaylistID(),
		run.SourceName(),
		run.TargetService(),
		run.TargetName(),
		run.TargetPlaylistID(),
		string(run.Status()),
		run.DryRun(),
		run.TracksTotal(),
		run.TracksMatched(),
		run.TracksUnmatched(),
		run.ErrorMessage(),
		run.StartedAt(),
		run.CompletedAt(),
		run.CreatedAt(),
		run.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert transfer run: %w", err)
	}

	return nil
}

// Get retrieves a run by ID, excluding soft-deleted runs
func (r *TransferRunRepository) Get(id string) (*models.TransferRun, error) {
	query := `SELECT ` + runColumns + ` FROM transfer_runs WHERE id = ? AND deleted_at IS NULL`

	run, err := scanRun(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return run, err
}

// Find retrieves a run by its full ID or a unique ID prefix, as printed by history list.
func (r *TransferRunRepository) Find(idOrPrefix string) (*models.TransferRun, error) {
	idOrPrefix = strings.TrimSpace(idOrPrefix)
	if idOrPrefix == "" {
		return nil, fmt.Errorf("%w: run ID", shared.ErrMissingArgument)
	}

	run, err := r.Get(idOrPrefix)
	if err == nil {
		return run, nil
	}
	if !errors.Is(err, ErrRunNotFound) {
		return nil, err
	}

	query := `SELECT ` + runColumns + ` FROM transfer_runs WHERE id LIKE ? ESCAPE '\' AND deleted_at IS NULL LIMIT 2`
	runs, err := r.query(query, escapeLike(idOrPrefix)+"%")
	if err != nil {
		return nil, err
	}

	switch len(runs) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, idOrPrefix)
	case 1:
		return runs[0], nil
	default:
		return nil, fmt.Errorf("%w: run ID prefix %q is ambiguous", shared.ErrInvalidArgument, idOrPrefix)
	}
}

// Update modifies the mutable columns of an existing run
func (r *TransferRunRepository) Update(run *models.TransferRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	run.SetUpdatedAt(now)

	query := `
		UPDATE transfer_runs
		SET source_name = ?, target_playlist_id = ?, status = ?, dry_run = ?,
			tracks_total = ?, tracks_matched = ?, tracks_unmatched = ?,
			error_message = ?, completed_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		run.SourceName(),
		run.TargetPlaylistID(),
		string(run.Status()),
		run.DryRun(),
		run.TracksTotal(),
		run.TracksMatched(),
		run.TracksUnmatched(),
		run.ErrorMessage(),
		run.CompletedAt(),
		now,
		run.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update transfer run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, run.ID())
	}

	return nil
}

// Delete soft-deletes a run by ID
func (r *TransferRunRepository) Delete(id string) error {
	query := `
		UPDATE transfer_runs
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete transfer run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}

	return nil
}

// List retrieves runs newest first, excluding soft-deleted runs.
//
// Supported criteria: "status" (string), "source_playlist_id" (string) and "limit" (int).
func (r *TransferRunRepository) List(criteria map[string]any) ([]*models.TransferRun, error) {
	query := `SELECT ` + runColumns + ` FROM transfer_runs WHERE deleted_at IS NULL`
	args := []any{}

	if status, ok := criteria["status"].(string); ok && status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}

	if playlistID, ok := criteria["source_playlist_id"].(string); ok && playlistID != "" {
		query += " AND source_playlist_id = ?"
		args = append(args, playlistID)
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	return r.query(query, args...)
}

// AddUnmatched stores the unmatched tracks of a run, numbered from 1 in the order given.
func (r *TransferRunRepository) AddUnmatched(runID string, tracks []models.UnmatchedTrack) error {
	if len(tracks) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO unmatched_tracks (run_id, position, source_id, title, artist, album, duration_seconds, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare unmatched insert: %w", err)
	}
	defer stmt.Close()

	for i, u := range tracks {
		t := u.Track
		if _, err := stmt.Exec(runID, i+1, t.SourceID, t.Title, t.Artist, t.Album, t.DurationSeconds, u.Reason); err != nil {
			return fmt.Errorf("failed to insert unmatched track %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit unmatched tracks: %w", err)
	}
	return nil
}

// ListUnmatched returns the unmatched tracks of a run in position order.
func (r *TransferRunRepository) ListUnmatched(runID string) ([]models.UnmatchedRecord, error) {
	rows, err := r.db.Query(`
		SELECT run_id, position, source_id, title, artist, album, duration_seconds, reason
		FROM unmatched_tracks
		WHERE run_id = ?
		ORDER BY position ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query unmatched tracks: %w", err)
	}
	defer rows.Close()

	var records []models.UnmatchedRecord
	for rows.Next() {
		var rec models.UnmatchedRecord
		t := &rec.Track
		if err := rows.Scan(&rec.RunID, &rec.Position, &t.SourceID, &t.Title, &t.Artist, &t.Album, &t.DurationSeconds, &rec.Reason); err != nil {
			return nil, fmt.Errorf("failed to scan unmatched track: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return records, nil
}

func (r *TransferRunRepository) query(query string, args ...any) ([]*models.TransferRun, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transfer runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.TransferRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return runs, nil
}

// scanner is satisfied by both [sql.Row] and [sql.Rows]
type scanner interface {
	Scan(dest ...any) error
}

// scanRun scans a single row into a [models.TransferRun]. sql.ErrNoRows is returned unwrapped.
func scanRun(row scanner) (*models.TransferRun, error) {
	var (
		id               string
		sequence         int
		sourceService    string
		sourcePlaylistID string
		sourceName       string
		targetService    string
		targetName       string
		targetPlaylistID string
		status           string
		dryRun           bool
		tracksTotal      int
		tracksMatched    int
		tracksUnmatched  int
		errorMessage     string
		startedAt        time.Time
		completedAt      sql.NullTime
		createdAt        time.Time
		updatedAt        time.Time
		deletedAt        sql.NullTime
	)

	err := row.Scan(
		&id, &sequence, &sourceService, &sourcePlaylistID, &sourceName,
		&targetService, &targetName, &targetPlaylistID, &status, &dryRun,
		&tracksTotal, &tracksMatched, &tracksUnmatched, &errorMessage,
		&startedAt, &completedAt, &createdAt, &updatedAt, &deletedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan transfer run: %w", err)
	}

	run := models.NewTransferRun(sequence, sourceService, sourcePlaylistID, targetService, targetName)
	run.SetID(id)
	run.SetSourceName(sourceName)
	run.SetTargetPlaylistID(targetPlaylistID)
	run.SetDryRun(dryRun)
	run.SetCounts(tracksTotal, tracksMatched, tracksUnmatched)
	run.SetStartedAt(startedAt)
	run.SetCreatedAt(createdAt)
	run.SetUpdatedAt(updatedAt)

	var completed *time.Time
	if completedAt.Valid {
		completed = &completedAt.Time
	}
	run.Restore(models.RunStatus(status), errorMessage, completed)

	if deletedAt.Valid {
		run.SetDeletedAt(&deletedAt.Time)
	}

	return run, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
