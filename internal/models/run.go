package models

import (
	"fmt"
	"time"
)

// RunStatus is the terminal state of a transfer run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// TransferRun is a persisted summary of one playlist transfer.
type TransferRun struct {
	id               string
	sequence         int
	sourceService    string
	sourcePlaylistID string
	sourceName       string
	targetService    string
	targetName       string
	targetPlaylistID string
	status           RunStatus
	dryRun           bool
	tracksTotal      int
	tracksMatched    int
	tracksUnmatched  int
	errorMessage     string
	startedAt        time.Time
	completedAt      *time.Time
	createdAt        time.Time
	updatedAt        time.Time
	deletedAt        *time.Time
}

// NewTransferRun creates a running [TransferRun] for the given source and target.
func NewTransferRun(sequence int, sourceService, sourcePlaylistID, targetService, targetName string) *TransferRun {
	now := time.Now()
	return &TransferRun{
		sequence:         sequence,
		sourceService:    sourceService,
		sourcePlaylistID: sourcePlaylistID,
		targetService:    targetService,
		targetName:       targetName,
		status:           RunRunning,
		startedAt:        now,
		createdAt:        now,
		updatedAt:        now,
	}
}

func (r *TransferRun) ID() string { return r.id }
func (r *TransferRun) Sequence() int { return r.sequence }
func (r *TransferRun) SourceService() string { return r.sourceService }
func (r *TransferRun) SourcePlaylistID() string { return r.sourcePlaylistID }
func (r *TransferRun) SourceName() string { return r.sourceName }
func (r *TransferRun) TargetService() string { return r.targetService }
func (r *TransferRun) TargetName() string { return r.targetName }
func (r *TransferRun) TargetPlaylistID() string { return r.targetPlaylistID }
func (r *TransferRun) Status() RunStatus { return r.status }
func (r *TransferRun) DryRun() bool { return r.dryRun }
func (r *TransferRun) TracksTotal() int { return r.tracksTotal }
func (r *TransferRun) TracksMatched() int { return r.tracksMatched }
func (r *TransferRun) TracksUnmatched() int { return r.tracksUnmatched }
func (r *TransferRun) ErrorMessage() string { return r.errorMessage }
func (r *TransferRun) StartedAt() time.Time { return r.startedAt }
func (r *TransferRun) CompletedAt() *time.Time { return r.completedAt }
func (r *TransferRun) CreatedAt() time.Time { return r.createdAt }
func (r *TransferRun) UpdatedAt() time.Time { return r.updatedAt }
func (r *TransferRun) DeletedAt() *time.Time { return r.deletedAt }

func (r *TransferRun) SetID(id string) { r.id = id }
func (r *TransferRun) SetSequence(seq int) { r.sequence = seq }
func (r *TransferRun) SetSourceName(name string) { r.sourceName = name }
func (r *TransferRun) SetTargetPlaylistID(id string) { r.targetPlaylistID = id }
func (r *TransferRun) SetDryRun(dry bool) { r.dryRun = dry }
func (r *TransferRun) SetStartedAt(t time.Time) { r.startedAt = t }
func (r *TransferRun) SetCreatedAt(t time.Time) { r.createdAt = t }
func (r *TransferRun) SetUpdatedAt(t time.Time) { r.updatedAt = t }
func (r *TransferRun) SetDeletedAt(t *time.Time) { r.deletedAt = t }

// SetCounts records the per-track totals of the run.
func (r *TransferRun) SetCounts(total, matched, unmatched int) {
	r.tracksTotal = total
	r.tracksMatched = matched
	r.tracksUnmatched = unmatched
}

// Complete marks the run completed.
func (r *TransferRun) Complete(at time.Time) {
	r.status = RunCompleted
	r.errorMessage = ""
	r.completedAt = &at
}

// Fail marks the run failed with the given error.
func (r *TransferRun) Fail(at time.Time, err error) {
	r.status = RunFailed
	if err != nil {
		r.errorMessage = err.Error()
	}
	r.completedAt = &at
}

// Restore sets the state columns read back from storage.
func (r *TransferRun) Restore(status RunStatus, errorMessage string, completedAt *time.Time) {
	r.status = status
	r.errorMessage = errorMessage
	r.completedAt = completedAt
}

// Validate checks required fields and count consistency.
//
// Failed runs may stop before every track is resolved.
func (r *TransferRun) Validate() error {
	if r.sourceService == "" {
		return fmt.Errorf("source service is required")
	}
	if r.sourcePlaylistID == "" {
		return fmt.Errorf("source playlist ID is required")
	}
	if r.targetService == "" {
		return fmt.Errorf("target service is required")
	}
	switch r.status {
	case RunRunning, RunCompleted, RunFailed:
	default:
		return fmt.Errorf("invalid status: %s", r.status)
	}
	resolved := r.tracksMatched + r.tracksUnmatched
	if resolved > r.tracksTotal {
		return fmt.Errorf("matched (%d) + unmatched (%d) exceeds total (%d)", r.tracksMatched, r.tracksUnmatched, r.tracksTotal)
	}
	if r.status == RunCompleted && resolved != r.tracksTotal {
		return fmt.Errorf("completed run must resolve all %d tracks, resolved %d", r.tracksTotal, resolved)
	}
	return nil
}

// UnmatchedRecord is an unmatched track stored with the run it belongs to.
type UnmatchedRecord struct {
	RunID    string
	Position int
	Track    TrackDescriptor
	Reason   string
}
