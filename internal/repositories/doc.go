// Package repositories implements SQLite persistence for transfer run history.
//
// [TransferRunRepository] implements models.Repository for [models.TransferRun] and stores the
// unmatched tracks of each run alongside it. Runs are soft deleted via deleted_at and excluded
// from queries once deleted.
//
// Sequence numbers order runs independently of their UUIDs and clock skew.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
