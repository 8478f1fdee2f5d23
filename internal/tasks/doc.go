// Package tasks orchestrates a playlist transfer between music services with real-time progress reporting.
//
// # Transfer
//
// [TransferEngine.Run] performs a full source → destination transfer:
//   - Fetches the source playlist in order
//   - Searches each track on the destination and picks the best candidate with a [matching.Matcher]
//   - Creates the destination playlist and adds the matched tracks in batches
//   - Returns per-track results, including the reason each unmatched track was skipped
//
// Tracks are resolved one at a time. A failed search only affects its own track.
//
// # Progress Reporting
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data.
// Updates use select with default to prevent blocking, so a slow reader only misses messages.
package tasks
