// Package models defines the domain entities for the sp2yt playlist transfer tool.
//
// The package contains two categories of types:
//
// 1. Transfer values: short-lived structs produced and consumed during a single run
//   - [TrackDescriptor] : One source playlist entry (title, primary artist, duration)
//   - [CandidateMatch] : One destination search result under consideration
//   - [TransferResult] : Append-only matched and unmatched lists for a run
//
// 2. Persistent entities: database-backed records of past runs
//   - [TransferRun] : Summary of one transfer with status and totals
//   - [UnmatchedRecord] : Unmatched track stored alongside its run
//
// Persistent entities implement the [Model] interface; [Repository] defines standard access for them.
package models
