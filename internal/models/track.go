package models

import (
	"fmt"
	"strings"
)

// TrackDescriptor is the normalized representation of one source playlist entry.
type TrackDescriptor struct {
	SourceID        string   `json:"source_id,omitempty"`
	Title           string   `json:"title"`
	Artist          string   `json:"artist"` // Primary (first credited) artist
	Artists         []string `json:"artists,omitempty"`
	Album           string   `json:"album,omitempty"`
	DurationSeconds int      `json:"duration_seconds"`
}

// Query builds the destination search query for the track.
func (t TrackDescriptor) Query() string {
	return strings.TrimSpace(t.Title + " " + t.Artist)
}

// String renders the track as "Artist - Title".
func (t TrackDescriptor) String() string {
	if t.Artist == "" {
		return t.Title
	}
	return fmt.Sprintf("%s - %s", t.Artist, t.Title)
}

// CandidateMatch is one destination search result under consideration.
type CandidateMatch struct {
	DestinationID   string   `json:"destination_id"`
	Title           string   `json:"title"`
	Artist          string   `json:"artist"`
	Artists         []string `json:"artists,omitempty"`
	Album           string   `json:"album,omitempty"`
	DurationSeconds int      `json:"duration_seconds"`
	Score           float64  `json:"score"`
}

// SourcePlaylist is a fetched source playlist with its tracks in playlist order.
type SourcePlaylist struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Tracks      []TrackDescriptor `json:"tracks"`
}

// Playlist is a playlist created on the destination service.
type Playlist struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	TrackCount  int    `json:"track_count"`
	Public      bool   `json:"public"`
}

// MatchedTrack pairs a source track with the destination candidate chosen for it.
type MatchedTrack struct {
	Source TrackDescriptor `json:"source"`
	Match  CandidateMatch  `json:"match"`
}

// UnmatchedTrack records a source track that could not be matched and why.
type UnmatchedTrack struct {
	Track  TrackDescriptor `json:"track"`
	Reason string          `json:"reason"`
}

// TransferResult accumulates per-track outcomes across a run.
//
// Both lists are append-only and kept in source order.
type TransferResult struct {
	Matched   []MatchedTrack   `json:"matched"`
	Unmatched []UnmatchedTrack `json:"unmatched"`
}

// AddMatched appends a matched track.
func (r *TransferResult) AddMatched(src TrackDescriptor, c CandidateMatch) {
	r.Matched = append(r.Matched, MatchedTrack{Source: src, Match: c})
}

// AddUnmatched appends an unmatched track with its reason.
func (r *TransferResult) AddUnmatched(src TrackDescriptor, reason string) {
	r.Unmatched = append(r.Unmatched, UnmatchedTrack{Track: src, Reason: reason})
}

// IDs returns the destination track IDs of all matched tracks in source order.
func (r *TransferResult) IDs() []string {
	ids := make([]string, len(r.Matched))
	for i, m := range r.Matched {
		ids[i] = m.Match.DestinationID
	}
	return ids
}

// Total returns the number of tracks processed.
func (r *TransferResult) Total() int {
	return len(r.Matched) + len(r.Unmatched)
}

// MatchPercentage returns the matched share of processed tracks (0-100).
func (r *TransferResult) MatchPercentage() float64 {
	if r.Total() == 0 {
		return 0
	}
	return float64(len(r.Matched)) / float64(r.Total()) * 100
}
