// Package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/desertthunder/sp2yt/internal/models"
)

// MockSource is a test double for [services.Source]
type MockSource struct {
	Playlist *models.SourcePlaylist
	AuthErr  error
	FetchErr error

	Authenticated bool
	Refs          []string
}

func (m *MockSource) Authenticate(ctx context.Context) error {
	m.Authenticated = m.AuthErr == nil
	return m.AuthErr
}

func (m *MockSource) FetchPlaylist(ctx context.Context, ref string) (*models.SourcePlaylist, error) {
	m.Refs = append(m.Refs, ref)
	if m.FetchErr != nil {
		return nil, m.FetchErr
	}
	if m.Playlist == nil {
		return &models.SourcePlaylist{ID: ref}, nil
	}
	return m.Playlist, nil
}

func (m *MockSource) Name() string { return "mock-source" }

// MockDestination is a test double for [services.Destination].
//
// Search results and errors are keyed by query string.
type MockDestination struct {
	Results    map[string][]models.CandidateMatch
	SearchErrs map[string]error
	AuthErr    error
	CreateErr  error
	AddErr     error
	// FailAddOn makes only the nth AddItems call (1-based) return AddErr.
	FailAddOn int

	Queries  []string
	Created  []models.Playlist
	Batches  [][]string
	addCalls int
}

// NewMockDestination returns a MockDestination with empty result maps.
func NewMockDestination() *MockDestination {
	return &MockDestination{
		Results:    make(map[string][]models.CandidateMatch),
		SearchErrs: make(map[string]error),
	}
}

func (m *MockDestination) Authenticate(ctx context.Context) error { return m.AuthErr }

func (m *MockDestination) Search(ctx context.Context, query string, limit int) ([]models.CandidateMatch, error) {
	m.Queries = append(m.Queries, query)
	if err := m.SearchErrs[query]; err != nil {
		return nil, err
	}
	results := m.Results[query]
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (m *MockDestination) CreatePlaylist(ctx context.Context, name, description string, public bool) (*models.Playlist, error) {
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	p := models.Playlist{ID: fmt.Sprintf("PLmock%d", len(m.Created)+1), Name: name, Description: description, Public: public}
	m.Created = append(m.Created, p)
	return &p, nil
}

func (m *MockDestination) AddItems(ctx context.Context, playlistID string, trackIDs []string) error {
	m.addCalls++
	if m.AddErr != nil && (m.FailAddOn == 0 || m.FailAddOn == m.addCalls) {
		return m.AddErr
	}
	m.Batches = append(m.Batches, append([]string(nil), trackIDs...))
	return nil
}

func (m *MockDestination) PlaylistURL(playlistID string) string {
	return "https://music.example.com/playlist?list=" + playlistID
}

func (m *MockDestination) Name() string { return "mock-destination" }

// Added returns every track ID added across all batches, in order.
func (m *MockDestination) Added() []string {
	var ids []string
	for _, b := range m.Batches {
		ids = append(ids, b...)
	}
	return ids
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

var _ io.ReadCloser = (*FCloser)(nil)

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

func MustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to write file %s: %v", path, err)
	}
}
