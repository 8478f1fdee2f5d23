package testing

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// SpotifyTrack is a playlist entry served by [FakeSpotify].
type SpotifyTrack struct {
	ID         string
	Name       string
	Artists    []string
	Album      string
	DurationMS int
	Episode    bool
}

// SpotifyPlaylist is a playlist served by [FakeSpotify].
type SpotifyPlaylist struct {
	Name        string
	Description string
	Tracks      []SpotifyTrack
}

// FakeSpotify serves the accounts token endpoint and the playlist endpoints of the Web API.
type FakeSpotify struct {
	Server       *httptest.Server
	ClientID     string
	ClientSecret string
	Token        string
	PageSize     int
	// APIStatus, when set, is returned by every Web API request.
	APIStatus int
	// TokenStatus, when set, is returned by the token endpoint.
	TokenStatus int

	Playlists map[string]SpotifyPlaylist

	mu            sync.Mutex
	tokenRequests int
	pageRequests  int
}

// NewFakeSpotify starts a fake Spotify accepting the client "test-id"/"test-secret".
func NewFakeSpotify(t *testing.T) *FakeSpotify {
	t.Helper()
	f := &FakeSpotify{
		ClientID:     "test-id",
		ClientSecret: "test-secret",
		Token:        "test-token",
		PageSize:     100,
		Playlists:    make(map[string]SpotifyPlaylist),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/token", f.handleToken)
	mux.HandleFunc("/v1/playlists/", f.handlePlaylist)
	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Server.Close)
	return f
}

// TokenURL returns the fake token endpoint.
func (f *FakeSpotify) TokenURL() string { return f.Server.URL + "/api/token" }

// APIURL returns the fake Web API base URL.
func (f *FakeSpotify) APIURL() string { return f.Server.URL + "/v1/" }

// TokenRequests returns how many tokens were issued or refused.
func (f *FakeSpotify) TokenRequests() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tokenRequests
}

// PageRequests returns how many playlist item pages were served.
func (f *FakeSpotify) PageRequests() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pageRequests
}

func (f *FakeSpotify) handleToken(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.tokenRequests++
	f.mu.Unlock()

	if f.TokenStatus != 0 {
		writeJSON(w, f.TokenStatus, map[string]string{"error": "server_error"})
		return
	}

	id, secret, ok := r.BasicAuth()
	if !ok || id != f.ClientID || secret != f.ClientSecret {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error":             "invalid_client",
			"error_description": "Invalid client",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": f.Token,
		"token_type":   "bearer",
		"expires_in":   3600,
	})
}

func (f *FakeSpotify) handlePlaylist(w http.ResponseWriter, r *http.Request) {
	if f.APIStatus != 0 {
		spotifyError(w, f.APIStatus, http.StatusText(f.APIStatus))
		return
	}
	if r.Header.Get("Authorization") != "Bearer "+f.Token {
		spotifyError(w, http.StatusUnauthorized, "Invalid access token")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/v1/playlists/")
	id, sub, _ := strings.Cut(rest, "/")

	pl, ok := f.Playlists[id]
	if !ok {
		spotifyError(w, http.StatusNotFound, "Resource not found")
		return
	}

	switch sub {
	case "":
		writeJSON(w, http.StatusOK, map[string]any{
			"id":          id,
			"name":        pl.Name,
			"description": pl.Description,
		})
	case "tracks", "items":
		f.servePage(w, r, id, pl)
	default:
		spotifyError(w, http.StatusNotFound, "Service not found")
	}
}

func (f *FakeSpotify) servePage(w http.ResponseWriter, r *http.Request, id string, pl SpotifyPlaylist) {
	f.mu.Lock()
	f.pageRequests++
	f.mu.Unlock()

	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > f.PageSize {
		limit = f.PageSize
	}

	end := min(offset+limit, len(pl.Tracks))
	items := make([]map[string]any, 0, limit)
	for _, t := range pl.Tracks[min(offset, end):end] {
		items = append(items, map[string]any{
			"added_at": "2024-01-01T00:00:00Z",
			"is_local": false,
			"track":    trackObject(t),
		})
	}

	var next any
	if end < len(pl.Tracks) {
		next = fmt.Sprintf("%s%s?offset=%d&limit=%d", f.Server.URL, r.URL.Path, end, limit)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"href":   f.Server.URL + r.URL.Path,
		"items":  items,
		"limit":  limit,
		"offset": offset,
		"total":  len(pl.Tracks),
		"next":   next,
	})
}

func trackObject(t SpotifyTrack) map[string]any {
	if t.Episode {
		return map[string]any{
			"type":        "episode",
			"episode":     true,
			"track":       false,
			"id":          t.ID,
			"name":        t.Name,
			"duration_ms": t.DurationMS,
		}
	}

	artists := make([]map[string]any, len(t.Artists))
	for i, a := range t.Artists {
		artists[i] = map[string]any{"name": a, "id": fmt.Sprintf("artist%d", i)}
	}
	return map[string]any{
		"type":        "track",
		"episode":     false,
		"track":       true,
		"id":          t.ID,
		"name":        t.Name,
		"duration_ms": t.DurationMS,
		"artists":     artists,
		"album":       map[string]any{"name": t.Album},
	}
}

func spotifyError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{"status": status, "message": msg},
	})
}

// ProxySong is a search result served by [FakeProxy].
type ProxySong struct {
	VideoID         string
	Title           string
	Artists         []string
	Album           string
	DurationSeconds int
}

// FakeProxy imitates the ytmusicapi FastAPI proxy.
//
// Create and add requests are recorded; playlists get IDs PL1, PL2, and so on.
type FakeProxy struct {
	Server *httptest.Server

	// Songs maps a search query to its results.
	Songs map[string][]ProxySong
	// SearchStatus maps a search query to a forced error status.
	SearchStatus map[string]int
	CreateStatus int
	AddStatus    int
	HealthStatus int

	mu        sync.Mutex
	playlists map[string][]string
	created   []map[string]string
	authFiles []string
	queries   []string
}

// NewFakeProxy starts a fake proxy with no songs.
func NewFakeProxy(t *testing.T) *FakeProxy {
	t.Helper()
	p := &FakeProxy{
		Songs:        make(map[string][]ProxySong),
		SearchStatus: make(map[string]int),
		playlists:    make(map[string][]string),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", p.handleHealth)
	mux.HandleFunc("/api/search", p.handleSearch)
	mux.HandleFunc("/api/playlists", p.handleCreate)
	mux.HandleFunc("/api/playlists/", p.handleItems)
	mux.HandleFunc("/api/setup", p.handleSetup)
	p.Server = httptest.NewServer(mux)
	t.Cleanup(p.Server.Close)
	return p
}

// URL returns the proxy base URL.
func (p *FakeProxy) URL() string { return p.Server.URL }

// Items returns the video IDs added to a playlist.
func (p *FakeProxy) Items(playlistID string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.playlists[playlistID]...)
}

// Created returns the create requests received, in order.
func (p *FakeProxy) Created() []map[string]string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]map[string]string(nil), p.created...)
}

// AuthFiles returns the X-Auth-File header of every request received.
func (p *FakeProxy) AuthFiles() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.authFiles...)
}

// Queries returns the search queries received, in order.
func (p *FakeProxy) Queries() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.queries...)
}

func (p *FakeProxy) record(r *http.Request) {
	p.mu.Lock()
	p.authFiles = append(p.authFiles, r.Header.Get("X-Auth-File"))
	p.mu.Unlock()
}

func (p *FakeProxy) handleHealth(w http.ResponseWriter, r *http.Request) {
	if p.HealthStatus != 0 {
		writeJSON(w, p.HealthStatus, map[string]string{"detail": "unhealthy"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (p *FakeProxy) handleSearch(w http.ResponseWriter, r *http.Request) {
	p.record(r)
	q := r.URL.Query().Get("q")

	p.mu.Lock()
	p.queries = append(p.queries, q)
	p.mu.Unlock()

	if status := p.SearchStatus[q]; status != 0 {
		writeJSON(w, status, map[string]string{"detail": "search failed"})
		return
	}

	results := make([]map[string]any, 0, len(p.Songs[q]))
	for _, s := range p.Songs[q] {
		artists := make([]map[string]string, len(s.Artists))
		for i, a := range s.Artists {
			artists[i] = map[string]string{"name": a, "id": fmt.Sprintf("UC%d", i)}
		}
		results = append(results, map[string]any{
			"resultType":       "song",
			"videoId":          s.VideoID,
			"title":            s.Title,
			"artists":          artists,
			"album":            map[string]string{"name": s.Album, "id": "MPRE"},
			"duration":         fmt.Sprintf("%d:%02d", s.DurationSeconds/60, s.DurationSeconds%60),
			"duration_seconds": s.DurationSeconds,
		})
	}
	writeJSON(w, http.StatusOK, results)
}

func (p *FakeProxy) handleCreate(w http.ResponseWriter, r *http.Request) {
	p.record(r)
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"detail": "method not allowed"})
		return
	}
	if p.CreateStatus != 0 {
		writeJSON(w, p.CreateStatus, map[string]string{"detail": "create failed"})
		return
	}

	var req map[string]string
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": err.Error()})
		return
	}

	p.mu.Lock()
	p.created = append(p.created, req)
	id := fmt.Sprintf("PL%d", len(p.created))
	p.playlists[id] = nil
	p.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"playlist_id": id})
}

func (p *FakeProxy) handleItems(w http.ResponseWriter, r *http.Request) {
	p.record(r)
	id, sub, _ := strings.Cut(strings.TrimPrefix(r.URL.Path, "/api/playlists/"), "/")
	if sub != "items" || r.Method != http.MethodPost {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "not found"})
		return
	}
	if p.AddStatus != 0 {
		writeJSON(w, p.AddStatus, map[string]string{"detail": "add failed"})
		return
	}

	var req struct {
		VideoIDs []string `json:"video_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": err.Error()})
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.playlists[id]; !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "playlist not found"})
		return
	}
	p.playlists[id] = append(p.playlists[id], req.VideoIDs...)
	writeJSON(w, http.StatusOK, map[string]string{"status": "STATUS_SUCCEEDED"})
}

func (p *FakeProxy) handleSetup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		HeadersRaw string `json:"headers_raw"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": err.Error()})
		return
	}
	if !strings.Contains(req.HeadersRaw, "cookie:") {
		writeJSON(w, http.StatusOK, map[string]any{"success": false, "message": "cookie header missing"})
		return
	}

	content := map[string]any{}
	for _, line := range strings.Split(req.HeadersRaw, "\n") {
		if k, v, ok := strings.Cut(line, ": "); ok {
			content[k] = v
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"message":      "browser auth created",
		"auth_content": content,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
