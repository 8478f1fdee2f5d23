// YouTube Music destination, reached through the ytmusicapi proxy

package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/desertthunder/sp2yt/internal/models"
	"github.com/desertthunder/sp2yt/internal/shared"
)

const ytPlaylistURL = "https://music.youtube.com/playlist?list="

// YouTubeArtist is an artist credit in proxy search results.
type YouTubeArtist struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

type youtubeAlbum struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// YouTubeSong is one song result of a proxy search.
type YouTubeSong struct {
	VideoID     string          `json:"videoId"`
	Title       string          `json:"title"`
	Artists     []YouTubeArtist `json:"artists"`
	Album       *youtubeAlbum   `json:"album"`
	Duration    string          `json:"duration"`
	DurationSec int             `json:"duration_seconds"`
	ResultType  string          `json:"resultType,omitempty"`
}

// Candidate converts the result into a [models.CandidateMatch].
func (s YouTubeSong) Candidate() models.CandidateMatch {
	names := make([]string, 0, len(s.Artists))
	for _, a := range s.Artists {
		if a.Name != "" {
			names = append(names, a.Name)
		}
	}

	c := models.CandidateMatch{
		DestinationID:   s.VideoID,
		Title:           s.Title,
		Artist:          strings.Join(names, ", "),
		Artists:         names,
		DurationSeconds: s.DurationSec,
	}
	if c.DurationSeconds == 0 {
		c.DurationSeconds = parseClock(s.Duration)
	}
	if s.Album != nil {
		c.Album = s.Album.Name
	}
	return c
}

// YouTubeService creates playlists on YouTube Music via the proxy.
type YouTubeService struct {
	api      *APIService
	authFile string
}

// NewYouTubeService creates a YouTube Music destination that authenticates with the
// browser headers file at authFile.
func NewYouTubeService(api *APIService, authFile string) *YouTubeService {
	if api == nil {
		api = NewAPIService("", nil)
	}
	return &YouTubeService{api: api, authFile: authFile}
}

// Name returns the service name.
func (y *YouTubeService) Name() string {
	return "YouTube Music"
}

// AuthFile returns the browser headers file the service sends to the proxy.
func (y *YouTubeService) AuthFile() string {
	return y.authFile
}

// Authenticate checks that the headers file exists and the proxy answers its health check.
//
// Whether the headers are still accepted by YouTube Music is only known at the first call.
func (y *YouTubeService) Authenticate(ctx context.Context) error {
	if y.authFile == "" {
		return fmt.Errorf("%w: no YouTube Music auth file configured (run 'sp2yt setup youtube')", shared.ErrMissingCredentials)
	}
	if _, err := os.Stat(y.authFile); errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: YouTube Music auth file %s not found (run 'sp2yt setup youtube')", shared.ErrMissingCredentials, y.authFile)
	} else if err != nil {
		return fmt.Errorf("failed to read auth file: %w", err)
	}

	y.api.SetAuthFile(y.authFile)
	return y.api.Health(ctx)
}

// Search returns up to limit song results for query.
//
// Calls GET /api/search?q={query}&filter=songs&limit={limit} on the proxy.
func (y *YouTubeService) Search(ctx context.Context, query string, limit int) ([]models.CandidateMatch, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("filter", "songs")
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	var results []YouTubeSong
	if err := y.api.call(ctx, http.MethodGet, "/api/search?"+params.Encode(), nil, &results); err != nil {
		return nil, err
	}

	candidates := make([]models.CandidateMatch, 0, len(results))
	for _, r := range results {
		if r.VideoID == "" {
			continue
		}
		candidates = append(candidates, r.Candidate())
		if limit > 0 && len(candidates) == limit {
			break
		}
	}
	return candidates, nil
}

// CreatePlaylist creates an empty playlist, private unless public is set.
//
// Calls POST /api/playlists on the proxy.
func (y *YouTubeService) CreatePlaylist(ctx context.Context, name, description string, public bool) (*models.Playlist, error) {
	req := struct {
		Title         string `json:"title"`
		Description   string `json:"description"`
		PrivacyStatus string `json:"privacy_status"`
	}{
		Title:         name,
		Description:   description,
		PrivacyStatus: "PRIVATE",
	}
	if public {
		req.PrivacyStatus = "PUBLIC"
	}

	var resp struct {
		PlaylistID string `json:"playlist_id"`
	}
	if err := y.api.call(ctx, http.MethodPost, "/api/playlists", req, &resp); err != nil {
		return nil, err
	}
	if resp.PlaylistID == "" {
		return nil, fmt.Errorf("%w: proxy returned no playlist_id", shared.ErrAPIRequest)
	}

	return &models.Playlist{
		ID:          resp.PlaylistID,
		Name:        name,
		Description: description,
		Public:      public,
	}, nil
}

// AddItems appends videos to a playlist.
//
// Calls POST /api/playlists/{id}/items on the proxy.
func (y *YouTubeService) AddItems(ctx context.Context, playlistID string, videoIDs []string) error {
	if len(videoIDs) == 0 {
		return nil
	}

	req := struct {
		VideoIDs []string `json:"video_ids"`
	}{VideoIDs: videoIDs}

	var resp struct {
		Status string `json:"status"`
	}
	endpoint := fmt.Sprintf("/api/playlists/%s/items", url.PathEscape(playlistID))
	if err := y.api.call(ctx, http.MethodPost, endpoint, req, &resp); err != nil {
		return err
	}
	if resp.Status != "" && !strings.Contains(resp.Status, "SUCCEEDED") {
		return fmt.Errorf("%w: add items returned status %s", shared.ErrAPIRequest, resp.Status)
	}
	return nil
}

// PlaylistURL returns the music.youtube.com link for a playlist.
func (y *YouTubeService) PlaylistURL(playlistID string) string {
	return ytPlaylistURL + url.QueryEscape(playlistID)
}

// parseClock converts "m:ss" or "h:mm:ss" to seconds, returning 0 when it cannot.
func parseClock(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	total := 0
	for _, part := range strings.Split(s, ":") {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return 0
		}
		total = total*60 + n
	}
	return total
}
