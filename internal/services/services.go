package services

import (
	"context"
	"net/http"

	"github.com/desertthunder/sp2yt/internal/models"
	"github.com/desertthunder/sp2yt/internal/shared"
)

// Source is a music service playlists are read from.
type Source interface {
	// Authenticate verifies credentials before any playlist is read.
	Authenticate(ctx context.Context) error

	// FetchPlaylist returns the playlist identified by ref (URL, URI or ID) with its tracks in order.
	FetchPlaylist(ctx context.Context, ref string) (*models.SourcePlaylist, error)

	// Name returns the name of the service (e.g., "Spotify")
	Name() string
}

// Destination is a music service playlists are created on.
type Destination interface {
	// Authenticate verifies the service can be reached with the configured credentials.
	Authenticate(ctx context.Context) error

	// Search returns up to limit song candidates for query, in the service's ranking order.
	Search(ctx context.Context, query string, limit int) ([]models.CandidateMatch, error)

	// CreatePlaylist creates an empty playlist.
	CreatePlaylist(ctx context.Context, name, description string, public bool) (*models.Playlist, error)

	// AddItems appends tracks to a playlist in the order given.
	AddItems(ctx context.Context, playlistID string, trackIDs []string) error

	// PlaylistURL returns a browser link to the playlist.
	PlaylistURL(playlistID string) string

	// Name returns the name of the service (e.g., "YouTube Music")
	Name() string
}

// classifyStatus maps an HTTP error status onto the shared error it represents.
func classifyStatus(status int) error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return shared.ErrAuthFailed
	case http.StatusNotFound:
		return shared.ErrPlaylistNotFound
	case http.StatusTooManyRequests:
		return shared.ErrRateLimited
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return shared.ErrServiceUnavailable
	default:
		return shared.ErrAPIRequest
	}
}
