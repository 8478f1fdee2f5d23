// Spotify Web API source, using the client-credentials flow.

package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/desertthunder/sp2yt/internal/models"
	"github.com/desertthunder/sp2yt/internal/shared"
)

// playlistPageSize is the largest page the playlist items endpoint serves.
const playlistPageSize = 100

var (
	playlistURIRe = regexp.MustCompile(`^spotify:playlist:([A-Za-z0-9]+)$`)
	playlistIDRe  = regexp.MustCompile(`^[A-Za-z0-9]+$`)
)

// SpotifyService reads public playlists from the Spotify Web API.
type SpotifyService struct {
	clientID     string
	clientSecret string
	tokenURL     string
	apiURL       string
	httpClient   *http.Client

	client *spotify.Client
}

// SpotifyOption configures a [SpotifyService].
type SpotifyOption func(*SpotifyService)

// WithTokenURL overrides the accounts service token endpoint.
func WithTokenURL(u string) SpotifyOption {
	return func(s *SpotifyService) { s.tokenURL = u }
}

// WithAPIURL overrides the Web API base URL. A trailing slash is added when missing.
func WithAPIURL(u string) SpotifyOption {
	return func(s *SpotifyService) {
		if !strings.HasSuffix(u, "/") {
			u += "/"
		}
		s.apiURL = u
	}
}

// WithHTTPClient sets the client used for token requests and, wrapped with the token source, API requests.
func WithHTTPClient(c *http.Client) SpotifyOption {
	return func(s *SpotifyService) { s.httpClient = c }
}

// NewSpotifyService creates a Spotify source for the given client credentials.
func NewSpotifyService(clientID, clientSecret string, opts ...SpotifyOption) (*SpotifyService, error) {
	clientID, clientSecret = strings.TrimSpace(clientID), strings.TrimSpace(clientSecret)
	if clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("%w: spotify client ID and secret are required (set %s and %s or pass --spotify-client-id/--spotify-client-secret)",
			shared.ErrMissingCredentials, shared.EnvSpotifyClientID, shared.EnvSpotifyClientSecret)
	}

	s := &SpotifyService{
		clientID:     clientID,
		clientSecret: clientSecret,
		tokenURL:     spotifyauth.TokenURL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Name returns the service name.
func (s *SpotifyService) Name() string {
	return "Spotify"
}

// Authenticate requests an app access token so bad credentials fail before any other work.
func (s *SpotifyService) Authenticate(ctx context.Context) error {
	if s.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	}

	conf := &clientcredentials.Config{
		ClientID:     s.clientID,
		ClientSecret: s.clientSecret,
		TokenURL:     s.tokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}

	token, err := conf.Token(ctx)
	if err != nil {
		return tokenError(err)
	}

	httpClient := oauth2.NewClient(ctx, oauth2.ReuseTokenSource(token, conf.TokenSource(ctx)))
	clientOpts := []spotify.ClientOption{spotify.WithRetry(false)}
	if s.apiURL != "" {
		clientOpts = append(clientOpts, spotify.WithBaseURL(s.apiURL))
	}
	s.client = spotify.New(httpClient, clientOpts...)
	return nil
}

// FetchPlaylist returns the playlist's name and every track in playlist order.
//
// Episodes and unavailable items are skipped.
func (s *SpotifyService) FetchPlaylist(ctx context.Context, ref string) (*models.SourcePlaylist, error) {
	id, err := ParsePlaylistID(ref)
	if err != nil {
		return nil, err
	}

	if s.client == nil {
		if err := s.Authenticate(ctx); err != nil {
			return nil, err
		}
	}

	pl, err := s.client.GetPlaylist(ctx, spotify.ID(id), spotify.Fields("id,name,description"))
	if err != nil {
		return nil, apiError(err, id)
	}

	playlist := &models.SourcePlaylist{
		ID:          id,
		Name:        pl.Name,
		Description: pl.Description,
	}

	page, err := s.client.GetPlaylistItems(ctx, spotify.ID(id), spotify.Limit(playlistPageSize))
	if err != nil {
		return nil, apiError(err, id)
	}

	for {
		for _, item := range page.Items {
			if t, ok := descriptorFor(item); ok {
				playlist.Tracks = append(playlist.Tracks, t)
			}
		}

		err := s.client.NextPage(ctx, page)
		if errors.Is(err, spotify.ErrNoMorePages) {
			break
		}
		if err != nil {
			return nil, apiError(err, id)
		}
	}

	return playlist, nil
}

func descriptorFor(item spotify.PlaylistItem) (models.TrackDescriptor, bool) {
	t := item.Track.Track
	if t == nil || t.Name == "" {
		return models.TrackDescriptor{}, false
	}

	artists := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		if a.Name != "" {
			artists = append(artists, a.Name)
		}
	}

	d := models.TrackDescriptor{
		SourceID:        string(t.ID),
		Title:           t.Name,
		Artists:         artists,
		Album:           t.Album.Name,
		DurationSeconds: int(t.Duration) / 1000,
	}
	if len(artists) > 0 {
		d.Artist = artists[0]
	}
	return d, true
}

// ParsePlaylistID extracts the playlist ID from an open.spotify.com URL,
// a spotify:playlist: URI, or a bare ID.
func ParsePlaylistID(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("%w: playlist reference is empty", shared.ErrMissingArgument)
	}

	if m := playlistURIRe.FindStringSubmatch(ref); m != nil {
		return m[1], nil
	}

	if strings.Contains(ref, "://") {
		u, err := url.Parse(ref)
		if err != nil {
			return "", fmt.Errorf("%w: %q is not a valid URL", shared.ErrInvalidArgument, ref)
		}
		if host := strings.ToLower(u.Hostname()); host != "open.spotify.com" && host != "play.spotify.com" {
			return "", fmt.Errorf("%w: %q is not a Spotify URL", shared.ErrInvalidArgument, ref)
		}

		segments := strings.Split(strings.Trim(u.Path, "/"), "/")
		for i := 0; i < len(segments)-1; i++ {
			if segments[i] == "playlist" && playlistIDRe.MatchString(segments[i+1]) {
				return segments[i+1], nil
			}
		}
		return "", fmt.Errorf("%w: %q is not a Spotify playlist URL", shared.ErrInvalidArgument, ref)
	}

	if playlistIDRe.MatchString(ref) {
		return ref, nil
	}
	return "", fmt.Errorf("%w: %q is not a Spotify playlist URL, URI or ID", shared.ErrInvalidArgument, ref)
}

// tokenError maps a client-credentials token failure onto the shared errors.
func tokenError(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.Response != nil {
		switch code := re.Response.StatusCode; {
		case code == http.StatusBadRequest, code == http.StatusUnauthorized, code == http.StatusForbidden:
			return fmt.Errorf("%w: spotify rejected the client credentials: %s", shared.ErrAuthFailed, retrieveReason(re))
		case code == http.StatusTooManyRequests:
			return fmt.Errorf("%w: spotify token endpoint", shared.ErrRateLimited)
		default:
			return fmt.Errorf("%w: spotify token endpoint returned %d", shared.ErrAPIRequest, code)
		}
	}
	return fmt.Errorf("%w: spotify token request: %v", shared.ErrServiceUnavailable, err)
}

func retrieveReason(re *oauth2.RetrieveError) string {
	if re.ErrorCode != "" {
		return re.ErrorCode
	}
	return strings.TrimSpace(string(re.Body))
}

// apiError maps a Web API failure onto the shared errors.
func apiError(err error, playlistID string) error {
	status, msg := 0, err.Error()

	var se spotify.Error
	var sp *spotify.Error
	switch {
	case errors.As(err, &se):
		status, msg = se.Status, se.Message
	case errors.As(err, &sp):
		status, msg = sp.Status, sp.Message
	}

	switch status {
	case 0:
		return fmt.Errorf("%w: spotify: %v", shared.ErrAPIRequest, err)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s (the playlist must exist and be public)", shared.ErrPlaylistNotFound, playlistID)
	default:
		return fmt.Errorf("%w: spotify: %s", classifyStatus(status), msg)
	}
}
