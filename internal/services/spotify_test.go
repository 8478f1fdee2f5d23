package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/desertthunder/sp2yt/internal/shared"
	tu "github.com/desertthunder/sp2yt/internal/testing"
)

func newTestSpotify(t *testing.T, fake *tu.FakeSpotify, id, secret string) *SpotifyService {
	t.Helper()
	svc, err := NewSpotifyService(id, secret, WithTokenURL(fake.TokenURL()), WithAPIURL(fake.APIURL()))
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	return svc
}

func TestParsePlaylistID(t *testing.T) {
	tc := []struct {
		name    string
		ref     string
		want    string
		wantErr error
	}{
		{"share URL", "https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M", "37i9dQZF1DXcBWIGoYBM5M", nil},
		{"share URL with query", "https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M?si=abc123", "37i9dQZF1DXcBWIGoYBM5M", nil},
		{"locale segment", "https://open.spotify.com/intl-de/playlist/37i9dQZF1DXcBWIGoYBM5M", "37i9dQZF1DXcBWIGoYBM5M", nil},
		{"URI", "spotify:playlist:37i9dQZF1DXcBWIGoYBM5M", "37i9dQZF1DXcBWIGoYBM5M", nil},
		{"bare ID", "37i9dQZF1DXcBWIGoYBM5M", "37i9dQZF1DXcBWIGoYBM5M", nil},
		{"surrounding whitespace", "  37i9dQZF1DXcBWIGoYBM5M\n", "37i9dQZF1DXcBWIGoYBM5M", nil},
		{"empty", "", "", shared.ErrMissingArgument},
		{"album URL", "https://open.spotify.com/album/4aawyAB9vmqN3uQ7FjRGTy", "", shared.ErrInvalidArgument},
		{"other host", "https://music.youtube.com/playlist/abc", "", shared.ErrInvalidArgument},
		{"track URI", "spotify:track:4uLU6hMCjMI75M1A2tKUQC", "", shared.ErrInvalidArgument},
		{"garbage", "not a playlist!", "", shared.ErrInvalidArgument},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePlaylistID(tt.ref)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("ParsePlaylistID(%q) error = %v, want %v", tt.ref, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePlaylistID(%q) unexpected error: %v", tt.ref, err)
			}
			if got != tt.want {
				t.Errorf("ParsePlaylistID(%q) = %q, want %q", tt.ref, got, tt.want)
			}
		})
	}
}

func TestSpotifyService(t *testing.T) {
	t.Run("NewSpotifyService", func(t *testing.T) {
		t.Run("With Valid Credentials", func(t *testing.T) {
			srv, err := NewSpotifyService("test_client_id", "test_client_secret")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if srv.Name() != "Spotify" {
				t.Errorf("expected service name 'Spotify', got %s", srv.Name())
			}
		})

		t.Run("Missing Credentials", func(t *testing.T) {
			for _, pair := range [][2]string{{"", "secret"}, {"id", ""}, {"  ", "  "}} {
				if _, err := NewSpotifyService(pair[0], pair[1]); !errors.Is(err, shared.ErrMissingCredentials) {
					t.Errorf("NewSpotifyService(%q, %q) error = %v, want ErrMissingCredentials", pair[0], pair[1], err)
				}
			}
		})
	})

	t.Run("Authenticate", func(t *testing.T) {
		ctx := context.Background()

		t.Run("Valid Credentials", func(t *testing.T) {
			fake := tu.NewFakeSpotify(t)
			svc := newTestSpotify(t, fake, "test-id", "test-secret")

			if err := svc.Authenticate(ctx); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if fake.TokenRequests() != 1 {
				t.Errorf("expected 1 token request, got %d", fake.TokenRequests())
			}
		})

		t.Run("Invalid Client", func(t *testing.T) {
			fake := tu.NewFakeSpotify(t)
			svc := newTestSpotify(t, fake, "test-id", "wrong")

			err := svc.Authenticate(ctx)
			if !errors.Is(err, shared.ErrAuthFailed) {
				t.Errorf("expected ErrAuthFailed, got %v", err)
			}
		})

		t.Run("Token Endpoint Throttled", func(t *testing.T) {
			fake := tu.NewFakeSpotify(t)
			fake.TokenStatus = 429
			svc := newTestSpotify(t, fake, "test-id", "test-secret")

			if err := svc.Authenticate(ctx); !errors.Is(err, shared.ErrRateLimited) {
				t.Errorf("expected ErrRateLimited, got %v", err)
			}
		})
	})

	t.Run("FetchPlaylist", func(t *testing.T) {
		ctx := context.Background()

		t.Run("Preserves Order Across Pages", func(t *testing.T) {
			fake := tu.NewFakeSpotify(t)
			fake.PageSize = 2

			var tracks []tu.SpotifyTrack
			for i := 1; i <= 5; i++ {
				tracks = append(tracks, tu.SpotifyTrack{
					ID:         fmt.Sprintf("track%d", i),
					Name:       fmt.Sprintf("Song %d", i),
					Artists:    []string{fmt.Sprintf("Artist %d", i), "Featured"},
					Album:      "Album",
					DurationMS: 180500 + i*1000,
				})
			}
			fake.Playlists["PL5"] = tu.SpotifyPlaylist{Name: "Five", Description: "five songs", Tracks: tracks}

			svc := newTestSpotify(t, fake, "test-id", "test-secret")
			pl, err := svc.FetchPlaylist(ctx, "https://open.spotify.com/playlist/PL5?si=x")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if pl.Name != "Five" || pl.ID != "PL5" {
				t.Errorf("unexpected playlist metadata: %+v", pl)
			}
			if len(pl.Tracks) != 5 {
				t.Fatalf("expected 5 tracks, got %d", len(pl.Tracks))
			}
			for i, tr := range pl.Tracks {
				if want := fmt.Sprintf("Song %d", i+1); tr.Title != want {
					t.Errorf("track %d title = %q, want %q", i, tr.Title, want)
				}
			}

			first := pl.Tracks[0]
			if first.Artist != "Artist 1" {
				t.Errorf("expected primary artist 'Artist 1', got %q", first.Artist)
			}
			if len(first.Artists) != 2 {
				t.Errorf("expected 2 artists, got %v", first.Artists)
			}
			if first.DurationSeconds != 181 {
				t.Errorf("expected 181 seconds, got %d", first.DurationSeconds)
			}
			if first.SourceID != "track1" || first.Album != "Album" {
				t.Errorf("unexpected descriptor: %+v", first)
			}
			if fake.PageRequests() != 3 {
				t.Errorf("expected 3 page requests, got %d", fake.PageRequests())
			}
		})

		t.Run("Skips Episodes", func(t *testing.T) {
			fake := tu.NewFakeSpotify(t)
			fake.Playlists["mixed"] = tu.SpotifyPlaylist{Name: "Mixed", Tracks: []tu.SpotifyTrack{
				{ID: "t1", Name: "Song", Artists: []string{"A"}, DurationMS: 200000},
				{ID: "e1", Name: "Podcast", DurationMS: 3600000, Episode: true},
				{ID: "t2", Name: "Other Song", Artists: []string{"B"}, DurationMS: 100000},
			}}

			svc := newTestSpotify(t, fake, "test-id", "test-secret")
			pl, err := svc.FetchPlaylist(ctx, "spotify:playlist:mixed")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(pl.Tracks) != 2 {
				t.Fatalf("expected 2 tracks, got %d", len(pl.Tracks))
			}
			if pl.Tracks[0].SourceID != "t1" || pl.Tracks[1].SourceID != "t2" {
				t.Errorf("unexpected tracks: %+v", pl.Tracks)
			}
		})

		t.Run("Empty Playlist", func(t *testing.T) {
			fake := tu.NewFakeSpotify(t)
			fake.Playlists["empty"] = tu.SpotifyPlaylist{Name: "Nothing"}

			svc := newTestSpotify(t, fake, "test-id", "test-secret")
			pl, err := svc.FetchPlaylist(ctx, "empty")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(pl.Tracks) != 0 {
				t.Errorf("expected no tracks, got %d", len(pl.Tracks))
			}
		})

		t.Run("Not Found", func(t *testing.T) {
			fake := tu.NewFakeSpotify(t)
			svc := newTestSpotify(t, fake, "test-id", "test-secret")

			_, err := svc.FetchPlaylist(ctx, "missing")
			if !errors.Is(err, shared.ErrPlaylistNotFound) {
				t.Errorf("expected ErrPlaylistNotFound, got %v", err)
			}
		})

		t.Run("Error Statuses", func(t *testing.T) {
			tc := []struct {
				status int
				want   error
			}{
				{401, shared.ErrAuthFailed},
				{403, shared.ErrAuthFailed},
				{429, shared.ErrRateLimited},
				{500, shared.ErrAPIRequest},
				{503, shared.ErrServiceUnavailable},
			}

			for _, tt := range tc {
				t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
					fake := tu.NewFakeSpotify(t)
					fake.Playlists["p"] = tu.SpotifyPlaylist{Name: "P"}
					fake.APIStatus = tt.status
					svc := newTestSpotify(t, fake, "test-id", "test-secret")

					if _, err := svc.FetchPlaylist(ctx, "p"); !errors.Is(err, tt.want) {
						t.Errorf("status %d: expected %v, got %v", tt.status, tt.want, err)
					}
				})
			}
		})

		t.Run("Invalid Reference Makes No Requests", func(t *testing.T) {
			fake := tu.NewFakeSpotify(t)
			svc := newTestSpotify(t, fake, "test-id", "test-secret")

			if _, err := svc.FetchPlaylist(ctx, "https://example.com/x"); !errors.Is(err, shared.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
			if fake.TokenRequests() != 0 {
				t.Errorf("expected no token requests, got %d", fake.TokenRequests())
			}
		})
	})
}
