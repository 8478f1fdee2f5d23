package services

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/desertthunder/sp2yt/internal/shared"
	tu "github.com/desertthunder/sp2yt/internal/testing"
)

func newTestYouTube(t *testing.T, proxy *tu.FakeProxy) *YouTubeService {
	t.Helper()
	authFile := filepath.Join(t.TempDir(), "browser.json")
	tu.MustWriteFile(t, authFile, `{"cookie":"SAPISID=abc"}`)

	svc := NewYouTubeService(NewAPIService(proxy.URL(), nil), authFile)
	if err := svc.Authenticate(context.Background()); err != nil {
		t.Fatalf("failed to authenticate: %v", err)
	}
	return svc
}

func TestYouTubeService(t *testing.T) {
	ctx := context.Background()

	t.Run("Name", func(t *testing.T) {
		if svc := NewYouTubeService(nil, ""); svc.Name() != "YouTube Music" {
			t.Errorf("expected name to be 'YouTube Music', got %s", svc.Name())
		}
	})

	t.Run("Authenticate", func(t *testing.T) {
		proxy := tu.NewFakeProxy(t)

		t.Run("fails without auth file", func(t *testing.T) {
			svc := NewYouTubeService(NewAPIService(proxy.URL(), nil), "")
			if err := svc.Authenticate(ctx); !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("fails when auth file is missing", func(t *testing.T) {
			svc := NewYouTubeService(NewAPIService(proxy.URL(), nil), filepath.Join(t.TempDir(), "nope.json"))
			if err := svc.Authenticate(ctx); !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("fails when proxy is unhealthy", func(t *testing.T) {
			unhealthy := tu.NewFakeProxy(t)
			unhealthy.HealthStatus = 503

			authFile := filepath.Join(t.TempDir(), "browser.json")
			tu.MustWriteFile(t, authFile, `{}`)
			svc := NewYouTubeService(NewAPIService(unhealthy.URL(), nil), authFile)
			if err := svc.Authenticate(ctx); !errors.Is(err, shared.ErrServiceUnavailable) {
				t.Errorf("expected ErrServiceUnavailable, got %v", err)
			}
		})

		t.Run("sends auth file on later requests", func(t *testing.T) {
			svc := newTestYouTube(t, proxy)
			if _, err := svc.Search(ctx, "anything", 5); err != nil {
				t.Fatalf("search failed: %v", err)
			}

			files := proxy.AuthFiles()
			if len(files) == 0 || files[len(files)-1] != svc.AuthFile() {
				t.Errorf("expected X-Auth-File %s, got %v", svc.AuthFile(), files)
			}
		})
	})

	t.Run("Search", func(t *testing.T) {
		proxy := tu.NewFakeProxy(t)
		proxy.Songs["Bohemian Rhapsody Queen"] = []tu.ProxySong{
			{VideoID: "v1", Title: "Bohemian Rhapsody", Artists: []string{"Queen"}, Album: "A Night at the Opera", DurationSeconds: 355},
			{VideoID: "v2", Title: "Bohemian Rhapsody (Live)", Artists: []string{"Queen", "Freddie Mercury"}, DurationSeconds: 360},
			{VideoID: "v3", Title: "Bohemian Rhapsody Cover", Artists: []string{"Someone"}, DurationSeconds: 300},
		}
		proxy.SearchStatus["broken"] = 500
		proxy.SearchStatus["expired"] = 401
		svc := newTestYouTube(t, proxy)

		t.Run("maps results in order", func(t *testing.T) {
			got, err := svc.Search(ctx, "Bohemian Rhapsody Queen", 5)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(got) != 3 {
				t.Fatalf("expected 3 candidates, got %d", len(got))
			}

			first := got[0]
			if first.DestinationID != "v1" || first.Title != "Bohemian Rhapsody" || first.Album != "A Night at the Opera" || first.DurationSeconds != 355 {
				t.Errorf("unexpected first candidate: %+v", first)
			}
			if got[1].Artist != "Queen, Freddie Mercury" {
				t.Errorf("expected joined artists, got %q", got[1].Artist)
			}
			if !reflect.DeepEqual(got[1].Artists, []string{"Queen", "Freddie Mercury"}) {
				t.Errorf("unexpected artists: %v", got[1].Artists)
			}
		})

		t.Run("honors limit", func(t *testing.T) {
			got, err := svc.Search(ctx, "Bohemian Rhapsody Queen", 2)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(got) != 2 {
				t.Errorf("expected 2 candidates, got %d", len(got))
			}
		})

		t.Run("no results", func(t *testing.T) {
			got, err := svc.Search(ctx, "nothing here", 5)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(got) != 0 {
				t.Errorf("expected no candidates, got %d", len(got))
			}
		})

		t.Run("server error", func(t *testing.T) {
			if _, err := svc.Search(ctx, "broken", 5); !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest, got %v", err)
			}
		})

		t.Run("expired auth", func(t *testing.T) {
			if _, err := svc.Search(ctx, "expired", 5); !errors.Is(err, shared.ErrAuthFailed) {
				t.Errorf("expected ErrAuthFailed, got %v", err)
			}
		})
	})

	t.Run("CreatePlaylist", func(t *testing.T) {
		proxy := tu.NewFakeProxy(t)
		svc := newTestYouTube(t, proxy)

		t.Run("private by default", func(t *testing.T) {
			pl, err := svc.CreatePlaylist(ctx, "Road Trip", "Transferred", false)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if pl.ID != "PL1" || pl.Name != "Road Trip" || pl.Public {
				t.Errorf("unexpected playlist: %+v", pl)
			}

			created := proxy.Created()
			if len(created) != 1 {
				t.Fatalf("expected 1 create request, got %d", len(created))
			}
			want := map[string]string{"title": "Road Trip", "description": "Transferred", "privacy_status": "PRIVATE"}
			if !reflect.DeepEqual(created[0], want) {
				t.Errorf("create request = %v, want %v", created[0], want)
			}
		})

		t.Run("public", func(t *testing.T) {
			pl, err := svc.CreatePlaylist(ctx, "Shared", "", true)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !pl.Public {
				t.Error("expected public playlist")
			}
			if got := proxy.Created()[1]["privacy_status"]; got != "PUBLIC" {
				t.Errorf("expected PUBLIC privacy, got %s", got)
			}
		})

		t.Run("failure", func(t *testing.T) {
			proxy.CreateStatus = 403
			defer func() { proxy.CreateStatus = 0 }()

			if _, err := svc.CreatePlaylist(ctx, "Nope", "", false); !errors.Is(err, shared.ErrAuthFailed) {
				t.Errorf("expected ErrAuthFailed, got %v", err)
			}
		})
	})

	t.Run("AddItems", func(t *testing.T) {
		proxy := tu.NewFakeProxy(t)
		svc := newTestYouTube(t, proxy)

		pl, err := svc.CreatePlaylist(ctx, "Mix", "", false)
		if err != nil {
			t.Fatalf("failed to create playlist: %v", err)
		}

		if err := svc.AddItems(ctx, pl.ID, []string{"a", "b"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if err := svc.AddItems(ctx, pl.ID, []string{"c"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if err := svc.AddItems(ctx, pl.ID, nil); err != nil {
			t.Fatalf("empty add should be a no-op, got %v", err)
		}

		if got := proxy.Items(pl.ID); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
			t.Errorf("expected items [a b c], got %v", got)
		}

		if err := svc.AddItems(ctx, "PLmissing", []string{"x"}); !errors.Is(err, shared.ErrPlaylistNotFound) {
			t.Errorf("expected ErrPlaylistNotFound, got %v", err)
		}
	})

	t.Run("PlaylistURL", func(t *testing.T) {
		svc := NewYouTubeService(nil, "")
		if got := svc.PlaylistURL("PLabc"); got != "https://music.youtube.com/playlist?list=PLabc" {
			t.Errorf("unexpected URL %s", got)
		}
	})
}

func TestParseClock(t *testing.T) {
	tc := []struct {
		in   string
		want int
	}{
		{"3:45", 225},
		{"1:02:03", 3723},
		{"45", 45},
		{"", 0},
		{"x:10", 0},
	}

	for _, tt := range tc {
		if got := parseClock(tt.in); got != tt.want {
			t.Errorf("parseClock(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestYouTubeSongCandidate(t *testing.T) {
	song := YouTubeSong{VideoID: "v", Title: "T", Duration: "4:01", Artists: []YouTubeArtist{{Name: "A"}, {Name: ""}}}
	c := song.Candidate()

	if c.DurationSeconds != 241 {
		t.Errorf("expected duration parsed from clock, got %d", c.DurationSeconds)
	}
	if c.Artist != "A" || len(c.Artists) != 1 {
		t.Errorf("expected single artist, got %q %v", c.Artist, c.Artists)
	}
}
