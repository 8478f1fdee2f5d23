package services

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/desertthunder/sp2yt/internal/shared"
	tu "github.com/desertthunder/sp2yt/internal/testing"
)

func TestAPIService(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		t.Run("With Custom BaseURL and Client", func(t *testing.T) {
			customClient := &http.Client{}
			srv := NewAPIService("http://example.com/", customClient)

			if srv.BaseURL() != "http://example.com" {
				t.Errorf("expected baseURL 'http://example.com', got %s", srv.BaseURL())
			}
			if srv.httpClient != customClient {
				t.Error("expected custom client to be used")
			}
		})

		t.Run("With Empty BaseURL", func(t *testing.T) {
			srv := NewAPIService("", nil)
			if srv.BaseURL() != defaultProxyURL {
				t.Errorf("expected default baseURL %s, got %s", defaultProxyURL, srv.BaseURL())
			}
			if srv.httpClient.Timeout != defaultProxyTimeout {
				t.Errorf("expected default timeout, got %v", srv.httpClient.Timeout)
			}
		})
	})

	t.Run("Requests", func(t *testing.T) {
		t.Run("Sends Auth File Header And JSON Body", func(t *testing.T) {
			var gotHeader, gotBody, gotType string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotHeader = r.Header.Get("X-Auth-File")
				gotType = r.Header.Get("Content-Type")
				b, _ := io.ReadAll(r.Body)
				gotBody = string(b)
				w.Write([]byte(`{"ok":true}`))
			}))
			defer server.Close()

			srv := NewAPIService(server.URL, nil)
			srv.SetAuthFile("/tmp/browser.json")

			resp, err := srv.Post(context.Background(), "/api/x", map[string]string{"a": "b"})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !resp.OK() {
				t.Errorf("expected OK response, got %d", resp.StatusCode)
			}
			if gotHeader != "/tmp/browser.json" {
				t.Errorf("expected X-Auth-File header, got %q", gotHeader)
			}
			if gotType != "application/json" {
				t.Errorf("expected JSON content type, got %q", gotType)
			}
			if gotBody != `{"a":"b"}` {
				t.Errorf("unexpected body %q", gotBody)
			}
		})

		t.Run("Connection Failure", func(t *testing.T) {
			client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection refused"))}
			srv := NewAPIService("http://127.0.0.1:1", client)

			if _, err := srv.Get(context.Background(), "/health"); !errors.Is(err, shared.ErrServiceUnavailable) {
				t.Errorf("expected ErrServiceUnavailable, got %v", err)
			}
		})

		t.Run("Body Read Failure", func(t *testing.T) {
			client := &http.Client{Transport: tu.NewMockRoundTripper(&http.Response{
				StatusCode: http.StatusOK,
				Body:       &tu.FCloser{},
				Header:     make(http.Header),
			}, nil)}
			srv := NewAPIService("http://example.com", client)

			if _, err := srv.Get(context.Background(), "/health"); !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest, got %v", err)
			}
		})

		t.Run("Cancelled Context", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
			defer server.Close()

			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			srv := NewAPIService(server.URL, nil)
			if _, err := srv.Get(ctx, "/health"); !errors.Is(err, context.Canceled) {
				t.Errorf("expected context.Canceled, got %v", err)
			}
		})
	})

	t.Run("APIResponse Err", func(t *testing.T) {
		tc := []struct {
			name       string
			status     int
			body       string
			want       error
			wantDetail string
		}{
			{"ok", 200, `{}`, nil, ""},
			{"unauthorized with detail", 401, `{"detail":"auth file expired"}`, shared.ErrAuthFailed, "auth file expired"},
			{"forbidden", 403, ``, shared.ErrAuthFailed, "Forbidden"},
			{"rate limited", 429, `{"detail":"quota"}`, shared.ErrRateLimited, "quota"},
			{"validation detail list", 422, `{"detail":[{"msg":"field required"}]}`, shared.ErrAPIRequest, "field required"},
			{"plain text", 500, `Internal Server Error`, shared.ErrAPIRequest, "Internal Server Error"},
			{"bad gateway", 502, ``, shared.ErrServiceUnavailable, ""},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				resp := &APIResponse{StatusCode: tt.status, Body: []byte(tt.body)}
				err := resp.Err()
				if tt.want == nil {
					if err != nil {
						t.Errorf("expected nil, got %v", err)
					}
					return
				}
				if !errors.Is(err, tt.want) {
					t.Errorf("expected %v, got %v", tt.want, err)
				}
				if !strings.Contains(err.Error(), tt.wantDetail) {
					t.Errorf("expected %q in %q", tt.wantDetail, err.Error())
				}
			})
		}
	})

	t.Run("Health", func(t *testing.T) {
		proxy := tu.NewFakeProxy(t)
		srv := NewAPIService(proxy.URL(), nil)

		if err := srv.Health(context.Background()); err != nil {
			t.Errorf("expected healthy proxy, got %v", err)
		}

		proxy.HealthStatus = 500
		if err := srv.Health(context.Background()); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})

	t.Run("SetupBrowser", func(t *testing.T) {
		proxy := tu.NewFakeProxy(t)
		srv := NewAPIService(proxy.URL(), nil)
		ctx := context.Background()

		t.Run("Success", func(t *testing.T) {
			resp, err := srv.SetupBrowser(ctx, "accept: */*\ncookie: SAPISID=abc")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if resp.AuthContent["cookie"] != "SAPISID=abc" {
				t.Errorf("unexpected auth content: %v", resp.AuthContent)
			}
		})

		t.Run("Proxy Reports Failure", func(t *testing.T) {
			if _, err := srv.SetupBrowser(ctx, "accept: */*"); !errors.Is(err, shared.ErrAuthFailed) {
				t.Errorf("expected ErrAuthFailed, got %v", err)
			}
		})

		t.Run("Empty Headers", func(t *testing.T) {
			if _, err := srv.SetupBrowser(ctx, "  "); !errors.Is(err, shared.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
		})
	})
}
