package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestParseCurl(t *testing.T) {
	tt := []struct {
		name        string
		curlCmd     string
		wantHeaders map[string]string
		wantCookie  string
		wantErr     bool
	}{
		{
			name:        "single header with single quotes",
			curlCmd:     `curl -H 'Authorization: SAPISIDHASH abc' https://music.youtube.com`,
			wantHeaders: map[string]string{"authorization": "SAPISIDHASH abc"},
		},
		{
			name:        "long header flag with double quotes",
			curlCmd:     `curl --header "X-Goog-AuthUser: 0" https://music.youtube.com`,
			wantHeaders: map[string]string{"x-goog-authuser": "0"},
		},
		{
			name:        "cookie in -H header",
			curlCmd:     `curl -H 'Cookie: SAPISID=abc; HSID=xyz' https://music.youtube.com`,
			wantHeaders: map[string]string{},
			wantCookie:  "SAPISID=abc; HSID=xyz",
		},
		{
			name:        "-b cookie wins over -H cookie",
			curlCmd:     `curl -H 'Cookie: old=value' -b 'new=value' https://music.youtube.com`,
			wantHeaders: map[string]string{},
			wantCookie:  "new=value",
		},
		{
			name:        "spaces around colon",
			curlCmd:     `curl -H 'Accept : */*' https://music.youtube.com`,
			wantHeaders: map[string]string{"accept": "*/*"},
		},
		{
			name: "browser copy with line continuations",
			curlCmd: `curl 'https://music.youtube.com/youtubei/v1/browse' \
  -H 'accept: */*' \
  -H 'accept-language: en-US,en;q=0.9' \
  -H 'authorization: SAPISIDHASH 123_abc' \
  -H 'content-type: application/json' \
  -b 'VISITOR_INFO1_LIVE=xyz; SAPISID=s3cr3t' \
  -H 'x-goog-authuser: 0' \
  --data-raw '{"context":{}}'`,
			wantHeaders: map[string]string{
				"accept":          "*/*",
				"accept-language": "en-US,en;q=0.9",
				"authorization":   "SAPISIDHASH 123_abc",
				"content-type":    "application/json",
				"x-goog-authuser": "0",
			},
			wantCookie: "VISITOR_INFO1_LIVE=xyz; SAPISID=s3cr3t",
		},
		{
			name:    "no headers",
			curlCmd: `curl https://music.youtube.com`,
			wantErr: true,
		},
		{
			name:    "empty command",
			curlCmd: "",
			wantErr: true,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			result, err := ParseCurl(tc.curlCmd)

			if tc.wantErr {
				if !errors.Is(err, ErrInvalidArgument) {
					t.Errorf("expected ErrInvalidArgument, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCurl() error = %v", err)
			}

			if len(result.Headers) != len(tc.wantHeaders) {
				t.Errorf("headers count = %d, want %d (%v)", len(result.Headers), len(tc.wantHeaders), result.Headers)
			}
			for key, want := range tc.wantHeaders {
				if got := result.Headers[key]; got != want {
					t.Errorf("header[%s] = %q, want %q", key, got, want)
				}
			}
			if result.Cookie != tc.wantCookie {
				t.Errorf("cookie = %q, want %q", result.Cookie, tc.wantCookie)
			}
		})
	}
}

func TestParseCurlFile(t *testing.T) {
	t.Run("reads command from file", func(t *testing.T) {
		curlFile := filepath.Join(t.TempDir(), "curl.sh")
		content := "curl -H 'accept: */*' \\\n  -b 'SAPISID=abc' https://music.youtube.com\n"
		if err := os.WriteFile(curlFile, []byte(content), 0644); err != nil {
			t.Fatalf("failed to create test file: %v", err)
		}

		result, err := ParseCurlFile(curlFile)
		if err != nil {
			t.Fatalf("ParseCurlFile() error = %v", err)
		}
		if result.Headers["accept"] != "*/*" {
			t.Errorf("accept = %q, want */*", result.Headers["accept"])
		}
		if result.Cookie != "SAPISID=abc" {
			t.Errorf("cookie = %q, want SAPISID=abc", result.Cookie)
		}
	})

	t.Run("file does not exist", func(t *testing.T) {
		if _, err := ParseCurlFile("/nonexistent/file.sh"); err == nil {
			t.Error("expected error for nonexistent file")
		}
	})
}

func TestBrowserHeaders(t *testing.T) {
	t.Run("Validate", func(t *testing.T) {
		tests := []struct {
			name    string
			cookie  string
			wantErr bool
		}{
			{"signed in cookie", "HSID=a; SAPISID=b", false},
			{"secure variant", "__Secure-3PAPISID=b", false},
			{"secure variant among others", "HSID=a; __Secure-3PAPISID=b; SID=c", false},
			{"name only in a value", "PREF=SAPISID", true},
			{"other papisid cookie", "__Secure-1PAPISID=b", true},
			{"empty cookie", "", true},
			{"anonymous cookie", "VISITOR_INFO1_LIVE=xyz", true},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				h := &BrowserHeaders{Headers: map[string]string{}, Cookie: tt.cookie}
				if err := h.Validate(); (err != nil) != tt.wantErr {
					t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
				}
			})
		}
	})

	t.Run("HeadersRaw", func(t *testing.T) {
		h := &BrowserHeaders{
			Headers: map[string]string{
				"x-goog-authuser": "0",
				"accept":          "*/*",
				"authorization":   "SAPISIDHASH t",
			},
			Cookie: "SAPISID=abc",
		}

		want := "accept: */*\nauthorization: SAPISIDHASH t\nx-goog-authuser: 0\ncookie: SAPISID=abc"
		if got := h.HeadersRaw(); got != want {
			t.Errorf("HeadersRaw() = %q, want %q", got, want)
		}
	})

	t.Run("HeadersRaw without cookie", func(t *testing.T) {
		h := &BrowserHeaders{Headers: map[string]string{"accept": "*/*"}}
		if got := h.HeadersRaw(); got != "accept: */*" {
			t.Errorf("HeadersRaw() = %q", got)
		}
	})
}
