// Parsing of "Copy as cURL" output into YouTube Music browser headers.

package shared

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
)

var (
	curlHeaderRe = regexp.MustCompile(`(?:-H|--header)\s+(?:'([^']*)'|"([^"]*)")`)
	curlCookieRe = regexp.MustCompile(`(?:-b|--cookie)\s+(?:'([^']*)'|"([^"]*)")`)
)

// BrowserHeaders holds the request headers of a signed-in music.youtube.com session.
//
// Header names are lower-cased. The cookie is kept apart from the other headers.
type BrowserHeaders struct {
	Headers map[string]string
	Cookie  string
}

// ParseCurlFile reads a file containing a cURL command and extracts its headers.
func ParseCurlFile(path string) (*BrowserHeaders, error) {
	content, err := os.ReadFile(ExpandHome(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read curl file: %w", err)
	}
	return ParseCurl(string(content))
}

// ParseCurl extracts headers and the cookie from a cURL command.
//
// A cookie given with -b/--cookie wins over a Cookie header.
func ParseCurl(curlCmd string) (*BrowserHeaders, error) {
	curlCmd = strings.ReplaceAll(curlCmd, "\\\r\n", " ")
	curlCmd = strings.ReplaceAll(curlCmd, "\\\n", " ")

	h := &BrowserHeaders{Headers: make(map[string]string)}

	for _, m := range curlHeaderRe.FindAllStringSubmatch(curlCmd, -1) {
		name, value, ok := strings.Cut(firstGroup(m), ":")
		if !ok {
			continue
		}
		name = strings.ToLower(strings.TrimSpace(name))
		value = strings.TrimSpace(value)
		if name == "" {
			continue
		}
		if name == "cookie" {
			h.Cookie = value
			continue
		}
		h.Headers[name] = value
	}

	if m := curlCookieRe.FindStringSubmatch(curlCmd); m != nil {
		h.Cookie = strings.TrimSpace(firstGroup(m))
	}

	if len(h.Headers) == 0 && h.Cookie == "" {
		return nil, fmt.Errorf("%w: no headers found in curl command", ErrInvalidArgument)
	}
	return h, nil
}

// Validate checks that the headers can authenticate against YouTube Music.
func (h *BrowserHeaders) Validate() error {
	if h.Cookie == "" {
		return fmt.Errorf("%w: curl command has no cookie; copy a request made while signed in", ErrInvalidArgument)
	}
	if !hasCookie(h.Cookie, "SAPISID") && !hasCookie(h.Cookie, "__Secure-3PAPISID") {
		return fmt.Errorf("%w: cookie is missing SAPISID; copy a request made while signed in", ErrInvalidArgument)
	}
	return nil
}

// HeadersRaw renders the headers as newline-separated "name: value" pairs, sorted by name,
// with the cookie last. This is the headers_raw input ytmusicapi's browser setup takes.
func (h *BrowserHeaders) HeadersRaw() string {
	names := make([]string, 0, len(h.Headers))
	for name := range h.Headers {
		names = append(names, name)
	}
	sort.Strings(names)

	lines := make([]string, 0, len(names)+1)
	for _, name := range names {
		lines = append(lines, name+": "+h.Headers[name])
	}
	if h.Cookie != "" {
		lines = append(lines, "cookie: "+h.Cookie)
	}
	return strings.Join(lines, "\n")
}

func firstGroup(m []string) string {
	if m[1] != "" {
		return m[1]
	}
	return m[2]
}

// hasCookie reports whether the cookie header sets name.
func hasCookie(header, name string) bool {
	for _, part := range strings.Split(header, ";") {
		if k, _, ok := strings.Cut(strings.TrimSpace(part), "="); ok && k == name {
			return true
		}
	}
	return false
}
