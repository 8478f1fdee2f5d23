// HTTP client for the YouTube Music proxy

package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/desertthunder/sp2yt/internal/shared"
)

const (
	defaultProxyURL     = "http://127.0.0.1:8080"
	defaultProxyTimeout = 60 * time.Second
	authFileHeader      = "X-Auth-File"
)

// APIService makes JSON requests to the local FastAPI proxy that wraps ytmusicapi.
//
// When an auth file is set its path is sent with every request in the X-Auth-File header.
type APIService struct {
	baseURL    string
	authFile   string
	httpClient *http.Client
}

// NewAPIService creates a proxy client. An empty baseURL selects the default local proxy.
func NewAPIService(baseURL string, client *http.Client) *APIService {
	if baseURL == "" {
		baseURL = defaultProxyURL
	}
	if client == nil {
		client = &http.Client{Timeout: defaultProxyTimeout}
	}

	return &APIService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
	}
}

// BaseURL returns the proxy address requests are sent to.
func (a *APIService) BaseURL() string {
	return a.baseURL
}

// SetAuthFile sets the browser auth file path forwarded to the proxy.
func (a *APIService) SetAuthFile(path string) {
	a.authFile = path
}

// APIResponse is a raw proxy response.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// OK reports whether the response has a 2xx status.
func (r *APIResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Decode unmarshals the JSON body into v.
func (r *APIResponse) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("%w: malformed proxy response: %v", shared.ErrAPIRequest, err)
	}
	return nil
}

// Err returns nil for a 2xx response, otherwise an error wrapping the shared error for the status
// and carrying the proxy's "detail" message when present.
func (r *APIResponse) Err() error {
	if r.OK() {
		return nil
	}

	var body struct {
		Detail any `json:"detail"`
	}
	detail := strings.TrimSpace(string(r.Body))
	if err := json.Unmarshal(r.Body, &body); err == nil && body.Detail != nil {
		if s, ok := body.Detail.(string); ok {
			detail = s
		} else if b, err := json.Marshal(body.Detail); err == nil {
			detail = string(b)
		}
	}
	if detail == "" {
		detail = http.StatusText(r.StatusCode)
	}
	return fmt.Errorf("%w: youtube music proxy (status %d): %s", classifyStatus(r.StatusCode), r.StatusCode, detail)
}

// Get performs a GET request to path.
func (a *APIService) Get(ctx context.Context, path string) (*APIResponse, error) {
	return a.do(ctx, http.MethodGet, path, nil)
}

// Post performs a POST request with payload encoded as JSON.
func (a *APIService) Post(ctx context.Context, path string, payload any) (*APIResponse, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	return a.do(ctx, http.MethodPost, path, data)
}

func (a *APIService) do(ctx context.Context, method, path string, body []byte) (*APIResponse, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if a.authFile != "" {
		req.Header.Set(authFileHeader, a.authFile)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: youtube music proxy at %s: %v", shared.ErrServiceUnavailable, a.baseURL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", shared.ErrAPIRequest, err)
	}

	return &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       data,
	}, nil
}

// call performs a request and decodes a successful JSON response into result, which may be nil.
func (a *APIService) call(ctx context.Context, method, path string, payload, result any) error {
	var (
		resp *APIResponse
		err  error
	)
	if method == http.MethodGet {
		resp, err = a.Get(ctx, path)
	} else {
		resp, err = a.Post(ctx, path, payload)
	}
	if err != nil {
		return err
	}
	if err := resp.Err(); err != nil {
		return err
	}
	if result == nil || len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil
	}
	return resp.Decode(result)
}

// Health checks that the proxy is up.
func (a *APIService) Health(ctx context.Context) error {
	resp, err := a.Get(ctx, "/health")
	if err != nil {
		return err
	}
	if !resp.OK() {
		return fmt.Errorf("%w: youtube music proxy health check returned %d", shared.ErrServiceUnavailable, resp.StatusCode)
	}
	return nil
}

// SetupResponse is the proxy's answer to a browser auth setup request.
type SetupResponse struct {
	Success     bool           `json:"success"`
	Message     string         `json:"message"`
	AuthContent map[string]any `json:"auth_content"`
}

// SetupBrowser asks the proxy to turn raw browser headers into ytmusicapi browser auth content.
func (a *APIService) SetupBrowser(ctx context.Context, headersRaw string) (*SetupResponse, error) {
	if strings.TrimSpace(headersRaw) == "" {
		return nil, fmt.Errorf("%w: headers are empty", shared.ErrInvalidArgument)
	}

	var resp SetupResponse
	payload := map[string]string{"headers_raw": headersRaw}
	if err := a.call(ctx, http.MethodPost, "/api/setup", payload, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		msg := resp.Message
		if msg == "" {
			msg = "proxy reported failure"
		}
		return nil, fmt.Errorf("%w: %s", shared.ErrAuthFailed, msg)
	}
	if len(resp.AuthContent) == 0 {
		return nil, errors.New("proxy returned no auth content")
	}
	return &resp, nil
}
