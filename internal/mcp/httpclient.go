package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/claude/repcycle/internal/ingest"
	"github.com/claude/repcycle/internal/journal"
	"github.com/claude/repcycle/internal/tracker"
)

// HTTPClient implements DataSource by calling the repcycle REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// the tracker lives on the remote server (accessed over Tailscale).
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL. apiKey is
// sent on mutating requests when set.
func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// APIError is a non-200 answer from the REST API.
type APIError struct {
	Path       string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("httpclient: %s returned %d: %s", e.Path, e.StatusCode, e.Message)
}

// Is lets callers test remote errors against the local sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case tracker.ErrNotLoaded:
		return e.StatusCode == http.StatusServiceUnavailable
	case tracker.ErrRetrainDisabled:
		return e.StatusCode == http.StatusNotImplemented
	}
	return false
}

func (c *HTTPClient) do(ctx context.Context, method, path string, params url.Values, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return fmt.Errorf("httpclient: create request: %w", err)
	}
	if method != http.MethodGet && c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("httpclient: read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{Path: path, StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
		var payload struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
			apiErr.Message = payload.Error
		}
		return apiErr
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("httpclient: decode %s: %w", path, err)
	}
	return nil
}

func (c *HTTPClient) Load(ctx context.Context) (*ingest.Result, error) {
	var result ingest.Result
	if err := c.do(ctx, http.MethodPost, "/api/v1/reload", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) Current(ctx context.Context) (*tracker.WorkoutView, error) {
	var v tracker.WorkoutView
	if err := c.do(ctx, http.MethodGet, "/api/v1/workout", nil, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (c *HTTPClient) Skip(ctx context.Context) (*tracker.WorkoutView, error) {
	var v tracker.WorkoutView
	if err := c.do(ctx, http.MethodPost, "/api/v1/workout/skip", nil, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (c *HTTPClient) Complete(ctx context.Context) (*tracker.CompletionView, error) {
	var v tracker.CompletionView
	if err := c.do(ctx, http.MethodPost, "/api/v1/workout/complete", nil, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (c *HTTPClient) FindNext(ctx context.Context, offset int) (*tracker.NextView, error) {
	params := url.Values{}
	params.Set("offset", strconv.Itoa(offset))

	var v tracker.NextView
	if err := c.do(ctx, http.MethodGet, "/api/v1/workout/next", params, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (c *HTTPClient) Dashboard(ctx context.Context) (*tracker.DashboardView, error) {
	var d tracker.DashboardView
	if err := c.do(ctx, http.MethodGet, "/api/v1/dashboard", nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *HTTPClient) Status(ctx context.Context) (*tracker.StatusView, error) {
	var st tracker.StatusView
	if err := c.do(ctx, http.MethodGet, "/api/v1/status", nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (c *HTTPClient) Journal(ctx context.Context, limit int) ([]journal.Entry, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))

	var entries []journal.Entry
	if err := c.do(ctx, http.MethodGet, "/api/v1/journal", params, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *HTTPClient) Retrain(ctx context.Context) (*tracker.RetrainView, error) {
	var v tracker.RetrainView
	if err := c.do(ctx, http.MethodPost, "/api/v1/difficulty/retrain", nil, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// IsRetrainDisabled reports whether err means no retrain job is configured.
func IsRetrainDisabled(err error) bool {
	return errors.Is(err, tracker.ErrRetrainDisabled)
}

// IsNotLoaded reports whether err means the remote tracker has no data yet.
func IsNotLoaded(err error) bool {
	return errors.Is(err, tracker.ErrNotLoaded)
}
