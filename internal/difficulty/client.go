// Package difficulty triggers the job that retrains the per-group difficulty
// model and writes ML_Predicted_Difficulty back into every sheet.
package difficulty

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// RetrainError reports a retrain the job did not finish.
type RetrainError struct {
	StatusCode int
	Report     string
	Err        error
}

func (e *RetrainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("difficulty retrain failed: %v", e.Err)
	}
	return fmt.Sprintf("difficulty retrain failed (status %d): %s", e.StatusCode, e.Report)
}

func (e *RetrainError) Unwrap() error { return e.Err }

// Client posts retrain requests to the difficulty job.
type Client struct {
	url        string
	httpClient *http.Client
}

// NewClient creates a client for the job at url. Training runs for a while,
// so a zero timeout defaults to two minutes.
func NewClient(url string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Client{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Retrain runs the job and returns its plain-text report, one block per
// group. Groups the job skipped are part of the report, not an error.
func (c *Client) Retrain(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, nil)
	if err != nil {
		return "", &RetrainError{Err: fmt.Errorf("create request: %w", err)}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &RetrainError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &RetrainError{StatusCode: resp.StatusCode, Err: fmt.Errorf("reading response: %w", err)}
	}
	report := strings.TrimSpace(string(body))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &RetrainError{StatusCode: resp.StatusCode, Report: report}
	}
	return report, nil
}
