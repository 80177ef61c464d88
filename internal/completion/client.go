// Package completion writes completed sessions back to the sheet owner.
package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/claude/repcycle/internal/calendar"
	"github.com/claude/repcycle/internal/models"
)

// Request marks one sheet row as completed on a given date.
type Request struct {
	Group    models.Group `json:"sheetName"`
	RowIndex int          `json:"rowIndex"`
	Date     string       `json:"date"`
}

// NewRequest builds the write-back request for session, dated today.
func NewRequest(session models.Session, now time.Time) Request {
	return Request{
		Group:    session.Group,
		RowIndex: session.RowIndex,
		Date:     calendar.FormatISO(calendar.Today(now)),
	}
}

// Key returns the session the request refers to.
func (r Request) Key() models.Key {
	return models.Key{Group: r.Group, RowIndex: r.RowIndex}
}

type response struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

const defaultFailure = "the write-back endpoint returned an error"

// WriteBackError reports a completion the sheet owner did not confirm.
type WriteBackError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *WriteBackError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("write-back failed: %v", e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("write-back failed (status %d): %s", e.StatusCode, e.Message)
	}
	return "write-back failed: " + e.Message
}

func (e *WriteBackError) Unwrap() error { return e.Err }

// Client posts completion requests to the write-back endpoint.
type Client struct {
	url        string
	httpClient *http.Client
}

// NewClient creates a client for the endpoint at url. A zero timeout
// defaults to 30 seconds.
func NewClient(url string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Send POSTs req and waits for confirmation. It never retries; callers
// decide whether to try again.
func (c *Client) Send(ctx context.Context, req Request) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(data))
	if err != nil {
		return &WriteBackError{Err: fmt.Errorf("create request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return &WriteBackError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &WriteBackError{StatusCode: resp.StatusCode, Err: fmt.Errorf("reading response: %w", err)}
	}

	var result response
	decodeErr := json.Unmarshal(body, &result)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := result.Message
		if decodeErr != nil || msg == "" {
			msg = defaultFailure
		}
		return &WriteBackError{StatusCode: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return &WriteBackError{StatusCode: resp.StatusCode, Err: fmt.Errorf("decoding response: %w", decodeErr)}
	}
	if result.Status != "success" {
		msg := result.Message
		if msg == "" {
			msg = defaultFailure
		}
		return &WriteBackError{Message: msg}
	}
	return nil
}
