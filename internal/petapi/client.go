// Package petapi implements the HTTP client for the conversation store.
//
// The client covers the /pet surface of the store:
//   - GET  /pet/conversations               - full collection plus unread count
//   - GET  /pet/conversations/unread        - unread-only collection
//   - GET  /pet/conversations/unread/count  - badge counter
//   - POST /pet/conversations/{id}/read     - mark one read
//   - POST /pet/conversations/read-all      - mark all read
//   - POST /pet/conversations/{id}/summarize
//   - POST /pet/summarize-all
//   - GET  /health
package petapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultTimeout is the fixed per-call HTTP timeout. A timed-out call fails
// like any other network failure; no partial response is accepted.
const DefaultTimeout = 30 * time.Second

// maxResponseSize limits response body reads to prevent memory exhaustion.
const maxResponseSize = 10 * 1024 * 1024 // 10MB

// Error represents an HTTP-level error response from the conversation store.
type Error struct {
	StatusCode int
	Body       string
}

func (e *Error) Error() string {
	return fmt.Sprintf("conversation store error (status %d): %s", e.StatusCode, e.Body)
}

// PermissionError is a remote permission/domain denial reported in-band by
// the store (e.g. calendar or reminders access not granted) rather than as
// an HTTP failure.
type PermissionError struct {
	Message string
}

func (e *PermissionError) Error() string {
	return "permission required: " + e.Message
}

// IsPermission reports whether err is a remote permission denial.
func IsPermission(err error) bool {
	var pe *PermissionError
	return errors.As(err, &pe)
}

// Client is the conversation store HTTP client.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the store at baseURL with the fixed default timeout.
func New(baseURL string) *Client {
	return NewWithTimeout(baseURL, DefaultTimeout)
}

// NewWithTimeout creates a client with an explicit timeout. Tests use short
// timeouts; production callers should use New.
func NewWithTimeout(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// BaseURL returns the store base URL the client was created with.
func (c *Client) BaseURL() string { return c.baseURL }

// Conversations fetches the complete conversation collection and the
// server's unread count.
func (c *Client) Conversations(ctx context.Context) (*ConversationsResponse, error) {
	var resp ConversationsResponse
	if err := c.get(ctx, "/pet/conversations", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UnreadConversations fetches only the conversations still marked unread.
func (c *Client) UnreadConversations(ctx context.Context) (*ConversationsResponse, error) {
	var resp ConversationsResponse
	if err := c.get(ctx, "/pet/conversations/unread", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UnreadCount fetches the badge counter only.
func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	var resp UnreadCountResponse
	if err := c.get(ctx, "/pet/conversations/unread/count", &resp); err != nil {
		return 0, err
	}
	return resp.UnreadCount, nil
}

// MarkRead marks a single conversation as read.
func (c *Client) MarkRead(ctx context.Context, id string) error {
	var resp AckResponse
	path := fmt.Sprintf("/pet/conversations/%s/read", url.PathEscape(id))
	if err := c.post(ctx, path, &resp); err != nil {
		return err
	}
	return ackError(&resp)
}

// MarkAllRead marks every conversation as read.
func (c *Client) MarkAllRead(ctx context.Context) error {
	var resp AckResponse
	if err := c.post(ctx, "/pet/conversations/read-all", &resp); err != nil {
		return err
	}
	return ackError(&resp)
}

// Summarize requests a structured summary for one conversation.
func (c *Client) Summarize(ctx context.Context, id string) (*Summary, error) {
	var resp SummarizeResponse
	path := fmt.Sprintf("/pet/conversations/%s/summarize", url.PathEscape(id))
	if err := c.post(ctx, path, &resp); err != nil {
		return nil, err
	}
	if resp.Summary == nil {
		return nil, fmt.Errorf("summarize %s: empty summary in response", id)
	}
	return resp.Summary, nil
}

// SummarizeAll requests summaries for every conversation that lacks one.
// Per-conversation failures are the server's to report; the caller
// reconciles afterwards regardless.
func (c *Client) SummarizeAll(ctx context.Context) (*SummarizeAllResponse, error) {
	var resp SummarizeAllResponse
	if err := c.post(ctx, "/pet/summarize-all", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Health probes the store's health endpoint.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.get(ctx, "/health", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ackError converts an in-band ack failure into an error. Permission
// denials get their own type so the UI can render a distinct state.
func ackError(ack *AckResponse) error {
	if ack.Success {
		return nil
	}
	if ack.PermissionRequired {
		return &PermissionError{Message: ack.Error}
	}
	if ack.Error != "" {
		return errors.New(ack.Error)
	}
	return errors.New("conversation store rejected the request")
}

func (c *Client) get(ctx context.Context, path string, respBody any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return c.do(req, respBody)
}

func (c *Client) post(ctx context.Context, path string, respBody any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader([]byte("{}")))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return c.do(req, respBody)
}

func (c *Client) do(req *http.Request, respBody any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// Read maxResponseSize+1 to detect oversized responses while still
	// accepting responses exactly at the limit.
	respBodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize+1))
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if int64(len(respBodyBytes)) > maxResponseSize {
		return fmt.Errorf("response exceeds maximum size of %d bytes", maxResponseSize)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Error{
			StatusCode: resp.StatusCode,
			Body:       string(respBodyBytes),
		}
	}

	if err := json.Unmarshal(respBodyBytes, respBody); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
