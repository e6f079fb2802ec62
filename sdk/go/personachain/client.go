// Package personachain provides a small Go client for the PersonaChain REST
// API: submitting inbound messages and reading session history.
package personachain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"time"
)

// DefaultHTTPTimeout defines the timeout used by clients created without a
// custom http.Client. It is intentionally short to avoid hanging network calls.
const DefaultHTTPTimeout = 15 * time.Second

// Client wraps the HTTP interactions with the PersonaChain REST API.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

// SendMessageRequest is the payload for submitting an inbound message.
type SendMessageRequest struct {
	SessionID string `json:"session_id"`
	Sender    string `json:"sender,omitempty"`
	Owner     string `json:"owner,omitempty"`
	Body      string `json:"body"`
}

// Receipt acknowledges that a message was accepted for processing.
type Receipt struct {
	RequestID string `json:"request_id"`
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
}

// Message is one entry of a session's message log.
type Message struct {
	SessionID string            `json:"session_id"`
	Seq       int64             `json:"seq"`
	Author    string            `json:"author"`
	Body      string            `json:"body"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	ExpiresAt int64             `json:"expires_at,omitempty"`
}

// APIError represents server side validation or internal errors.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("personachain api error (%d): %s", e.StatusCode, e.Message)
}

// NewClient instantiates a client for the PersonaChain API. When httpClient is
// nil, a default client with a sensible timeout is used.
func NewClient(rawURL string, httpClient *http.Client) (*Client, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultHTTPTimeout}
	}
	return &Client{baseURL: parsed, httpClient: httpClient}, nil
}

// SendMessage submits an inbound message for asynchronous processing.
func (c *Client) SendMessage(ctx context.Context, req SendMessageRequest) (Receipt, error) {
	var receipt Receipt
	if err := c.post(ctx, "/api/v1/messages", req, &receipt); err != nil {
		return Receipt{}, err
	}
	return receipt, nil
}

// SessionMessages fetches the message log of a session. A limit of zero asks
// for the server default window.
func (c *Client) SessionMessages(ctx context.Context, sessionID string, limit int) ([]Message, error) {
	endpoint := fmt.Sprintf("/api/v1/sessions/%s/messages", url.PathEscape(sessionID))
	if limit > 0 {
		endpoint += "?limit=" + strconv.Itoa(limit)
	}
	var resp struct {
		SessionID string    `json:"session_id"`
		Messages  []Message `json:"messages"`
	}
	if err := c.get(ctx, endpoint, &resp); err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

func (c *Client) post(ctx context.Context, endpoint string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, endpoint string, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, body io.Reader) (*http.Request, error) {
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}
	parsed.Path = path.Join(c.baseURL.Path, parsed.Path)
	u := c.baseURL.ResolveReference(parsed)
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read error response: %w", err)
		}
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(bytes.TrimSpace(data)),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
