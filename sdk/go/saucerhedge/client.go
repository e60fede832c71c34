package saucerhedge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"
)

// DefaultHTTPTimeout defines the timeout used by clients created without a
// custom http.Client. It is intentionally short to avoid hanging network calls.
const DefaultHTTPTimeout = 15 * time.Second

// Client wraps the HTTP interactions with the SaucerHedge agent REST API.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

// Turn is a single message in a conversation history.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the payload for a conversational turn.
type ChatRequest struct {
	UserID  string `json:"user_id,omitempty"`
	Message string `json:"message"`
	History []Turn `json:"history,omitempty"`
}

// ChatResponse is the agent's reply to a single turn.
type ChatResponse struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	TxHash    string    `json:"tx_hash,omitempty"`
	ToolUsed  string    `json:"tool_used,omitempty"`
}

// HistoryResponse holds a user's stored conversation history.
type HistoryResponse struct {
	UserID  string `json:"user_id"`
	History []Turn `json:"history"`
}

// AuthURLResponse carries the Vincent delegation URL for a user.
type AuthURLResponse struct {
	AuthURL string `json:"auth_url"`
}

// LogEntry is one audit log record.
type LogEntry struct {
	ID             string    `json:"id"`
	Timestamp      time.Time `json:"timestamp"`
	UserID         string    `json:"user_id"`
	UserMessage    string    `json:"user_message"`
	ToolUsed       string    `json:"tool_used,omitempty"`
	Outcome        string    `json:"outcome"`
	DurationMillis int64     `json:"duration_ms"`
}

// LogsResponse holds a page of audit log records.
type LogsResponse struct {
	Logs  []LogEntry `json:"logs"`
	Count int        `json:"count"`
}

// Stats reports agent level counters.
type Stats struct {
	TotalTurns          uint64 `json:"total_turns"`
	ActiveConversations int    `json:"active_conversations"`
}

// APIError represents server side validation or internal errors.
type APIError struct {
	StatusCode int
	Message    string `json:"error"`
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("saucerhedge api error (%d): %s", e.StatusCode, e.Message)
}

// NewClient instantiates a client for the SaucerHedge agent API. When
// httpClient is nil, a default client with a sensible timeout is used.
func NewClient(rawURL string, httpClient *http.Client) *Client {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		panic(fmt.Sprintf("invalid base url: %v", err))
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultHTTPTimeout}
	}
	return &Client{baseURL: parsed, httpClient: httpClient}
}

// Chat sends a message and returns the agent's reply.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	var resp ChatResponse
	if err := c.post(ctx, "/api/v1/chat", req, &resp); err != nil {
		return ChatResponse{}, err
	}
	return resp, nil
}

// History fetches the stored conversation history for a user.
func (c *Client) History(ctx context.Context, userID string) (HistoryResponse, error) {
	var resp HistoryResponse
	endpoint := "/api/v1/chat/history?user_id=" + url.QueryEscape(userID)
	if err := c.get(ctx, endpoint, &resp); err != nil {
		return HistoryResponse{}, err
	}
	return resp, nil
}

// ClearHistory drops the stored conversation history for a user.
func (c *Client) ClearHistory(ctx context.Context, userID string) error {
	endpoint := "/api/v1/chat/history?user_id=" + url.QueryEscape(userID)
	req, err := c.newRequest(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// AuthURL requests a Vincent delegation URL for the given wallet address.
func (c *Client) AuthURL(ctx context.Context, userAddress string) (AuthURLResponse, error) {
	var resp AuthURLResponse
	payload := map[string]string{"user_address": userAddress}
	if err := c.post(ctx, "/api/v1/auth/url", payload, &resp); err != nil {
		return AuthURLResponse{}, err
	}
	return resp, nil
}

// Logs fetches recent audit log entries, optionally filtered by user.
func (c *Client) Logs(ctx context.Context, userID string, limit int) (LogsResponse, error) {
	var resp LogsResponse
	query := url.Values{}
	if userID != "" {
		query.Set("user_id", userID)
	}
	if limit > 0 {
		query.Set("limit", fmt.Sprintf("%d", limit))
	}
	endpoint := "/api/v1/logs"
	if encoded := query.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}
	if err := c.get(ctx, endpoint, &resp); err != nil {
		return LogsResponse{}, err
	}
	return resp, nil
}

// Stats fetches agent level counters.
func (c *Client) Stats(ctx context.Context) (Stats, error) {
	var resp Stats
	if err := c.get(ctx, "/api/v1/stats", &resp); err != nil {
		return Stats{}, err
	}
	return resp, nil
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
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}
	rel := &url.URL{Path: path.Join(c.baseURL.Path, parsed.Path), RawQuery: parsed.RawQuery}
	u := c.baseURL.ResolveReference(rel)
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
		apiErr := &APIError{StatusCode: resp.StatusCode}
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read error response: %w", err)
		}
		if len(data) > 0 {
			_ = json.Unmarshal(data, apiErr)
		}
		if apiErr.Message == "" {
			apiErr.Message = string(bytes.TrimSpace(data))
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
