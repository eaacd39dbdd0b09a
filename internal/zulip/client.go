// Package zulip provides a minimal client for the Zulip REST API.
package zulip

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// UserAgent is sent with every request.
var UserAgent = "zulip-mcp/dev"

// Client is a minimal HTTP client for a single Zulip realm, authenticated as one bot.
type Client struct {
	BaseURL string
	Email   string
	APIKey  string
	HTTP    *http.Client
}

// New returns a new client. If httpClient is nil, a default with 30s timeout is used.
// baseURL may point at the realm root or at its /api/v1 prefix.
func New(baseURL, email, apiKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{BaseURL: apiRoot(baseURL), Email: email, APIKey: apiKey, HTTP: httpClient}
}

func apiRoot(baseURL string) string {
	u := strings.TrimRight(baseURL, "/")
	if !strings.HasSuffix(u, "/api/v1") {
		u += "/api/v1"
	}
	return u
}

// StreamFilter selects which streams GET /streams returns. Nil fields are not sent,
// leaving the server default in place.
type StreamFilter struct {
	IncludeAllActive  *bool
	IncludeWebPublic  *bool
	IncludeSubscribed *bool
}

// OutgoingMessage is a stream or direct message to send.
type OutgoingMessage struct {
	Type    string // "stream" or "private"
	To      string // stream name, or JSON array of recipient emails
	Topic   string
	Content string
}

// NarrowTerm is one operator/operand pair of a message search narrow.
type NarrowTerm struct {
	Operator string `json:"operator"`
	Operand  string `json:"operand"`
}

// MessageQuery parameters for GET /messages.
type MessageQuery struct {
	Anchor    string
	NumBefore int
	NumAfter  int
	Narrow    []NarrowTerm
}

// Subscription names a stream to subscribe to.
type Subscription struct {
	Name string `json:"name"`
}

// Me fetches the authenticated user's profile. It doubles as a credential check.
func (c *Client) Me(ctx context.Context) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, "/users/me", nil)
}

// ListStreams returns the streams visible to the bot, filtered by f.
func (c *Client) ListStreams(ctx context.Context, f StreamFilter) (json.RawMessage, error) {
	q := url.Values{}
	setBool(q, "include_all_active", f.IncludeAllActive)
	setBool(q, "include_web_public", f.IncludeWebPublic)
	setBool(q, "include_subscribed", f.IncludeSubscribed)
	return c.do(ctx, http.MethodGet, "/streams", q)
}

// SendMessage posts a stream or direct message.
func (c *Client) SendMessage(ctx context.Context, m OutgoingMessage) (json.RawMessage, error) {
	form := url.Values{}
	form.Set("type", m.Type)
	form.Set("to", m.To)
	if m.Topic != "" {
		form.Set("topic", m.Topic)
	}
	form.Set("content", m.Content)
	return c.do(ctx, http.MethodPost, "/messages", form)
}

// AddReaction adds an emoji reaction to a message.
func (c *Client) AddReaction(ctx context.Context, messageID int64, emojiName string) (json.RawMessage, error) {
	form := url.Values{}
	form.Set("emoji_name", emojiName)
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/messages/%d/reactions", messageID), form)
}

// GetMessages fetches one page of messages around an anchor.
func (c *Client) GetMessages(ctx context.Context, mq MessageQuery) (json.RawMessage, error) {
	q := url.Values{}
	q.Set("anchor", mq.Anchor)
	q.Set("num_before", fmt.Sprintf("%d", mq.NumBefore))
	q.Set("num_after", fmt.Sprintf("%d", mq.NumAfter))
	if len(mq.Narrow) > 0 {
		narrow, err := json.Marshal(mq.Narrow)
		if err != nil {
			return nil, fmt.Errorf("encode narrow: %w", err)
		}
		q.Set("narrow", string(narrow))
	}
	return c.do(ctx, http.MethodGet, "/messages", q)
}

// GetStreamTopics lists the topics of a stream.
func (c *Client) GetStreamTopics(ctx context.Context, streamID int64) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, fmt.Sprintf("/users/me/%d/topics", streamID), nil)
}

// Subscribe subscribes the bot to the given streams, creating them if allowed.
func (c *Client) Subscribe(ctx context.Context, subs []Subscription) (json.RawMessage, error) {
	raw, err := json.Marshal(subs)
	if err != nil {
		return nil, fmt.Errorf("encode subscriptions: %w", err)
	}
	form := url.Values{}
	form.Set("subscriptions", string(raw))
	return c.do(ctx, http.MethodPost, "/users/me/subscriptions", form)
}

// GetUsers lists all users in the realm.
func (c *Client) GetUsers(ctx context.Context) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, "/users", nil)
}

// do issues one request. GET parameters go in the query string, everything else
// is form-encoded. The raw response body is returned on success.
func (c *Client) do(ctx context.Context, method, path string, params url.Values) (json.RawMessage, error) {
	reqURL := c.BaseURL + path
	var body io.Reader
	if method == http.MethodGet {
		if len(params) > 0 {
			reqURL += "?" + params.Encode()
		}
	} else if params != nil {
		body = strings.NewReader(params.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.Email, c.APIKey)
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return decodeResponse(resp.StatusCode, raw)
}

// decodeResponse checks the status and the Zulip result envelope.
func decodeResponse(status int, raw []byte) (json.RawMessage, error) {
	var env struct {
		Result string `json:"result"`
		Msg    string `json:"msg"`
		Code   string `json:"code"`
	}
	jsonErr := json.Unmarshal(raw, &env)
	if status < 200 || status >= 300 || env.Result == "error" {
		apiErr := &APIError{Status: status, Code: env.Code, Msg: env.Msg}
		if jsonErr != nil || apiErr.Msg == "" {
			apiErr.Msg = strings.TrimSpace(string(truncate(raw, 200)))
		}
		return nil, apiErr
	}
	if jsonErr != nil {
		return nil, fmt.Errorf("decode response: %w", jsonErr)
	}
	return json.RawMessage(bytes.TrimSpace(raw)), nil
}

func setBool(q url.Values, key string, v *bool) {
	if v == nil {
		return
	}
	if *v {
		q.Set(key, "true")
	} else {
		q.Set(key, "false")
	}
}

func truncate(b []byte, n int) []byte {
	if len(b) > n {
		return b[:n]
	}
	return b
}
