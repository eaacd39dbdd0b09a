package zulip

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Form   url.Values
	User   string
	Pass   string
}

// newTestClient starts a server that records the last request and replies with
// status and body.
func newTestClient(t *testing.T, status int, body string) (*Client, *capturedRequest) {
	t.Helper()

	got := &capturedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.Method = r.Method
		got.Path = r.URL.Path
		got.Query = r.URL.Query()
		got.User, got.Pass, _ = r.BasicAuth()
		if r.Method == http.MethodPost {
			raw, _ := io.ReadAll(r.Body)
			got.Form, _ = url.ParseQuery(string(raw))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)

	return New(srv.URL+"/", "bot@example.com", "secret", srv.Client()), got
}

func TestNewNormalizesBaseURL(t *testing.T) {
	assert.Equal(t, "https://chat.example.com/api/v1", New("https://chat.example.com/", "", "", nil).BaseURL)
	assert.Equal(t, "https://chat.example.com/api/v1", New("https://chat.example.com/api/v1/", "", "", nil).BaseURL)
}

func TestBasicAuth(t *testing.T) {
	c, got := newTestClient(t, http.StatusOK, `{"result":"success","msg":"","email":"bot@example.com"}`)

	raw, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/users/me", got.Path)
	assert.Equal(t, "bot@example.com", got.User)
	assert.Equal(t, "secret", got.Pass)
	assert.JSONEq(t, `{"result":"success","msg":"","email":"bot@example.com"}`, string(raw))
}

func TestListStreamsOmitsUnsetFlags(t *testing.T) {
	c, got := newTestClient(t, http.StatusOK, `{"result":"success","streams":[]}`)

	_, err := c.ListStreams(context.Background(), StreamFilter{})
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/streams", got.Path)
	assert.Empty(t, got.Query)

	off := false
	_, err = c.ListStreams(context.Background(), StreamFilter{IncludeSubscribed: &off})
	require.NoError(t, err)
	assert.Equal(t, url.Values{"include_subscribed": {"false"}}, got.Query)
}

func TestSendMessageForm(t *testing.T) {
	c, got := newTestClient(t, http.StatusOK, `{"result":"success","id":42}`)

	_, err := c.SendMessage(context.Background(), OutgoingMessage{
		Type: "stream", To: "general", Topic: "intro", Content: "hello",
	})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, "/api/v1/messages", got.Path)
	assert.Equal(t, "stream", got.Form.Get("type"))
	assert.Equal(t, "general", got.Form.Get("to"))
	assert.Equal(t, "intro", got.Form.Get("topic"))
	assert.Equal(t, "hello", got.Form.Get("content"))
}

func TestAddReactionPath(t *testing.T) {
	c, got := newTestClient(t, http.StatusOK, `{"result":"success"}`)

	_, err := c.AddReaction(context.Background(), 0, "tada")
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/messages/0/reactions", got.Path)
	assert.Equal(t, "tada", got.Form.Get("emoji_name"))
}

func TestGetMessagesNarrow(t *testing.T) {
	c, got := newTestClient(t, http.StatusOK, `{"result":"success","messages":[]}`)

	_, err := c.GetMessages(context.Background(), MessageQuery{
		Anchor:    "newest",
		NumBefore: 10,
		NumAfter:  10,
		Narrow:    []NarrowTerm{{Operator: "stream", Operand: "general"}, {Operator: "topic", Operand: "intro"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "newest", got.Query.Get("anchor"))
	assert.Equal(t, "10", got.Query.Get("num_before"))
	assert.Equal(t, "10", got.Query.Get("num_after"))
	assert.JSONEq(t, `[{"operator":"stream","operand":"general"},{"operator":"topic","operand":"intro"}]`, got.Query.Get("narrow"))
}

func TestGetStreamTopicsPath(t *testing.T) {
	c, got := newTestClient(t, http.StatusOK, `{"result":"success","topics":[]}`)

	_, err := c.GetStreamTopics(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/users/me/7/topics", got.Path)
}

func TestSubscribeForm(t *testing.T) {
	c, got := newTestClient(t, http.StatusOK, `{"result":"success"}`)

	_, err := c.Subscribe(context.Background(), []Subscription{{Name: "general"}})
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/users/me/subscriptions", got.Path)
	assert.JSONEq(t, `[{"name":"general"}]`, got.Form.Get("subscriptions"))
}

func TestAPIErrorFromEnvelope(t *testing.T) {
	c, _ := newTestClient(t, http.StatusBadRequest, `{"result":"error","msg":"Stream 'x' does not exist","code":"STREAM_DOES_NOT_EXIST"}`)

	_, err := c.GetUsers(context.Background())
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "STREAM_DOES_NOT_EXIST", apiErr.Code)
	assert.Contains(t, err.Error(), "Stream 'x' does not exist")
}

func TestAPIErrorResultOnSuccessStatus(t *testing.T) {
	c, _ := newTestClient(t, http.StatusOK, `{"result":"error","msg":"nope"}`)

	_, err := c.GetUsers(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope")
}

func TestUnauthorized(t *testing.T) {
	c, _ := newTestClient(t, http.StatusUnauthorized, `Unauthorized`)

	_, err := c.Me(context.Background())
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
	assert.Contains(t, err.Error(), "Unauthorized")
}

func TestRawBodyRoundTrip(t *testing.T) {
	body := `{"result":"success","msg":"","members":[{"user_id":1,"full_name":"Ada","is_bot":false}]}`
	c, _ := newTestClient(t, http.StatusOK, body)

	raw, err := c.GetUsers(context.Background())
	require.NoError(t, err)

	var want, have any
	require.NoError(t, json.Unmarshal([]byte(body), &want))
	require.NoError(t, json.Unmarshal(raw, &have))
	assert.Equal(t, want, have)
}
