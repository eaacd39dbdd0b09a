package server

import (
	"context"
	"encoding/json"

	"zulip-mcp/internal/zulip"
)

// stubRemote records the last call of each kind and replies with canned bodies.
type stubRemote struct {
	streams json.RawMessage
	reply   json.RawMessage
	err     error

	calls      []string
	filters    []zulip.StreamFilter
	sent       *zulip.OutgoingMessage
	reactionID *int64
	emoji      string
	query      *zulip.MessageQuery
	topicsFor  int64
	subs       []zulip.Subscription
}

func newStub() *stubRemote {
	return &stubRemote{
		streams: json.RawMessage(`{"result":"success","msg":"","streams":[{"name":"general","stream_id":7}]}`),
		reply:   json.RawMessage(`{"result":"success","msg":""}`),
	}
}

func (s *stubRemote) ListStreams(_ context.Context, f zulip.StreamFilter) (json.RawMessage, error) {
	s.calls = append(s.calls, "ListStreams")
	s.filters = append(s.filters, f)
	if s.err != nil {
		return nil, s.err
	}
	return s.streams, nil
}

func (s *stubRemote) SendMessage(_ context.Context, m zulip.OutgoingMessage) (json.RawMessage, error) {
	s.calls = append(s.calls, "SendMessage")
	s.sent = &m
	return s.reply, s.err
}

func (s *stubRemote) AddReaction(_ context.Context, id int64, emoji string) (json.RawMessage, error) {
	s.calls = append(s.calls, "AddReaction")
	s.reactionID = &id
	s.emoji = emoji
	return s.reply, s.err
}

func (s *stubRemote) GetMessages(_ context.Context, q zulip.MessageQuery) (json.RawMessage, error) {
	s.calls = append(s.calls, "GetMessages")
	s.query = &q
	return s.reply, s.err
}

func (s *stubRemote) GetStreamTopics(_ context.Context, id int64) (json.RawMessage, error) {
	s.calls = append(s.calls, "GetStreamTopics")
	s.topicsFor = id
	return s.reply, s.err
}

func (s *stubRemote) Subscribe(_ context.Context, subs []zulip.Subscription) (json.RawMessage, error) {
	s.calls = append(s.calls, "Subscribe")
	s.subs = subs
	return s.reply, s.err
}

func (s *stubRemote) GetUsers(_ context.Context) (json.RawMessage, error) {
	s.calls = append(s.calls, "GetUsers")
	return s.reply, s.err
}
