package server

import (
	"context"
	"encoding/json"
	"fmt"

	"zulip-mcp/internal/zulip"
)

// Remote is the Zulip connection the facade drives. *zulip.Client implements it.
type Remote interface {
	ListStreams(ctx context.Context, f zulip.StreamFilter) (json.RawMessage, error)
	SendMessage(ctx context.Context, m zulip.OutgoingMessage) (json.RawMessage, error)
	AddReaction(ctx context.Context, messageID int64, emojiName string) (json.RawMessage, error)
	GetMessages(ctx context.Context, q zulip.MessageQuery) (json.RawMessage, error)
	GetStreamTopics(ctx context.Context, streamID int64) (json.RawMessage, error)
	Subscribe(ctx context.Context, subs []zulip.Subscription) (json.RawMessage, error)
	GetUsers(ctx context.Context) (json.RawMessage, error)
}

// Facade offers one narrow method per supported operation. It never retries;
// remote failures come back as *Error of KindRemote with the cause attached.
type Facade struct {
	remote Remote
}

// NewFacade returns a Facade over an already connected remote.
func NewFacade(remote Remote) *Facade {
	return &Facade{remote: remote}
}

// ListStreams lists streams. A flag is only sent when it differs from its default
// (private off, web-public on, subscribed on).
func (f *Facade) ListStreams(ctx context.Context, includePrivate, includeWebPublic, includeSubscribed bool) (json.RawMessage, error) {
	var filter zulip.StreamFilter
	if includePrivate {
		filter.IncludeAllActive = &includePrivate
	}
	if !includeWebPublic {
		filter.IncludeWebPublic = &includeWebPublic
	}
	if !includeSubscribed {
		filter.IncludeSubscribed = &includeSubscribed
	}
	res, err := f.remote.ListStreams(ctx, filter)
	if err != nil {
		return nil, remoteError("list streams", err)
	}
	return res, nil
}

// PostStreamMessage posts content to a topic of the named stream.
func (f *Facade) PostStreamMessage(ctx context.Context, streamName, topic, content string) (json.RawMessage, error) {
	res, err := f.remote.SendMessage(ctx, zulip.OutgoingMessage{
		Type:    "stream",
		To:      streamName,
		Topic:   topic,
		Content: content,
	})
	if err != nil {
		return nil, remoteError("post message", err)
	}
	return res, nil
}

// SendDirectMessage sends content as a direct message to recipients, one email each.
func (f *Facade) SendDirectMessage(ctx context.Context, recipients []string, content string) (json.RawMessage, error) {
	to, err := json.Marshal(recipients)
	if err != nil {
		return nil, remoteError("send direct message", err)
	}
	res, err := f.remote.SendMessage(ctx, zulip.OutgoingMessage{
		Type:    "private",
		To:      string(to),
		Content: content,
	})
	if err != nil {
		return nil, remoteError("send direct message", err)
	}
	return res, nil
}

// AddReaction reacts to a message with the named emoji.
func (f *Facade) AddReaction(ctx context.Context, messageID int64, emojiName string) (json.RawMessage, error) {
	res, err := f.remote.AddReaction(ctx, messageID, emojiName)
	if err != nil {
		return nil, remoteError("add reaction", err)
	}
	return res, nil
}

// FetchChannelHistory resolves streamName against the bot's stream listing, then
// reads one page of the topic around anchor. limit is split evenly with floor
// division, so an odd limit returns at most limit-1 messages.
func (f *Facade) FetchChannelHistory(ctx context.Context, streamName, topic string, limit int, anchor string) (json.RawMessage, error) {
	if _, err := f.resolveStream(ctx, streamName); err != nil {
		return nil, err
	}
	half := limit / 2
	res, err := f.remote.GetMessages(ctx, zulip.MessageQuery{
		Anchor:    anchor,
		NumBefore: half,
		NumAfter:  half,
		Narrow: []zulip.NarrowTerm{
			{Operator: "stream", Operand: streamName},
			{Operator: "topic", Operand: topic},
		},
	})
	if err != nil {
		return nil, remoteError("get messages", err)
	}
	return res, nil
}

// ListTopics lists the topics of a stream.
func (f *Facade) ListTopics(ctx context.Context, streamID int64) (json.RawMessage, error) {
	res, err := f.remote.GetStreamTopics(ctx, streamID)
	if err != nil {
		return nil, remoteError("get topics", err)
	}
	return res, nil
}

// SubscribeToStream subscribes the bot to the named stream.
func (f *Facade) SubscribeToStream(ctx context.Context, streamName string) (json.RawMessage, error) {
	res, err := f.remote.Subscribe(ctx, []zulip.Subscription{{Name: streamName}})
	if err != nil {
		return nil, remoteError("subscribe", err)
	}
	return res, nil
}

// ListUsers lists the users of the realm.
func (f *Facade) ListUsers(ctx context.Context) (json.RawMessage, error) {
	res, err := f.remote.GetUsers(ctx)
	if err != nil {
		return nil, remoteError("get users", err)
	}
	return res, nil
}

// resolveStream returns the id of the stream named exactly name. It lists with
// the server defaults (public, web-public and subscribed, which covers private
// streams the bot can read), since include_all_active is admin-only.
func (f *Facade) resolveStream(ctx context.Context, name string) (int64, error) {
	raw, err := f.ListStreams(ctx, false, true, true)
	if err != nil {
		return 0, err
	}
	var listing struct {
		Streams []struct {
			ID   int64  `json:"stream_id"`
			Name string `json:"name"`
		} `json:"streams"`
	}
	if err := json.Unmarshal(raw, &listing); err != nil {
		return 0, remoteError("list streams", fmt.Errorf("decode streams: %w", err))
	}
	for _, s := range listing.Streams {
		if s.Name == name {
			return s.ID, nil
		}
	}
	return 0, notFoundError("Stream not found: %s", name)
}
