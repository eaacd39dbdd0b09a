package server

import (
	"context"
	"encoding/json"
)

type listChannelsInput struct {
	IncludePrivate    bool `json:"include_private"`
	IncludeWebPublic  bool `json:"include_web_public"`
	IncludeSubscribed bool `json:"include_subscribed"`
}

type postMessageInput struct {
	ChannelName string `json:"channel_name"`
	Topic       string `json:"topic"`
	Content     string `json:"content"`
}

type directMessageInput struct {
	Recipients []string `json:"recipients"`
	Content    string   `json:"content"`
}

type reactionInput struct {
	MessageID int64  `json:"message_id"`
	EmojiName string `json:"emoji_name"`
}

type channelHistoryInput struct {
	ChannelName string `json:"channel_name"`
	Topic       string `json:"topic"`
	Limit       int    `json:"limit"`
	Anchor      string `json:"anchor"`
}

type topicsInput struct {
	StreamID int64 `json:"stream_id"`
}

type subscribeInput struct {
	ChannelName string `json:"channel_name"`
}

type noInput struct{}

// handlers binds every catalog tool to its facade operation.
func handlers() map[string]handler {
	return map[string]handler{
		ToolListChannels: bind(func(ctx context.Context, f *Facade, in listChannelsInput) (json.RawMessage, error) {
			return f.ListStreams(ctx, in.IncludePrivate, in.IncludeWebPublic, in.IncludeSubscribed)
		}),
		ToolPostMessage: bind(func(ctx context.Context, f *Facade, in postMessageInput) (json.RawMessage, error) {
			return f.PostStreamMessage(ctx, in.ChannelName, in.Topic, in.Content)
		}),
		ToolSendDirectMessage: bind(func(ctx context.Context, f *Facade, in directMessageInput) (json.RawMessage, error) {
			return f.SendDirectMessage(ctx, in.Recipients, in.Content)
		}),
		ToolAddReaction: bind(func(ctx context.Context, f *Facade, in reactionInput) (json.RawMessage, error) {
			return f.AddReaction(ctx, in.MessageID, in.EmojiName)
		}),
		ToolGetChannelHistory: bind(func(ctx context.Context, f *Facade, in channelHistoryInput) (json.RawMessage, error) {
			return f.FetchChannelHistory(ctx, in.ChannelName, in.Topic, in.Limit, in.Anchor)
		}),
		ToolGetTopics: bind(func(ctx context.Context, f *Facade, in topicsInput) (json.RawMessage, error) {
			return f.ListTopics(ctx, in.StreamID)
		}),
		ToolSubscribe: bind(func(ctx context.Context, f *Facade, in subscribeInput) (json.RawMessage, error) {
			return f.SubscribeToStream(ctx, in.ChannelName)
		}),
		ToolGetUsers: bind(func(ctx context.Context, f *Facade, _ noInput) (json.RawMessage, error) {
			return f.ListUsers(ctx)
		}),
	}
}
