package server

import (
	"encoding/json"

	"github.com/google/jsonschema-go/jsonschema"
)

// ArgType is the JSON type of a tool argument.
type ArgType string

const (
	TypeString  ArgType = "string"
	TypeInteger ArgType = "integer"
	TypeBoolean ArgType = "boolean"
	TypeArray   ArgType = "array" // of strings
)

// Arg describes one tool argument.
type Arg struct {
	Name        string
	Type        ArgType
	Description string
	Required    bool
	Default     any
}

// Tool describes an MCP tool and its input schema.
type Tool struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	InputSchema *jsonschema.Schema `json:"inputSchema"`

	args []Arg
}

// Args returns the argument table the input schema was built from.
func (t Tool) Args() []Arg { return t.args }

// Tool names.
const (
	ToolListChannels      = "zulip_list_channels"
	ToolPostMessage       = "zulip_post_message"
	ToolSendDirectMessage = "zulip_send_direct_message"
	ToolAddReaction       = "zulip_add_reaction"
	ToolGetChannelHistory = "zulip_get_channel_history"
	ToolGetTopics         = "zulip_get_topics"
	ToolSubscribe         = "zulip_subscribe_to_channel"
	ToolGetUsers          = "zulip_get_users"
)

var catalog = []Tool{
	newTool(ToolListChannels, "List the channels (streams) in the Zulip workspace.",
		Arg{Name: "include_private", Type: TypeBoolean, Description: "Include private channels", Default: false},
		Arg{Name: "include_web_public", Type: TypeBoolean, Description: "Include web-public channels", Default: true},
		Arg{Name: "include_subscribed", Type: TypeBoolean, Description: "Include channels the bot is subscribed to", Default: true},
	),
	newTool(ToolPostMessage, "Post a message to a Zulip channel topic.",
		Arg{Name: "channel_name", Type: TypeString, Description: "Name of the channel to post to", Required: true},
		Arg{Name: "topic", Type: TypeString, Description: "Topic within the channel", Required: true},
		Arg{Name: "content", Type: TypeString, Description: "Message content (Zulip markdown)", Required: true},
	),
	newTool(ToolSendDirectMessage, "Send a direct message to one or more users.",
		Arg{Name: "recipients", Type: TypeArray, Description: "Email addresses of the recipients", Required: true},
		Arg{Name: "content", Type: TypeString, Description: "Message content (Zulip markdown)", Required: true},
	),
	newTool(ToolAddReaction, "Add an emoji reaction to a message.",
		Arg{Name: "message_id", Type: TypeInteger, Description: "ID of the message to react to", Required: true},
		Arg{Name: "emoji_name", Type: TypeString, Description: "Emoji name without colons, e.g. thumbs_up", Required: true},
	),
	newTool(ToolGetChannelHistory, "Get recent messages from a channel topic.",
		Arg{Name: "channel_name", Type: TypeString, Description: "Name of the channel", Required: true},
		Arg{Name: "topic", Type: TypeString, Description: "Topic within the channel", Required: true},
		Arg{Name: "limit", Type: TypeInteger, Description: "Number of messages to fetch, split around the anchor", Default: 20},
		Arg{Name: "anchor", Type: TypeString, Description: "Message ID or one of newest, oldest, first_unread", Default: "newest"},
	),
	newTool(ToolGetTopics, "List the topics of a channel.",
		Arg{Name: "stream_id", Type: TypeInteger, Description: "ID of the channel", Required: true},
	),
	newTool(ToolSubscribe, "Subscribe the bot to a channel.",
		Arg{Name: "channel_name", Type: TypeString, Description: "Name of the channel to subscribe to", Required: true},
	),
	newTool(ToolGetUsers, "List the users in the Zulip workspace."),
}

// Catalog returns every supported tool in a stable order.
func Catalog() []Tool {
	out := make([]Tool, len(catalog))
	copy(out, catalog)
	return out
}

func lookupTool(name string) (Tool, bool) {
	for _, t := range catalog {
		if t.Name == name {
			return t, true
		}
	}
	return Tool{}, false
}

func newTool(name, description string, args ...Arg) Tool {
	schema := &jsonschema.Schema{
		Type:       "object",
		Properties: make(map[string]*jsonschema.Schema, len(args)),
	}
	for _, a := range args {
		prop := &jsonschema.Schema{Type: string(a.Type), Description: a.Description}
		if a.Type == TypeArray {
			prop.Items = &jsonschema.Schema{Type: "string"}
		}
		if a.Default != nil {
			def, err := json.Marshal(a.Default)
			if err != nil {
				panic(err)
			}
			prop.Default = def
		}
		schema.Properties[a.Name] = prop
		if a.Required {
			schema.Required = append(schema.Required, a.Name)
		}
	}
	return Tool{Name: name, Description: description, InputSchema: schema, args: args}
}
