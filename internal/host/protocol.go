// Package host connects the plugin service to the chat host's websocket
// plugin gateway and exchanges JSON frames with it.
package host

import "github.com/endedge/chatglue/internal/message"

// FrameType identifies gateway payload variants.
type FrameType string

const (
	TypeMessageEvent FrameType = "message_event"
	TypeReply        FrameType = "reply"
)

// Envelope carries only the discriminator; frames are decoded a second time
// into their concrete type once it is known.
type Envelope struct {
	Type FrameType `json:"type"`
}

// MessageEventFrame is one inbound chat message pushed by the host.
type MessageEventFrame struct {
	Type           FrameType      `json:"type"`
	EventID        string         `json:"event_id"`
	Origin         string         `json:"origin"`
	ConversationID string         `json:"conversation_id,omitempty"`
	Sender         message.Sender `json:"sender"`
	Parts          []message.Part `json:"parts"`
	PlainText      string         `json:"plain_text"`
}

// ReplyFrame is the plugin's verdict for one event. Handled tells the host
// to suppress its default downstream processing; Text is empty when no
// message should be sent.
type ReplyFrame struct {
	Type        FrameType `json:"type"`
	EventID     string    `json:"event_id"`
	Handled     bool      `json:"handled"`
	Text        string    `json:"text,omitempty"`
	SourceAgent string    `json:"source_agent,omitempty"`
}
