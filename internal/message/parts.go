package message

// PartType identifies message part variants as delivered by the host.
type PartType string

const (
	TypePlain      PartType = "plain"
	TypeMention    PartType = "mention"
	TypeMentionAll PartType = "mention_all"
	TypeForward    PartType = "forward"
	TypeReply      PartType = "reply"
)

// Part is one segment of a decomposed chat message. The Type field
// discriminates which of the remaining fields are meaningful; types outside
// the known set are carried through and rendered as a bracketed tag.
type Part struct {
	Type PartType `json:"type"`

	// Plain text.
	Text string `json:"text,omitempty"`

	// Mention target display name.
	Name string `json:"name,omitempty"`

	// Quoted-reply payload.
	QuotedID       string `json:"quoted_id,omitempty"`
	QuotedNickname string `json:"quoted_nickname,omitempty"`
	QuotedText     string `json:"quoted_text,omitempty"`
}

// Sender identifies who sent the message, attached separately from the parts.
type Sender struct {
	UserID   string `json:"user_id"`
	Nickname string `json:"nickname"`
}

// QuotedMessage is one quoted message lifted out of a reply part.
type QuotedMessage struct {
	Nickname string `json:"nickname"`
	UserID   string `json:"user_id"`
	Text     string `json:"message"`
}
