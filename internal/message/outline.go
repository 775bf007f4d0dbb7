package message

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Outline is the flattened rendering of a structured message: a single text
// line plus sender identity and any messages quoted by reply parts.
type Outline struct {
	Nickname string          `json:"nickname"`
	UserID   string          `json:"user_id"`
	Quoted   []QuotedMessage `json:"reply_messages"`
	Text     string          `json:"message"`
}

// BuildOutline flattens parts in order. Every part contributes its rendering
// followed by a single space; the final text is trimmed. Reply parts carrying
// text render nothing inline and instead land in the quoted sidecar. Unknown
// part types degrade to a bracketed tag, never an error.
func BuildOutline(sender Sender, parts []Part) Outline {
	var b strings.Builder
	quoted := make([]QuotedMessage, 0, 1)

	for _, p := range parts {
		switch p.Type {
		case TypePlain:
			b.WriteString(p.Text)
		case TypeMention:
			b.WriteString("@" + p.Name)
		case TypeMentionAll:
			b.WriteString("@everyone")
		case TypeForward:
			b.WriteString("[forwarded message]")
		case TypeReply:
			if p.QuotedText != "" {
				quoted = append(quoted, QuotedMessage{
					Nickname: p.QuotedNickname,
					UserID:   p.QuotedID,
					Text:     p.QuotedText,
				})
			}
		default:
			b.WriteString(fmt.Sprintf("[%s]", p.Type))
		}
		b.WriteString(" ")
	}

	return Outline{
		Nickname: sender.Nickname,
		UserID:   sender.UserID,
		Quoted:   quoted,
		Text:     strings.TrimSpace(b.String()),
	}
}

// Encode serializes the outline as the current-message payload handed to the
// prompt envelope. Non-ASCII characters are preserved literally.
func (o Outline) Encode() (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(o); err != nil {
		return "", fmt.Errorf("encode outline: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}
