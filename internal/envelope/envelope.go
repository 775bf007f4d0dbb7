// Package envelope builds the JSON prompt payload handed to the LLM
// provider and parses the structured JSON reply coming back.
package envelope

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/endedge/chatglue/internal/history"
)

// Prompt is the payload the provider receives as its system prompt: the
// recent window of the conversation plus the current message outline.
type Prompt struct {
	ChatHistory    []history.Turn `json:"chat_history"`
	CurrentMessage string         `json:"current_message"`
}

// EncodePrompt serializes the prompt envelope. Non-ASCII and HTML-significant
// characters are preserved literally so the provider sees the text as typed.
func EncodePrompt(recent []history.Turn, currentMessage string) (string, error) {
	p := Prompt{ChatHistory: recent, CurrentMessage: currentMessage}
	if p.ChatHistory == nil {
		p.ChatHistory = []history.Turn{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(p); err != nil {
		return "", fmt.Errorf("encode prompt envelope: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// ErrParse reports a completion that is not a JSON object. The orchestration
// layer clears any pending reply and logs; the failure never reaches the user.
var ErrParse = errors.New("envelope: completion is not a JSON object")

// StructuredResponse is the provider's decoded decision. Absent or
// wrong-typed fields take their zero defaults; only a non-object completion
// is an error.
type StructuredResponse struct {
	ShouldReply  bool
	ReplyContent string
	SourceAgent  string
	DebugInfo    map[string]any
}

// DecodeResponse parses raw completion text into a StructuredResponse.
func DecodeResponse(raw string) (StructuredResponse, error) {
	var top any
	if err := json.Unmarshal([]byte(raw), &top); err != nil {
		return StructuredResponse{}, fmt.Errorf("%w: %v", ErrParse, err)
	}
	obj, ok := top.(map[string]any)
	if !ok {
		return StructuredResponse{}, fmt.Errorf("%w: top-level %T", ErrParse, top)
	}

	var resp StructuredResponse
	if v, ok := obj["should_reply"].(bool); ok {
		resp.ShouldReply = v
	}
	if v, ok := obj["reply_content"].(string); ok {
		resp.ReplyContent = v
	}
	if v, ok := obj["source_agent"].(string); ok {
		resp.SourceAgent = v
	}
	if v, ok := obj["debug_info"].(map[string]any); ok {
		resp.DebugInfo = v
	}
	return resp, nil
}
