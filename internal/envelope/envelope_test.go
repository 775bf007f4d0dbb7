package envelope

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/endedge/chatglue/internal/history"
)

func TestEncodePromptRoundTrip(t *testing.T) {
	recent := []history.Turn{
		{Role: history.RoleUser, Content: "hello"},
		{Role: history.RoleAssistant, Content: "hi!"},
	}
	raw, err := EncodePrompt(recent, `{"message":"how are you?"}`)
	if err != nil {
		t.Fatalf("EncodePrompt() error = %v", err)
	}

	var round Prompt
	if err := json.Unmarshal([]byte(raw), &round); err != nil {
		t.Fatalf("encoded prompt is not valid JSON: %v", err)
	}
	if len(round.ChatHistory) != 2 || round.ChatHistory[0] != recent[0] || round.ChatHistory[1] != recent[1] {
		t.Fatalf("chat_history mismatch: %v", round.ChatHistory)
	}
	if round.CurrentMessage != `{"message":"how are you?"}` {
		t.Fatalf("current_message mismatch: %q", round.CurrentMessage)
	}
}

func TestEncodePromptEmptyHistoryIsArray(t *testing.T) {
	raw, err := EncodePrompt(nil, "msg")
	if err != nil {
		t.Fatalf("EncodePrompt() error = %v", err)
	}
	if !strings.Contains(raw, `"chat_history":[]`) {
		t.Fatalf("empty history should encode as [], got %s", raw)
	}
}

func TestEncodePromptPreservesNonASCII(t *testing.T) {
	raw, err := EncodePrompt([]history.Turn{{Role: history.RoleUser, Content: "你好"}}, "今天天气")
	if err != nil {
		t.Fatalf("EncodePrompt() error = %v", err)
	}
	if !strings.Contains(raw, "你好") || !strings.Contains(raw, "今天天气") {
		t.Fatalf("non-ASCII was escaped: %s", raw)
	}
}

func TestDecodeResponseFullObject(t *testing.T) {
	resp, err := DecodeResponse(`{"should_reply": true, "reply_content": "hi", "source_agent": "echo", "debug_info": {"k": "v"}}`)
	if err != nil {
		t.Fatalf("DecodeResponse() error = %v", err)
	}
	if !resp.ShouldReply || resp.ReplyContent != "hi" || resp.SourceAgent != "echo" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.DebugInfo["k"] != "v" {
		t.Fatalf("debug_info = %v", resp.DebugInfo)
	}
}

func TestDecodeResponseDefaults(t *testing.T) {
	resp, err := DecodeResponse(`{"should_reply": true, "reply_content": "hi"}`)
	if err != nil {
		t.Fatalf("DecodeResponse() error = %v", err)
	}
	if !resp.ShouldReply || resp.ReplyContent != "hi" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.SourceAgent != "" || resp.DebugInfo != nil {
		t.Fatalf("optional fields should default absent: %+v", resp)
	}
}

func TestDecodeResponseWrongTypesDefault(t *testing.T) {
	resp, err := DecodeResponse(`{"should_reply": "yes", "reply_content": 7}`)
	if err != nil {
		t.Fatalf("DecodeResponse() error = %v", err)
	}
	if resp.ShouldReply {
		t.Fatalf("wrong-typed should_reply must default to false")
	}
	if resp.ReplyContent != "" {
		t.Fatalf("wrong-typed reply_content must default to empty, got %q", resp.ReplyContent)
	}
}

func TestDecodeResponseRejectsNonJSON(t *testing.T) {
	_, err := DecodeResponse("Sure, here is my answer!")
	if !errors.Is(err, ErrParse) {
		t.Fatalf("error = %v, want ErrParse", err)
	}
}

func TestDecodeResponseRejectsNonObject(t *testing.T) {
	for _, raw := range []string{`[1,2]`, `"text"`, `42`, `null`} {
		_, err := DecodeResponse(raw)
		if !errors.Is(err, ErrParse) {
			t.Fatalf("DecodeResponse(%q) error = %v, want ErrParse", raw, err)
		}
	}
}
