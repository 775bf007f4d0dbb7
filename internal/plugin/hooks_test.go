package plugin

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/endedge/chatglue/internal/history"
	"github.com/endedge/chatglue/internal/message"
)

func TestRewriteRequestBuildsEnvelopeAndRecordsUserTurn(t *testing.T) {
	svc, hist := newTestService(&scriptedCompleter{}, history.NewInMemoryStore())
	ctx := context.Background()

	req := &ProviderRequest{
		Origin: "group:2",
		Sender: message.Sender{UserID: "u2", Nickname: "bob"},
		Parts: []message.Part{
			{Type: message.TypePlain, Text: "morning"},
			{Type: message.TypeMention, Name: "ann"},
		},
		Prompt: "morning @ann",
	}
	svc.RewriteRequest(ctx, req)

	if req.ConversationID == "" {
		t.Fatalf("RewriteRequest must resolve a conversation id")
	}

	var prompt struct {
		ChatHistory    []history.Turn `json:"chat_history"`
		CurrentMessage string         `json:"current_message"`
	}
	if err := json.Unmarshal([]byte(req.SystemPrompt), &prompt); err != nil {
		t.Fatalf("system prompt is not a JSON envelope: %v", err)
	}
	if len(prompt.ChatHistory) != 0 {
		t.Fatalf("fresh conversation should have empty chat_history: %v", prompt.ChatHistory)
	}

	var outline map[string]any
	if err := json.Unmarshal([]byte(prompt.CurrentMessage), &outline); err != nil {
		t.Fatalf("current_message is not an encoded outline: %v", err)
	}
	if outline["message"] != "morning @ann" {
		t.Fatalf("outline message = %v", outline["message"])
	}

	turns, err := hist.Read(ctx, req.Origin, req.ConversationID)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(turns) != 1 || turns[0].Role != history.RoleUser {
		t.Fatalf("user turn not recorded: %v", turns)
	}
}

func TestRewriteRequestReusesConversationAcrossCalls(t *testing.T) {
	svc, _ := newTestService(&scriptedCompleter{}, history.NewInMemoryStore())
	ctx := context.Background()

	first := &ProviderRequest{Origin: "group:3", Prompt: "one"}
	svc.RewriteRequest(ctx, first)
	second := &ProviderRequest{Origin: "group:3", Prompt: "two"}
	svc.RewriteRequest(ctx, second)

	if first.ConversationID != second.ConversationID {
		t.Fatalf("same origin resolved to different conversations: %q vs %q",
			first.ConversationID, second.ConversationID)
	}

	var prompt struct {
		ChatHistory []history.Turn `json:"chat_history"`
	}
	if err := json.Unmarshal([]byte(second.SystemPrompt), &prompt); err != nil {
		t.Fatalf("system prompt is not a JSON envelope: %v", err)
	}
	if len(prompt.ChatHistory) != 1 {
		t.Fatalf("second request should see the first user turn, got %v", prompt.ChatHistory)
	}
}

func TestRewriteResponseSubstitutesReplyAndRecordsTurn(t *testing.T) {
	svc, hist := newTestService(&scriptedCompleter{}, history.NewInMemoryStore())
	ctx := context.Background()

	resp := &ProviderResponse{
		Origin:         "group:4",
		ConversationID: "c4",
		Text:           `{"should_reply": true, "reply_content": "sure thing"}`,
	}
	svc.RewriteResponse(ctx, resp)

	if resp.Text != "sure thing" {
		t.Fatalf("Text = %q, want substituted reply", resp.Text)
	}

	turns, err := hist.Read(ctx, "group:4", "c4")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(turns) != 1 || turns[0].Role != history.RoleAssistant || turns[0].Content != "sure thing" {
		t.Fatalf("assistant turn not recorded: %v", turns)
	}
}

func TestRewriteResponseClearsTextWhenNotReplying(t *testing.T) {
	svc, hist := newTestService(&scriptedCompleter{}, history.NewInMemoryStore())
	ctx := context.Background()

	resp := &ProviderResponse{
		Origin:         "group:5",
		ConversationID: "c5",
		Text:           `{"should_reply": false, "reply_content": "hidden"}`,
	}
	svc.RewriteResponse(ctx, resp)
	if resp.Text != "" {
		t.Fatalf("Text = %q, want cleared", resp.Text)
	}

	turns, _ := hist.Read(ctx, "group:5", "c5")
	if len(turns) != 0 {
		t.Fatalf("no turn should be recorded when not replying: %v", turns)
	}
}

func TestRewriteResponseClearsTextOnUndecodableCompletion(t *testing.T) {
	svc, _ := newTestService(&scriptedCompleter{}, history.NewInMemoryStore())

	resp := &ProviderResponse{
		Origin:         "group:6",
		ConversationID: "c6",
		Text:           "plain prose, not JSON",
	}
	svc.RewriteResponse(context.Background(), resp)
	if resp.Text != "" {
		t.Fatalf("Text = %q, want cleared on parse failure", resp.Text)
	}
}
