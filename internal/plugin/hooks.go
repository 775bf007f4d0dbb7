package plugin

import (
	"context"
	"log"

	"github.com/endedge/chatglue/internal/envelope"
	"github.com/endedge/chatglue/internal/history"
	"github.com/endedge/chatglue/internal/message"
)

// ProviderRequest is the mutable pre-request hook payload for hosts that own
// the provider call themselves. RewriteRequest fills SystemPrompt and
// ConversationID in place.
type ProviderRequest struct {
	Origin         string         `json:"origin"`
	ConversationID string         `json:"conversation_id,omitempty"`
	Sender         message.Sender `json:"sender"`
	Parts          []message.Part `json:"parts"`
	Prompt         string         `json:"prompt"`
	SystemPrompt   string         `json:"system_prompt,omitempty"`
}

// ProviderResponse is the mutable post-response hook payload. RewriteResponse
// replaces Text with the reply to deliver, or empties it to suppress output.
type ProviderResponse struct {
	Origin         string `json:"origin"`
	ConversationID string `json:"conversation_id"`
	Text           string `json:"text"`
}

// RewriteRequest is the split-flow counterpart of HandleMessage steps 2-4:
// it builds the prompt envelope into the outgoing request and records the
// user turn. The host performs the provider call and delivery.
func (s *Service) RewriteRequest(ctx context.Context, req *ProviderRequest) {
	conversationID := s.resolveConversation(req.Origin, req.ConversationID)
	req.ConversationID = conversationID

	snapshot := s.readDegraded(ctx, req.Origin, conversationID)

	current, err := message.BuildOutline(req.Sender, req.Parts).Encode()
	if err != nil {
		log.Printf("conversation %s: encode outline: %v", conversationID, err)
		return
	}

	systemPrompt, err := envelope.EncodePrompt(history.RecentSlice(snapshot, s.promptTurns), current)
	if err != nil {
		log.Printf("conversation %s: encode prompt envelope: %v", conversationID, err)
		return
	}
	req.SystemPrompt = systemPrompt

	s.appendTurn(ctx, req.Origin, conversationID, history.Turn{
		Role:    history.RoleUser,
		Content: current,
	})
}

// RewriteResponse is the split-flow counterpart of step 6: it decodes the
// completion and substitutes the reply text, clearing it when the decision
// is not to reply or the completion cannot be decoded.
func (s *Service) RewriteResponse(ctx context.Context, resp *ProviderResponse) {
	decoded, err := envelope.DecodeResponse(resp.Text)
	if err != nil {
		s.metrics.CountDecodeFailure()
		log.Printf("conversation %s: decode completion: %v", resp.ConversationID, err)
		resp.Text = ""
		return
	}

	if !decoded.ShouldReply || decoded.ReplyContent == "" {
		resp.Text = ""
		return
	}

	resp.Text = decoded.ReplyContent
	conversationID := s.resolveConversation(resp.Origin, resp.ConversationID)
	s.appendTurn(ctx, resp.Origin, conversationID, history.Turn{
		Role:    history.RoleAssistant,
		Content: decoded.ReplyContent,
	})
	s.metrics.CountReply()
}
