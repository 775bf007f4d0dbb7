// Package plugin ties the outline builder, history window, prompt envelope,
// and response decoder into the per-event orchestration flow.
package plugin

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/endedge/chatglue/internal/convlock"
	"github.com/endedge/chatglue/internal/envelope"
	"github.com/endedge/chatglue/internal/history"
	"github.com/endedge/chatglue/internal/message"
	"github.com/endedge/chatglue/internal/observability"
	"github.com/endedge/chatglue/internal/provider"
)

// Event is one inbound chat message, already decomposed by the host.
type Event struct {
	Origin         string
	ConversationID string
	Sender         message.Sender
	Parts          []message.Part
	// PlainText is the host's flat rendering, used for command detection and
	// as the provider's user prompt.
	PlainText string
}

// Reply is the zero-or-one outgoing message produced for an event.
type Reply struct {
	Text        string
	SourceAgent string
}

// Config tunes the orchestration flow.
type Config struct {
	CommandPrefix string
	PromptTurns   int
	MaxTurns      int
}

// Service runs the message pipeline. One Service is shared by the gateway
// handler and the HTTP hook endpoints.
type Service struct {
	commandPrefix string
	promptTurns   int
	maxTurns      int

	conversations *conversationRegistry
	hist          *history.Manager
	locks         *convlock.Registry
	completer     provider.Completer
	metrics       *observability.Metrics
}

func NewService(cfg Config, hist *history.Manager, locks *convlock.Registry, completer provider.Completer, metrics *observability.Metrics) *Service {
	if cfg.CommandPrefix == "" {
		cfg.CommandPrefix = "/"
	}
	if cfg.PromptTurns <= 0 {
		cfg.PromptTurns = 15
	}
	if cfg.MaxTurns <= 0 {
		cfg.MaxTurns = 200
	}
	return &Service{
		commandPrefix: cfg.CommandPrefix,
		promptTurns:   cfg.PromptTurns,
		maxTurns:      cfg.MaxTurns,
		conversations: newConversationRegistry(),
		hist:          hist,
		locks:         locks,
		completer:     completer,
		metrics:       metrics,
	}
}

// HandleMessage runs the full flow for one event. The returned handled flag
// tells the host whether to suppress its default processing: false only for
// command invocations, true otherwise even when no reply is produced.
// Failures along the pipeline degrade to "no reply" and are never surfaced
// to the user.
func (s *Service) HandleMessage(ctx context.Context, ev Event) (*Reply, bool) {
	if strings.HasPrefix(ev.PlainText, s.commandPrefix) {
		s.metrics.CountEvent(observability.OutcomeSkipped)
		return nil, false
	}

	conversationID := s.resolveConversation(ev.Origin, ev.ConversationID)

	// Snapshot for the prompt is taken outside the guard; the critical
	// section covers only read-append-persist, never the provider call.
	snapshot := s.readDegraded(ctx, ev.Origin, conversationID)

	current, err := message.BuildOutline(ev.Sender, ev.Parts).Encode()
	if err != nil {
		log.Printf("conversation %s: encode outline: %v", conversationID, err)
		s.metrics.CountEvent(observability.OutcomeSilent)
		return nil, true
	}

	systemPrompt, err := envelope.EncodePrompt(history.RecentSlice(snapshot, s.promptTurns), current)
	if err != nil {
		log.Printf("conversation %s: encode prompt envelope: %v", conversationID, err)
		s.metrics.CountEvent(observability.OutcomeSilent)
		return nil, true
	}

	s.appendTurn(ctx, ev.Origin, conversationID, history.Turn{Role: history.RoleUser, Content: current})

	start := time.Now()
	raw, err := s.completer.Complete(ctx, provider.Request{
		Prompt:       ev.PlainText,
		SystemPrompt: systemPrompt,
	})
	s.metrics.ObserveProviderLatency(time.Since(start))
	if err != nil {
		s.metrics.CountProviderError(provider.Classify(err))
		log.Printf("conversation %s: provider call failed: %v", conversationID, err)
		s.metrics.CountEvent(observability.OutcomeSilent)
		return nil, true
	}

	decoded, err := envelope.DecodeResponse(raw)
	if err != nil {
		s.metrics.CountDecodeFailure()
		log.Printf("conversation %s: decode completion: %v", conversationID, err)
		s.metrics.CountEvent(observability.OutcomeSilent)
		return nil, true
	}

	if !decoded.ShouldReply || decoded.ReplyContent == "" {
		s.metrics.CountEvent(observability.OutcomeSilent)
		return nil, true
	}

	s.appendTurn(ctx, ev.Origin, conversationID, history.Turn{
		Role:    history.RoleAssistant,
		Content: decoded.ReplyContent,
	})
	s.metrics.CountReply()
	s.metrics.CountEvent(observability.OutcomeReplied)

	return &Reply{Text: decoded.ReplyContent, SourceAgent: decoded.SourceAgent}, true
}

func (s *Service) resolveConversation(origin, conversationID string) string {
	if id := strings.TrimSpace(conversationID); id != "" {
		return id
	}
	return s.conversations.Resolve(origin)
}

// readDegraded treats every read failure as an empty history so a single
// malformed payload never blocks the conversation.
func (s *Service) readDegraded(ctx context.Context, origin, conversationID string) []history.Turn {
	turns, err := s.hist.Read(ctx, origin, conversationID)
	if err != nil {
		if errors.Is(err, history.ErrMalformed) {
			s.metrics.CountMalformedHistory()
		}
		log.Printf("conversation %s: read history: %v (treating as empty)", conversationID, err)
		return nil
	}
	return turns
}

// appendTurn runs one read-append-persist cycle entirely under the
// conversation's guard.
func (s *Service) appendTurn(ctx context.Context, origin, conversationID string, t history.Turn) {
	release := s.locks.Acquire(conversationID)
	defer release()
	s.metrics.SetTrackedLocks(s.locks.Len())

	turns := s.readDegraded(ctx, origin, conversationID)
	turns = history.Append(turns, t, s.maxTurns)
	if err := s.hist.Persist(ctx, origin, conversationID, turns); err != nil {
		log.Printf("conversation %s: persist history: %v", conversationID, err)
	}
}
