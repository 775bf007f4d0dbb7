package history

import "context"

// Store persists serialized conversation histories. The contract is
// wholesale replacement: Replace overwrites whatever was stored for the
// conversation, with no merge semantics. Histories are keyed by the message
// origin plus the conversation id resolved for it.
type Store interface {
	// Load returns the serialized history, or nil when none exists yet.
	Load(ctx context.Context, origin, conversationID string) ([]byte, error)
	// Replace stores exactly this payload as the conversation's history.
	Replace(ctx context.Context, origin, conversationID string, payload []byte) error
	Close() error
}
