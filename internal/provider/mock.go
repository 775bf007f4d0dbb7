package provider

import (
	"context"
	"encoding/json"
)

// MockCompleter returns deterministic structured responses when no real
// provider is configured. It echoes the user text so local runs exercise the
// whole decode-and-reply path.
type MockCompleter struct{}

func NewMockCompleter() *MockCompleter { return &MockCompleter{} }

func (c *MockCompleter) Complete(ctx context.Context, req Request) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	raw, err := json.Marshal(map[string]any{
		"should_reply":  true,
		"reply_content": "I heard you: " + req.Prompt,
		"source_agent":  "mock",
	})
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
