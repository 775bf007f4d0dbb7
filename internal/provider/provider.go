// Package provider adapts external LLM completion backends behind a single
// Completer interface.
package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Request carries one completion call. SystemPrompt holds the encoded prompt
// envelope; Prompt holds the raw user text, matching the placement the chat
// host expects.
type Request struct {
	Prompt       string
	SystemPrompt string
}

// Completer produces a raw completion for a request. Implementations return
// the provider's text untouched; decoding happens upstream.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Config controls adapter construction.
type Config struct {
	Mode    string
	APIKey  string
	BaseURL string
	Model   string
	HTTPURL string
	Timeout time.Duration
}

func New(cfg Config) (Completer, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = "auto"
	}

	switch mode {
	case "auto":
		if strings.TrimSpace(cfg.APIKey) != "" {
			return NewOpenAICompleter(cfg), nil
		}
		if strings.TrimSpace(cfg.HTTPURL) != "" {
			return NewHTTPCompleter(cfg.HTTPURL, cfg.Timeout), nil
		}
		return NewMockCompleter(), nil
	case "openai":
		if strings.TrimSpace(cfg.APIKey) == "" {
			return nil, errors.New("provider API key is required for openai mode")
		}
		return NewOpenAICompleter(cfg), nil
	case "http":
		if strings.TrimSpace(cfg.HTTPURL) == "" {
			return nil, errors.New("provider HTTP url is required for http mode")
		}
		return NewHTTPCompleter(cfg.HTTPURL, cfg.Timeout), nil
	case "mock":
		return NewMockCompleter(), nil
	default:
		return nil, fmt.Errorf("unsupported provider mode %q", cfg.Mode)
	}
}
