package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPCompleter forwards requests to a generic JSON completion endpoint:
// POST {prompt, system_prompt} in, JSON object (or raw text) out.
type HTTPCompleter struct {
	url    string
	client *http.Client
}

// StatusError reports a non-2xx response from the completion endpoint.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("provider http status %d: %s", e.Status, e.Body)
}

func NewHTTPCompleter(url string, timeout time.Duration) *HTTPCompleter {
	return &HTTPCompleter{
		url: strings.TrimSpace(url),
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

type httpCompletionRequest struct {
	Prompt       string `json:"prompt"`
	SystemPrompt string `json:"system_prompt,omitempty"`
}

func (c *HTTPCompleter) Complete(ctx context.Context, req Request) (string, error) {
	payload, err := json.Marshal(httpCompletionRequest{
		Prompt:       req.Prompt,
		SystemPrompt: req.SystemPrompt,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	res, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return "", &StatusError{Status: res.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err != nil {
		// Plain-text endpoint; hand the body through as the completion.
		return strings.TrimSpace(string(body)), nil
	}
	return extractText(obj, string(body)), nil
}

// extractText pulls the completion string out of common response shapes.
// When no known key matches, the whole body flows through so the decoder can
// judge it.
func extractText(obj map[string]any, fallback string) string {
	for _, key := range []string{"completion_text", "text", "completion", "content"} {
		if v, ok := obj[key].(string); ok && v != "" {
			return v
		}
	}
	return fallback
}
