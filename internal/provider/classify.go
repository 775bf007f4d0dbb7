package provider

import (
	"context"
	"errors"
	"fmt"
	"net"

	openai "github.com/sashabaranov/go-openai"
)

// Classify maps a provider error onto a short stable code used as a metrics
// label. Label cardinality stays bounded: codes are the taxonomy below plus
// HTTP status buckets.
func Classify(err error) string {
	if err == nil {
		return "none"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return statusCode(apiErr.HTTPStatusCode)
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusCode(statusErr.Status)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return "timeout"
		}
		return "network"
	}

	return "unknown"
}

func statusCode(status int) string {
	switch status {
	case 429:
		return "rate_limited"
	case 401, 403:
		return "auth"
	}
	if status >= 500 {
		return "upstream"
	}
	return fmt.Sprintf("http_%d", status)
}
