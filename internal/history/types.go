package history

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Turn is one role-tagged message in a conversation's history. Turns are
// immutable once created; updates replace the whole sequence.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrMalformed reports a stored history payload that is not a valid JSON
// turn array. Callers treat it as an empty history rather than failing the
// conversation.
var ErrMalformed = errors.New("history: malformed stored payload")

// Decode parses a serialized history into turns. An empty payload is an
// empty history.
func Decode(raw []byte) ([]Turn, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var turns []Turn
	if err := json.Unmarshal(raw, &turns); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return turns, nil
}

// Encode serializes turns oldest-first as a JSON array, the layout the
// external store persists.
func Encode(turns []Turn) ([]byte, error) {
	if turns == nil {
		turns = []Turn{}
	}
	raw, err := json.Marshal(turns)
	if err != nil {
		return nil, fmt.Errorf("encode history: %w", err)
	}
	return raw, nil
}

// RecentSlice returns the last n turns, or all of them if fewer exist. The
// result aliases the input; callers must not mutate it.
func RecentSlice(turns []Turn, n int) []Turn {
	if n <= 0 {
		return nil
	}
	if len(turns) <= n {
		return turns
	}
	return turns[len(turns)-n:]
}

// Append adds a turn and drops the oldest entries beyond max. It returns a
// fresh slice and never mutates its input.
func Append(turns []Turn, t Turn, max int) []Turn {
	out := make([]Turn, 0, len(turns)+1)
	out = append(out, turns...)
	out = append(out, t)
	if max > 0 && len(out) > max {
		out = out[len(out)-max:]
	}
	return out
}
