package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNewAutoFallsBackToMock(t *testing.T) {
	c, err := New(Config{Mode: "auto"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	raw, err := c.Complete(context.Background(), Request{Prompt: "hello"})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		t.Fatalf("mock completion is not JSON: %v", err)
	}
	if obj["should_reply"] != true {
		t.Fatalf("mock should_reply = %v", obj["should_reply"])
	}
	if !strings.Contains(obj["reply_content"].(string), "hello") {
		t.Fatalf("mock reply_content = %v", obj["reply_content"])
	}
}

func TestNewRejectsUnknownMode(t *testing.T) {
	if _, err := New(Config{Mode: "carrier-pigeon"}); err == nil {
		t.Fatalf("New() should reject unknown mode")
	}
}

func TestNewOpenAIModeRequiresKey(t *testing.T) {
	if _, err := New(Config{Mode: "openai"}); err == nil {
		t.Fatalf("New() should require an API key in openai mode")
	}
}

func TestHTTPCompleterJSONResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("request body decode: %v", err)
		}
		if body["system_prompt"] == "" {
			t.Errorf("system_prompt missing from forwarded request")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text": "{\"should_reply\": false}"}`))
	}))
	defer srv.Close()

	c := NewHTTPCompleter(srv.URL, 5*time.Second)
	got, err := c.Complete(context.Background(), Request{Prompt: "hi", SystemPrompt: "{}"})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got != `{"should_reply": false}` {
		t.Fatalf("Complete() = %q", got)
	}
}

func TestHTTPCompleterPlainTextResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("  raw completion  "))
	}))
	defer srv.Close()

	c := NewHTTPCompleter(srv.URL, 5*time.Second)
	got, err := c.Complete(context.Background(), Request{Prompt: "hi"})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got != "raw completion" {
		t.Fatalf("Complete() = %q", got)
	}
}

func TestHTTPCompleterStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewHTTPCompleter(srv.URL, 5*time.Second)
	_, err := c.Complete(context.Background(), Request{Prompt: "hi"})

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("error = %v, want StatusError", err)
	}
	if statusErr.Status != http.StatusTooManyRequests {
		t.Fatalf("Status = %d, want 429", statusErr.Status)
	}
	if Classify(err) != "rate_limited" {
		t.Fatalf("Classify() = %q, want rate_limited", Classify(err))
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, "none"},
		{context.DeadlineExceeded, "timeout"},
		{context.Canceled, "canceled"},
		{&StatusError{Status: 500}, "upstream"},
		{&StatusError{Status: 401}, "auth"},
		{&StatusError{Status: 418}, "http_418"},
		{errors.New("boom"), "unknown"},
	}
	for _, tc := range cases {
		if got := Classify(tc.err); got != tc.want {
			t.Fatalf("Classify(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
