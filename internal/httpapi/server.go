// Package httpapi exposes the service's HTTP surface: health, metrics, and
// the request/response hook endpoints for hosts that integrate over HTTP
// instead of the gateway.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/endedge/chatglue/internal/observability"
	"github.com/endedge/chatglue/internal/plugin"
)

// Hooks is the split-flow contract; plugin.Service satisfies it.
type Hooks interface {
	RewriteRequest(ctx context.Context, req *plugin.ProviderRequest)
	RewriteResponse(ctx context.Context, resp *plugin.ProviderResponse)
}

type Server struct {
	hooks Hooks
}

func New(hooks Hooks) *Server {
	return &Server{hooks: hooks}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealthz)
	r.Handle("/metrics", observability.MetricsHandler())
	r.Post("/v1/hooks/request", s.handleRequestHook)
	r.Post("/v1/hooks/response", s.handleResponseHook)

	return r
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleRequestHook rewrites an outgoing provider request in place: the host
// posts the decomposed message plus its prompt, and receives the prompt
// envelope as the system prompt along with the resolved conversation id.
func (s *Server) handleRequestHook(w http.ResponseWriter, r *http.Request) {
	var req plugin.ProviderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	s.hooks.RewriteRequest(r.Context(), &req)
	writeJSON(w, http.StatusOK, req)
}

// handleResponseHook decodes a raw completion and substitutes the text to
// deliver; an empty text in the reply means "send nothing".
func (s *Server) handleResponseHook(w http.ResponseWriter, r *http.Request) {
	var resp plugin.ProviderResponse
	if err := json.NewDecoder(r.Body).Decode(&resp); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	s.hooks.RewriteResponse(r.Context(), &resp)
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
