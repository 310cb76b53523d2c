package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// OllamaConfig scripts a fake Ollama server.
type OllamaConfig struct {
	// Models lists names reported by /api/tags. A chat request for any other
	// model is answered with 404.
	Models []string
	// Reply answers a chat prompt. Nil echoes the prompt back.
	Reply func(model, prompt string) string
	// EvalCount and EvalDurationNs are reported on every chat reply.
	EvalCount      int
	EvalDurationNs int64
}

// OllamaServer is a running fake Ollama endpoint.
type OllamaServer struct {
	*httptest.Server
	mu      sync.Mutex
	prompts []string
}

// Prompts returns chat prompts received so far.
func (s *OllamaServer) Prompts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.prompts...)
}

// StartOllama starts a fake Ollama server closed on test cleanup.
func StartOllama(t testing.TB, cfg OllamaConfig) *OllamaServer {
	t.Helper()
	known := map[string]bool{}
	for _, name := range cfg.Models {
		known[name] = true
	}
	srv := &OllamaServer{}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/tags", func(w http.ResponseWriter, r *http.Request) {
		type tag struct {
			Name   string `json:"name"`
			Digest string `json:"digest"`
			Size   int64  `json:"size"`
		}
		tags := make([]tag, 0, len(cfg.Models))
		for i, name := range cfg.Models {
			tags = append(tags, tag{Name: name, Digest: fmt.Sprintf("%064x", i+1), Size: int64(i+1) * 1_000_000_000})
		}
		writeJSON(w, http.StatusOK, map[string]any{"models": tags})
	})
	mux.HandleFunc("POST /api/chat", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Messages) == 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request"})
			return
		}
		if !known[req.Model] {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": fmt.Sprintf("model %q not found, try pulling it first", req.Model)})
			return
		}
		prompt := req.Messages[len(req.Messages)-1].Content
		srv.mu.Lock()
		srv.prompts = append(srv.prompts, prompt)
		srv.mu.Unlock()
		answer := prompt
		if cfg.Reply != nil {
			answer = cfg.Reply(req.Model, prompt)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"model":         req.Model,
			"message":       map[string]string{"role": "assistant", "content": answer},
			"done":          true,
			"eval_count":    cfg.EvalCount,
			"eval_duration": cfg.EvalDurationNs,
		})
	})
	srv.Server = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
