package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func steppingClock(step time.Duration) func() time.Time {
	current := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	return func() time.Time {
		now := current
		current = current.Add(step)
		return now
	}
}

func TestOllamaSendParsesResponseAndMetrics(t *testing.T) {
	var got chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/chat" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"message":{"role":"assistant","content":"4"},"done":true,"eval_count":30,"eval_duration":1500000000}`)
	}))
	t.Cleanup(server.Close)

	ollama, err := NewOllama("llama3.1:8b", OllamaOptions{
		Host:   server.URL + "/",
		Client: server.Client(),
		Now:    steppingClock(1234 * time.Millisecond),
	})
	if err != nil {
		t.Fatalf("new ollama: %v", err)
	}
	result := ollama.Send(context.Background(), "2+2?")
	if result.Failed() {
		t.Fatalf("unexpected error: %s", result.Error)
	}
	if result.Text() != "4" {
		t.Fatalf("unexpected response %q", result.Text())
	}
	if result.Metrics == nil {
		t.Fatalf("expected metrics")
	}
	if result.Metrics.DurationSeconds != 1.23 {
		t.Fatalf("expected duration 1.23, got %v", result.Metrics.DurationSeconds)
	}
	if result.Metrics.TokensPerSecond != 20 {
		t.Fatalf("expected 20 tps, got %v", result.Metrics.TokensPerSecond)
	}
	if result.Metrics.TokenCount != 30 {
		t.Fatalf("expected 30 tokens, got %d", result.Metrics.TokenCount)
	}
	if got.Model != "llama3.1:8b" || got.Stream {
		t.Fatalf("unexpected request payload: %+v", got)
	}
	if len(got.Messages) != 1 || got.Messages[0].Role != "user" || got.Messages[0].Content != "2+2?" {
		t.Fatalf("unexpected messages: %+v", got.Messages)
	}
}

func TestOllamaSendZeroEvalCount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"message":{"role":"assistant","content":""},"done":true}`)
	}))
	t.Cleanup(server.Close)

	ollama, err := NewOllama("m", OllamaOptions{Host: server.URL, Client: server.Client()})
	if err != nil {
		t.Fatalf("new ollama: %v", err)
	}
	result := ollama.Send(context.Background(), "hi")
	if result.Failed() {
		t.Fatalf("unexpected error: %s", result.Error)
	}
	if result.Metrics.TokensPerSecond != 0 || result.Metrics.TokenCount != 0 {
		t.Fatalf("expected zero throughput, got %+v", result.Metrics)
	}
	if result.Response == nil {
		t.Fatalf("expected empty response to be present")
	}
}

func TestOllamaSendErrors(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		wantSub string
	}{
		{name: "model not found", status: http.StatusNotFound, body: `{"error":"model \"ghost\" not found, try pulling it first"}`, wantSub: "ollama pull ghost"},
		{name: "server error", status: http.StatusInternalServerError, body: `{"error":"out of memory"}`, wantSub: "out of memory"},
		{name: "plain body", status: http.StatusBadGateway, body: "upstream down", wantSub: "upstream down"},
		{name: "bad json", status: http.StatusOK, body: "{", wantSub: "parse response"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				fmt.Fprint(w, tc.body)
			}))
			t.Cleanup(server.Close)

			ollama, err := NewOllama("ghost", OllamaOptions{Host: server.URL, Client: server.Client()})
			if err != nil {
				t.Fatalf("new ollama: %v", err)
			}
			result := ollama.Send(context.Background(), "hi")
			if !result.Failed() {
				t.Fatalf("expected error result")
			}
			if result.Response != nil || result.Metrics != nil {
				t.Fatalf("error result must not carry response or metrics: %+v", result)
			}
			if !strings.Contains(result.Error, tc.wantSub) {
				t.Fatalf("expected %q in %q", tc.wantSub, result.Error)
			}
		})
	}
}

type failingDoer struct{}

func (failingDoer) Do(*http.Request) (*http.Response, error) {
	return nil, errors.New("connection refused")
}

func TestOllamaSendTransportError(t *testing.T) {
	ollama, err := NewOllama("m", OllamaOptions{Client: failingDoer{}})
	if err != nil {
		t.Fatalf("new ollama: %v", err)
	}
	result := ollama.Send(context.Background(), "hi")
	if !strings.Contains(result.Error, "connection refused") {
		t.Fatalf("expected transport error, got %+v", result)
	}
}

func TestOllamaSendTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		server.Close()
	})

	ollama, err := NewOllama("m", OllamaOptions{Host: server.URL, Client: server.Client(), Timeout: 50 * time.Millisecond})
	if err != nil {
		t.Fatalf("new ollama: %v", err)
	}
	result := ollama.Send(context.Background(), "hi")
	if !result.Failed() {
		t.Fatalf("expected timeout error")
	}
}

func TestOllamaRejectsEmptyInput(t *testing.T) {
	if _, err := NewOllama(" ", OllamaOptions{}); err == nil {
		t.Fatalf("expected model required error")
	}
	ollama, err := NewOllama("m", OllamaOptions{Client: failingDoer{}})
	if err != nil {
		t.Fatalf("new ollama: %v", err)
	}
	if result := ollama.Send(context.Background(), "   "); !result.Failed() {
		t.Fatalf("expected empty prompt error")
	}
}

func TestOllamaFactory(t *testing.T) {
	factory := OllamaFactory(OllamaOptions{Host: "http://example.invalid"})
	built, err := factory("qwen2.5:7b")
	if err != nil {
		t.Fatalf("factory: %v", err)
	}
	ollama, ok := built.(*Ollama)
	if !ok {
		t.Fatalf("expected *Ollama, got %T", built)
	}
	if ollama.Model != "qwen2.5:7b" || ollama.Host != "http://example.invalid" || ollama.Timeout != DefaultTimeout {
		t.Fatalf("unexpected adapter: %+v", ollama)
	}
}
