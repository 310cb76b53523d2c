package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"llmbench/internal/model"
)

// DefaultOllamaHost is the default local Ollama endpoint.
const DefaultOllamaHost = "http://localhost:11434"

// DefaultTimeout bounds a single chat call.
const DefaultTimeout = 60 * time.Second

// HTTPDoer abstracts HTTP clients used by the adapter.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// OllamaOptions configures an Ollama adapter or client.
type OllamaOptions struct {
	Host    string
	Timeout time.Duration
	Client  HTTPDoer
	Logger  zerolog.Logger
	// Now overrides the clock used to measure call duration.
	Now func() time.Time
}

// Ollama sends prompts to a single model through the Ollama chat API.
type Ollama struct {
	Model   string
	Host    string
	Timeout time.Duration
	client  HTTPDoer
	logger  zerolog.Logger
	now     func() time.Time
}

// NewOllama constructs an Ollama adapter for modelName.
func NewOllama(modelName string, opts OllamaOptions) (*Ollama, error) {
	if strings.TrimSpace(modelName) == "" {
		return nil, fmt.Errorf("model is required")
	}
	host := strings.TrimSpace(opts.Host)
	if host == "" {
		host = DefaultOllamaHost
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Ollama{
		Model:   modelName,
		Host:    strings.TrimRight(host, "/"),
		Timeout: timeout,
		client:  client,
		logger:  opts.Logger,
		now:     now,
	}, nil
}

// OllamaFactory returns a Factory that builds Ollama adapters sharing opts.
func OllamaFactory(opts OllamaOptions) Factory {
	return func(modelName string) (Adapter, error) {
		return NewOllama(modelName, opts)
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatResponse struct {
	Message      chatMessage `json:"message"`
	Done         bool        `json:"done"`
	EvalCount    int         `json:"eval_count"`
	EvalDuration int64       `json:"eval_duration"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Send posts prompt to /api/chat and converts the reply into a Result.
func (o *Ollama) Send(ctx context.Context, prompt string) Result {
	if strings.TrimSpace(prompt) == "" {
		return Failure(errors.New("prompt is empty"))
	}
	ctx, cancel := context.WithTimeout(ctx, o.Timeout)
	defer cancel()

	payload, err := json.Marshal(chatRequest{
		Model:    o.Model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
		Stream:   false,
	})
	if err != nil {
		return Failure(fmt.Errorf("marshal request: %w", err))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.Host+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return Failure(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	started := o.now()
	resp, err := o.client.Do(req)
	if err != nil {
		o.logger.Debug().Err(err).Str("model", o.Model).Msg("ollama chat failed")
		return Failure(fmt.Errorf("ollama request: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Failure(fmt.Errorf("read response: %w", err))
	}
	elapsed := o.now().Sub(started)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Failure(o.statusError(resp.StatusCode, body))
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Failure(fmt.Errorf("parse response: %w", err))
	}

	metrics := model.Metrics{
		DurationSeconds: round2(elapsed.Seconds()),
		TokensPerSecond: round2(tokensPerSecond(parsed.EvalCount, parsed.EvalDuration)),
		TokenCount:      parsed.EvalCount,
	}
	o.logger.Debug().
		Str("model", o.Model).
		Float64("duration_s", metrics.DurationSeconds).
		Float64("tps", metrics.TokensPerSecond).
		Int("tokens", metrics.TokenCount).
		Msg("ollama chat complete")
	return Success(parsed.Message.Content, metrics)
}

// statusError turns a non-2xx reply into a descriptive error.
func (o *Ollama) statusError(status int, body []byte) error {
	var parsed errorResponse
	message := strings.TrimSpace(string(body))
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error != "" {
		message = parsed.Error
	}
	if status == http.StatusNotFound && strings.Contains(message, "not found") {
		return fmt.Errorf("model %q not found, run: ollama pull %s", o.Model, o.Model)
	}
	return fmt.Errorf("ollama error (status %d): %s", status, message)
}

// tokensPerSecond derives throughput from the eval counters; evalDuration is
// in nanoseconds.
func tokensPerSecond(evalCount int, evalDuration int64) float64 {
	if evalCount <= 0 || evalDuration <= 0 {
		return 0
	}
	return float64(evalCount) / (float64(evalDuration) / 1e9)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
