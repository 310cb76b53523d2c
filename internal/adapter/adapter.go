// Package adapter defines the model backend contract and its Ollama
// implementation.
package adapter

import (
	"context"

	"llmbench/internal/model"
)

// Result is the outcome of a single prompt. Exactly one of a response or an
// error is set.
type Result struct {
	Response *string
	Metrics  *model.Metrics
	Error    string
}

// Failed reports whether the call produced an error instead of a response.
func (r Result) Failed() bool {
	return r.Error != ""
}

// Text returns the response text, or "" when absent.
func (r Result) Text() string {
	if r.Response == nil {
		return ""
	}
	return *r.Response
}

// Success builds a response-bearing result.
func Success(response string, metrics model.Metrics) Result {
	return Result{Response: &response, Metrics: &metrics}
}

// Failure builds an error result.
func Failure(err error) Result {
	if err == nil {
		return Result{Error: "unknown error"}
	}
	return Result{Error: err.Error()}
}

// Adapter sends prompts to one model. Transport failures are reported in
// Result.Error and never returned or panicked.
type Adapter interface {
	Send(ctx context.Context, prompt string) Result
}

// Factory builds an adapter bound to a model name.
type Factory func(modelName string) (Adapter, error)

// Func adapts a plain function to the Adapter interface.
type Func func(ctx context.Context, prompt string) Result

// Send calls f.
func (f Func) Send(ctx context.Context, prompt string) Result {
	return f(ctx, prompt)
}
