package testutil

import (
	"context"
	"fmt"
	"sync"

	"llmbench/internal/adapter"
	"llmbench/internal/dataset"
	"llmbench/internal/model"
)

// Reply is a scripted adapter answer.
type Reply struct {
	Response string
	Metrics  *model.Metrics
	Error    string
}

// FakeAdapter answers prompts from a script and records what it was sent.
type FakeAdapter struct {
	mu      sync.Mutex
	replies map[string]Reply
	// Fallback answers prompts missing from the script.
	Fallback Reply
	// Gate, when set, blocks every Send until it receives or closes.
	Gate    chan struct{}
	prompts []string
}

// NewFakeAdapter builds a FakeAdapter keyed by prompt.
func NewFakeAdapter(replies map[string]Reply) *FakeAdapter {
	if replies == nil {
		replies = map[string]Reply{}
	}
	return &FakeAdapter{replies: replies}
}

// Send implements adapter.Adapter.
func (f *FakeAdapter) Send(ctx context.Context, prompt string) adapter.Result {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	reply, ok := f.replies[prompt]
	if !ok {
		reply = f.Fallback
	}
	gate := f.Gate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return adapter.Failure(ctx.Err())
		}
	}
	if reply.Error != "" {
		return adapter.Result{Error: reply.Error}
	}
	result := adapter.Result{Response: &reply.Response}
	if reply.Metrics != nil {
		metrics := *reply.Metrics
		result.Metrics = &metrics
	}
	return result
}

// Prompts returns the prompts sent so far, in order.
func (f *FakeAdapter) Prompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}

// Factory returns an adapter.Factory that always yields f and records the
// requested model names into models when non-nil.
func (f *FakeAdapter) Factory(models *[]string) adapter.Factory {
	var mu sync.Mutex
	return func(name string) (adapter.Adapter, error) {
		if models != nil {
			mu.Lock()
			*models = append(*models, name)
			mu.Unlock()
		}
		return f, nil
	}
}

// Datasets is an in-memory dataset loader. Names missing from the map fail
// to load.
type Datasets map[string][]dataset.Item

// Load implements the orchestrator's dataset loader.
func (d Datasets) Load(name string) ([]dataset.Item, error) {
	items, ok := d[name]
	if !ok {
		return nil, fmt.Errorf("read dataset: open %s: no such file or directory", name)
	}
	return items, nil
}

// FakeHistory records saved runs newest first.
type FakeHistory struct {
	mu   sync.Mutex
	runs []model.RunRecord
	// Err, when set, is returned by every SaveRun.
	Err error
}

// SaveRun implements the orchestrator's history writer.
func (h *FakeHistory) SaveRun(_ context.Context, run model.RunRecord) (model.RunRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.Err != nil {
		return run, h.Err
	}
	h.runs = append([]model.RunRecord{run}, h.runs...)
	return run, nil
}

// Runs returns the saved runs, newest first.
func (h *FakeHistory) Runs() []model.RunRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]model.RunRecord(nil), h.runs...)
}
