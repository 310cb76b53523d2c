package runner

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"llmbench/internal/adapter"
	"llmbench/internal/dataset"
	"llmbench/internal/model"
	"llmbench/internal/testutil"
)

type harness struct {
	orch    *Orchestrator
	adapter *testutil.FakeAdapter
	history *testutil.FakeHistory
	models  []string
}

func newHarness(t *testing.T, datasets testutil.Datasets, replies map[string]testutil.Reply) *harness {
	t.Helper()
	h := &harness{
		adapter: testutil.NewFakeAdapter(replies),
		history: &testutil.FakeHistory{},
	}
	clock := testutil.NewFakeClock(time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC))
	orch, err := New(Config{
		Adapters: h.adapter.Factory(&h.models),
		Datasets: datasets,
		History:  h.history,
		Logger:   zerolog.Nop(),
		Deps: Dependencies{
			RunID: func(now time.Time) (string, error) { return FormatRunID(now, "000000000001"), nil },
			Now:   clock.Now,
		},
	})
	if err != nil {
		t.Fatalf("new orchestrator: %v", err)
	}
	h.orch = orch
	return h
}

func demoDatasets() testutil.Datasets {
	return testutil.Datasets{
		"demo.json": {{ID: "q1", Prompt: "What is 2+2?", ExpectedKeywords: []string{"4"}}},
	}
}

func TestExecuteEndToEnd(t *testing.T) {
	ctx := testutil.Context(t, time.Second)
	h := newHarness(t, demoDatasets(), map[string]testutil.Reply{
		"What is 2+2?": {Response: "The answer is 4.", Metrics: &model.Metrics{DurationSeconds: 1.2, TokensPerSecond: 30, TokenCount: 5}},
	})
	obs := &recordingObserver{}

	record, err := h.orch.Execute(ctx, Request{Model: "demo", Datasets: []string{"demo.json"}}, obs)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if record.ID != "20250102T030405Z-000000000001" || record.Model != "demo" {
		t.Fatalf("unexpected record identity: %s %s", record.ID, record.Model)
	}
	if len(record.Details) != 1 {
		t.Fatalf("expected one item, got %d", len(record.Details))
	}
	item := record.Details[0]
	if item.Score != 100 || item.Response != "The answer is 4." || item.Dataset != "demo.json" {
		t.Fatalf("unexpected item: %+v", item)
	}
	if item.Metrics == nil || item.Metrics.ResponseLength != 16 || item.Metrics.TokenCount != 5 {
		t.Fatalf("unexpected item metrics: %+v", item.Metrics)
	}
	if record.AvgScore != 100.0 || *record.AvgDuration != 1.2 || *record.AvgTPS != 30 || *record.AvgResponseLength != 16 {
		t.Fatalf("unexpected averages: %+v", record)
	}
	if len(h.models) != 1 || h.models[0] != "demo" {
		t.Fatalf("expected one adapter for demo, got %v", h.models)
	}
	if saved := h.history.Runs(); len(saved) != 1 || saved[0].ID != record.ID {
		t.Fatalf("expected saved run, got %+v", saved)
	}
	if last, ok := h.orch.LastRun(); !ok || last.ID != record.ID {
		t.Fatalf("expected last run cached")
	}

	got := obs.snapshot()
	if len(got.started) != 1 || len(got.started[0].Items) != 1 {
		t.Fatalf("expected plan with one item, got %+v", got.started)
	}
	if len(got.progress) != 1 {
		t.Fatalf("expected one progress event, got %d", len(got.progress))
	}
	if p := got.progress[0]; p.ItemID != "q1" || p.Index != 1 || p.Total != 1 || p.Score != 100 || !p.Passed {
		t.Fatalf("unexpected progress: %+v", p)
	}
	if len(got.completed) != 1 || got.completed[0].Err != nil || got.completed[0].Record.ID != record.ID {
		t.Fatalf("unexpected completion: %+v", got.completed)
	}
	if h.orch.State() != StateIdle {
		t.Fatalf("expected idle, got %s", h.orch.State())
	}
}

func TestStartRejectsConcurrentRun(t *testing.T) {
	ctx := testutil.Context(t, time.Second)
	h := newHarness(t, demoDatasets(), nil)
	h.adapter.Gate = make(chan struct{})

	run, err := h.orch.Start(ctx, Request{Model: "demo", Datasets: []string{"demo.json"}}, nil)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if h.orch.State() != StateRunning || run.State() != StateRunning {
		t.Fatalf("expected running, got %s / %s", h.orch.State(), run.State())
	}
	testutil.Eventually(t, time.Second, func() bool {
		return len(h.adapter.Prompts()) == 1
	}, "worker never reached the adapter, prompts %v", h.adapter.Prompts())

	rejected := &recordingObserver{}
	if _, err := h.orch.Start(ctx, Request{Model: "other", Datasets: []string{"demo.json"}}, rejected); !errors.Is(err, ErrRunActive) {
		t.Fatalf("expected ErrRunActive, got %v", err)
	}
	got := rejected.snapshot()
	if len(got.rejected) != 1 || len(got.progress) != 0 || len(got.completed) != 0 {
		t.Fatalf("unexpected rejected observer events: %+v", &got)
	}

	close(h.adapter.Gate)
	record, err := run.Wait()
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if record.Model != "demo" || len(record.Details) != 1 || record.Details[0].ID != "q1" {
		t.Fatalf("rejected start must not touch the active run, got %+v", record)
	}
	if saved := h.history.Runs(); len(saved) != 1 || len(saved[0].Details) != 1 || saved[0].Model != "demo" {
		t.Fatalf("expected only the active run saved, got %+v", saved)
	}
	if run.State() != StateCompleted {
		t.Fatalf("expected completed, got %s", run.State())
	}
	if len(h.models) != 1 {
		t.Fatalf("rejected start must not build an adapter, got %v", h.models)
	}

	if _, err := h.orch.Execute(ctx, Request{Model: "demo", Datasets: []string{"demo.json"}}, nil); err != nil {
		t.Fatalf("expected idle orchestrator to accept a new run: %v", err)
	}
}

func TestStartSingleFlightUnderContention(t *testing.T) {
	ctx := testutil.Context(t, time.Second)
	h := newHarness(t, demoDatasets(), nil)
	h.adapter.Gate = make(chan struct{})

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		runs     []*Run
		rejected int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			run, err := h.orch.Start(ctx, Request{Model: "demo", Datasets: []string{"demo.json"}}, nil)
			mu.Lock()
			defer mu.Unlock()
			if errors.Is(err, ErrRunActive) {
				rejected++
				return
			}
			if err != nil {
				t.Errorf("start: %v", err)
				return
			}
			runs = append(runs, run)
		}()
	}
	wg.Wait()
	if len(runs) != 1 || rejected != 15 {
		t.Fatalf("expected one accepted run and 15 rejections, got %d and %d", len(runs), rejected)
	}
	close(h.adapter.Gate)
	if _, err := runs[0].Wait(); err != nil {
		t.Fatalf("wait: %v", err)
	}
}

func TestExecuteSkipsUnreadableDataset(t *testing.T) {
	ctx := testutil.Context(t, time.Second)
	h := newHarness(t, testutil.Datasets{
		"valid.json": {
			{ID: "v1", Prompt: "p1", ExpectedKeywords: []string{"yes"}},
			{ID: "v2", Prompt: "p2", ExpectedKeywords: []string{"yes"}},
		},
	}, nil)
	h.adapter.Fallback = testutil.Reply{Response: "yes"}
	obs := &recordingObserver{}

	record, err := h.orch.Execute(ctx, Request{Model: "m", Datasets: []string{"missing.json", "valid.json"}}, obs)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(record.Details) != 2 || record.Details[0].ID != "v1" || record.Details[1].ID != "v2" {
		t.Fatalf("expected only valid items, got %+v", record.Details)
	}
	if len(record.Datasets) != 2 {
		t.Fatalf("expected requested datasets recorded, got %v", record.Datasets)
	}
	got := obs.snapshot()
	if len(got.skipped) != 1 || got.skipped[0] != "missing.json" {
		t.Fatalf("expected missing.json skipped, got %v", got.skipped)
	}
	if got.progress[0].Total != 2 {
		t.Fatalf("skipped items must not be counted, total %d", got.progress[0].Total)
	}
}

func TestExecuteRecordsAdapterErrors(t *testing.T) {
	ctx := testutil.Context(t, time.Second)
	h := newHarness(t, testutil.Datasets{
		"d.json": {
			{ID: "bad", Prompt: "fails", ExpectedKeywords: []string{"x"}},
			{ID: "good", Prompt: "works", ExpectedKeywords: []string{"x"}},
		},
	}, map[string]testutil.Reply{
		"fails": {Error: "connection refused"},
		"works": {Response: "x marks the spot", Metrics: &model.Metrics{DurationSeconds: 2, TokensPerSecond: 10, TokenCount: 4}},
	})
	obs := &recordingObserver{}

	record, err := h.orch.Execute(ctx, Request{Model: "m", Datasets: []string{"d.json"}}, obs)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	bad := record.Details[0]
	if bad.Score != 0 || bad.Error != "connection refused" || bad.Response != "" || bad.Metrics != nil {
		t.Fatalf("unexpected failing item: %+v", bad)
	}
	if len(bad.MissingKeywords) != 1 || bad.MissingKeywords[0] != "x" {
		t.Fatalf("expected keyword reported missing, got %v", bad.MissingKeywords)
	}
	if record.Details[1].Score != 100 {
		t.Fatalf("expected run to continue after error, got %+v", record.Details[1])
	}
	if record.AvgScore != 50 || *record.AvgDuration != 2 {
		t.Fatalf("unexpected averages: %+v", record)
	}
	got := obs.snapshot()
	if got.progress[0].Error != "connection refused" || got.progress[0].Passed {
		t.Fatalf("unexpected progress for failing item: %+v", got.progress[0])
	}
}

func TestExecuteSurfacesPersistenceError(t *testing.T) {
	ctx := testutil.Context(t, time.Second)
	h := newHarness(t, demoDatasets(), nil)
	diskFull := errors.New("disk full")
	h.history.Err = diskFull
	obs := &recordingObserver{}

	record, err := h.orch.Execute(ctx, Request{Model: "demo", Datasets: []string{"demo.json"}}, obs)
	if !errors.Is(err, diskFull) {
		t.Fatalf("expected persistence error, got %v", err)
	}
	if record.ID == "" || len(record.Details) != 1 {
		t.Fatalf("expected record returned despite save failure, got %+v", record)
	}
	if last, ok := h.orch.LastRun(); !ok || last.ID != record.ID {
		t.Fatalf("expected record cached in memory")
	}
	got := obs.snapshot()
	if len(got.completed) != 1 || got.completed[0].Record == nil || !errors.Is(got.completed[0].Err, diskFull) {
		t.Fatalf("unexpected completion: %+v", got.completed)
	}
}

type orderObserver struct {
	NopObserver
	mu     sync.Mutex
	events []string
}

func (o *orderObserver) OnProgress(p Progress) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, p.ItemID)
}

func (o *orderObserver) OnCompleted(Completion) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, "done")
}

func TestProgressFollowsIterationOrder(t *testing.T) {
	ctx := testutil.Context(t, time.Second)
	h := newHarness(t, testutil.Datasets{
		"a.json": {{ID: "a1", Prompt: "a1"}, {ID: "a2", Prompt: "a2"}},
		"b.json": {{ID: "b1", Prompt: "b1"}},
	}, nil)
	h.adapter.Fallback = testutil.Reply{Response: "ok"}
	obs := &orderObserver{}

	if _, err := h.orch.Execute(ctx, Request{Model: "m", Datasets: []string{"b.json", "a.json"}}, obs); err != nil {
		t.Fatalf("execute: %v", err)
	}
	want := []string{"b1", "a1", "a2", "done"}
	if len(obs.events) != len(want) {
		t.Fatalf("expected %v, got %v", want, obs.events)
	}
	for i := range want {
		if obs.events[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, obs.events)
		}
	}
	prompts := h.adapter.Prompts()
	if len(prompts) != 3 || prompts[0] != "b1" {
		t.Fatalf("unexpected prompt order: %v", prompts)
	}
}

type cancelObserver struct {
	recordingObserver
	cancel context.CancelFunc
}

func (c *cancelObserver) OnProgress(p Progress) {
	c.recordingObserver.OnProgress(p)
	c.cancel()
}

func TestExecuteCanceledBetweenItems(t *testing.T) {
	parent := testutil.Context(t, time.Second)
	ctx, cancel := context.WithCancel(parent)
	defer cancel()
	h := newHarness(t, testutil.Datasets{
		"d.json": {{ID: "1", Prompt: "1"}, {ID: "2", Prompt: "2"}, {ID: "3", Prompt: "3"}},
	}, nil)
	h.adapter.Fallback = testutil.Reply{Response: "ok"}
	obs := &cancelObserver{cancel: cancel}

	run, err := h.orch.Start(ctx, Request{Model: "m", Datasets: []string{"d.json"}}, obs)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := run.Wait(); !errors.Is(err, ErrCanceled) {
		t.Fatalf("expected ErrCanceled, got %v", err)
	}
	if run.State() != StateFailed {
		t.Fatalf("expected failed, got %s", run.State())
	}
	got := obs.snapshot()
	if len(got.progress) != 1 {
		t.Fatalf("expected processing to stop after one item, got %d", len(got.progress))
	}
	if len(got.completed) != 1 || got.completed[0].Record != nil {
		t.Fatalf("unexpected completion: %+v", got.completed)
	}
	if len(h.history.Runs()) != 0 {
		t.Fatalf("canceled run must not be persisted")
	}
	if _, ok := h.orch.LastRun(); ok {
		t.Fatalf("canceled run must not be cached")
	}
}

func TestExecuteAdapterFactoryFailure(t *testing.T) {
	ctx := testutil.Context(t, time.Second)
	history := &testutil.FakeHistory{}
	orch, err := New(Config{
		Adapters: func(string) (adapter.Adapter, error) { return nil, errors.New("no such provider") },
		Datasets: demoDatasets(),
		History:  history,
		Logger:   zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	obs := &recordingObserver{}
	run, err := orch.Start(ctx, Request{Model: "m", Datasets: []string{"demo.json"}}, obs)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := run.Wait(); err == nil {
		t.Fatalf("expected factory error")
	}
	if run.State() != StateFailed || orch.State() != StateIdle {
		t.Fatalf("expected failed run and idle orchestrator, got %s / %s", run.State(), orch.State())
	}
	got := obs.snapshot()
	if len(got.completed) != 1 || got.completed[0].Record != nil || got.completed[0].Err == nil {
		t.Fatalf("unexpected completion: %+v", got.completed)
	}
	if len(history.Runs()) != 0 {
		t.Fatalf("failed run must not be persisted")
	}
}

func TestStartValidatesRequest(t *testing.T) {
	ctx := testutil.Context(t, time.Second)
	h := newHarness(t, demoDatasets(), nil)
	cases := []Request{
		{Model: " ", Datasets: []string{"demo.json"}},
		{Model: "m"},
	}
	for _, req := range cases {
		if _, err := h.orch.Start(ctx, req, nil); err == nil || errors.Is(err, ErrRunActive) {
			t.Fatalf("expected validation error for %+v, got %v", req, err)
		}
		if h.orch.State() != StateIdle {
			t.Fatalf("invalid request must not leave idle state")
		}
	}
}

func TestNewRequiresDependencies(t *testing.T) {
	fake := testutil.NewFakeAdapter(nil)
	cases := []Config{
		{Datasets: testutil.Datasets{}, History: &testutil.FakeHistory{}},
		{Adapters: fake.Factory(nil), History: &testutil.FakeHistory{}},
		{Adapters: fake.Factory(nil), Datasets: testutil.Datasets{}},
	}
	for i, cfg := range cases {
		if _, err := New(cfg); err == nil {
			t.Fatalf("case %d: expected error", i)
		}
	}
}

func TestPassThresholdIsConfigurable(t *testing.T) {
	ctx := testutil.Context(t, time.Second)
	fake := testutil.NewFakeAdapter(nil)
	fake.Fallback = testutil.Reply{Response: "alpha"}
	orch, err := New(Config{
		Adapters:      fake.Factory(nil),
		Datasets:      testutil.Datasets{"d.json": {{ID: "q", Prompt: "p", ExpectedKeywords: []string{"alpha", "beta"}}}},
		History:       &testutil.FakeHistory{},
		Logger:        zerolog.Nop(),
		PassThreshold: 50,
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	obs := &recordingObserver{}
	if _, err := orch.Execute(ctx, Request{Model: "m", Datasets: []string{"d.json"}}, obs); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if p := obs.snapshot().progress[0]; p.Score != 50 || !p.Passed {
		t.Fatalf("expected 50 to pass at threshold 50, got %+v", p)
	}
}

var _ DatasetLoader = dataset.Loader{}

// chainObserver starts one follow-up run from inside OnCompleted.
type chainObserver struct {
	recordingObserver
	orch    *Orchestrator
	ctx     context.Context
	chainMu sync.Mutex
	chained bool
	next    *Run
	nextErr error
}

func (c *chainObserver) OnCompleted(done Completion) {
	c.recordingObserver.OnCompleted(done)
	c.chainMu.Lock()
	defer c.chainMu.Unlock()
	if c.chained {
		return
	}
	c.chained = true
	c.next, c.nextErr = c.orch.Start(c.ctx, Request{Model: "second", Datasets: []string{"demo.json"}}, nil)
}

func TestOrchestratorIdleWhenCompletionDelivered(t *testing.T) {
	ctx := testutil.Context(t, time.Second)
	h := newHarness(t, demoDatasets(), nil)
	h.adapter.Fallback = testutil.Reply{Response: "4"}
	obs := &chainObserver{orch: h.orch, ctx: ctx}

	if _, err := h.orch.Execute(ctx, Request{Model: "first", Datasets: []string{"demo.json"}}, obs); err != nil {
		t.Fatalf("execute: %v", err)
	}
	obs.chainMu.Lock()
	next, err := obs.next, obs.nextErr
	obs.chainMu.Unlock()
	if err != nil || next == nil {
		t.Fatalf("expected a run started from OnCompleted to be accepted, got %v", err)
	}
	if _, err := next.Wait(); err != nil {
		t.Fatalf("wait for follow-up run: %v", err)
	}
	saved := h.history.Runs()
	if len(saved) != 2 || saved[0].Model != "second" || saved[1].Model != "first" {
		t.Fatalf("expected both runs saved newest first, got %+v", saved)
	}
}
