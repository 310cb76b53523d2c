package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"llmbench/internal/adapter"
	"llmbench/internal/dataset"
	"llmbench/internal/model"
	"llmbench/internal/score"
)

var (
	// ErrRunActive is returned when a run is requested while one is in flight.
	ErrRunActive = errors.New("a benchmark run is already in progress")
	// ErrCanceled marks a run stopped through its context.
	ErrCanceled = errors.New("run canceled")
)

// State is the orchestrator run state.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// DatasetLoader reads dataset items by name.
type DatasetLoader interface {
	Load(name string) ([]dataset.Item, error)
}

// HistoryWriter persists finished runs.
type HistoryWriter interface {
	SaveRun(ctx context.Context, run model.RunRecord) (model.RunRecord, error)
}

// Dependencies holds the injectable id and clock sources.
type Dependencies struct {
	RunID func(now time.Time) (string, error)
	Now   func() time.Time
}

// Config wires an Orchestrator.
type Config struct {
	Adapters      adapter.Factory
	Datasets      DatasetLoader
	History       HistoryWriter
	Logger        zerolog.Logger
	PassThreshold int
	Deps          Dependencies
}

// Request names the model and datasets for one run.
type Request struct {
	Model    string
	Datasets []string
}

func (r Request) validate() error {
	var problems []string
	if strings.TrimSpace(r.Model) == "" {
		problems = append(problems, "model is required")
	}
	if len(r.Datasets) == 0 {
		problems = append(problems, "at least one dataset is required")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid run request: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Orchestrator runs at most one benchmark at a time.
type Orchestrator struct {
	cfg   Config
	state atomic.Int32
	last  atomic.Pointer[model.RunRecord]
}

// New validates cfg and returns an idle orchestrator.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Adapters == nil {
		return nil, fmt.Errorf("adapter factory is required")
	}
	if cfg.Datasets == nil {
		return nil, fmt.Errorf("dataset loader is required")
	}
	if cfg.History == nil {
		return nil, fmt.Errorf("history writer is required")
	}
	if cfg.PassThreshold <= 0 {
		cfg.PassThreshold = model.PassThreshold
	}
	if cfg.Deps.Now == nil {
		cfg.Deps.Now = time.Now
	}
	if cfg.Deps.RunID == nil {
		cfg.Deps.RunID = NewRunID
	}
	return &Orchestrator{cfg: cfg}, nil
}

// State reports whether a run is in flight.
func (o *Orchestrator) State() State {
	return State(o.state.Load())
}

// LastRun returns the most recent aggregated record, including one whose
// save failed.
func (o *Orchestrator) LastRun() (model.RunRecord, bool) {
	record := o.last.Load()
	if record == nil {
		return model.RunRecord{}, false
	}
	return *record, true
}

// Run is the handle of a started run.
type Run struct {
	Model string
	done  chan struct{}
	mu    sync.Mutex
	state State
	rec   *model.RunRecord
	err   error
}

// Wait blocks until the run finishes.
func (r *Run) Wait() (model.RunRecord, error) {
	<-r.done
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rec == nil {
		return model.RunRecord{}, r.err
	}
	return *r.rec, r.err
}

// State is StateRunning until the run ends in StateCompleted or StateFailed.
func (r *Run) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Start launches a run on a background worker. It never queues: when a run
// is already in flight the observer is told why and ErrRunActive is returned.
func (o *Orchestrator) Start(ctx context.Context, req Request, obs Observer) (*Run, error) {
	if obs == nil {
		obs = NopObserver{}
	}
	if err := req.validate(); err != nil {
		return nil, err
	}
	if !o.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		o.cfg.Logger.Warn().Str("model", req.Model).Msg("run rejected, another run is active")
		obs.OnRejected(ErrRunActive.Error())
		return nil, ErrRunActive
	}
	run := &Run{Model: req.Model, done: make(chan struct{}), state: StateRunning}
	go o.work(ctx, req, obs, run)
	return run, nil
}

// Execute is Start followed by Wait.
func (o *Orchestrator) Execute(ctx context.Context, req Request, obs Observer) (model.RunRecord, error) {
	run, err := o.Start(ctx, req, obs)
	if err != nil {
		return model.RunRecord{}, err
	}
	return run.Wait()
}

func (o *Orchestrator) work(ctx context.Context, req Request, obs Observer, run *Run) {
	logger := o.cfg.Logger.With().Str("model", req.Model).Logger()
	started := o.cfg.Deps.Now()
	record, err := o.execute(ctx, req, obs, logger)

	final := StateCompleted
	if record == nil {
		final = StateFailed
	} else {
		o.last.Store(record)
	}
	var event *zerolog.Event
	if err != nil {
		event = logger.Error().Err(err)
	} else {
		event = logger.Info()
	}
	if record != nil {
		event = event.Str("run_id", record.ID).Float64("avg_score", record.AvgScore).Int("items", len(record.Details))
	}
	event.Dur("elapsed", o.cfg.Deps.Now().Sub(started)).Str("state", final.String()).Msg("run finished")

	run.mu.Lock()
	run.state = final
	run.rec = record
	run.err = err
	run.mu.Unlock()

	o.state.Store(int32(StateIdle))
	obs.OnCompleted(Completion{Record: record, Err: err})
	close(run.done)
}

func (o *Orchestrator) execute(ctx context.Context, req Request, obs Observer, logger zerolog.Logger) (*model.RunRecord, error) {
	bench, err := o.cfg.Adapters(req.Model)
	if err != nil {
		return nil, fmt.Errorf("create adapter: %w", err)
	}

	plan, items := o.plan(req, obs, logger)
	if so, ok := obs.(StartObserver); ok {
		so.OnStarted(plan)
	}
	logger.Info().Int("datasets", len(req.Datasets)).Int("items", len(items)).Msg("run started")

	records := make([]model.ItemRecord, 0, len(items))
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCanceled, err)
		}
		record := evaluate(ctx, bench, item)
		records = append(records, record)
		if record.Error != "" {
			logger.Warn().Str("item", record.ID).Str("dataset", record.Dataset).Str("error", record.Error).Msg("adapter call failed")
		}
		obs.OnProgress(Progress{
			ItemID:  record.ID,
			Dataset: record.Dataset,
			Index:   i + 1,
			Total:   len(items),
			Score:   record.Score,
			Metrics: record.Metrics,
			Passed:  record.Score >= o.cfg.PassThreshold,
			Error:   record.Error,
		})
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCanceled, err)
	}

	now := o.cfg.Deps.Now()
	id, err := o.cfg.Deps.RunID(now)
	if err != nil {
		return nil, fmt.Errorf("run id: %w", err)
	}
	record := Aggregate(req.Model, req.Datasets, records, Stamp{ID: id, CompletedAt: now})
	if _, err := o.cfg.History.SaveRun(ctx, record); err != nil {
		return &record, fmt.Errorf("save run %s: %w", record.ID, err)
	}
	return &record, nil
}

type queuedItem struct {
	dataset string
	item    dataset.Item
}

// plan loads every dataset in order, skipping the unreadable ones.
func (o *Orchestrator) plan(req Request, obs Observer, logger zerolog.Logger) (Plan, []queuedItem) {
	plan := Plan{Model: req.Model, Datasets: append([]string(nil), req.Datasets...)}
	var queue []queuedItem
	for _, name := range req.Datasets {
		items, err := o.cfg.Datasets.Load(name)
		if err != nil {
			logger.Warn().Err(err).Str("dataset", name).Msg("skipping unreadable dataset")
			if do, ok := obs.(DatasetObserver); ok {
				do.OnDatasetSkipped(name, err)
			}
			continue
		}
		for _, item := range items {
			queue = append(queue, queuedItem{dataset: name, item: item})
			plan.Items = append(plan.Items, PlannedItem{ID: item.ID, Dataset: name, Prompt: item.Prompt})
		}
	}
	return plan, queue
}

// evaluate sends one item and scores the reply.
func evaluate(ctx context.Context, bench adapter.Adapter, queued queuedItem) model.ItemRecord {
	result := bench.Send(ctx, queued.item.Prompt)
	var response *string
	if !result.Failed() {
		response = result.Response
	}
	scored := score.ScoreOptional(response, queued.item.ExpectedKeywords)

	record := model.ItemRecord{
		ID:              queued.item.ID,
		Dataset:         queued.dataset,
		Prompt:          queued.item.Prompt,
		Score:           scored.Score,
		MatchedKeywords: scored.Matched,
		MissingKeywords: scored.Missing,
		Note:            scored.Note,
		Error:           result.Error,
	}
	if response != nil {
		record.Response = *response
	}
	if result.Metrics != nil && !result.Failed() {
		metrics := *result.Metrics
		metrics.ResponseLength = utf8.RuneCountInString(record.Response)
		record.Metrics = &metrics
	}
	return record
}
