package runner

import (
	"sync"

	"llmbench/internal/model"
)

// Progress reports one evaluated item.
type Progress struct {
	ItemID  string
	Dataset string
	// Index is 1-based across the whole run.
	Index   int
	Total   int
	Score   int
	Metrics *model.Metrics
	Passed  bool
	Error   string
}

// Completion is delivered exactly once per started run.
type Completion struct {
	// Record is nil when the run failed before aggregation.
	Record *model.RunRecord
	Err    error
}

// PlannedItem is an item queued for evaluation.
type PlannedItem struct {
	ID      string
	Dataset string
	Prompt  string
}

// Plan describes the work of a run once its datasets are loaded.
type Plan struct {
	Model    string
	Datasets []string
	Items    []PlannedItem
}

// Observer receives run notifications. Calls are made from the run worker in
// order; implementations must not block indefinitely.
//
// The orchestrator is already idle when OnCompleted is called, so a new run
// may start from inside it. An observer shared between runs can therefore see
// the next run's events before the previous OnCompleted has returned.
type Observer interface {
	OnProgress(p Progress)
	OnCompleted(c Completion)
	OnRejected(reason string)
}

// StartObserver is implemented by observers that want the run plan before the
// first item is sent.
type StartObserver interface {
	OnStarted(plan Plan)
}

// DatasetObserver is implemented by observers that want to hear about
// datasets skipped because they could not be read.
type DatasetObserver interface {
	OnDatasetSkipped(name string, err error)
}

// NopObserver ignores every notification.
type NopObserver struct{}

func (NopObserver) OnProgress(Progress)            {}
func (NopObserver) OnCompleted(Completion)         {}
func (NopObserver) OnRejected(string)              {}
func (NopObserver) OnStarted(Plan)                 {}
func (NopObserver) OnDatasetSkipped(string, error) {}

// MultiObserver fans notifications out to each observer in order.
type MultiObserver []Observer

func (m MultiObserver) OnStarted(plan Plan) {
	for _, o := range m {
		if so, ok := o.(StartObserver); ok {
			so.OnStarted(plan)
		}
	}
}

func (m MultiObserver) OnDatasetSkipped(name string, err error) {
	for _, o := range m {
		if do, ok := o.(DatasetObserver); ok {
			do.OnDatasetSkipped(name, err)
		}
	}
}

func (m MultiObserver) OnProgress(p Progress) {
	for _, o := range m {
		o.OnProgress(p)
	}
}

func (m MultiObserver) OnCompleted(c Completion) {
	for _, o := range m {
		o.OnCompleted(c)
	}
}

func (m MultiObserver) OnRejected(reason string) {
	for _, o := range m {
		o.OnRejected(reason)
	}
}

// EventKind identifies the notification carried by an Event.
type EventKind string

const (
	EventStarted        EventKind = "started"
	EventDatasetSkipped EventKind = "dataset_skipped"
	EventProgress       EventKind = "progress"
	EventCompleted      EventKind = "completed"
	EventRejected       EventKind = "rejected"
)

// Event is one observer notification in channel form.
type Event struct {
	Kind       EventKind
	Plan       Plan
	Dataset    string
	Err        error
	Progress   Progress
	Completion Completion
	Reason     string
}

// ChannelObserver turns notifications into an ordered event stream. The
// channel closes after the completion or rejection event. Use one
// ChannelObserver per Start call.
type ChannelObserver struct {
	mu     sync.Mutex
	events chan Event
	closed bool
}

// NewChannelObserver creates a ChannelObserver with the given buffer size.
func NewChannelObserver(buffer int) *ChannelObserver {
	if buffer < 0 {
		buffer = 0
	}
	return &ChannelObserver{events: make(chan Event, buffer)}
}

// Events returns the event stream.
func (c *ChannelObserver) Events() <-chan Event {
	return c.events
}

func (c *ChannelObserver) OnStarted(plan Plan) {
	c.send(Event{Kind: EventStarted, Plan: plan}, false)
}

func (c *ChannelObserver) OnDatasetSkipped(name string, err error) {
	c.send(Event{Kind: EventDatasetSkipped, Dataset: name, Err: err}, false)
}

func (c *ChannelObserver) OnProgress(p Progress) {
	c.send(Event{Kind: EventProgress, Progress: p}, false)
}

func (c *ChannelObserver) OnCompleted(done Completion) {
	c.send(Event{Kind: EventCompleted, Completion: done}, true)
}

func (c *ChannelObserver) OnRejected(reason string) {
	c.send(Event{Kind: EventRejected, Reason: reason}, true)
}

func (c *ChannelObserver) send(event Event, last bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.events <- event
	if last {
		c.closed = true
		close(c.events)
	}
}
