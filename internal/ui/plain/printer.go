// Package plain renders runs and history as plain terminal text.
package plain

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"llmbench/internal/history"
	"llmbench/internal/model"
	"llmbench/internal/runner"
)

// Printer writes one line per run event. It implements runner.Observer.
type Printer struct {
	mu        sync.Mutex
	out       io.Writer
	threshold int
}

// NewPrinter returns a Printer writing to out.
func NewPrinter(out io.Writer, threshold int) *Printer {
	if threshold <= 0 {
		threshold = model.PassThreshold
	}
	return &Printer{out: out, threshold: threshold}
}

func (p *Printer) OnStarted(plan runner.Plan) {
	p.printf("Running %s on %d items from %s\n", plan.Model, len(plan.Items), strings.Join(plan.Datasets, ", "))
}

func (p *Printer) OnDatasetSkipped(name string, err error) {
	p.printf("Skipped dataset %s: %v\n", name, err)
}

func (p *Printer) OnProgress(progress runner.Progress) {
	width := len(fmt.Sprint(progress.Total))
	prefix := fmt.Sprintf("[%*d/%d] %s %s", width, progress.Index, progress.Total, progress.Dataset, progress.ItemID)
	if progress.Error != "" {
		p.printf("%s  %3d ❌ %s\n", prefix, progress.Score, progress.Error)
		return
	}
	line := fmt.Sprintf("%s  %3d %s", prefix, progress.Score, StatusMark(progress.Passed))
	if m := progress.Metrics; m != nil {
		line += fmt.Sprintf("  %.2fs  %.1f tok/s  %d tokens", m.DurationSeconds, m.TokensPerSecond, m.TokenCount)
	}
	p.printf("%s\n", line)
}

func (p *Printer) OnCompleted(done runner.Completion) {
	if done.Record != nil {
		p.printf("%s\n", Summary(*done.Record, p.threshold))
	}
	switch {
	case done.Err == nil:
	case errors.Is(done.Err, history.ErrPersist):
		p.printf("Warning: run was not saved to history: %v\n", done.Err)
	default:
		p.printf("Run failed: %v\n", done.Err)
	}
}

func (p *Printer) OnRejected(reason string) {
	p.printf("Run rejected: %s\n", reason)
}

func (p *Printer) printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, format, args...)
}

// StatusMark is the pass/fail marker used across views.
func StatusMark(passed bool) string {
	if passed {
		return "✅"
	}
	return "⚠️"
}

// Summary renders the one-line result of a run.
func Summary(run model.RunRecord, threshold int) string {
	parts := []string{
		fmt.Sprintf("Run %s", run.ID),
		fmt.Sprintf("model %s", run.Model),
		fmt.Sprintf("%d items", len(run.Details)),
		fmt.Sprintf("avg score %.1f %s", run.AvgScore, StatusMark(run.AvgScore >= float64(threshold))),
	}
	if run.AvgDuration != nil {
		parts = append(parts, fmt.Sprintf("avg time %.1fs", *run.AvgDuration))
	}
	if run.AvgTPS != nil {
		parts = append(parts, fmt.Sprintf("avg %.1f tok/s", *run.AvgTPS))
	}
	return strings.Join(parts, " | ")
}
