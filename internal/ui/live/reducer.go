package live

import (
	"fmt"
	"time"

	"llmbench/internal/runner"
)

// Reduce applies a run event to the UI state.
func Reduce(state State, event runner.Event, now time.Time) State {
	switch event.Kind {
	case runner.EventStarted:
		state = applyPlan(state, event.Plan, now)
	case runner.EventDatasetSkipped:
		state.Skipped = append(append([]string(nil), state.Skipped...), event.Dataset)
		state.LastEvent = fmt.Sprintf("skipped %s: %v", event.Dataset, event.Err)
	case runner.EventProgress:
		state = applyProgress(state, event.Progress, now)
	case runner.EventCompleted:
		state.Finished = true
		rows := append([]ItemRow(nil), state.Rows...)
		for i := range rows {
			if rows[i].Status == StatusRunning {
				rows[i].Status = StatusQueued
			}
		}
		state.Rows = rows
		if record := event.Completion.Record; record != nil {
			state.RunID = record.ID
			state.AvgScore = record.AvgScore
		}
		if event.Completion.Err != nil {
			state.Err = event.Completion.Err.Error()
			state.LastEvent = "run failed: " + state.Err
		} else {
			state.LastEvent = fmt.Sprintf("run %s finished, average score %.1f", state.RunID, state.AvgScore)
		}
	case runner.EventRejected:
		state.Finished = true
		state.Err = event.Reason
		state.LastEvent = "run rejected: " + event.Reason
	}
	state.Counts = recount(state.Rows)
	return state
}

func applyPlan(state State, plan runner.Plan, now time.Time) State {
	state.Model = plan.Model
	state.Datasets = append([]string(nil), plan.Datasets...)
	state.StartedAt = now
	rows := make([]ItemRow, 0, len(plan.Items))
	for i, item := range plan.Items {
		rows = append(rows, ItemRow{
			Index:   i,
			ID:      item.ID,
			Dataset: item.Dataset,
			Prompt:  item.Prompt,
			Status:  StatusQueued,
		})
	}
	if len(rows) > 0 {
		rows[0].Status = StatusRunning
		rows[0].StartedAt = now
	}
	state.Rows = rows
	state.LastEvent = fmt.Sprintf("started %d items", len(rows))
	return state
}

func applyProgress(state State, p runner.Progress, now time.Time) State {
	index := p.Index - 1
	if index < 0 {
		return state
	}
	state = ensureRow(state, index)
	row := state.Rows[index]
	if row.ID == "" {
		row.ID = p.ItemID
		row.Dataset = p.Dataset
	}
	row.Score = p.Score
	row.Error = p.Error
	row.FinishedAt = now
	if row.StartedAt.IsZero() {
		row.StartedAt = now
	}
	switch {
	case p.Error != "":
		row.Status = StatusError
	case p.Passed:
		row.Status = StatusPassed
	default:
		row.Status = StatusFailed
	}
	if p.Metrics != nil {
		row.HasMetrics = true
		row.Duration = p.Metrics.DurationSeconds
		row.TPS = p.Metrics.TokensPerSecond
		row.Tokens = p.Metrics.TokenCount
	}
	state.Rows[index] = row

	if next := index + 1; next < len(state.Rows) && state.Rows[next].Status == StatusQueued {
		state.Rows[next].Status = StatusRunning
		state.Rows[next].StartedAt = now
	}
	if p.Error != "" {
		state.LastEvent = fmt.Sprintf("%d/%d %s error: %s", p.Index, p.Total, p.ItemID, p.Error)
	} else {
		state.LastEvent = fmt.Sprintf("%d/%d %s scored %d", p.Index, p.Total, p.ItemID, p.Score)
	}
	return state
}

// ensureRow grows the rows to include index when no plan was received.
func ensureRow(state State, index int) State {
	if index < len(state.Rows) {
		rows := make([]ItemRow, len(state.Rows))
		copy(rows, state.Rows)
		state.Rows = rows
		return state
	}
	rows := make([]ItemRow, index+1)
	copy(rows, state.Rows)
	for i := len(state.Rows); i < len(rows); i++ {
		rows[i] = ItemRow{Index: i, Status: StatusQueued}
	}
	state.Rows = rows
	return state
}

// recount recomputes status counts for the current rows.
func recount(rows []ItemRow) StatusCounts {
	var counts StatusCounts
	for _, row := range rows {
		switch row.Status {
		case StatusQueued:
			counts.Queued++
		case StatusRunning:
			counts.Running++
		case StatusPassed:
			counts.Done++
			counts.Passed++
		case StatusFailed:
			counts.Done++
			counts.Failed++
		case StatusError:
			counts.Done++
			counts.Errors++
		}
	}
	return counts
}
