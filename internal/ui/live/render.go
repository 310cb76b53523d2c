package live

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// renderHeader renders the run header line.
func renderHeader(state State, now time.Time, noColor bool) string {
	line := "Benchmark " + state.Model
	if len(state.Datasets) > 0 {
		line += " | Datasets: " + strings.Join(state.Datasets, ", ")
	}
	if !state.StartedAt.IsZero() {
		line += " | Elapsed: " + now.Sub(state.StartedAt).Round(100*time.Millisecond).String()
	}
	return stylize(line, noColor, lipgloss.Color("33"))
}

// renderSummary renders the status counts line.
func renderSummary(state State, noColor bool) string {
	counts := state.Counts
	line := "Queued: " + fmtInt(counts.Queued) +
		" Running: " + fmtInt(counts.Running) +
		" Done: " + fmtInt(counts.Done) + "/" + fmtInt(len(state.Rows)) +
		" Passed: " + fmtInt(counts.Passed) +
		" Failed: " + fmtInt(counts.Failed) +
		" Errors: " + fmtInt(counts.Errors)
	if len(state.Skipped) > 0 {
		line += " Skipped datasets: " + strings.Join(state.Skipped, ", ")
	}
	return stylize(line, noColor, lipgloss.Color("242"))
}

// renderFooter renders the last event line.
func renderFooter(state State, noColor bool) string {
	if state.LastEvent == "" {
		return ""
	}
	color := lipgloss.Color("244")
	if state.Err != "" {
		color = lipgloss.Color("196")
	}
	return stylize("Last event: "+state.LastEvent, noColor, color)
}
