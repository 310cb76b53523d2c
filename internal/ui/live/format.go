package live

import (
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// fmtInt converts an int to string.
func fmtInt(value int) string {
	return strconv.Itoa(value)
}

// formatPrompt collapses whitespace and truncates prompt text for display.
func formatPrompt(text string, limit int) string {
	normalized := strings.Join(strings.Fields(text), " ")
	runes := []rune(normalized)
	if limit <= 3 || len(runes) <= limit {
		return normalized
	}
	return string(runes[:limit-3]) + "..."
}

// formatScore renders a score once the item is done.
func formatScore(row ItemRow) string {
	switch row.Status {
	case StatusPassed, StatusFailed, StatusError:
		return fmtInt(row.Score)
	default:
		return ""
	}
}

// formatRowDuration returns the reported call time, or elapsed time while running.
func formatRowDuration(row ItemRow, now time.Time) string {
	if row.HasMetrics {
		return strconv.FormatFloat(row.Duration, 'f', 2, 64) + "s"
	}
	if row.Status == StatusRunning && !row.StartedAt.IsZero() {
		return formatDuration(now.Sub(row.StartedAt))
	}
	return ""
}

// formatTPS formats throughput for display.
func formatTPS(row ItemRow) string {
	if !row.HasMetrics {
		return ""
	}
	return strconv.FormatFloat(row.TPS, 'f', 1, 64)
}

// formatDuration renders a rounded duration for display.
func formatDuration(duration time.Duration) string {
	if duration <= 0 {
		return "0s"
	}
	return duration.Round(100 * time.Millisecond).String()
}

// formatStatus renders a status string for a row.
func formatStatus(row ItemRow, noColor bool) string {
	label := string(row.Status)
	if row.Status == StatusError && row.Error != "" {
		label = "error: " + formatPrompt(row.Error, 40)
	}
	if noColor {
		return label
	}
	return statusStyle(row.Status).Render(label)
}

// statusStyle selects a style for a given status.
func statusStyle(status ItemStatus) lipgloss.Style {
	color := lipgloss.Color("244")
	switch status {
	case StatusPassed:
		color = lipgloss.Color("42")
	case StatusFailed:
		color = lipgloss.Color("220")
	case StatusError:
		color = lipgloss.Color("196")
	case StatusRunning:
		color = lipgloss.Color("33")
	case StatusQueued:
		color = lipgloss.Color("246")
	}
	return lipgloss.NewStyle().Foreground(color)
}

// stylize applies optional color styling.
func stylize(text string, noColor bool, color lipgloss.Color) string {
	if noColor {
		return text
	}
	return lipgloss.NewStyle().Foreground(color).Render(text)
}
