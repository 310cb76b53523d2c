package live

import (
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

const defaultPromptWidth = 40

// defaultColumns returns the item table columns for an unknown width.
func defaultColumns() []table.Column {
	return columnsForWidth(0)
}

// columnsForWidth sizes the prompt column to the terminal width.
func columnsForWidth(width int) []table.Column {
	prompt := defaultPromptWidth
	const fixed = 16 + 14 + 22 + 6 + 9 + 8 + 14
	if width > 0 {
		prompt = max(width-fixed, 12)
	}
	return []table.Column{
		{Title: "ID", Width: 16},
		{Title: "Dataset", Width: 14},
		{Title: "Prompt", Width: prompt},
		{Title: "Status", Width: 22},
		{Title: "Score", Width: 6},
		{Title: "Time", Width: 9},
		{Title: "TPS", Width: 8},
	}
}

// tableStyles returns table styles for the UI.
func tableStyles(noColor bool) table.Styles {
	if noColor {
		return table.DefaultStyles()
	}
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Foreground(lipgloss.Color("252"))
	return styles
}

// rowsForState converts UI state into table rows.
func rowsForState(state State, now time.Time, promptWidth int, noColor bool) []table.Row {
	rows := make([]table.Row, 0, len(state.Rows))
	for _, row := range state.Rows {
		rows = append(rows, table.Row{
			row.ID,
			row.Dataset,
			formatPrompt(row.Prompt, promptWidth),
			formatStatus(row, noColor),
			formatScore(row),
			formatRowDuration(row, now),
			formatTPS(row),
		})
	}
	return rows
}
