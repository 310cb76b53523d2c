package plain

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"llmbench/internal/adapter"
	"llmbench/internal/dataset"
	"llmbench/internal/model"
)

const previewLimit = 40

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	titleStyle  = lipgloss.NewStyle().Bold(true)
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

// HistoryTable lists runs newest first with a 1-based index usable by show.
func HistoryTable(runs []model.RunRecord, threshold int) string {
	if len(runs) == 0 {
		return "No runs recorded yet."
	}
	t := newTable("#", "Date", "Model", "Datasets", "Avg score", "Items", "Status")
	for i, run := range runs {
		t.Row(
			fmt.Sprint(i+1),
			run.Timestamp,
			run.Model,
			strings.Join(run.Datasets, ", "),
			fmt.Sprintf("%.1f", run.AvgScore),
			fmt.Sprint(len(run.Details)),
			StatusMark(run.AvgScore >= float64(threshold)),
		)
	}
	return t.Render()
}

// RunDetail renders one run with its per-item results.
func RunDetail(run model.RunRecord, threshold int) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Run "+run.ID) + "\n")
	fmt.Fprintf(&b, "Date:     %s\n", run.Timestamp)
	fmt.Fprintf(&b, "Model:    %s\n", run.Model)
	fmt.Fprintf(&b, "Datasets: %s\n", strings.Join(run.Datasets, ", "))
	fmt.Fprintf(&b, "Score:    %.1f %s\n", run.AvgScore, StatusMark(run.AvgScore >= float64(threshold)))
	if run.AvgDuration != nil && run.AvgTPS != nil {
		fmt.Fprintf(&b, "Speed:    %.1fs avg, %.1f tok/s avg", *run.AvgDuration, *run.AvgTPS)
		if run.AvgResponseLength != nil {
			fmt.Fprintf(&b, ", %.1f chars avg", *run.AvgResponseLength)
		}
		b.WriteString("\n")
	}

	t := newTable("ID", "Score", "Matched", "Missing", "Time", "Prompt")
	for _, item := range run.Details {
		timing := ""
		if item.Metrics != nil {
			timing = fmt.Sprintf("%.2fs", item.Metrics.DurationSeconds)
		}
		missing := strings.Join(item.MissingKeywords, ", ")
		if item.Error != "" {
			missing = "error: " + dataset.Preview(item.Error, previewLimit)
		}
		t.Row(
			item.ID,
			fmt.Sprintf("%d %s", item.Score, StatusMark(item.Score >= threshold)),
			strings.Join(item.MatchedKeywords, ", "),
			missing,
			timing,
			dataset.Preview(item.Prompt, previewLimit),
		)
	}
	b.WriteString(t.Render())
	return b.String()
}

// DatasetTable lists dataset files found in a directory.
func DatasetTable(summaries []dataset.Summary) string {
	if len(summaries) == 0 {
		return "No dataset files found."
	}
	t := newTable("Dataset", "Prompts", "First prompt")
	for _, s := range summaries {
		if s.Err != nil {
			t.Row(s.Name, "-", "error: "+dataset.Preview(s.Err.Error(), previewLimit))
			continue
		}
		t.Row(s.Name, fmt.Sprint(s.Prompts), s.Preview)
	}
	return t.Render()
}

// ModelRow is one installed model with optional configured metadata.
type ModelRow struct {
	Info       adapter.ModelInfo
	Family     string
	Parameters string
}

// ModelTable lists installed models.
func ModelTable(rows []ModelRow) string {
	if len(rows) == 0 {
		return "No models installed. Pull one with: ollama pull <model>"
	}
	t := newTable("Name", "ID", "Size", "Family", "Parameters", "Modified")
	for _, row := range rows {
		modified := ""
		if !row.Info.ModifiedAt.IsZero() {
			modified = row.Info.ModifiedAt.Local().Format("2006-01-02 15:04")
		}
		t.Row(row.Info.Name, row.Info.ID, adapter.FormatSize(row.Info.Size), row.Family, row.Parameters, modified)
	}
	return t.Render()
}
