package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const previewLimit = 40

// IsDatasetFile reports whether a file name looks like a dataset.
func IsDatasetFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".yml", ".yaml":
		return true
	default:
		return false
	}
}

// List summarizes every dataset file in dir, sorted by name. Unreadable
// files are listed with Err set rather than failing the listing.
func List(dir string) ([]Summary, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read datasets dir: %w", err)
	}
	summaries := make([]Summary, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !IsDatasetFile(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		summary := Summary{Name: entry.Name(), Path: path}
		items, err := LoadFile(path)
		if err != nil {
			summary.Err = err
		} else {
			summary.Prompts = len(items)
			summary.Preview = Preview(items[0].Prompt, previewLimit)
		}
		summaries = append(summaries, summary)
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Name < summaries[j].Name
	})
	return summaries, nil
}

// Preview collapses whitespace and truncates text to limit runes.
func Preview(text string, limit int) string {
	normalized := strings.Join(strings.Fields(text), " ")
	runes := []rune(normalized)
	if limit <= 3 || len(runes) <= limit {
		return normalized
	}
	return string(runes[:limit-3]) + "..."
}
