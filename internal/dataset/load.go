package dataset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrEmptyDataset indicates a dataset file without items.
var ErrEmptyDataset = errors.New("dataset has no items")

// LoadFile reads, parses, and validates a dataset file.
func LoadFile(path string) ([]Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	items, err := parseItems(data, path)
	if err != nil {
		return nil, err
	}
	if err := validateItems(items); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return items, nil
}

// Loader resolves dataset names relative to a directory.
type Loader struct {
	Dir string
}

// Load loads a dataset by file name or path.
func (l Loader) Load(name string) ([]Item, error) {
	return LoadFile(l.Resolve(name))
}

// Resolve returns the on-disk path for a dataset name.
func (l Loader) Resolve(name string) string {
	if l.Dir == "" || filepath.IsAbs(name) || strings.ContainsRune(name, filepath.Separator) {
		return name
	}
	return filepath.Join(l.Dir, name)
}

func parseItems(data []byte, path string) ([]Item, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		return parseYAMLItems(data)
	default:
		return parseJSONItems(data)
	}
}

func parseJSONItems(data []byte) ([]Item, error) {
	var items []Item
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&items); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return nil, fmt.Errorf("parse json: multiple documents are not supported")
		}
		return nil, fmt.Errorf("parse json: %w", err)
	}
	return items, nil
}

func parseYAMLItems(data []byte) ([]Item, error) {
	var items []Item
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&items); err != nil {
		if err == io.EOF {
			return nil, ErrEmptyDataset
		}
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return nil, fmt.Errorf("parse yaml: multiple documents are not supported")
		}
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return items, nil
}

func validateItems(items []Item) error {
	if len(items) == 0 {
		return ErrEmptyDataset
	}
	var problems []string
	seen := make(map[string]struct{}, len(items))
	for i, item := range items {
		id := strings.TrimSpace(item.ID)
		if id == "" {
			problems = append(problems, fmt.Sprintf("item %d: id is required", i+1))
		} else if _, dup := seen[id]; dup {
			problems = append(problems, fmt.Sprintf("item %d: duplicate id %q", i+1, id))
		} else {
			seen[id] = struct{}{}
		}
		if strings.TrimSpace(item.Prompt) == "" {
			problems = append(problems, fmt.Sprintf("item %d: prompt is required", i+1))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid dataset: %s", strings.Join(problems, "; "))
	}
	return nil
}
