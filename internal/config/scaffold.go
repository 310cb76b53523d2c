package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const defaultConfig = `app:
  name: "LLM Quality Evolution"
  version: "0.1.0"

providers:
  ollama:
    host: "http://localhost:11434"
    timeout: 60s
    models:
      - name: "llama3.1:8b"
        family: "llama"
        parameters: "8B"

paths:
  datasets: "datasets"

history:
  backend: "json"
  file: "config/history.json"

scoring:
  pass_threshold: 80

ui:
  mode: "auto"
  no_color: false
`

const sampleDataset = `[
  {
    "id": "math_basic",
    "prompt": "What is 2+2? Answer with a single number.",
    "expected_keywords": ["4"]
  },
  {
    "id": "capital_france",
    "prompt": "What is the capital of France?",
    "expected_keywords": ["Paris"]
  },
  {
    "id": "go_concurrency",
    "prompt": "Name the two Go language primitives used for concurrency.",
    "expected_keywords": ["goroutine", "channel"]
  }
]
`

// SampleDatasetName is the dataset written by Scaffold.
const SampleDatasetName = "sample.json"

// Scaffold writes a default config and a sample dataset under root. It
// refuses to overwrite existing files.
func Scaffold(root string) (string, error) {
	if root == "" {
		return "", fmt.Errorf("root is required")
	}
	configPath := ConfigPath(root)
	datasetPath := filepath.Join(root, DefaultDatasetsDir, SampleDatasetName)
	for _, path := range []string{configPath, datasetPath} {
		if info, err := os.Stat(path); err == nil {
			if info.IsDir() {
				return "", fmt.Errorf("path %q is a directory", path)
			}
			return "", fmt.Errorf("file already exists at %q", path)
		} else if !os.IsNotExist(err) {
			return "", fmt.Errorf("stat %s: %w", path, err)
		}
	}

	for _, dir := range []string{filepath.Dir(configPath), filepath.Dir(datasetPath)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(configPath, []byte(defaultConfig), 0o644); err != nil {
		return "", fmt.Errorf("write config file: %w", err)
	}
	if err := os.WriteFile(datasetPath, []byte(sampleDataset), 0o644); err != nil {
		return "", fmt.Errorf("write sample dataset: %w", err)
	}
	return configPath, nil
}
