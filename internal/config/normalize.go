package config

import (
	"os"
	"strings"
	"time"
)

// Defaults used when the config file leaves a field empty.
const (
	DefaultAppName       = "LLM Quality Evolution"
	DefaultOllamaHost    = "http://localhost:11434"
	DefaultOllamaTimeout = 60 * time.Second
	DefaultDatasetsDir   = "datasets"
	DefaultHistoryFile   = "config/history.json"
	DefaultHistoryDuckDB = "config/history.duckdb"
	DefaultBackend       = "json"
	DefaultPassThreshold = 80
	DefaultUIMode        = UIModeAuto
)

// Environment overrides.
const (
	EnvOllamaHost  = "LLMBENCH_OLLAMA_HOST"
	EnvHistoryFile = "LLMBENCH_HISTORY_FILE"
)

// UI modes.
const (
	UIModeAuto  = "auto"
	UIModeLive  = "live"
	UIModePlain = "plain"
)

// Default returns a config with every default applied.
func Default() Config {
	var cfg Config
	Normalize(&cfg)
	return cfg
}

// Normalize fills empty fields with defaults.
func Normalize(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = DefaultAppName
	}
	cfg.Providers.Ollama.Host = strings.TrimRight(strings.TrimSpace(cfg.Providers.Ollama.Host), "/")
	if cfg.Providers.Ollama.Host == "" {
		cfg.Providers.Ollama.Host = DefaultOllamaHost
	}
	if cfg.Providers.Ollama.Timeout == 0 {
		cfg.Providers.Ollama.Timeout = DefaultOllamaTimeout
	}
	if cfg.Paths.Datasets == "" {
		cfg.Paths.Datasets = DefaultDatasetsDir
	}
	cfg.History.Backend = strings.ToLower(strings.TrimSpace(cfg.History.Backend))
	if cfg.History.Backend == "" {
		cfg.History.Backend = DefaultBackend
	}
	if cfg.History.File == "" {
		if cfg.History.Backend == "duckdb" {
			cfg.History.File = DefaultHistoryDuckDB
		} else {
			cfg.History.File = DefaultHistoryFile
		}
	}
	if cfg.Scoring.PassThreshold == 0 {
		cfg.Scoring.PassThreshold = DefaultPassThreshold
	}
	cfg.UI.Mode = strings.ToLower(strings.TrimSpace(cfg.UI.Mode))
	if cfg.UI.Mode == "" {
		cfg.UI.Mode = DefaultUIMode
	}
}

// ApplyEnv overrides fields from the environment.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if host, ok := lookup(EnvOllamaHost); ok && strings.TrimSpace(host) != "" {
		cfg.Providers.Ollama.Host = strings.TrimRight(strings.TrimSpace(host), "/")
	}
	if file, ok := lookup(EnvHistoryFile); ok && strings.TrimSpace(file) != "" {
		cfg.History.File = strings.TrimSpace(file)
	}
}
