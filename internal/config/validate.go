package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Issue captures a validation problem with a config field.
type Issue struct {
	Field   string
	Message string
}

// ValidationError aggregates config validation issues.
type ValidationError struct {
	Issues []Issue
}

// Error renders validation errors as a multi-line string.
func (err *ValidationError) Error() string {
	if err == nil || len(err.Issues) == 0 {
		return "config validation failed"
	}
	lines := make([]string, 0, len(err.Issues))
	for _, issue := range err.Issues {
		lines = append(lines, fmt.Sprintf("%s: %s", issue.Field, issue.Message))
	}
	return strings.Join(lines, "\n")
}

type issueCollector struct {
	issues []Issue
}

func (c *issueCollector) add(field, message string) {
	c.issues = append(c.issues, Issue{Field: field, Message: message})
}

func (c *issueCollector) result() error {
	if len(c.issues) == 0 {
		return nil
	}
	return &ValidationError{Issues: c.issues}
}

// Validate reports every problem in a normalized config.
func Validate(cfg Config) error {
	var issues issueCollector

	host := cfg.Providers.Ollama.Host
	if parsed, err := url.Parse(host); err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		issues.add("providers.ollama.host", fmt.Sprintf("must be an http(s) URL, got %q", host))
	}
	if cfg.Providers.Ollama.Timeout < 0 {
		issues.add("providers.ollama.timeout", "must be positive")
	}
	seen := map[string]bool{}
	for i, m := range cfg.Providers.Ollama.Models {
		field := fmt.Sprintf("providers.ollama.models[%d].name", i)
		name := strings.TrimSpace(m.Name)
		switch {
		case name == "":
			issues.add(field, "is required")
		case seen[name]:
			issues.add(field, fmt.Sprintf("duplicate model %q", name))
		}
		seen[name] = true
	}
	switch cfg.History.Backend {
	case "json", "duckdb":
	default:
		issues.add("history.backend", fmt.Sprintf("unsupported backend %q (want json or duckdb)", cfg.History.Backend))
	}
	if strings.TrimSpace(cfg.History.File) == "" {
		issues.add("history.file", "is required")
	}
	if t := cfg.Scoring.PassThreshold; t < 1 || t > 100 {
		issues.add("scoring.pass_threshold", fmt.Sprintf("must be between 1 and 100, got %d", t))
	}
	switch cfg.UI.Mode {
	case UIModeAuto, UIModeLive, UIModePlain:
	default:
		issues.add("ui.mode", fmt.Sprintf("unsupported mode %q (want auto, live or plain)", cfg.UI.Mode))
	}
	return issues.result()
}
