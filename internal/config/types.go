package config

import "time"

// Config is the llmbench configuration file.
type Config struct {
	App       AppConfig       `yaml:"app"`
	Providers ProvidersConfig `yaml:"providers"`
	Paths     PathsConfig     `yaml:"paths"`
	History   HistoryConfig   `yaml:"history"`
	Scoring   ScoringConfig   `yaml:"scoring"`
	UI        UIConfig        `yaml:"ui"`

	// Root is the directory relative paths resolve against. Not read from YAML.
	Root string `yaml:"-"`
}

type AppConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

type ProvidersConfig struct {
	Ollama OllamaConfig `yaml:"ollama"`
}

type OllamaConfig struct {
	Host    string        `yaml:"host"`
	Timeout time.Duration `yaml:"timeout"`
	Models  []ModelConfig `yaml:"models"`
}

// ModelConfig carries descriptive metadata for a known model.
type ModelConfig struct {
	Name       string `yaml:"name"`
	Family     string `yaml:"family"`
	Parameters string `yaml:"parameters"`
}

type PathsConfig struct {
	Datasets string `yaml:"datasets"`
}

type HistoryConfig struct {
	Backend string `yaml:"backend"`
	File    string `yaml:"file"`
}

type ScoringConfig struct {
	PassThreshold int `yaml:"pass_threshold"`
}

type UIConfig struct {
	Mode    string `yaml:"mode"`
	NoColor bool   `yaml:"no_color"`
}

// ModelMetadata returns the configured metadata for name, if any.
func (c Config) ModelMetadata(name string) (ModelConfig, bool) {
	for _, m := range c.Providers.Ollama.Models {
		if m.Name == name {
			return m, true
		}
	}
	return ModelConfig{}, false
}
