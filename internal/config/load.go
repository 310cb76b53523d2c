package config

import (
	"errors"
	"fmt"
	"os"
)

// ErrNotFound reports that no config file exists.
var ErrNotFound = errors.New("config not found")

// Load reads, parses, normalizes, and validates a config file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, err
	}
	cfg.Root = RootFromConfigPath(path)
	return finish(cfg)
}

// Discover loads the config named by explicit, or searches upward from
// startDir. With no explicit path and no config file found it returns the
// defaults rooted at startDir and found=false.
func Discover(explicit, startDir string) (cfg Config, path string, found bool, err error) {
	if explicit != "" {
		cfg, err := Load(explicit)
		return cfg, explicit, err == nil, err
	}
	path, err = FindConfigPath(startDir)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return Config{}, "", false, err
		}
		cfg = Default()
		cfg.Root = startDir
		if cfg.Root == "" {
			if cfg.Root, err = os.Getwd(); err != nil {
				return Config{}, "", false, fmt.Errorf("get working directory: %w", err)
			}
		}
		cfg, err = finish(cfg)
		return cfg, "", false, err
	}
	cfg, err = Load(path)
	return cfg, path, err == nil, err
}

func finish(cfg Config) (Config, error) {
	Normalize(&cfg)
	ApplyEnv(&cfg, nil)
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
