package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// config is hubctl's small YAML config: a queue suspension default and the
// fixture path inspect falls back to. suspend_queue_by_default is parsed
// but no subcommand reads it. Every field has a usable zero value, so a
// missing config file is not an error.
type config struct {
	SuspendQueueByDefault bool   `yaml:"suspend_queue_by_default"`
	FixturePath           string `yaml:"fixture_path"`
}

func loadConfig(path string) (config, error) {
	var cfg config
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("hubctl: read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("hubctl: parse config %s: %w", path, err)
	}
	return cfg, nil
}
