// Package config loads the exporter's YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ResourcePack string `yaml:"resource_pack"`
	World        string `yaml:"world"`
	Output       string `yaml:"output"`
	IndexDB      string `yaml:"index_db"`

	Workers int    `yaml:"workers"`
	Seed    int64  `yaml:"seed"`

	DoubleSided      []string `yaml:"double_sided"`
	StrictConditions bool     `yaml:"strict_conditions"`

	LogLevel    string `yaml:"log_level"`
	LogPretty   bool   `yaml:"log_pretty"`
	MetricsAddr string `yaml:"metrics_addr"`
}

func Defaults() Config {
	return Config{
		Output:   "export.jsonl.zst",
		Workers:  runtime.NumCPU(),
		LogLevel: "info",
	}
}

// Load reads path over Defaults. An empty path yields the defaults.
func Load(path string) (Config, error) {
	c := Defaults()
	if path == "" {
		return c, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return c, fmt.Errorf("config %s: %w", path, err)
	}
	return c, c.Validate()
}

func (c Config) Validate() error {
	var errs []error
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be >= 1, got %d", c.Workers))
	}
	switch c.LogLevel {
	case "trace", "debug", "info", "warn", "error", "":
	default:
		errs = append(errs, fmt.Errorf("unknown log_level %q", c.LogLevel))
	}
	return errors.Join(errs...)
}
