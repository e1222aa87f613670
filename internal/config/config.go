// Package config reads the vfsterm configuration file.
package config

import (
	"fmt"
	"os"
	"strings"

	"vfsterm/internal/loader"
	"vfsterm/internal/logging"
	"vfsterm/internal/shell"

	"gopkg.in/yaml.v3"
)

// Config is read from a YAML file. JSON is a subset of YAML, so JSON
// configuration files are accepted as well. All fields are optional;
// defaults are applied by the accessors.
//
// Example:
//
//	vfs_path: ./vfs.csv
//	start_script: ./start.txt
//	name: vfs
//	load_policy: strict
//	log_level: warn
//	metrics_addr: 127.0.0.1:9090
//	mount_point: /mnt/vfs
type Config struct {
	VFSPath     string `yaml:"vfs_path"`
	StartScript string `yaml:"start_script"`
	Name        string `yaml:"name"`
	LoadPolicy  string `yaml:"load_policy"`
	LogLevel    string `yaml:"log_level"`
	MetricsAddr string `yaml:"metrics_addr"`
	MountPoint  string `yaml:"mount_point"`
}

// Default returns a configuration with every field at its default.
func Default() *Config {
	return &Config{}
}

// Load reads the configuration file at path. An empty path returns the
// defaults. Unknown load policies and log levels are rejected.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the enumerated fields.
func (c *Config) Validate() error {
	if _, err := loader.ParsePolicy(c.LoadPolicy); err != nil {
		return fmt.Errorf("load_policy: %w", err)
	}
	if c.LogLevel != "" {
		if _, err := logging.ParseLevel(c.LogLevel); err != nil {
			return fmt.Errorf("log_level: %w", err)
		}
	}
	return nil
}

// ShellName returns the display name of the shell.
func (c *Config) ShellName() string {
	if c == nil {
		return shell.DefaultName
	}
	if v := strings.TrimSpace(c.Name); v != "" {
		return v
	}
	return shell.DefaultName
}

// Policy returns the loader policy; invalid values fall back to strict.
func (c *Config) Policy() loader.Policy {
	if c == nil {
		return loader.Strict
	}
	p, _ := loader.ParsePolicy(c.LoadPolicy)
	return p
}

// Level returns the configured log level.
func (c *Config) Level() logging.LogLevel {
	if c == nil || c.LogLevel == "" {
		return logging.LevelWarn
	}
	l, _ := logging.ParseLevel(c.LogLevel)
	return l
}
