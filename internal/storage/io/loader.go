package io

import (
	"context"
	"fmt"
	"io/fs"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/slok/carps/internal/model"
	"github.com/slok/carps/internal/shell"
	"github.com/slok/carps/internal/utils/env"
)

// ConfigYAMLRepository loads carps configuration from YAML files.
type ConfigYAMLRepository struct {
	fs fs.FS
}

// NewConfigYAMLRepository creates a new YAML config repository.
func NewConfigYAMLRepository(filesystem fs.FS) *ConfigYAMLRepository {
	return &ConfigYAMLRepository{fs: filesystem}
}

// GetConfig loads the configuration from a YAML file and returns a validated domain model.
func (r *ConfigYAMLRepository) GetConfig(ctx context.Context, path string) (model.Config, error) {
	data, err := fs.ReadFile(r.fs, path)
	if err != nil {
		return model.Config{}, fmt.Errorf("reading config file: %w", err)
	}

	if ctx.Err() != nil {
		return model.Config{}, ctx.Err()
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return model.Config{}, fmt.Errorf("parsing YAML: %w", err)
	}

	stepTimeout, err := cfg.validate()
	if err != nil {
		return model.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg.toModel(stepTimeout), nil
}

// Config represents the YAML structure of the carps configuration.
type Config struct {
	Runner         string            `yaml:"runner"`
	Shell          string            `yaml:"shell"`
	StepTimeout    string            `yaml:"step_timeout"`
	DisableHistory bool              `yaml:"disable_history"`
	Toolchain      ToolchainConfig   `yaml:"toolchain"`
	Docker         DockerConfig      `yaml:"docker"`
	Env            map[string]string `yaml:"env"`
}

// ToolchainConfig represents the YAML structure of the toolchain configuration.
type ToolchainConfig struct {
	Binary    string `yaml:"binary"`
	Template  string `yaml:"template"`
	Framework string `yaml:"framework"`
}

// DockerConfig represents the YAML structure of the docker runner configuration.
type DockerConfig struct {
	Image    string `yaml:"image"`
	Platform string `yaml:"platform"`
	SkipPull bool   `yaml:"skip_pull"`
}

func (c Config) validate() (stepTimeout time.Duration, err error) {
	if c.Runner != "" && c.Runner != model.RunnerLocal && c.Runner != model.RunnerDocker {
		return 0, fmt.Errorf("runner must be %q or %q, got: %q", model.RunnerLocal, model.RunnerDocker, c.Runner)
	}

	if c.Shell != "" && !slices.Contains(shell.Dialects, c.Shell) {
		return 0, fmt.Errorf("shell must be one of %v, got: %q", shell.Dialects, c.Shell)
	}

	if err := env.ValidateKeys(c.Env); err != nil {
		return 0, fmt.Errorf("env: %w", err)
	}

	if c.StepTimeout != "" {
		stepTimeout, err = time.ParseDuration(c.StepTimeout)
		if err != nil {
			return 0, fmt.Errorf("step_timeout: %w", err)
		}
		if stepTimeout <= 0 {
			return 0, fmt.Errorf("step_timeout must be positive, got: %s", c.StepTimeout)
		}
	}

	return stepTimeout, nil
}

func (c Config) toModel(stepTimeout time.Duration) model.Config {
	return model.Config{
		Runner:      c.Runner,
		Shell:       c.Shell,
		StepTimeout: stepTimeout,
		Toolchain: model.ToolchainConfig{
			Binary:    c.Toolchain.Binary,
			Template:  c.Toolchain.Template,
			Framework: c.Toolchain.Framework,
		},
		Docker: model.DockerConfig{
			Image:    c.Docker.Image,
			Platform: c.Docker.Platform,
			SkipPull: c.Docker.SkipPull,
		},
		Env:            c.Env,
		DisableHistory: c.DisableHistory,
	}
}
