package model

import "time"

const (
	// RunnerLocal runs the toolchain on the local machine.
	RunnerLocal = "local"
	// RunnerDocker runs the toolchain inside containers.
	RunnerDocker = "docker"
)

// Config is the carps configuration, flags take precedence over it.
type Config struct {
	// Runner is where the toolchain runs (local or docker).
	Runner string
	// Shell is the shell dialect name.
	Shell string
	// StepTimeout is the maximum time a single step can run.
	StepTimeout time.Duration
	Toolchain   ToolchainConfig
	Docker      DockerConfig
	// Env are extra environment variables for the spawned processes.
	Env map[string]string
	// DisableHistory disables storing the runs.
	DisableHistory bool
}

// ToolchainConfig is the external toolchain configuration.
type ToolchainConfig struct {
	Binary    string
	Template  string
	Framework string
}

// DockerConfig is the docker runner configuration.
type DockerConfig struct {
	Image    string
	Platform string
	SkipPull bool
}
