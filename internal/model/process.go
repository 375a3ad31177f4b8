package model

import "time"

// SpawnOpts contains options for spawning an external process.
type SpawnOpts struct {
	// WorkingDir is the directory the process runs in (optional).
	WorkingDir string
	// Env contains additional environment variables for the process.
	Env map[string]string
	// Timeout is the maximum time the process can run, zero means no limit.
	Timeout time.Duration
}

// ProcessResult contains the result of a spawned external process that ran to completion.
type ProcessResult struct {
	// ExitCode is the termination status of the process.
	ExitCode int
	// Stdout is the captured standard output.
	Stdout []byte
	// Stderr is the captured standard error.
	Stderr []byte
}
