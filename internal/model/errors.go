package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a resource is not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when a resource already exists.
	ErrAlreadyExists = errors.New("already exists")
	// ErrNotValid is returned when a resource is not valid.
	ErrNotValid = errors.New("not valid")
	// ErrStepFailed is returned when a scaffolding step did not succeed.
	ErrStepFailed = errors.New("step failed")
	// ErrCommandNotFound is returned when the shell could not find the command of a step.
	ErrCommandNotFound = errors.New("command not found")
)

// InvalidNameError is returned when a project name does not satisfy the naming rule.
type InvalidNameError struct {
	Name string
}

func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("invalid project name %q: must be non-empty and contain only alphanumeric characters and underscores", e.Name)
}

func (e *InvalidNameError) Unwrap() error { return ErrNotValid }

// StepExecutionError is returned when the external process of a step exits with a non-zero status.
type StepExecutionError struct {
	Step     CommandStep
	ExitCode int
	Stdout   string
	Stderr   string
}

func (e *StepExecutionError) Error() string {
	msg := fmt.Sprintf("step %d (%s) exited with code %d", e.Step.Index, e.Step.Description, e.ExitCode)
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += ": " + stderr
	}
	return msg
}

func (e *StepExecutionError) Unwrap() error { return ErrStepFailed }

// ProcessSpawnError is returned when the external process of a step could not be started
// (e.g. the toolchain is missing) or did not finish in time.
type ProcessSpawnError struct {
	Step CommandStep
	Err  error
}

func (e *ProcessSpawnError) Error() string {
	return fmt.Sprintf("step %d (%s) could not start: %s", e.Step.Index, e.Step.Description, e.Err)
}

func (e *ProcessSpawnError) Unwrap() []error { return []error{ErrStepFailed, e.Err} }
