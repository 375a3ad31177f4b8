package model

import "time"

// StepID identifies a scaffolding step independently of its position.
type StepID string

const (
	StepIDCreateOuterDir StepID = "create_outer_dir"
	StepIDCreateInnerDir StepID = "create_inner_dir"
	StepIDNewSolution    StepID = "new_solution"
	StepIDNewProject     StepID = "new_project"
	StepIDAddToSolution  StepID = "add_to_solution"
	StepIDBuild          StepID = "build"
	StepIDRun            StepID = "run"
)

// CommandStep is one external operation of the scaffolding sequence. Steps are
// ordered, each one depends on the artifacts created by the previous ones.
type CommandStep struct {
	// Index is the 1-based position of the step in the sequence.
	Index       int
	ID          StepID
	Description string
	// Command is the shell command line invoked for the step.
	Command string
}

// StepResult is the result of executing a single step.
type StepResult struct {
	Step      CommandStep
	ExitCode  int
	Stdout    string
	Stderr    string
	Succeeded bool
	// Err is set when the step did not succeed, it is a *StepExecutionError or a *ProcessSpawnError.
	Err       error
	StartedAt time.Time
	Duration  time.Duration
}
