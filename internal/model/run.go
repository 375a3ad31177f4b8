package model

import (
	"slices"
	"time"
)

// RunState is the state of a scaffolding run.
type RunState string

const (
	RunStateIdle          RunState = "idle"
	RunStateValidating    RunState = "validating"
	RunStateRejected      RunState = "rejected"
	RunStateBuildingSteps RunState = "building_steps"
	RunStateExecuting     RunState = "executing"
	RunStateStepFailed    RunState = "step_failed"
	RunStateAllSucceeded  RunState = "all_succeeded"
)

// IsTerminal returns true when no further transition can happen from the state.
func (s RunState) IsTerminal() bool {
	switch s {
	case RunStateRejected, RunStateStepFailed, RunStateAllSucceeded:
		return true
	}
	return false
}

var runStateTransitions = map[RunState][]RunState{
	RunStateIdle:          {RunStateValidating},
	RunStateValidating:    {RunStateRejected, RunStateBuildingSteps},
	RunStateBuildingSteps: {RunStateExecuting},
	RunStateExecuting:     {RunStateExecuting, RunStateStepFailed, RunStateAllSucceeded},
}

// CanTransitionTo returns true if the run can go from s to next. Terminal states
// don't allow any transition.
func (s RunState) CanTransitionTo(next RunState) bool {
	return slices.Contains(runStateTransitions[s], next)
}

// RunOutcome is the result of a complete scaffolding run.
type RunOutcome struct {
	RunID string
	Name  ProjectName
	Paths ProjectPaths
	State RunState
	// Steps are all the steps derived for the run, executed or not.
	Steps []CommandStep
	// Results are the results of the executed steps, in execution order.
	Results []StepResult
	// FailedStep is the step that stopped the run, nil unless the state is step failed.
	FailedStep *CommandStep
	// RejectErr is set when the project name was rejected.
	RejectErr error
}

// Succeeded returns true when all the steps succeeded.
func (o RunOutcome) Succeeded() bool { return o.State == RunStateAllSucceeded }

// Err returns the error that ended the run, nil if it succeeded.
func (o RunOutcome) Err() error {
	switch o.State {
	case RunStateRejected:
		return o.RejectErr
	case RunStateStepFailed:
		if len(o.Results) > 0 {
			return o.Results[len(o.Results)-1].Err
		}
		return ErrStepFailed
	}
	return nil
}

// Run is the stored record of a scaffolding run.
type Run struct {
	ID         string
	Name       ProjectName
	WorkingDir string
	Runner     string
	State      RunState
	// FailedStepIndex is the index of the failed step, zero if none failed.
	FailedStepIndex int
	CreatedAt       time.Time
	FinishedAt      *time.Time
	Steps           []StepRecord
}

// StepRecord is the stored result of an executed step.
type StepRecord struct {
	Index     int
	ID        StepID
	Command   string
	ExitCode  int
	Stdout    string
	Stderr    string
	Succeeded bool
	Error     string
	StartedAt time.Time
	Duration  time.Duration
}

// NewStepRecord returns the storable record of a step result.
func NewStepRecord(r StepResult) StepRecord {
	rec := StepRecord{
		Index:     r.Step.Index,
		ID:        r.Step.ID,
		Command:   r.Step.Command,
		ExitCode:  r.ExitCode,
		Stdout:    r.Stdout,
		Stderr:    r.Stderr,
		Succeeded: r.Succeeded,
		StartedAt: r.StartedAt,
		Duration:  r.Duration,
	}
	if r.Err != nil {
		rec.Error = r.Err.Error()
	}
	return rec
}
