package lib

import (
	"errors"
	"time"

	"github.com/slok/carps/internal/model"
)

// RunnerType identifies where the toolchain runs.
type RunnerType string

const (
	// RunnerLocal runs the toolchain installed on the host.
	RunnerLocal RunnerType = model.RunnerLocal
	// RunnerDocker runs each step inside a throwaway .NET SDK container.
	// Requires a reachable Docker daemon.
	RunnerDocker RunnerType = model.RunnerDocker
	// RunnerFake doesn't run anything. Use it for tests.
	RunnerFake RunnerType = "fake"
)

// Toolchain customizes the toolchain invocation, empty fields use the defaults.
type Toolchain struct {
	// Binary is the toolchain executable. Default: dotnet.
	Binary string
	// Template is the project template. Default: console.
	Template string
	// Framework is the optional target framework (e.g. net8.0).
	Framework string
}

// DockerConfig configures the docker runner.
type DockerConfig struct {
	// Image is the toolchain image. Default: mcr.microsoft.com/dotnet/sdk:8.0.
	Image string
	// Platform is the optional image platform in os/arch[/variant] form.
	Platform string
	// SkipPull uses the local image without pulling it.
	SkipPull bool
}

// FakeFailure is a scripted step failure of the fake runner.
type FakeFailure struct {
	// ExitCode is the non-zero exit code of the step.
	ExitCode int
	// Stderr is the step error output.
	Stderr string
	// SpawnErr simulates a process that could not be started, when set the
	// exit code and stderr are ignored.
	SpawnErr error
}

// RunState is the state of a scaffolding run.
//
//	validating -> rejected
//	validating -> building_steps -> executing -> step_failed | all_succeeded
type RunState string

const (
	// RunStateExecuting is the state of a run that didn't finish (e.g. the process crashed).
	RunStateExecuting RunState = RunState(model.RunStateExecuting)
	// RunStateRejected means the project name was not valid, nothing was run.
	RunStateRejected RunState = RunState(model.RunStateRejected)
	// RunStateStepFailed means a step failed and the following ones were not run.
	RunStateStepFailed RunState = RunState(model.RunStateStepFailed)
	// RunStateAllSucceeded means all the steps succeeded.
	RunStateAllSucceeded RunState = RunState(model.RunStateAllSucceeded)
)

// ProjectPaths are the paths of a scaffolded project.
type ProjectPaths struct {
	OuterDir     string
	InnerDir     string
	SolutionFile string
	ProjectDir   string
	ProjectFile  string
}

// Step is a scaffolding step.
type Step struct {
	// Index is the 1-based position of the step.
	Index       int
	ID          string
	Description string
	// Command is the shell command line of the step.
	Command string
}

// StepResult is the result of an executed step.
type StepResult struct {
	Step      Step
	ExitCode  int
	Stdout    string
	Stderr    string
	Succeeded bool
	// Err is set when the step failed, it matches ErrStepFailed.
	Err       error
	StartedAt time.Time
	Duration  time.Duration
}

// Outcome is the result of a scaffolding run.
type Outcome struct {
	// RunID is the history ID of the run, empty when the name was rejected.
	RunID string
	Name  string
	Paths ProjectPaths
	State RunState
	// Steps are all the steps of the run, executed or not.
	Steps []Step
	// Results are the results of the executed steps.
	Results []StepResult
	// FailedStep is the step that failed, nil unless State is RunStateStepFailed.
	FailedStep *Step

	err error
}

// Succeeded returns true when all the steps succeeded.
func (o Outcome) Succeeded() bool { return o.State == RunStateAllSucceeded }

// Err returns why the run didn't succeed: ErrNotValid for a rejected name and
// ErrStepFailed for a failed step. Nil on success.
func (o Outcome) Err() error { return o.err }

// ScaffoldOpts are the options to scaffold a project.
type ScaffoldOpts struct {
	// Name is the project name, only letters, digits and underscores are allowed.
	Name string
	// WorkingDir is where the project is created. Default: current directory.
	WorkingDir string
}

// ScriptResult is the result of writing an instruction file.
type ScriptResult struct {
	// Path is the instruction file path.
	Path    string
	Content string
	Steps   []Step
}

// Run is a stored scaffolding run.
type Run struct {
	ID         string
	Name       string
	WorkingDir string
	Runner     string
	State      RunState
	// FailedStepIndex is the index of the failed step, zero if none failed.
	FailedStepIndex int
	CreatedAt       time.Time
	FinishedAt      *time.Time
	// Steps are only set by GetRun.
	Steps []StepRecord
}

// StepRecord is the stored result of an executed step.
type StepRecord struct {
	Index     int
	ID        string
	Command   string
	ExitCode  int
	Stdout    string
	Stderr    string
	Succeeded bool
	Error     string
	StartedAt time.Time
	Duration  time.Duration
}

// ListRunsOpts filters the listed runs. A nil value lists all the runs.
type ListRunsOpts struct {
	State *RunState
	// Name filters by project name.
	Name string
	// Limit is the maximum number of runs, zero is unlimited.
	Limit int
}

// CheckStatus is the status of a doctor check.
type CheckStatus string

const (
	CheckStatusOK      CheckStatus = CheckStatus(model.CheckStatusOK)
	CheckStatusWarning CheckStatus = CheckStatus(model.CheckStatusWarning)
	CheckStatusError   CheckStatus = CheckStatus(model.CheckStatusError)
)

// CheckResult is the result of a doctor check.
type CheckResult struct {
	ID      string
	Status  CheckStatus
	Message string
}

var (
	// ErrNotFound is returned when a run does not exist.
	ErrNotFound = errors.New("not found")
	// ErrNotValid is returned on invalid input.
	ErrNotValid = errors.New("not valid")
	// ErrStepFailed is returned when a scaffolding step failed.
	ErrStepFailed = errors.New("step failed")
)

func mapError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, model.ErrNotFound):
		return &mappedError{original: err, sentinel: ErrNotFound}
	case errors.Is(err, model.ErrNotValid):
		return &mappedError{original: err, sentinel: ErrNotValid}
	case errors.Is(err, model.ErrStepFailed):
		return &mappedError{original: err, sentinel: ErrStepFailed}
	default:
		return err
	}
}

type mappedError struct {
	original error
	sentinel error
}

func (e *mappedError) Error() string { return e.original.Error() }

func (e *mappedError) Is(target error) bool { return target == e.sentinel }

func (e *mappedError) Unwrap() error { return e.original }

// --- Conversion helpers ---

func fromInternalStep(s model.CommandStep) Step {
	return Step{
		Index:       s.Index,
		ID:          string(s.ID),
		Description: s.Description,
		Command:     s.Command,
	}
}

func fromInternalSteps(ss []model.CommandStep) []Step {
	out := make([]Step, len(ss))
	for i, s := range ss {
		out[i] = fromInternalStep(s)
	}
	return out
}

func fromInternalOutcome(o model.RunOutcome) *Outcome {
	out := &Outcome{
		RunID:   o.RunID,
		Name:    o.Name.String(),
		Paths:   ProjectPaths(o.Paths),
		State:   RunState(o.State),
		Steps:   fromInternalSteps(o.Steps),
		Results: make([]StepResult, len(o.Results)),
		err:     mapError(o.Err()),
	}

	for i, r := range o.Results {
		out.Results[i] = StepResult{
			Step:      fromInternalStep(r.Step),
			ExitCode:  r.ExitCode,
			Stdout:    r.Stdout,
			Stderr:    r.Stderr,
			Succeeded: r.Succeeded,
			Err:       mapError(r.Err),
			StartedAt: r.StartedAt,
			Duration:  r.Duration,
		}
	}

	if o.FailedStep != nil {
		s := fromInternalStep(*o.FailedStep)
		out.FailedStep = &s
	}

	return out
}

func fromInternalRun(r model.Run) Run {
	out := Run{
		ID:              r.ID,
		Name:            r.Name.String(),
		WorkingDir:      r.WorkingDir,
		Runner:          r.Runner,
		State:           RunState(r.State),
		FailedStepIndex: r.FailedStepIndex,
		CreatedAt:       r.CreatedAt,
		FinishedAt:      r.FinishedAt,
	}

	for _, s := range r.Steps {
		out.Steps = append(out.Steps, StepRecord{
			Index:     s.Index,
			ID:        string(s.ID),
			Command:   s.Command,
			ExitCode:  s.ExitCode,
			Stdout:    s.Stdout,
			Stderr:    s.Stderr,
			Succeeded: s.Succeeded,
			Error:     s.Error,
			StartedAt: s.StartedAt,
			Duration:  s.Duration,
		})
	}

	return out
}

func fromInternalRunList(rs []model.Run) []Run {
	out := make([]Run, len(rs))
	for i, r := range rs {
		out[i] = fromInternalRun(r)
	}
	return out
}

func toInternalStateFilter(opts *ListRunsOpts) *model.RunState {
	if opts == nil || opts.State == nil {
		return nil
	}
	s := model.RunState(*opts.State)
	return &s
}

func fromInternalCheckResults(results []model.CheckResult) []CheckResult {
	out := make([]CheckResult, len(results))
	for i, r := range results {
		out[i] = CheckResult{
			ID:      r.ID,
			Status:  CheckStatus(r.Status),
			Message: r.Message,
		}
	}
	return out
}
