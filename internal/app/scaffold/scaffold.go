package scaffold

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/slok/carps/internal/conventions"
	"github.com/slok/carps/internal/log"
	"github.com/slok/carps/internal/model"
	"github.com/slok/carps/internal/naming"
	"github.com/slok/carps/internal/process"
	"github.com/slok/carps/internal/storage"
)

// DefaultStepTimeout is the default maximum time a single step can run.
const DefaultStepTimeout = 10 * time.Minute

// StepBuilder derives the ordered scaffolding steps of a project.
type StepBuilder interface {
	BuildSteps(name model.ProjectName, cwd string) []model.CommandStep
}

// ServiceConfig is the configuration for the scaffold service.
type ServiceConfig struct {
	Builder StepBuilder
	Spawner process.Spawner
	// Repository stores the run history, optional.
	Repository storage.Repository
	// RunnerName is the name of the spawner stored in the run history.
	RunnerName  string
	StepTimeout time.Duration
	// Env are extra environment variables for every step process.
	Env     map[string]string
	Logger  log.Logger
	TimeNow func() time.Time
}

func (c *ServiceConfig) defaults() error {
	if c.Builder == nil {
		return fmt.Errorf("builder is required")
	}
	if c.Spawner == nil {
		return fmt.Errorf("spawner is required")
	}
	if c.RunnerName == "" {
		c.RunnerName = model.RunnerLocal
	}
	if c.StepTimeout == 0 {
		c.StepTimeout = DefaultStepTimeout
	}
	if c.TimeNow == nil {
		c.TimeNow = time.Now
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Scaffold"})
	return nil
}

// Service validates project names, derives their scaffolding steps and executes
// them in order, stopping at the first failed step.
type Service struct {
	builder     StepBuilder
	spawner     process.Spawner
	repo        storage.Repository
	runnerName  string
	stepTimeout time.Duration
	env         map[string]string
	timeNow     func() time.Time
	logger      log.Logger
}

// NewService creates a new scaffold service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		builder:     cfg.Builder,
		spawner:     cfg.Spawner,
		repo:        cfg.Repository,
		runnerName:  cfg.RunnerName,
		stepTimeout: cfg.StepTimeout,
		env:         cfg.Env,
		timeNow:     cfg.TimeNow,
		logger:      cfg.Logger,
	}, nil
}

// Request contains the parameters for scaffolding a project.
type Request struct {
	// Name is the unvalidated project name.
	Name string
	// WorkingDir is the directory the project is created in, defaults to the current one.
	WorkingDir string
}

// Run validates the name, builds the steps and executes them.
//
// Rejected names and failed steps are not errors, they are reported by the
// returned outcome state. The error is only set when the run could not be
// carried out at all.
func (s *Service) Run(ctx context.Context, req Request) (*model.RunOutcome, error) {
	r := &run{outcome: &model.RunOutcome{State: model.RunStateIdle}}

	// 1. Validate name.
	if err := r.transition(model.RunStateValidating); err != nil {
		return nil, err
	}
	name, err := naming.Parse(req.Name)
	if err != nil {
		r.outcome.RejectErr = err
		if err := r.transition(model.RunStateRejected); err != nil {
			return nil, err
		}
		s.logger.Warningf("Project name rejected: %s", err)
		return r.outcome, nil
	}
	r.outcome.Name = name

	// 2. Build steps.
	if err := r.transition(model.RunStateBuildingSteps); err != nil {
		return nil, err
	}
	cwd, err := resolveWorkingDir(req.WorkingDir)
	if err != nil {
		return nil, err
	}
	r.outcome.Paths = conventions.ProjectPaths(name, cwd)
	r.outcome.Steps = s.BuildSteps(name, cwd)
	r.outcome.RunID = ulid.Make().String()

	logger := s.logger.WithValues(log.Kv{"run": r.outcome.RunID, "project": name.String()})
	s.recordStart(ctx, logger, model.Run{
		ID:         r.outcome.RunID,
		Name:       name,
		WorkingDir: cwd,
		Runner:     s.runnerName,
		State:      model.RunStateExecuting,
		CreatedAt:  s.timeNow().UTC(),
	})

	// 3. Execute steps.
	if err := r.transition(model.RunStateExecuting); err != nil {
		return nil, err
	}
	results, failed := s.execute(ctx, logger, r.outcome.RunID, r.outcome.Steps, cwd)
	r.outcome.Results = results
	r.outcome.FailedStep = failed

	final := model.RunStateAllSucceeded
	failedIndex := 0
	if failed != nil {
		final = model.RunStateStepFailed
		failedIndex = failed.Index
	}
	if err := r.transition(final); err != nil {
		return nil, err
	}
	s.recordFinish(ctx, logger, r.outcome.RunID, final, failedIndex)

	if failed != nil {
		logger.Errorf("Step %d/%d failed: %s", failed.Index, len(r.outcome.Steps), failed.Description)
	} else {
		logger.Infof("Project %s created at %s", name, r.outcome.Paths.OuterDir)
	}

	return r.outcome, nil
}

// BuildSteps returns the scaffolding steps of a validated project name.
func (s *Service) BuildSteps(name model.ProjectName, cwd string) []model.CommandStep {
	return s.builder.BuildSteps(name, cwd)
}

// Execute runs the steps in order in workingDir. It returns the results of the
// executed steps and the step that failed, nil if all of them succeeded. Steps
// after a failed one are never spawned.
func (s *Service) Execute(ctx context.Context, steps []model.CommandStep, workingDir string) ([]model.StepResult, *model.CommandStep) {
	return s.execute(ctx, s.logger, "", steps, workingDir)
}

func (s *Service) execute(ctx context.Context, logger log.Logger, runID string, steps []model.CommandStep, workingDir string) ([]model.StepResult, *model.CommandStep) {
	results := make([]model.StepResult, 0, len(steps))

	for _, step := range steps {
		logger.Infof("[%d/%d] %s", step.Index, len(steps), step.Description)

		res := s.executeStep(ctx, step, workingDir)
		results = append(results, res)
		s.recordStep(ctx, logger, runID, res)

		if !res.Succeeded {
			logger.Debugf("Stopping at step %d: %s", step.Index, res.Err)
			failed := step
			return results, &failed
		}
		logger.Debugf("Step %d succeeded in %s", step.Index, res.Duration)
	}

	return results, nil
}

func (s *Service) executeStep(ctx context.Context, step model.CommandStep, workingDir string) model.StepResult {
	start := s.timeNow()
	res := model.StepResult{
		Step:      step,
		ExitCode:  -1,
		StartedAt: start.UTC(),
	}

	// Don't start new processes once the run has been cancelled.
	if err := ctx.Err(); err != nil {
		res.Err = &model.ProcessSpawnError{Step: step, Err: err}
		return res
	}

	pr, err := s.spawner.Spawn(ctx, step.Command, model.SpawnOpts{
		WorkingDir: workingDir,
		Env:        s.env,
		Timeout:    s.stepTimeout,
	})
	res.Duration = s.timeNow().Sub(start)
	if err != nil {
		res.Err = &model.ProcessSpawnError{Step: step, Err: err}
		return res
	}

	res.ExitCode = pr.ExitCode
	res.Stdout = string(pr.Stdout)
	res.Stderr = string(pr.Stderr)
	if pr.ExitCode != 0 {
		res.Err = &model.StepExecutionError{
			Step:     step,
			ExitCode: pr.ExitCode,
			Stdout:   res.Stdout,
			Stderr:   res.Stderr,
		}
		return res
	}

	res.Succeeded = true
	return res
}

// History is best effort, a storage failure never changes the run outcome.

func (s *Service) recordStart(ctx context.Context, logger log.Logger, r model.Run) {
	if s.repo == nil {
		return
	}
	if err := s.repo.CreateRun(ctx, r); err != nil {
		logger.Warningf("Could not store run: %s", err)
	}
}

func (s *Service) recordStep(ctx context.Context, logger log.Logger, runID string, res model.StepResult) {
	if s.repo == nil || runID == "" {
		return
	}
	// Use a non cancelled context so the failure caused by a cancellation is stored.
	if err := s.repo.AddStep(context.WithoutCancel(ctx), runID, model.NewStepRecord(res)); err != nil {
		logger.Warningf("Could not store step %d: %s", res.Step.Index, err)
	}
}

func (s *Service) recordFinish(ctx context.Context, logger log.Logger, runID string, state model.RunState, failedIndex int) {
	if s.repo == nil {
		return
	}
	if err := s.repo.FinishRun(context.WithoutCancel(ctx), runID, state, failedIndex, s.timeNow().UTC()); err != nil {
		logger.Warningf("Could not store run result: %s", err)
	}
}

func resolveWorkingDir(dir string) (string, error) {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("could not get working directory: %w", err)
		}
		return wd, nil
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("could not resolve working directory %q: %w", dir, err)
	}
	return abs, nil
}

// run tracks the state of a single run.
type run struct {
	outcome *model.RunOutcome
}

func (r *run) transition(next model.RunState) error {
	if !r.outcome.State.CanTransitionTo(next) {
		return fmt.Errorf("invalid run state transition %s -> %s", r.outcome.State, next)
	}
	r.outcome.State = next
	return nil
}
