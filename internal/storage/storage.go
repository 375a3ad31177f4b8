package storage

import (
	"context"
	"time"

	"github.com/slok/carps/internal/model"
)

// Repository is the interface for scaffolding run history persistence.
type Repository interface {
	// CreateRun stores a new run, its steps are added with AddStep.
	CreateRun(ctx context.Context, r model.Run) error
	// AddStep appends an executed step result to a run.
	AddStep(ctx context.Context, runID string, s model.StepRecord) error
	// FinishRun sets the terminal state of a run.
	FinishRun(ctx context.Context, runID string, state model.RunState, failedStepIndex int, finishedAt time.Time) error
	GetRun(ctx context.Context, id string) (*model.Run, error)
	// ListRuns returns the runs without steps, newest first.
	ListRuns(ctx context.Context) ([]model.Run, error)
}
