package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/slok/carps/internal/log"
	"github.com/slok/carps/internal/model"
	"github.com/slok/carps/internal/storage/sqlite/migrations"
)

// RepositoryConfig is the configuration for the SQLite repository.
type RepositoryConfig struct {
	DBPath string
	Logger log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.DBPath == "" {
		return fmt.Errorf("db path is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.SQLite"})
	return nil
}

// Repository is a SQLite implementation of storage.Repository.
type Repository struct {
	db       *sql.DB
	migrator *migrations.Migrator
	logger   log.Logger
}

// NewRepository creates a new SQLite repository.
func NewRepository(ctx context.Context, cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	dir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("could not create db directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", cfg.DBPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	migrator, err := migrations.NewMigrator(migrations.MigratorConfig{DB: db, Logger: cfg.Logger})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("could not create migrator: %w", err)
	}
	if err := migrator.Up(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not run migrations: %w", err)
	}

	cfg.Logger.Debugf("SQLite repository initialized at %s", cfg.DBPath)

	return &Repository{db: db, migrator: migrator, logger: cfg.Logger}, nil
}

// Check returns the health of the history database schema.
func (r *Repository) Check(ctx context.Context) []model.CheckResult {
	const id = "history_db"

	if err := r.db.PingContext(ctx); err != nil {
		return []model.CheckResult{{ID: id, Status: model.CheckStatusError, Message: fmt.Sprintf("database not reachable: %s", err)}}
	}

	version, dirty, err := r.migrator.Version(ctx)
	if err != nil {
		return []model.CheckResult{{ID: id, Status: model.CheckStatusError, Message: err.Error()}}
	}
	if dirty {
		return []model.CheckResult{{ID: id, Status: model.CheckStatusError, Message: fmt.Sprintf("schema version %d is dirty", version)}}
	}

	latest, err := migrations.Latest()
	if err != nil {
		return []model.CheckResult{{ID: id, Status: model.CheckStatusWarning, Message: err.Error()}}
	}
	if version != latest {
		return []model.CheckResult{{ID: id, Status: model.CheckStatusWarning, Message: fmt.Sprintf("schema version %d, expected %d", version, latest)}}
	}

	return []model.CheckResult{{ID: id, Status: model.CheckStatusOK, Message: fmt.Sprintf("schema version %d", version)}}
}

// Close closes the database connection.
func (r *Repository) Close() error { return r.db.Close() }

// CreateRun stores a new run.
func (r *Repository) CreateRun(ctx context.Context, run model.Run) error {
	if run.ID == "" {
		return fmt.Errorf("run id is required: %w", model.ErrNotValid)
	}

	query := `
		INSERT INTO runs (
			id, name, working_dir, runner, state,
			failed_step_index, created_at, finished_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		run.ID,
		run.Name,
		run.WorkingDir,
		run.Runner,
		run.State,
		run.FailedStepIndex,
		run.CreatedAt.Unix(),
		unixOrNil(run.FinishedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: runs.") {
			return fmt.Errorf("run already exists: %w", model.ErrAlreadyExists)
		}
		return fmt.Errorf("could not insert run: %w", err)
	}

	r.logger.Debugf("Created run in repository: %s", run.ID)
	return nil
}

// AddStep appends an executed step result to a run.
func (r *Repository) AddStep(ctx context.Context, runID string, s model.StepRecord) error {
	query := `
		INSERT INTO run_steps (
			id, run_id, step_index, step_id, command,
			exit_code, stdout, stderr, succeeded, error,
			started_at, duration_ms
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		ulid.Make().String(),
		runID,
		s.Index,
		s.ID,
		s.Command,
		s.ExitCode,
		s.Stdout,
		s.Stderr,
		s.Succeeded,
		s.Error,
		s.StartedAt.Unix(),
		s.Duration.Milliseconds(),
	)
	if err != nil {
		switch {
		case strings.Contains(err.Error(), "FOREIGN KEY constraint failed"):
			return fmt.Errorf("run %s: %w", runID, model.ErrNotFound)
		case strings.Contains(err.Error(), "UNIQUE constraint failed: run_steps."):
			return fmt.Errorf("step %d of run %s: %w", s.Index, runID, model.ErrAlreadyExists)
		}
		return fmt.Errorf("could not insert step: %w", err)
	}

	r.logger.Debugf("Added step %d to run %s", s.Index, runID)
	return nil
}

// FinishRun sets the terminal state of a run.
func (r *Repository) FinishRun(ctx context.Context, runID string, state model.RunState, failedStepIndex int, finishedAt time.Time) error {
	query := `UPDATE runs SET state = ?, failed_step_index = ?, finished_at = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, state, failedStepIndex, finishedAt.Unix(), runID)
	if err != nil {
		return fmt.Errorf("could not update run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("run %s: %w", runID, model.ErrNotFound)
	}

	r.logger.Debugf("Finished run %s: %s", runID, state)
	return nil
}

// GetRun retrieves a run by ID with its steps.
func (r *Repository) GetRun(ctx context.Context, id string) (*model.Run, error) {
	query := `
		SELECT
			id, name, working_dir, runner, state,
			failed_step_index, created_at, finished_at
		FROM runs
		WHERE id = ?
	`

	run, err := r.scanRun(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("run %s: %w", id, model.ErrNotFound)
		}
		return nil, fmt.Errorf("could not query run: %w", err)
	}

	steps, err := r.listSteps(ctx, id)
	if err != nil {
		return nil, err
	}
	run.Steps = steps

	return &run, nil
}

// ListRuns returns all the runs without steps, newest first.
func (r *Repository) ListRuns(ctx context.Context) ([]model.Run, error) {
	query := `
		SELECT
			id, name, working_dir, runner, state,
			failed_step_index, created_at, finished_at
		FROM runs
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("could not query runs: %w", err)
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		run, err := r.scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("could not scan row: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return runs, nil
}

func (r *Repository) listSteps(ctx context.Context, runID string) ([]model.StepRecord, error) {
	query := `
		SELECT
			step_index, step_id, command,
			exit_code, stdout, stderr, succeeded, error,
			started_at, duration_ms
		FROM run_steps
		WHERE run_id = ?
		ORDER BY step_index ASC
	`

	rows, err := r.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("could not query steps: %w", err)
	}
	defer rows.Close()

	var steps []model.StepRecord
	for rows.Next() {
		var s model.StepRecord
		var startedAt, durationMS int64

		err := rows.Scan(
			&s.Index,
			&s.ID,
			&s.Command,
			&s.ExitCode,
			&s.Stdout,
			&s.Stderr,
			&s.Succeeded,
			&s.Error,
			&startedAt,
			&durationMS,
		)
		if err != nil {
			return nil, fmt.Errorf("could not scan step: %w", err)
		}

		s.StartedAt = time.Unix(startedAt, 0).UTC()
		s.Duration = time.Duration(durationMS) * time.Millisecond
		steps = append(steps, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return steps, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *Repository) scanRun(s scanner) (model.Run, error) {
	var run model.Run
	var createdAt int64
	var finishedAt sql.NullInt64

	err := s.Scan(
		&run.ID,
		&run.Name,
		&run.WorkingDir,
		&run.Runner,
		&run.State,
		&run.FailedStepIndex,
		&createdAt,
		&finishedAt,
	)
	if err != nil {
		return model.Run{}, err
	}

	run.CreatedAt = time.Unix(createdAt, 0).UTC()
	if finishedAt.Valid {
		t := time.Unix(finishedAt.Int64, 0).UTC()
		run.FinishedAt = &t
	}

	return run, nil
}

func unixOrNil(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	u := t.Unix()
	return &u
}
