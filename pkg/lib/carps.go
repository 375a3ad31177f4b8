package lib

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/slok/carps/internal/app/doctor"
	"github.com/slok/carps/internal/app/scaffold"
	"github.com/slok/carps/internal/conventions"
	"github.com/slok/carps/internal/log"
	"github.com/slok/carps/internal/model"
	"github.com/slok/carps/internal/process"
	"github.com/slok/carps/internal/process/docker"
	"github.com/slok/carps/internal/process/fake"
	"github.com/slok/carps/internal/process/local"
	"github.com/slok/carps/internal/sequence"
	"github.com/slok/carps/internal/shell"
	"github.com/slok/carps/internal/storage"
	"github.com/slok/carps/internal/storage/sqlite"
	"github.com/slok/carps/internal/utils/env"
)

// Config configures the SDK client.
//
// All fields are optional, an empty Config{} runs the local toolchain with the
// shell of the OS and stores the history in ~/.carps/carps.db.
type Config struct {
	// DataDir is the base directory for carps data.
	// Default: ~/.carps.
	DataDir string

	// DBPath is the SQLite run history database path.
	// Default: <DataDir>/carps.db.
	DBPath string

	// DisableHistory disables storing the runs. ListRuns and GetRun fail
	// with ErrNotValid when it's set.
	DisableHistory bool

	// Logger receives the SDK logs.
	// Default: noop (silent). See the log sub-package for the interface.
	Logger log.Logger

	// Runner is where the toolchain runs.
	// Default: RunnerLocal.
	Runner RunnerType

	// Shell is the shell dialect of the command lines (posix, cmd, powershell).
	// Default: cmd on Windows, posix otherwise. The docker runner only supports posix.
	Shell string

	// Toolchain customizes the toolchain invocation.
	Toolchain Toolchain

	// Docker configures RunnerDocker.
	Docker DockerConfig

	// StepTimeout is the maximum time a single step can run.
	// Default: 10m.
	StepTimeout time.Duration

	// Env are extra environment variables for the steps.
	Env map[string]string

	// FakeFailures scripts the failed steps of RunnerFake by step index.
	FakeFailures map[int]FakeFailure
}

func (c *Config) defaults() error {
	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("could not get user home dir: %w", err)
		}
		c.DataDir = filepath.Join(home, conventions.DefaultDataDir)
	}
	if c.DBPath == "" {
		c.DBPath = conventions.DBPath(c.DataDir)
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}

	if c.Runner == "" {
		c.Runner = RunnerLocal
	}
	switch c.Runner {
	case RunnerLocal, RunnerFake:
		if c.Shell == "" {
			c.Shell = shell.DefaultName()
		}
	case RunnerDocker:
		if c.Shell != "" && c.Shell != shell.DialectPosix {
			return fmt.Errorf("docker runner only supports the %s shell: %w", shell.DialectPosix, model.ErrNotValid)
		}
		c.Shell = shell.DialectPosix
	default:
		return fmt.Errorf("unknown runner %q: %w", c.Runner, model.ErrNotValid)
	}

	if c.StepTimeout < 0 {
		return fmt.Errorf("step timeout can't be negative: %w", model.ErrNotValid)
	}
	if c.StepTimeout == 0 {
		c.StepTimeout = scaffold.DefaultStepTimeout
	}

	if err := env.ValidateKeys(c.Env); err != nil {
		return fmt.Errorf("%w: %w", err, model.ErrNotValid)
	}

	return nil
}

// Client is the SDK entry point.
//
// Create a Client with [New] and release its resources with [Client.Close].
type Client struct {
	repo         storage.Repository
	builder      *sequence.Builder
	dialect      shell.Dialect
	logger       log.Logger
	runner       RunnerType
	docker       DockerConfig
	stepTimeout  time.Duration
	env          map[string]string
	fakeFailures map[int]FakeFailure
	closeFn      func() error
}

// New creates a new SDK client.
//
// Unless the history is disabled the caller must call [Client.Close] when done
// to release the database connection:
//
//	client, err := lib.New(ctx, lib.Config{})
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
func New(ctx context.Context, cfg Config) (*Client, error) {
	if err := cfg.defaults(); err != nil {
		return nil, mapError(fmt.Errorf("invalid config: %w", err))
	}

	dialect, err := shell.New(cfg.Shell)
	if err != nil {
		return nil, mapError(fmt.Errorf("invalid config: %w", err))
	}

	builder, err := sequence.NewBuilder(sequence.BuilderConfig{
		Toolchain: sequence.Toolchain(cfg.Toolchain),
		Dialect:   dialect,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create steps builder: %w", err)
	}

	c := &Client{
		builder:      builder,
		dialect:      dialect,
		logger:       cfg.Logger,
		runner:       cfg.Runner,
		docker:       cfg.Docker,
		stepTimeout:  cfg.StepTimeout,
		env:          env.MergeMaps(nil, cfg.Env),
		fakeFailures: cfg.FakeFailures,
	}

	if !cfg.DisableHistory {
		repo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
			DBPath: cfg.DBPath,
			Logger: cfg.Logger,
		})
		if err != nil {
			return nil, fmt.Errorf("could not create repository: %w", err)
		}
		c.repo = repo
		c.closeFn = repo.Close
	}

	return c, nil
}

// Close releases the resources held by the client. After Close returns, the
// client must not be used.
func (c *Client) Close() error {
	if c.closeFn != nil {
		return c.closeFn()
	}
	return nil
}

// newSpawner creates the spawner of the configured runner and its readiness
// checks. Spawners are created per operation, this way the fake failures are
// counted per run.
func (c *Client) newSpawner() (process.Spawner, []doctor.Checker, error) {
	switch c.runner {
	case RunnerDocker:
		sp, err := docker.NewSpawner(docker.SpawnerConfig{
			Image:    c.docker.Image,
			Platform: c.docker.Platform,
			SkipPull: c.docker.SkipPull,
			Logger:   c.logger,
		})
		if err != nil {
			return nil, nil, mapError(fmt.Errorf("could not create docker spawner: %w", err))
		}
		return sp, []doctor.Checker{sp}, nil

	case RunnerFake:
		responses := make(map[int]fake.Response, len(c.fakeFailures))
		for step, f := range c.fakeFailures {
			if f.SpawnErr != nil {
				responses[step] = fake.Response{Err: f.SpawnErr}
				continue
			}
			responses[step] = fake.Response{Result: &model.ProcessResult{
				ExitCode: f.ExitCode,
				Stderr:   []byte(f.Stderr),
			}}
		}
		sp, err := fake.NewSpawner(fake.SpawnerConfig{Responses: responses, Logger: c.logger})
		if err != nil {
			return nil, nil, fmt.Errorf("could not create fake spawner: %w", err)
		}
		return sp, nil, nil

	default:
		sp, err := local.NewSpawner(local.SpawnerConfig{Dialect: c.dialect, Logger: c.logger})
		if err != nil {
			return nil, nil, fmt.Errorf("could not create local spawner: %w", err)
		}
		return sp, nil, nil
	}
}

func (c *Client) history() (storage.Repository, error) {
	if c.repo == nil {
		return nil, fmt.Errorf("history is disabled: %w", model.ErrNotValid)
	}
	return c.repo, nil
}
