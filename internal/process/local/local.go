// Package local spawns command lines as processes on the local machine through
// a shell dialect interpreter.
package local

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/slok/carps/internal/log"
	"github.com/slok/carps/internal/model"
	"github.com/slok/carps/internal/shell"
	"github.com/slok/carps/internal/utils/env"
)

// SpawnerConfig is the configuration for the local spawner.
type SpawnerConfig struct {
	Dialect shell.Dialect
	// WaitDelay is how long to wait for the output pipes to be closed after the
	// process is killed.
	WaitDelay time.Duration
	Logger    log.Logger
}

func (c *SpawnerConfig) defaults() error {
	if c.Dialect == nil {
		d, err := shell.New(shell.DefaultName())
		if err != nil {
			return fmt.Errorf("could not create default dialect: %w", err)
		}
		c.Dialect = d
	}
	if c.WaitDelay == 0 {
		c.WaitDelay = 5 * time.Second
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "process.Local"})
	return nil
}

// Spawner is the local implementation of process.Spawner.
type Spawner struct {
	dialect   shell.Dialect
	waitDelay time.Duration
	logger    log.Logger
}

// NewSpawner creates a new local spawner.
func NewSpawner(cfg SpawnerConfig) (*Spawner, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Spawner{
		dialect:   cfg.Dialect,
		waitDelay: cfg.WaitDelay,
		logger:    cfg.Logger,
	}, nil
}

// Spawn runs the command line and waits for it to finish.
func (s *Spawner) Spawn(ctx context.Context, commandLine string, opts model.SpawnOpts) (*model.ProcessResult, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	argv := s.dialect.Invocation(commandLine)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.WaitDelay = s.waitDelay
	setProcessGroup(cmd)
	cmd.Dir = opts.WorkingDir
	if len(opts.Env) > 0 {
		cmd.Env = append(os.Environ(), env.List(opts.Env)...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	s.logger.Debugf("Spawning %v", argv)

	err := cmd.Run()

	// Check the context first, a killed process also returns an exit error.
	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return nil, fmt.Errorf("process did not finish in %s: %w", opts.Timeout, ctxErr)
		}
		return nil, fmt.Errorf("process cancelled: %w", ctxErr)
	}

	exitCode := 0
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("could not run %q: %w", argv[0], err)
		}
		exitCode = exitErr.ExitCode()
		s.logger.Debugf("Process exited with code %d", exitCode)
	}

	// The interpreter always starts, a missing binary is only known by its exit code.
	if s.dialect.CommandNotFound(exitCode) {
		return nil, fmt.Errorf("%w (exit code %d): %s", model.ErrCommandNotFound, exitCode, strings.TrimSpace(stderr.String()))
	}

	return &model.ProcessResult{
		ExitCode: exitCode,
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
	}, nil
}
