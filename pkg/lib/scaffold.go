package lib

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/slok/carps/internal/app/scaffold"
	"github.com/slok/carps/internal/app/script"
	"github.com/slok/carps/internal/naming"
)

// ValidateName returns ErrNotValid when name is not a valid project name.
func ValidateName(name string) error {
	return mapError(naming.Validate(name))
}

// Plan returns the steps that would scaffold the project in workingDir, without
// running them. An empty workingDir is the current directory.
//
// Returns ErrNotValid if the name is not valid.
func (c *Client) Plan(ctx context.Context, name, workingDir string) ([]Step, error) {
	projectName, err := naming.Parse(name)
	if err != nil {
		return nil, mapError(err)
	}

	dir, err := absDir(workingDir)
	if err != nil {
		return nil, err
	}

	return fromInternalSteps(c.builder.BuildSteps(projectName, dir)), nil
}

// Scaffold runs the scaffolding steps of a project in order, stopping at the
// first failed one. Check the result with [Outcome.Err].
//
// The returned error is only set when the run could not be attempted, a
// rejected name or a failed step are part of the outcome.
func (c *Client) Scaffold(ctx context.Context, opts ScaffoldOpts) (*Outcome, error) {
	spawner, _, err := c.newSpawner()
	if err != nil {
		return nil, err
	}

	svc, err := scaffold.NewService(scaffold.ServiceConfig{
		Builder:     c.builder,
		Spawner:     spawner,
		Repository:  c.repo,
		RunnerName:  string(c.runner),
		StepTimeout: c.stepTimeout,
		Env:         c.env,
		Logger:      c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create service: %w", err)
	}

	outcome, err := svc.Run(ctx, scaffold.Request{
		Name:       opts.Name,
		WorkingDir: opts.WorkingDir,
	})
	if err != nil {
		return nil, mapError(err)
	}

	return fromInternalOutcome(*outcome), nil
}

// WriteScript writes the instruction file of a project into dir: a text file
// with the chained step commands ready to paste into a terminal. An existing
// file is replaced. An empty dir is the current directory.
//
// Returns ErrNotValid if the name is not valid.
func (c *Client) WriteScript(ctx context.Context, name, dir string) (*ScriptResult, error) {
	svc, err := script.NewService(script.ServiceConfig{
		Builder: c.builder,
		Dialect: c.dialect,
		Logger:  c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create service: %w", err)
	}

	res, err := svc.Write(ctx, script.Request{Name: name, Dir: dir})
	if err != nil {
		return nil, mapError(err)
	}

	return &ScriptResult{
		Path:    res.Path,
		Content: res.Content,
		Steps:   fromInternalSteps(res.Steps),
	}, nil
}

func absDir(dir string) (string, error) {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("could not get working directory: %w", err)
		}
		return wd, nil
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("could not resolve directory %q: %w", dir, err)
	}
	return abs, nil
}
