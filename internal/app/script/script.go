package script

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/slok/carps/internal/conventions"
	"github.com/slok/carps/internal/log"
	"github.com/slok/carps/internal/model"
	"github.com/slok/carps/internal/naming"
	"github.com/slok/carps/internal/shell"
)

// StepBuilder derives the ordered scaffolding steps of a project.
type StepBuilder interface {
	BuildSteps(name model.ProjectName, cwd string) []model.CommandStep
}

// ServiceConfig is the configuration for the script service.
type ServiceConfig struct {
	Builder StepBuilder
	// Dialect is the shell the instruction file is written for, it must be the
	// same dialect the builder quotes the commands with.
	Dialect shell.Dialect
	Logger  log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Builder == nil {
		return fmt.Errorf("builder is required")
	}
	if c.Dialect == nil {
		return fmt.Errorf("dialect is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Script"})
	return nil
}

// Service writes instruction files, text files with the chained scaffolding
// commands ready to be pasted into a terminal.
type Service struct {
	builder StepBuilder
	dialect shell.Dialect
	logger  log.Logger
}

// NewService creates a new script service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		builder: cfg.Builder,
		dialect: cfg.Dialect,
		logger:  cfg.Logger,
	}, nil
}

// Request contains the parameters for writing an instruction file.
type Request struct {
	Name string
	// Dir is where the instruction file is written and where the project will be
	// created when the commands are run. Defaults to the current directory.
	Dir string
}

// Result is the result of writing an instruction file.
type Result struct {
	Name    model.ProjectName
	Path    string
	Steps   []model.CommandStep
	Content string
}

// Write validates the name and writes the instruction file, an existing file is
// replaced.
func (s *Service) Write(ctx context.Context, req Request) (*Result, error) {
	name, err := naming.Parse(req.Name)
	if err != nil {
		return nil, err
	}

	dir := req.Dir
	if dir == "" {
		dir = "."
	}
	dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("could not resolve directory %q: %w", req.Dir, err)
	}

	steps := s.builder.BuildSteps(name, dir)
	content := Render(s.dialect, steps)
	path := conventions.InstructionFilePath(name, dir)

	s.logger.Infof("Creating instruction file %s", path)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return nil, fmt.Errorf("could not write instruction file: %w", err)
	}

	// Check the file is there before reporting success.
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("instruction file was not created: %w", err)
	}
	s.logger.Debugf("Instruction file with %d steps created", len(steps))

	return &Result{
		Name:    name,
		Path:    path,
		Steps:   steps,
		Content: content,
	}, nil
}

// Render returns the instruction file content, the step commands chained with
// the dialect separator.
func Render(d shell.Dialect, steps []model.CommandStep) string {
	cmds := make([]string, 0, len(steps))
	for _, s := range steps {
		cmds = append(cmds, s.Command)
	}

	return strings.TrimSpace(d.Chain(cmds)) + "\n"
}
