// Package sequence derives the ordered command steps that scaffold a project.
//
// The steps form a dependency chain: directories first, then the solution, the
// console project inside it, the project registration in the solution, the build
// and finally the run. The order is fixed, only the toolchain invocation details
// can be configured.
package sequence

import (
	"fmt"
	"strings"

	"github.com/slok/carps/internal/conventions"
	"github.com/slok/carps/internal/model"
	"github.com/slok/carps/internal/shell"
)

const (
	// DefaultBinary is the default toolchain binary.
	DefaultBinary = "dotnet"
	// DefaultTemplate is the default project template.
	DefaultTemplate = "console"
)

// Toolchain describes how the external toolchain is invoked.
type Toolchain struct {
	// Binary is the toolchain executable (name or path).
	Binary string
	// Template is the project template passed to `new`.
	Template string
	// Framework is the optional target framework of the project (e.g. net8.0).
	Framework string
}

// BuilderConfig is the configuration for the steps builder.
type BuilderConfig struct {
	Toolchain Toolchain
	Dialect   shell.Dialect
}

func (c *BuilderConfig) defaults() error {
	if c.Toolchain.Binary == "" {
		c.Toolchain.Binary = DefaultBinary
	}
	if c.Toolchain.Template == "" {
		c.Toolchain.Template = DefaultTemplate
	}
	if c.Dialect == nil {
		d, err := shell.New(shell.DefaultName())
		if err != nil {
			return fmt.Errorf("could not create default dialect: %w", err)
		}
		c.Dialect = d
	}
	return nil
}

// Builder builds the scaffolding steps of a project.
type Builder struct {
	toolchain Toolchain
	dialect   shell.Dialect
}

// NewBuilder creates a new steps builder.
func NewBuilder(cfg BuilderConfig) (*Builder, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Builder{
		toolchain: cfg.Toolchain,
		dialect:   cfg.Dialect,
	}, nil
}

// Dialect returns the shell dialect the command lines are written in.
func (b *Builder) Dialect() shell.Dialect { return b.dialect }

// Toolchain returns the toolchain with the defaults applied.
func (b *Builder) Toolchain() Toolchain { return b.toolchain }

// BuildSteps returns the seven scaffolding steps of the project with all the paths
// resolved against cwd. The name must be already validated.
func (b *Builder) BuildSteps(name model.ProjectName, cwd string) []model.CommandStep {
	paths := conventions.ProjectPaths(name, cwd)
	q := b.dialect.Quote

	newProject := []string{b.bin(), "new", b.toolchain.Template, "-o", q(paths.ProjectDir)}
	if b.toolchain.Framework != "" {
		newProject = append(newProject, "--framework", b.toolchain.Framework)
	}

	steps := []model.CommandStep{
		{
			ID:          model.StepIDCreateOuterDir,
			Description: fmt.Sprintf("create directory %s", paths.OuterDir),
			Command:     cmd("mkdir", q(paths.OuterDir)),
		},
		{
			ID:          model.StepIDCreateInnerDir,
			Description: fmt.Sprintf("create directory %s", paths.InnerDir),
			Command:     cmd("mkdir", q(paths.InnerDir)),
		},
		{
			ID:          model.StepIDNewSolution,
			Description: fmt.Sprintf("create solution %s", paths.SolutionFile),
			Command:     cmd(b.bin(), "new", "sln", "-n", name.String(), "-o", q(paths.InnerDir)),
		},
		{
			ID:          model.StepIDNewProject,
			Description: fmt.Sprintf("create %s project %s", b.toolchain.Template, paths.ProjectDir),
			Command:     cmd(newProject...),
		},
		{
			ID:          model.StepIDAddToSolution,
			Description: fmt.Sprintf("add project %s to solution %s", paths.ProjectFile, paths.SolutionFile),
			Command:     cmd(b.bin(), "sln", q(paths.SolutionFile), "add", q(paths.ProjectFile)),
		},
		{
			ID:          model.StepIDBuild,
			Description: fmt.Sprintf("build project %s", paths.ProjectFile),
			Command:     cmd(b.bin(), "build", q(paths.ProjectFile)),
		},
		{
			ID:          model.StepIDRun,
			Description: fmt.Sprintf("run project %s", paths.ProjectFile),
			Command:     cmd(b.bin(), "run", "--project", q(paths.ProjectFile)),
		},
	}

	for i := range steps {
		steps[i].Index = i + 1
	}

	return steps
}

// bin returns the toolchain binary, quoted only when it has whitespace so the
// common case stays readable.
func (b *Builder) bin() string {
	if strings.ContainsAny(b.toolchain.Binary, " \t") {
		if b.dialect.Name() == shell.DialectPowerShell {
			// A quoted string is not a command in PowerShell without the call operator.
			return "& " + b.dialect.Quote(b.toolchain.Binary)
		}
		return b.dialect.Quote(b.toolchain.Binary)
	}
	return b.toolchain.Binary
}

func cmd(parts ...string) string { return strings.Join(parts, " ") }
