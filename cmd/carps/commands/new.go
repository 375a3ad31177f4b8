package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/carps/internal/app/scaffold"
	"github.com/slok/carps/internal/naming"
	"github.com/slok/carps/internal/storage"
	"github.com/slok/carps/internal/storage/sqlite"
)

type NewCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	name      string
	workDir   string
	format    string
	plan      bool
	noHistory bool
	toolchain toolchainFlags
}

// NewNewCommand returns the new command.
func NewNewCommand(rootCmd *RootCommand, app *kingpin.Application) *NewCommand {
	c := &NewCommand{
		rootCmd:   rootCmd,
		toolchain: toolchainFlags{withRunner: true, withExecOpts: true},
	}

	c.Cmd = app.Command("new", "Create, build and run a new .NET solution with a console project.")
	c.Cmd.Arg("name", "Project name (letters, digits and underscores). Asked interactively if missing.").StringVar(&c.name)
	c.Cmd.Flag("workdir", "Directory where the project is created (defaults to the current one).").Short('C').StringVar(&c.workDir)
	c.Cmd.Flag("output", "Output format (table, json).").Short('o').Default(outputTable).EnumVar(&c.format, outputTable, outputJSON)
	c.Cmd.Flag("plan", "Print the steps without running them.").BoolVar(&c.plan)
	c.Cmd.Flag("no-history", "Don't store the run in the history.").BoolVar(&c.noHistory)
	c.toolchain.register(c.Cmd)

	return c
}

func (c NewCommand) Name() string { return c.Cmd.FullCommand() }

func (c NewCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	name := c.name
	if name == "" {
		n, err := promptName(c.rootCmd.Stdin, c.promptOut())
		if err != nil {
			return err
		}
		name = n
	}

	cfg, err := c.rootCmd.LoadConfig(ctx)
	if err != nil {
		return err
	}
	settings, err := c.toolchain.resolve(cfg)
	if err != nil {
		return err
	}

	builder, err := settings.newBuilder()
	if err != nil {
		return fmt.Errorf("could not create steps builder: %w", err)
	}

	p := newPrinter(c.format, c.rootCmd.Stdout)

	if c.plan {
		projectName, err := naming.Parse(name)
		if err != nil {
			return err
		}
		workDir, err := resolveDir(c.workDir)
		if err != nil {
			return err
		}
		return p.PrintSteps(builder.BuildSteps(projectName, workDir))
	}

	spawner, _, err := settings.newSpawner(logger)
	if err != nil {
		return err
	}

	// History is optional, a broken database must not block scaffolding.
	var repo storage.Repository
	if !c.noHistory && !cfg.DisableHistory {
		sqliteRepo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
			DBPath: c.rootCmd.HistoryDBPath(),
			Logger: logger,
		})
		if err != nil {
			logger.Warningf("Run history disabled: %s", err)
		} else {
			defer sqliteRepo.Close()
			repo = sqliteRepo
		}
	}

	svc, err := scaffold.NewService(scaffold.ServiceConfig{
		Builder:     builder,
		Spawner:     spawner,
		Repository:  repo,
		RunnerName:  settings.runner,
		StepTimeout: settings.stepTimeout,
		Env:         settings.env,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	outcome, err := svc.Run(ctx, scaffold.Request{
		Name:       name,
		WorkingDir: c.workDir,
	})
	if err != nil {
		return fmt.Errorf("could not scaffold project: %w", err)
	}

	if err := p.PrintOutcome(*outcome); err != nil {
		return fmt.Errorf("could not print outcome: %w", err)
	}

	return outcome.Err()
}

// promptOut keeps stdout clean when a machine readable output is requested.
func (c NewCommand) promptOut() io.Writer {
	if c.format == outputJSON {
		return c.rootCmd.Stderr
	}
	return c.rootCmd.Stdout
}

func resolveDir(dir string) (string, error) {
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
