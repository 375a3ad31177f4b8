package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/carps/internal/app/doctor"
	"github.com/slok/carps/internal/model"
	"github.com/slok/carps/internal/storage/sqlite"
)

type DoctorCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	format    string
	toolchain toolchainFlags
}

// NewDoctorCommand returns the doctor command.
func NewDoctorCommand(rootCmd *RootCommand, app *kingpin.Application) *DoctorCommand {
	c := &DoctorCommand{
		rootCmd:   rootCmd,
		toolchain: toolchainFlags{withRunner: true},
	}

	c.Cmd = app.Command("doctor", "Run preflight checks for the toolchain, the runner and the history database.")
	c.Cmd.Flag("output", "Output format (table, json).").Short('o').Default(outputTable).EnumVar(&c.format, outputTable, outputJSON)
	c.toolchain.register(c.Cmd)

	return c
}

func (c DoctorCommand) Name() string { return c.Cmd.FullCommand() }

func (c DoctorCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger
	out := c.rootCmd.Stdout

	cfg, err := c.rootCmd.LoadConfig(ctx)
	if err != nil {
		return err
	}
	settings, err := c.toolchain.resolve(cfg)
	if err != nil {
		return err
	}

	spawner, checkers, err := settings.newSpawner(logger)
	if err != nil {
		return err
	}

	builder, err := settings.newBuilder()
	if err != nil {
		return fmt.Errorf("could not create steps builder: %w", err)
	}

	svc, err := doctor.NewService(doctor.ServiceConfig{
		Spawner:  spawner,
		Dialect:  settings.dialect,
		Binary:   builder.Toolchain().Binary,
		Checkers: checkers,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	if c.format == outputTable {
		fmt.Fprintf(out, "\nChecking %s runner...\n", settings.runner)
	}
	results := svc.Run(ctx)
	results = append(results, c.checkHistory(ctx, cfg)...)

	p := newPrinter(c.format, out)
	if err := p.PrintChecks(results); err != nil {
		return fmt.Errorf("could not print checks: %w", err)
	}

	if summary := model.SummarizeChecks(results); summary.Errors > 0 {
		return fmt.Errorf("preflight checks failed with %d error(s)", summary.Errors)
	}

	return nil
}

func (c DoctorCommand) checkHistory(ctx context.Context, cfg model.Config) []model.CheckResult {
	if cfg.DisableHistory {
		return []model.CheckResult{{ID: "history_db", Status: model.CheckStatusOK, Message: "history disabled"}}
	}

	repo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
		DBPath: c.rootCmd.HistoryDBPath(),
		Logger: c.rootCmd.Logger,
	})
	if err != nil {
		// Scaffolding still works without history.
		return []model.CheckResult{{ID: "history_db", Status: model.CheckStatusWarning, Message: err.Error()}}
	}
	defer repo.Close()

	return repo.Check(ctx)
}
