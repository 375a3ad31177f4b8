package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/carps/internal/app/list"
	"github.com/slok/carps/internal/app/status"
	"github.com/slok/carps/internal/model"
	"github.com/slok/carps/internal/storage/sqlite"
)

// NewHistoryCommand returns the parent command of the run history subcommands.
func NewHistoryCommand(app *kingpin.Application) *kingpin.CmdClause {
	return app.Command("history", "Inspect the scaffolding runs history.")
}

type HistoryListCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	stateFilter string
	nameFilter  string
	limit       int
	format      string
}

// NewHistoryListCommand returns the history list command.
func NewHistoryListCommand(rootCmd *RootCommand, historyCmd *kingpin.CmdClause) *HistoryListCommand {
	c := &HistoryListCommand{rootCmd: rootCmd}

	states := []string{
		string(model.RunStateExecuting),
		string(model.RunStateStepFailed),
		string(model.RunStateAllSucceeded),
	}

	c.Cmd = historyCmd.Command("list", "List the scaffolding runs, newest first.").Alias("ls")
	c.Cmd.Flag("state", "Filter by state.").EnumVar(&c.stateFilter, states...)
	c.Cmd.Flag("project", "Filter by project name.").StringVar(&c.nameFilter)
	c.Cmd.Flag("limit", "Maximum number of runs (0 is unlimited).").Default("0").IntVar(&c.limit)
	c.Cmd.Flag("output", "Output format (table, json).").Short('o').Default(outputTable).EnumVar(&c.format, outputTable, outputJSON)

	return c
}

func (c HistoryListCommand) Name() string { return c.Cmd.FullCommand() }

func (c HistoryListCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	var stateFilter *model.RunState
	if c.stateFilter != "" {
		s := model.RunState(c.stateFilter)
		stateFilter = &s
	}

	// Initialize storage (SQLite).
	repo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
		DBPath: c.rootCmd.HistoryDBPath(),
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("could not create repository: %w", err)
	}
	defer repo.Close()

	svc, err := list.NewService(list.ServiceConfig{
		Repository: repo,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	runs, err := svc.Run(ctx, list.Request{
		StateFilter: stateFilter,
		NameFilter:  c.nameFilter,
		Limit:       c.limit,
	})
	if err != nil {
		return fmt.Errorf("could not list runs: %w", err)
	}

	p := newPrinter(c.format, c.rootCmd.Stdout)
	if err := p.PrintRunList(runs); err != nil {
		return fmt.Errorf("could not print list: %w", err)
	}

	return nil
}

type HistoryShowCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	idOrName string
	format   string
}

// NewHistoryShowCommand returns the history show command.
func NewHistoryShowCommand(rootCmd *RootCommand, historyCmd *kingpin.CmdClause) *HistoryShowCommand {
	c := &HistoryShowCommand{rootCmd: rootCmd}

	c.Cmd = historyCmd.Command("show", "Show a run with its steps.")
	c.Cmd.Arg("id-or-project", "Run ID, or project name to show its latest run.").Required().StringVar(&c.idOrName)
	c.Cmd.Flag("output", "Output format (table, json).").Short('o').Default(outputTable).EnumVar(&c.format, outputTable, outputJSON)

	return c
}

func (c HistoryShowCommand) Name() string { return c.Cmd.FullCommand() }

func (c HistoryShowCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	// Initialize storage (SQLite).
	repo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
		DBPath: c.rootCmd.HistoryDBPath(),
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("could not create repository: %w", err)
	}
	defer repo.Close()

	svc, err := status.NewService(status.ServiceConfig{
		Repository: repo,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	run, err := svc.Run(ctx, status.Request{IDOrName: c.idOrName})
	if err != nil {
		return err
	}

	p := newPrinter(c.format, c.rootCmd.Stdout)
	if err := p.PrintRun(*run); err != nil {
		return fmt.Errorf("could not print run: %w", err)
	}

	return nil
}
