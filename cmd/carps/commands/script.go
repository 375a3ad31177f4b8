package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/carps/internal/app/script"
)

type ScriptCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	name      string
	outDir    string
	toolchain toolchainFlags
}

// NewScriptCommand returns the script command.
func NewScriptCommand(rootCmd *RootCommand, app *kingpin.Application) *ScriptCommand {
	c := &ScriptCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("script", "Write the project creation commands to a text file instead of running them.")
	c.Cmd.Arg("name", "Project name (letters, digits and underscores). Asked interactively if missing.").StringVar(&c.name)
	c.Cmd.Flag("out-dir", "Directory where the instruction file is written and the project will be created (defaults to the current one).").StringVar(&c.outDir)
	c.toolchain.register(c.Cmd)

	return c
}

func (c ScriptCommand) Name() string { return c.Cmd.FullCommand() }

func (c ScriptCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	name := c.name
	if name == "" {
		n, err := promptName(c.rootCmd.Stdin, c.rootCmd.Stdout)
		if err != nil {
			return err
		}
		name = n
	}

	cfg, err := c.rootCmd.LoadConfig(ctx)
	if err != nil {
		return err
	}
	// Instruction files are for the local terminal, the runner doesn't apply.
	cfg.Runner = ""
	settings, err := c.toolchain.resolve(cfg)
	if err != nil {
		return err
	}

	builder, err := settings.newBuilder()
	if err != nil {
		return fmt.Errorf("could not create steps builder: %w", err)
	}

	svc, err := script.NewService(script.ServiceConfig{
		Builder: builder,
		Dialect: settings.dialect,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	res, err := svc.Write(ctx, script.Request{
		Name: name,
		Dir:  c.outDir,
	})
	if err != nil {
		return err
	}

	p := newPrinter(outputTable, c.rootCmd.Stdout)
	return p.PrintMessage(fmt.Sprintf("Instruction file created successfully: %s", res.Path))
}
