package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/mattn/go-isatty"
	"github.com/oklog/run"
	"github.com/sirupsen/logrus"

	"github.com/slok/carps/cmd/carps/commands"
	"github.com/slok/carps/internal/log"
	loglogrus "github.com/slok/carps/internal/log/logrus"
)

const (
	// Version is the application version (set via ldflags).
	Version = "dev"
)

// quietCommands only print stored data, logs are disabled unless --debug is set.
var quietCommands = map[string]bool{
	"history list": true,
	"history show": true,
}

func newApp() (*kingpin.Application, *commands.RootCommand, map[string]commands.Command) {
	app := kingpin.New("carps", "C# automated rapid project setup: creates, builds and runs new .NET solutions.")
	app.Version(Version)
	app.DefaultEnvars()
	rootCmd := commands.NewRootCommand(app)

	historyCmd := commands.NewHistoryCommand(app)
	cmds := []commands.Command{
		commands.NewNewCommand(rootCmd, app),
		commands.NewScriptCommand(rootCmd, app),
		commands.NewDoctorCommand(rootCmd, app),
		commands.NewHistoryListCommand(rootCmd, historyCmd),
		commands.NewHistoryShowCommand(rootCmd, historyCmd),
	}

	index := make(map[string]commands.Command, len(cmds))
	for _, c := range cmds {
		index[c.Name()] = c
	}

	return app, rootCmd, index
}

// Run runs the main application.
func Run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	app, rootCmd, cmds := newApp()

	cmdName, err := app.Parse(args[1:])
	if err != nil {
		return fmt.Errorf("invalid command configuration: %w", err)
	}

	rootCmd.Stdin = stdin
	rootCmd.Stdout = stdout
	rootCmd.Stderr = stderr
	if quietCommands[cmdName] && !rootCmd.Debug {
		rootCmd.NoLog = true
	}
	rootCmd.Logger = newLogger(*rootCmd)

	var g run.Group

	// OS signals.
	{
		signalCtx, signalCancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
		defer signalCancel()

		g.Add(
			func() error {
				<-signalCtx.Done()
				rootCmd.Logger.Warningf("Termination signal received, stopping")
				return nil
			},
			func(_ error) {
				signalCancel()
			},
		)
	}

	// Command.
	{
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		g.Add(
			func() error {
				if err := cmds[cmdName].Run(ctx); err != nil {
					return fmt.Errorf("%q command failed: %w", cmdName, err)
				}
				return nil
			},
			func(_ error) {
				cancel()
			},
		)
	}

	return g.Run()
}

func newLogger(config commands.RootCommand) log.Logger {
	if config.NoLog {
		return log.Noop
	}

	l := logrus.New()
	l.Out = config.Stderr // Stdout is for the command output.
	if config.Debug {
		l.SetLevel(logrus.DebugLevel)
	}

	switch config.LoggerType {
	case commands.LoggerTypeJSON:
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		colors := !config.NoColor && isTerminal(config.Stderr)
		l.SetFormatter(&logrus.TextFormatter{
			ForceColors:   colors,
			DisableColors: !colors,
		})
	}

	logger := loglogrus.NewLogrus(logrus.NewEntry(l)).WithValues(log.Kv{
		"version": Version,
	})
	logger.Debugf("Debug level is enabled")

	return logger
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func main() {
	ctx := context.Background()
	if err := Run(ctx, os.Args, os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
