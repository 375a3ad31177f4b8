package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/alecthomas/kingpin/v2"
	"k8s.io/client-go/util/homedir"

	"github.com/slok/carps/internal/conventions"
	"github.com/slok/carps/internal/log"
	"github.com/slok/carps/internal/model"
	"github.com/slok/carps/internal/printer"
	storageio "github.com/slok/carps/internal/storage/io"
)

const (
	// LoggerTypeDefault is the logger default type.
	LoggerTypeDefault = "default"
	// LoggerTypeJSON is the logger json type.
	LoggerTypeJSON = "json"

	outputTable = "table"
	outputJSON  = "json"
)

// Command represents an application command, all commands that want to be executed
// should implement and setup on main.
type Command interface {
	Name() string
	Run(ctx context.Context) error
}

// RootCommand represents the root command configuration and global configuration
// for all the commands.
type RootCommand struct {
	// Global flags.
	Debug      bool
	NoLog      bool
	NoColor    bool
	LoggerType string
	DataDir    string
	DBPath     string
	ConfigPath string

	// Global instances.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger log.Logger
}

// NewRootCommand initializes the main root configuration.
func NewRootCommand(app *kingpin.Application) *RootCommand {
	c := &RootCommand{}

	app.Flag("debug", "Enable debug mode.").BoolVar(&c.Debug)
	app.Flag("no-log", "Disable logger.").BoolVar(&c.NoLog)
	app.Flag("no-color", "Disable logger color.").BoolVar(&c.NoColor)
	app.Flag("logger", "Selects the logger type.").Default(LoggerTypeDefault).EnumVar(&c.LoggerType, LoggerTypeDefault, LoggerTypeJSON)

	defaultDataDir := filepath.Join(homedir.HomeDir(), conventions.DefaultDataDir)
	app.Flag("data-dir", "Directory of the carps data (history database and configuration).").Default(defaultDataDir).StringVar(&c.DataDir)
	app.Flag("db-path", "Path to the SQLite run history database file (defaults to the data dir one).").StringVar(&c.DBPath)
	app.Flag("config", "Path to the YAML configuration file (defaults to the data dir one, if present).").StringVar(&c.ConfigPath)

	return c
}

// HistoryDBPath returns the run history database path.
func (c RootCommand) HistoryDBPath() string {
	if c.DBPath != "" {
		return c.DBPath
	}
	return conventions.DBPath(c.DataDir)
}

// LoadConfig loads the configuration file. A missing default configuration file
// is not an error, an explicit one must exist.
func (c RootCommand) LoadConfig(ctx context.Context) (model.Config, error) {
	path := c.ConfigPath
	explicit := path != ""
	if !explicit {
		path = conventions.ConfigPath(c.DataDir)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return model.Config{}, fmt.Errorf("could not resolve config path: %w", err)
	}

	repo := storageio.NewConfigYAMLRepository(os.DirFS(filepath.Dir(abs)))
	cfg, err := repo.GetConfig(ctx, filepath.Base(abs))
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			c.Logger.Debugf("No config file at %s, using defaults", abs)
			return model.Config{}, nil
		}
		return model.Config{}, fmt.Errorf("could not load config %s: %w", abs, err)
	}

	c.Logger.Debugf("Config loaded from %s", abs)
	return cfg, nil
}

func newPrinter(format string, w io.Writer) printer.Printer {
	switch format {
	case outputJSON:
		return printer.NewJSONPrinter(w)
	default: // table
		return printer.NewTablePrinter(w)
	}
}
