package commands

import (
	"fmt"
	"time"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/carps/internal/app/doctor"
	"github.com/slok/carps/internal/app/scaffold"
	"github.com/slok/carps/internal/log"
	"github.com/slok/carps/internal/model"
	"github.com/slok/carps/internal/process"
	"github.com/slok/carps/internal/process/docker"
	"github.com/slok/carps/internal/process/local"
	"github.com/slok/carps/internal/sequence"
	"github.com/slok/carps/internal/shell"
	utilsenv "github.com/slok/carps/internal/utils/env"
)

// toolchainFlags are the flags shared by the commands that invoke the toolchain.
// Unset flags fall back to the configuration file values.
type toolchainFlags struct {
	runner       string
	shell        string
	binary       string
	template     string
	framework    string
	stepTimeout  time.Duration
	dockerImage  string
	platform     string
	skipPull     bool
	envSpecs     []string
	withRunner   bool
	withExecOpts bool
}

func (f *toolchainFlags) register(cmd *kingpin.CmdClause) {
	if f.withRunner {
		cmd.Flag("runner", "Where the toolchain runs (local, docker).").EnumVar(&f.runner, model.RunnerLocal, model.RunnerDocker)
		cmd.Flag("docker-image", "Toolchain image used by the docker runner.").StringVar(&f.dockerImage)
		cmd.Flag("platform", "Toolchain image platform used by the docker runner (os/arch[/variant]).").StringVar(&f.platform)
		cmd.Flag("skip-pull", "Don't pull the toolchain image, it must be present.").BoolVar(&f.skipPull)
	}
	cmd.Flag("shell", "Shell dialect of the command lines (posix, cmd, powershell).").EnumVar(&f.shell, shell.Dialects...)
	cmd.Flag("toolchain", "Toolchain binary.").StringVar(&f.binary)
	cmd.Flag("template", "Project template.").StringVar(&f.template)
	cmd.Flag("framework", "Project target framework (e.g. net8.0).").StringVar(&f.framework)
	if f.withExecOpts {
		cmd.Flag("step-timeout", "Maximum time a single step can run.").DurationVar(&f.stepTimeout)
		cmd.Flag("env", "Environment variable for the steps in KEY=VALUE form (or KEY to inherit from host). Repeatable.").StringsVar(&f.envSpecs)
	}
}

// toolchainSettings are the flags merged with the configuration.
type toolchainSettings struct {
	runner      string
	dialect     shell.Dialect
	toolchain   sequence.Toolchain
	stepTimeout time.Duration
	docker      model.DockerConfig
	env         map[string]string
}

func (f toolchainFlags) resolve(cfg model.Config) (*toolchainSettings, error) {
	s := &toolchainSettings{
		runner:      firstNonEmpty(f.runner, cfg.Runner, model.RunnerLocal),
		stepTimeout: cfg.StepTimeout,
		toolchain: sequence.Toolchain{
			Binary:    firstNonEmpty(f.binary, cfg.Toolchain.Binary),
			Template:  firstNonEmpty(f.template, cfg.Toolchain.Template),
			Framework: firstNonEmpty(f.framework, cfg.Toolchain.Framework),
		},
		docker: model.DockerConfig{
			Image:    firstNonEmpty(f.dockerImage, cfg.Docker.Image),
			Platform: firstNonEmpty(f.platform, cfg.Docker.Platform),
			SkipPull: f.skipPull || cfg.Docker.SkipPull,
		},
	}
	if f.stepTimeout > 0 {
		s.stepTimeout = f.stepTimeout
	}
	if s.stepTimeout == 0 {
		s.stepTimeout = scaffold.DefaultStepTimeout
	}

	dialectName := firstNonEmpty(f.shell, cfg.Shell, shell.DefaultName())
	if s.runner == model.RunnerDocker {
		// Toolchain images are Linux based.
		if f.shell != "" && f.shell != shell.DialectPosix {
			return nil, fmt.Errorf("docker runner only supports the %s shell: %w", shell.DialectPosix, model.ErrNotValid)
		}
		dialectName = shell.DialectPosix
	}
	dialect, err := shell.New(dialectName)
	if err != nil {
		return nil, err
	}
	s.dialect = dialect

	cliEnv, err := utilsenv.ParseSpecs(f.envSpecs)
	if err != nil {
		return nil, fmt.Errorf("invalid env: %w", err)
	}
	s.env = utilsenv.MergeMaps(cfg.Env, cliEnv)

	return s, nil
}

func (s toolchainSettings) newBuilder() (*sequence.Builder, error) {
	return sequence.NewBuilder(sequence.BuilderConfig{
		Toolchain: s.toolchain,
		Dialect:   s.dialect,
	})
}

// newSpawner returns the spawner of the selected runner and its readiness checks.
func (s toolchainSettings) newSpawner(logger log.Logger) (process.Spawner, []doctor.Checker, error) {
	switch s.runner {
	case model.RunnerDocker:
		sp, err := docker.NewSpawner(docker.SpawnerConfig{
			Image:    s.docker.Image,
			Platform: s.docker.Platform,
			SkipPull: s.docker.SkipPull,
			Logger:   logger,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("could not create docker spawner: %w", err)
		}
		return sp, []doctor.Checker{sp}, nil
	default:
		sp, err := local.NewSpawner(local.SpawnerConfig{
			Dialect: s.dialect,
			Logger:  logger,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("could not create local spawner: %w", err)
		}
		return sp, nil, nil
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
