package doctor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/slok/carps/internal/log"
	"github.com/slok/carps/internal/model"
	"github.com/slok/carps/internal/process"
	"github.com/slok/carps/internal/shell"
)

const (
	// DefaultCheckTimeout is the maximum time a toolchain check process can run.
	DefaultCheckTimeout = 30 * time.Second

	checkIDToolchain = "toolchain"
	checkIDSDKs      = "toolchain_sdks"
)

// Checker is a component that can check its own readiness.
type Checker interface {
	Check(ctx context.Context) []model.CheckResult
}

// CheckerFunc is a helper to use functions as Checker.
type CheckerFunc func(ctx context.Context) []model.CheckResult

func (f CheckerFunc) Check(ctx context.Context) []model.CheckResult { return f(ctx) }

// ServiceConfig is the configuration for the doctor service.
type ServiceConfig struct {
	// Spawner is the spawner the scaffolding steps would run with.
	Spawner process.Spawner
	Dialect shell.Dialect
	// Binary is the toolchain executable.
	Binary       string
	CheckTimeout time.Duration
	// Checkers are extra checks run before the toolchain ones (e.g. the container daemon).
	Checkers []Checker
	Logger   log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Spawner == nil {
		return fmt.Errorf("spawner is required")
	}
	if c.Dialect == nil {
		return fmt.Errorf("dialect is required")
	}
	if c.Binary == "" {
		return fmt.Errorf("binary is required")
	}
	if c.CheckTimeout == 0 {
		c.CheckTimeout = DefaultCheckTimeout
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Doctor"})
	return nil
}

// Service runs the preflight checks needed to scaffold projects.
type Service struct {
	spawner      process.Spawner
	dialect      shell.Dialect
	binary       string
	checkTimeout time.Duration
	checkers     []Checker
	logger       log.Logger
}

// NewService creates a new doctor service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		spawner:      cfg.Spawner,
		dialect:      cfg.Dialect,
		binary:       cfg.Binary,
		checkTimeout: cfg.CheckTimeout,
		checkers:     cfg.Checkers,
		logger:       cfg.Logger,
	}, nil
}

// Run executes all the checks. When a checker reports errors the toolchain
// checks are skipped, they would fail for the same reason.
func (s *Service) Run(ctx context.Context) []model.CheckResult {
	var results []model.CheckResult
	for _, c := range s.checkers {
		results = append(results, c.Check(ctx)...)
	}
	if model.HasErrors(results) {
		s.logger.Warningf("Skipping toolchain checks")
		return results
	}

	results = append(results, s.checkToolchain(ctx))
	if model.HasErrors(results) {
		return results
	}

	return append(results, s.checkSDKs(ctx))
}

func (s *Service) checkToolchain(ctx context.Context) model.CheckResult {
	out, err := s.run(ctx, "--version")
	if err != nil {
		return model.CheckResult{
			ID:      checkIDToolchain,
			Status:  model.CheckStatusError,
			Message: fmt.Sprintf("%s not available: %s", s.binary, err),
		}
	}

	msg := s.binary
	if v := firstLine(out); v != "" {
		msg += " " + v
	}

	return model.CheckResult{
		ID:      checkIDToolchain,
		Status:  model.CheckStatusOK,
		Message: msg,
	}
}

func (s *Service) checkSDKs(ctx context.Context) model.CheckResult {
	out, err := s.run(ctx, "--list-sdks")
	if err != nil {
		return model.CheckResult{
			ID:      checkIDSDKs,
			Status:  model.CheckStatusWarning,
			Message: fmt.Sprintf("could not list SDKs: %s", err),
		}
	}

	sdks := nonEmptyLines(out)
	if len(sdks) == 0 {
		return model.CheckResult{
			ID:      checkIDSDKs,
			Status:  model.CheckStatusError,
			Message: "no SDK installed, projects can't be built",
		}
	}

	return model.CheckResult{
		ID:      checkIDSDKs,
		Status:  model.CheckStatusOK,
		Message: fmt.Sprintf("%d SDK(s) installed, latest %s", len(sdks), sdks[len(sdks)-1]),
	}
}

func (s *Service) run(ctx context.Context, arg string) (string, error) {
	cmdline := s.binary
	if strings.ContainsAny(cmdline, " \t") {
		cmdline = s.dialect.Quote(cmdline)
		if s.dialect.Name() == shell.DialectPowerShell {
			cmdline = "& " + cmdline
		}
	}
	cmdline += " " + arg

	s.logger.Debugf("Running check: %s", cmdline)
	res, err := s.spawner.Spawn(ctx, cmdline, model.SpawnOpts{Timeout: s.checkTimeout})
	if err != nil {
		return "", err
	}
	if res.ExitCode != 0 {
		msg := firstLine(string(res.Stderr))
		if msg == "" {
			msg = firstLine(string(res.Stdout))
		}
		return "", fmt.Errorf("exit code %d: %s", res.ExitCode, msg)
	}

	return string(res.Stdout), nil
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(line)
}

func nonEmptyLines(s string) []string {
	var lines []string
	for _, l := range strings.Split(s, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}
