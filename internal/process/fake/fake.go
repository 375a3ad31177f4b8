package fake

import (
	"context"
	"fmt"
	"sync"

	"github.com/slok/carps/internal/log"
	"github.com/slok/carps/internal/model"
)

// Call is a recorded spawn call.
type Call struct {
	CommandLine string
	Opts        model.SpawnOpts
}

// Response is the scripted response of a spawn call.
type Response struct {
	Result *model.ProcessResult
	Err    error
}

// SpawnerConfig is the configuration for the fake spawner.
type SpawnerConfig struct {
	// Responses are the scripted responses by 1-based call number. Calls without
	// a response succeed with an empty output.
	Responses map[int]Response
	Logger    log.Logger
}

func (c *SpawnerConfig) defaults() error {
	if c.Responses == nil {
		c.Responses = map[int]Response{}
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "process.Fake"})
	return nil
}

// Spawner is a fake implementation of process.Spawner.
// It doesn't run anything, it records the calls and returns the scripted responses.
type Spawner struct {
	responses map[int]Response
	calls     []Call
	mu        sync.Mutex
	logger    log.Logger
}

// NewSpawner creates a new fake spawner.
func NewSpawner(cfg SpawnerConfig) (*Spawner, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Spawner{
		responses: cfg.Responses,
		logger:    cfg.Logger,
	}, nil
}

// FailAt returns the responses that make the n call exit with exitCode and stderr.
func FailAt(n, exitCode int, stderr string) map[int]Response {
	return map[int]Response{
		n: {Result: &model.ProcessResult{ExitCode: exitCode, Stderr: []byte(stderr)}},
	}
}

// Spawn records the call and returns its scripted response.
func (s *Spawner) Spawn(ctx context.Context, commandLine string, opts model.SpawnOpts) (*model.ProcessResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, Call{CommandLine: commandLine, Opts: opts})
	n := len(s.calls)
	s.logger.Debugf("Fake spawn %d: %s", n, commandLine)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resp, ok := s.responses[n]
	if !ok {
		return &model.ProcessResult{ExitCode: 0}, nil
	}
	if resp.Err != nil {
		return nil, resp.Err
	}

	res := *resp.Result
	return &res, nil
}

// Calls returns the recorded calls in order.
func (s *Spawner) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()

	calls := make([]Call, len(s.calls))
	copy(calls, s.calls)
	return calls
}
