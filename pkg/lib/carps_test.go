package lib_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/carps/pkg/lib"
)

// newTestClient creates a client with the fake runner and a temp SQLite DB.
func newTestClient(t *testing.T, cfg lib.Config) *lib.Client {
	t.Helper()

	cfg.DataDir = t.TempDir()
	if cfg.Runner == "" {
		cfg.Runner = lib.RunnerFake
	}
	if cfg.Shell == "" {
		cfg.Shell = "posix"
	}

	client, err := lib.New(context.Background(), cfg)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = client.Close()
	})

	return client
}

func TestNew(t *testing.T) {
	tests := map[string]struct {
		cfg   lib.Config
		expIs error
	}{
		"The fake runner should be created.": {
			cfg: lib.Config{Runner: lib.RunnerFake},
		},

		"Disabling the history should not need a database.": {
			cfg: lib.Config{Runner: lib.RunnerFake, DisableHistory: true, DBPath: "/dev/null/carps.db"},
		},

		"An unknown runner should fail.": {
			cfg:   lib.Config{Runner: "podman"},
			expIs: lib.ErrNotValid,
		},

		"An unknown shell should fail.": {
			cfg:   lib.Config{Runner: lib.RunnerFake, Shell: "fish"},
			expIs: lib.ErrNotValid,
		},

		"The docker runner with a non posix shell should fail.": {
			cfg:   lib.Config{Runner: lib.RunnerDocker, Shell: "cmd"},
			expIs: lib.ErrNotValid,
		},

		"A negative step timeout should fail.": {
			cfg:   lib.Config{Runner: lib.RunnerFake, StepTimeout: -1},
			expIs: lib.ErrNotValid,
		},

		"An invalid env key should fail.": {
			cfg:   lib.Config{Runner: lib.RunnerFake, Env: map[string]string{"BAD-KEY": "1"}},
			expIs: lib.ErrNotValid,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			test.cfg.DataDir = t.TempDir()
			client, err := lib.New(context.Background(), test.cfg)

			if test.expIs != nil {
				assert.ErrorIs(err, test.expIs)
				return
			}
			require.NoError(err)
			assert.NoError(client.Close())
		})
	}
}

func TestValidateName(t *testing.T) {
	assert.NoError(t, lib.ValidateName("My_App2"))
	assert.ErrorIs(t, lib.ValidateName("my app"), lib.ErrNotValid)
	assert.ErrorIs(t, lib.ValidateName(""), lib.ErrNotValid)
}

func TestPlan(t *testing.T) {
	client := newTestClient(t, lib.Config{Toolchain: lib.Toolchain{Framework: "net8.0"}})
	dir := t.TempDir()

	steps, err := client.Plan(context.Background(), "MyApp", dir)
	require.NoError(t, err)

	require.Len(t, steps, 7)
	inner := filepath.Join(dir, "MyApp", "MyApp")
	assert.Equal(t, lib.Step{
		Index:       1,
		ID:          "create_outer_dir",
		Description: "create directory " + filepath.Join(dir, "MyApp"),
		Command:     "mkdir '" + filepath.Join(dir, "MyApp") + "'",
	}, steps[0])
	assert.Equal(t, "dotnet new console -o '"+filepath.Join(inner, "MyApp")+"' --framework net8.0", steps[3].Command)
	assert.Equal(t, 7, steps[6].Index)

	_, err = client.Plan(context.Background(), "My App", dir)
	assert.ErrorIs(t, err, lib.ErrNotValid)
}

func TestScaffold(t *testing.T) {
	spawnErr := errors.New("exec format error")

	tests := map[string]struct {
		failures      map[int]lib.FakeFailure
		name          string
		expState      lib.RunState
		expResults    int
		expFailedStep int
		expErrIs      error
	}{
		"All the steps succeeding should create the project.": {
			name:       "MyApp",
			expState:   lib.RunStateAllSucceeded,
			expResults: 7,
		},

		"An invalid name should be rejected without running steps.": {
			name:     "my-app",
			expState: lib.RunStateRejected,
			expErrIs: lib.ErrNotValid,
		},

		"A failed step should stop the run.": {
			name: "MyApp",
			failures: map[int]lib.FakeFailure{
				6: {ExitCode: 1, Stderr: "error CS1002: ; expected"},
			},
			expState:      lib.RunStateStepFailed,
			expResults:    6,
			expFailedStep: 6,
			expErrIs:      lib.ErrStepFailed,
		},

		"A step that can't be started should stop the run.": {
			name: "MyApp",
			failures: map[int]lib.FakeFailure{
				3: {SpawnErr: spawnErr},
			},
			expState:      lib.RunStateStepFailed,
			expResults:    3,
			expFailedStep: 3,
			expErrIs:      lib.ErrStepFailed,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			client := newTestClient(t, lib.Config{FakeFailures: test.failures})
			dir := t.TempDir()

			outcome, err := client.Scaffold(context.Background(), lib.ScaffoldOpts{
				Name:       test.name,
				WorkingDir: dir,
			})
			require.NoError(err)

			assert.Equal(test.expState, outcome.State)
			assert.Len(outcome.Results, test.expResults)
			assert.Equal(test.expState == lib.RunStateAllSucceeded, outcome.Succeeded())

			if test.expErrIs == nil {
				assert.NoError(outcome.Err())
				assert.Nil(outcome.FailedStep)
				assert.Equal(filepath.Join(dir, test.name), outcome.Paths.OuterDir)
				assert.Len(outcome.Steps, 7)
				return
			}

			assert.ErrorIs(outcome.Err(), test.expErrIs)
			if test.expFailedStep > 0 {
				require.NotNil(outcome.FailedStep)
				assert.Equal(test.expFailedStep, outcome.FailedStep.Index)
				last := outcome.Results[len(outcome.Results)-1]
				assert.False(last.Succeeded)
				assert.ErrorIs(last.Err, lib.ErrStepFailed)
			}
		})
	}
}

func TestScaffoldHistory(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)
	ctx := context.Background()

	client := newTestClient(t, lib.Config{
		FakeFailures: map[int]lib.FakeFailure{5: {ExitCode: 1, Stderr: "boom"}},
	})
	dir := t.TempDir()

	failed, err := client.Scaffold(ctx, lib.ScaffoldOpts{Name: "Failing", WorkingDir: dir})
	require.NoError(err)
	_, err = client.Scaffold(ctx, lib.ScaffoldOpts{Name: "bad name", WorkingDir: dir})
	require.NoError(err)

	runs, err := client.ListRuns(ctx, nil)
	require.NoError(err)
	require.Len(runs, 1)
	assert.Equal(failed.RunID, runs[0].ID)
	assert.Equal(lib.RunStateStepFailed, runs[0].State)
	assert.Equal(5, runs[0].FailedStepIndex)
	assert.Equal(string(lib.RunnerFake), runs[0].Runner)
	assert.Empty(runs[0].Steps)

	run, err := client.GetRun(ctx, "Failing")
	require.NoError(err)
	assert.Equal(failed.RunID, run.ID)
	require.Len(run.Steps, 5)
	assert.True(run.Steps[0].Succeeded)
	assert.False(run.Steps[4].Succeeded)
	assert.Equal("boom", run.Steps[4].Stderr)
	assert.NotNil(run.FinishedAt)

	byID, err := client.GetRun(ctx, failed.RunID)
	require.NoError(err)
	assert.Equal(run.ID, byID.ID)

	state := lib.RunStateAllSucceeded
	runs, err = client.ListRuns(ctx, &lib.ListRunsOpts{State: &state})
	require.NoError(err)
	assert.Empty(runs)

	_, err = client.GetRun(ctx, "Missing")
	assert.ErrorIs(err, lib.ErrNotFound)

	_, err = client.ListRuns(ctx, &lib.ListRunsOpts{Limit: -1})
	assert.ErrorIs(err, lib.ErrNotValid)
}

func TestHistoryDisabled(t *testing.T) {
	client := newTestClient(t, lib.Config{DisableHistory: true})
	ctx := context.Background()

	outcome, err := client.Scaffold(ctx, lib.ScaffoldOpts{Name: "MyApp", WorkingDir: t.TempDir()})
	require.NoError(t, err)
	assert.True(t, outcome.Succeeded())

	_, err = client.ListRuns(ctx, nil)
	assert.ErrorIs(t, err, lib.ErrNotValid)
	_, err = client.GetRun(ctx, outcome.RunID)
	assert.ErrorIs(t, err, lib.ErrNotValid)
}

func TestWriteScript(t *testing.T) {
	client := newTestClient(t, lib.Config{})
	dir := t.TempDir()

	res, err := client.WriteScript(context.Background(), "MyApp", dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "MyApp - Copy into Terminal to create.txt"), res.Path)
	assert.Len(t, res.Steps, 7)
	data, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.Equal(t, res.Content, string(data))
	assert.Contains(t, res.Content, " && ")

	_, err = client.WriteScript(context.Background(), "My App", dir)
	assert.ErrorIs(t, err, lib.ErrNotValid)
}

func TestDoctorFakeRunner(t *testing.T) {
	client := newTestClient(t, lib.Config{})

	results, err := client.Doctor(context.Background())
	require.NoError(t, err)
	assert.Empty(t, results)
}
