package docker_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/pkg/stdcopy"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/carps/internal/model"
	"github.com/slok/carps/internal/process/docker"
)

type fakeClient struct {
	pingErr    error
	pulls      []string
	created    []*container.Config
	hostCfgs   []*container.HostConfig
	platforms  []*ocispec.Platform
	removed    []string
	exitCode   int64
	stdout     string
	stderr     string
	createErr  error
	neverExits bool
}

func (f *fakeClient) Ping(ctx context.Context) (types.Ping, error) {
	return types.Ping{APIVersion: "1.47", OSType: "linux"}, f.pingErr
}

func (f *fakeClient) ImagePull(ctx context.Context, refStr string, options image.PullOptions) (io.ReadCloser, error) {
	f.pulls = append(f.pulls, refStr)
	return io.NopCloser(bytes.NewReader(nil)), nil
}

func (f *fakeClient) ContainerCreate(ctx context.Context, config *container.Config, hostConfig *container.HostConfig, networkingConfig *network.NetworkingConfig, platform *ocispec.Platform, containerName string) (container.CreateResponse, error) {
	if f.createErr != nil {
		return container.CreateResponse{}, f.createErr
	}
	f.created = append(f.created, config)
	f.hostCfgs = append(f.hostCfgs, hostConfig)
	f.platforms = append(f.platforms, platform)
	return container.CreateResponse{ID: containerName}, nil
}

func (f *fakeClient) ContainerStart(ctx context.Context, containerID string, options container.StartOptions) error {
	return nil
}

func (f *fakeClient) ContainerWait(ctx context.Context, containerID string, condition container.WaitCondition) (<-chan container.WaitResponse, <-chan error) {
	waitC := make(chan container.WaitResponse, 1)
	errC := make(chan error, 1)
	if f.neverExits {
		go func() {
			<-ctx.Done()
			errC <- ctx.Err()
		}()
		return waitC, errC
	}
	waitC <- container.WaitResponse{StatusCode: f.exitCode}
	return waitC, errC
}

func (f *fakeClient) ContainerLogs(ctx context.Context, containerID string, options container.LogsOptions) (io.ReadCloser, error) {
	var buf bytes.Buffer
	if f.stdout != "" {
		_, _ = stdcopy.NewStdWriter(&buf, stdcopy.Stdout).Write([]byte(f.stdout))
	}
	if f.stderr != "" {
		_, _ = stdcopy.NewStdWriter(&buf, stdcopy.Stderr).Write([]byte(f.stderr))
	}
	return io.NopCloser(&buf), nil
}

func (f *fakeClient) ContainerRemove(ctx context.Context, containerID string, options container.RemoveOptions) error {
	f.removed = append(f.removed, containerID)
	return nil
}

func TestSpawnerSpawn(t *testing.T) {
	tests := map[string]struct {
		client    *fakeClient
		cfg       docker.SpawnerConfig
		opts      model.SpawnOpts
		expResult *model.ProcessResult
		expErr    bool
		expErrIs  error
	}{
		"Successful command should demultiplex the container output": {
			client:    &fakeClient{exitCode: 0, stdout: "created\n", stderr: "warn\n"},
			opts:      model.SpawnOpts{WorkingDir: "/work"},
			expResult: &model.ProcessResult{ExitCode: 0, Stdout: []byte("created\n"), Stderr: []byte("warn\n")},
		},

		"Failing command should return the container exit code": {
			client:    &fakeClient{exitCode: 1, stderr: "template not found\n"},
			opts:      model.SpawnOpts{WorkingDir: "/work"},
			expResult: &model.ProcessResult{ExitCode: 1, Stderr: []byte("template not found\n")},
		},

		"A command missing from the image should fail the spawn": {
			client:   &fakeClient{exitCode: 127, stderr: "sh: 1: dotnet: not found\n"},
			opts:     model.SpawnOpts{WorkingDir: "/work"},
			expErr:   true,
			expErrIs: model.ErrCommandNotFound,
		},

		"Container creation failure should fail the spawn": {
			client: &fakeClient{createErr: errors.New("no space left")},
			opts:   model.SpawnOpts{WorkingDir: "/work"},
			expErr: true,
		},

		"Container running longer than the timeout should fail": {
			client: &fakeClient{neverExits: true},
			opts:   model.SpawnOpts{WorkingDir: "/work", Timeout: 1},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			cfg := test.cfg
			cfg.Client = test.client
			s, err := docker.NewSpawner(cfg)
			require.NoError(err)

			res, err := s.Spawn(context.Background(), "dotnet new sln -n app", test.opts)

			if test.expErr {
				assert.Error(err)
				if test.expErrIs != nil {
					assert.ErrorIs(err, test.expErrIs)
				}
				return
			}
			require.NoError(err)
			assert.Equal(test.expResult.ExitCode, res.ExitCode)
			assert.Equal(string(test.expResult.Stdout), string(res.Stdout))
			assert.Equal(string(test.expResult.Stderr), string(res.Stderr))

			// Container setup.
			require.Len(test.client.created, 1)
			assert.Equal(docker.DefaultImage, test.client.created[0].Image)
			assert.Equal("/work", test.client.created[0].WorkingDir)
			assert.Equal([]string{"sh", "-c", "dotnet new sln -n app"}, []string(test.client.created[0].Cmd))
			assert.Equal([]string{"/work:/work"}, test.client.hostCfgs[0].Binds)
			assert.Len(test.client.removed, 1)
		})
	}
}

func TestSpawnerPullsOnce(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	c := &fakeClient{}
	s, err := docker.NewSpawner(docker.SpawnerConfig{Client: c, Image: "dotnet:test", Platform: "linux/arm64"})
	require.NoError(err)

	for range 3 {
		_, err := s.Spawn(context.Background(), "true", model.SpawnOpts{WorkingDir: "/work"})
		require.NoError(err)
	}

	assert.Equal([]string{"dotnet:test"}, c.pulls)
	require.Len(c.platforms, 3)
	assert.Equal(&ocispec.Platform{OS: "linux", Architecture: "arm64"}, c.platforms[0])
}

func TestSpawnerSkipPull(t *testing.T) {
	c := &fakeClient{}
	s, err := docker.NewSpawner(docker.SpawnerConfig{Client: c, SkipPull: true})
	require.NoError(t, err)

	_, err = s.Spawn(context.Background(), "true", model.SpawnOpts{WorkingDir: "/work"})
	require.NoError(t, err)
	assert.Empty(t, c.pulls)
}

func TestParsePlatform(t *testing.T) {
	tests := map[string]struct {
		platform    string
		expPlatform *ocispec.Platform
		expErr      bool
	}{
		"Empty platform should be nil": {
			platform: "",
		},
		"OS and architecture should be parsed": {
			platform:    "linux/amd64",
			expPlatform: &ocispec.Platform{OS: "linux", Architecture: "amd64"},
		},
		"Variant should be parsed": {
			platform:    "linux/arm/v7",
			expPlatform: &ocispec.Platform{OS: "linux", Architecture: "arm", Variant: "v7"},
		},
		"Missing architecture should fail": {
			platform: "linux",
			expErr:   true,
		},
		"Too many parts should fail": {
			platform: "linux/arm/v7/x",
			expErr:   true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)

			p, err := docker.ParsePlatform(test.platform)

			if test.expErr {
				assert.ErrorIs(err, model.ErrNotValid)
			} else if assert.NoError(err) {
				assert.Equal(test.expPlatform, p)
			}
		})
	}
}

func TestSpawnerCheck(t *testing.T) {
	tests := map[string]struct {
		pingErr   error
		expStatus model.CheckStatus
	}{
		"Reachable daemon should be ok": {
			expStatus: model.CheckStatusOK,
		},
		"Unreachable daemon should be an error": {
			pingErr:   errors.New("connection refused"),
			expStatus: model.CheckStatusError,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			s, err := docker.NewSpawner(docker.SpawnerConfig{Client: &fakeClient{pingErr: test.pingErr}})
			require.NoError(t, err)

			results := s.Check(context.Background())
			require.Len(t, results, 1)
			assert.Equal(t, test.expStatus, results[0].Status)
		})
	}
}
