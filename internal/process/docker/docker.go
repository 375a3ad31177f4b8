// Package docker spawns command lines inside throwaway containers of a toolchain
// image, so the toolchain doesn't need to be installed on the host.
//
// The working directory is bind mounted at the same path inside the container,
// this way the absolute paths of the command lines are valid on both sides.
package docker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/oklog/ulid/v2"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"

	"github.com/slok/carps/internal/log"
	"github.com/slok/carps/internal/model"
	"github.com/slok/carps/internal/shell"
	"github.com/slok/carps/internal/utils/env"
)

// DefaultImage is the default toolchain image.
const DefaultImage = "mcr.microsoft.com/dotnet/sdk:8.0"

// DockerClient is the interface for Docker operations that we use.
// This allows us to mock the Docker client for testing.
type DockerClient interface {
	Ping(ctx context.Context) (types.Ping, error)
	ImagePull(ctx context.Context, refStr string, options image.PullOptions) (io.ReadCloser, error)
	ContainerCreate(ctx context.Context, config *container.Config, hostConfig *container.HostConfig, networkingConfig *network.NetworkingConfig, platform *ocispec.Platform, containerName string) (container.CreateResponse, error)
	ContainerStart(ctx context.Context, containerID string, options container.StartOptions) error
	ContainerWait(ctx context.Context, containerID string, condition container.WaitCondition) (<-chan container.WaitResponse, <-chan error)
	ContainerLogs(ctx context.Context, containerID string, options container.LogsOptions) (io.ReadCloser, error)
	ContainerRemove(ctx context.Context, containerID string, options container.RemoveOptions) error
}

// SpawnerConfig is the configuration for the Docker spawner.
type SpawnerConfig struct {
	Client DockerClient
	// Image is the toolchain image the command lines run in.
	Image string
	// Platform is the optional image platform in `os/arch[/variant]` form.
	Platform string
	// SkipPull disables pulling the image before the first spawn.
	SkipPull bool
	Logger   log.Logger
}

func (c *SpawnerConfig) defaults() error {
	if c.Client == nil {
		// Create a default Docker client
		cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
		if err != nil {
			return fmt.Errorf("could not create Docker client: %w", err)
		}
		c.Client = cli
	}
	if c.Image == "" {
		c.Image = DefaultImage
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "process.Docker"})
	return nil
}

// Spawner is the Docker implementation of process.Spawner.
type Spawner struct {
	client   DockerClient
	image    string
	platform *ocispec.Platform
	skipPull bool
	dialect  shell.Dialect
	logger   log.Logger

	pullOnce sync.Once
	pullErr  error
}

// NewSpawner creates a new Docker spawner.
func NewSpawner(cfg SpawnerConfig) (*Spawner, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	platform, err := ParsePlatform(cfg.Platform)
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Spawner{
		client:   cfg.Client,
		image:    cfg.Image,
		platform: platform,
		skipPull: cfg.SkipPull,
		// Toolchain images are Linux based.
		dialect: shell.Posix{},
		logger:  cfg.Logger,
	}, nil
}

// ParsePlatform parses an `os/arch[/variant]` platform, an empty string returns nil.
func ParsePlatform(s string) (*ocispec.Platform, error) {
	if s == "" {
		return nil, nil
	}

	parts := strings.Split(s, "/")
	if len(parts) < 2 || len(parts) > 3 || parts[0] == "" || parts[1] == "" {
		return nil, fmt.Errorf("platform %q must be os/arch[/variant]: %w", s, model.ErrNotValid)
	}

	p := &ocispec.Platform{OS: parts[0], Architecture: parts[1]}
	if len(parts) == 3 {
		p.Variant = parts[2]
	}

	return p, nil
}

// Check pings the Docker daemon.
func (s *Spawner) Check(ctx context.Context) []model.CheckResult {
	ping, err := s.client.Ping(ctx)
	if err != nil {
		return []model.CheckResult{{ID: "docker_daemon", Status: model.CheckStatusError, Message: fmt.Sprintf("Docker daemon not reachable: %s", err)}}
	}

	return []model.CheckResult{{ID: "docker_daemon", Status: model.CheckStatusOK, Message: fmt.Sprintf("Docker daemon reachable (API %s, %s)", ping.APIVersion, ping.OSType)}}
}

// Spawn runs the command line in a new container and removes it afterwards.
func (s *Spawner) Spawn(ctx context.Context, commandLine string, opts model.SpawnOpts) (*model.ProcessResult, error) {
	if err := s.ensureImage(ctx); err != nil {
		return nil, err
	}

	workDir := opts.WorkingDir
	if workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("could not get working directory: %w", err)
		}
		workDir = wd
	}

	containerEnv := env.MergeMaps(map[string]string{
		"HOME":                        "/tmp",
		"DOTNET_CLI_HOME":             "/tmp",
		"DOTNET_CLI_TELEMETRY_OPTOUT": "1",
		"DOTNET_NOLOGO":               "1",
	}, opts.Env)

	containerConfig := &container.Config{
		Image:      s.image,
		Cmd:        s.dialect.Invocation(commandLine),
		WorkingDir: workDir,
		Env:        env.List(containerEnv),
	}
	// Keep the host user as the owner of the created files.
	if uid, gid := os.Getuid(), os.Getgid(); uid >= 0 && gid >= 0 {
		containerConfig.User = fmt.Sprintf("%d:%d", uid, gid)
	}

	hostConfig := &container.HostConfig{
		Binds: []string{fmt.Sprintf("%s:%s", workDir, workDir)},
	}

	containerName := fmt.Sprintf("carps-%s", strings.ToLower(ulid.Make().String()))
	resp, err := s.client.ContainerCreate(ctx, containerConfig, hostConfig, nil, s.platform, containerName)
	if err != nil {
		return nil, fmt.Errorf("could not create container: %w", err)
	}
	defer s.remove(resp.ID)

	waitCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	// Wait must be registered before start so a fast exit is not missed.
	waitC, errC := s.client.ContainerWait(waitCtx, resp.ID, container.WaitConditionNextExit)

	if err := s.client.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return nil, fmt.Errorf("could not start container: %w", err)
	}

	s.logger.Debugf("Started container %s: %s", containerName, commandLine)

	var exitCode int
	select {
	case res := <-waitC:
		if res.Error != nil {
			return nil, fmt.Errorf("container wait failed: %s", res.Error.Message)
		}
		exitCode = int(res.StatusCode)
	case err := <-errC:
		if errors.Is(waitCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("process did not finish in %s: %w", opts.Timeout, waitCtx.Err())
		}
		return nil, fmt.Errorf("could not wait for container: %w", err)
	}

	logs, err := s.client.ContainerLogs(ctx, resp.ID, container.LogsOptions{ShowStdout: true, ShowStderr: true})
	if err != nil {
		return nil, fmt.Errorf("could not get container logs: %w", err)
	}
	defer logs.Close()

	var stdout, stderr bytes.Buffer
	if _, err := stdcopy.StdCopy(&stdout, &stderr, logs); err != nil {
		return nil, fmt.Errorf("could not read container logs: %w", err)
	}

	s.logger.Debugf("Container %s exited with code %d", containerName, exitCode)

	if s.dialect.CommandNotFound(exitCode) {
		return nil, fmt.Errorf("%w in image %s (exit code %d): %s", model.ErrCommandNotFound, s.image, exitCode, strings.TrimSpace(stderr.String()))
	}

	return &model.ProcessResult{
		ExitCode: exitCode,
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
	}, nil
}

func (s *Spawner) ensureImage(ctx context.Context) error {
	if s.skipPull {
		return nil
	}

	s.pullOnce.Do(func() {
		s.logger.Infof("Pulling image: %s", s.image)
		opts := image.PullOptions{}
		if s.platform != nil {
			opts.Platform = platformString(*s.platform)
		}
		pullResp, err := s.client.ImagePull(ctx, s.image, opts)
		if err != nil {
			s.pullErr = fmt.Errorf("failed to pull image %s: %w", s.image, err)
			return
		}
		// Consume the pull response to ensure it completes
		_, _ = io.Copy(io.Discard, pullResp)
		pullResp.Close()
	})

	return s.pullErr
}

// remove uses its own context, the container must be removed even if the spawn was cancelled.
func (s *Spawner) remove(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.client.ContainerRemove(ctx, id, container.RemoveOptions{Force: true}); err != nil {
		s.logger.Warningf("Could not remove container %s: %s", id, err)
	}
}

func platformString(p ocispec.Platform) string {
	s := p.OS + "/" + p.Architecture
	if p.Variant != "" {
		s += "/" + p.Variant
	}
	return s
}
