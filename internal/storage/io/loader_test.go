package io

import (
	"context"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/carps/internal/model"
)

func TestConfigYAMLRepository_GetConfig(t *testing.T) {
	tests := map[string]struct {
		fs     fstest.MapFS
		path   string
		expCfg model.Config
		expErr bool
	}{
		"Complete config should load successfully": {
			fs: fstest.MapFS{
				"config.yaml": &fstest.MapFile{
					Data: []byte(`runner: docker
shell: posix
step_timeout: 5m
disable_history: true
toolchain:
  binary: /usr/share/dotnet/dotnet
  template: worker
  framework: net8.0
docker:
  image: mcr.microsoft.com/dotnet/sdk:9.0
  platform: linux/amd64
  skip_pull: true
env:
  DOTNET_CLI_TELEMETRY_OPTOUT: "1"
`),
				},
			},
			path: "config.yaml",
			expCfg: model.Config{
				Runner:      model.RunnerDocker,
				Shell:       "posix",
				StepTimeout: 5 * time.Minute,
				Toolchain: model.ToolchainConfig{
					Binary:    "/usr/share/dotnet/dotnet",
					Template:  "worker",
					Framework: "net8.0",
				},
				Docker: model.DockerConfig{
					Image:    "mcr.microsoft.com/dotnet/sdk:9.0",
					Platform: "linux/amd64",
					SkipPull: true,
				},
				Env:            map[string]string{"DOTNET_CLI_TELEMETRY_OPTOUT": "1"},
				DisableHistory: true,
			},
		},

		"Empty config should load successfully": {
			fs: fstest.MapFS{
				"empty.yaml": &fstest.MapFile{
					Data: []byte(`---
`),
				},
			},
			path:   "empty.yaml",
			expCfg: model.Config{},
		},

		"Unknown runner should fail": {
			fs: fstest.MapFS{
				"config.yaml": &fstest.MapFile{Data: []byte(`runner: podman`)},
			},
			path:   "config.yaml",
			expErr: true,
		},

		"Unknown shell should fail": {
			fs: fstest.MapFS{
				"config.yaml": &fstest.MapFile{Data: []byte(`shell: fish`)},
			},
			path:   "config.yaml",
			expErr: true,
		},

		"Invalid step timeout should fail": {
			fs: fstest.MapFS{
				"config.yaml": &fstest.MapFile{Data: []byte(`step_timeout: soon`)},
			},
			path:   "config.yaml",
			expErr: true,
		},

		"Negative step timeout should fail": {
			fs: fstest.MapFS{
				"config.yaml": &fstest.MapFile{Data: []byte(`step_timeout: -1m`)},
			},
			path:   "config.yaml",
			expErr: true,
		},

		"Invalid env key should fail": {
			fs: fstest.MapFS{
				"config.yaml": &fstest.MapFile{Data: []byte("env:\n  BAD-KEY: x\n")},
			},
			path:   "config.yaml",
			expErr: true,
		},

		"Invalid YAML should fail": {
			fs: fstest.MapFS{
				"config.yaml": &fstest.MapFile{Data: []byte("runner: [local")},
			},
			path:   "config.yaml",
			expErr: true,
		},

		"Missing file should fail": {
			fs:     fstest.MapFS{},
			path:   "config.yaml",
			expErr: true,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			repo := NewConfigYAMLRepository(tc.fs)
			cfg, err := repo.GetConfig(context.Background(), tc.path)

			if tc.expErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expCfg, cfg)
		})
	}
}

func TestConfigYAMLRepository_GetConfig_ContextCancellation(t *testing.T) {
	fs := fstest.MapFS{
		"test.yaml": &fstest.MapFile{
			Data: []byte(`runner: local
`),
		},
	}

	repo := NewConfigYAMLRepository(fs)
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately

	_, err := repo.GetConfig(ctx, "test.yaml")
	require.Error(t, err)
	assert.Equal(t, context.Canceled, err)
}
