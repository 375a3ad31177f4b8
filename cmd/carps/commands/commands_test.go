package commands

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/carps/internal/log"
	"github.com/slok/carps/internal/model"
)

func TestRootCommandHistoryDBPath(t *testing.T) {
	assert.Equal(t, filepath.Join("/data", "carps.db"), RootCommand{DataDir: "/data"}.HistoryDBPath())
	assert.Equal(t, "/tmp/h.db", RootCommand{DataDir: "/data", DBPath: "/tmp/h.db"}.HistoryDBPath())
}

func TestRootCommandLoadConfig(t *testing.T) {
	tests := map[string]struct {
		files      map[string]string
		configPath string
		expCfg     model.Config
		expErr     bool
	}{
		"A missing default config file should return an empty config.": {
			expCfg: model.Config{},
		},

		"The default config file should be loaded from the data dir.": {
			files:  map[string]string{"config.yaml": "runner: docker\n"},
			expCfg: model.Config{Runner: model.RunnerDocker},
		},

		"An explicit config file should be loaded.": {
			files:      map[string]string{"custom.yaml": "shell: cmd\n"},
			configPath: "custom.yaml",
			expCfg:     model.Config{Shell: "cmd"},
		},

		"A missing explicit config file should fail.": {
			configPath: "missing.yaml",
			expErr:     true,
		},

		"An invalid default config file should fail.": {
			files:  map[string]string{"config.yaml": "runner: podman\n"},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			dir := t.TempDir()
			for f, data := range test.files {
				err := os.WriteFile(filepath.Join(dir, f), []byte(data), 0644)
				require.NoError(err)
			}

			root := RootCommand{DataDir: dir, Logger: log.Noop}
			if test.configPath != "" {
				root.ConfigPath = filepath.Join(dir, test.configPath)
			}

			gotCfg, err := root.LoadConfig(context.Background())

			if test.expErr {
				assert.Error(err)
				return
			}
			require.NoError(err)
			assert.Equal(test.expCfg, gotCfg)
		})
	}
}
