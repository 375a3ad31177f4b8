package process

import (
	"context"

	"github.com/slok/carps/internal/model"
)

// Spawner runs a command line as an external process until it terminates,
// capturing its output streams.
//
// A non-zero exit code is not an error, it's returned in the result. An error
// means the process could not be started or did not finish (e.g. timeout).
type Spawner interface {
	Spawn(ctx context.Context, commandLine string, opts model.SpawnOpts) (*model.ProcessResult, error)
}

// SpawnerFunc is a helper to create a Spawner from a function.
type SpawnerFunc func(ctx context.Context, commandLine string, opts model.SpawnOpts) (*model.ProcessResult, error)

func (f SpawnerFunc) Spawn(ctx context.Context, commandLine string, opts model.SpawnOpts) (*model.ProcessResult, error) {
	return f(ctx, commandLine, opts)
}
