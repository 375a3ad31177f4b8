package lib

import (
	"context"
	"fmt"

	"github.com/slok/carps/internal/app/doctor"
)

// Doctor runs the preflight checks of the configured runner: the Docker daemon
// for [RunnerDocker], and the toolchain version and installed SDKs. For
// [RunnerFake] there is nothing to check and an empty slice is returned.
func (c *Client) Doctor(ctx context.Context) ([]CheckResult, error) {
	if c.runner == RunnerFake {
		return []CheckResult{}, nil
	}

	spawner, checkers, err := c.newSpawner()
	if err != nil {
		return nil, err
	}

	svc, err := doctor.NewService(doctor.ServiceConfig{
		Spawner:  spawner,
		Dialect:  c.dialect,
		Binary:   c.builder.Toolchain().Binary,
		Checkers: checkers,
		Logger:   c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create service: %w", err)
	}

	return fromInternalCheckResults(svc.Run(ctx)), nil
}
