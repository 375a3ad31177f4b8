package lib

import (
	"context"
	"fmt"

	"github.com/slok/carps/internal/app/list"
	"github.com/slok/carps/internal/app/status"
)

// ListRuns returns the stored runs, newest first. Steps are not loaded, use
// [Client.GetRun] for them. Pass nil opts to list all the runs.
//
// Returns ErrNotValid if the history is disabled.
func (c *Client) ListRuns(ctx context.Context, opts *ListRunsOpts) ([]Run, error) {
	repo, err := c.history()
	if err != nil {
		return nil, mapError(err)
	}

	svc, err := list.NewService(list.ServiceConfig{
		Repository: repo,
		Logger:     c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create service: %w", err)
	}

	req := list.Request{StateFilter: toInternalStateFilter(opts)}
	if opts != nil {
		req.NameFilter = opts.Name
		req.Limit = opts.Limit
	}

	runs, err := svc.Run(ctx, req)
	if err != nil {
		return nil, mapError(err)
	}

	return fromInternalRunList(runs), nil
}

// GetRun returns a run with its steps by ID, or the latest run of a project
// when a project name is used.
//
// Returns ErrNotFound if there is no such run.
func (c *Client) GetRun(ctx context.Context, idOrName string) (*Run, error) {
	repo, err := c.history()
	if err != nil {
		return nil, mapError(err)
	}

	svc, err := status.NewService(status.ServiceConfig{
		Repository: repo,
		Logger:     c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create service: %w", err)
	}

	run, err := svc.Run(ctx, status.Request{IDOrName: idOrName})
	if err != nil {
		return nil, mapError(err)
	}

	r := fromInternalRun(*run)
	return &r, nil
}
