package list

import (
	"context"
	"fmt"

	"github.com/slok/carps/internal/log"
	"github.com/slok/carps/internal/model"
	"github.com/slok/carps/internal/storage"
)

// ServiceConfig is the configuration for the list service.
type ServiceConfig struct {
	Repository storage.Repository
	Logger     log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.List"})

	return nil
}

// Service lists the stored scaffolding runs.
type Service struct {
	repo   storage.Repository
	logger log.Logger
}

// NewService creates a new list service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		repo:   cfg.Repository,
		logger: cfg.Logger,
	}, nil
}

// Request represents the list request parameters.
type Request struct {
	// StateFilter is an optional filter to only show runs in this state.
	StateFilter *model.RunState
	// NameFilter is an optional filter to only show runs of this project.
	NameFilter string
	// Limit is the maximum number of runs returned, zero means no limit.
	Limit int
}

// Run lists the runs, newest first, optionally filtered.
func (s *Service) Run(ctx context.Context, req Request) ([]model.Run, error) {
	if req.Limit < 0 {
		return nil, fmt.Errorf("limit can't be negative: %w", model.ErrNotValid)
	}

	s.logger.Debugf("listing runs with state filter %v and name filter %q", req.StateFilter, req.NameFilter)

	runs, err := s.repo.ListRuns(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not list runs: %w", err)
	}

	filtered := make([]model.Run, 0, len(runs))
	for _, r := range runs {
		if req.StateFilter != nil && r.State != *req.StateFilter {
			continue
		}
		if req.NameFilter != "" && r.Name.String() != req.NameFilter {
			continue
		}
		filtered = append(filtered, r)
	}

	if req.Limit > 0 && len(filtered) > req.Limit {
		filtered = filtered[:req.Limit]
	}

	s.logger.Debugf("found %d runs", len(filtered))
	return filtered, nil
}
