package status

import (
	"context"
	"errors"
	"fmt"

	"github.com/slok/carps/internal/log"
	"github.com/slok/carps/internal/model"
	"github.com/slok/carps/internal/storage"
)

// ServiceConfig is the configuration for the status service.
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
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Status"})

	return nil
}

// Service retrieves a stored run with its step results.
type Service struct {
	repo   storage.Repository
	logger log.Logger
}

// NewService creates a new status service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		repo:   cfg.Repository,
		logger: cfg.Logger,
	}, nil
}

// Request represents the status request parameters.
type Request struct {
	// IDOrName is the run ID, or a project name to get its latest run.
	IDOrName string
}

// Run retrieves a run by ID or the latest run of a project.
// Inputs that look like a ULID are looked up by ID first.
func (s *Service) Run(ctx context.Context, req Request) (*model.Run, error) {
	if req.IDOrName == "" {
		return nil, fmt.Errorf("run id or project name is required: %w", model.ErrNotValid)
	}

	s.logger.Debugf("getting run: %s", req.IDOrName)

	if looksLikeULID(req.IDOrName) {
		run, err := s.repo.GetRun(ctx, req.IDOrName)
		if err == nil {
			return run, nil
		}
		if !errors.Is(err, model.ErrNotFound) {
			return nil, fmt.Errorf("could not get run: %w", err)
		}
		s.logger.Debugf("ID lookup failed, trying project name lookup")
	}

	runs, err := s.repo.ListRuns(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not list runs: %w", err)
	}

	// Runs are listed newest first.
	for _, r := range runs {
		if r.Name.String() != req.IDOrName {
			continue
		}

		run, err := s.repo.GetRun(ctx, r.ID)
		if err != nil {
			return nil, fmt.Errorf("could not get run: %w", err)
		}
		s.logger.Debugf("found latest run of project: %s", run.ID)
		return run, nil
	}

	return nil, fmt.Errorf("run not found: %s: %w", req.IDOrName, model.ErrNotFound)
}

// looksLikeULID checks if a string looks like a ULID (26 characters, alphanumeric uppercase).
func looksLikeULID(s string) bool {
	if len(s) != 26 {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'A' || c > 'Z') {
			return false
		}
	}
	return true
}
