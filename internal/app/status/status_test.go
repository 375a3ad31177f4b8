package status_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/slok/carps/internal/app/status"
	"github.com/slok/carps/internal/log"
	"github.com/slok/carps/internal/model"
	"github.com/slok/carps/internal/storage/storagemock"
)

func TestNewService(t *testing.T) {
	tests := map[string]struct {
		config status.ServiceConfig
		expErr bool
	}{
		"valid config should create service": {
			config: status.ServiceConfig{
				Repository: &storagemock.MockRepository{},
				Logger:     log.Noop,
			},
		},
		"missing repository should fail": {
			config: status.ServiceConfig{Logger: log.Noop},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			require := require.New(t)

			svc, err := status.NewService(test.config)

			if test.expErr {
				require.Error(err)
				require.Nil(svc)
			} else {
				require.NoError(err)
				require.NotNil(svc)
			}
		})
	}
}

func TestService_Run(t *testing.T) {
	const runID = "01HQXYZ1234567890ABCDEFGHJ"
	createdAt := time.Date(2026, 1, 30, 10, 0, 0, 0, time.UTC)

	fullRun := &model.Run{
		ID:        runID,
		Name:      "MyApp",
		State:     model.RunStateAllSucceeded,
		CreatedAt: createdAt,
		Steps: []model.StepRecord{
			{Index: 1, ID: model.StepIDCreateOuterDir, Succeeded: true},
		},
	}

	tests := map[string]struct {
		mock     func(m *storagemock.MockRepository)
		req      status.Request
		expRun   *model.Run
		expErr   bool
		expErrIs error
	}{
		"get run by ID": {
			mock: func(m *storagemock.MockRepository) {
				m.On("GetRun", mock.Anything, runID).Once().Return(fullRun, nil)
			},
			req:    status.Request{IDOrName: runID},
			expRun: fullRun,
		},

		"get latest run by project name": {
			mock: func(m *storagemock.MockRepository) {
				m.On("ListRuns", mock.Anything).Once().Return([]model.Run{
					{ID: "other", Name: "Other"},
					{ID: runID, Name: "MyApp"},
					{ID: "older", Name: "MyApp"},
				}, nil)
				m.On("GetRun", mock.Anything, runID).Once().Return(fullRun, nil)
			},
			req:    status.Request{IDOrName: "MyApp"},
			expRun: fullRun,
		},

		"a missing ULID should fall back to the project name lookup": {
			mock: func(m *storagemock.MockRepository) {
				m.On("GetRun", mock.Anything, runID).Once().Return(nil, model.ErrNotFound)
				m.On("ListRuns", mock.Anything).Once().Return([]model.Run{}, nil)
			},
			req:      status.Request{IDOrName: runID},
			expErr:   true,
			expErrIs: model.ErrNotFound,
		},

		"a project without runs should fail with not found": {
			mock: func(m *storagemock.MockRepository) {
				m.On("ListRuns", mock.Anything).Once().Return([]model.Run{{ID: runID, Name: "Other"}}, nil)
			},
			req:      status.Request{IDOrName: "MyApp"},
			expErr:   true,
			expErrIs: model.ErrNotFound,
		},

		"an empty request should fail": {
			mock:     func(m *storagemock.MockRepository) {},
			req:      status.Request{},
			expErr:   true,
			expErrIs: model.ErrNotValid,
		},

		"repository error on ID lookup should fail": {
			mock: func(m *storagemock.MockRepository) {
				m.On("GetRun", mock.Anything, runID).Once().Return(nil, fmt.Errorf("db error"))
			},
			req:    status.Request{IDOrName: runID},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			mRepo := storagemock.NewMockRepository(t)
			test.mock(mRepo)

			svc, err := status.NewService(status.ServiceConfig{Repository: mRepo})
			require.NoError(err)

			run, err := svc.Run(context.Background(), test.req)

			if test.expErr {
				require.Error(err)
				if test.expErrIs != nil {
					assert.ErrorIs(err, test.expErrIs)
				}
				return
			}
			require.NoError(err)
			assert.Equal(test.expRun, run)
		})
	}
}
