package printer_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/carps/internal/model"
	"github.com/slok/carps/internal/printer"
)

func stepsFixture() []model.CommandStep {
	return []model.CommandStep{
		{Index: 1, ID: model.StepIDCreateOuterDir, Description: "create directory /w/App", Command: "mkdir '/w/App'"},
		{Index: 2, ID: model.StepIDCreateInnerDir, Description: "create directory /w/App/App", Command: "mkdir '/w/App/App'"},
		{Index: 3, ID: model.StepIDNewSolution, Description: "create solution /w/App/App/App.sln", Command: "dotnet new sln -n App -o '/w/App/App'"},
	}
}

func failedOutcomeFixture() model.RunOutcome {
	steps := stepsFixture()
	failedErr := &model.StepExecutionError{Step: steps[1], ExitCode: 1, Stderr: "mkdir: File exists\n"}
	return model.RunOutcome{
		RunID: "01HQXYZ1234567890ABCDEFGHJ",
		Name:  "App",
		Paths: model.ProjectPaths{OuterDir: "/w/App"},
		State: model.RunStateStepFailed,
		Steps: steps,
		Results: []model.StepResult{
			{Step: steps[0], ExitCode: 0, Succeeded: true, Duration: 15 * time.Millisecond},
			{Step: steps[1], ExitCode: 1, Stderr: "mkdir: File exists\n", Err: failedErr, Duration: 3 * time.Millisecond},
		},
		FailedStep: &steps[1],
	}
}

func runFixture() model.Run {
	createdAt := time.Date(2026, 1, 30, 10, 0, 0, 0, time.UTC)
	finishedAt := createdAt.Add(time.Minute)
	return model.Run{
		ID:              "01HQXYZ1234567890ABCDEFGHJ",
		Name:            "App",
		WorkingDir:      "/w",
		Runner:          model.RunnerLocal,
		State:           model.RunStateStepFailed,
		FailedStepIndex: 2,
		CreatedAt:       createdAt,
		FinishedAt:      &finishedAt,
		Steps: []model.StepRecord{
			{Index: 1, ID: model.StepIDCreateOuterDir, Command: "mkdir '/w/App'", Succeeded: true, Duration: 1500 * time.Millisecond},
			{Index: 2, ID: model.StepIDCreateInnerDir, Command: "mkdir '/w/App/App'", ExitCode: 1, Stderr: "boom", Error: "step failed"},
		},
	}
}

func TestTablePrinterPrintOutcome(t *testing.T) {
	tests := map[string]struct {
		outcome     model.RunOutcome
		expContains []string
		expMissing  []string
	}{
		"A failed run should show the skipped steps and the failed step output": {
			outcome: failedOutcomeFixture(),
			expContains: []string{
				"State:      step_failed",
				"Location:   /w/App",
				"1/3   ok",
				"2/3   failed",
				"3/3   skipped",
				"Step 2 failed:",
				"Command: mkdir '/w/App/App'",
				"stderr:\n  mkdir: File exists\n",
			},
			expMissing: []string{"stdout:"},
		},

		"A rejected run should only show the rejection": {
			outcome: model.RunOutcome{
				State:     model.RunStateRejected,
				RejectErr: &model.InvalidNameError{Name: "bad name!"},
			},
			expContains: []string{`Project name rejected: invalid project name "bad name!"`},
			expMissing:  []string{"STEP"},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)

			var buf bytes.Buffer
			p := printer.NewTablePrinter(&buf)

			err := p.PrintOutcome(test.outcome)
			require.NoError(t, err)

			out := buf.String()
			for _, s := range test.expContains {
				assert.Contains(out, s)
			}
			for _, s := range test.expMissing {
				assert.NotContains(out, s)
			}
		})
	}
}

func TestTablePrinterPrintOutcomeTruncatesOutput(t *testing.T) {
	o := failedOutcomeFixture()
	lines := make([]string, 30)
	for i := range lines {
		lines[i] = fmt.Sprintf("line %d", i+1)
	}
	o.Results[1].Stderr = strings.Join(lines, "\n")

	var buf bytes.Buffer
	err := printer.NewTablePrinter(&buf).PrintOutcome(o)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "stderr (last 20 of 30 lines):")
	assert.Contains(t, out, "  line 30\n")
	assert.Contains(t, out, "  line 11\n")
	assert.NotContains(t, out, "  line 10\n")
}

func TestTablePrinterPrintSteps(t *testing.T) {
	var buf bytes.Buffer
	err := printer.NewTablePrinter(&buf).PrintSteps(stepsFixture()[:2])
	require.NoError(t, err)

	exp := "[1/2] create directory /w/App\n  mkdir '/w/App'\n[2/2] create directory /w/App/App\n  mkdir '/w/App/App'\n"
	assert.Equal(t, exp, buf.String())
}

func TestTablePrinterPrintRun(t *testing.T) {
	var buf bytes.Buffer
	err := printer.NewTablePrinter(&buf).PrintRun(runFixture())
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "State:      step_failed (step 2)")
	assert.Contains(t, out, "Created:    2026-01-30 10:00:00 UTC")
	assert.Contains(t, out, "Finished:   2026-01-30 10:01:00 UTC")
	assert.Contains(t, out, "create_outer_dir")
	assert.Contains(t, out, "1.5s")
	assert.Contains(t, out, "4 B")
}

func TestTablePrinterPrintChecks(t *testing.T) {
	tests := map[string]struct {
		results []model.CheckResult
		exp     string
	}{
		"All passing checks should print the success summary": {
			results: []model.CheckResult{{ID: "toolchain", Status: model.CheckStatusOK, Message: "dotnet 8.0.100"}},
			exp:     "  OK toolchain            dotnet 8.0.100\n\nAll checks passed!\n",
		},

		"Failing checks should print the counts": {
			results: []model.CheckResult{
				{ID: "docker_daemon", Status: model.CheckStatusError, Message: "down"},
				{ID: "toolchain_sdks", Status: model.CheckStatusWarning, Message: "unknown"},
			},
			exp: "  XX docker_daemon        down\n  !! toolchain_sdks       unknown\n\n1 error(s), 1 warning(s)\n",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			err := printer.NewTablePrinter(&buf).PrintChecks(test.results)
			require.NoError(t, err)
			assert.Equal(t, test.exp, buf.String())
		})
	}
}

func TestTablePrinterPrintMessage(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewTablePrinter(&buf)

	err := p.PrintMessage("ok")
	require.NoError(t, err)
	assert.Equal(t, "ok", strings.TrimSpace(buf.String()))
}

func TestJSONPrinterPrintOutcome(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	var buf bytes.Buffer
	err := printer.NewJSONPrinter(&buf).PrintOutcome(failedOutcomeFixture())
	require.NoError(err)

	var got struct {
		RunID      string `json:"run_id"`
		State      string `json:"state"`
		Error      string `json:"error"`
		FailedStep int    `json:"failed_step"`
		Steps      []struct {
			Index    int    `json:"index"`
			Status   string `json:"status"`
			ExitCode *int   `json:"exit_code"`
			Stderr   string `json:"stderr"`
		} `json:"steps"`
	}
	require.NoError(json.Unmarshal(buf.Bytes(), &got))

	assert.Equal("step_failed", got.State)
	assert.Equal(2, got.FailedStep)
	assert.Contains(got.Error, "exited with code 1")
	require.Len(got.Steps, 3)
	assert.Equal("ok", got.Steps[0].Status)
	assert.Equal("failed", got.Steps[1].Status)
	assert.Equal("mkdir: File exists\n", got.Steps[1].Stderr)
	assert.Equal("skipped", got.Steps[2].Status)
	assert.Nil(got.Steps[2].ExitCode)
}

func TestJSONPrinterPrintOutcomeRejected(t *testing.T) {
	var buf bytes.Buffer
	err := printer.NewJSONPrinter(&buf).PrintOutcome(model.RunOutcome{
		Name:      "",
		State:     model.RunStateRejected,
		RejectErr: &model.InvalidNameError{Name: ""},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"state": "rejected"`)
	assert.Contains(t, out, `"steps": []`)
	assert.NotContains(t, out, `"paths"`)
}

func TestJSONPrinterPrintRunList(t *testing.T) {
	var buf bytes.Buffer
	err := printer.NewJSONPrinter(&buf).PrintRunList([]model.Run{runFixture()})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"id": "01HQXYZ1234567890ABCDEFGHJ"`)
	assert.Contains(t, out, `"failed_step": 2`)
	assert.Contains(t, out, `"created_at": "2026-01-30T10:00:00Z"`)
	assert.NotContains(t, out, `"steps"`)
}

func TestJSONPrinterPrintRun(t *testing.T) {
	var buf bytes.Buffer
	err := printer.NewJSONPrinter(&buf).PrintRun(runFixture())
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"finished_at": "2026-01-30T10:01:00Z"`)
	assert.Contains(t, out, `"duration_ms": 1500`)
	assert.Contains(t, out, `"status": "failed"`)
}
