package printer

import (
	"encoding/json"
	"io"
	"time"

	"github.com/slok/carps/internal/model"
)

// JSONPrinter prints scaffolding information in JSON format.
type JSONPrinter struct {
	writer io.Writer
}

// NewJSONPrinter creates a new JSON printer.
func NewJSONPrinter(w io.Writer) *JSONPrinter {
	return &JSONPrinter{writer: w}
}

// outcomeOutput represents the result of a scaffolding run.
type outcomeOutput struct {
	RunID      string             `json:"run_id,omitempty"`
	Name       string             `json:"name"`
	State      string             `json:"state"`
	Error      string             `json:"error,omitempty"`
	Paths      *pathsOutput       `json:"paths,omitempty"`
	Steps      []stepResultOutput `json:"steps"`
	FailedStep int                `json:"failed_step,omitempty"`
}

type pathsOutput struct {
	OuterDir     string `json:"outer_dir"`
	InnerDir     string `json:"inner_dir"`
	SolutionFile string `json:"solution_file"`
	ProjectDir   string `json:"project_dir"`
	ProjectFile  string `json:"project_file"`
}

// stepResultOutput is used for both executed and stored steps.
type stepResultOutput struct {
	Index       int        `json:"index"`
	ID          string     `json:"id"`
	Description string     `json:"description,omitempty"`
	Command     string     `json:"command"`
	Status      string     `json:"status"`
	ExitCode    *int       `json:"exit_code,omitempty"`
	DurationMS  *int64     `json:"duration_ms,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	Stdout      string     `json:"stdout,omitempty"`
	Stderr      string     `json:"stderr,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// runListItem represents a run in the list output (subset of fields).
type runListItem struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	State           string    `json:"state"`
	FailedStepIndex int       `json:"failed_step,omitempty"`
	Runner          string    `json:"runner"`
	CreatedAt       time.Time `json:"created_at"`
}

// runOutput represents the full stored run output.
type runOutput struct {
	ID              string             `json:"id"`
	Name            string             `json:"name"`
	State           string             `json:"state"`
	FailedStepIndex int                `json:"failed_step,omitempty"`
	Runner          string             `json:"runner"`
	WorkingDir      string             `json:"working_dir"`
	CreatedAt       time.Time          `json:"created_at"`
	FinishedAt      *time.Time         `json:"finished_at"`
	Steps           []stepResultOutput `json:"steps"`
}

type checkOutput struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// messageOutput represents a simple message output.
type messageOutput struct {
	Message string `json:"message"`
}

// PrintOutcome prints the run outcome in JSON format, including the skipped steps.
func (j *JSONPrinter) PrintOutcome(o model.RunOutcome) error {
	output := outcomeOutput{
		RunID: o.RunID,
		Name:  o.Name.String(),
		State: string(o.State),
		Steps: []stepResultOutput{},
	}
	if err := o.Err(); err != nil {
		output.Error = err.Error()
	}
	if o.FailedStep != nil {
		output.FailedStep = o.FailedStep.Index
	}

	if o.State == model.RunStateRejected {
		return j.encode(output)
	}

	output.Paths = &pathsOutput{
		OuterDir:     o.Paths.OuterDir,
		InnerDir:     o.Paths.InnerDir,
		SolutionFile: o.Paths.SolutionFile,
		ProjectDir:   o.Paths.ProjectDir,
		ProjectFile:  o.Paths.ProjectFile,
	}

	statuses := stepStatuses(o)
	for i, s := range o.Steps {
		so := stepResultOutput{
			Index:       s.Index,
			ID:          string(s.ID),
			Description: s.Description,
			Command:     s.Command,
			Status:      statuses[i],
		}
		if i < len(o.Results) {
			r := o.Results[i]
			exitCode := r.ExitCode
			durationMS := r.Duration.Milliseconds()
			startedAt := r.StartedAt.UTC()
			so.ExitCode = &exitCode
			so.DurationMS = &durationMS
			so.StartedAt = &startedAt
			so.Stdout = r.Stdout
			so.Stderr = r.Stderr
			if r.Err != nil {
				so.Error = r.Err.Error()
			}
		}
		output.Steps = append(output.Steps, so)
	}

	return j.encode(output)
}

// PrintSteps prints the steps that would be executed in JSON format.
func (j *JSONPrinter) PrintSteps(steps []model.CommandStep) error {
	items := make([]stepResultOutput, len(steps))
	for i, s := range steps {
		items[i] = stepResultOutput{
			Index:       s.Index,
			ID:          string(s.ID),
			Description: s.Description,
			Command:     s.Command,
			Status:      "planned",
		}
	}

	return j.encode(items)
}

// PrintRunList prints runs in JSON format with a subset of fields.
func (j *JSONPrinter) PrintRunList(runs []model.Run) error {
	items := make([]runListItem, len(runs))
	for i, r := range runs {
		items[i] = runListItem{
			ID:              r.ID,
			Name:            r.Name.String(),
			State:           string(r.State),
			FailedStepIndex: r.FailedStepIndex,
			Runner:          r.Runner,
			CreatedAt:       r.CreatedAt.UTC(),
		}
	}

	return j.encode(items)
}

// PrintRun prints a stored run with its steps in JSON format.
func (j *JSONPrinter) PrintRun(r model.Run) error {
	output := runOutput{
		ID:              r.ID,
		Name:            r.Name.String(),
		State:           string(r.State),
		FailedStepIndex: r.FailedStepIndex,
		Runner:          r.Runner,
		WorkingDir:      r.WorkingDir,
		CreatedAt:       r.CreatedAt.UTC(),
		Steps:           make([]stepResultOutput, 0, len(r.Steps)),
	}

	if r.FinishedAt != nil {
		utcTime := r.FinishedAt.UTC()
		output.FinishedAt = &utcTime
	}

	for _, s := range r.Steps {
		exitCode := s.ExitCode
		durationMS := s.Duration.Milliseconds()
		startedAt := s.StartedAt.UTC()
		output.Steps = append(output.Steps, stepResultOutput{
			Index:      s.Index,
			ID:         string(s.ID),
			Command:    s.Command,
			Status:     recordStatus(s),
			ExitCode:   &exitCode,
			DurationMS: &durationMS,
			StartedAt:  &startedAt,
			Stdout:     s.Stdout,
			Stderr:     s.Stderr,
			Error:      s.Error,
		})
	}

	return j.encode(output)
}

// PrintChecks prints preflight check results in JSON format.
func (j *JSONPrinter) PrintChecks(results []model.CheckResult) error {
	items := make([]checkOutput, len(results))
	for i, r := range results {
		items[i] = checkOutput{
			ID:      r.ID,
			Status:  string(r.Status),
			Message: r.Message,
		}
	}

	return j.encode(items)
}

// PrintMessage prints a simple message in JSON format.
func (j *JSONPrinter) PrintMessage(msg string) error {
	return j.encode(messageOutput{Message: msg})
}

func (j *JSONPrinter) encode(v any) error {
	enc := json.NewEncoder(j.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
