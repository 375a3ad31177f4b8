package printer

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/slok/carps/internal/model"
)

// TablePrinter prints scaffolding information in a table format.
type TablePrinter struct {
	writer io.Writer
}

// NewTablePrinter creates a new table printer.
func NewTablePrinter(w io.Writer) *TablePrinter {
	return &TablePrinter{writer: w}
}

// PrintOutcome prints the run summary, the steps table and the output of the
// failed step if any.
func (t *TablePrinter) PrintOutcome(o model.RunOutcome) error {
	if o.State == model.RunStateRejected {
		fmt.Fprintf(t.writer, "Project name rejected: %s\n", o.RejectErr)
		return nil
	}

	fmt.Fprintf(t.writer, "Project:    %s\n", o.Name)
	fmt.Fprintf(t.writer, "Run:        %s\n", o.RunID)
	fmt.Fprintf(t.writer, "State:      %s\n", o.State)
	fmt.Fprintf(t.writer, "Location:   %s\n", o.Paths.OuterDir)
	fmt.Fprintln(t.writer)

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STEP\tSTATUS\tEXIT\tDURATION\tDESCRIPTION")
	statuses := stepStatuses(o)
	for i, s := range o.Steps {
		exit, duration := "-", "-"
		if i < len(o.Results) {
			exit = fmt.Sprintf("%d", o.Results[i].ExitCode)
			duration = FormatDuration(o.Results[i].Duration)
		}
		fmt.Fprintf(tw, "%d/%d\t%s\t%s\t%s\t%s\n", s.Index, len(o.Steps), statuses[i], exit, duration, s.Description)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if o.FailedStep != nil && len(o.Results) > 0 {
		failed := o.Results[len(o.Results)-1]
		fmt.Fprintln(t.writer)
		fmt.Fprintf(t.writer, "Step %d failed: %s\n", o.FailedStep.Index, failed.Err)
		fmt.Fprintf(t.writer, "Command: %s\n", o.FailedStep.Command)
		printOutput(t.writer, "stdout", failed.Stdout)
		printOutput(t.writer, "stderr", failed.Stderr)
	}

	return nil
}

// PrintSteps prints the steps that would be executed.
func (t *TablePrinter) PrintSteps(steps []model.CommandStep) error {
	for _, s := range steps {
		fmt.Fprintf(t.writer, "[%d/%d] %s\n", s.Index, len(steps), s.Description)
		fmt.Fprintf(t.writer, "  %s\n", s.Command)
	}
	return nil
}

// PrintRunList prints runs in a table format.
func (t *TablePrinter) PrintRunList(runs []model.Run) error {
	if len(runs) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	// Print header
	fmt.Fprintln(tw, "ID\tPROJECT\tSTATE\tRUNNER\tCREATED")

	// Print rows
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.Name, runState(r), r.Runner, TimeAgo(r.CreatedAt))
	}

	return nil
}

// PrintRun prints the detail of a stored run.
func (t *TablePrinter) PrintRun(r model.Run) error {
	fmt.Fprintf(t.writer, "ID:         %s\n", r.ID)
	fmt.Fprintf(t.writer, "Project:    %s\n", r.Name)
	fmt.Fprintf(t.writer, "State:      %s\n", runState(r))
	fmt.Fprintf(t.writer, "Runner:     %s\n", r.Runner)
	fmt.Fprintf(t.writer, "Directory:  %s\n", r.WorkingDir)
	fmt.Fprintf(t.writer, "Created:    %s\n", FormatTimestamp(r.CreatedAt))
	if r.FinishedAt != nil {
		fmt.Fprintf(t.writer, "Finished:   %s\n", FormatTimestamp(*r.FinishedAt))
	}

	if len(r.Steps) == 0 {
		return nil
	}

	fmt.Fprintln(t.writer)
	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "STEP\tID\tSTATUS\tEXIT\tDURATION\tOUTPUT\tCOMMAND")
	for _, s := range r.Steps {
		output := FormatBytes(int64(len(s.Stdout) + len(s.Stderr)))
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\t%s\t%s\n", s.Index, s.ID, recordStatus(s), s.ExitCode, FormatDuration(s.Duration), output, s.Command)
	}

	return nil
}

// PrintChecks prints preflight check results and a summary.
func (t *TablePrinter) PrintChecks(results []model.CheckResult) error {
	for _, r := range results {
		fmt.Fprintf(t.writer, "  %s %-20s %s\n", statusIcon(r.Status), r.ID, r.Message)
	}

	fmt.Fprintln(t.writer)
	summary := model.SummarizeChecks(results)
	if summary.Passed() {
		fmt.Fprintln(t.writer, "All checks passed!")
		return nil
	}

	var parts []string
	if summary.Errors > 0 {
		parts = append(parts, fmt.Sprintf("%d error(s)", summary.Errors))
	}
	if summary.Warnings > 0 {
		parts = append(parts, fmt.Sprintf("%d warning(s)", summary.Warnings))
	}
	fmt.Fprintln(t.writer, strings.Join(parts, ", "))

	return nil
}

// PrintMessage prints a simple message.
func (t *TablePrinter) PrintMessage(msg string) error {
	_, err := fmt.Fprintln(t.writer, msg)
	return err
}

func runState(r model.Run) string {
	if r.State == model.RunStateStepFailed && r.FailedStepIndex > 0 {
		return fmt.Sprintf("%s (step %d)", r.State, r.FailedStepIndex)
	}
	return string(r.State)
}

func statusIcon(status model.CheckStatus) string {
	switch status {
	case model.CheckStatusOK:
		return "OK"
	case model.CheckStatusWarning:
		return "!!"
	case model.CheckStatusError:
		return "XX"
	default:
		return "??"
	}
}

// printOutput prints the last lines of a step output stream, indented.
func printOutput(w io.Writer, stream, out string) {
	out = strings.TrimRight(out, "\n")
	if out == "" {
		return
	}

	lines := strings.Split(out, "\n")
	if len(lines) > outputTailLines {
		fmt.Fprintf(w, "%s (last %d of %d lines):\n", stream, outputTailLines, len(lines))
		lines = lines[len(lines)-outputTailLines:]
	} else {
		fmt.Fprintf(w, "%s:\n", stream)
	}
	for _, l := range lines {
		fmt.Fprintf(w, "  %s\n", l)
	}
}
