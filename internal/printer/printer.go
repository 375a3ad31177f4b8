package printer

import "github.com/slok/carps/internal/model"

// Printer knows how to print scaffolding information in different formats.
type Printer interface {
	// PrintOutcome prints the result of a scaffolding run.
	PrintOutcome(outcome model.RunOutcome) error
	// PrintSteps prints the steps of a run without executing them.
	PrintSteps(steps []model.CommandStep) error
	PrintRunList(runs []model.Run) error
	PrintRun(run model.Run) error
	PrintChecks(results []model.CheckResult) error
	PrintMessage(msg string) error
}

const (
	stepStatusOK      = "ok"
	stepStatusFailed  = "failed"
	stepStatusSkipped = "skipped"
)

// outputTailLines is the number of lines of a failed step output that are printed.
const outputTailLines = 20

// stepStatuses returns the status of every step of the outcome, steps without
// result were never executed.
func stepStatuses(o model.RunOutcome) []string {
	statuses := make([]string, len(o.Steps))
	for i := range statuses {
		statuses[i] = stepStatusSkipped
	}
	for _, r := range o.Results {
		i := r.Step.Index - 1
		if i < 0 || i >= len(statuses) {
			continue
		}
		if r.Succeeded {
			statuses[i] = stepStatusOK
		} else {
			statuses[i] = stepStatusFailed
		}
	}
	return statuses
}

func recordStatus(s model.StepRecord) string {
	if s.Succeeded {
		return stepStatusOK
	}
	return stepStatusFailed
}
