package model

// CheckStatus is the status of a doctor check.
type CheckStatus string

const (
	CheckStatusOK      CheckStatus = "ok"
	CheckStatusWarning CheckStatus = "warning"
	CheckStatusError   CheckStatus = "error"
)

// CheckResult is the result of a single readiness check of the toolchain, the
// runner or the history database.
type CheckResult struct {
	// ID identifies the checked component (e.g. "toolchain", "docker_daemon").
	ID      string
	Status  CheckStatus
	Message string
}

// CheckSummary counts check results by status.
type CheckSummary struct {
	OK       int
	Warnings int
	Errors   int
}

// Passed returns true when no check failed or warned.
func (s CheckSummary) Passed() bool { return s.Errors == 0 && s.Warnings == 0 }

// SummarizeChecks counts the results by status.
func SummarizeChecks(results []CheckResult) CheckSummary {
	var s CheckSummary
	for _, r := range results {
		switch r.Status {
		case CheckStatusOK:
			s.OK++
		case CheckStatusWarning:
			s.Warnings++
		case CheckStatusError:
			s.Errors++
		}
	}
	return s
}

// HasErrors returns true if any of the results is an error.
func HasErrors(results []CheckResult) bool {
	return SummarizeChecks(results).Errors > 0
}
