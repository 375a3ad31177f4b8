// Package lib provides a Go SDK to scaffold .NET projects programmatically.
//
// It runs the same scaffolding sequence as the carps CLI without shelling out
// to the binary: validate the project name, derive the seven toolchain steps
// and run them in order, stopping at the first failed step.
//
// # Quick Start
//
//	client, err := lib.New(ctx, lib.Config{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	outcome, err := client.Scaffold(ctx, lib.ScaffoldOpts{Name: "MyApp"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := outcome.Err(); err != nil {
//	    fmt.Printf("step %d failed: %s\n", outcome.FailedStep.Index, err)
//	}
//
// A rejected name or a failed step is not returned as the error of
// [Client.Scaffold], it's part of the [Outcome]. The error is only used when
// the run could not be attempted (e.g. the working directory is missing).
//
// # Runners
//
//   - [RunnerLocal]: runs the toolchain installed on the host through the
//     configured shell.
//   - [RunnerDocker]: runs each step in a throwaway container of a .NET SDK
//     image with the working directory bind mounted, no toolchain is needed on
//     the host.
//   - [RunnerFake]: runs nothing, all the steps succeed unless a failure is
//     scripted with [Config].FakeFailures. Use it for tests.
//
// # Planning and instruction files
//
// [Client.Plan] returns the steps without running them and
// [Client.WriteScript] writes them to a text file ready to paste into a
// terminal.
//
// # History
//
// Every run is stored in a SQLite database (~/.carps/carps.db by default) and
// can be retrieved with [Client.ListRuns] and [Client.GetRun]. Set
// [Config].DisableHistory to skip it. Storing the history never changes the
// outcome of a run.
//
// # Error Handling
//
// Errors can be inspected with [errors.Is]:
//
//   - [ErrNotFound]: the run does not exist.
//   - [ErrNotValid]: invalid input (e.g. a project name with spaces).
//   - [ErrStepFailed]: a scaffolding step failed, see [Outcome.Err].
package lib
