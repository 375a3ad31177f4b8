// Package shell provides the shell dialects used to build and invoke command lines.
//
// A dialect knows how to quote arguments, how to invoke a command line through
// its interpreter and how to chain several command lines so they can be copied
// into a terminal.
package shell

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/slok/carps/internal/model"
)

const (
	// DialectPosix is the POSIX sh dialect.
	DialectPosix = "posix"
	// DialectCmd is the Windows cmd.exe dialect.
	DialectCmd = "cmd"
	// DialectPowerShell is the PowerShell dialect.
	DialectPowerShell = "powershell"
)

// Dialects are the names of all the supported dialects.
var Dialects = []string{DialectPosix, DialectCmd, DialectPowerShell}

// Dialect is a shell command line dialect.
type Dialect interface {
	// Name returns the dialect name.
	Name() string
	// Quote quotes a single argument so the interpreter reads it as a single word.
	Quote(arg string) string
	// Invocation returns the argv that runs the command line with the dialect interpreter.
	Invocation(commandLine string) []string
	// Chain joins command lines so each one only runs if the previous one succeeded.
	Chain(commandLines []string) string
	// CommandNotFound returns true when the interpreter exit code means the
	// command of the line could not be found.
	CommandNotFound(exitCode int) bool
}

// New returns the dialect with the received name.
func New(name string) (Dialect, error) {
	switch name {
	case DialectPosix:
		return Posix{}, nil
	case DialectCmd:
		return Cmd{}, nil
	case DialectPowerShell:
		return PowerShell{}, nil
	}

	return nil, fmt.Errorf("unknown shell dialect %q: %w", name, model.ErrNotValid)
}

// DefaultName returns the dialect name for the running OS.
func DefaultName() string {
	if runtime.GOOS == "windows" {
		return DialectCmd
	}
	return DialectPosix
}

// Posix is the POSIX sh dialect.
type Posix struct{}

func (Posix) Name() string { return DialectPosix }

// Quote wraps the argument in single quotes, escaping any embedded single quote.
func (Posix) Quote(arg string) string {
	if arg == "" {
		return "''"
	}
	return "'" + strings.ReplaceAll(arg, "'", `'"'"'`) + "'"
}

func (Posix) Invocation(commandLine string) []string {
	return []string{"sh", "-c", commandLine}
}

func (Posix) Chain(commandLines []string) string {
	return strings.Join(commandLines, " && \\\n")
}

func (Posix) CommandNotFound(exitCode int) bool { return exitCode == 127 }

// Cmd is the Windows cmd.exe dialect.
type Cmd struct{}

func (Cmd) Name() string { return DialectCmd }

// Quote wraps the argument in double quotes. Double quotes can't be part of a
// Windows path so they are dropped.
func (Cmd) Quote(arg string) string {
	return `"` + strings.ReplaceAll(arg, `"`, "") + `"`
}

func (Cmd) Invocation(commandLine string) []string {
	return []string{"cmd", "/C", commandLine}
}

func (Cmd) Chain(commandLines []string) string {
	return strings.Join(commandLines, " && ^\n")
}

func (Cmd) CommandNotFound(exitCode int) bool { return exitCode == 9009 }

// PowerShell is the PowerShell dialect.
type PowerShell struct{}

func (PowerShell) Name() string { return DialectPowerShell }

// Quote wraps the argument in single quotes, doubling any embedded single quote.
func (PowerShell) Quote(arg string) string {
	return "'" + strings.ReplaceAll(arg, "'", "''") + "'"
}

func (PowerShell) Invocation(commandLine string) []string {
	return []string{"powershell", "-NoProfile", "-NonInteractive", "-Command", commandLine}
}

// Chain uses pipeline chain operators, they require PowerShell 7 or newer.
func (PowerShell) Chain(commandLines []string) string {
	return strings.Join(commandLines, " && `\n")
}

// CommandNotFound is always false, PowerShell exits with 1 on any error so a
// missing command can't be told apart from a failed one.
func (PowerShell) CommandNotFound(exitCode int) bool { return false }
