package toolexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Result is the outcome of one tool invocation. A non-zero ExitCode
// invalidates anything the tool may have written.
type Result struct {
	ExitCode int
	Output   string
}

// Success reports whether the tool exited with status 0.
func (r Result) Success() bool {
	return r.ExitCode == 0
}

// FirstLine returns the first non-empty line of the combined output.
func (r Result) FirstLine() string {
	for _, line := range strings.Split(r.Output, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

// Executor abstracts command execution for testability.
//
// Run blocks until the tool exits and returns its exit status and combined
// output. The error is non-nil only when the tool could not be run at all
// (missing binary, permission denied, cancelled context); a tool that runs and
// exits non-zero is reported through Result.ExitCode.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) (Result, error)
}

// CommandExecutor runs tools with os/exec.
type CommandExecutor struct {
	// Dir, when set, is the working directory for every invocation.
	Dir string
}

// NewExecutor returns the default os/exec backed executor.
func NewExecutor() Executor {
	return CommandExecutor{}
}

// Run implements Executor.
func (e CommandExecutor) Run(ctx context.Context, binary string, args []string) (Result, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return Result{}, errors.New("toolexec: empty binary")
	}

	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	cmd.Dir = e.Dir
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	err := cmd.Run()
	result := Result{Output: output.String()}
	if err == nil {
		return result, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return result, fmt.Errorf("run %s: %w", binary, ctxErr)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		if result.ExitCode < 0 {
			// killed by a signal
			result.ExitCode = 1
		}
		return result, nil
	}
	return result, fmt.Errorf("run %s: %w", binary, err)
}

// CommandLine renders binary and args for diagnostics. It is never executed.
func CommandLine(binary string, args []string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, quoteArg(binary))
	for _, arg := range args {
		parts = append(parts, quoteArg(arg))
	}
	return strings.Join(parts, " ")
}

func quoteArg(arg string) string {
	if arg == "" {
		return "''"
	}
	if !strings.ContainsAny(arg, " \t\n'\"\\$`*?()[]{};&|<>") {
		return arg
	}
	return "'" + strings.ReplaceAll(arg, "'", `'"'"'`) + "'"
}
