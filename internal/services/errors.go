package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrProbe         = errors.New("probe failure")
	ErrWorkspace     = errors.New("workspace failure")
	ErrExtraction    = errors.New("extraction failure")
	ErrUpscale       = errors.New("upscale failure")
	ErrAssembly      = errors.New("assembly failure")
	ErrEnvironment   = errors.New("environment failure")
	ErrConfiguration = errors.New("configuration error")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrEnvironment
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// ToolFailure reports a non-zero exit from an external tool together with the
// tool's combined stdout/stderr.
type ToolFailure struct {
	Tool     string
	ExitCode int
	Output   string
	// Command is the rendered invocation, logged for reproduction.
	Command string
}

func (e *ToolFailure) Error() string {
	output := strings.TrimSpace(e.Output)
	if output == "" {
		return fmt.Sprintf("%s exited with status %d (no output)", e.Tool, e.ExitCode)
	}
	return fmt.Sprintf("%s exited with status %d:\n%s", e.Tool, e.ExitCode, output)
}

// Classify returns the taxonomy marker carried by err, or nil when err does
// not belong to the pipeline taxonomy.
func Classify(err error) error {
	for _, marker := range []error{ErrProbe, ErrWorkspace, ErrExtraction, ErrUpscale, ErrAssembly, ErrEnvironment, ErrConfiguration} {
		if errors.Is(err, marker) {
			return marker
		}
	}
	return nil
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
