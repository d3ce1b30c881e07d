package models

import (
	"errors"
	"fmt"
)

// ErrTimeout indicates the wall-clock budget for a search was exceeded.
// The process has been terminated; the caller should narrow the search scope
// or raise the timeout.
var ErrTimeout = errors.New("search timed out: narrow the search scope or raise the timeout")

// ValidationError reports invalid search parameters. It is raised before the
// process layer is ever touched.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ProcessSpawnError reports that the external search binary could not be started.
type ProcessSpawnError struct {
	Binary string
	Err    error
}

func (e *ProcessSpawnError) Error() string {
	return fmt.Sprintf("failed to start %s: %v", e.Binary, e.Err)
}

func (e *ProcessSpawnError) Unwrap() error { return e.Err }

// ToolReportedError reports a fatal error surfaced by the external tool itself,
// either through exit code 2 with non-benign stderr or an unexpected exit code.
type ToolReportedError struct {
	ExitCode int
	Stderr   string
}

func (e *ToolReportedError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("search tool failed (exit %d): %s", e.ExitCode, e.Stderr)
	}
	return fmt.Sprintf("search tool failed (exit %d)", e.ExitCode)
}
