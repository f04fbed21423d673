// SPDX-License-Identifier: MPL-2.0

package cmd

import "fmt"

// ExitCode is the process exit status reported by the CLI.
type ExitCode int

const (
	// ExitBuildFailed is returned when a build or bundle run fails.
	ExitBuildFailed ExitCode = 1
	// ExitConfigInvalid is returned when configuration cannot be loaded or validated.
	ExitConfigInvalid ExitCode = 2
	// ExitScriptFailed is returned when a bundle builds but throws at run time.
	ExitScriptFailed ExitCode = 3
)

// ExitError signals a non-zero exit code without forcing os.Exit in RunE handlers.
type ExitError struct {
	Code ExitCode
	Err  error
}

// Error returns the error message for ExitError.
func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

// Unwrap returns the underlying error, if any.
func (e *ExitError) Unwrap() error {
	return e.Err
}
