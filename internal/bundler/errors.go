// SPDX-License-Identifier: MPL-2.0

package bundler

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/minipack/minipack/internal/hooks"
	"github.com/minipack/minipack/internal/loader"
	"github.com/minipack/minipack/internal/rewrite"
	"github.com/minipack/minipack/pkg/modpath"
)

// Build phases reported by BuildError.
const (
	PhaseSetup   Phase = "setup"
	PhaseLoad    Phase = "load"
	PhaseParse   Phase = "parse"
	PhaseResolve Phase = "resolve"
	PhaseEmit    Phase = "emit"
)

// Error kinds. Every BuildError wraps exactly one of these.
var (
	// ErrIO is returned when a source file cannot be read or the artifact cannot be written.
	ErrIO = errors.New("i/o error")
	// ErrLoaderResolution is returned when a loader rule names an unknown transform.
	ErrLoaderResolution = errors.New("loader resolution failed")
	// ErrLoaderExecution is returned when a transform fails on a file.
	ErrLoaderExecution = errors.New("loader execution failed")
	// ErrSyntax is returned when transformed source does not parse.
	ErrSyntax = errors.New("syntax error")
	// ErrUnsupportedDependency is returned for a require() that is not a single string literal.
	ErrUnsupportedDependency = errors.New("unsupported dependency")
	// ErrPathResolution is returned when a module path escapes the project root.
	ErrPathResolution = errors.New("path resolution failed")
	// ErrPluginResolution is returned when a configured plugin id is unknown.
	ErrPluginResolution = errors.New("plugin resolution failed")
	// ErrTemplate is returned when the runtime template cannot be parsed or executed.
	ErrTemplate = errors.New("runtime template error")
	// ErrAlreadyRun is returned when a Compiler is run twice.
	ErrAlreadyRun = errors.New("compiler already run")
)

var kinds = []error{
	ErrIO, ErrLoaderResolution, ErrLoaderExecution, ErrSyntax,
	ErrUnsupportedDependency, ErrPathResolution, ErrPluginResolution, ErrTemplate,
}

type (
	// Phase names the build step an error occurred in.
	Phase string

	// BuildError reports a failed build step. errors.Is matches both Kind and the
	// underlying cause.
	BuildError struct {
		Phase Phase
		// Module is the module being built, when known.
		Module modpath.ModulePath
		// File is the filesystem path involved, when known.
		File string
		Kind error
		Err  error
	}
)

// Error implements the error interface.
func (e *BuildError) Error() string {
	subject := e.File
	if e.Module != "" {
		subject = string(e.Module)
	}
	if subject == "" {
		return fmt.Sprintf("%s: %v: %v", e.Phase, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s %s: %v: %v", e.Phase, subject, e.Kind, e.Err)
}

// Unwrap exposes the error kind and the cause.
func (e *BuildError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// KindOf returns the error kind carried by err, or nil when err is not a build failure.
func KindOf(err error) error {
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// classify maps an error from a collaborating package onto the error kinds.
func classify(err error) error {
	switch {
	case errors.Is(err, loader.ErrUnknownTransform), errors.Is(err, loader.ErrInvalidRule):
		return ErrLoaderResolution
	case errors.Is(err, loader.ErrTransformFailed):
		return ErrLoaderExecution
	case errors.Is(err, loader.ErrRead), errors.Is(err, fs.ErrNotExist), errors.Is(err, fs.ErrPermission):
		return ErrIO
	case errors.Is(err, rewrite.ErrSyntax):
		return ErrSyntax
	case errors.Is(err, rewrite.ErrUnsupportedDependency):
		return ErrUnsupportedDependency
	case errors.Is(err, modpath.ErrOutsideRoot), errors.Is(err, modpath.ErrInvalidModulePath):
		return ErrPathResolution
	case errors.Is(err, hooks.ErrUnknownPlugin):
		return ErrPluginResolution
	default:
		return ErrIO
	}
}

// newBuildError wraps err with its phase and classified kind.
func newBuildError(phase Phase, module modpath.ModulePath, file string, err error) *BuildError {
	return &BuildError{Phase: phase, Module: module, File: file, Kind: classify(err), Err: err}
}
