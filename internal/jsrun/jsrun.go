// SPDX-License-Identifier: MPL-2.0

// Package jsrun executes an emitted bundle inside an embedded goja runtime.
package jsrun

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dop251/goja"
	"github.com/dop251/goja/parser"
)

var (
	// ErrCompile is returned when the bundle does not parse.
	ErrCompile = errors.New("compile bundle")
	// ErrScript is returned when the bundle throws.
	ErrScript = errors.New("bundle threw")
	// ErrInterrupted is returned when the context ends before the bundle finishes.
	ErrInterrupted = errors.New("bundle interrupted")
)

type (
	// Runner executes bundles. Each Run uses a fresh runtime.
	Runner struct {
		stdout io.Writer
		stderr io.Writer
	}

	// Option configures a Runner.
	Option func(*Runner)

	// ScriptError carries the JavaScript exception of a failed run.
	// It wraps ErrScript for errors.Is().
	ScriptError struct {
		Message string
		Stack   string
	}
)

// Error implements the error interface.
func (e *ScriptError) Error() string { return "uncaught " + e.Message }

// Unwrap returns ErrScript.
func (e *ScriptError) Unwrap() error { return ErrScript }

// WithStdout sets where console.log and console.info write.
func WithStdout(w io.Writer) Option { return func(r *Runner) { r.stdout = w } }

// WithStderr sets where console.error and console.warn write.
func WithStderr(w io.Writer) Option { return func(r *Runner) { r.stderr = w } }

// New creates a Runner. Console output is discarded unless redirected.
func New(opts ...Option) *Runner {
	r := &Runner{stdout: io.Discard, stderr: io.Discard}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run evaluates code and returns the exported completion value, which for a bundle is
// the entry module's exports.
func (r *Runner) Run(ctx context.Context, filename, code string) (any, error) {
	ast, err := parser.ParseFile(nil, filename, code, 0)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrCompile, filename, err)
	}
	prog, err := goja.CompileAST(ast, false)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrCompile, filename, err)
	}

	vm := goja.New()
	if err := r.registerConsole(vm); err != nil {
		return nil, err
	}

	stop := context.AfterFunc(ctx, func() { vm.Interrupt(ctx.Err()) })
	defer stop()

	value, err := vm.RunProgram(prog)
	if err != nil {
		var exc *goja.Exception
		var interrupted *goja.InterruptedError
		switch {
		case errors.As(err, &interrupted):
			return nil, fmt.Errorf("%w: %v", ErrInterrupted, interrupted.Value())
		case errors.As(err, &exc):
			return nil, &ScriptError{Message: exc.Value().String(), Stack: exc.String()}
		default:
			return nil, err
		}
	}
	if value == nil {
		return nil, nil
	}
	return value.Export(), nil
}

func (r *Runner) registerConsole(vm *goja.Runtime) error {
	console := vm.NewObject()
	printer := func(w io.Writer) func(goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			parts := make([]string, len(call.Arguments))
			for i, arg := range call.Arguments {
				parts[i] = arg.String()
			}
			fmt.Fprintln(w, strings.Join(parts, " "))
			return goja.Undefined()
		}
	}
	for name, w := range map[string]io.Writer{
		"log": r.stdout, "info": r.stdout, "error": r.stderr, "warn": r.stderr,
	} {
		if err := console.Set(name, printer(w)); err != nil {
			return err
		}
	}
	return vm.Set("console", console)
}
