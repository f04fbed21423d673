// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"testing"

	"github.com/minipack/minipack/internal/bundler"
	"github.com/minipack/minipack/internal/issue"
	"github.com/minipack/minipack/internal/jsrun"
	"github.com/minipack/minipack/pkg/modpath"
)

func buildErr(phase bundler.Phase, module modpath.ModulePath, kind, cause error) error {
	return &bundler.BuildError{Phase: phase, Module: module, Kind: kind, Err: cause}
}

func TestClassifyBuildError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want issue.Id
	}{
		{"loader resolution", buildErr(bundler.PhaseSetup, "", bundler.ErrLoaderResolution, errors.New("nope")), issue.LoaderNotFoundId},
		{"loader execution", buildErr(bundler.PhaseLoad, "./a.json", bundler.ErrLoaderExecution, errors.New("bad json")), issue.LoaderFailedId},
		{"syntax", buildErr(bundler.PhaseParse, "./a.js", bundler.ErrSyntax, errors.New("unexpected token")), issue.SyntaxErrorId},
		{"dynamic require", buildErr(bundler.PhaseParse, "./a.js", bundler.ErrUnsupportedDependency, errors.New("x")), issue.UnsupportedRequireId},
		{"outside root", buildErr(bundler.PhaseResolve, "./a.js", bundler.ErrPathResolution, errors.New("x")), issue.PathOutsideRootId},
		{"plugin", buildErr(bundler.PhaseSetup, "", bundler.ErrPluginResolution, errors.New("x")), issue.PluginNotFoundId},
		{"template", buildErr(bundler.PhaseEmit, "", bundler.ErrTemplate, errors.New("x")), issue.TemplateErrorId},
		{"missing output dir", buildErr(bundler.PhaseEmit, "", bundler.ErrIO, fmt.Errorf("output directory: %w", fs.ErrNotExist)), issue.OutputDirMissingId},
		{"unreadable module", buildErr(bundler.PhaseLoad, "./a.js", bundler.ErrIO, fs.ErrNotExist), issue.ModuleReadFailedId},
		{"permission", buildErr(bundler.PhaseEmit, "", bundler.ErrIO, fs.ErrPermission), issue.PermissionDeniedId},
		{"script", &jsrun.ScriptError{Message: "Error: boom"}, issue.BundleExecutionFailedId},
		{"tagged actionable error", issue.NewErrorContext().WithOperation("load configuration").WithIssue(issue.ConfigInvalidId).Build(), issue.ConfigInvalidId},
		{"unknown", errors.New("something else"), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, msg := classifyBuildError(tt.err, false)
			if got != tt.want {
				t.Errorf("classifyBuildError() id = %d, want %d", got, tt.want)
			}
			if !strings.Contains(msg, "Error:") || !strings.Contains(msg, tt.err.Error()) {
				t.Errorf("styled message %q should carry the error text", msg)
			}
		})
	}
}

func TestClassifyEntryError(t *testing.T) {
	t.Parallel()

	missing := buildErr(bundler.PhaseLoad, "./src/index.js", bundler.ErrIO, fs.ErrNotExist)

	if id, _ := classifyEntryError(missing, "./src/index.js", false); id != issue.EntryNotFoundId {
		t.Errorf("entry read failure id = %d, want %d", id, issue.EntryNotFoundId)
	}
	if id, _ := classifyEntryError(missing, "./src/main.js", false); id != issue.ModuleReadFailedId {
		t.Errorf("dependency read failure id = %d, want %d", id, issue.ModuleReadFailedId)
	}
	if id, _ := classifyEntryError(missing, "", false); id != issue.ModuleReadFailedId {
		t.Errorf("unknown entry id = %d, want %d", id, issue.ModuleReadFailedId)
	}
}

func TestScriptFailure_VerboseAddsStack(t *testing.T) {
	t.Parallel()

	thrown := &jsrun.ScriptError{Message: "Error: boom", Stack: "Error: boom\n\tat bundle.js:1:7(3)"}

	var exitErr *ExitError
	if !errors.As(scriptFailure(thrown, true), &exitErr) {
		t.Fatal("scriptFailure should return an ExitError")
	}
	if exitErr.Code != ExitScriptFailed {
		t.Errorf("Code = %d, want %d", exitErr.Code, ExitScriptFailed)
	}

	var svcErr *ServiceError
	if !errors.As(exitErr, &svcErr) {
		t.Fatal("ExitError should wrap a ServiceError")
	}
	if !strings.Contains(svcErr.StyledMessage, "bundle.js:1:7") {
		t.Errorf("verbose message should include the stack, got %q", svcErr.StyledMessage)
	}
	if !errors.Is(exitErr, jsrun.ErrScript) {
		t.Error("errors.Is should reach jsrun.ErrScript")
	}
}
