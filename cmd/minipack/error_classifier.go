// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/minipack/minipack/internal/bundler"
	"github.com/minipack/minipack/internal/issue"
	"github.com/minipack/minipack/internal/jsrun"
)

// classifyBuildError maps configuration, build and bundle failures to issue catalog
// IDs and returns a styled message for CLI rendering.
func classifyBuildError(err error, verbose bool) (issueID issue.Id, styledMsg string) {
	styledMsg = fmt.Sprintf("\n%s %s\n", ErrorStyle.Render("Error:"), formatErrorForDisplay(err, verbose))

	if id, ok := issue.IssueOf(err); ok {
		return id, styledMsg
	}

	var buildErr *bundler.BuildError
	isBuildErr := errors.As(err, &buildErr)

	switch {
	case errors.Is(err, jsrun.ErrScript), errors.Is(err, jsrun.ErrCompile):
		issueID = issue.BundleExecutionFailedId
	case errors.Is(err, fs.ErrPermission):
		issueID = issue.PermissionDeniedId
	case errors.Is(err, bundler.ErrLoaderResolution):
		issueID = issue.LoaderNotFoundId
	case errors.Is(err, bundler.ErrLoaderExecution):
		issueID = issue.LoaderFailedId
	case errors.Is(err, bundler.ErrSyntax):
		issueID = issue.SyntaxErrorId
	case errors.Is(err, bundler.ErrUnsupportedDependency):
		issueID = issue.UnsupportedRequireId
	case errors.Is(err, bundler.ErrPathResolution):
		issueID = issue.PathOutsideRootId
	case errors.Is(err, bundler.ErrPluginResolution):
		issueID = issue.PluginNotFoundId
	case errors.Is(err, bundler.ErrTemplate):
		issueID = issue.TemplateErrorId
	case isBuildErr && buildErr.Phase == bundler.PhaseEmit && errors.Is(err, fs.ErrNotExist):
		issueID = issue.OutputDirMissingId
	case errors.Is(err, bundler.ErrIO):
		issueID = issue.ModuleReadFailedId
	}

	return issueID, styledMsg
}

// classifyEntryError narrows a failed read of the entry module to EntryNotFoundId.
func classifyEntryError(err error, entry string, verbose bool) (issue.Id, string) {
	id, msg := classifyBuildError(err, verbose)
	var buildErr *bundler.BuildError
	if id == issue.ModuleReadFailedId && errors.As(err, &buildErr) &&
		string(buildErr.Module) == entry && errors.Is(err, fs.ErrNotExist) {
		id = issue.EntryNotFoundId
	}
	return id, msg
}
