// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/minipack/minipack/internal/issue"
	"github.com/minipack/minipack/internal/jsrun"
)

func newRunCommand(app *App) *cobra.Command {
	var printExports bool

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Bundle in memory and execute the result",
		Long: `Bundle in memory and execute the result in an embedded JavaScript runtime.

console.log and console.info write to stdout; console.error and console.warn
write to stderr. Nothing is written to the output directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.newCompiler(cmd.Context())
			if err != nil {
				return err
			}

			res, err := c.Bundle(cmd.Context())
			if err != nil {
				return app.buildFailure(err, string(c.Entry()))
			}

			runner := jsrun.New(jsrun.WithStdout(cmd.OutOrStdout()), jsrun.WithStderr(cmd.ErrOrStderr()))
			exports, err := runner.Run(cmd.Context(), filepath.Base(c.OutputPath()), res.Code)
			if err != nil {
				return scriptFailure(err, app.Verbose)
			}

			if printExports {
				data, err := json.MarshalIndent(exports, "", "  ")
				if err != nil {
					return fmt.Errorf("encode exports: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
			}
			return nil
		},
	}

	runCmd.Flags().BoolVar(&printExports, "print-exports", false, "print the entry module's exports as JSON")

	return runCmd
}

// scriptFailure wraps an error thrown by the bundle. Verbose mode appends the
// JavaScript stack.
func scriptFailure(err error, verbose bool) error {
	id, msg := classifyBuildError(err, verbose)
	var scriptErr *jsrun.ScriptError
	if verbose && errors.As(err, &scriptErr) && scriptErr.Stack != "" {
		msg += VerboseStyle.Render(scriptErr.Stack) + "\n"
	}
	if id == 0 {
		id = issue.BundleExecutionFailedId
	}
	return &ExitError{Code: ExitScriptFailed, Err: newServiceError(err, id, msg)}
}
