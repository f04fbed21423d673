// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/minipack/minipack/internal/bundler"
	"github.com/minipack/minipack/internal/config"
	"github.com/minipack/minipack/internal/issue"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// App holds the global flags and output streams shared by every command.
type App struct {
	// Verbose enables debug logging and full error chains.
	Verbose bool
	// ConfigPath is the explicit --config value.
	ConfigPath string
	// Root is the project root; relative entry and output paths resolve against it.
	Root string

	stdout io.Writer
	stderr io.Writer
}

// NewApp creates an App writing to the given streams.
func NewApp(stdout, stderr io.Writer) *App {
	return &App{Root: ".", stdout: stdout, stderr: stderr}
}

// newRootCommand builds the command tree for app.
func newRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "minipack",
		Short: "A minimal JavaScript module bundler",
		Long: TitleStyle.Render("minipack") + SubtitleStyle.Render(" - A minimal JavaScript module bundler") + `

minipack follows require() calls from an entry module, runs each file
through the configured loaders, and writes one self-contained script
with a tiny module runtime.

Configuration lives in 'minipack.cue' at the project root.

` + SubtitleStyle.Render("Examples:") + `
  minipack init             Create minipack.cue and a sample entry
  minipack build            Bundle to dist/bundle.js
  minipack run              Bundle in memory and execute it
  minipack graph            Print the module graph
  minipack config show      Show the effective configuration`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(app.stdout)
	rootCmd.SetErr(app.stderr)

	rootCmd.PersistentFlags().BoolVarP(&app.Verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&app.ConfigPath, "config", "", "config file (default is <root>/minipack.cue)")
	rootCmd.PersistentFlags().StringVar(&app.Root, "root", ".", "project root directory")

	rootCmd.AddCommand(newBuildCommand(app))
	rootCmd.AddCommand(newRunCommand(app))
	rootCmd.AddCommand(newGraphCommand(app))
	rootCmd.AddCommand(newInitCommand(app))
	rootCmd.AddCommand(newConfigCommand(app))

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI and exits with the code carried by the returned error.
// This is called by main.main().
func Execute() {
	app := NewApp(os.Stdout, os.Stderr)
	if err := fang.Execute(
		context.Background(),
		newRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(app.handleError),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(int(exitErr.Code))
		}
		os.Exit(1)
	}
}

// handleError renders errors returned from RunE. Service errors carry their own
// styled text and catalog entry; everything else gets fang's default treatment.
func (a *App) handleError(w io.Writer, styles fang.Styles, err error) {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		renderServiceError(w, svcErr)
		return
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Err == nil {
		return
	}
	fang.DefaultErrorHandler(w, styles, err)
}

// newLogger returns the logger handed to the bundler.
func (a *App) newLogger() *log.Logger {
	logger := log.NewWithOptions(a.stderr, log.Options{
		Prefix:          "minipack",
		ReportTimestamp: false,
	})
	if a.Verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

// projectRoot returns the absolute --root.
func (a *App) projectRoot() (string, error) {
	root := a.Root
	if root == "" {
		root = "."
	}
	return filepath.Abs(root)
}

// loadConfig loads configuration for the project root. Failures come back as
// ServiceErrors so the handler shows the configuration guidance.
func (a *App) loadConfig(ctx context.Context) (*config.Loaded, error) {
	root, err := a.projectRoot()
	if err != nil {
		return nil, err
	}
	loaded, err := config.LoadFile(ctx, config.LoadOptions{
		ConfigFilePath: a.ConfigPath,
		ProjectDir:     root,
	})
	if err != nil {
		return nil, a.commandFailure(err, ExitConfigInvalid)
	}
	return loaded, nil
}

// newCompiler loads configuration and prepares a compiler for it.
func (a *App) newCompiler(ctx context.Context) (*bundler.Compiler, error) {
	loaded, err := a.loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	root, err := a.projectRoot()
	if err != nil {
		return nil, err
	}
	c, err := bundler.New(loaded.Config, bundler.Options{
		Root:   root,
		Logger: a.newLogger(),
	})
	if err != nil {
		return nil, a.buildFailure(err, "")
	}
	return c, nil
}

// buildFailure wraps a bundler error for display. entry names the entry module,
// when known, so a missing entry gets its own guidance.
func (a *App) buildFailure(err error, entry string) error {
	id, msg := classifyEntryError(err, entry, a.Verbose)
	code := ExitBuildFailed
	var invalid *config.InvalidConfigError
	if errors.As(err, &invalid) {
		code = ExitConfigInvalid
		id = issue.ConfigInvalidId
	}
	return &ExitError{Code: code, Err: newServiceError(err, id, msg)}
}

// commandFailure wraps err for display with the given exit code.
func (a *App) commandFailure(err error, code ExitCode) error {
	id, msg := classifyBuildError(err, a.Verbose)
	return &ExitError{Code: code, Err: newServiceError(err, id, msg)}
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	if !verboseMode {
		return err.Error()
	}
	return err.Error() + issue.ChainText(err, false)
}
