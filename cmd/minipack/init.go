// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/minipack/minipack/internal/config"
)

// Starter sources written by init when the entry does not exist yet.
const (
	sampleEntry = `const greet = require("./greet.js");

console.log(greet("minipack"));

module.exports = { greeting: greet("world") };
`
	sampleGreet = `module.exports = function greet(name) {
  return "Hello, " + name + "!";
};
`
)

func newInitCommand(app *App) *cobra.Command {
	var (
		force      bool
		skipSample bool
	)

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create minipack.cue and a sample project",
		Long: `Create a default minipack.cue in the project root.

Unless --no-sample is given, init also creates the output directory and a
two-module sample under src/ when the configured entry does not exist.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := app.projectRoot()
			if err != nil {
				return err
			}

			cfgPath, err := config.WriteDefault(root, force)
			if err != nil {
				return app.commandFailure(err, ExitConfigInvalid)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s Created %s\n", SuccessStyle.Render("✓"), cfgPath)

			if !skipSample {
				created, err := writeSample(root, config.DefaultConfig())
				if err != nil {
					return app.commandFailure(err, ExitBuildFailed)
				}
				for _, p := range created {
					fmt.Fprintf(out, "%s Created %s\n", SuccessStyle.Render("✓"), relToRoot(root, p))
				}
			}

			fmt.Fprintln(out)
			fmt.Fprintln(out, SubtitleStyle.Render("Next steps:"))
			fmt.Fprintln(out, "  1. Edit minipack.cue to add loader rules or plugins")
			fmt.Fprintln(out, "  2. Run 'minipack run' to execute the bundle")
			fmt.Fprintln(out, "  3. Run 'minipack build' to write "+filepath.ToSlash(filepath.Join(config.DefaultOutputPath, config.DefaultOutputFilename)))

			return nil
		},
	}

	initCmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing minipack.cue")
	initCmd.Flags().BoolVar(&skipSample, "no-sample", false, "only write minipack.cue")

	return initCmd
}

// writeSample creates the output directory and the sample sources that are
// missing. Existing files are left alone.
func writeSample(root string, cfg *config.Config) ([]string, error) {
	var created []string

	outDir := filepath.Join(root, cfg.Output.Path)
	if _, err := os.Stat(outDir); errors.Is(err, fs.ErrNotExist) {
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return created, fmt.Errorf("create output directory: %w", err)
		}
		created = append(created, outDir)
	}

	entry := filepath.Join(root, filepath.FromSlash(cfg.Entry))
	if _, err := os.Stat(entry); err == nil {
		return created, nil
	}

	files := []struct{ path, content string }{
		{entry, sampleEntry},
		{filepath.Join(filepath.Dir(entry), "greet.js"), sampleGreet},
	}
	for _, f := range files {
		if _, err := os.Stat(f.path); err == nil {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
			return created, fmt.Errorf("create source directory: %w", err)
		}
		if err := os.WriteFile(f.path, []byte(f.content), 0o644); err != nil {
			return created, fmt.Errorf("write sample: %w", err)
		}
		created = append(created, f.path)
	}
	return created, nil
}
