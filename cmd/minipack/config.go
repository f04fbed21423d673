// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/minipack/minipack/internal/config"
)

// newConfigCommand creates the `minipack config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect minipack configuration",
		Long: `Inspect minipack configuration.

Configuration is read from minipack.cue in the project root, or from the file
given with --config. MINIPACK_* environment variables override single values,
for example MINIPACK_OUTPUT_FILENAME=app.js.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	var format string
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := app.loadConfig(cmd.Context())
			if err != nil {
				return err
			}

			text, err := config.Encode(loaded.Config, format)
			if err != nil {
				return app.commandFailure(err, ExitConfigInvalid)
			}

			if app.Verbose {
				source := loaded.Path
				if source == "" {
					source = "(defaults)"
				}
				fmt.Fprintln(cmd.ErrOrStderr(), VerboseStyle.Render("config source: "+source))
			}
			fmt.Fprint(cmd.OutOrStdout(), text)
			return nil
		},
	}
	showCmd.Flags().StringVar(&format, "format", config.FormatCUE,
		fmt.Sprintf("output format (%s, %s, %s, %s)", config.FormatCUE, config.FormatJSON, config.FormatTOML, config.FormatYAML))
	cfgCmd.AddCommand(showCmd)

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the configuration file in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := app.loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			if loaded.Path == "" {
				fmt.Fprintln(cmd.OutOrStdout(), SubtitleStyle.Render("(using defaults)"))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), loaded.Path)
			return nil
		},
	})

	return cfgCmd
}
