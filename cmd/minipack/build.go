// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/minipack/minipack/internal/bundler"
)

func newBuildCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Bundle the entry module and write the output file",
		Long: `Bundle the entry module and write the output file.

The output directory must already exist. Nothing is written unless every
module in the graph loads and parses.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.newCompiler(cmd.Context())
			if err != nil {
				return err
			}

			res, err := c.Run(cmd.Context())
			if err != nil {
				return app.buildFailure(err, string(c.Entry()))
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, moduleTable(res.Graph))
			fmt.Fprintf(out, "%s Wrote %s (%d modules, %d bytes)\n",
				SuccessStyle.Render("✓"), relToRoot(c.Root(), res.OutputPath), res.Graph.Len(), len(res.Code))
			return nil
		},
	}
}

// moduleTable renders one row per module in discovery order.
func moduleTable(graph *bundler.ModuleGraph) string {
	rows := make([][]string, 0, graph.Len())
	for _, m := range graph.Modules() {
		rows = append(rows, []string{
			string(m.Path),
			strconv.Itoa(len(m.Dependencies)),
			strconv.Itoa(len(m.Code)),
		})
	}

	entryRow := 0
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(SubtitleStyle).
		Headers("MODULE", "DEPS", "BYTES").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return tableHeaderStyle
			case row == entryRow && col == 0:
				return tableEntryStyle
			default:
				return tableCellStyle
			}
		}).
		String()
}

// relToRoot shortens path for display when it lies under root.
func relToRoot(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || !filepath.IsLocal(rel) {
		return path
	}
	return filepath.ToSlash(rel)
}
