// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/minipack/minipack/internal/bundler"
	"github.com/minipack/minipack/pkg/modpath"
)

const (
	graphFormatText = "text"
	graphFormatDot  = "dot"

	graphOrderDiscovery = "discovery"
	graphOrderTopo      = "topo"
)

func newGraphCommand(app *App) *cobra.Command {
	var (
		format string
		order  string
	)

	graphCmd := &cobra.Command{
		Use:   "graph",
		Short: "Print the module graph",
		Long: `Print every module reachable from the entry together with the modules it
requires, in discovery order. Use --format dot for Graphviz input.

With --order topo every module is listed after the modules it requires. A graph
with a circular require has no such order and the command fails naming the cycle.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != graphFormatText && format != graphFormatDot {
				return fmt.Errorf("unknown graph format %q (want %s or %s)", format, graphFormatText, graphFormatDot)
			}
			if order != graphOrderDiscovery && order != graphOrderTopo {
				return fmt.Errorf("unknown graph order %q (want %s or %s)", order, graphOrderDiscovery, graphOrderTopo)
			}

			c, err := app.newCompiler(cmd.Context())
			if err != nil {
				return err
			}
			graph, err := c.BuildGraph(cmd.Context())
			if err != nil {
				return app.buildFailure(err, string(c.Entry()))
			}

			modules, err := orderedModules(graph, order)
			if err != nil {
				return err
			}

			if format == graphFormatDot {
				writeDot(cmd.OutOrStdout(), modules)
				return nil
			}
			writeGraphText(cmd.OutOrStdout(), graph.Entry(), modules)
			return nil
		},
	}

	graphCmd.Flags().StringVar(&format, "format", graphFormatText, "output format (text, dot)")
	graphCmd.Flags().StringVar(&order, "order", graphOrderDiscovery, "module order (discovery, topo)")

	return graphCmd
}

// orderedModules lists the graph's modules in discovery or topological order.
func orderedModules(graph *bundler.ModuleGraph, order string) ([]bundler.Module, error) {
	if order != graphOrderTopo {
		return graph.Modules(), nil
	}

	paths, err := graph.TopoOrder()
	if err != nil {
		return nil, fmt.Errorf("no topological order: %w", err)
	}
	modules := make([]bundler.Module, 0, len(paths))
	for _, p := range paths {
		if m, ok := graph.Get(p); ok {
			modules = append(modules, m)
		}
	}
	return modules, nil
}

func writeGraphText(w io.Writer, entry modpath.ModulePath, modules []bundler.Module) {
	for _, m := range modules {
		name := CmdStyle.Render(string(m.Path))
		if m.Path == entry {
			name += " " + SubtitleStyle.Render("(entry)")
		}
		fmt.Fprintln(w, name)
		for _, dep := range m.Dependencies {
			fmt.Fprintf(w, "  -> %s\n", dep)
		}
	}
}

func writeDot(w io.Writer, modules []bundler.Module) {
	fmt.Fprintln(w, "digraph modules {")
	for _, m := range modules {
		fmt.Fprintf(w, "  %s;\n", dotQuote(string(m.Path)))
		for _, dep := range m.Dependencies {
			fmt.Fprintf(w, "  %s -> %s;\n", dotQuote(string(m.Path)), dotQuote(string(dep)))
		}
	}
	fmt.Fprintln(w, "}")
}

func dotQuote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}
