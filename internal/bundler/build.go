// SPDX-License-Identifier: MPL-2.0

package bundler

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/minipack/minipack/internal/dag"
	"github.com/minipack/minipack/internal/loader"
	"github.com/minipack/minipack/internal/rewrite"
	"github.com/minipack/minipack/pkg/modpath"
)

// buildContext holds the state of one graph traversal. It is created by BuildGraph and
// dropped when BuildGraph returns.
type buildContext struct {
	root     string
	chain    *loader.Chain
	rewriter *rewrite.Rewriter
	logger   *log.Logger
	revisit  bool

	graph *ModuleGraph
	// active holds the modules on the current recursion path.
	active map[modpath.ModulePath]bool
	edges  *dag.Graph
}

// BuildGraph walks the require graph from the entry, depth-first and pre-order. Each
// module is loaded, rewritten and inserted before its dependencies are visited. Any
// failure aborts the walk and no graph is returned.
//
// A module already in the graph is not built again unless build.revisit is set, in which
// case it is rebuilt in place. Modules on the current recursion path are never re-entered,
// so circular requires terminate in both modes.
func (c *Compiler) BuildGraph(ctx context.Context) (*ModuleGraph, error) {
	bc := &buildContext{
		root:     c.root,
		chain:    c.chain,
		rewriter: c.rewriter,
		logger:   c.logger,
		revisit:  c.cfg.Build.Revisit,
		graph:    newModuleGraph(),
		active:   make(map[modpath.ModulePath]bool),
		edges:    dag.New(),
	}

	if err := bc.build(ctx, c.entryFile); err != nil {
		return nil, err
	}

	order, err := bc.edges.TopologicalSort()
	if err != nil {
		c.logger.Warn("circular require", "cycle", err.Error())
		bc.graph.cycle = err
	} else {
		bc.graph.topo = make([]modpath.ModulePath, len(order))
		for i, p := range order {
			bc.graph.topo[i] = modpath.ModulePath(p)
		}
	}
	c.logger.Debug("graph built", "modules", bc.graph.Len(), "edges", bc.edges.EdgeCount())
	return bc.graph, nil
}

func (bc *buildContext) build(ctx context.Context, file string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("build canceled: %w", err)
	}

	p, err := modpath.FromAbs(bc.root, file)
	if err != nil {
		return newBuildError(PhaseResolve, "", file, err)
	}
	if bc.active[p] {
		return nil
	}
	if bc.graph.Has(p) && !bc.revisit {
		return nil
	}
	if bc.graph.entry == "" {
		bc.graph.entry = p
	}
	bc.edges.AddNode(string(p))

	matched := bc.chain.MatchingRules(file)
	if len(matched) > 1 {
		rules := bc.chain.Rules()
		names := make([]string, len(matched))
		for i, idx := range matched {
			names[i] = rules[idx].String()
		}
		bc.logger.Warn("several loader rules match; applying all in order", "module", p, "rules", names)
	}

	text, err := bc.chain.LoadMatched(file, matched)
	if err != nil {
		return newBuildError(PhaseLoad, p, file, err)
	}

	res, err := bc.rewriter.Rewrite(string(p), text, p.Dir())
	if err != nil {
		phase := PhaseParse
		if errors.Is(err, modpath.ErrOutsideRoot) {
			phase = PhaseResolve
		}
		return newBuildError(phase, p, file, err)
	}

	bc.graph.put(Module{Path: p, Code: res.Code, Dependencies: res.Dependencies})
	bc.logger.Debug("module built", "path", p, "deps", len(res.Dependencies))

	bc.active[p] = true
	defer delete(bc.active, p)

	for _, dep := range res.Dependencies {
		bc.edges.AddEdge(string(p), string(dep))
		if err := bc.build(ctx, modpath.ToAbs(bc.root, dep)); err != nil {
			return err
		}
	}
	return nil
}
