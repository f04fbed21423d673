// SPDX-License-Identifier: MPL-2.0

package bundler

import (
	"slices"

	"github.com/minipack/minipack/pkg/modpath"
)

type (
	// Module is one rewritten source file of the bundle.
	Module struct {
		Path modpath.ModulePath
		// Code is the source after loaders and require rewriting.
		Code string
		// Dependencies lists the modules Code requires, in source order.
		Dependencies []modpath.ModulePath
	}

	// ModuleGraph maps module paths to modules in discovery order.
	ModuleGraph struct {
		entry   modpath.ModulePath
		order   []modpath.ModulePath
		modules map[modpath.ModulePath]Module
		// topo is set when the require edges are acyclic, cycle otherwise.
		topo  []modpath.ModulePath
		cycle error
	}
)

func newModuleGraph() *ModuleGraph {
	return &ModuleGraph{modules: make(map[modpath.ModulePath]Module)}
}

// Entry returns the entry module path.
func (g *ModuleGraph) Entry() modpath.ModulePath { return g.entry }

// Len returns the number of modules.
func (g *ModuleGraph) Len() int { return len(g.order) }

// Has reports whether p is in the graph.
func (g *ModuleGraph) Has(p modpath.ModulePath) bool {
	_, ok := g.modules[p]
	return ok
}

// Get returns the module stored under p.
func (g *ModuleGraph) Get(p modpath.ModulePath) (Module, bool) {
	m, ok := g.modules[p]
	return m, ok
}

// Paths returns the module paths in discovery order.
func (g *ModuleGraph) Paths() []modpath.ModulePath { return slices.Clone(g.order) }

// TopoOrder returns the module paths ordered so that each module follows every module it
// requires. A graph with a circular require has no such order; the cycle is returned as a
// *dag.CycleError instead.
func (g *ModuleGraph) TopoOrder() ([]modpath.ModulePath, error) {
	if g.cycle != nil {
		return nil, g.cycle
	}
	return slices.Clone(g.topo), nil
}

// Modules returns the modules in discovery order.
func (g *ModuleGraph) Modules() []Module {
	out := make([]Module, len(g.order))
	for i, p := range g.order {
		out[i] = g.modules[p]
	}
	return out
}

// Sources returns the rewritten code of every module keyed by path.
func (g *ModuleGraph) Sources() map[modpath.ModulePath]string {
	out := make(map[modpath.ModulePath]string, len(g.modules))
	for p, m := range g.modules {
		out[p] = m.Code
	}
	return out
}

// put stores m. A module already present is replaced in place and keeps its position.
func (g *ModuleGraph) put(m Module) {
	if _, ok := g.modules[m.Path]; !ok {
		g.order = append(g.order, m.Path)
	}
	g.modules[m.Path] = m
}
