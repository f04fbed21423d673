// SPDX-License-Identifier: MPL-2.0

package hooks

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Built-in plugin ids.
const (
	PluginLogHooks = "log-hooks"
	PluginTiming   = "timing"
	PluginBanner   = "banner"
)

// ErrUnknownPlugin is returned when a plugin id has no registered constructor.
var ErrUnknownPlugin = errors.New("unknown plugin")

type (
	// Plugin attaches listeners to a build's Registry.
	Plugin interface {
		Attach(r *Registry)
	}

	// PluginFunc adapts a function to the Plugin interface.
	PluginFunc func(r *Registry)

	// Clock is the time source used by plugins that measure the build.
	Clock interface {
		Now() time.Time
		Since(t time.Time) time.Duration
	}

	// PluginContext is what a plugin constructor receives from the compiler.
	PluginContext struct {
		Logger *log.Logger
		Clock  Clock
		// Entry is the resolved entry ModulePath.
		Entry string
		// AddBanner queues a comment line that the emitter prepends to the artifact.
		AddBanner func(text string)
	}

	// Constructor builds a Plugin for one build.
	Constructor func(pc PluginContext) Plugin

	// Catalog maps plugin ids to constructors.
	Catalog struct {
		mu    sync.RWMutex
		ctors map[string]Constructor
	}

	// UnknownPluginError names the unresolved id and what was available.
	UnknownPluginError struct {
		ID    string
		Known []string
	}

	systemClock struct{}
)

// Attach calls f(r).
func (f PluginFunc) Attach(r *Registry) { f(r) }

func (systemClock) Now() time.Time                  { return time.Now() }
func (systemClock) Since(t time.Time) time.Duration { return time.Since(t) }

// SystemClock returns a Clock backed by the wall clock.
func SystemClock() Clock { return systemClock{} }

// Error implements the error interface.
func (e *UnknownPluginError) Error() string {
	return fmt.Sprintf("unknown plugin %q (available: %s)", e.ID, strings.Join(e.Known, ", "))
}

// Unwrap returns ErrUnknownPlugin.
func (e *UnknownPluginError) Unwrap() error { return ErrUnknownPlugin }

// NewCatalog creates an empty Catalog.
func NewCatalog() *Catalog {
	return &Catalog{ctors: make(map[string]Constructor)}
}

// Builtins returns a Catalog holding the built-in plugins.
func Builtins() *Catalog {
	c := NewCatalog()
	c.Register(PluginLogHooks, NewLogHooks)
	c.Register(PluginTiming, NewTiming)
	c.Register(PluginBanner, NewBanner)
	return c
}

// Register adds or replaces the constructor for id.
func (c *Catalog) Register(id string, ctor Constructor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ctors[id] = ctor
}

// Resolve returns the constructor registered for id.
func (c *Catalog) Resolve(id string) (Constructor, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if ctor, ok := c.ctors[id]; ok {
		return ctor, nil
	}
	return nil, &UnknownPluginError{ID: id, Known: c.idsLocked()}
}

// IDs returns the registered plugin ids, sorted.
func (c *Catalog) IDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.idsLocked()
}

func (c *Catalog) idsLocked() []string {
	ids := make([]string, 0, len(c.ctors))
	for id := range c.ctors {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// NewLogHooks returns a plugin that debug-logs every lifecycle event as it fires.
func NewLogHooks(pc PluginContext) Plugin {
	return PluginFunc(func(r *Registry) {
		for _, ev := range Events() {
			r.Subscribe(ev, func() {
				if pc.Logger != nil {
					pc.Logger.Debug("hook fired", "event", ev.String())
				}
			})
		}
	})
}

// NewTiming returns a plugin that reports the time spent between run and done, and the
// share of it spent building the graph.
func NewTiming(pc PluginContext) Plugin {
	clock := pc.Clock
	if clock == nil {
		clock = SystemClock()
	}
	var start, compileStart time.Time
	var compileTook time.Duration

	return PluginFunc(func(r *Registry) {
		r.Subscribe(Run, func() { start = clock.Now() })
		r.Subscribe(Compile, func() { compileStart = clock.Now() })
		r.Subscribe(AfterCompile, func() { compileTook = clock.Since(compileStart) })
		r.Subscribe(Done, func() {
			if pc.Logger == nil || start.IsZero() {
				return
			}
			pc.Logger.Info("build finished", "elapsed", clock.Since(start), "graph", compileTook)
		})
	})
}

// NewBanner returns a plugin that stamps the artifact with a comment naming the entry.
func NewBanner(pc PluginContext) Plugin {
	return PluginFunc(func(r *Registry) {
		r.Subscribe(AfterCompile, func() {
			if pc.AddBanner != nil {
				pc.AddBanner(fmt.Sprintf("bundled by minipack from %s", pc.Entry))
			}
		})
	})
}
