// SPDX-License-Identifier: MPL-2.0

package bundler

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"text/template"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"

	"github.com/minipack/minipack/internal/config"
	"github.com/minipack/minipack/internal/hooks"
	"github.com/minipack/minipack/internal/loader"
	"github.com/minipack/minipack/internal/rewrite"
	"github.com/minipack/minipack/pkg/modpath"
)

type (
	// Options carries the collaborators of a Compiler. Zero fields take defaults.
	Options struct {
		// Root is the project root; relative paths in the config resolve against it.
		// Defaults to the working directory.
		Root string
		// Fs is the filesystem sources are read from and the artifact written to.
		// Defaults to the OS filesystem.
		Fs afero.Fs
		// Logger receives build diagnostics. Defaults to a discarding logger.
		Logger *log.Logger
		// Transforms resolves loader ids. Defaults to loader.Builtins().
		Transforms *loader.Registry
		// Plugins resolves plugin ids. Defaults to hooks.Builtins().
		Plugins *hooks.Catalog
		// ExtraPlugins are attached after the configured ones.
		ExtraPlugins []hooks.Plugin
		// Clock is handed to plugins. Defaults to the wall clock.
		Clock hooks.Clock
	}

	// Compiler runs one build.
	Compiler struct {
		cfg      *config.Config
		fs       afero.Fs
		root     string
		logger   *log.Logger
		hooks    *hooks.Registry
		chain    *loader.Chain
		rewriter *rewrite.Rewriter
		tmpl     *template.Template

		entryFile string
		entry     modpath.ModulePath
		banners   []string
		ran       bool
	}

	// Result describes a completed build.
	Result struct {
		Graph *ModuleGraph
		// OutputPath is the artifact's filesystem path. Empty for in-memory builds.
		OutputPath string
		// Code is the rendered artifact.
		Code string
	}
)

// New prepares a build: it resolves loader and plugin ids, attaches plugins, and resolves
// the entry. The afterPlugins and entryOption hooks fire before New returns.
func New(cfg *config.Config, opts Options) (*Compiler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	root := opts.Root
	if root == "" {
		root = "."
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, newBuildError(PhaseSetup, "", opts.Root, err)
	}

	c := &Compiler{
		cfg:    cfg,
		fs:     opts.Fs,
		root:   root,
		logger: opts.Logger,
		hooks:  hooks.NewRegistry(),
		rewriter: rewrite.New(rewrite.Options{
			Extension: cfg.Resolve.Extension,
		}),
	}
	if c.fs == nil {
		c.fs = afero.NewOsFs()
	}
	if c.logger == nil {
		c.logger = log.New(io.Discard)
	}

	transforms := opts.Transforms
	if transforms == nil {
		transforms = loader.Builtins()
		transforms.SetShellDir(root)
	}
	rules := make([]*loader.Rule, 0, len(cfg.Module.Rules))
	for i, rc := range cfg.Module.Rules {
		rule, err := loader.NewRule(rc.Test, rc.Include, rc.Use, transforms)
		if err != nil {
			return nil, newBuildError(PhaseSetup, "", "", fmt.Errorf("module.rules[%d]: %w", i, err))
		}
		rules = append(rules, rule)
	}
	c.chain = loader.NewChain(c.fs, root, rules...)

	c.entryFile = filepath.Join(root, filepath.FromSlash(cfg.Entry))
	if c.entry, err = modpath.FromAbs(root, c.entryFile); err != nil {
		return nil, newBuildError(PhaseResolve, "", c.entryFile, err)
	}

	if c.tmpl, err = c.loadTemplate(); err != nil {
		return nil, err
	}

	if err := c.attachPlugins(opts); err != nil {
		return nil, err
	}
	c.hooks.Fire(hooks.AfterPlugins)
	c.hooks.Fire(hooks.EntryOption)

	return c, nil
}

func (c *Compiler) attachPlugins(opts Options) error {
	catalog := opts.Plugins
	if catalog == nil {
		catalog = hooks.Builtins()
	}
	clock := opts.Clock
	if clock == nil {
		clock = hooks.SystemClock()
	}
	pc := hooks.PluginContext{
		Logger:    c.logger,
		Clock:     clock,
		Entry:     string(c.entry),
		AddBanner: c.addBanner,
	}

	for _, id := range c.cfg.Plugins {
		ctor, err := catalog.Resolve(id)
		if err != nil {
			return newBuildError(PhaseSetup, "", "", err)
		}
		ctor(pc).Attach(c.hooks)
		c.logger.Debug("plugin attached", "id", id)
	}
	for _, p := range opts.ExtraPlugins {
		p.Attach(c.hooks)
	}
	return nil
}

func (c *Compiler) addBanner(text string) {
	c.banners = append(c.banners, text)
}

// Hooks returns the lifecycle registry so callers can subscribe before Run.
func (c *Compiler) Hooks() *hooks.Registry { return c.hooks }

// Entry returns the entry module path.
func (c *Compiler) Entry() modpath.ModulePath { return c.entry }

// Root returns the absolute project root.
func (c *Compiler) Root() string { return c.root }

// OutputPath returns where Emit writes the artifact.
func (c *Compiler) OutputPath() string {
	dir := c.cfg.Output.Path
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(c.root, dir)
	}
	return filepath.Join(dir, c.cfg.Output.Filename)
}

// Run builds the graph and writes the artifact, firing run, compile, afterCompile, emit
// and done in that order. Nothing is written unless the whole graph builds.
func (c *Compiler) Run(ctx context.Context) (*Result, error) {
	graph, code, err := c.compile(ctx)
	if err != nil {
		return nil, err
	}

	out, err := c.write(code)
	if err != nil {
		return nil, err
	}
	c.hooks.Fire(hooks.Emit)
	c.hooks.Fire(hooks.Done)

	c.logger.Info("bundle written", "path", out, "modules", graph.Len(), "bytes", len(code))
	return &Result{Graph: graph, OutputPath: out, Code: code}, nil
}

// Bundle builds and renders the artifact without writing it. The emit hook does not fire.
func (c *Compiler) Bundle(ctx context.Context) (*Result, error) {
	graph, code, err := c.compile(ctx)
	if err != nil {
		return nil, err
	}
	c.hooks.Fire(hooks.Done)
	return &Result{Graph: graph, Code: code}, nil
}

func (c *Compiler) compile(ctx context.Context) (*ModuleGraph, string, error) {
	if c.ran {
		return nil, "", ErrAlreadyRun
	}
	c.ran = true

	c.hooks.Fire(hooks.Run)
	c.hooks.Fire(hooks.Compile)

	graph, err := c.BuildGraph(ctx)
	if err != nil {
		return nil, "", err
	}
	c.hooks.Fire(hooks.AfterCompile)

	code, err := c.Render(graph)
	if err != nil {
		return nil, "", err
	}
	return graph, code, nil
}
