// SPDX-License-Identifier: MPL-2.0

// Package rewrite finds require() calls in JavaScript source, resolves their targets to
// canonical module paths and rewrites them into calls against the bundle's runtime loader.
//
// Source is parsed with goja's ECMAScript parser. Instead of printing a modified tree,
// the rewriter splices the replacement callee and argument into the original text at the
// byte offsets the parser recorded, so comments and formatting survive untouched.
package rewrite

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/file"
	"github.com/dop251/goja/parser"

	"github.com/minipack/minipack/pkg/modpath"
)

const (
	// DefaultRequireIdent is the dependency-reference callee recognized in source.
	DefaultRequireIdent = "require"
	// DefaultLoaderIdent is the runtime loader that rewritten calls target.
	DefaultLoaderIdent = "__webpack_require__"
)

var (
	// ErrSyntax is returned when source cannot be parsed.
	ErrSyntax = errors.New("syntax error")
	// ErrUnsupportedDependency is returned for require() calls whose argument is not a
	// single string literal.
	ErrUnsupportedDependency = errors.New("unsupported dependency expression")
)

type (
	// Options configures a Rewriter. Zero fields take the package defaults.
	Options struct {
		RequireIdent string
		LoaderIdent  string
		// Extension is appended to requests without one (default ".js").
		Extension string
	}

	// Rewriter rewrites dependency references of one build.
	Rewriter struct {
		opts Options
	}

	// Result is the outcome of rewriting one module.
	Result struct {
		// Code is the rewritten source.
		Code string
		// Dependencies lists the resolved targets in source order. Repeated requires of
		// the same module appear once per call.
		Dependencies []modpath.ModulePath
	}

	// SyntaxError wraps a parser failure. It wraps ErrSyntax for errors.Is().
	SyntaxError struct {
		File string
		Err  error
	}

	// UnsupportedDependencyError reports a require() call that cannot be resolved
	// statically. It wraps ErrUnsupportedDependency for errors.Is().
	UnsupportedDependencyError struct {
		File   string
		Line   int
		Column int
		Reason string
	}

	// edit replaces src[start:end] with text.
	edit struct {
		start, end int
		text       string
	}
)

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.File, e.Err)
}

// Unwrap exposes ErrSyntax and the parser error.
func (e *SyntaxError) Unwrap() []error { return []error{ErrSyntax, e.Err} }

// Error implements the error interface.
func (e *UnsupportedDependencyError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Column, e.Reason)
}

// Unwrap returns ErrUnsupportedDependency.
func (e *UnsupportedDependencyError) Unwrap() error { return ErrUnsupportedDependency }

// New creates a Rewriter.
func New(opts Options) *Rewriter {
	if opts.RequireIdent == "" {
		opts.RequireIdent = DefaultRequireIdent
	}
	if opts.LoaderIdent == "" {
		opts.LoaderIdent = DefaultLoaderIdent
	}
	if opts.Extension == "" {
		opts.Extension = modpath.DefaultExtension
	}
	return &Rewriter{opts: opts}
}

// Rewrite parses source, rewrites every require('<literal>') call into
// LoaderIdent("<ModulePath>") and returns the new source with the resolved targets.
// requiringDir is the "./dir" form of the requiring module's directory; filename is
// only used in error messages.
func (r *Rewriter) Rewrite(filename, source, requiringDir string) (*Result, error) {
	program, err := parser.ParseFile(nil, filename, source, 0, parser.WithDisableSourceMaps)
	if err != nil {
		return nil, &SyntaxError{File: filename, Err: err}
	}
	base := program.File.Base()

	result := &Result{Dependencies: []modpath.ModulePath{}}
	var edits []edit
	for _, call := range collectCalls(program) {
		callee, ok := call.Callee.(*ast.Identifier)
		if !ok || string(callee.Name) != r.opts.RequireIdent {
			continue
		}

		line, col := position(source, int(call.Idx0())-base)
		if len(call.ArgumentList) != 1 {
			return nil, &UnsupportedDependencyError{
				File: filename, Line: line, Column: col,
				Reason: fmt.Sprintf("%s() takes exactly one argument, got %d", r.opts.RequireIdent, len(call.ArgumentList)),
			}
		}
		lit, ok := call.ArgumentList[0].(*ast.StringLiteral)
		if !ok {
			return nil, &UnsupportedDependencyError{
				File: filename, Line: line, Column: col,
				Reason: fmt.Sprintf("%s() argument must be a string literal", r.opts.RequireIdent),
			}
		}

		dep, err := modpath.Resolve(requiringDir, string(lit.Value), r.opts.Extension)
		if err != nil {
			return nil, fmt.Errorf("%s:%d:%d: %w", filename, line, col, err)
		}

		edits = append(edits,
			edit{start: int(callee.Idx0()) - base, end: int(callee.Idx1()) - base, text: r.opts.LoaderIdent},
			edit{start: int(lit.Idx0()) - base, end: int(lit.Idx1()) - base, text: dep.Quote()},
		)
		result.Dependencies = append(result.Dependencies, dep)
	}

	result.Code = splice(source, edits)
	return result, nil
}

// splice applies non-overlapping edits, which must be sorted by start offset.
func splice(src string, edits []edit) string {
	if len(edits) == 0 {
		return src
	}
	var sb strings.Builder
	sb.Grow(len(src))
	last := 0
	for _, e := range edits {
		sb.WriteString(src[last:e.start])
		sb.WriteString(e.text)
		last = e.end
	}
	sb.WriteString(src[last:])
	return sb.String()
}

// position converts a byte offset into a 1-based line and column.
func position(src string, offset int) (line, col int) {
	offset = min(max(offset, 0), len(src))
	before := src[:offset]
	line = strings.Count(before, "\n") + 1
	col = offset - strings.LastIndexByte(before, '\n')
	return line, col
}

var fileType = reflect.TypeOf((*file.File)(nil))

// collectCalls returns every call expression in the tree ordered by source position.
// goja's AST has no visitor, so the tree is walked reflectively over exported fields.
// Declaration lists share nodes with the statement tree; each node is visited once.
func collectCalls(program *ast.Program) []*ast.CallExpression {
	w := &callWalker{seen: make(map[any]struct{})}
	w.walk(reflect.ValueOf(program))
	slices.SortFunc(w.calls, func(a, b *ast.CallExpression) int {
		return int(a.Idx0()) - int(b.Idx0())
	})
	return w.calls
}

type callWalker struct {
	seen  map[any]struct{}
	calls []*ast.CallExpression
}

func (w *callWalker) walk(v reflect.Value) {
	switch v.Kind() {
	case reflect.Interface:
		if !v.IsNil() {
			w.walk(v.Elem())
		}
	case reflect.Pointer:
		if v.IsNil() || v.Type() == fileType {
			return
		}
		key := v.Interface()
		if _, ok := w.seen[key]; ok {
			return
		}
		w.seen[key] = struct{}{}
		if call, ok := key.(*ast.CallExpression); ok {
			w.calls = append(w.calls, call)
		}
		w.walk(v.Elem())
	case reflect.Struct:
		t := v.Type()
		for i := range v.NumField() {
			if t.Field(i).IsExported() {
				w.walk(v.Field(i))
			}
		}
	case reflect.Slice, reflect.Array:
		for i := range v.Len() {
			w.walk(v.Index(i))
		}
	}
}
