// SPDX-License-Identifier: MPL-2.0

// Package modpath defines ModulePath, the canonical identifier of a module inside a
// bundle, and the rules that turn a require() request into one.
//
// A ModulePath is always relative to the project root, slash-separated, prefixed with
// "./" and carries an explicit file extension (for example "./src/a.js"). Every spelling
// of a request that points at the same file collapses to the same ModulePath, which is
// what lets the graph builder and the runtime require-cache use it as a map key.
package modpath

import (
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// Prefix is the leading relative-path marker carried by every ModulePath.
const Prefix = "./"

// DefaultExtension is appended to requests that have no extension.
const DefaultExtension = ".js"

var (
	// ErrOutsideRoot is returned when a path resolves above the project root.
	ErrOutsideRoot = errors.New("path escapes project root")
	// ErrInvalidModulePath is the sentinel error wrapped by InvalidModulePathError.
	ErrInvalidModulePath = errors.New("invalid module path")
)

type (
	// ModulePath is a canonical root-relative module identifier such as "./src/a.js".
	ModulePath string

	// OutsideRootError reports a request or file that resolves above the project root.
	// It wraps ErrOutsideRoot for errors.Is() compatibility.
	OutsideRootError struct {
		// From is the directory (or root) the path was resolved against.
		From string
		// Request is the path as it was spelled.
		Request string
	}

	// InvalidModulePathError is returned by IsValid for malformed ModulePath values.
	InvalidModulePathError struct {
		Value  ModulePath
		Reason string
	}
)

// String returns the string representation of the ModulePath.
func (p ModulePath) String() string { return string(p) }

// Dir returns the directory portion of the ModulePath in the "./dir" form used as the
// requiring directory when resolving that module's own requests. Modules at the project
// root report ".".
func (p ModulePath) Dir() string {
	dir := path.Dir(p.trimmed())
	if dir == "." {
		return dir
	}
	return Prefix + dir
}

// Quote returns the ModulePath as a double-quoted JavaScript string literal.
func (p ModulePath) Quote() string {
	b, err := json.Marshal(string(p))
	if err != nil {
		return `""`
	}
	return string(b)
}

// Ext returns the file extension of the ModulePath, including the dot.
func (p ModulePath) Ext() string {
	return path.Ext(string(p))
}

// IsValid reports whether p is in canonical form.
func (p ModulePath) IsValid() (bool, []error) {
	s := string(p)
	switch {
	case !strings.HasPrefix(s, Prefix):
		return false, []error{&InvalidModulePathError{Value: p, Reason: "missing \"./\" prefix"}}
	case Clean(p) != p:
		return false, []error{&InvalidModulePathError{Value: p, Reason: "not in clean form"}}
	case p.Ext() == "":
		return false, []error{&InvalidModulePathError{Value: p, Reason: "missing file extension"}}
	}
	return true, nil
}

func (p ModulePath) trimmed() string {
	return strings.TrimPrefix(string(p), Prefix)
}

// Error implements the error interface for OutsideRootError.
func (e *OutsideRootError) Error() string {
	return fmt.Sprintf("%q resolved from %q escapes the project root", e.Request, e.From)
}

// Unwrap returns ErrOutsideRoot for errors.Is() compatibility.
func (e *OutsideRootError) Unwrap() error { return ErrOutsideRoot }

// Error implements the error interface for InvalidModulePathError.
func (e *InvalidModulePathError) Error() string {
	return fmt.Sprintf("invalid module path %q: %s", e.Value, e.Reason)
}

// Unwrap returns ErrInvalidModulePath for errors.Is() compatibility.
func (e *InvalidModulePathError) Unwrap() error { return ErrInvalidModulePath }

// Clean normalizes a root-relative path into canonical ModulePath form. It is
// idempotent: Clean(Clean(p)) == Clean(p).
func Clean(p ModulePath) ModulePath {
	return ModulePath(Prefix + path.Clean(p.trimmed()))
}

// WithExtension appends ext to request when request has no extension of its own.
// A request such as "./a.min" already has one and is returned unchanged.
func WithExtension(request, ext string) string {
	if ext == "" {
		ext = DefaultExtension
	}
	if path.Ext(request) != "" {
		return request
	}
	return request + ext
}

// Resolve turns a require() request into a ModulePath. The request is completed with
// ext when it has no extension and joined onto requiringDir with slash path rules.
// The result is re-prefixed with "./" whatever the nesting depth.
//
//	Resolve("./src", "./a", ".js")       == "./src/a.js"
//	Resolve("./src", "../lib/b.js", "") == "./lib/b.js"
//	Resolve(".", "./src/a.js", ".js")    == "./src/a.js"
func Resolve(requiringDir, request, ext string) (ModulePath, error) {
	full := WithExtension(request, ext)
	joined := path.Join(requiringDir, full)
	if joined == ".." || strings.HasPrefix(joined, "../") {
		return "", &OutsideRootError{From: requiringDir, Request: request}
	}
	return ModulePath(Prefix + joined), nil
}

// FromAbs computes the ModulePath of an absolute file path below root.
func FromAbs(root, abs string) (ModulePath, error) {
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return "", fmt.Errorf("relativize %s: %w", abs, err)
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", &OutsideRootError{From: root, Request: abs}
	}
	return ModulePath(Prefix + rel), nil
}

// ToAbs maps a ModulePath back to an absolute file path below root.
func ToAbs(root string, p ModulePath) string {
	return filepath.Join(root, filepath.FromSlash(p.trimmed()))
}
