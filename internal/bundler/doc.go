// SPDX-License-Identifier: MPL-2.0

// Package bundler turns an entry module and everything it transitively requires into a
// single JavaScript file.
//
// A Compiler is built from a validated config.Config. Run walks the require graph
// depth-first from the entry (loader chain, then require rewriting, then recursion into
// each dependency), renders the graph into the runtime template and writes the artifact,
// firing lifecycle hooks along the way. A Compiler is single-use and not safe for
// concurrent use.
package bundler
