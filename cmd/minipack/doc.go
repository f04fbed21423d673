// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for minipack.
//
// This package implements the Cobra command tree for the minipack CLI: building a
// bundle to disk, running a bundle in an embedded JavaScript runtime, printing the
// module graph, and creating or showing configuration.
package cmd
