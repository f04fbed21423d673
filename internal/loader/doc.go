// SPDX-License-Identifier: MPL-2.0

// Package loader implements the source loader chain: reading a module's file and
// threading its text through the transforms ("loaders") of every rule whose pattern
// matches the file.
//
// Transforms are plain Go functions registered under string ids in a Registry. Rules
// refer to them by id and resolve them once, when the rule is built, so a missing
// transform is reported before any file is read. Within a rule the configured chain runs
// last-to-first, the way webpack applies its "use" arrays.
package loader
