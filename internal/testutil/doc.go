// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helpers for tests: in-memory project trees built on afero
// and a manually advanced clock for timing plugins.
package testutil
