// SPDX-License-Identifier: MPL-2.0

// Package hooks implements the build lifecycle: a closed set of events, a registry of
// synchronous listeners per event, and the plugin catalog that attaches listeners to it.
//
// Listeners run in subscription order on the goroutine that fires the event. A build owns
// exactly one Registry; nothing here is safe for concurrent Fire calls.
package hooks
