// SPDX-License-Identifier: MPL-2.0

package hooks

import (
	"errors"
	"fmt"
)

// Lifecycle events. A successful build fires them in the order
// AfterPlugins, EntryOption, Run, Compile, AfterCompile, Emit, Done.
const (
	EntryOption Event = iota
	Compile
	AfterCompile
	AfterPlugins
	Run
	Emit
	Done

	eventCount = int(Done) + 1
)

// ErrUnknownEvent is returned when parsing an event name that is not part of the lifecycle.
var ErrUnknownEvent = errors.New("unknown lifecycle event")

var eventNames = [eventCount]string{
	EntryOption:  "entryOption",
	Compile:      "compile",
	AfterCompile: "afterCompile",
	AfterPlugins: "afterPlugins",
	Run:          "run",
	Emit:         "emit",
	Done:         "done",
}

type (
	// Event identifies a lifecycle point.
	Event int

	// Listener is invoked when its event fires.
	Listener func()

	// Registry holds the ordered listeners of every event.
	Registry struct {
		listeners [eventCount][]Listener
		fired     []Event
	}
)

// String returns the camelCase event name.
func (e Event) String() string {
	if !e.valid() {
		return fmt.Sprintf("Event(%d)", int(e))
	}
	return eventNames[e]
}

func (e Event) valid() bool { return e >= 0 && int(e) < eventCount }

// Events returns every lifecycle event in declaration order.
func Events() []Event {
	out := make([]Event, eventCount)
	for i := range out {
		out[i] = Event(i)
	}
	return out
}

// ParseEvent maps a camelCase event name back to its Event.
func ParseEvent(name string) (Event, error) {
	for i, n := range eventNames {
		if n == name {
			return Event(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownEvent, name)
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Subscribe appends fn to the listeners of event. Subscribing to an event outside the
// lifecycle panics, since it can only come from a programming error.
func (r *Registry) Subscribe(event Event, fn Listener) {
	if !event.valid() {
		panic(fmt.Sprintf("hooks: subscribe to invalid %s", event))
	}
	if fn == nil {
		return
	}
	r.listeners[event] = append(r.listeners[event], fn)
}

// Fire invokes the listeners of event in subscription order. Events with no listeners are
// a no-op.
func (r *Registry) Fire(event Event) {
	if !event.valid() {
		return
	}
	r.fired = append(r.fired, event)
	for _, fn := range r.listeners[event] {
		fn()
	}
}

// Listeners returns how many listeners event has.
func (r *Registry) Listeners(event Event) int {
	if !event.valid() {
		return 0
	}
	return len(r.listeners[event])
}

// Fired returns the events fired so far, in order.
func (r *Registry) Fired() []Event {
	return append([]Event(nil), r.fired...)
}
