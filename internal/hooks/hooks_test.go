// SPDX-License-Identifier: MPL-2.0

package hooks

import (
	"bytes"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/minipack/minipack/internal/testutil"
)

func TestEvent_String(t *testing.T) {
	t.Parallel()

	want := []string{"entryOption", "compile", "afterCompile", "afterPlugins", "run", "emit", "done"}
	var got []string
	for _, ev := range Events() {
		got = append(got, ev.String())
	}
	if !slices.Equal(got, want) {
		t.Errorf("Events() names = %v, want %v", got, want)
	}
	if s := Event(99).String(); s != "Event(99)" {
		t.Errorf("Event(99).String() = %q", s)
	}
}

func TestParseEvent(t *testing.T) {
	t.Parallel()

	for _, ev := range Events() {
		got, err := ParseEvent(ev.String())
		if err != nil || got != ev {
			t.Errorf("ParseEvent(%q) = %v, %v", ev.String(), got, err)
		}
	}
	if _, err := ParseEvent("beforeRun"); !errors.Is(err, ErrUnknownEvent) {
		t.Errorf("ParseEvent(beforeRun) error = %v, want ErrUnknownEvent", err)
	}
}

func TestRegistry_FireInSubscriptionOrder(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	var calls []string
	r.Subscribe(Compile, func() { calls = append(calls, "first") })
	r.Subscribe(Compile, func() { calls = append(calls, "second") })
	r.Subscribe(Done, func() { calls = append(calls, "done") })

	r.Fire(Compile)
	if !slices.Equal(calls, []string{"first", "second"}) {
		t.Errorf("calls after Compile = %v", calls)
	}

	r.Fire(Emit) // no listeners
	r.Fire(Done)
	if !slices.Equal(calls, []string{"first", "second", "done"}) {
		t.Errorf("calls after Done = %v", calls)
	}
	if !slices.Equal(r.Fired(), []Event{Compile, Emit, Done}) {
		t.Errorf("Fired() = %v", r.Fired())
	}
}

func TestRegistry_Listeners(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Subscribe(Run, func() {})
	r.Subscribe(Run, func() {})
	r.Subscribe(Run, nil)

	if n := r.Listeners(Run); n != 2 {
		t.Errorf("Listeners(Run) = %d, want 2", n)
	}
	if n := r.Listeners(Emit); n != 0 {
		t.Errorf("Listeners(Emit) = %d, want 0", n)
	}
	if n := r.Listeners(Event(-1)); n != 0 {
		t.Errorf("Listeners(-1) = %d, want 0", n)
	}
}

func TestRegistry_SubscribeInvalidPanics(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Error("Subscribe(invalid) did not panic")
		}
	}()
	NewRegistry().Subscribe(Event(42), func() {})
}

func TestCatalog_Resolve(t *testing.T) {
	t.Parallel()

	c := Builtins()
	if !slices.Equal(c.IDs(), []string{PluginBanner, PluginLogHooks, PluginTiming}) {
		t.Errorf("IDs() = %v", c.IDs())
	}

	_, err := c.Resolve("minify")
	if !errors.Is(err, ErrUnknownPlugin) {
		t.Fatalf("Resolve(minify) error = %v, want ErrUnknownPlugin", err)
	}
	if !strings.Contains(err.Error(), "timing") {
		t.Errorf("error %q does not list available plugins", err)
	}

	c.Register("custom", func(PluginContext) Plugin { return PluginFunc(func(*Registry) {}) })
	if _, err := c.Resolve("custom"); err != nil {
		t.Errorf("Resolve(custom) error = %v", err)
	}
}

func TestLogHooks(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := log.New(&buf)
	logger.SetLevel(log.DebugLevel)

	r := NewRegistry()
	NewLogHooks(PluginContext{Logger: logger}).Attach(r)
	for _, ev := range Events() {
		if r.Listeners(ev) != 1 {
			t.Errorf("Listeners(%s) = %d, want 1", ev, r.Listeners(ev))
		}
	}

	r.Fire(AfterCompile)
	if !strings.Contains(buf.String(), "afterCompile") {
		t.Errorf("log output %q does not name the event", buf.String())
	}
}

func TestTiming(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	clock := testutil.NewFakeClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

	r := NewRegistry()
	NewTiming(PluginContext{Logger: log.New(&buf), Clock: clock}).Attach(r)

	r.Fire(Run)
	clock.Advance(time.Second)
	r.Fire(Compile)
	clock.Advance(3 * time.Second)
	r.Fire(AfterCompile)
	clock.Advance(time.Second)
	r.Fire(Done)

	out := buf.String()
	if !strings.Contains(out, "elapsed=5s") {
		t.Errorf("log output %q lacks elapsed=5s", out)
	}
	if !strings.Contains(out, "graph=3s") {
		t.Errorf("log output %q lacks graph=3s", out)
	}
}

func TestBanner(t *testing.T) {
	t.Parallel()

	var banners []string
	r := NewRegistry()
	NewBanner(PluginContext{
		Entry:     "./src/index.js",
		AddBanner: func(s string) { banners = append(banners, s) },
	}).Attach(r)

	r.Fire(Compile)
	if len(banners) != 0 {
		t.Fatalf("banner added before afterCompile: %v", banners)
	}
	r.Fire(AfterCompile)
	if len(banners) != 1 || !strings.Contains(banners[0], "./src/index.js") {
		t.Errorf("banners = %v", banners)
	}
}
