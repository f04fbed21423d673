// SPDX-License-Identifier: MPL-2.0

package modpath_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/minipack/minipack/pkg/modpath"
)

func TestResolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		dir     string
		request string
		ext     string
		want    modpath.ModulePath
	}{
		{name: "extension inferred", dir: "./src", request: "./a", ext: ".js", want: "./src/a.js"},
		{name: "explicit extension", dir: "./src", request: "./a.js", ext: ".js", want: "./src/a.js"},
		{name: "bare request joins like a relative one", dir: "./src", request: "a", ext: ".js", want: "./src/a.js"},
		{name: "parent directory", dir: "./src/lib", request: "../b", ext: ".js", want: "./src/b.js"},
		{name: "redundant segments", dir: "./src", request: "./x/../y/./c.js", ext: ".js", want: "./src/y/c.js"},
		{name: "root directory", dir: ".", request: "./index", ext: ".js", want: "./index.js"},
		{name: "other extension kept", dir: "./src", request: "./data.txt", ext: ".js", want: "./src/data.txt"},
		{name: "empty extension falls back to default", dir: "./src", request: "./a", ext: "", want: "./src/a.js"},
		{name: "custom default extension", dir: "./src", request: "./a", ext: ".mjs", want: "./src/a.mjs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := modpath.Resolve(tt.dir, tt.request, tt.ext)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Resolve(%q, %q) = %q, want %q", tt.dir, tt.request, got, tt.want)
			}
		})
	}
}

func TestResolve_SpellingsCollapse(t *testing.T) {
	t.Parallel()

	spellings := []string{"./a", "./a.js", "a", "../src/a", "./x/../a.js"}
	for _, s := range spellings {
		got, err := modpath.Resolve("./src", s, ".js")
		if err != nil {
			t.Fatalf("Resolve(%q) error = %v", s, err)
		}
		if got != "./src/a.js" {
			t.Errorf("Resolve(%q) = %q, want ./src/a.js", s, got)
		}
	}
}

func TestResolve_Idempotent(t *testing.T) {
	t.Parallel()

	first, err := modpath.Resolve("./src", "./lib/../a", ".js")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	// A canonical ModulePath is root-relative, so re-resolving it from the root
	// directory must give it back unchanged.
	second, err := modpath.Resolve(".", string(first), ".js")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if first != second {
		t.Errorf("re-resolution changed path: %q -> %q", first, second)
	}
	if modpath.Clean(first) != first {
		t.Errorf("Clean(%q) = %q", first, modpath.Clean(first))
	}
}

func TestResolve_OutsideRoot(t *testing.T) {
	t.Parallel()

	_, err := modpath.Resolve("./src", "../../etc/passwd", ".js")
	if !errors.Is(err, modpath.ErrOutsideRoot) {
		t.Fatalf("expected ErrOutsideRoot, got %v", err)
	}
	var outside *modpath.OutsideRootError
	if !errors.As(err, &outside) || outside.Request != "../../etc/passwd" {
		t.Errorf("expected OutsideRootError carrying the request, got %#v", err)
	}
}

func TestClean_Idempotent(t *testing.T) {
	t.Parallel()

	for _, p := range []modpath.ModulePath{"./src/a.js", "./src//a.js", "./src/./b/../a.js"} {
		once := modpath.Clean(p)
		if twice := modpath.Clean(once); twice != once {
			t.Errorf("Clean not idempotent for %q: %q then %q", p, once, twice)
		}
		if once != "./src/a.js" {
			t.Errorf("Clean(%q) = %q, want ./src/a.js", p, once)
		}
	}
}

func TestFromAbsToAbs(t *testing.T) {
	t.Parallel()

	root := filepath.Join(t.TempDir(), "project")
	abs := filepath.Join(root, "src", "index.js")

	got, err := modpath.FromAbs(root, abs)
	if err != nil {
		t.Fatalf("FromAbs() error = %v", err)
	}
	if got != "./src/index.js" {
		t.Errorf("FromAbs() = %q, want ./src/index.js", got)
	}
	if back := modpath.ToAbs(root, got); back != abs {
		t.Errorf("ToAbs() = %q, want %q", back, abs)
	}

	if _, err := modpath.FromAbs(root, filepath.Dir(root)); !errors.Is(err, modpath.ErrOutsideRoot) {
		t.Errorf("expected ErrOutsideRoot for parent of root, got %v", err)
	}
}

func TestModulePath_Dir(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path modpath.ModulePath
		want string
	}{
		{"./src/index.js", "./src"},
		{"./src/lib/util.js", "./src/lib"},
		{"./index.js", "."},
	}
	for _, tt := range tests {
		if got := tt.path.Dir(); got != tt.want {
			t.Errorf("%q.Dir() = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestModulePath_IsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path modpath.ModulePath
		want bool
	}{
		{"./src/a.js", true},
		{"src/a.js", false},
		{"./src/../a.js", false},
		{"./src/a", false},
	}
	for _, tt := range tests {
		ok, errs := tt.path.IsValid()
		if ok != tt.want {
			t.Errorf("%q.IsValid() = %v, want %v", tt.path, ok, tt.want)
		}
		if !ok && (len(errs) == 0 || !errors.Is(errs[0], modpath.ErrInvalidModulePath)) {
			t.Errorf("%q.IsValid() errors = %v, want ErrInvalidModulePath", tt.path, errs)
		}
	}
}

func TestModulePath_Quote(t *testing.T) {
	t.Parallel()

	if got := modpath.ModulePath("./src/a.js").Quote(); got != `"./src/a.js"` {
		t.Errorf("Quote() = %s", got)
	}
	if got := modpath.ModulePath(`./src/we"ird.js`).Quote(); got != `"./src/we\"ird.js"` {
		t.Errorf("Quote() = %s", got)
	}
}
