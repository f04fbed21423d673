// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"path/filepath"
	"testing"
)

func TestNewProject(t *testing.T) {
	t.Parallel()

	fs := NewProject(t, map[string]string{
		"src/index.js": "require('./a');",
		"dist/":        "",
	})

	if got := MustReadFile(t, fs, filepath.Join(ProjectRoot, "src", "index.js")); got != "require('./a');" {
		t.Errorf("index.js = %q", got)
	}
	info, err := fs.Stat(filepath.Join(ProjectRoot, "dist"))
	if err != nil || !info.IsDir() {
		t.Errorf("dist should be a directory: %v", err)
	}
	if Exists(fs, filepath.Join(ProjectRoot, "missing.js")) {
		t.Error("Exists(missing.js) = true")
	}
}
