// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"github.com/minipack/minipack/internal/issue"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName()), []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return dir
}

func TestLoadFile_DefaultsWhenMissing(t *testing.T) {
	t.Parallel()

	loaded, err := LoadFile(context.Background(), LoadOptions{ProjectDir: t.TempDir()})
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if loaded.Path != "" {
		t.Errorf("Path = %q, want empty", loaded.Path)
	}
	want := DefaultConfig()
	if loaded.Entry != want.Entry || loaded.Output != want.Output || loaded.Resolve != want.Resolve {
		t.Errorf("loaded = %+v, want defaults %+v", loaded.Config, want)
	}
	if loaded.Build.Revisit {
		t.Error("Build.Revisit should default to false")
	}
}

func TestLoadFile_FromProjectDir(t *testing.T) {
	t.Parallel()

	dir := writeConfig(t, `
entry: "./src/main.js"
output: {
	path:     "out"
	filename: "app.js"
}
module: rules: [
	{test: "\\.txt$", use: ["raw", "uppercase"]},
	{include: "data/**/*.yaml", use: ["yaml"]},
]
build: revisit: true
plugins: ["timing", "banner"]
`)

	loaded, err := LoadFile(context.Background(), LoadOptions{ProjectDir: dir})
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if loaded.Path != filepath.Join(dir, FileName()) {
		t.Errorf("Path = %q", loaded.Path)
	}
	if loaded.Entry != "./src/main.js" {
		t.Errorf("Entry = %q", loaded.Entry)
	}
	if loaded.Output.Path != "out" || loaded.Output.Filename != "app.js" {
		t.Errorf("Output = %+v", loaded.Output)
	}
	if loaded.Resolve.Extension != DefaultExtension {
		t.Errorf("Resolve.Extension = %q, want default", loaded.Resolve.Extension)
	}
	if !loaded.Build.Revisit {
		t.Error("Build.Revisit = false, want true")
	}
	if !slices.Equal(loaded.Plugins, []string{"timing", "banner"}) {
		t.Errorf("Plugins = %v", loaded.Plugins)
	}

	rules := loaded.Module.Rules
	if len(rules) != 2 {
		t.Fatalf("len(Rules) = %d, want 2", len(rules))
	}
	if rules[0].Test != `\.txt$` || !slices.Equal(rules[0].Use, []string{"raw", "uppercase"}) {
		t.Errorf("Rules[0] = %+v", rules[0])
	}
	if rules[1].Include != "data/**/*.yaml" || rules[1].Test != "" {
		t.Errorf("Rules[1] = %+v", rules[1])
	}
}

func TestLoadFile_SchemaViolation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"unknown field", `entri: "./x.js"`, "entri"},
		{"wrong type", `build: revisit: "yes"`, "build.revisit"},
		{"empty use", `module: rules: [{test: "x", use: []}]`, "use"},
		{"bad extension", `resolve: extension: "js"`, "resolve.extension"},
		{"syntax", `entry: `, FileName()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := writeConfig(t, tt.content)
			_, err := LoadFile(context.Background(), LoadOptions{ProjectDir: dir})
			if err == nil {
				t.Fatal("LoadFile() succeeded, want error")
			}
			var ae *issue.ActionableError
			if !errors.As(err, &ae) {
				t.Fatalf("error type = %T, want *issue.ActionableError", err)
			}
			if ae.Operation != "load configuration" {
				t.Errorf("Operation = %q", ae.Operation)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadFile_GoSideValidation(t *testing.T) {
	t.Parallel()

	dir := writeConfig(t, `module: rules: [{test: "([", use: ["raw"]}, {include: "[", use: ["raw"]}]`)
	_, err := LoadFile(context.Background(), LoadOptions{ProjectDir: dir})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("LoadFile() error = %v, want ErrInvalidConfig", err)
	}
	var ice *InvalidConfigError
	if !errors.As(err, &ice) {
		t.Fatalf("error type = %T, want *InvalidConfigError in chain", err)
	}
	if len(ice.FieldErrors) != 2 {
		t.Errorf("FieldErrors = %v, want 2 entries", ice.FieldErrors)
	}
}

func TestLoadFile_ExplicitPathMissing(t *testing.T) {
	t.Parallel()

	missing := filepath.Join(t.TempDir(), "nope.cue")
	_, err := LoadFile(context.Background(), LoadOptions{ConfigFilePath: missing})
	if err == nil || !strings.Contains(err.Error(), "config file not found") {
		t.Errorf("LoadFile() error = %v, want not found", err)
	}
}

func TestLoadFile_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := LoadFile(ctx, LoadOptions{ProjectDir: t.TempDir()})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("LoadFile() error = %v, want context.Canceled", err)
	}
}

func TestLoadFile_EnvOverride(t *testing.T) {
	dir := writeConfig(t, `output: filename: "from-file.js"`)
	t.Setenv("MINIPACK_OUTPUT_FILENAME", "from-env.js")

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ProjectDir: dir})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Output.Filename != "from-env.js" {
		t.Errorf("Output.Filename = %q, want from-env.js", cfg.Output.Filename)
	}
}

func TestGenerateCUE_RoundTrip(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Module.Rules = []RuleConfig{{Test: `\.txt$`, Include: "src/**", Use: []string{"uppercase"}}}
	cfg.Plugins = []string{"banner"}
	cfg.Output.Template = "runtime.tmpl"

	dir := writeConfig(t, GenerateCUE(cfg))
	loaded, err := LoadFile(context.Background(), LoadOptions{ProjectDir: dir})
	if err != nil {
		t.Fatalf("LoadFile(generated) error = %v", err)
	}
	if loaded.Output != cfg.Output || loaded.Entry != cfg.Entry {
		t.Errorf("loaded = %+v, want %+v", loaded.Config, cfg)
	}
	if len(loaded.Module.Rules) != 1 || loaded.Module.Rules[0].Test != `\.txt$` || loaded.Module.Rules[0].Include != "src/**" {
		t.Errorf("Rules = %+v", loaded.Module.Rules)
	}
}

func TestWriteDefault(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path, err := WriteDefault(dir, false)
	if err != nil {
		t.Fatalf("WriteDefault() error = %v", err)
	}
	if _, err := LoadFile(context.Background(), LoadOptions{ConfigFilePath: path}); err != nil {
		t.Errorf("default config does not load: %v", err)
	}

	if _, err := WriteDefault(dir, false); !errors.Is(err, os.ErrExist) {
		t.Errorf("second WriteDefault() error = %v, want os.ErrExist", err)
	}
	if _, err := WriteDefault(dir, true); err != nil {
		t.Errorf("WriteDefault(force) error = %v", err)
	}
}

func TestEncode(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Module.Rules = []RuleConfig{{Test: `\.txt$`, Use: []string{"uppercase"}}}

	t.Run("json", func(t *testing.T) {
		t.Parallel()
		out, err := Encode(cfg, FormatJSON)
		if err != nil {
			t.Fatalf("Encode() error = %v", err)
		}
		var back Config
		if err := json.Unmarshal([]byte(out), &back); err != nil {
			t.Fatalf("json output does not decode: %v", err)
		}
		if back.Module.Rules[0].Test != `\.txt$` {
			t.Errorf("decoded rule = %+v", back.Module.Rules[0])
		}
	})

	t.Run("toml", func(t *testing.T) {
		t.Parallel()
		out, err := Encode(cfg, FormatTOML)
		if err != nil {
			t.Fatalf("Encode() error = %v", err)
		}
		var back Config
		if err := toml.Unmarshal([]byte(out), &back); err != nil {
			t.Fatalf("toml output does not decode: %v", err)
		}
		if back.Output.Filename != DefaultOutputFilename {
			t.Errorf("decoded output = %+v", back.Output)
		}
	})

	t.Run("yaml", func(t *testing.T) {
		t.Parallel()
		out, err := Encode(cfg, FormatYAML)
		if err != nil {
			t.Fatalf("Encode() error = %v", err)
		}
		if !strings.Contains(out, "filename: bundle.js") {
			t.Errorf("yaml output = %q", out)
		}
	})

	t.Run("unknown", func(t *testing.T) {
		t.Parallel()
		if _, err := Encode(cfg, "ini"); !errors.Is(err, ErrUnknownFormat) {
			t.Errorf("Encode(ini) error = %v", err)
		}
	})
}
