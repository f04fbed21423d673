// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/minipack/minipack/internal/issue"
	"github.com/minipack/minipack/pkg/cueutil"
)

const (
	// AppName is the application name.
	AppName = "minipack"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "minipack"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// EnvPrefix prefixes environment variable overrides.
	EnvPrefix = "MINIPACK"

	// Output formats accepted by Encode.
	FormatCUE  = "cue"
	FormatJSON = "json"
	FormatTOML = "toml"
	FormatYAML = "yaml"
)

// ErrUnknownFormat is returned by Encode for unsupported output formats.
var ErrUnknownFormat = errors.New("unknown config format")

//go:embed config_schema.cue
var configSchema string

// FileName returns the default config file name.
func FileName() string {
	return ConfigFileName + "." + ConfigFileExt
}

// LoadFile performs option-driven config loading and reports which file was used.
func LoadFile(ctx context.Context, opts LoadOptions) (*Loaded, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := newViper()

	resolvedPath := ""
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return nil, issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Run 'minipack init' to create a default " + FileName()).
				WithIssue(issue.ConfigLoadFailedId).
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		resolvedPath = opts.ConfigFilePath
	} else {
		candidate := filepath.Join(opts.ProjectDir, FileName())
		if fileExists(candidate) {
			resolvedPath = candidate
		}
		// No file: defaults and environment only.
	}

	if resolvedPath != "" {
		if err := loadCUEIntoViper(v, resolvedPath); err != nil {
			return nil, issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(resolvedPath).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the configuration values match the expected schema").
				WithSuggestion("Use 'minipack config show' to see the effective configuration").
				WithIssue(issue.ConfigLoadFailedId).
				Wrap(err).
				BuildError()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(resolvedPath).
			WithSuggestion("Loader rule 'test' values are Go regular expressions").
			WithSuggestion("Loader rule 'include' values are doublestar globs such as 'src/**/*.txt'").
			WithIssue(issue.ConfigInvalidId).
			Wrap(err).
			BuildError()
	}

	return &Loaded{Config: &cfg, Path: resolvedPath}, nil
}

// newViper returns a Viper instance seeded with defaults and environment overrides.
func newViper() *viper.Viper {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("entry", defaults.Entry)
	v.SetDefault("output.path", defaults.Output.Path)
	v.SetDefault("output.filename", defaults.Output.Filename)
	v.SetDefault("output.template", defaults.Output.Template)
	v.SetDefault("module.rules", []any{})
	v.SetDefault("resolve.extension", defaults.Resolve.Extension)
	v.SetDefault("build.revisit", defaults.Build.Revisit)
	v.SetDefault("plugins", []string{})

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// loadCUEIntoViper parses a CUE file, validates it against the #Config schema,
// and merges its contents into Viper.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	unified, err := cueutil.Unify(configSchema, "#Config", data, path)
	if err != nil {
		return err
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return cueutil.FormatError(err, path)
	}

	// Merge into Viper (preserves defaults, allows env overrides)
	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// WriteDefault writes a default minipack.cue into dir. It refuses to overwrite an
// existing file unless force is set, and returns the written path.
func WriteDefault(dir string, force bool) (string, error) {
	cfgPath := filepath.Join(dir, FileName())
	if !force && fileExists(cfgPath) {
		return "", issue.NewErrorContext().
			WithOperation("create configuration").
			WithResource(cfgPath).
			WithSuggestion("Pass --force to overwrite it").
			Wrap(os.ErrExist).
			BuildError()
	}

	if err := os.WriteFile(cfgPath, []byte(GenerateCUE(DefaultConfig())), 0o644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}
	return cfgPath, nil
}

// Encode renders cfg in the requested format.
func Encode(cfg *Config, format string) (string, error) {
	switch format {
	case FormatCUE, "":
		return GenerateCUE(cfg), nil
	case FormatJSON:
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return "", err
		}
		return string(data) + "\n", nil
	case FormatTOML:
		data, err := toml.Marshal(cfg)
		if err != nil {
			return "", err
		}
		return string(data), nil
	case FormatYAML:
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return "", err
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("%w: %q (want %s, %s, %s or %s)", ErrUnknownFormat, format, FormatCUE, FormatJSON, FormatTOML, FormatYAML)
	}
}

// GenerateCUE generates a CUE representation of the configuration
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// minipack configuration\n\n")

	fmt.Fprintf(&sb, "entry: %q\n", cfg.Entry)

	sb.WriteString("\noutput: {\n")
	fmt.Fprintf(&sb, "\tpath:     %q\n", cfg.Output.Path)
	fmt.Fprintf(&sb, "\tfilename: %q\n", cfg.Output.Filename)
	if cfg.Output.Template != "" {
		fmt.Fprintf(&sb, "\ttemplate: %q\n", cfg.Output.Template)
	}
	sb.WriteString("}\n")

	sb.WriteString("\nmodule: rules: [")
	if len(cfg.Module.Rules) > 0 {
		sb.WriteString("\n")
		for _, rule := range cfg.Module.Rules {
			var fields []string
			if rule.Test != "" {
				fields = append(fields, fmt.Sprintf("test: %q", rule.Test))
			}
			if rule.Include != "" {
				fields = append(fields, fmt.Sprintf("include: %q", rule.Include))
			}
			fields = append(fields, "use: "+quoteList(rule.Use))
			fmt.Fprintf(&sb, "\t{%s},\n", strings.Join(fields, ", "))
		}
	}
	sb.WriteString("]\n")

	fmt.Fprintf(&sb, "\nresolve: extension: %q\n", cfg.Resolve.Extension)
	fmt.Fprintf(&sb, "build: revisit: %v\n", cfg.Build.Revisit)
	fmt.Fprintf(&sb, "\nplugins: %s\n", quoteList(cfg.Plugins))

	return sb.String()
}

func quoteList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = fmt.Sprintf("%q", s)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
