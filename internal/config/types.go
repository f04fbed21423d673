// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

const (
	// DefaultEntry is the entry module used when none is configured.
	DefaultEntry = "./src/index.js"
	// DefaultOutputPath is the output directory used when none is configured.
	DefaultOutputPath = "dist"
	// DefaultOutputFilename is the artifact name used when none is configured.
	DefaultOutputFilename = "bundle.js"
	// DefaultExtension is appended to extensionless requests.
	DefaultExtension = ".js"
)

var (
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrInvalidField is the sentinel error wrapped by InvalidFieldError.
	ErrInvalidField = errors.New("invalid config field")
)

type (
	// Config holds the build configuration.
	Config struct {
		// Entry is the entry module path, relative to the project root.
		Entry string `json:"entry" mapstructure:"entry" toml:"entry"`
		// Output configures where the bundle is written.
		Output OutputConfig `json:"output" mapstructure:"output" toml:"output"`
		// Module holds the loader rules.
		Module ModuleConfig `json:"module" mapstructure:"module" toml:"module"`
		// Resolve configures request resolution.
		Resolve ResolveConfig `json:"resolve" mapstructure:"resolve" toml:"resolve"`
		// Build configures graph construction.
		Build BuildConfig `json:"build" mapstructure:"build" toml:"build"`
		// Plugins lists plugin ids attached in order.
		Plugins []string `json:"plugins" mapstructure:"plugins" toml:"plugins"`
	}

	// OutputConfig configures the emitted artifact.
	OutputConfig struct {
		Path     string `json:"path" mapstructure:"path" toml:"path"`
		Filename string `json:"filename" mapstructure:"filename" toml:"filename"`
		// Template replaces the built-in runtime template when set.
		Template string `json:"template,omitempty" mapstructure:"template" toml:"template,omitempty"`
	}

	// ModuleConfig holds loader rules in evaluation order.
	ModuleConfig struct {
		Rules []RuleConfig `json:"rules" mapstructure:"rules" toml:"rules"`
	}

	// RuleConfig selects files by regexp and/or glob and names the transforms applied to them.
	RuleConfig struct {
		Test    string   `json:"test,omitempty" mapstructure:"test" toml:"test,omitempty"`
		Include string   `json:"include,omitempty" mapstructure:"include" toml:"include,omitempty"`
		Use     []string `json:"use" mapstructure:"use" toml:"use"`
	}

	// ResolveConfig configures request resolution.
	ResolveConfig struct {
		Extension string `json:"extension" mapstructure:"extension" toml:"extension"`
	}

	// BuildConfig configures graph construction.
	BuildConfig struct {
		// Revisit rebuilds a module every time it is reached instead of once per build.
		Revisit bool `json:"revisit" mapstructure:"revisit" toml:"revisit"`
	}

	// InvalidFieldError describes one invalid configuration field.
	// It wraps ErrInvalidField for errors.Is() compatibility.
	InvalidFieldError struct {
		Field  string
		Reason string
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors.
	InvalidConfigError struct {
		FieldErrors []error
	}
)

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Entry: DefaultEntry,
		Output: OutputConfig{
			Path:     DefaultOutputPath,
			Filename: DefaultOutputFilename,
		},
		Module:  ModuleConfig{Rules: []RuleConfig{}},
		Resolve: ResolveConfig{Extension: DefaultExtension},
		Plugins: []string{},
	}
}

// Error implements the error interface for InvalidFieldError.
func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Unwrap returns ErrInvalidField for errors.Is() compatibility.
func (e *InvalidFieldError) Unwrap() error { return ErrInvalidField }

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// IsValid returns whether the rule has a selector, valid patterns and at least one
// transform. field prefixes the field names of returned errors.
func (r RuleConfig) IsValid(field string) (bool, []error) {
	var errs []error
	if r.Test == "" && r.Include == "" {
		errs = append(errs, &InvalidFieldError{Field: field, Reason: "needs test or include"})
	}
	if r.Test != "" {
		if _, err := regexp.Compile(r.Test); err != nil {
			errs = append(errs, &InvalidFieldError{Field: field + ".test", Reason: err.Error()})
		}
	}
	if r.Include != "" && !doublestar.ValidatePattern(r.Include) {
		errs = append(errs, &InvalidFieldError{Field: field + ".include", Reason: fmt.Sprintf("invalid glob %q", r.Include)})
	}
	if len(r.Use) == 0 {
		errs = append(errs, &InvalidFieldError{Field: field + ".use", Reason: "must name at least one transform"})
	}
	for i, id := range r.Use {
		if strings.TrimSpace(id) == "" {
			errs = append(errs, &InvalidFieldError{Field: fmt.Sprintf("%s.use[%d]", field, i), Reason: "empty transform id"})
		}
	}
	return len(errs) == 0, errs
}

// IsValid returns whether the Config has valid fields.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if strings.TrimSpace(c.Entry) == "" {
		errs = append(errs, &InvalidFieldError{Field: "entry", Reason: "must be non-empty"})
	} else if filepath.IsAbs(c.Entry) {
		errs = append(errs, &InvalidFieldError{Field: "entry", Reason: "must be relative to the project root"})
	}
	if strings.TrimSpace(c.Output.Path) == "" {
		errs = append(errs, &InvalidFieldError{Field: "output.path", Reason: "must be non-empty"})
	}
	if strings.TrimSpace(c.Output.Filename) == "" {
		errs = append(errs, &InvalidFieldError{Field: "output.filename", Reason: "must be non-empty"})
	} else if strings.ContainsAny(c.Output.Filename, `/\`) {
		errs = append(errs, &InvalidFieldError{Field: "output.filename", Reason: "must be a file name, not a path"})
	}
	for i, rule := range c.Module.Rules {
		if valid, fieldErrs := rule.IsValid(fmt.Sprintf("module.rules[%d]", i)); !valid {
			errs = append(errs, fieldErrs...)
		}
	}
	if !strings.HasPrefix(c.Resolve.Extension, ".") || len(c.Resolve.Extension) < 2 {
		errs = append(errs, &InvalidFieldError{Field: "resolve.extension", Reason: fmt.Sprintf("%q must start with '.'", c.Resolve.Extension)})
	}
	for i, id := range c.Plugins {
		if strings.TrimSpace(id) == "" {
			errs = append(errs, &InvalidFieldError{Field: fmt.Sprintf("plugins[%d]", i), Reason: "empty plugin id"})
		}
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Validate returns the InvalidConfigError describing every invalid field, or nil.
func (c Config) Validate() error {
	if valid, errs := c.IsValid(); !valid {
		return errs[0]
	}
	return nil
}
