// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
)

var (
	// ErrRead is returned when a module file cannot be read.
	ErrRead = errors.New("read module source")
	// ErrUnknownTransform is returned when a rule names a transform id that is not registered.
	ErrUnknownTransform = errors.New("unknown transform")
	// ErrTransformFailed is returned when a transform returns an error or panics.
	ErrTransformFailed = errors.New("transform failed")
	// ErrInvalidRule is returned when a rule has no pattern, an unparsable pattern, or
	// an empty chain.
	ErrInvalidRule = errors.New("invalid loader rule")
)

type (
	// Transform converts module text into new text.
	Transform func(text string) (string, error)

	// TransformError reports a transform that failed while processing a file.
	// It wraps ErrTransformFailed and the transform's own error.
	TransformError struct {
		ID   string
		Path string
		Err  error
	}

	// Rule selects files by pattern and holds the resolved transform chain for them.
	Rule struct {
		// Test is matched against the absolute, slash-separated file path.
		Test *regexp.Regexp
		// Include is a doublestar glob matched against the root-relative path.
		Include string
		// Use lists the transform ids in configuration order.
		Use []string

		chain []Transform
	}

	// Chain reads module files and applies every matching rule.
	Chain struct {
		fs    afero.Fs
		root  string
		rules []*Rule
	}
)

// Error implements the error interface.
func (e *TransformError) Error() string {
	return fmt.Sprintf("transform %q on %s: %v", e.ID, e.Path, e.Err)
}

// Unwrap exposes both ErrTransformFailed and the transform's error.
func (e *TransformError) Unwrap() []error {
	return []error{ErrTransformFailed, e.Err}
}

// NewRule builds a rule from its configured form. At least one of test (a regular
// expression) or include (a doublestar glob) must be set; when both are set a file must
// match both. Every id in use is resolved against reg.
func NewRule(test, include string, use []string, reg *Registry) (*Rule, error) {
	if test == "" && include == "" {
		return nil, fmt.Errorf("%w: rule needs a test or include pattern", ErrInvalidRule)
	}
	if len(use) == 0 {
		return nil, fmt.Errorf("%w: rule %q has an empty use list", ErrInvalidRule, test+include)
	}

	rule := &Rule{Include: include, Use: slices.Clone(use)}
	if test != "" {
		re, err := regexp.Compile(test)
		if err != nil {
			return nil, fmt.Errorf("%w: test %q: %w", ErrInvalidRule, test, err)
		}
		rule.Test = re
	}
	if include != "" && !doublestar.ValidatePattern(include) {
		return nil, fmt.Errorf("%w: include %q is not a valid glob", ErrInvalidRule, include)
	}

	rule.chain = make([]Transform, len(use))
	for i, id := range use {
		t, err := reg.Resolve(id)
		if err != nil {
			return nil, err
		}
		rule.chain[i] = t
	}
	return rule, nil
}

// Matches reports whether the rule selects the file. absPath is the absolute file path
// and relPath the path relative to the project root, both slash-separated.
func (r *Rule) Matches(absPath, relPath string) bool {
	if r.Test != nil && !r.Test.MatchString(absPath) {
		return false
	}
	if r.Include != "" {
		ok, err := doublestar.Match(r.Include, relPath)
		if err != nil || !ok {
			return false
		}
	}
	return true
}

// String describes the rule by its patterns.
func (r *Rule) String() string {
	var parts []string
	if r.Test != nil {
		parts = append(parts, "test="+r.Test.String())
	}
	if r.Include != "" {
		parts = append(parts, "include="+r.Include)
	}
	return strings.Join(parts, " ")
}

// Apply runs the chain on text, last configured transform first.
func (r *Rule) Apply(path, text string) (string, error) {
	for i := len(r.chain) - 1; i >= 0; i-- {
		out, err := invoke(r.chain[i], text)
		if err != nil {
			return "", &TransformError{ID: r.Use[i], Path: path, Err: err}
		}
		text = out
	}
	return text, nil
}

// invoke calls t, converting a panic into an error.
func invoke(t Transform, text string) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return t(text)
}

// NewChain creates a loader chain reading files from fs. root is the project root that
// include globs are evaluated against.
func NewChain(fs afero.Fs, root string, rules ...*Rule) *Chain {
	return &Chain{fs: fs, root: root, rules: rules}
}

// Rules returns the chain's rules in configuration order.
func (c *Chain) Rules() []*Rule {
	return slices.Clone(c.rules)
}

// MatchingRules returns the indices of the rules that select absPath.
func (c *Chain) MatchingRules(absPath string) []int {
	slashAbs := filepath.ToSlash(absPath)
	rel := slashAbs
	if r, err := filepath.Rel(c.root, absPath); err == nil {
		rel = filepath.ToSlash(r)
	}

	var matched []int
	for i, rule := range c.rules {
		if rule.Matches(slashAbs, rel) {
			matched = append(matched, i)
		}
	}
	return matched
}

// Load reads absPath and applies every matching rule in configuration order. When
// several rules match, their chains compound: each rule receives the previous rule's
// output.
func (c *Chain) Load(absPath string) (string, error) {
	return c.LoadMatched(absPath, c.MatchingRules(absPath))
}

// LoadMatched reads absPath and applies only the rules at the given indices, in the
// order given. Callers that already ran MatchingRules pass its result here.
func (c *Chain) LoadMatched(absPath string, matched []int) (string, error) {
	data, err := afero.ReadFile(c.fs, absPath)
	if err != nil {
		return "", fmt.Errorf("%w %s: %w", ErrRead, absPath, err)
	}

	text := string(data)
	for _, i := range matched {
		text, err = c.rules[i].Apply(absPath, text)
		if err != nil {
			return "", err
		}
	}
	return text, nil
}
