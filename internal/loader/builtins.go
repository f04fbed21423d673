// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/yuin/goldmark"
)

// errInvalidJSON is returned by the json transform for malformed input.
var errInvalidJSON = errors.New("invalid JSON")

// Builtins returns a registry pre-populated with the bundled transforms:
//
//	uppercase, lowercase, trim   plain text transforms
//	raw                          export the text as a string
//	json                         export a JSON document
//	yaml                         export a YAML document (converted to JSON)
//	markdown                     render Markdown to HTML
//	style                        inject CSS into document.head at runtime
func Builtins() *Registry {
	r := NewRegistry()
	r.Register("uppercase", func(text string) (string, error) { return strings.ToUpper(text), nil })
	r.Register("lowercase", func(text string) (string, error) { return strings.ToLower(text), nil })
	r.Register("trim", func(text string) (string, error) { return strings.TrimSpace(text), nil })
	r.Register("raw", rawTransform)
	r.Register("json", jsonTransform)
	r.Register("yaml", yamlTransform)
	r.Register("markdown", markdownTransform)
	r.Register("style", styleTransform)
	return r
}

// JSString quotes s as a JavaScript string literal.
func JSString(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// Encoding a string cannot fail.
	_ = enc.Encode(s)
	return strings.TrimSuffix(buf.String(), "\n")
}

func exportModule(expr string) string {
	return "module.exports = " + expr + ";\n"
}

func rawTransform(text string) (string, error) {
	return exportModule(JSString(text)), nil
}

func jsonTransform(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if !json.Valid([]byte(trimmed)) {
		return "", errInvalidJSON
	}
	return exportModule(trimmed), nil
}

func yamlTransform(text string) (string, error) {
	out, err := yaml.YAMLToJSON([]byte(text))
	if err != nil {
		return "", fmt.Errorf("convert YAML: %w", err)
	}
	trimmed := strings.TrimSpace(string(out))
	if trimmed == "" {
		trimmed = "null"
	}
	return exportModule(trimmed), nil
}

func markdownTransform(text string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(text), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}

func styleTransform(text string) (string, error) {
	var sb strings.Builder
	sb.WriteString("if (typeof document !== \"undefined\") {\n")
	sb.WriteString("  var style = document.createElement(\"style\");\n")
	fmt.Fprintf(&sb, "  style.textContent = %s;\n", JSString(text))
	sb.WriteString("  document.head.appendChild(style);\n")
	sb.WriteString("}\n")
	sb.WriteString(exportModule(JSString(text)))
	return sb.String(), nil
}
