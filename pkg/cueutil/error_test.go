// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"strings"
	"testing"
)

const testSchema = `
#Doc: {
	name?:  string & !=""
	count?: int & >=0
	items?: [...{id: string}]
}
`

func TestUnify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{name: "valid", data: `name: "x", count: 2`},
		{name: "empty document", data: ``},
		{name: "syntax error", data: `name: `, wantErr: "doc.cue"},
		{name: "type mismatch", data: `count: "two"`, wantErr: "count"},
		{name: "constraint violation", data: `count: -1`, wantErr: "count"},
		{name: "closed definition", data: `unknown: true`, wantErr: "unknown"},
		{name: "nested list path", data: `items: [{id: 1}]`, wantErr: "items[0].id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			v, err := Unify(testSchema, "#Doc", []byte(tt.data), "doc.cue")
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Unify() error = %v", err)
				}
				var m map[string]any
				if err := v.Decode(&m); err != nil {
					t.Errorf("Decode() error = %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Unify() succeeded, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestUnify_MissingDefinition(t *testing.T) {
	t.Parallel()

	_, err := Unify(testSchema, "#Nope", []byte(`name: "x"`), "doc.cue")
	if err == nil || !strings.Contains(err.Error(), "#Nope") {
		t.Errorf("Unify() error = %v, want missing definition", err)
	}
}

func TestFormatError(t *testing.T) {
	t.Parallel()

	if err := FormatError(nil, "x.cue"); err != nil {
		t.Errorf("FormatError(nil) = %v", err)
	}

	original := errors.New("some error")
	err := FormatError(original, "x.cue")
	if !errors.Is(err, original) {
		t.Errorf("FormatError() should wrap non-CUE errors, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "x.cue: ") {
		t.Errorf("FormatError() = %q, want file prefix", err)
	}
}

func TestFormatPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path []string
		want string
	}{
		{nil, ""},
		{[]string{"entry"}, "entry"},
		{[]string{"output", "filename"}, "output.filename"},
		{[]string{"module", "rules", "0", "use", "1"}, "module.rules[0].use[1]"},
		{[]string{"0"}, "0"},
	}
	for _, tt := range tests {
		if got := formatPath(tt.path); got != tt.want {
			t.Errorf("formatPath(%v) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestCheckFileSize(t *testing.T) {
	t.Parallel()

	if err := CheckFileSize(make([]byte, 10), 10, "f.cue"); err != nil {
		t.Errorf("CheckFileSize(at limit) = %v", err)
	}
	err := CheckFileSize(make([]byte, 11), 10, "f.cue")
	if err == nil || !strings.Contains(err.Error(), "exceeds maximum") {
		t.Errorf("CheckFileSize(over limit) = %v", err)
	}
}
