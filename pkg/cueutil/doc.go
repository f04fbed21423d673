// SPDX-License-Identifier: MPL-2.0

// Package cueutil compiles user CUE documents against an embedded schema and turns CUE
// errors into messages that name the offending field.
//
//	//go:embed config_schema.cue
//	var schema string
//
//	unified, err := cueutil.Unify(schema, "#Config", data, "minipack.cue")
//	if err != nil {
//	    return err // e.g. "minipack.cue: output.filename: conflicting values ..."
//	}
package cueutil
