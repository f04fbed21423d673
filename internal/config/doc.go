// SPDX-License-Identifier: MPL-2.0

// Package config loads build configuration using Viper with CUE as the file format.
//
// The file is minipack.cue in the project root unless a path is given explicitly. It is
// validated against an embedded CUE schema (config_schema.cue), merged over the defaults,
// and may be overridden per key through MINIPACK_* environment variables
// (MINIPACK_OUTPUT_FILENAME overrides output.filename). Constraints CUE cannot express,
// such as regexp syntax of loader rules, are checked by Config.Validate.
package config
