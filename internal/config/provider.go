// SPDX-License-Identifier: MPL-2.0

package config

import "context"

// LoadOptions defines explicit configuration loading inputs.
type LoadOptions struct {
	// ConfigFilePath forces loading from a specific config file when set.
	ConfigFilePath string
	// ProjectDir is searched for minipack.cue when ConfigFilePath is empty.
	// Defaults to the working directory.
	ProjectDir string
}

// Provider loads configuration from explicit options.
type Provider interface {
	Load(ctx context.Context, opts LoadOptions) (*Config, error)
}

// Loaded is a Config together with the file it came from. Path is empty when no file
// was found and defaults were used.
type Loaded struct {
	*Config
	Path string
}

type fileProvider struct{}

// NewProvider creates a configuration provider reading from the filesystem.
func NewProvider() Provider {
	return &fileProvider{}
}

// Load reads configuration from the requested source.
func (p *fileProvider) Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	loaded, err := LoadFile(ctx, opts)
	if err != nil {
		return nil, err
	}
	return loaded.Config, nil
}
