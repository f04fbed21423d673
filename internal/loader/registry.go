// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"fmt"
	"slices"
	"strings"
	"sync"
)

// ShellPrefix marks a transform id whose remainder is a shell script run by the
// embedded interpreter, e.g. "sh:sed -e 's/foo/bar/'".
const ShellPrefix = "sh:"

// Registry maps transform ids to transforms. The zero value is not usable; create one
// with NewRegistry or Builtins.
type Registry struct {
	mu         sync.RWMutex
	transforms map[string]Transform
	shellDir   string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{transforms: make(map[string]Transform)}
}

// Register adds or replaces the transform for id.
func (r *Registry) Register(id string, t Transform) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transforms[id] = t
}

// SetShellDir sets the working directory of shell transforms resolved afterwards.
func (r *Registry) SetShellDir(dir string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shellDir = dir
}

// Resolve returns the transform registered under id. Ids carrying ShellPrefix resolve
// to a shell transform compiled from the rest of the id.
func (r *Registry) Resolve(id string) (Transform, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if script, ok := strings.CutPrefix(id, ShellPrefix); ok {
		t, err := NewShellTransform(script, r.shellDir)
		if err != nil {
			return nil, fmt.Errorf("%w %q: %w", ErrUnknownTransform, id, err)
		}
		return t, nil
	}

	t, ok := r.transforms[id]
	if !ok {
		return nil, fmt.Errorf("%w %q (known: %s)", ErrUnknownTransform, id, strings.Join(r.idsLocked(), ", "))
	}
	return t, nil
}

// IDs returns the registered ids in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.idsLocked()
}

func (r *Registry) idsLocked() []string {
	ids := make([]string, 0, len(r.transforms))
	for id := range r.transforms {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
