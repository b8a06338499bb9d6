// Package zap resolves named frequency-zap modes to mask files consumed by
// the rendering tool. The mapping is open: new instruments or bands are
// registered, never hard-wired into branch logic.
package zap

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

var (
	// ErrUnknownMode is returned for zap modes with no registered mask.
	ErrUnknownMode = errors.New("unknown zap mode")

	// ErrMissingMaskFile is returned when a registered mode resolves to a
	// mask file that does not exist.
	ErrMissingMaskFile = errors.New("zap mask file does not exist")
)

// ModeNone disables zapping; it still resolves to a mask file so the
// rendering invocation stays uniform.
const ModeNone = "None"

// Registry maps zap mode names to mask file paths.
type Registry struct {
	mu    sync.RWMutex
	masks map[string]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{masks: make(map[string]string)}
}

// NewDefaultRegistry creates a registry preloaded with the known
// instrument/band masks under maskDir.
func NewDefaultRegistry(maskDir string) *Registry {
	r := NewRegistry()
	for _, mode := range []string{
		ModeNone,
		"Lovell_20cm",
		"Lovell_80cm",
		"MeerKAT_20cm",
	} {
		r.Register(mode, filepath.Join(maskDir, maskFileName(mode)))
	}
	return r
}

// maskFileName maps a mode to its conventional psrsh file name.
func maskFileName(mode string) string {
	if mode == ModeNone {
		return "none.psh"
	}
	return mode + ".psh"
}

// Register adds or replaces the mask path for a mode.
func (r *Registry) Register(mode, maskPath string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.masks[mode] = maskPath
}

// Resolve returns the mask file path for a mode. Returns ErrUnknownMode for
// unregistered modes and ErrMissingMaskFile when the resolved path does not
// exist on disk.
func (r *Registry) Resolve(mode string) (string, error) {
	r.mu.RLock()
	path, ok := r.masks[mode]
	r.mu.RUnlock()

	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownMode, mode)
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("%w: %s", ErrMissingMaskFile, path)
	}
	return path, nil
}

// Modes returns the registered mode names, sorted.
func (r *Registry) Modes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	modes := make([]string, 0, len(r.masks))
	for mode := range r.masks {
		modes = append(modes, mode)
	}
	sort.Strings(modes)
	return modes
}
