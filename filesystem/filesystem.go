// Package filesystem routes all disk access through a swappable afero backend,
// so tests can run against memory instead of the host filesystem.
package filesystem

import (
	"sync"

	"github.com/spf13/afero"
)

var (
	mu      sync.RWMutex
	backend = afero.Afero{Fs: afero.NewOsFs()}
)

// API returns the active backend.
func API() afero.Afero {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// Use installs fs as the active backend.
func Use(fs afero.Fs) {
	mu.Lock()
	backend = afero.Afero{Fs: fs}
	mu.Unlock()
}

// SetOsFs restores the native operating system backend.
func SetOsFs() {
	Use(afero.NewOsFs())
}

// SetMemMapFs installs a volatile in-memory backend.
func SetMemMapFs() {
	Use(afero.NewMemMapFs())
}
