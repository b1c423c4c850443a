package resolver

import (
	"path/filepath"
	"sync"
)

var (
	sharedMu sync.Mutex
	shared   = map[string]*Resolver{}
)

// ForRoot returns the resolver of the local repository at root. All callers
// within the process get the same instance per root, so lookups of one
// command are served from the cache of an earlier one until DefaultCacheTTL
// passes.
func ForRoot(root string, opts ...Option) *Resolver {
	key := filepath.Clean(root)
	if abs, err := filepath.Abs(key); err == nil {
		key = abs
	}

	sharedMu.Lock()
	defer sharedMu.Unlock()
	if r, ok := shared[key]; ok {
		return r
	}
	r := New(NewLocalRepository(key), opts...)
	shared[key] = r
	return r
}
