// Package archive assembles executable fat archives.
//
// An Archive is an in-memory, insertion ordered set of entries. Writing an
// entry that already exists replaces its content but keeps its position, so
// the outcome of importing several archives into one is deterministic for a
// fixed import order.
package archive

import (
	"errors"
	"fmt"
	"path"
	"slices"
	"strings"
	"sync"
	"time"
)

const (
	// ManifestPath is the reserved metadata entry.
	ManifestPath = "META-INF/MANIFEST.MF"
	// ServicesDir is the directory holding service registry resources.
	ServicesDir = "META-INF/services/"
)

var ErrInvalidEntryPath = errors.New("invalid entry path")

// Entry is a single file inside an archive.
type Entry struct {
	Name     string
	Data     []byte
	Modified time.Time
}

// Archive must not be shared between concurrent assemblies. The mutex only
// guards the boundary between mutation and export.
type Archive struct {
	mu      sync.Mutex
	entries map[string]*Entry
	order   []string
}

func New() *Archive {
	return &Archive{entries: make(map[string]*Entry)}
}

// Add writes data to name, replacing any previous content.
func (a *Archive) Add(name string, data []byte) error {
	return a.AddEntry(Entry{Name: name, Data: data})
}

func (a *Archive) AddEntry(e Entry) error {
	name, err := CleanEntryName(e.Name)
	if err != nil {
		return err
	}
	e.Name = name

	a.mu.Lock()
	defer a.mu.Unlock()
	a.put(&e)
	return nil
}

func (a *Archive) put(e *Entry) {
	if _, exists := a.entries[e.Name]; !exists {
		a.order = append(a.order, e.Name)
	}
	a.entries[e.Name] = e
}

func (a *Archive) Get(name string) ([]byte, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	e, ok := a.entries[name]
	if !ok {
		return nil, false
	}
	return e.Data, true
}

// Delete removes name and reports whether it existed.
func (a *Archive) Delete(name string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.entries[name]; !ok {
		return false
	}
	delete(a.entries, name)
	a.order = slices.DeleteFunc(a.order, func(n string) bool { return n == name })
	return true
}

// Names returns the entry names in insertion order.
func (a *Archive) Names() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.order)
}

func (a *Archive) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.order)
}

// Entries returns a snapshot of all entries in insertion order.
func (a *Archive) Entries() []Entry {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Entry, 0, len(a.order))
	for _, name := range a.order {
		out = append(out, *a.entries[name])
	}
	return out
}

// Merge imports every entry of other. Entries of other win on collision.
func (a *Archive) Merge(other *Archive) {
	entries := other.Entries()

	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range entries {
		a.put(&entries[i])
	}
}

// CleanEntryName normalizes name to a relative slash separated path and
// rejects anything escaping the archive root.
func CleanEntryName(name string) (string, error) {
	n := strings.ReplaceAll(name, "\\", "/")
	n = strings.TrimPrefix(n, "./")
	if strings.HasPrefix(n, "/") {
		return "", fmt.Errorf("%w %q: absolute paths are not allowed", ErrInvalidEntryPath, name)
	}
	n = path.Clean(n)
	if n == "." || n == "" {
		return "", fmt.Errorf("%w %q: empty name", ErrInvalidEntryPath, name)
	}
	if n == ".." || strings.HasPrefix(n, "../") {
		return "", fmt.Errorf("%w %q: path traversal is not allowed", ErrInvalidEntryPath, name)
	}
	return n, nil
}
