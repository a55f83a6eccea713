// Package watcher implements spec.md section 4.9's Watcher Registry: named
// expressions bound to a breakpoint id, evaluated on demand against a
// suspended frame. Entries are dual-indexed (by id, by breakpoint id); both
// indexes are mutated inside one critical section so they can never
// disagree, the "two stores updated inside one critical section" rule
// spec.md section 9 calls for instead of two independently-locked maps.
//
// Grounded on teranos-QNTX/server/watcher_handlers.go's CRUD shape
// (create/get/list/delete) and teranos-QNTX/ats/watcher/engine.go's
// in-memory map[string]*storage.Watcher guarded by one sync.RWMutex.
package watcher

import (
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/NicolasVautrin/mcp-jdwp-java/internal/xerrors"
)

// maxFiresPerMinute caps how often evaluate-watchers will actually run a
// given watcher's expression: each fire is a real remote invocation inside
// the target JVM, and evaluate-watchers may be called far more often than
// that (e.g. once per line stepped across a hot loop).
const maxFiresPerMinute = 120

// Watcher is a named expression bound to a breakpoint (spec.md section 3).
type Watcher struct {
	ID           string
	Label        string
	BreakpointID string
	Expression   string

	limiter *rate.Limiter
}

// Allow reports whether this watcher may fire now, consuming one token if
// so. Grounded on teranos-QNTX/ats/watcher/engine.go's per-watcher
// rate.Limiter keyed by watcher id.
func (w *Watcher) Allow() bool {
	return w.limiter.Allow()
}

// Registry is the dual-indexed in-memory watcher store.
type Registry struct {
	mu           sync.RWMutex
	byID         map[string]*Watcher
	byBreakpoint map[string]map[string]bool // breakpointID -> set of watcher ids
}

func New() *Registry {
	return &Registry{
		byID:         make(map[string]*Watcher),
		byBreakpoint: make(map[string]map[string]bool),
	}
}

// Create installs a new watcher with a freshly-generated opaque id.
func (r *Registry) Create(label, breakpointID, expression string) *Watcher {
	r.mu.Lock()
	defer r.mu.Unlock()

	w := &Watcher{
		ID:           newWatcherID(),
		Label:        label,
		BreakpointID: breakpointID,
		Expression:   expression,
		limiter:      rate.NewLimiter(rate.Limit(float64(maxFiresPerMinute)/60.0), 1),
	}
	r.byID[w.ID] = w
	if r.byBreakpoint[breakpointID] == nil {
		r.byBreakpoint[breakpointID] = make(map[string]bool)
	}
	r.byBreakpoint[breakpointID][w.ID] = true
	return w
}

// Get returns the watcher with the given id, or WatcherNotFound.
func (r *Registry) Get(id string) (*Watcher, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.byID[id]
	if !ok {
		return nil, xerrors.WatcherNotFound
	}
	return w, nil
}

// ForBreakpoint returns every watcher attached to breakpointID, in no
// particular order.
func (r *Registry) ForBreakpoint(breakpointID string) []*Watcher {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := r.byBreakpoint[breakpointID]
	out := make([]*Watcher, 0, len(ids))
	for id := range ids {
		out = append(out, r.byID[id])
	}
	return out
}

// All returns every watcher currently registered.
func (r *Registry) All() []*Watcher {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Watcher, 0, len(r.byID))
	for _, w := range r.byID {
		out = append(out, w)
	}
	return out
}

// Delete removes one watcher by id, reporting whether it existed.
func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.delete(id)
}

// delete must be called with r.mu held.
func (r *Registry) delete(id string) bool {
	w, ok := r.byID[id]
	if !ok {
		return false
	}
	delete(r.byID, id)
	bucket := r.byBreakpoint[w.BreakpointID]
	delete(bucket, id)
	if len(bucket) == 0 {
		delete(r.byBreakpoint, w.BreakpointID)
	}
	return true
}

// DeleteForBreakpoint removes every watcher attached to breakpointID,
// returning the count removed.
func (r *Registry) DeleteForBreakpoint(breakpointID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.byBreakpoint[breakpointID]))
	for id := range r.byBreakpoint[breakpointID] {
		ids = append(ids, id)
	}
	for _, id := range ids {
		r.delete(id)
	}
	return len(ids)
}

// Clear removes every watcher from both indexes.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID = make(map[string]*Watcher)
	r.byBreakpoint = make(map[string]map[string]bool)
}

// newWatcherID renders a UUID without separators, the same opaque-id shape
// internal/eval uses for generated class names.
func newWatcherID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}
