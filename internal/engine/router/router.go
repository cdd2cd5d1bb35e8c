// Package router registers named engine.Session instances and selects among
// them deterministically. Selection is rule-based: an explicit name wins,
// otherwise the highest-priority available session is used. There is no
// cost-based or format-based routing — a validator targets one named data
// source at a time, and that source's configuration already says which
// engine backs it.
package router

import (
	"sort"
	"sync"

	"github.com/canonica-labs/canonica-validate/internal/engine"
	"github.com/canonica-labs/canonica-validate/internal/errors"
)

// Registration pairs a session with its selection metadata.
type Registration struct {
	Session   engine.Session
	Available bool
	// Priority ranks sessions when a caller asks for "the default" without
	// naming one. Lower numbers are preferred.
	Priority int
}

// Router holds the set of engine sessions a validator run can address.
type Router struct {
	mu    sync.RWMutex
	byName map[string]*Registration
}

// New creates an empty router.
func New() *Router {
	return &Router{byName: make(map[string]*Registration)}
}

// Register adds or replaces a session under name.
func (r *Router) Register(name string, session engine.Session, priority int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byName[name] = &Registration{Session: session, Available: true, Priority: priority}
}

// SetAvailable marks a registered session available or unavailable, e.g.
// after a Ping failure, without removing its registration.
func (r *Router) SetAvailable(name string, available bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if reg, ok := r.byName[name]; ok {
		reg.Available = available
	}
}

// Get returns the named session, or an error if it is not registered or
// currently unavailable.
func (r *Router) Get(name string) (engine.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.byName[name]
	if !ok {
		return nil, errors.NewDataSourceError("no engine registered under name "+name, nil)
	}
	if !reg.Available {
		return nil, errors.NewDataSourceError("engine "+name+" is not currently available", nil)
	}
	return reg.Session, nil
}

// Default returns the available session with the lowest priority value.
func (r *Router) Default() (engine.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var best *Registration
	var bestName string
	for name, reg := range r.byName {
		if !reg.Available {
			continue
		}
		if best == nil || reg.Priority < best.Priority {
			best = reg
			bestName = name
		}
	}
	if best == nil {
		return nil, errors.NewDataSourceError("no engine is currently available", nil)
	}
	_ = bestName
	return best.Session, nil
}

// Names returns the currently available session names, ordered by priority.
func (r *Router) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	type entry struct {
		name     string
		priority int
	}
	entries := make([]entry, 0, len(r.byName))
	for name, reg := range r.byName {
		if reg.Available {
			entries = append(entries, entry{name, reg.Priority})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].priority < entries[j].priority })

	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.name
	}
	return names
}

// CloseAll closes every registered session, returning the first error
// encountered while still attempting to close the rest.
func (r *Router) CloseAll() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var first error
	for _, reg := range r.byName {
		if err := reg.Session.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
