// Package timer keeps one pending timer per logical key so callers can
// supersede or cancel scheduled work by name.
package timer

import (
	"strings"
	"sync"
	"time"

	"github.com/brokeradda/portal/internal/shared/clock"
)

type entry struct {
	gen   uint64
	timer clock.Timer
}

// Registry tracks scheduled callbacks by key. A callback whose entry was
// cancelled or replaced never runs.
type Registry struct {
	mu      sync.Mutex
	clock   clock.Clock
	gen     uint64
	entries map[string]entry
}

func NewRegistry(c clock.Clock) *Registry {
	if c == nil {
		c = clock.Real()
	}
	return &Registry{
		clock:   c,
		entries: make(map[string]entry),
	}
}

// Schedule runs fn after d, replacing any timer pending under key.
func (r *Registry) Schedule(key string, d time.Duration, fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.entries[key]; ok {
		old.timer.Stop()
	}
	r.gen++
	gen := r.gen
	t := r.clock.AfterFunc(d, func() {
		r.mu.Lock()
		current, ok := r.entries[key]
		if !ok || current.gen != gen {
			r.mu.Unlock()
			return
		}
		delete(r.entries, key)
		r.mu.Unlock()
		fn()
	})
	r.entries[key] = entry{gen: gen, timer: t}
}

// Cancel stops the timer pending under key and reports whether one existed.
func (r *Registry) Cancel(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[key]
	if !ok {
		return false
	}
	e.timer.Stop()
	delete(r.entries, key)
	return true
}

// CancelPrefix stops every timer whose key starts with prefix.
func (r *Registry) CancelPrefix(prefix string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for key, e := range r.entries {
		if strings.HasPrefix(key, prefix) {
			e.timer.Stop()
			delete(r.entries, key)
			n++
		}
	}
	return n
}

// CancelAll stops every pending timer.
func (r *Registry) CancelAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key, e := range r.entries {
		e.timer.Stop()
		delete(r.entries, key)
	}
}

func (r *Registry) Pending(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[key]
	return ok
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Clock returns the clock timers are scheduled on.
func (r *Registry) Clock() clock.Clock {
	return r.clock
}
