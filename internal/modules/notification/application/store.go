package application

import (
	"sort"
	"sync"
	"time"

	"github.com/brokeradda/portal/internal/modules/notification/domain"
	"github.com/brokeradda/portal/internal/shared/clock"
)

// Listener receives the state of a surface after a dispatch.
type Listener = domain.Listener

// Store holds the toast state of every surface. Actions for a surface are
// reduced in arrival order under the store lock; listeners run afterwards,
// outside the lock, and may dispatch again.
type Store struct {
	mu        sync.Mutex
	clock     clock.Clock
	limit     int
	delay     time.Duration
	metrics   *Metrics
	surfaces  map[string]domain.SurfaceState
	listeners map[string]map[uint64]Listener
	watchers  map[uint64]Listener
	nextID    uint64
}

// NewStore creates an empty store. A nil clock uses real time and a
// non-positive limit uses domain.DefaultToastLimit. metrics may be nil.
func NewStore(limit int, c clock.Clock, metrics *Metrics) *Store {
	if c == nil {
		c = clock.Real()
	}
	if limit <= 0 {
		limit = domain.DefaultToastLimit
	}
	return &Store{
		clock:     c,
		limit:     limit,
		delay:     domain.DefaultRemoveDelay,
		metrics:   metrics,
		surfaces:  make(map[string]domain.SurfaceState),
		listeners: make(map[string]map[uint64]Listener),
		watchers:  make(map[uint64]Listener),
	}
}

func (s *Store) Now() time.Time {
	return s.clock.Now()
}

func (s *Store) Limit() int {
	return s.limit
}

// SetRemoveDelay changes the remove delay given to toasts created through
// a Notifier without an explicit one.
func (s *Store) SetRemoveDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d >= 0 {
		s.delay = d
	}
}

func (s *Store) RemoveDelay() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.delay
}

// Dispatch applies a to surface and notifies the surface listeners, then
// the watchers. It returns the state produced by a.
func (s *Store) Dispatch(surface string, a domain.Action) domain.SurfaceState {
	if surface == "" {
		surface = domain.DefaultSurface
	}

	s.mu.Lock()
	prev, ok := s.surfaces[surface]
	if !ok && s.metrics != nil {
		s.metrics.Surfaces.Inc()
	}
	next := domain.Reduce(prev, a, s.limit)
	s.surfaces[surface] = next

	targets := make([]Listener, 0, len(s.listeners[surface])+len(s.watchers))
	for _, id := range sortedIDs(s.listeners[surface]) {
		targets = append(targets, s.listeners[surface][id])
	}
	for _, id := range sortedIDs(s.watchers) {
		targets = append(targets, s.watchers[id])
	}
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.ActionsTotal.WithLabelValues(string(a.Type)).Inc()
	}

	for _, l := range targets {
		l(surface, next.Clone())
	}
	return next.Clone()
}

// Subscribe registers l for changes of surface only. The returned func
// removes it.
func (s *Store) Subscribe(surface string, l Listener) func() {
	if surface == "" {
		surface = domain.DefaultSurface
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	if s.listeners[surface] == nil {
		s.listeners[surface] = make(map[uint64]Listener)
	}
	s.listeners[surface][id] = l
	if s.metrics != nil {
		s.metrics.Subscribers.Inc()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if _, ok := s.listeners[surface][id]; !ok {
				return
			}
			delete(s.listeners[surface], id)
			if len(s.listeners[surface]) == 0 {
				delete(s.listeners, surface)
			}
			if s.metrics != nil {
				s.metrics.Subscribers.Dec()
			}
		})
	}
}

// Watch registers l for changes of every surface.
func (s *Store) Watch(l Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	s.watchers[id] = l

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.watchers, id)
		})
	}
}

// State returns a copy of the surface state. Unknown surfaces are empty.
func (s *Store) State(surface string) domain.SurfaceState {
	if surface == "" {
		surface = domain.DefaultSurface
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.surfaces[surface].Clone()
}

// Surfaces lists the surfaces that have received at least one action.
func (s *Store) Surfaces() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.surfaces))
	for name := range s.surfaces {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Drop forgets surface when it is idle and nobody listens to it. It
// reports whether the surface is gone.
func (s *Store) Drop(surface string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.surfaces[surface]
	if len(s.listeners[surface]) > 0 || !state.Idle() {
		return false
	}
	if ok {
		delete(s.surfaces, surface)
		if s.metrics != nil {
			s.metrics.Surfaces.Dec()
		}
	}
	return true
}

func sortedIDs(m map[uint64]Listener) []uint64 {
	ids := make([]uint64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
