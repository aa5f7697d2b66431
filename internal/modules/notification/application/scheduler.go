package application

import (
	"sync"

	"github.com/brokeradda/portal/internal/modules/notification/domain"
	"github.com/brokeradda/portal/internal/shared/timer"
	"go.uber.org/zap"
)

const (
	dismissPrefix = "dismiss/"
	removePrefix  = "remove/"
)

func dismissKey(surface, id string) string { return dismissPrefix + surface + "/" + id }
func removeKey(surface, id string) string  { return removePrefix + surface + "/" + id }

// Scheduler dismisses toasts when their duration has elapsed and removes
// dismissed toasts after their remove delay. It reconciles its timers with
// the latest surface state after every dispatch.
type Scheduler struct {
	store  *Store
	timers *timer.Registry
	logger *zap.Logger

	mu      sync.Mutex
	closed  bool
	tracked map[string]map[string]struct{}
	unwatch func()
}

func NewScheduler(store *Store, timers *timer.Registry, logger *zap.Logger) *Scheduler {
	if timers == nil {
		timers = timer.NewRegistry(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Scheduler{
		store:   store,
		timers:  timers,
		logger:  logger,
		tracked: make(map[string]map[string]struct{}),
	}
	s.unwatch = store.Watch(func(surface string, _ domain.SurfaceState) {
		s.Reconcile(surface)
	})
	return s
}

// Reconcile recomputes the timers of surface from its current state.
func (s *Scheduler) Reconcile(surface string) {
	expired, idle := s.reconcile(surface)
	for _, id := range expired {
		s.logger.Debug("toast expired", zap.String("surface", surface), zap.String("id", id))
		s.store.Dispatch(surface, domain.Dismiss(id))
	}
	if idle {
		s.Release(surface)
	}
}

func (s *Scheduler) reconcile(surface string) (expired []string, idle bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, false
	}

	state := s.store.State(surface)
	now := s.store.Now()

	present := make(map[string]struct{}, len(state.Toasts))

	for _, t := range state.Toasts {
		present[t.ID] = struct{}{}
		id := t.ID

		if t.Dismissed {
			s.timers.Cancel(dismissKey(surface, id))
			if !s.timers.Pending(removeKey(surface, id)) {
				s.timers.Schedule(removeKey(surface, id), t.RemoveDelay, func() {
					s.store.Dispatch(surface, domain.Remove(id))
				})
			}
			continue
		}
		s.timers.Cancel(removeKey(surface, id))

		if state.Paused() || !t.HasDeadline() {
			s.timers.Cancel(dismissKey(surface, id))
			continue
		}

		remaining := t.Remaining(now)
		if remaining < 0 {
			s.timers.Cancel(dismissKey(surface, id))
			if t.Visible {
				expired = append(expired, id)
			}
			continue
		}
		s.timers.Schedule(dismissKey(surface, id), remaining, func() {
			if current, ok := s.store.State(surface).Find(id); !ok || current.Dismissed {
				return
			}
			s.store.Dispatch(surface, domain.Dismiss(id))
		})
	}

	for id := range s.tracked[surface] {
		if _, ok := present[id]; !ok {
			s.timers.Cancel(dismissKey(surface, id))
			s.timers.Cancel(removeKey(surface, id))
		}
	}
	if len(present) == 0 {
		delete(s.tracked, surface)
	} else {
		s.tracked[surface] = present
	}

	return expired, state.Idle()
}

// Release frees an idle surface: its timers are cancelled and the store
// drops its state. Surfaces with toasts, a pause or listeners are kept.
// It reports whether the surface was released.
func (s *Scheduler) Release(surface string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.store.Drop(surface) {
		return false
	}
	s.timers.CancelPrefix(dismissPrefix + surface + "/")
	s.timers.CancelPrefix(removePrefix + surface + "/")
	delete(s.tracked, surface)
	s.logger.Debug("surface released", zap.String("surface", surface))
	return true
}

// Close stops reconciling and cancels every timer the scheduler owns.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.unwatch()
	s.timers.CancelPrefix(dismissPrefix)
	s.timers.CancelPrefix(removePrefix)
	s.tracked = make(map[string]map[string]struct{})
}
