package domain

import "time"

const (
	DefaultSurface    = "default"
	DefaultToastLimit = 20
)

// SurfaceState is the state of one independent toast container.
type SurfaceState struct {
	Toasts   []Toast    `json:"toasts"`
	PausedAt *time.Time `json:"pausedAt,omitempty"`
	Version  uint64     `json:"version"`
}

// Clone returns a deep copy safe to hand to listeners.
func (s SurfaceState) Clone() SurfaceState {
	out := SurfaceState{Version: s.Version}
	out.Toasts = make([]Toast, len(s.Toasts))
	copy(out.Toasts, s.Toasts)
	if s.PausedAt != nil {
		p := *s.PausedAt
		out.PausedAt = &p
	}
	return out
}

// Find returns the toast with id.
func (s SurfaceState) Find(id string) (Toast, bool) {
	for _, t := range s.Toasts {
		if t.ID == id {
			return t, true
		}
	}
	return Toast{}, false
}

func (s SurfaceState) Paused() bool {
	return s.PausedAt != nil
}

// Idle reports whether the surface holds nothing worth keeping.
func (s SurfaceState) Idle() bool {
	return len(s.Toasts) == 0 && s.PausedAt == nil
}

// Listener receives the state of a surface after a change.
type Listener func(surface string, state SurfaceState)
