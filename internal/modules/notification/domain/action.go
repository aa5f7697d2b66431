package domain

import "time"

type ActionType string

const (
	ActionAdd     ActionType = "ADD"
	ActionUpdate  ActionType = "UPDATE"
	ActionUpsert  ActionType = "UPSERT"
	ActionDismiss ActionType = "DISMISS"
	ActionRemove  ActionType = "REMOVE"
	ActionPause   ActionType = "PAUSE"
	ActionResume  ActionType = "RESUME"
)

// Action is a state transition dispatched to a surface. Toast is used by
// ADD and UPSERT, ID and Patch by UPDATE, ID by DISMISS and REMOVE (empty
// means every toast), Time by PAUSE and RESUME.
type Action struct {
	Type  ActionType
	Toast Toast
	ID    string
	Patch Patch
	Time  time.Time
}

func Add(t Toast) Action    { return Action{Type: ActionAdd, Toast: t} }
func Upsert(t Toast) Action { return Action{Type: ActionUpsert, Toast: t} }

func Update(id string, p Patch) Action { return Action{Type: ActionUpdate, ID: id, Patch: p} }

// Dismiss hides the toast with id, or every toast when id is empty.
func Dismiss(id string) Action { return Action{Type: ActionDismiss, ID: id} }

// Remove deletes the toast with id, or every toast when id is empty.
func Remove(id string) Action { return Action{Type: ActionRemove, ID: id} }

func Pause(at time.Time) Action  { return Action{Type: ActionPause, Time: at} }
func Resume(at time.Time) Action { return Action{Type: ActionResume, Time: at} }

// Reduce applies a to state and returns the next state. The input state is
// not modified. Toast lists never exceed limit after an ADD; the oldest
// entries are dropped.
func Reduce(state SurfaceState, a Action, limit int) SurfaceState {
	if limit <= 0 {
		limit = DefaultToastLimit
	}
	next := state.Clone()

	switch a.Type {
	case ActionAdd:
		toasts := make([]Toast, 0, len(next.Toasts)+1)
		toasts = append(toasts, a.Toast)
		toasts = append(toasts, next.Toasts...)
		if len(toasts) > limit {
			toasts = toasts[:limit]
		}
		next.Toasts = toasts

	case ActionUpsert:
		if _, ok := next.Find(a.Toast.ID); !ok {
			return Reduce(state, Add(a.Toast), limit)
		}
		for i, t := range next.Toasts {
			if t.ID == a.Toast.ID {
				replaced := a.Toast
				replaced.Height = t.Height
				if replaced.Dismissed {
					replaced.Visible = false
				}
				next.Toasts[i] = replaced
			}
		}

	case ActionUpdate:
		for i, t := range next.Toasts {
			if t.ID == a.ID {
				next.Toasts[i] = a.Patch.apply(t)
			}
		}

	case ActionDismiss:
		for i, t := range next.Toasts {
			if a.ID == "" || t.ID == a.ID {
				t.Dismissed = true
				t.Visible = false
				next.Toasts[i] = t
			}
		}

	case ActionRemove:
		if a.ID == "" {
			next.Toasts = []Toast{}
			break
		}
		kept := next.Toasts[:0]
		for _, t := range next.Toasts {
			if t.ID != a.ID {
				kept = append(kept, t)
			}
		}
		next.Toasts = kept

	case ActionPause:
		// a second pause keeps the first start so no paused time is lost
		if next.PausedAt == nil {
			at := a.Time
			next.PausedAt = &at
		}

	case ActionResume:
		if next.PausedAt == nil {
			break
		}
		diff := a.Time.Sub(*next.PausedAt)
		if diff < 0 {
			diff = 0
		}
		for i := range next.Toasts {
			next.Toasts[i].PauseDuration += diff
		}
		next.PausedAt = nil

	default:
		return state
	}

	next.Version = state.Version + 1
	return next
}
