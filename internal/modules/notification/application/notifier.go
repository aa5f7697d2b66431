package application

import (
	"encoding/json"

	"github.com/brokeradda/portal/internal/modules/notification/domain"
)

// Notifier is the toast API bound to one surface.
type Notifier struct {
	store   *Store
	surface string
}

func NewNotifier(store *Store, surface string) *Notifier {
	if surface == "" {
		surface = domain.DefaultSurface
	}
	return &Notifier{store: store, surface: surface}
}

func (n *Notifier) Surface() string {
	return n.surface
}

func (n *Notifier) Store() *Store {
	return n.store
}

// Show creates a blank toast and returns its id. An id in opts replaces
// the toast with that id instead of adding a new one.
func (n *Notifier) Show(message string, opts domain.Options) string {
	return n.create(domain.TypeBlank, message, opts)
}

func (n *Notifier) Error(message string, opts domain.Options) string {
	return n.create(domain.TypeError, message, opts)
}

func (n *Notifier) Success(message string, opts domain.Options) string {
	return n.create(domain.TypeSuccess, message, opts)
}

func (n *Notifier) Loading(message string, opts domain.Options) string {
	return n.create(domain.TypeLoading, message, opts)
}

// Custom creates a toast carrying an arbitrary JSON payload for the view.
func (n *Notifier) Custom(payload json.RawMessage, opts domain.Options) string {
	opts.Payload = payload
	return n.create(domain.TypeCustom, "", opts)
}

// Create adds a toast of any valid type.
func (n *Notifier) Create(t domain.ToastType, message string, opts domain.Options) (string, error) {
	if !t.Valid() {
		return "", domain.ErrInvalidToastType
	}
	return n.create(t, message, opts), nil
}

func (n *Notifier) create(t domain.ToastType, message string, opts domain.Options) string {
	if opts.RemoveDelay == nil {
		d := n.store.RemoveDelay()
		opts.RemoveDelay = &d
	}
	toast := domain.NewToast(t, message, opts, n.store.Now())
	if opts.ID == "" {
		n.store.Dispatch(n.surface, domain.Add(toast))
	} else {
		n.store.Dispatch(n.surface, domain.Upsert(toast))
	}
	return toast.ID
}

func (n *Notifier) Update(id string, p domain.Patch) {
	n.store.Dispatch(n.surface, domain.Update(id, p))
}

func (n *Notifier) Dismiss(id string) {
	if id == "" {
		return
	}
	n.store.Dispatch(n.surface, domain.Dismiss(id))
}

func (n *Notifier) DismissAll() {
	n.store.Dispatch(n.surface, domain.Dismiss(""))
}

func (n *Notifier) Remove(id string) {
	if id == "" {
		return
	}
	n.store.Dispatch(n.surface, domain.Remove(id))
}

func (n *Notifier) RemoveAll() {
	n.store.Dispatch(n.surface, domain.Remove(""))
}

// Pause suspends auto-dismiss on the surface, for example while hovered.
func (n *Notifier) Pause() {
	n.store.Dispatch(n.surface, domain.Pause(n.store.Now()))
}

func (n *Notifier) Resume() {
	n.store.Dispatch(n.surface, domain.Resume(n.store.Now()))
}

// SetHeight records the rendered height of a toast for layout.
func (n *Notifier) SetHeight(id string, height float64) {
	n.store.Dispatch(n.surface, domain.Update(id, domain.Patch{Height: &height}))
}

func (n *Notifier) State() domain.SurfaceState {
	return n.store.State(n.surface)
}
