package domain

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

type ToastType string

const (
	TypeBlank   ToastType = "blank"
	TypeError   ToastType = "error"
	TypeSuccess ToastType = "success"
	TypeLoading ToastType = "loading"
	TypeCustom  ToastType = "custom"
)

func (t ToastType) Valid() bool {
	switch t {
	case TypeBlank, TypeError, TypeSuccess, TypeLoading, TypeCustom:
		return true
	}
	return false
}

type Position string

const (
	TopLeft      Position = "top-left"
	TopCenter    Position = "top-center"
	TopRight     Position = "top-right"
	BottomLeft   Position = "bottom-left"
	BottomCenter Position = "bottom-center"
	BottomRight  Position = "bottom-right"
)

const DefaultPosition = TopCenter

// Forever is the duration of a toast that is never dismissed by a timer.
const Forever time.Duration = -1

const DefaultRemoveDelay = time.Second

// DefaultDuration returns the auto-dismiss duration for a toast type.
func DefaultDuration(t ToastType) time.Duration {
	switch t {
	case TypeSuccess:
		return 2 * time.Second
	case TypeLoading:
		return Forever
	default:
		return 4 * time.Second
	}
}

var ErrInvalidToastType = errors.New("invalid toast type")

// Toast is one notification on a surface.
type Toast struct {
	ID            string          `json:"id"`
	Type          ToastType       `json:"type"`
	Message       string          `json:"message"`
	Payload       json.RawMessage `json:"payload,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	Visible       bool            `json:"visible"`
	Dismissed     bool            `json:"dismissed"`
	PauseDuration time.Duration   `json:"-"`
	Duration      time.Duration   `json:"-"`
	RemoveDelay   time.Duration   `json:"-"`
	Position      Position        `json:"position,omitempty"`
	Height        float64         `json:"height,omitempty"`
}

type toastFields Toast

// toastJSON carries the durations in milliseconds, the unit the create
// API accepts. Forever is -1.
type toastJSON struct {
	toastFields
	PauseDurationMs int64 `json:"pauseDurationMs"`
	DurationMs      int64 `json:"durationMs"`
	RemoveDelayMs   int64 `json:"removeDelayMs"`
}

func (t Toast) MarshalJSON() ([]byte, error) {
	return json.Marshal(toastJSON{
		toastFields:     toastFields(t),
		PauseDurationMs: toMillis(t.PauseDuration),
		DurationMs:      toMillis(t.Duration),
		RemoveDelayMs:   toMillis(t.RemoveDelay),
	})
}

func (t *Toast) UnmarshalJSON(data []byte) error {
	var w toastJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*t = Toast(w.toastFields)
	t.PauseDuration = fromMillis(w.PauseDurationMs)
	t.Duration = fromMillis(w.DurationMs)
	t.RemoveDelay = fromMillis(w.RemoveDelayMs)
	return nil
}

func toMillis(d time.Duration) int64 {
	if d < 0 {
		return -1
	}
	return d.Milliseconds()
}

func fromMillis(ms int64) time.Duration {
	if ms < 0 {
		return Forever
	}
	return time.Duration(ms) * time.Millisecond
}

// HasDeadline reports whether the toast is dismissed by a timer.
func (t Toast) HasDeadline() bool {
	return t.Duration >= 0
}

// Remaining is the time left before auto-dismiss at now, excluding paused time.
func (t Toast) Remaining(now time.Time) time.Duration {
	return t.Duration + t.PauseDuration - now.Sub(t.CreatedAt)
}

// Options override the defaults of a new toast.
type Options struct {
	ID          string
	Duration    *time.Duration
	RemoveDelay *time.Duration
	Position    Position
	Payload     json.RawMessage
}

// NewToast builds a visible toast created at now.
func NewToast(t ToastType, message string, opts Options, now time.Time) Toast {
	toast := Toast{
		ID:          opts.ID,
		Type:        t,
		Message:     message,
		Payload:     opts.Payload,
		CreatedAt:   now,
		Visible:     true,
		Duration:    DefaultDuration(t),
		RemoveDelay: DefaultRemoveDelay,
		Position:    opts.Position,
	}
	if toast.ID == "" {
		toast.ID = uuid.NewString()
	}
	if opts.Duration != nil {
		toast.Duration = *opts.Duration
	}
	if opts.RemoveDelay != nil {
		toast.RemoveDelay = *opts.RemoveDelay
	}
	return toast
}

// Patch is a partial update of a toast; nil fields are left unchanged.
type Patch struct {
	Type      *ToastType
	Message   *string
	Payload   json.RawMessage
	Visible   *bool
	Dismissed *bool
	Duration  *time.Duration
	Position  *Position
	Height    *float64
}

func (p Patch) apply(t Toast) Toast {
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.Message != nil {
		t.Message = *p.Message
	}
	if p.Payload != nil {
		t.Payload = p.Payload
	}
	if p.Visible != nil {
		t.Visible = *p.Visible
	}
	if p.Dismissed != nil {
		t.Dismissed = *p.Dismissed
	}
	if p.Duration != nil {
		t.Duration = *p.Duration
	}
	if p.Position != nil {
		t.Position = *p.Position
	}
	if p.Height != nil {
		t.Height = *p.Height
	}
	if t.Dismissed {
		t.Visible = false
	}
	return t
}
