package domain

// DefaultGutter is the vertical gap between stacked toasts, in pixels.
const DefaultGutter = 8.0

type LayoutOptions struct {
	ReverseOrder    bool
	Gutter          *float64
	DefaultPosition Position
}

func (o LayoutOptions) gutter() float64 {
	if o.Gutter == nil {
		return DefaultGutter
	}
	return *o.Gutter
}

func (o LayoutOptions) position(t Toast) Position {
	if t.Position != "" {
		return t.Position
	}
	if o.DefaultPosition != "" {
		return o.DefaultPosition
	}
	return DefaultPosition
}

// Placement is where the view should render a toast.
type Placement struct {
	ID       string   `json:"id"`
	Position Position `json:"position"`
	Offset   float64  `json:"offset"`
}

// Offset returns the vertical offset of the toast with id: the heights of
// the visible, measured toasts stacked before it at the same position, each
// followed by the gutter. Unmeasured or unknown toasts get 0.
func Offset(state SurfaceState, id string, opts LayoutOptions) float64 {
	target, ok := state.Find(id)
	if !ok || target.Height == 0 {
		return 0
	}
	pos := opts.position(target)
	gutter := opts.gutter()

	var relevant []Toast
	for _, t := range state.Toasts {
		if opts.position(t) == pos && t.Height > 0 {
			relevant = append(relevant, t)
		}
	}

	index := -1
	for i, t := range relevant {
		if t.ID == id {
			index = i
			break
		}
	}

	before := 0
	var visible []Toast
	for i, t := range relevant {
		if !t.Visible {
			continue
		}
		if i < index {
			before++
		}
		visible = append(visible, t)
	}

	var stacked []Toast
	if opts.ReverseOrder {
		if before+1 < len(visible) {
			stacked = visible[before+1:]
		}
	} else {
		stacked = visible[:before]
	}

	offset := 0.0
	for _, t := range stacked {
		offset += t.Height + gutter
	}
	return offset
}

// Layout groups toasts by position and computes each one's offset. Groups
// keep the surface order, newest first.
func Layout(state SurfaceState, opts LayoutOptions) map[Position][]Placement {
	out := make(map[Position][]Placement)
	for _, t := range state.Toasts {
		pos := opts.position(t)
		out[pos] = append(out[pos], Placement{
			ID:       t.ID,
			Position: pos,
			Offset:   Offset(state, t.ID, opts),
		})
	}
	return out
}
