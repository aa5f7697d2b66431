package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func measured(id string, pos Position, height float64, visible bool) Toast {
	t := NewToast(TypeBlank, id, Options{ID: id, Position: pos}, t0)
	t.Height = height
	t.Visible = visible
	return t
}

func TestOffset_CumulativeHeights(t *testing.T) {
	state := SurfaceState{Toasts: []Toast{
		measured("c", TopRight, 40, true),
		measured("b", TopRight, 50, true),
		measured("a", TopRight, 60, true),
	}}

	assert.Equal(t, 0.0, Offset(state, "c", LayoutOptions{}))
	assert.Equal(t, 48.0, Offset(state, "b", LayoutOptions{}))
	assert.Equal(t, 106.0, Offset(state, "a", LayoutOptions{}))
}

func TestOffset_SkipsHiddenAndOtherPositions(t *testing.T) {
	state := SurfaceState{Toasts: []Toast{
		measured("hidden", TopRight, 40, false),
		measured("elsewhere", BottomLeft, 70, true),
		measured("first", TopRight, 30, true),
		measured("target", TopRight, 20, true),
	}}

	assert.Equal(t, 38.0, Offset(state, "target", LayoutOptions{}))
}

func TestOffset_CustomGutterAndDefaultPosition(t *testing.T) {
	gutter := 0.0
	state := SurfaceState{Toasts: []Toast{
		measured("a", "", 10, true),
		measured("b", TopCenter, 10, true),
	}}

	assert.Equal(t, 10.0, Offset(state, "b", LayoutOptions{Gutter: &gutter}))
	assert.Equal(t, 0.0, Offset(state, "b", LayoutOptions{Gutter: &gutter, DefaultPosition: BottomCenter}))
}

func TestOffset_ReverseOrder(t *testing.T) {
	state := SurfaceState{Toasts: []Toast{
		measured("c", TopRight, 40, true),
		measured("b", TopRight, 50, true),
		measured("a", TopRight, 60, true),
	}}

	opts := LayoutOptions{ReverseOrder: true}
	assert.Equal(t, 126.0, Offset(state, "c", opts))
	assert.Equal(t, 68.0, Offset(state, "b", opts))
	assert.Equal(t, 0.0, Offset(state, "a", opts))
}

func TestOffset_UnmeasuredIsZero(t *testing.T) {
	state := SurfaceState{Toasts: []Toast{
		measured("a", TopRight, 40, true),
		measured("new", TopRight, 0, true),
	}}

	assert.Equal(t, 0.0, Offset(state, "new", LayoutOptions{}))
	assert.Equal(t, 0.0, Offset(state, "missing", LayoutOptions{}))
}

func TestLayout_GroupsByPosition(t *testing.T) {
	state := SurfaceState{Toasts: []Toast{
		measured("a", TopRight, 40, true),
		measured("b", BottomLeft, 40, true),
		measured("c", TopRight, 40, true),
	}}

	layout := Layout(state, LayoutOptions{})
	require.Len(t, layout[TopRight], 2)
	require.Len(t, layout[BottomLeft], 1)
	assert.Equal(t, "a", layout[TopRight][0].ID)
	assert.Equal(t, 0.0, layout[TopRight][0].Offset)
	assert.Equal(t, 48.0, layout[TopRight][1].Offset)
}
