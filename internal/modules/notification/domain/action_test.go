package domain

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func toast(id string, typ ToastType) Toast {
	return NewToast(typ, "msg "+id, Options{ID: id}, t0)
}

func TestReduce_AddPrependsAndCaps(t *testing.T) {
	state := SurfaceState{}
	for i := 0; i < 25; i++ {
		state = Reduce(state, Add(toast(fmt.Sprint(i), TypeBlank)), 20)
		assert.LessOrEqual(t, len(state.Toasts), 20)
	}

	require.Len(t, state.Toasts, 20)
	assert.Equal(t, "24", state.Toasts[0].ID)
	assert.Equal(t, "5", state.Toasts[19].ID)
	assert.Equal(t, uint64(25), state.Version)
}

func TestReduce_DefaultLimit(t *testing.T) {
	state := SurfaceState{}
	for i := 0; i < DefaultToastLimit+3; i++ {
		state = Reduce(state, Add(toast(fmt.Sprint(i), TypeBlank)), 0)
	}
	assert.Len(t, state.Toasts, DefaultToastLimit)
}

func TestReduce_DoesNotMutateInput(t *testing.T) {
	state := Reduce(SurfaceState{}, Add(toast("a", TypeBlank)), 20)
	_ = Reduce(state, Dismiss("a"), 20)

	assert.True(t, state.Toasts[0].Visible)
	assert.False(t, state.Toasts[0].Dismissed)
}

func TestReduce_UpsertAddsWhenAbsent(t *testing.T) {
	state := Reduce(SurfaceState{}, Upsert(toast("a", TypeLoading)), 20)
	require.Len(t, state.Toasts, 1)
	assert.Equal(t, TypeLoading, state.Toasts[0].Type)
}

func TestReduce_UpsertReplacesButKeepsHeight(t *testing.T) {
	state := Reduce(SurfaceState{}, Add(toast("a", TypeLoading)), 20)
	h := 48.0
	state = Reduce(state, Update("a", Patch{Height: &h}), 20)

	replacement := NewToast(TypeSuccess, "done", Options{ID: "a"}, t0.Add(time.Second))
	state = Reduce(state, Upsert(replacement), 20)

	require.Len(t, state.Toasts, 1)
	got := state.Toasts[0]
	assert.Equal(t, TypeSuccess, got.Type)
	assert.Equal(t, "done", got.Message)
	assert.Equal(t, 48.0, got.Height)
	assert.Equal(t, t0.Add(time.Second), got.CreatedAt)
}

func TestReduce_UpdatePatchesOnlyMatching(t *testing.T) {
	state := Reduce(SurfaceState{}, Add(toast("a", TypeBlank)), 20)
	state = Reduce(state, Add(toast("b", TypeBlank)), 20)

	msg := "changed"
	state = Reduce(state, Update("a", Patch{Message: &msg}), 20)

	a, _ := state.Find("a")
	b, _ := state.Find("b")
	assert.Equal(t, "changed", a.Message)
	assert.Equal(t, "msg b", b.Message)
}

func TestReduce_UpdateCannotShowDismissedToast(t *testing.T) {
	state := Reduce(SurfaceState{}, Add(toast("a", TypeBlank)), 20)
	state = Reduce(state, Dismiss("a"), 20)

	visible := true
	state = Reduce(state, Update("a", Patch{Visible: &visible}), 20)

	a, _ := state.Find("a")
	assert.True(t, a.Dismissed)
	assert.False(t, a.Visible)
}

func TestReduce_DismissOneAndAll(t *testing.T) {
	state := Reduce(SurfaceState{}, Add(toast("a", TypeBlank)), 20)
	state = Reduce(state, Add(toast("b", TypeBlank)), 20)

	state = Reduce(state, Dismiss("a"), 20)
	a, _ := state.Find("a")
	b, _ := state.Find("b")
	assert.True(t, a.Dismissed)
	assert.False(t, a.Visible)
	assert.False(t, b.Dismissed)
	assert.Len(t, state.Toasts, 2)

	state = Reduce(state, Dismiss(""), 20)
	for _, tt := range state.Toasts {
		assert.True(t, tt.Dismissed)
		assert.False(t, tt.Visible)
	}
	assert.Len(t, state.Toasts, 2)
}

func TestReduce_RemoveOneAndAll(t *testing.T) {
	state := Reduce(SurfaceState{}, Add(toast("a", TypeBlank)), 20)
	state = Reduce(state, Add(toast("b", TypeBlank)), 20)

	state = Reduce(state, Remove("a"), 20)
	require.Len(t, state.Toasts, 1)
	assert.Equal(t, "b", state.Toasts[0].ID)

	state = Reduce(state, Remove(""), 20)
	assert.Empty(t, state.Toasts)
}

func TestReduce_PauseResumeAccumulates(t *testing.T) {
	state := Reduce(SurfaceState{}, Add(toast("a", TypeBlank)), 20)

	state = Reduce(state, Pause(t0.Add(time.Second)), 20)
	require.True(t, state.Paused())

	// a nested pause does not move the start
	state = Reduce(state, Pause(t0.Add(2*time.Second)), 20)
	state = Reduce(state, Resume(t0.Add(4*time.Second)), 20)
	assert.False(t, state.Paused())
	assert.Equal(t, 3*time.Second, state.Toasts[0].PauseDuration)

	state = Reduce(state, Pause(t0.Add(10*time.Second)), 20)
	state = Reduce(state, Resume(t0.Add(12*time.Second)), 20)
	assert.Equal(t, 5*time.Second, state.Toasts[0].PauseDuration)
}

func TestReduce_ResumeWithoutPauseIsNoop(t *testing.T) {
	state := Reduce(SurfaceState{}, Add(toast("a", TypeBlank)), 20)
	state = Reduce(state, Resume(t0.Add(time.Hour)), 20)

	assert.Equal(t, time.Duration(0), state.Toasts[0].PauseDuration)
}

func TestReduce_UnknownActionKeepsState(t *testing.T) {
	state := Reduce(SurfaceState{}, Add(toast("a", TypeBlank)), 20)
	next := Reduce(state, Action{Type: "BOGUS"}, 20)
	assert.Equal(t, state.Version, next.Version)
}

func TestPauseExtendsRemainingByPausedInterval(t *testing.T) {
	state := Reduce(SurfaceState{}, Add(toast("a", TypeError)), 20)
	before := state.Toasts[0].Remaining(t0.Add(time.Second))

	state = Reduce(state, Pause(t0.Add(time.Second)), 20)
	state = Reduce(state, Resume(t0.Add(1500*time.Millisecond)), 20)
	after := state.Toasts[0].Remaining(t0.Add(1500 * time.Millisecond))

	// half a second elapsed while paused, so the remaining time is unchanged
	assert.Equal(t, before, after)
}
