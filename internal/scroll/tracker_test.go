package scroll

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracker_InitiallyVisible(t *testing.T) {
	t.Parallel()

	tr := NewTracker()
	assert.True(t, tr.Visible())
	assert.Zero(t, tr.Last())
}

func TestTracker_DirectionSequence(t *testing.T) {
	t.Parallel()

	tr := NewTracker()

	got := []bool{tr.Visible()}
	for _, y := range []float64{50, 30, 30, 10} {
		got = append(got, tr.Observe(y))
	}

	// Equal offsets are not "scrolling up", so the header hides.
	assert.Equal(t, []bool{true, false, true, false, true}, got)
	assert.InDelta(t, 10.0, tr.Last(), 0)
}

func TestTracker_ComparesWithImmediatelyPreviousSample(t *testing.T) {
	t.Parallel()

	tr := NewTracker()
	tr.Observe(100)
	tr.Observe(400)
	tr.Observe(800)

	// A small move up far from the top shows the header again.
	assert.True(t, tr.Observe(790))
	assert.False(t, tr.Observe(795))
}

func TestTracker_OnChangeFiresOnFlipsOnly(t *testing.T) {
	t.Parallel()

	tr := NewTracker()
	var flips []bool
	tr.OnChange(func(v bool) { flips = append(flips, v) })

	for _, y := range []float64{10, 20, 30, 25, 20, 40} {
		tr.Observe(y)
	}

	assert.Equal(t, []bool{false, true, false}, flips)
}

func TestTracker_AttachDetach(t *testing.T) {
	t.Parallel()

	w := NewWindow()
	tr := NewTracker()

	detach := tr.Attach(w)
	require.Equal(t, 1, w.Listeners())

	w.Scroll(120)
	assert.False(t, tr.Visible())
	w.Scroll(60)
	assert.True(t, tr.Visible())

	detach()
	detach()
	assert.Zero(t, w.Listeners())

	w.Scroll(500)
	assert.True(t, tr.Visible())
	assert.InDelta(t, 60.0, tr.Last(), 0)
	assert.InDelta(t, 500.0, w.ScrollY(), 0)
}

func TestWindow_MultipleConsumers(t *testing.T) {
	t.Parallel()

	w := NewWindow()
	a, b := NewTracker(), NewTracker()

	detachA := a.Attach(w)
	detachB := b.Attach(w)
	t.Cleanup(detachB)

	w.Scroll(40)
	detachA()
	w.Scroll(10)

	assert.False(t, a.Visible())
	assert.True(t, b.Visible())
	assert.Equal(t, 1, w.Listeners())
}

func TestWindow_OverscrollOffsetsPassThrough(t *testing.T) {
	t.Parallel()

	w := NewWindow()
	tr := NewTracker()
	t.Cleanup(tr.Attach(w))

	w.Scroll(20)
	w.Scroll(-15)
	assert.True(t, tr.Visible())
	assert.InDelta(t, -15.0, tr.Last(), 0)
	assert.InDelta(t, -15.0, w.ScrollY(), 0)

	// Rubber-banding further past the top is still an upward scroll.
	w.Scroll(-30)
	assert.True(t, tr.Visible())

	w.Scroll(0)
	assert.False(t, tr.Visible())
}
