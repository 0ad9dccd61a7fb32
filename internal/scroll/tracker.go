// Package scroll derives a sticky header's visibility from scroll direction.
package scroll

import "sync"

// Source delivers vertical scroll offsets to registered listeners.
type Source interface {
	AddScrollListener(fn func(y float64)) (remove func())
}

// Tracker reports the header as visible while the viewport is scrolling up.
// It compares each offset with the one immediately before it, so the header
// reappears as soon as the user reverses direction, not only at the top.
type Tracker struct {
	mu       sync.Mutex
	last     float64
	visible  bool
	onChange func(visible bool)
}

func NewTracker() *Tracker {
	return &Tracker{visible: true}
}

// Observe records offset y and returns the new visibility: y < previous offset.
func (t *Tracker) Observe(y float64) bool {
	t.mu.Lock()
	prev := t.visible
	t.visible = y < t.last
	t.last = y
	visible := t.visible
	onChange := t.onChange
	t.mu.Unlock()

	if onChange != nil && visible != prev {
		onChange(visible)
	}
	return visible
}

func (t *Tracker) Visible() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.visible
}

func (t *Tracker) Last() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last
}

// OnChange sets a callback fired only when visibility flips.
func (t *Tracker) OnChange(fn func(visible bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onChange = fn
}

// Attach subscribes the tracker to src until the returned detach is called.
func (t *Tracker) Attach(src Source) (detach func()) {
	remove := src.AddScrollListener(func(y float64) { t.Observe(y) })

	var once sync.Once
	return func() { once.Do(remove) }
}
