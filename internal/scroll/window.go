package scroll

import (
	"slices"
	"sync"
)

// Window is an in-process scroll Source. Scroll dispatches synchronously to
// every listener registered at the time of the call.
type Window struct {
	mu        sync.Mutex
	y         float64
	nextID    int
	listeners []listener
}

type listener struct {
	id int
	fn func(y float64)
}

func NewWindow() *Window {
	return &Window{}
}

func (w *Window) AddScrollListener(fn func(y float64)) func() {
	w.mu.Lock()
	id := w.nextID
	w.nextID++
	w.listeners = append(w.listeners, listener{id: id, fn: fn})
	w.mu.Unlock()

	return func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		w.listeners = slices.DeleteFunc(w.listeners, func(l listener) bool { return l.id == id })
	}
}

// Scroll moves the window to offset y and notifies listeners. Negative
// offsets, as reported during overscroll, are passed through unchanged.
func (w *Window) Scroll(y float64) {
	w.mu.Lock()
	w.y = y
	listeners := slices.Clone(w.listeners)
	w.mu.Unlock()

	for _, l := range listeners {
		l.fn(y)
	}
}

func (w *Window) ScrollY() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.y
}

func (w *Window) Listeners() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.listeners)
}
