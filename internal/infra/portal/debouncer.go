package portal

import (
	"sync"
	"time"
)

// SignalDebouncer collapses bursts of color-scheme signals. Only the last
// value seen within the window is delivered.
type SignalDebouncer struct {
	window   time.Duration
	callback func(prefersDark bool)

	mu      sync.Mutex
	pending bool
	value   bool
	timer   *time.Timer
	stopped bool
}

// NewSignalDebouncer creates a debouncer with the given window duration.
func NewSignalDebouncer(window time.Duration, callback func(prefersDark bool)) *SignalDebouncer {
	return &SignalDebouncer{
		window:   window,
		callback: callback,
	}
}

// Trigger records a new value and restarts the window.
func (d *SignalDebouncer) Trigger(prefersDark bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	d.pending = true
	d.value = prefersDark

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.flush)
}

func (d *SignalDebouncer) flush() {
	d.mu.Lock()
	if !d.pending || d.stopped {
		d.mu.Unlock()
		return
	}
	value := d.value
	d.pending = false
	d.mu.Unlock()

	if d.callback != nil {
		d.callback(value)
	}
}

// Stop prevents any further callbacks from firing.
func (d *SignalDebouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
	d.pending = false
}
