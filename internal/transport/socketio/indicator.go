package socketio

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/edumarques81/practice-timer-backend/internal/domain/theme"
)

// emitFunc sends an event to one client or to all of them.
type emitFunc func(ev string, args ...any)

// ClassIndicator is a theme indicator that tells every client to toggle the
// dark-theme class on its document. The last value is replayed to clients
// that connect later.
type ClassIndicator struct {
	mu      sync.Mutex
	out     emitFunc
	enabled bool
	known   bool
}

// NewClassIndicator creates an indicator. Updates made before a server is
// attached are kept for replay.
func NewClassIndicator() *ClassIndicator {
	return &ClassIndicator{}
}

// SetDark broadcasts the class state.
func (c *ClassIndicator) SetDark(dark bool) {
	c.mu.Lock()
	c.enabled = dark
	c.known = true
	out := c.out
	c.mu.Unlock()

	if out == nil {
		log.Debug().Bool("enabled", dark).Msg("Theme class set before server attached")
		return
	}
	out("pushThemeClass", classPayload(dark))
}

// Last returns the last class state and whether one was set.
func (c *ClassIndicator) Last() (enabled, known bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled, c.known
}

func (c *ClassIndicator) attach(out emitFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.out = out
}

// replay sends the last class state to a single client.
func (c *ClassIndicator) replay(emit emitFunc) {
	enabled, known := c.Last()
	if !known {
		return
	}
	emit("pushThemeClass", classPayload(enabled))
}

func classPayload(enabled bool) map[string]interface{} {
	return map[string]interface{}{
		"className": theme.IndicatorClass,
		"enabled":   enabled,
	}
}

// ClientPreference is a system preference reported by clients evaluating
// the prefers-color-scheme media query.
type ClientPreference struct {
	mu        sync.Mutex
	dark      bool
	listeners []func(bool)
}

// NewClientPreference creates a preference that starts as light until a
// client reports otherwise.
func NewClientPreference() *ClientPreference {
	return &ClientPreference{}
}

// PrefersDark returns the last reported preference.
func (p *ClientPreference) PrefersDark() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dark
}

// OnChange registers fn for preference changes.
func (p *ClientPreference) OnChange(fn func(prefersDark bool)) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, fn)
	return nil
}

// Report records a client's media query result. Listeners are called only
// when the value changes.
func (p *ClientPreference) Report(dark bool) {
	p.mu.Lock()
	if p.dark == dark {
		p.mu.Unlock()
		return
	}
	p.dark = dark
	listeners := make([]func(bool), len(p.listeners))
	copy(listeners, p.listeners)
	p.mu.Unlock()

	for _, fn := range listeners {
		fn(dark)
	}
}
