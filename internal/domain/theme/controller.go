// Package theme resolves, persists and synchronizes the light/dark theme preference.
package theme

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/edumarques81/practice-timer-backend/internal/domain/store"
)

const (
	// StorageKey is the key the preference is persisted under.
	StorageKey = "practice-timer-theme"

	// Persisted sentinel values.
	ValueDark  = "dark"
	ValueLight = "light"

	// IndicatorClass is the document class clients toggle for dark mode.
	IndicatorClass = "dark-theme"

	// MediaQuery is the query clients evaluate to report their system preference.
	MediaQuery = "(prefers-color-scheme: dark)"
)

// Controller holds the dark-mode flag. All operations are serialized;
// subscribers are notified while the controller is locked and must not call
// back into it.
type Controller struct {
	mu      sync.Mutex
	env     Environment
	dark    *store.Store[bool]
	syncing bool
}

// NewController resolves the initial theme from env and starts listening for
// system preference changes.
func NewController(env Environment) *Controller {
	if env.Indicator == nil {
		env.Indicator = nopIndicator{}
	}

	c := &Controller{env: env}
	c.dark = store.New(c.resolve())

	if !env.available() {
		return c
	}

	c.env.Indicator.SetDark(c.dark.Get())

	if err := env.System.OnChange(c.onSystemChange); err != nil {
		log.Warn().Err(err).Msg("Failed to set up system theme listener")
		return c
	}
	c.syncing = true

	return c
}

// resolve picks the startup theme: saved value, then system preference, then light.
func (c *Controller) resolve() bool {
	if !c.env.available() {
		log.Debug().Msg("No storage or system preference available, using light theme")
		return false
	}

	saved, ok, err := c.env.Storage.Get(StorageKey)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to access storage for theme")
		return false
	}
	if ok {
		if dark, valid := Parse(saved); valid {
			log.Info().Str("theme", saved).Msg("Loaded saved theme")
			return dark
		}
	}

	systemDark := c.env.System.PrefersDark()
	log.Info().Str("theme", Value(systemDark)).Msg("Using system preference")

	// Persist the system value so later startups see an explicit preference.
	if err := c.env.Storage.Set(StorageKey, Value(systemDark)); err != nil {
		log.Warn().Err(err).Msg("Failed to access storage for theme")
		return false
	}

	return systemDark
}

// IsDark reports whether dark mode is active.
func (c *Controller) IsDark() bool {
	return c.dark.Get()
}

// Syncing reports whether system preference changes are being followed.
func (c *Controller) Syncing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.syncing
}

// Subscribe calls fn with the current flag and on every change.
func (c *Controller) Subscribe(fn func(dark bool)) (unsubscribe func()) {
	return c.dark.Subscribe(fn)
}

// Toggle flips the theme. A failed write is logged and the theme still changes.
func (c *Controller) Toggle() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.dark.Update(func(dark bool) bool {
		next := !dark
		if !c.env.available() {
			return next
		}

		if err := c.env.Storage.Set(StorageKey, Value(next)); err != nil {
			log.Warn().Err(err).Msg("Failed to save theme to storage")
		} else {
			log.Info().Str("theme", Value(next)).Msg("Theme changed")
		}
		c.env.Indicator.SetDark(next)
		return next
	})
}

// SetTheme sets the theme. The preference is written first; if the write
// fails nothing changes.
func (c *Controller) SetTheme(isDark bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setTheme(isDark)
}

func (c *Controller) setTheme(isDark bool) {
	if c.env.available() {
		if err := c.env.Storage.Set(StorageKey, Value(isDark)); err != nil {
			log.Warn().Err(err).Msg("Failed to set theme")
			return
		}
		c.env.Indicator.SetDark(isDark)
	}

	c.dark.Set(isDark)
	log.Info().Str("theme", Value(isDark)).Msg("Theme set")
}

// onSystemChange follows the system preference until the user picks a theme.
// Storage is read at event time so an externally cleared preference resumes following.
func (c *Controller) onSystemChange(prefersDark bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	saved, ok, err := c.env.Storage.Get(StorageKey)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read theme preference on system change")
		return
	}
	if ok && saved != "" {
		log.Debug().Str("saved", saved).Msg("Ignoring system theme change, preference is saved")
		return
	}

	c.setTheme(prefersDark)
	log.Info().Str("theme", Value(prefersDark)).Msg("System theme changed")
}

// Reset forgets the saved preference and goes back to the current system
// preference, which is applied but not persisted, so later system changes are
// followed again. If the preference cannot be removed nothing changes.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.env.available() {
		c.dark.Set(false)
		return
	}

	if err := c.env.Storage.Delete(StorageKey); err != nil {
		log.Warn().Err(err).Msg("Failed to clear theme preference")
		return
	}

	systemDark := c.env.System.PrefersDark()
	c.env.Indicator.SetDark(systemDark)
	c.dark.Set(systemDark)
	log.Info().Str("theme", Value(systemDark)).Msg("Theme preference cleared, following system")
}

// ToJSON returns the theme state as a map suitable for JSON serialization.
func (c *Controller) ToJSON() map[string]interface{} {
	return StateJSON(c.IsDark())
}

// StateJSON is the serialized form of a theme value, as pushed to clients.
func StateJSON(dark bool) map[string]interface{} {
	return map[string]interface{}{
		"isDark":    dark,
		"theme":     Value(dark),
		"className": IndicatorClass,
	}
}

// Value returns the persisted sentinel for a theme.
func Value(dark bool) string {
	if dark {
		return ValueDark
	}
	return ValueLight
}

// Parse converts a persisted sentinel back to a theme. valid is false for
// anything other than ValueDark or ValueLight.
func Parse(s string) (dark, valid bool) {
	switch s {
	case ValueDark:
		return true, true
	case ValueLight:
		return false, true
	}
	return false, false
}
