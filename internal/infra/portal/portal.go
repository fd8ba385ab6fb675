// Package portal reads the desktop color-scheme preference from the XDG
// desktop portal over the session bus.
package portal

import (
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	portalDest = "org.freedesktop.portal.Desktop"
	portalPath = "/org/freedesktop/portal/desktop"

	settingsID       = "org.freedesktop.portal.Settings"
	settingChangedID = settingsID + ".SettingChanged"

	appearanceNamespace = "org.freedesktop.appearance"
	colorSchemeKey      = "color-scheme"

	// color-scheme values: 0 no preference, 1 prefer dark, 2 prefer light.
	colorSchemePreferDark uint32 = 1

	// DefaultDebounce is the window used to collapse SettingChanged bursts.
	DefaultDebounce = 100 * time.Millisecond
)

// Settings is a system color-scheme preference backed by the desktop portal.
type Settings struct {
	conn *dbus.Conn
	obj  dbus.BusObject

	debouncer *SignalDebouncer

	mu        sync.Mutex
	listeners []func(bool)
	signals   chan *dbus.Signal
	done      chan struct{}
}

// New connects to the session bus.
func New() (*Settings, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to session bus")
	}
	return NewWithConn(conn), nil
}

// NewWithConn uses an existing bus connection. Close closes it.
func NewWithConn(conn *dbus.Conn) *Settings {
	s := &Settings{
		conn: conn,
		obj:  conn.Object(portalDest, portalPath),
	}
	s.debouncer = NewSignalDebouncer(DefaultDebounce, s.notify)
	return s
}

// PrefersDark reports whether the desktop prefers a dark color scheme.
// Failures are logged and reported as no preference.
func (s *Settings) PrefersDark() bool {
	dark, err := s.read()
	if err != nil {
		log.Debug().Err(err).Msg("Portal color-scheme unavailable")
		return false
	}
	return dark
}

func (s *Settings) read() (bool, error) {
	var v dbus.Variant

	err := s.obj.Call(settingsID+".ReadOne", 0, appearanceNamespace, colorSchemeKey).Store(&v)
	if err != nil {
		// ReadOne was added in version 2 of the interface.
		if err := s.obj.Call(settingsID+".Read", 0, appearanceNamespace, colorSchemeKey).Store(&v); err != nil {
			return false, errors.Wrap(err, "failed to read color-scheme")
		}
	}

	return decodeColorScheme(v)
}

// OnChange registers fn for color-scheme changes. The first call subscribes
// to SettingChanged on the bus.
func (s *Settings) OnChange(fn func(prefersDark bool)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.signals == nil {
		if err := s.watch(); err != nil {
			return err
		}
	}

	s.listeners = append(s.listeners, fn)
	return nil
}

func (s *Settings) watch() error {
	err := s.conn.AddMatchSignal(
		dbus.WithMatchObjectPath(portalPath),
		dbus.WithMatchInterface(settingsID),
		dbus.WithMatchMember("SettingChanged"),
	)
	if err != nil {
		return errors.Wrap(err, "failed to add SettingChanged match")
	}

	s.signals = make(chan *dbus.Signal, 10)
	s.done = make(chan struct{})
	s.conn.Signal(s.signals)

	go s.loop(s.signals, s.done)

	log.Info().Msg("Portal color-scheme watcher started")
	return nil
}

func (s *Settings) loop(signals <-chan *dbus.Signal, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case sig, ok := <-signals:
			if !ok {
				log.Warn().Msg("Portal signal channel closed")
				return
			}

			dark, ok := parseSettingChanged(sig)
			if !ok {
				continue
			}

			log.Debug().Bool("prefers_dark", dark).Msg("Portal color-scheme changed")
			s.debouncer.Trigger(dark)
		}
	}
}

func (s *Settings) notify(dark bool) {
	s.mu.Lock()
	listeners := make([]func(bool), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(dark)
	}
}

// Close stops watching and closes the bus connection.
func (s *Settings) Close() error {
	s.debouncer.Stop()

	s.mu.Lock()
	if s.signals != nil {
		s.conn.RemoveSignal(s.signals)
		close(s.done)
		s.signals = nil
	}
	s.mu.Unlock()

	return s.conn.Close()
}

// parseSettingChanged extracts the color-scheme from a SettingChanged signal.
// ok is false for other signals or settings.
func parseSettingChanged(sig *dbus.Signal) (dark, ok bool) {
	if sig == nil || sig.Name != settingChangedID || len(sig.Body) < 3 {
		return false, false
	}

	namespace, _ := sig.Body[0].(string)
	key, _ := sig.Body[1].(string)
	if namespace != appearanceNamespace || key != colorSchemeKey {
		return false, false
	}

	v, isVariant := sig.Body[2].(dbus.Variant)
	if !isVariant {
		return false, false
	}

	dark, err := decodeColorScheme(v)
	if err != nil {
		log.Debug().Err(err).Msg("Ignoring malformed SettingChanged")
		return false, false
	}
	return dark, true
}

// decodeColorScheme unwraps the (possibly nested) color-scheme variant.
// Read returns the value wrapped twice.
func decodeColorScheme(v dbus.Variant) (bool, error) {
	switch val := v.Value().(type) {
	case uint32:
		return val == colorSchemePreferDark, nil
	case dbus.Variant:
		return decodeColorScheme(val)
	default:
		return false, errors.Errorf("unexpected color-scheme type %s", v.Signature())
	}
}
