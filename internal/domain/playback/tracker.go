// Package playback tracks which audio clip is currently playing.
package playback

import (
	"github.com/rs/zerolog/log"

	"github.com/edumarques81/practice-timer-backend/internal/domain/store"
)

// Current is the playing item. ID is meaningful only when Playing is true.
type Current struct {
	ID      string
	Playing bool
}

// Tracker holds the identifier of the currently playing item.
// It is safe for concurrent access.
type Tracker struct {
	current *store.Store[Current]
}

// NewTracker creates a tracker with nothing playing.
func NewTracker() *Tracker {
	return &Tracker{
		current: store.New(Current{}),
	}
}

// SetPlaying records id as the currently playing item, replacing any previous one.
func (t *Tracker) SetPlaying(id string) {
	t.current.Set(Current{ID: id, Playing: true})
	log.Debug().Str("id", id).Msg("Playback started")
}

// StopAll clears the currently playing item.
func (t *Tracker) StopAll() {
	t.current.Set(Current{})
	log.Debug().Msg("Playback stopped")
}

// Current returns the currently playing item.
func (t *Tracker) Current() Current {
	return t.current.Get()
}

// Subscribe calls fn with the current item and on every change.
func (t *Tracker) Subscribe(fn func(Current)) (unsubscribe func()) {
	return t.current.Subscribe(fn)
}

// ToJSON returns the playing item as a map suitable for JSON serialization.
// The id is null when nothing is playing.
func (c Current) ToJSON() map[string]interface{} {
	if !c.Playing {
		return map[string]interface{}{"id": nil}
	}
	return map[string]interface{}{"id": c.ID}
}
