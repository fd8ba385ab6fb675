// Package store provides a small reactive value cell that pushes every change
// to its subscribers.
package store

import "sync"

// Store holds a single value and notifies subscribers when it changes.
// It is safe for concurrent access. Subscribers observe changes in the order
// Set and Update were called; a subscriber must not call Set or Update on the
// store that is notifying it.
type Store[T any] struct {
	mu     sync.Mutex
	emitMu sync.Mutex // serializes delivery so subscribers see changes in order

	value  T
	equal  func(a, b T) bool
	subs   []*subscriber[T]
	nextID uint64
}

type subscriber[T any] struct {
	id uint64
	fn func(T)
}

// New creates a store that skips notification when the new value equals the
// current one.
func New[T comparable](initial T) *Store[T] {
	return &Store[T]{
		value: initial,
		equal: func(a, b T) bool { return a == b },
	}
}

// Get returns the current value.
func (s *Store[T]) Get() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Set replaces the current value and notifies subscribers.
func (s *Store[T]) Set(v T) {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()
	s.set(v)
}

// Update sets the value to the result of fn applied to the current value.
// No other Set or Update runs between reading the value and storing the result.
func (s *Store[T]) Update(fn func(T) T) {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()
	s.set(fn(s.Get()))
}

// set stores v and delivers it. Callers hold emitMu.
func (s *Store[T]) set(v T) {
	s.mu.Lock()
	if s.equal(s.value, v) {
		s.mu.Unlock()
		return
	}
	s.value = v
	subs := make([]*subscriber[T], len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.fn(v)
	}
}

// Subscribe registers fn and calls it immediately with the current value.
// The returned function removes the subscription; calling it more than once
// is a no-op.
func (s *Store[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, &subscriber[T]{id: id, fn: fn})
	current := s.value
	s.mu.Unlock()

	fn(current)

	var once sync.Once
	return func() {
		once.Do(func() { s.remove(id) })
	}
}

func (s *Store[T]) remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, sub := range s.subs {
		if sub.id == id {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			return
		}
	}
}
