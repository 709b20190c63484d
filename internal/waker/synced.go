//go:build !wakernosync

package waker

import "sync"

// Synced wraps a Store behind a mutex so shared references can
// register and fire safely under genuine concurrent access. Every
// shared-reference operation runs under the lock, so all such
// operations are totally ordered.
//
// A fired handle must not call back into the same adapter: the lock
// is held across the inner store call, so re-entrant use deadlocks.
//
// If a stored handle panics while the lock is held, the adapter is
// poisoned: the panic propagates, and every later shared-reference
// operation panics instead of touching a store whose single-slot
// invariant can no longer be trusted.
type Synced[S Store] struct {
	mu       sync.Mutex
	poisoned bool
	inner    S
}

// NewSynced wraps store in a Synced adapter.
func NewSynced[S Store](store S) *Synced[S] {
	return &Synced[S]{inner: store}
}

// Mut returns the inner store without locking. The caller must hold
// exclusive ownership of the adapter.
func (s *Synced[S]) Mut() S {
	if s.poisoned {
		panic(poisonMsg)
	}
	return s.inner
}

// IntoInner consumes the adapter and returns the inner store. The
// caller must hold exclusive ownership; the adapter must not be used
// afterwards.
func (s *Synced[S]) IntoInner() S {
	if s.poisoned {
		panic(poisonMsg)
	}
	inner := s.inner
	var zero S
	s.inner = zero
	return inner
}

// Poisoned reports whether a previous operation panicked under the
// lock. The caller must hold exclusive ownership of the adapter.
func (s *Synced[S]) Poisoned() bool {
	return s.poisoned
}

// Register registers w with the inner store under the lock.
func (s *Synced[S]) Register(w Waker) {
	s.lock()
	defer s.unlock()
	s.inner.Register(w)
}

// Wake fires the inner store's handle under the lock, consuming it.
func (s *Synced[S]) Wake() {
	s.lock()
	defer s.unlock()
	s.inner.Wake()
}

// WakeByRef fires the inner store's handle under the lock without
// consuming it.
func (s *Synced[S]) WakeByRef() {
	s.lock()
	defer s.unlock()
	s.inner.WakeByRef()
}

const poisonMsg = "waker: Synced store poisoned by a panic during a previous operation"

func (s *Synced[S]) lock() {
	s.mu.Lock()
	if s.poisoned {
		s.mu.Unlock()
		panic(poisonMsg)
	}
}

// unlock releases the mutex on every exit path. A panic unwinding
// through the locked region marks the adapter poisoned before being
// re-raised.
func (s *Synced[S]) unlock() {
	if r := recover(); r != nil {
		s.poisoned = true
		s.mu.Unlock()
		panic(r)
	}
	s.mu.Unlock()
}

var _ Registrar = (*Synced[*Slot])(nil)
