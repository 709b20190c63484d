package waker

// Slot stores at most one waker: the most recently registered one.
// The zero value is an empty slot ready for use, so a Slot can be
// embedded in a larger struct without a constructor.
//
// All methods require an exclusive view of the slot. Wrap the slot in
// Exclusive or Synced to call them through a shared reference.
type Slot struct {
	w Waker
}

// Register stores a clone of w as the slot's waker.
//
// If the stored waker targets the same logical waiter as w, the call
// is a no-op: repeated polling by one waiter does not churn the slot
// or trigger eviction wakes. If a different waiter is stored, it is
// woken immediately before being replaced — the slot cannot hold two
// waiters, so on overflow it fails open with a possibly spurious
// wakeup rather than dropping the displaced waiter.
func (s *Slot) Register(w Waker) {
	if s == nil || w == nil {
		return
	}
	if s.w != nil {
		if s.w.WillWake(w) {
			return
		}
		prev := s.w
		s.w = nil
		prev.Wake()
	}
	s.w = w.Clone()
}

// Wake removes the stored waker and fires it, consuming the handle.
// Empty slots no-op, so repeated calls degrade to no-ops after the
// first.
func (s *Slot) Wake() {
	if s == nil || s.w == nil {
		return
	}
	w := s.w
	s.w = nil
	w.Wake()
}

// WakeByRef fires the stored waker without removing it. Repeated
// calls re-fire the same handle each time; empty slots no-op.
func (s *Slot) WakeByRef() {
	if s == nil || s.w == nil {
		return
	}
	s.w.WakeByRef()
}

// Occupied reports whether a waker is currently stored.
func (s *Slot) Occupied() bool {
	return s != nil && s.w != nil
}

// WillCoalesce reports whether registering w would collapse into the
// stored waker instead of evicting it.
func (s *Slot) WillCoalesce(w Waker) bool {
	return s != nil && s.w != nil && w != nil && s.w.WillWake(w)
}
