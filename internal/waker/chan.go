package waker

// Chan is a ready-made waker for goroutine-based waiters, backed by a
// buffered channel. Wakeups between sleeps are debounced: the size-1
// buffer queues at most one pending wakeup, and firing never blocks.
type Chan struct {
	ch chan struct{}
}

// NewChan returns a new channel-backed waker.
func NewChan() *Chan {
	return &Chan{ch: make(chan struct{}, 1)}
}

// Sleep returns a channel that receives after the waker fires.
func (c *Chan) Sleep() <-chan struct{} {
	return c.ch
}

// Wake fires the waker. A channel handle stays usable after a
// consuming fire, so both fire forms behave identically.
func (c *Chan) Wake() {
	c.WakeByRef()
}

// WakeByRef fires the waker without blocking; a wakeup already
// pending is coalesced.
func (c *Chan) WakeByRef() {
	if c == nil {
		return
	}
	select {
	case c.ch <- struct{}{}:
	default:
	}
}

// WillWake reports whether other wakes the same sleeper, i.e. shares
// the same underlying channel.
func (c *Chan) WillWake(other Waker) bool {
	o, ok := other.(*Chan)
	return ok && c != nil && o != nil && o.ch == c.ch
}

// Clone returns a handle firing the same sleeper.
func (c *Chan) Clone() Waker {
	if c == nil {
		return nil
	}
	return &Chan{ch: c.ch}
}

var _ Waker = (*Chan)(nil)
