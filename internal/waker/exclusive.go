package waker

// Exclusive wraps a Store so call sites holding only a shared
// reference can still register and fire, at zero synchronization
// cost.
//
// The contract is unchecked: at most one logical owner may use the
// adapter at any moment. Handing the whole adapter to another
// goroutine is fine; two goroutines calling through shared references
// at the same time is not, and corrupts the slot rather than
// reporting an error. Embed an Exclusive only inside a type that
// already serializes access — a single-threaded executor loop, or a
// structure guarded by the caller's own lock.
type Exclusive[S Store] struct {
	inner S
}

// NewExclusive wraps store in an Exclusive adapter.
func NewExclusive[S Store](store S) *Exclusive[S] {
	return &Exclusive[S]{inner: store}
}

// Mut returns the inner store. The caller must already hold exclusive
// access to the adapter.
func (e *Exclusive[S]) Mut() S {
	return e.inner
}

// IntoInner consumes the adapter and returns the inner store. The
// adapter must not be used afterwards.
func (e *Exclusive[S]) IntoInner() S {
	inner := e.inner
	var zero S
	e.inner = zero
	return inner
}

// Register registers w with the inner store through a shared
// reference, under the adapter's single-owner contract.
func (e *Exclusive[S]) Register(w Waker) {
	e.inner.Register(w)
}

// Wake fires the inner store's handle, consuming it.
func (e *Exclusive[S]) Wake() {
	e.inner.Wake()
}

// WakeByRef fires the inner store's handle without consuming it.
func (e *Exclusive[S]) WakeByRef() {
	e.inner.WakeByRef()
}

var _ Registrar = (*Exclusive[*Slot])(nil)
