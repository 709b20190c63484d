package waker

// Waker is the opaque notification capability stored by a Slot.
// The task system that owns the waiting task supplies the concrete
// type; the slot only stores and forwards handles.
type Waker interface {
	// Wake notifies the waiter, consuming the handle. The handle need
	// not remain usable afterwards.
	Wake()
	// WakeByRef notifies the waiter without consuming the handle.
	WakeByRef()
	// WillWake reports whether other targets the same logical waiter.
	WillWake(other Waker) bool
	// Clone returns an independent handle for the same waiter.
	Clone() Waker
}

// Store is the exclusive-view contract of a waker store. *Slot is the
// canonical implementation; the sharing adapters are generic over it.
type Store interface {
	Register(w Waker)
	Wake()
	WakeByRef()
}

// Firer fires a store's handle through a shared reference.
type Firer interface {
	// Wake fires and forgets the stored handle.
	Wake()
	// WakeByRef fires the stored handle and leaves it in place.
	WakeByRef()
}

// Registrar extends Firer with shared-reference registration.
type Registrar interface {
	Firer
	Register(w Waker)
}
