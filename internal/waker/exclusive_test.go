package waker

import "testing"

func TestExclusiveRoundTrip(t *testing.T) {
	slot := &Slot{}
	slot.Register(newNoteWaker(1))

	adapter := NewExclusive(slot)
	inner := adapter.IntoInner()
	if inner != slot {
		t.Fatalf("IntoInner returned a different store: %p vs %p", inner, slot)
	}
	if !inner.Occupied() {
		t.Fatalf("round trip lost the stored waker")
	}
}

func TestExclusiveRegisterAndWakeThroughSharedRef(t *testing.T) {
	adapter := NewExclusive(&Slot{})
	h := newNoteWaker(1)

	// Use the adapter only through its shared-reference capability.
	var reg Registrar = adapter
	reg.Register(h)
	if !adapter.Mut().Occupied() {
		t.Fatalf("shared-reference registration did not store the waker")
	}

	reg.WakeByRef()
	if got := *h.shared; got != 1 {
		t.Fatalf("shared fire count %d, want 1", got)
	}
	reg.Wake()
	if got := *h.consumed; got != 1 {
		t.Fatalf("consuming fire count %d, want 1", got)
	}
	if adapter.Mut().Occupied() {
		t.Fatalf("consuming fire left the slot occupied")
	}
}

func TestExclusiveMutGivesInnerStore(t *testing.T) {
	slot := &Slot{}
	adapter := NewExclusive(slot)
	if adapter.Mut() != slot {
		t.Fatalf("Mut returned a different store")
	}
	adapter.Mut().Register(newNoteWaker(7))
	if !slot.Occupied() {
		t.Fatalf("registration through Mut did not reach the slot")
	}
}
