package waker

import "testing"

// noteWaker records fire counts shared across clones, with identity
// carried by id.
type noteWaker struct {
	id       int
	consumed *int
	shared   *int
	clones   *int
}

func newNoteWaker(id int) *noteWaker {
	return &noteWaker{id: id, consumed: new(int), shared: new(int), clones: new(int)}
}

func (n *noteWaker) Wake()      { *n.consumed++ }
func (n *noteWaker) WakeByRef() { *n.shared++ }

func (n *noteWaker) WillWake(other Waker) bool {
	o, ok := other.(*noteWaker)
	return ok && o.id == n.id
}

func (n *noteWaker) Clone() Waker {
	*n.clones++
	return &noteWaker{id: n.id, consumed: n.consumed, shared: n.shared, clones: n.clones}
}

func (n *noteWaker) fired() int { return *n.consumed + *n.shared }

func TestRegisterCoalescesSameWaiter(t *testing.T) {
	var slot Slot
	h := newNoteWaker(1)

	slot.Register(h)
	slot.Register(h.Clone())

	if got := h.fired(); got != 0 {
		t.Fatalf("coalesced registration fired the waiter %d times", got)
	}
	if !slot.Occupied() {
		t.Fatalf("slot should be occupied after registration")
	}
	if got := *h.clones; got != 2 {
		t.Fatalf("expected one stored clone plus the explicit clone, got %d", got)
	}
}

func TestRegisterEvictsAndWakesPrevious(t *testing.T) {
	var slot Slot
	a := newNoteWaker(1)
	b := newNoteWaker(2)

	slot.Register(a)
	slot.Register(b)

	if got := *a.consumed; got != 1 {
		t.Fatalf("evicted waiter consumed-fired %d times, want 1", got)
	}
	if got := *a.shared; got != 0 {
		t.Fatalf("evicted waiter shared-fired %d times, want 0", got)
	}
	if got := b.fired(); got != 0 {
		t.Fatalf("new waiter fired %d times before any wake", got)
	}

	slot.Wake()
	if got := *b.consumed; got != 1 {
		t.Fatalf("stored waiter after eviction fired %d times, want 1", got)
	}
}

func TestWakeConsumesOnce(t *testing.T) {
	var slot Slot
	h := newNoteWaker(1)

	slot.Register(h)
	slot.Wake()
	slot.Wake()

	if got := *h.consumed; got != 1 {
		t.Fatalf("waiter fired %d times, want 1", got)
	}
	if slot.Occupied() {
		t.Fatalf("slot should be empty after consuming wake")
	}
}

func TestWakeByRefRepeats(t *testing.T) {
	var slot Slot
	h := newNoteWaker(1)

	slot.Register(h)
	slot.WakeByRef()
	slot.WakeByRef()

	if got := *h.shared; got != 2 {
		t.Fatalf("waiter shared-fired %d times, want 2", got)
	}
	if !slot.Occupied() {
		t.Fatalf("slot should stay occupied after by-ref wakes")
	}
}

func TestEmptySlotWakesNoop(t *testing.T) {
	var slot Slot
	slot.Wake()
	slot.WakeByRef()
	if slot.Occupied() {
		t.Fatalf("empty slot became occupied")
	}
}

func TestRegisterNilWakerNoop(t *testing.T) {
	var slot Slot
	slot.Register(nil)
	if slot.Occupied() {
		t.Fatalf("nil registration occupied the slot")
	}
}

// Walks the full lifecycle: register, displace, fire by ref, consume,
// and a trailing no-op wake.
func TestSlotScenario(t *testing.T) {
	var slot Slot
	a := newNoteWaker(1)
	b := newNoteWaker(2)

	slot.Register(a)
	if !slot.Occupied() || a.fired() != 0 {
		t.Fatalf("after Register(A): occupied=%v fired=%d", slot.Occupied(), a.fired())
	}

	slot.Register(b)
	if got := a.fired(); got != 1 {
		t.Fatalf("after Register(B): A fired %d times, want 1", got)
	}
	if !slot.Occupied() {
		t.Fatalf("after Register(B): slot should hold B")
	}

	slot.WakeByRef()
	if got := b.fired(); got != 1 {
		t.Fatalf("after WakeByRef: B fired %d times, want 1", got)
	}
	if !slot.Occupied() {
		t.Fatalf("after WakeByRef: slot should still hold B")
	}

	slot.Wake()
	if got := b.fired(); got != 2 {
		t.Fatalf("after Wake: B fired %d times, want 2", got)
	}
	if slot.Occupied() {
		t.Fatalf("after Wake: slot should be empty")
	}

	slot.Wake()
	if got := b.fired(); got != 2 || slot.Occupied() {
		t.Fatalf("second Wake changed state: fired=%d occupied=%v", got, slot.Occupied())
	}
}
