//go:build !wakernosync

package waker

import (
	"sync/atomic"
	"testing"

	"golang.org/x/sync/errgroup"
)

// atomicNoteWaker is a goroutine-safe handle sharing global fire
// counters, for hammering the Synced adapter.
type atomicNoteWaker struct {
	id       int
	consumed *atomic.Int64
	shared   *atomic.Int64
}

func (a *atomicNoteWaker) Wake()      { a.consumed.Add(1) }
func (a *atomicNoteWaker) WakeByRef() { a.shared.Add(1) }

func (a *atomicNoteWaker) WillWake(other Waker) bool {
	o, ok := other.(*atomicNoteWaker)
	return ok && o.id == a.id
}

func (a *atomicNoteWaker) Clone() Waker {
	return &atomicNoteWaker{id: a.id, consumed: a.consumed, shared: a.shared}
}

func TestSyncedRoundTrip(t *testing.T) {
	slot := &Slot{}
	slot.Register(newNoteWaker(1))

	adapter := NewSynced(slot)
	inner := adapter.IntoInner()
	if inner != slot {
		t.Fatalf("IntoInner returned a different store: %p vs %p", inner, slot)
	}
	if !inner.Occupied() {
		t.Fatalf("round trip lost the stored waker")
	}
}

func TestSyncedRegisterAndWake(t *testing.T) {
	adapter := NewSynced(&Slot{})
	h := newNoteWaker(1)

	var reg Registrar = adapter
	reg.Register(h)
	reg.WakeByRef()
	reg.Wake()
	reg.Wake()

	if got := *h.shared; got != 1 {
		t.Fatalf("shared fire count %d, want 1", got)
	}
	if got := *h.consumed; got != 1 {
		t.Fatalf("consuming fire count %d, want 1", got)
	}
	if adapter.Mut().Occupied() {
		t.Fatalf("slot still occupied after consuming wake")
	}
}

// Hammers one adapter from many goroutines. Each registration stores
// exactly one handle (all waiter identities are distinct), and every
// stored handle must be consumed exactly once, by an eviction or by a
// wake. Any torn slot state would break the final accounting.
func TestSyncedConcurrentAccounting(t *testing.T) {
	const workers = 16
	const rounds = 200

	adapter := NewSynced(&Slot{})
	var consumed, shared atomic.Int64

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		id := w
		g.Go(func() error {
			for r := 0; r < rounds; r++ {
				h := &atomicNoteWaker{id: id, consumed: &consumed, shared: &shared}
				adapter.Register(h)
				adapter.Wake()
			}
			return nil
		})
	}
	g.Go(func() error {
		for r := 0; r < rounds; r++ {
			adapter.WakeByRef()
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		t.Fatalf("stress group failed: %v", err)
	}

	adapter.Wake()
	if adapter.Mut().Occupied() {
		t.Fatalf("slot occupied after final wake")
	}
	if got, want := consumed.Load(), int64(workers*rounds); got != want {
		t.Fatalf("consuming fires %d, want exactly %d", got, want)
	}
	if shared.Load() < 0 {
		t.Fatalf("shared fire counter underflow")
	}
}

type panicWaker struct{}

func (panicWaker) Wake()               { panic("handle exploded") }
func (panicWaker) WakeByRef()          { panic("handle exploded") }
func (panicWaker) WillWake(Waker) bool { return false }
func (p panicWaker) Clone() Waker      { return p }

func TestSyncedPoisonEscalates(t *testing.T) {
	adapter := NewSynced(&Slot{})
	adapter.Register(panicWaker{})

	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Fatalf("wake of a panicking handle did not panic")
			}
		}()
		adapter.Wake()
	}()

	if !adapter.Poisoned() {
		t.Fatalf("adapter not poisoned after panic under lock")
	}

	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("operation on poisoned adapter did not panic")
		}
		if msg, ok := r.(string); !ok || msg != poisonMsg {
			t.Fatalf("unexpected poison panic value: %v", r)
		}
	}()
	adapter.Register(newNoteWaker(1))
}
