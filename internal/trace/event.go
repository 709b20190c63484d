package trace

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Kind identifies a wake-event type.
type Kind uint8

const (
	// KindSpawn marks a task entering the executor.
	KindSpawn Kind = iota + 1
	// KindPark marks a task blocking on a resource.
	KindPark
	// KindRegister marks a waker stored in a slot.
	KindRegister
	// KindCoalesce marks a registration collapsed into an existing one.
	KindCoalesce
	// KindEvict marks a stored waker displaced and woken early.
	KindEvict
	// KindWake marks a consuming fire.
	KindWake
	// KindWakeByRef marks a non-consuming fire.
	KindWakeByRef
	// KindDone marks a task completing.
	KindDone
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case KindSpawn:
		return "spawn"
	case KindPark:
		return "park"
	case KindRegister:
		return "register"
	case KindCoalesce:
		return "coalesce"
	case KindEvict:
		return "evict"
	case KindWake:
		return "wake"
	case KindWakeByRef:
		return "wake_by_ref"
	case KindDone:
		return "done"
	default:
		return "unknown"
	}
}

// Event is a single recorded wake event.
type Event struct {
	Time     time.Time // wall-clock timestamp
	Seq      uint64    // global sequence number (monotonic)
	Kind     Kind      // event kind
	Task     uint64    // task the event concerns (0 if none)
	Resource string    // slot owner, e.g. "chan:3", "timer:1", "join:2"
	Detail   string    // optional detail message
}

// Line renders the event as a single text line for dumps.
func (ev *Event) Line() string {
	if ev.Resource == "" {
		return fmt.Sprintf("%06d %-12s task=%d %s", ev.Seq, ev.Kind, ev.Task, ev.Detail)
	}
	return fmt.Sprintf("%06d %-12s task=%d %s %s", ev.Seq, ev.Kind, ev.Task, ev.Resource, ev.Detail)
}

var seqCounter atomic.Uint64

// NextSeq returns the next global event sequence number.
func NextSeq() uint64 {
	return seqCounter.Add(1)
}
