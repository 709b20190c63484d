// Package waker provides single-slot wakeup notification storage for
// cooperatively scheduled tasks blocked on a shared resource.
//
// A resource that needs to remember "who is waiting" embeds a Slot
// behind one of two sharing adapters. The waiting side registers its
// handle before blocking; the mutating side fires the slot after
// changing shared state.
//
// The Slot holds at most one handle: repeated registrations from the
// same logical waiter coalesce, and registering a different waiter
// evicts the previous one by waking it immediately. A displaced waiter
// may observe a spurious early wakeup but is never silently dropped.
//
// Exclusive wraps a store with zero synchronization and an unchecked
// single-owner contract; Synced wraps it behind a mutex and is safe
// under genuine concurrent sharing. See the adapter types for the
// exact access discipline each one requires.
package waker
