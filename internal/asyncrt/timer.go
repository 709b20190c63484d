package asyncrt

import (
	"container/heap"
	"sync/atomic"
	"time"

	"wakeslot/internal/trace"
	"wakeslot/internal/waker"
)

// TimerID identifies a scheduled timer.
type TimerID uint64

// Timer represents a scheduled wakeup. Virtual timers fire on the
// executor goroutine through an Exclusive-wrapped slot; real-time
// timers fire from a time.AfterFunc goroutine through a
// Synced-wrapped slot. Both adapters satisfy the shared registration
// capability, so the timer stores whichever fits its firing context.
type Timer struct {
	id         TimerID
	deadlineMs uint64
	periodMs   uint64
	cancelled  bool
	fired      atomic.Uint64
	slot       waker.Registrar
	real       *time.Timer
}

type timerHeap []*Timer

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if h[i].deadlineMs == h[j].deadlineMs {
		return h[i].id < h[j].id
	}
	return h[i].deadlineMs < h[j].deadlineMs
}

func (h timerHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *timerHeap) Push(x any) {
	timer, ok := x.(*Timer)
	if !ok || timer == nil {
		return
	}
	*h = append(*h, timer)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	if n == 0 {
		return (*Timer)(nil)
	}
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// TimerAfter schedules a one-shot virtual timer and registers the
// polled task's waker with it. The wakeup consumes the stored handle.
func (cx *Context) TimerAfter(delayMs uint64) TimerID {
	timer := cx.ex.newTimer(0)
	timer.deadlineMs = cx.ex.nowMs + delayMs
	timer.slot = waker.NewExclusive(&waker.Slot{})
	cx.registerTimer(timer)
	heap.Push(&cx.ex.timers, timer)
	return timer.id
}

// TimerEvery schedules a periodic virtual timer. Each firing notifies
// by reference, so the stored handle survives across ticks and the
// task never re-registers.
func (cx *Context) TimerEvery(periodMs uint64) TimerID {
	if periodMs == 0 {
		periodMs = 1
	}
	timer := cx.ex.newTimer(periodMs)
	timer.deadlineMs = cx.ex.nowMs + periodMs
	timer.slot = waker.NewExclusive(&waker.Slot{})
	cx.registerTimer(timer)
	heap.Push(&cx.ex.timers, timer)
	return timer.id
}

func (e *Executor) newTimer(periodMs uint64) *Timer {
	id := e.nextTimerID
	e.nextTimerID++
	timer := &Timer{id: id, periodMs: periodMs}
	e.timerByID[id] = timer
	return timer
}

func (cx *Context) registerTimer(timer *Timer) {
	cx.ex.trace(trace.KindRegister, cx.task.ID, resourceName("timer", timer.id), "")
	timer.slot.Register(cx.Waker())
}

// TimerCancel marks a timer as cancelled and removes it from lookup.
func (e *Executor) TimerCancel(id TimerID) {
	if e == nil || id == 0 {
		return
	}
	timer := e.timerByID[id]
	if timer == nil {
		return
	}
	timer.cancelled = true
	if timer.real != nil && timer.real.Stop() {
		e.armed.Add(-1)
	}
	delete(e.timerByID, id)
}

// TimerTicks reports how many times a timer has fired.
func (e *Executor) TimerTicks(id TimerID) uint64 {
	if e == nil || id == 0 {
		return 0
	}
	timer := e.timerByID[id]
	if timer == nil {
		return 0
	}
	return timer.fired.Load()
}

// TimerFired reports whether a timer has fired at least once.
func (e *Executor) TimerFired(id TimerID) bool {
	return e.TimerTicks(id) > 0
}

// NowMs returns the executor's virtual time.
func (e *Executor) NowMs() uint64 {
	if e == nil {
		return 0
	}
	return e.nowMs
}

// advanceTimeToNextTimer jumps virtual time to the earliest pending
// virtual deadline and fires everything due. Returns false when no
// virtual timer is pending.
func (e *Executor) advanceTimeToNextTimer() bool {
	if e == nil {
		return false
	}
	for {
		if len(e.timers) == 0 {
			return false
		}
		timer, ok := heap.Pop(&e.timers).(*Timer)
		if !ok || timer == nil || timer.cancelled {
			continue
		}
		e.nowMs = timer.deadlineMs
		e.fireTimer(timer)
		for len(e.timers) > 0 {
			next := e.timers[0]
			if next == nil || next.cancelled {
				heap.Pop(&e.timers)
				continue
			}
			if next.deadlineMs > e.nowMs {
				break
			}
			heap.Pop(&e.timers)
			e.fireTimer(next)
		}
		return true
	}
}

func (e *Executor) fireTimer(timer *Timer) {
	timer.fired.Add(1)
	if timer.periodMs > 0 {
		timer.slot.WakeByRef()
		timer.deadlineMs = e.nowMs + timer.periodMs
		heap.Push(&e.timers, timer)
		return
	}
	// The entry stays in timerByID so the woken task can observe
	// TimerFired; TimerCancel reclaims it.
	timer.slot.Wake()
}
