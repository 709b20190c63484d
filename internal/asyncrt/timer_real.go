//go:build !wakernosync

package asyncrt

import (
	"time"

	"wakeslot/internal/waker"
)

// SleepReal schedules a one-shot wall-clock timer. The firing happens
// on the timer's own goroutine, so the waker sits behind the locked
// adapter. Unavailable under the wakernosync build tag.
func (cx *Context) SleepReal(d time.Duration) TimerID {
	e := cx.ex
	timer := e.newTimer(0)
	timer.slot = waker.NewSynced(&waker.Slot{})
	cx.registerTimer(timer)
	e.armed.Add(1)
	slot := timer.slot
	fired := &timer.fired
	timer.real = time.AfterFunc(d, func() {
		fired.Add(1)
		slot.Wake()
		e.armed.Add(-1)
	})
	return timer.id
}
