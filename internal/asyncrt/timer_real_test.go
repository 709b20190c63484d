//go:build !wakernosync

package asyncrt

import (
	"testing"
	"time"
)

func TestRealTimerWakesThroughSyncedSlot(t *testing.T) {
	ex := NewExecutor(Config{})

	var tid TimerID
	sleeper := ex.Spawn(func(cx *Context) (any, Poll) {
		if tid == 0 {
			tid = cx.SleepReal(5 * time.Millisecond)
			return nil, PollPending
		}
		if !ex.TimerFired(tid) {
			return nil, PollPending
		}
		return "woke", PollReady
	})

	start := time.Now()
	ex.RunUntilIdle()

	if !ex.Done(sleeper) {
		t.Fatalf("sleeper never woke from real timer")
	}
	if elapsed := time.Since(start); elapsed < 5*time.Millisecond {
		t.Fatalf("woke after %v, before the timer deadline", elapsed)
	}
}

func TestCancelledRealTimerDisarms(t *testing.T) {
	ex := NewExecutor(Config{})

	var tid TimerID
	ex.Spawn(func(cx *Context) (any, Poll) {
		tid = cx.SleepReal(time.Hour)
		ex.TimerCancel(tid)
		return nil, PollReady
	})

	// Must return promptly: the cancelled timer no longer counts as an
	// armed external wakeup source.
	done := make(chan struct{})
	go func() {
		ex.RunUntilIdle()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("executor blocked on a cancelled real timer")
	}
}
