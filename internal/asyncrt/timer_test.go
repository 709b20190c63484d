package asyncrt

import "testing"

func TestVirtualTimerAdvancesClock(t *testing.T) {
	ex := NewExecutor(Config{})

	var tid TimerID
	sleeper := ex.Spawn(func(cx *Context) (any, Poll) {
		if tid == 0 {
			tid = cx.TimerAfter(50)
			return nil, PollPending
		}
		if !ex.TimerFired(tid) {
			return nil, PollPending
		}
		return ex.NowMs(), PollReady
	})

	ex.RunUntilIdle()

	if !ex.Done(sleeper) {
		t.Fatalf("sleeper never woke")
	}
	if got := ex.Task(sleeper).Result; got != uint64(50) {
		t.Fatalf("woke at virtual time %v, want 50", got)
	}
	if ex.NowMs() != 50 {
		t.Fatalf("executor time %d, want 50", ex.NowMs())
	}
}

func TestTimersFireInDeadlineOrder(t *testing.T) {
	ex := NewExecutor(Config{})
	var order []uint64

	spawnSleeper := func(delayMs uint64) {
		var tid TimerID
		ex.Spawn(func(cx *Context) (any, Poll) {
			if tid == 0 {
				tid = cx.TimerAfter(delayMs)
				return nil, PollPending
			}
			if !ex.TimerFired(tid) {
				return nil, PollPending
			}
			order = append(order, delayMs)
			return nil, PollReady
		})
	}
	spawnSleeper(30)
	spawnSleeper(10)
	spawnSleeper(20)

	ex.RunUntilIdle()

	if len(order) != 3 {
		t.Fatalf("only %d sleepers woke: %v", len(order), order)
	}
	for i, want := range []uint64{10, 20, 30} {
		if order[i] != want {
			t.Fatalf("wake order %v, want [10 20 30]", order)
		}
	}
}

// Periodic timers fire by reference: the stored handle survives every
// tick and the task never re-registers.
func TestPeriodicTimerKeepsHandleRegistered(t *testing.T) {
	ex := NewExecutor(Config{})

	var tid TimerID
	ticker := ex.Spawn(func(cx *Context) (any, Poll) {
		if tid == 0 {
			tid = cx.TimerEvery(10)
			return nil, PollPending
		}
		if ex.TimerTicks(tid) < 3 {
			return nil, PollPending
		}
		ticks := ex.TimerTicks(tid)
		ex.TimerCancel(tid)
		return ticks, PollReady
	})

	ex.RunUntilIdle()

	if !ex.Done(ticker) {
		t.Fatalf("ticker never finished")
	}
	ticks, ok := ex.Task(ticker).Result.(uint64)
	if !ok || ticks < 3 {
		t.Fatalf("observed %v ticks, want at least 3", ex.Task(ticker).Result)
	}
	if ex.NowMs() < 30 {
		t.Fatalf("virtual time %d after 3 ticks of 10ms", ex.NowMs())
	}
}

func TestCancelledTimerNeverFires(t *testing.T) {
	ex := NewExecutor(Config{})

	var tid TimerID
	ex.Spawn(func(cx *Context) (any, Poll) {
		tid = cx.TimerAfter(1000)
		ex.TimerCancel(tid)
		return nil, PollReady
	})

	ex.RunUntilIdle()

	if ex.TimerFired(tid) {
		t.Fatalf("cancelled timer fired")
	}
	if ex.NowMs() != 0 {
		t.Fatalf("clock advanced to %d for a cancelled timer", ex.NowMs())
	}
}
