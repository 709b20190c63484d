//go:build !wakernosync

package main

import (
	"time"

	"wakeslot/internal/asyncrt"
)

// Wall-clock sleeping needs the locked adapter, so the flag and the
// sleeper only exist when that adapter is compiled in.
func init() {
	demoCmd.Flags().Duration("real-sleep", 0, "also park a task on a wall-clock timer for this long")
	spawnRealSleeper = func(ex *asyncrt.Executor, d time.Duration) asyncrt.TaskID {
		var tid asyncrt.TimerID
		return ex.Spawn(func(cx *asyncrt.Context) (any, asyncrt.Poll) {
			if tid == 0 {
				tid = cx.SleepReal(d)
				return nil, asyncrt.PollPending
			}
			if !ex.TimerFired(tid) {
				return nil, asyncrt.PollPending
			}
			return "woke", asyncrt.PollReady
		})
	}
}
