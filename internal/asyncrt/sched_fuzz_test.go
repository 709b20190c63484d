package asyncrt

import "testing"

// FuzzSchedulerDelivery drives a producer/consumer pair under the fuzz
// scheduler with arbitrary seeds. Whatever order the scheduler picks,
// every message must arrive exactly once and the same seed must
// reproduce the same run.
func FuzzSchedulerDelivery(f *testing.F) {
	f.Add(uint64(1), uint8(4))
	f.Add(uint64(42), uint8(9))
	f.Add(uint64(1)<<33, uint8(1))
	f.Add(uint64(0), uint8(0))

	f.Fuzz(func(t *testing.T, seed uint64, count uint8) {
		n := uint64(count%16) + 1

		run := func() uint64 {
			ex := NewExecutor(Config{Fuzz: true, Seed: seed})
			ch := ex.ChanNew(2)

			var next uint64 = 1
			ex.Spawn(func(cx *Context) (any, Poll) {
				for next <= n {
					if !cx.ChanSend(ch, next) {
						return nil, PollPending
					}
					next++
				}
				ex.ChanClose(ch)
				return nil, PollReady
			})

			var sum uint64
			ex.Spawn(func(cx *Context) (any, Poll) {
				for {
					val, ok := cx.ChanRecv(ch)
					if ok {
						sum += val.(uint64)
						continue
					}
					if ex.ChanIsClosed(ch) {
						return sum, PollReady
					}
					return nil, PollPending
				}
			})

			ex.RunUntilIdle()
			return sum
		}

		want := n * (n + 1) / 2
		first := run()
		if first != want {
			t.Fatalf("seed %d delivered sum %d, want %d", seed, first, want)
		}
		if second := run(); second != first {
			t.Fatalf("seed %d is not reproducible: %d vs %d", seed, first, second)
		}
	})
}
