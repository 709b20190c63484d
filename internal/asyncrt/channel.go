package asyncrt

import (
	"fortio.org/safecast"

	"wakeslot/internal/waker"
)

// ChannelID identifies a channel instance.
type ChannelID uint64

// Channel is a buffered FIFO owned by the executor loop. Each side
// stores its blocked waiter in a single-entry waker slot behind the
// Exclusive adapter: the loop is the only logical owner, so the
// zero-cost sharing contract holds. A second waiter parking on the
// same side displaces the first with a spurious wake.
//
// Rendezvous (capacity zero) is not supported; it needs waiter-carried
// values, which is the scheduler's business, not the slot's.
type Channel struct {
	id     ChannelID
	cap    uint64
	closed bool

	buf  []any
	head int

	recv *waker.Exclusive[*waker.Slot]
	send *waker.Exclusive[*waker.Slot]
}

// ChanNew allocates a new channel. Capacity is clamped to at least 1.
func (e *Executor) ChanNew(capacity uint64) ChannelID {
	if e == nil {
		return 0
	}
	if capacity == 0 {
		capacity = 1
	}
	id := e.nextChanID
	e.nextChanID++
	e.channels[id] = &Channel{
		id:   id,
		cap:  capacity,
		recv: waker.NewExclusive(&waker.Slot{}),
		send: waker.NewExclusive(&waker.Slot{}),
	}
	return id
}

// ChanIsClosed reports whether the channel is closed.
func (e *Executor) ChanIsClosed(id ChannelID) bool {
	if e == nil {
		return true
	}
	ch := e.channels[id]
	return ch == nil || ch.closed
}

// ChanClose marks the channel closed and wakes both sides.
func (e *Executor) ChanClose(id ChannelID) {
	if e == nil {
		return
	}
	ch := e.channels[id]
	if ch == nil || ch.closed {
		return
	}
	ch.closed = true
	ch.recv.Wake()
	ch.send.Wake()
}

// ChanTrySend attempts to send without parking.
// Returns false if the channel is closed or full.
func (e *Executor) ChanTrySend(id ChannelID, value any) bool {
	if e == nil {
		return false
	}
	ch := e.channels[id]
	if ch == nil || ch.closed {
		return false
	}
	if ch.bufLenU64() >= ch.cap {
		return false
	}
	ch.bufPush(value)
	ch.recv.Wake()
	return true
}

// ChanTryRecv attempts to receive without parking.
// Returns ok=false if the channel is empty.
func (e *Executor) ChanTryRecv(id ChannelID) (any, bool) {
	if e == nil {
		return nil, false
	}
	ch := e.channels[id]
	if ch == nil {
		return nil, false
	}
	val, ok := ch.bufPop()
	if !ok {
		return nil, false
	}
	ch.send.Wake()
	return val, true
}

// ChanSend performs a send, or registers the polled task as the
// blocked sender. Returns true if the send completed.
func (cx *Context) ChanSend(id ChannelID, value any) bool {
	e := cx.ex
	if e.ChanTrySend(id, value) {
		return true
	}
	ch := e.channels[id]
	if ch == nil || ch.closed {
		return false
	}
	e.traceRegister(ch.send.Mut(), cx.task.ID, "chan", ch.id)
	ch.send.Register(cx.Waker())
	return false
}

// ChanRecv performs a receive, or registers the polled task as the
// blocked receiver. Returns ok=true with a value on success; when
// ok=false, check ChanIsClosed to distinguish "parked" from "drained".
func (cx *Context) ChanRecv(id ChannelID) (any, bool) {
	e := cx.ex
	if val, ok := e.ChanTryRecv(id); ok {
		return val, true
	}
	ch := e.channels[id]
	if ch == nil || ch.closed {
		return nil, false
	}
	e.traceRegister(ch.recv.Mut(), cx.task.ID, "chan", ch.id)
	ch.recv.Register(cx.Waker())
	return nil, false
}

// ChanCanRecv reports whether a receive would complete immediately.
func (e *Executor) ChanCanRecv(id ChannelID) bool {
	if e == nil {
		return false
	}
	ch := e.channels[id]
	if ch == nil {
		return false
	}
	return ch.bufLen() > 0 || ch.closed
}

// ChanCanSend reports whether a send would complete immediately.
func (e *Executor) ChanCanSend(id ChannelID) bool {
	if e == nil {
		return false
	}
	ch := e.channels[id]
	if ch == nil || ch.closed {
		return false
	}
	return ch.bufLenU64() < ch.cap
}

func (ch *Channel) bufLen() int {
	if ch == nil {
		return 0
	}
	return len(ch.buf) - ch.head
}

func (ch *Channel) bufLenU64() uint64 {
	n := ch.bufLen()
	if n <= 0 {
		return 0
	}
	u, err := safecast.Conv[uint64](n)
	if err != nil {
		return 0
	}
	return u
}

func (ch *Channel) bufPush(value any) {
	ch.buf = append(ch.buf, value)
}

func (ch *Channel) bufPop() (any, bool) {
	if ch == nil || ch.bufLen() == 0 {
		return nil, false
	}
	val := ch.buf[ch.head]
	ch.buf[ch.head] = nil
	ch.head++
	if ch.head >= len(ch.buf) {
		ch.buf = nil
		ch.head = 0
	} else if ch.head > 128 && ch.head*2 >= len(ch.buf) {
		remaining := append([]any(nil), ch.buf[ch.head:]...)
		ch.buf = remaining
		ch.head = 0
	}
	return val, true
}
