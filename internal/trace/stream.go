package trace

import (
	"io"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

// StreamTracer writes events immediately to an io.Writer as a stream
// of msgpack-encoded Event values.
type StreamTracer struct {
	mu  sync.Mutex
	w   io.Writer
	enc *msgpack.Encoder
}

// NewStreamTracer creates a new StreamTracer over w.
func NewStreamTracer(w io.Writer) *StreamTracer {
	return &StreamTracer{
		w:   w,
		enc: msgpack.NewEncoder(w),
	}
}

// Emit encodes an event to the output. Write errors are dropped:
// tracing must never fail the traced operation.
func (t *StreamTracer) Emit(ev *Event) {
	stored := *ev
	stored.Seq = NextSeq()

	t.mu.Lock()
	defer t.mu.Unlock()
	_ = t.enc.Encode(&stored) //nolint:errcheck // best-effort trace write
}

// Flush forwards to the writer if it buffers.
func (t *StreamTracer) Flush() error {
	if flusher, ok := t.w.(interface{ Flush() error }); ok {
		return flusher.Flush()
	}
	return nil
}

// Close flushes and closes the writer if it implements io.Closer.
func (t *StreamTracer) Close() error {
	if err := t.Flush(); err != nil {
		return err
	}
	if closer, ok := t.w.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Enabled reports that the tracer records events.
func (t *StreamTracer) Enabled() bool { return true }

// ReadEvents decodes a msgpack event stream until EOF, as written by
// a StreamTracer.
func ReadEvents(r io.Reader) ([]Event, error) {
	dec := msgpack.NewDecoder(r)
	var events []Event
	for {
		var ev Event
		if err := dec.Decode(&ev); err != nil {
			if err == io.EOF {
				return events, nil
			}
			return events, err
		}
		events = append(events, ev)
	}
}
