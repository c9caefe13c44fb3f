package events

import (
	"context"
	"sync"
)

// Recorder keeps the most recent events in a fixed-size ring.
type Recorder struct {
	mu   sync.RWMutex
	buf  []Event
	next int
	full bool
}

func NewRecorder(size int) *Recorder {
	if size < 1 {
		size = 1
	}
	return &Recorder{buf: make([]Event, size)}
}

func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	r.buf[r.next] = e
	r.next = (r.next + 1) % len(r.buf)
	if r.next == 0 {
		r.full = true
	}
	r.mu.Unlock()
	return nil
}

// Recent returns stored events oldest first.
func (r *Recorder) Recent() []Event {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.full {
		return append([]Event(nil), r.buf[:r.next]...)
	}
	out := make([]Event, 0, len(r.buf))
	out = append(out, r.buf[r.next:]...)
	return append(out, r.buf[:r.next]...)
}
