// {{{ Copyright (c) Paul R. Tagliamonte <paul@k3xec.com>, 2020
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE. }}}

// Package pipeline wires a capture device through a bounded byte queue to
// one or more sinks, and owns the top-level orchestration of that pipeline
// from start to orderly shutdown.
package pipeline

import (
	"sync"

	"github.com/charmbracelet/log"

	"go.loopcast.dev/capturecast"
)

// DefaultBufferSize is the capacity, in bytes, a ByteQueue is given when
// none is specified. It mirrors the producer/consumer handoff buffer size
// the reference implementation used between its capture thread and its
// worker threads.
const DefaultBufferSize = 4096

// dropLogInterval rate-limits the saturation warning so a sink stuck for a
// long time doesn't flood the log with one line per dropped chunk.
const dropLogInterval = 100

// ByteQueue is a single-producer/single-consumer FIFO byte buffer that is
// "unbounded enough": Write never blocks the producer. While there is room
// it simply appends; once the queue reaches capacity it drops the oldest
// buffered bytes to make room for the new ones, logging once per
// dropLogInterval drops rather than on every one. DrainInto blocks while
// the queue is empty. Close is irreversible: once closed, pending data can
// still be drained, but no further Write will succeed and a drain of an
// empty, closed queue returns immediately.
//
// This plays the role the teacher's internal/bufpipe.Pipe plays for a
// channel of sdr.Samples, generalized to a flat byte buffer, and matches
// the reference implementation's ThreadBuffer::write_data, which appends to
// an unbounded VecDeque and never suspends the caller.
type ByteQueue struct {
	mu       sync.Mutex
	notEmpty *sync.Cond

	buf      []byte
	capacity int
	closed   bool

	dropped        int
	dropLogCounter int
}

// NewByteQueue creates a ByteQueue with the given capacity in bytes.
func NewByteQueue(capacity int) *ByteQueue {
	if capacity <= 0 {
		capacity = DefaultBufferSize
	}
	q := &ByteQueue{capacity: capacity}
	q.notEmpty = sync.NewCond(&q.mu)
	return q
}

// Write appends p to the queue without ever blocking the caller. If the
// queue is at capacity, the oldest buffered bytes are dropped to make room
// -- the producer side of this pipeline must never suspend on a sink
// falling behind. It returns capturecast.ErrClosed if the queue has been
// closed.
func (q *ByteQueue) Write(p []byte) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return 0, capturecast.ErrClosed
	}

	if len(p) > q.capacity {
		excess := len(p) - q.capacity
		p = p[excess:]
		q.recordDrop(excess)
	}

	if overflow := len(q.buf) + len(p) - q.capacity; overflow > 0 {
		q.buf = q.buf[overflow:]
		q.recordDrop(overflow)
	}

	q.buf = append(q.buf, p...)
	q.notEmpty.Signal()
	return len(p), nil
}

func (q *ByteQueue) recordDrop(n int) {
	q.dropped += n
	q.dropLogCounter++
	if q.dropLogCounter >= dropLogInterval {
		log.Warn("pipeline: sink queue saturated, dropping oldest data", "bytes_dropped_total", q.dropped)
		q.dropLogCounter = 0
	}
}

// DrainInto copies as much buffered data as is available into dst, blocking
// until at least one byte is available or the queue is closed and empty.
// It returns (0, capturecast.ErrClosed) only once the queue is both closed
// and fully drained.
func (q *ByteQueue) DrainInto(dst []byte) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.buf) == 0 {
		if q.closed {
			return 0, capturecast.ErrClosed
		}
		q.notEmpty.Wait()
	}

	n := copy(dst, q.buf)
	q.buf = q.buf[n:]
	return n, nil
}

// Close marks the queue closed. It is idempotent and safe to call
// concurrently with Write/DrainInto; a blocked DrainInto is woken so it can
// observe the new state.
func (q *ByteQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	q.closed = true
	q.notEmpty.Broadcast()
	return nil
}

// Len returns the number of bytes currently buffered. It is intended for
// tests and diagnostics, not for flow control decisions.
func (q *ByteQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.buf)
}

// vim: foldmethod=marker
