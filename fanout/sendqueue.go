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

package fanout

import (
	"sync"

	"github.com/charmbracelet/log"
)

// maxPendingBlocks bounds how many encoded blocks can sit undelivered
// before the broadcast loop is declared too far behind. Past this point
// the producer is outpacing every peer (or the event loop has stalled),
// and spec.md's queue-saturation rule applies: drop the oldest block
// rather than grow without bound.
const maxPendingBlocks = 256

// dropLogInterval rate-limits the saturation warning to once per N drops.
const dropLogInterval = 100

// SendQueue holds outbound packets awaiting broadcast, reusing backing
// arrays from a free list instead of allocating one per packet. This
// mirrors the reference implementation's to_send/free split: packets are
// pushed by the encode stage and popped by the broadcast loop, and once a
// popped packet has been sent to every peer its buffer is returned with
// Release so the next Push can reuse it.
type SendQueue struct {
	mu    sync.Mutex
	ready chan struct{}

	pending [][]byte
	free    [][]byte

	dropped        int
	dropLogCounter int
}

// NewSendQueue creates an empty SendQueue.
func NewSendQueue() *SendQueue {
	return &SendQueue{ready: make(chan struct{}, 1)}
}

// Push enqueues pkt for broadcast, copying it into a reused free-list
// buffer when one of sufficient capacity is available. If the queue is
// already at maxPendingBlocks, the oldest pending block is dropped to make
// room. Ready() will unblock a pending receiver.
func (q *SendQueue) Push(pkt []byte) {
	q.mu.Lock()
	if len(q.pending) >= maxPendingBlocks {
		stale := q.pending[0]
		q.pending = q.pending[1:]
		q.free = append(q.free, stale[:0])

		q.dropped++
		q.dropLogCounter++
		if q.dropLogCounter >= dropLogInterval {
			log.Warn("fanout: send queue saturated, dropping oldest block", "blocks_dropped_total", q.dropped)
			q.dropLogCounter = 0
		}
	}

	var buf []byte
	if n := len(q.free); n > 0 {
		buf = q.free[n-1]
		q.free = q.free[:n-1]
	}
	if cap(buf) < len(pkt) {
		buf = make([]byte, len(pkt))
	}
	buf = buf[:len(pkt)]
	copy(buf, pkt)
	q.pending = append(q.pending, buf)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// Pop removes and returns the oldest pending packet, or (nil, false) if
// the queue is empty.
func (q *SendQueue) Pop() ([]byte, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return nil, false
	}
	pkt := q.pending[0]
	q.pending = q.pending[1:]
	return pkt, true
}

// Release returns a buffer obtained from Pop to the free list once the
// caller is done with it (i.e. it has been sent to every current peer).
func (q *SendQueue) Release(buf []byte) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.free = append(q.free, buf[:0])
}

// Ready returns the channel the broadcast loop selects on to learn a
// packet became available without busy-polling Pop.
func (q *SendQueue) Ready() <-chan struct{} {
	return q.ready
}

// vim: foldmethod=marker
