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

// Package signallatch turns SIGINT/SIGTERM into a one-way latch that any
// number of goroutines can observe without racing each other or the signal
// handler.
package signallatch

import (
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
)

// Latch is a one-shot, broadcastable "shut down now" flag. Once tripped it
// never resets; Done's channel stays closed forever, which is what lets an
// arbitrary number of select loops observe it without coordination.
type Latch struct {
	tripped atomic.Bool
	done    chan struct{}
	once    sync.Once
}

// New creates a Latch that trips the first time the process receives
// SIGINT or SIGTERM. The returned stop function releases the underlying
// signal.Notify registration; it does not untrip the latch.
func New() (*Latch, func()) {
	l := &Latch{done: make(chan struct{})}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		if _, ok := <-sigCh; ok {
			l.trip()
		}
	}()

	return l, func() { signal.Stop(sigCh); close(sigCh) }
}

// trip flips the latch exactly once, closing Done's channel.
func (l *Latch) trip() {
	l.tripped.Store(true)
	l.once.Do(func() { close(l.done) })
}

// Trip trips the latch programmatically, as if a signal had arrived. This
// is how tests, and any future administrative shutdown trigger, request
// the same orderly shutdown a signal would.
func (l *Latch) Trip() {
	l.trip()
}

// HasSignal reports whether the latch has tripped yet.
func (l *Latch) HasSignal() bool {
	return l.tripped.Load()
}

// Done returns a channel that is closed exactly once, when the latch trips.
// Every event loop in this program selects on it alongside its own work.
func (l *Latch) Done() <-chan struct{} {
	return l.done
}

// vim: foldmethod=marker
