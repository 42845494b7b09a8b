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

package pipeline

import (
	"errors"
	"sync"

	"github.com/charmbracelet/log"

	"go.loopcast.dev/capturecast"
)

// Sink is anything a ThreadBuffer can drain bytes into: a playback device,
// a WAV file, or a codec encoder's stdin.
type Sink interface {
	Write(p []byte) (int, error)
	Close() error
}

// ThreadBuffer decouples a fast producer (the capture device, or a
// resample/encode stage) from a slower or jittery consumer by running the
// consumer's Write calls on its own goroutine, fed through a ByteQueue.
// This is the Go shape of the teacher's internal/bufpipe background
// forwarding goroutine, generalized from a channel of sdr.Samples to a
// byte-oriented Sink. WriteData (and the ByteQueue underneath it) never
// blocks the caller: a sink that falls behind causes the oldest buffered
// data to be dropped rather than suspending the producer, matching the
// reference implementation's ThreadBuffer::write_data over an unbounded
// VecDeque.
type ThreadBuffer struct {
	queue *ByteQueue
	sink  Sink
	label string

	wg      sync.WaitGroup
	mu      sync.Mutex
	lastErr error
}

// NewThreadBuffer starts a drain goroutine that copies everything written
// to the returned ThreadBuffer into sink, in order, until StopAndJoin is
// called or the sink reports a fatal write error.
func NewThreadBuffer(label string, sink Sink, bufferSize int) *ThreadBuffer {
	tb := &ThreadBuffer{
		queue: NewByteQueue(bufferSize),
		sink:  sink,
		label: label,
	}
	tb.wg.Add(1)
	go tb.run()
	return tb
}

func (tb *ThreadBuffer) run() {
	defer tb.wg.Done()
	scratch := make([]byte, DefaultBufferSize)
	for {
		n, err := tb.queue.DrainInto(scratch)
		if n > 0 {
			if _, werr := tb.sink.Write(scratch[:n]); werr != nil {
				tb.setErr(werr)
				log.Error("sink write failed, dropping sink", "sink", tb.label, "err", werr)
				return
			}
		}
		if err != nil {
			if !errors.Is(err, capturecast.ErrClosed) {
				tb.setErr(err)
			}
			return
		}
	}
}

func (tb *ThreadBuffer) setErr(err error) {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	if tb.lastErr == nil {
		tb.lastErr = err
	}
}

// WriteData enqueues p for delivery to the sink without ever blocking the
// caller; if the sink has fallen behind enough to saturate the internal
// queue, the oldest buffered data is dropped to make room.
func (tb *ThreadBuffer) WriteData(p []byte) (int, error) {
	return tb.queue.Write(p)
}

// StopAndJoin closes the queue, waits for the drain goroutine to finish
// delivering any buffered bytes, closes the sink, and returns the first
// error either side encountered.
func (tb *ThreadBuffer) StopAndJoin() error {
	_ = tb.queue.Close()
	tb.wg.Wait()

	closeErr := tb.sink.Close()

	tb.mu.Lock()
	defer tb.mu.Unlock()
	if tb.lastErr != nil {
		return tb.lastErr
	}
	return closeErr
}

// vim: foldmethod=marker
