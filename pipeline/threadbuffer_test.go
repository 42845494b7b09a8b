package pipeline_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"go.loopcast.dev/capturecast/pipeline"
)

type fakeSink struct {
	mu     sync.Mutex
	chunks [][]byte
	closed bool
	failOn int // fail the Nth Write (1-indexed); 0 means never
	writes int
}

func (f *fakeSink) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	if f.failOn != 0 && f.writes == f.failOn {
		return 0, fmt.Errorf("synthetic write failure")
	}
	cp := append([]byte(nil), p...)
	f.chunks = append(f.chunks, cp)
	return len(p), nil
}

func (f *fakeSink) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeSink) joined() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []byte
	for _, c := range f.chunks {
		out = append(out, c...)
	}
	return out
}

func TestThreadBufferDeliversInOrderAndClosesSink(t *testing.T) {
	sink := &fakeSink{}
	tb := pipeline.NewThreadBuffer("test", sink, 64)

	_, err := tb.WriteData([]byte("one "))
	assert.NoError(t, err)
	_, err = tb.WriteData([]byte("two "))
	assert.NoError(t, err)
	_, err = tb.WriteData([]byte("three"))
	assert.NoError(t, err)

	err = tb.StopAndJoin()
	assert.NoError(t, err)

	assert.Equal(t, "one two three", string(sink.joined()))
	assert.True(t, sink.closed)
}

func TestThreadBufferSurfacesSinkError(t *testing.T) {
	sink := &fakeSink{failOn: 1}
	tb := pipeline.NewThreadBuffer("test", sink, 64)

	_, err := tb.WriteData([]byte("boom"))
	assert.NoError(t, err) // the queue accepts it; the failure is async

	time.Sleep(20 * time.Millisecond)
	err = tb.StopAndJoin()
	assert.Error(t, err)
}
