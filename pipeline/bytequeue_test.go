package pipeline_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"go.loopcast.dev/capturecast"
	"go.loopcast.dev/capturecast/pipeline"
)

func TestByteQueueFIFO(t *testing.T) {
	q := pipeline.NewByteQueue(1024)

	n, err := q.Write([]byte("hello "))
	assert.NoError(t, err)
	assert.Equal(t, 6, n)

	n, err = q.Write([]byte("world"))
	assert.NoError(t, err)
	assert.Equal(t, 5, n)

	out := make([]byte, 11)
	n, err = q.DrainInto(out)
	assert.NoError(t, err)
	assert.Equal(t, 11, n)
	assert.Equal(t, "hello world", string(out))
}

func TestByteQueueWriteNeverBlocksOnFullQueue(t *testing.T) {
	q := pipeline.NewByteQueue(4)

	assert.Equal(t, 0, q.Len())

	n, err := q.Write([]byte("abcd"))
	assert.NoError(t, err)
	assert.Equal(t, 4, n)

	done := make(chan struct{})
	go func() {
		defer close(done)
		n, err := q.Write([]byte("ef"))
		assert.NoError(t, err)
		assert.Equal(t, 2, n)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("write blocked on a full queue; the producer must never suspend on a saturated sink")
	}

	// The oldest two bytes ("ab") were dropped to make room for "ef".
	out := make([]byte, 4)
	n, err = q.DrainInto(out)
	assert.NoError(t, err)
	assert.Equal(t, "cdef", string(out[:n]))
}

func TestByteQueueWriteLargerThanCapacityDropsOldest(t *testing.T) {
	q := pipeline.NewByteQueue(4)

	n, err := q.Write([]byte("abcdefgh"))
	assert.NoError(t, err)
	assert.Equal(t, 4, n)

	out := make([]byte, 4)
	n, err = q.DrainInto(out)
	assert.NoError(t, err)
	assert.Equal(t, "efgh", string(out[:n]))
}

func TestByteQueueCloseIsIrreversibleAndDrainsPending(t *testing.T) {
	q := pipeline.NewByteQueue(16)
	_, err := q.Write([]byte("pending"))
	assert.NoError(t, err)

	assert.NoError(t, q.Close())
	assert.NoError(t, q.Close()) // idempotent

	_, err = q.Write([]byte("more"))
	assert.ErrorIs(t, err, capturecast.ErrClosed)

	out := make([]byte, 7)
	n, err := q.DrainInto(out)
	assert.NoError(t, err)
	assert.Equal(t, "pending", string(out[:n]))

	_, err = q.DrainInto(out)
	assert.ErrorIs(t, err, capturecast.ErrClosed)
}

func TestByteQueueCloseWakesBlockedReader(t *testing.T) {
	q := pipeline.NewByteQueue(2)

	var wg sync.WaitGroup
	wg.Add(1)
	var drainErr error
	go func() {
		defer wg.Done()
		_, drainErr = q.DrainInto(make([]byte, 2))
	}()

	time.Sleep(20 * time.Millisecond)
	assert.NoError(t, q.Close())
	wg.Wait()

	assert.ErrorIs(t, drainErr, capturecast.ErrClosed)
}
