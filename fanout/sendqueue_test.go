package fanout_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"go.loopcast.dev/capturecast/fanout"
)

func TestSendQueueFIFOAndFreeListReuse(t *testing.T) {
	q := fanout.NewSendQueue()

	q.Push([]byte("first"))
	q.Push([]byte("second"))

	pkt, ok := q.Pop()
	assert.True(t, ok)
	assert.Equal(t, "first", string(pkt))
	q.Release(pkt)

	pkt2, ok := q.Pop()
	assert.True(t, ok)
	assert.Equal(t, "second", string(pkt2))
	q.Release(pkt2)

	_, ok = q.Pop()
	assert.False(t, ok)

	// A released buffer is reused rather than leaking a fresh allocation
	// every Push; pushing a same-or-smaller packet should not grow the
	// free list.
	q.Push([]byte("third"))
	pkt3, ok := q.Pop()
	assert.True(t, ok)
	assert.Equal(t, "third", string(pkt3))
}

func TestSendQueueDropsOldestOnSaturation(t *testing.T) {
	q := fanout.NewSendQueue()

	for i := 0; i < 300; i++ {
		q.Push([]byte{byte(i)})
	}

	pkt, ok := q.Pop()
	assert.True(t, ok)
	assert.Equal(t, byte(44), pkt[0], "the oldest 44 blocks should have been dropped to stay at the cap")
}

func TestSendQueueReadySignalsOnce(t *testing.T) {
	q := fanout.NewSendQueue()

	select {
	case <-q.Ready():
		t.Fatal("ready should not fire before any push")
	default:
	}

	q.Push([]byte("x"))

	select {
	case <-q.Ready():
	case <-time.After(time.Second):
		t.Fatal("ready never signaled after push")
	}
}
