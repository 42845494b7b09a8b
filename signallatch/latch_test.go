package signallatch_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"go.loopcast.dev/capturecast/signallatch"
)

func TestLatchTripIsIdempotentAndBroadcast(t *testing.T) {
	l, stop := signallatch.New()
	defer stop()

	assert.False(t, l.HasSignal())

	select {
	case <-l.Done():
		t.Fatal("latch should not be tripped yet")
	default:
	}

	l.Trip()
	l.Trip() // second trip must not panic on double-close

	assert.True(t, l.HasSignal())

	select {
	case <-l.Done():
	case <-time.After(time.Second):
		t.Fatal("Done channel never closed")
	}

	// A second waiter also observes the already-closed channel immediately.
	select {
	case <-l.Done():
	case <-time.After(time.Second):
		t.Fatal("second waiter never observed tripped latch")
	}
}
