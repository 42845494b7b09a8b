package fanout_test

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"

	"go.loopcast.dev/capturecast/fanout"
)

func addr(t *testing.T, s string) *net.UDPAddr {
	t.Helper()
	a, err := net.ResolveUDPAddr("udp4", s)
	assert.NoError(t, err)
	return a
}

func TestClientRegistryIdempotence(t *testing.T) {
	r := fanout.NewClientRegistry()
	a := addr(t, "127.0.0.1:9000")

	assert.True(t, r.Add(a))
	assert.False(t, r.Add(a))
	assert.Equal(t, 1, r.Len())

	assert.True(t, r.Remove(a))
	assert.False(t, r.Remove(a))
	assert.Equal(t, 0, r.Len())
}

func TestClientRegistrySnapshotIsStable(t *testing.T) {
	r := fanout.NewClientRegistry()
	r.Add(addr(t, "127.0.0.1:9000"))
	r.Add(addr(t, "127.0.0.1:9001"))

	snap := r.Snapshot()
	assert.Len(t, snap, 2)

	r.Add(addr(t, "127.0.0.1:9002"))
	assert.Len(t, snap, 2) // the earlier snapshot is unaffected
}

func TestClientRegistrySnapshotPreservesSubscriptionOrder(t *testing.T) {
	r := fanout.NewClientRegistry()
	r.Add(addr(t, "127.0.0.1:9002"))
	r.Add(addr(t, "127.0.0.1:9000"))
	r.Add(addr(t, "127.0.0.1:9001"))
	r.Remove(addr(t, "127.0.0.1:9000"))
	r.Add(addr(t, "127.0.0.1:9003"))

	snap := r.Snapshot()
	assert.Len(t, snap, 3)
	assert.Equal(t, "127.0.0.1:9002", snap[0].String())
	assert.Equal(t, "127.0.0.1:9001", snap[1].String())
	assert.Equal(t, "127.0.0.1:9003", snap[2].String())
}
