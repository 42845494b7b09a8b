package fanout_test

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"go.loopcast.dev/capturecast/fanout"
	"go.loopcast.dev/capturecast/signallatch"
)

func TestServerInfoStartStopBroadcast(t *testing.T) {
	srv, err := fanout.Listen("127.0.0.1:0")
	assert.NoError(t, err)

	latch, stop := signallatch.New()
	defer stop()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = srv.Run(latch)
	}()

	client, err := net.DialUDP("udp4", nil, srv.LocalAddr().(*net.UDPAddr))
	assert.NoError(t, err)
	defer client.Close()
	client.SetReadDeadline(time.Now().Add(2 * time.Second))

	_, err = client.Write([]byte("info"))
	assert.NoError(t, err)

	buf := make([]byte, 256)
	n, err := client.Read(buf)
	assert.NoError(t, err)
	assert.Equal(t, "Hi, how are you?", string(buf[:n]))

	_, err = client.Write([]byte("start"))
	assert.NoError(t, err)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, srv.PeerCount())

	srv.Broadcast([]byte("packet-one"))
	n, err = client.Read(buf)
	assert.NoError(t, err)
	assert.Equal(t, "packet-one", string(buf[:n]))

	_, err = client.Write([]byte("stop"))
	assert.NoError(t, err)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, srv.PeerCount())

	latch.Trip()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("server did not shut down after latch tripped")
	}
}
