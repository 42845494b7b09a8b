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
	"bytes"
	"fmt"
	"net"
	"strings"

	"github.com/charmbracelet/log"

	"go.loopcast.dev/capturecast"
	"go.loopcast.dev/capturecast/signallatch"
)

// infoReply is the fixed payload returned to an "info" control message. The
// reference implementation's send_info replies with this exact string; it
// is not a place to put codec or format metadata.
const infoReply = "Hi, how are you?"

// Server owns one UDP socket used both to receive the tiny "info"/"start"/
// "stop" control protocol from peers and to broadcast encoded audio
// packets out to every peer that has sent "start". It is the Go
// translation of the reference implementation's mio-based NetServer: the
// three poll tokens (incoming datagrams, shutdown signal, outbound data
// ready) become three channels in one select loop.
type Server struct {
	conn     *net.UDPConn
	registry *ClientRegistry
	queue    *SendQueue
}

type incomingMsg struct {
	addr *net.UDPAddr
	data []byte
}

// Listen opens the UDP socket this server broadcasts on and receives
// control messages on.
func Listen(addr string) (*Server, error) {
	udpAddr, err := net.ResolveUDPAddr("udp4", addr)
	if err != nil {
		return nil, &capturecast.DeviceError{Device: addr, Err: err}
	}
	conn, err := net.ListenUDP("udp4", udpAddr)
	if err != nil {
		return nil, &capturecast.DeviceError{Device: addr, Err: err}
	}
	return &Server{
		conn:     conn,
		registry: NewClientRegistry(),
		queue:    NewSendQueue(),
	}, nil
}

// LocalAddr returns the address the server's UDP socket is bound to,
// useful when Listen was given port 0 and the OS chose one.
func (s *Server) LocalAddr() net.Addr {
	return s.conn.LocalAddr()
}

// Broadcast enqueues pkt for delivery to every currently subscribed peer.
// Shutdown-in-progress callers should check the latch themselves; once the
// run loop has exited, queued packets are simply never drained.
func (s *Server) Broadcast(pkt []byte) {
	s.queue.Push(pkt)
}

// PeerCount reports the number of currently subscribed peers, mainly for
// diagnostics and tests.
func (s *Server) PeerCount() int {
	return s.registry.Len()
}

// Run drives the receive/control/broadcast event loop until latch trips,
// at which point it closes the socket and returns.
func (s *Server) Run(latch *signallatch.Latch) error {
	incoming := make(chan incomingMsg, 16)
	readErr := make(chan error, 1)
	go s.readLoop(incoming, readErr)

	for {
		select {
		case <-latch.Done():
			_ = s.conn.Close()
			return nil

		case err := <-readErr:
			_ = s.conn.Close()
			return &capturecast.DeviceError{Device: s.conn.LocalAddr().String(), Err: err}

		case msg := <-incoming:
			s.handleControl(msg)

		case <-s.queue.Ready():
			s.drainOutbound()
		}
	}
}

func (s *Server) readLoop(out chan<- incomingMsg, errCh chan<- error) {
	buf := make([]byte, 1500)
	for {
		n, addr, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			if strings.Contains(err.Error(), "use of closed network connection") {
				return
			}
			errCh <- err
			return
		}
		data := make([]byte, n)
		copy(data, buf[:n])
		out <- incomingMsg{addr: addr, data: data}
	}
}

func (s *Server) handleControl(msg incomingMsg) {
	cmd := strings.TrimSpace(strings.ToLower(string(bytes.TrimRight(msg.data, "\x00"))))
	switch cmd {
	case "info":
		if _, err := s.conn.WriteToUDP([]byte(infoReply), msg.addr); err != nil {
			log.Warn("fanout: failed to answer info request", "peer", msg.addr, "err", err)
		}
	case "start":
		if s.registry.Add(msg.addr) {
			log.Info("fanout: peer subscribed", "peer", msg.addr)
		}
	case "stop":
		if s.registry.Remove(msg.addr) {
			log.Info("fanout: peer unsubscribed", "peer", msg.addr)
		}
	default:
		log.Warn("fanout: unrecognized control message", "peer", msg.addr, "cmd", fmt.Sprintf("%q", cmd))
	}
}

func (s *Server) drainOutbound() {
	for {
		pkt, ok := s.queue.Pop()
		if !ok {
			return
		}
		for _, peer := range s.registry.Snapshot() {
			if _, err := s.conn.WriteToUDP(pkt, peer); err != nil {
				log.Warn("fanout: dropping peer after send failure", "peer", peer, "err", err)
				s.registry.Remove(peer)
			}
		}
		s.queue.Release(pkt)
	}
}

// vim: foldmethod=marker
