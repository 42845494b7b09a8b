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

// Package fanout broadcasts encoded audio packets to a dynamic set of UDP
// listeners, who opt in and out with a tiny text control protocol over the
// same socket the audio travels on.
package fanout

import (
	"net"
	"sync"
)

// ClientRegistry tracks the set of peers currently subscribed to the
// broadcast, as an ordered set: Snapshot reports peers in the order they
// subscribed, not map iteration order. Add and Remove are idempotent:
// adding an address twice, or removing an address that was never added,
// is a no-op rather than an error, since the control protocol cannot tell
// a retransmitted "start" from a genuinely new one.
type ClientRegistry struct {
	mu      sync.Mutex
	clients map[string]*net.UDPAddr
	order   []string
}

// NewClientRegistry creates an empty registry.
func NewClientRegistry() *ClientRegistry {
	return &ClientRegistry{clients: make(map[string]*net.UDPAddr)}
}

// Add registers addr as a broadcast recipient. Returns true if this
// addr was not already registered.
func (r *ClientRegistry) Add(addr *net.UDPAddr) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := addr.String()
	if _, ok := r.clients[key]; ok {
		return false
	}
	r.clients[key] = addr
	r.order = append(r.order, key)
	return true
}

// Remove unregisters addr. Returns true if it had been registered.
func (r *ClientRegistry) Remove(addr *net.UDPAddr) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := addr.String()
	if _, ok := r.clients[key]; !ok {
		return false
	}
	delete(r.clients, key)
	for i, k := range r.order {
		if k == key {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Len reports the current number of registered peers.
func (r *ClientRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

// Snapshot returns a stable copy of the current peer set in subscription
// order, safe to range over concurrently with further Add/Remove calls.
func (r *ClientRegistry) Snapshot() []*net.UDPAddr {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*net.UDPAddr, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.clients[key])
	}
	return out
}

// vim: foldmethod=marker
