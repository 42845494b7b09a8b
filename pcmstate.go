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

package capturecast

// PcmState mirrors the lifecycle a PCM device moves through between being
// opened and being torn down. Capture and playback endpoints both drive
// this state machine, recovering from XRun by cycling back to Prepared
// rather than failing outright.
type PcmState uint8

const (
	PcmStateOpen PcmState = iota
	PcmStateSetup
	PcmStatePrepared
	PcmStateRunning
	PcmStateXRun
	PcmStateDraining
	PcmStatePaused
	PcmStateSuspended
	PcmStateDisconnected
)

func (s PcmState) String() string {
	switch s {
	case PcmStateOpen:
		return "open"
	case PcmStateSetup:
		return "setup"
	case PcmStatePrepared:
		return "prepared"
	case PcmStateRunning:
		return "running"
	case PcmStateXRun:
		return "xrun"
	case PcmStateDraining:
		return "draining"
	case PcmStatePaused:
		return "paused"
	case PcmStateSuspended:
		return "suspended"
	case PcmStateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// vim: foldmethod=marker
