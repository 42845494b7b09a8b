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

import (
	"fmt"
)

var (
	// ErrClosed is returned by a ByteQueue or sink once it has been closed
	// and can no longer accept writes.
	ErrClosed = fmt.Errorf("capturecast: queue is closed")

	// ErrXRun names a PCM device underrun or overrun that recovery could
	// not clear. The pcm endpoints report a failed recovery as a
	// *DeviceError wrapping the stream's own error, not as ErrXRun.
	ErrXRun = fmt.Errorf("capturecast: device xrun could not be recovered")

	// ErrNoAvailableFormat indicates none of the adapter's preferred sample
	// formats were accepted by the underlying device.
	ErrNoAvailableFormat = fmt.Errorf("capturecast: device accepted no candidate sample format")

	// ErrUnsupportedCodec is returned when a Codec value outside the known
	// enum is requested of the codec adapter.
	ErrUnsupportedCodec = fmt.Errorf("capturecast: unsupported codec")

	// ErrShuttingDown names the rejection of new work once the signal
	// latch has tripped. No component in this module returns it: the
	// pipeline stages stop on the latch without reporting an error.
	ErrShuttingDown = fmt.Errorf("capturecast: shutting down")
)

// DeviceError wraps a fatal, unrecoverable failure surfaced by a capture or
// playback device, tagging it with the device name so logs and returned
// errors can tell which endpoint failed.
type DeviceError struct {
	Device string
	Err    error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("capturecast: device %q: %s", e.Device, e.Err)
}

func (e *DeviceError) Unwrap() error {
	return e.Err
}

// CodecError wraps a failure from the external encoder/decoder process,
// tagging it with the codec that was running.
type CodecError struct {
	Codec string
	Err   error
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("capturecast: codec %q: %s", e.Codec, e.Err)
}

func (e *CodecError) Unwrap() error {
	return e.Err
}

// vim: foldmethod=marker
