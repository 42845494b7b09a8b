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

package pcm

import (
	"github.com/charmbracelet/log"
	"github.com/gordonklaus/portaudio"

	"go.loopcast.dev/capturecast"
)

// CaptureParams describes the device to open and the format to request
// from it, mirroring the reference implementation's open-time negotiation
// arguments.
type CaptureParams struct {
	Device         string
	Requested      capturecast.AudioParams
	PeriodTimeUsec uint32
}

// Capturer is a blocking PCM capture endpoint. It is the Go analogue of
// the reference implementation's SndPcm opened for capture: Negotiated
// reflects what the device actually settled on, which may differ from
// what was requested.
type Capturer struct {
	stream     *portaudio.Stream
	device     string
	negotiated capturecast.AudioParams
	raw        sampleBuffer
	carry      []byte
	state      capturecast.PcmState
}

// OpenCapture negotiates and starts a capture stream, trying
// params.Requested.SampleFormat first and falling back through
// preferredFormats until one is accepted.
func OpenCapture(params CaptureParams) (*Capturer, error) {
	if err := initialize(); err != nil {
		return nil, err
	}

	dev, err := resolveDevice(params.Device, true)
	if err != nil {
		_ = terminate()
		return nil, err
	}

	periodUsec := params.PeriodTimeUsec
	if periodUsec == 0 {
		periodUsec = 20_000
	}
	framesPerBuffer := int(uint64(params.Requested.SampleRate) * uint64(periodUsec) / 1_000_000)
	if framesPerBuffer <= 0 {
		framesPerBuffer = 1024
	}

	var lastErr error
	for _, format := range sampleFormatAccepted(params.Requested.SampleFormat) {
		raw := newSampleBuffer(format, framesPerBuffer*int(params.Requested.Channels))
		streamParams := portaudio.StreamParameters{
			Input: portaudio.StreamDeviceParameters{
				Device:   dev,
				Channels: int(params.Requested.Channels),
				Latency:  dev.DefaultLowInputLatency,
			},
			SampleRate:      float64(params.Requested.SampleRate),
			FramesPerBuffer: framesPerBuffer,
		}

		stream, err := portaudio.OpenStream(streamParams, raw.iface())
		if err != nil {
			lastErr = err
			continue
		}
		if err := stream.Start(); err != nil {
			_ = stream.Close()
			lastErr = err
			continue
		}

		negotiated := params.Requested
		negotiated.SampleFormat = format
		return &Capturer{
			stream:     stream,
			device:     params.Device,
			negotiated: negotiated,
			raw:        raw,
			state:      capturecast.PcmStateRunning,
		}, nil
	}

	_ = terminate()
	if lastErr == nil {
		lastErr = capturecast.ErrNoAvailableFormat
	}
	return nil, &capturecast.DeviceError{Device: params.Device, Err: lastErr}
}

// Params returns the negotiated stream parameters.
func (c *Capturer) Params() capturecast.AudioParams {
	return c.negotiated
}

// ReadInterleaved fills dst with exactly len(dst) bytes of interleaved PCM.
// Callers are expected to size dst with capturecast.AudioParams.AlignDown
// so a frame is never split across two calls. A single transient xrun is
// recovered by stopping and restarting the stream, exactly once, before
// the read is retried; a second failure is fatal.
func (c *Capturer) ReadInterleaved(dst []byte) (int, error) {
	var copied int

	if len(c.carry) > 0 {
		n := copy(dst, c.carry)
		c.carry = c.carry[n:]
		copied += n
	}

	for copied < len(dst) {
		if err := c.stream.Read(); err != nil {
			if recoverErr := c.xrunRecover(); recoverErr != nil {
				return copied, recoverErr
			}
			if err := c.stream.Read(); err != nil {
				return copied, &capturecast.DeviceError{Device: c.device, Err: err}
			}
		}

		chunk := c.raw.bytes()
		n := copy(dst[copied:], chunk)
		copied += n
		if n < len(chunk) {
			c.carry = append(c.carry[:0], chunk[n:]...)
		}
	}
	return copied, nil
}

func (c *Capturer) xrunRecover() error {
	c.state = capturecast.PcmStateXRun
	log.Warn("capture xrun, recovering", "device", c.device)
	if err := c.stream.Stop(); err != nil {
		return &capturecast.DeviceError{Device: c.device, Err: err}
	}
	c.state = capturecast.PcmStatePrepared
	if err := c.stream.Start(); err != nil {
		return &capturecast.DeviceError{Device: c.device, Err: err}
	}
	c.state = capturecast.PcmStateRunning
	return nil
}

// Close stops and closes the capture stream and releases PortAudio's
// process-wide refcount.
func (c *Capturer) Close() error {
	c.state = capturecast.PcmStateDisconnected
	err := c.stream.Close()
	if termErr := terminate(); err == nil {
		err = termErr
	}
	return err
}

// vim: foldmethod=marker
