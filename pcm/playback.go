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

// PlaybackParams mirrors CaptureParams for the output direction.
type PlaybackParams struct {
	Device         string
	Requested      capturecast.AudioParams
	PeriodTimeUsec uint32
}

// Player is a blocking PCM playback endpoint implementing pipeline.Sink,
// so it can be driven directly by a pipeline.ThreadBuffer.
type Player struct {
	stream     *portaudio.Stream
	device     string
	negotiated capturecast.AudioParams
	raw        sampleBuffer
	carry      []byte
	state      capturecast.PcmState
}

// OpenPlayback negotiates and starts a playback stream the same way
// OpenCapture does for input.
func OpenPlayback(params PlaybackParams) (*Player, error) {
	if err := initialize(); err != nil {
		return nil, err
	}

	dev, err := resolveDevice(params.Device, false)
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
			Output: portaudio.StreamDeviceParameters{
				Device:   dev,
				Channels: int(params.Requested.Channels),
				Latency:  dev.DefaultLowOutputLatency,
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
		return &Player{
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
func (p *Player) Params() capturecast.AudioParams {
	return p.negotiated
}

// Write implements pipeline.Sink, accepting interleaved bytes at the
// negotiated format and writing full device periods at a time, buffering
// any partial period until enough data has arrived to fill one.
func (p *Player) Write(data []byte) (int, error) {
	p.carry = append(p.carry, data...)
	period := len(p.raw.bytes())

	var consumed int
	for len(p.carry) >= period {
		p.raw.loadBytes(p.carry[:period])
		if err := p.stream.Write(); err != nil {
			if recoverErr := p.xrunRecover(); recoverErr != nil {
				return consumed, recoverErr
			}
			if err := p.stream.Write(); err != nil {
				return consumed, &capturecast.DeviceError{Device: p.device, Err: err}
			}
		}
		p.carry = p.carry[period:]
		consumed += period
	}
	return len(data), nil
}

func (p *Player) xrunRecover() error {
	p.state = capturecast.PcmStateXRun
	log.Warn("playback xrun, recovering", "device", p.device)
	if err := p.stream.Stop(); err != nil {
		return &capturecast.DeviceError{Device: p.device, Err: err}
	}
	p.state = capturecast.PcmStatePrepared
	if err := p.stream.Start(); err != nil {
		return &capturecast.DeviceError{Device: p.device, Err: err}
	}
	p.state = capturecast.PcmStateRunning
	return nil
}

// Close flushes nothing further, stops and closes the stream, and releases
// PortAudio's process-wide refcount.
func (p *Player) Close() error {
	p.state = capturecast.PcmStateDisconnected
	err := p.stream.Close()
	if termErr := terminate(); err == nil {
		err = termErr
	}
	return err
}

// vim: foldmethod=marker
