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

// Package capturecast holds the domain types shared by every stage of the
// capture/encode/broadcast pipeline: sample formats, audio parameters, frame
// alignment arithmetic, and the PCM device state machine.
package capturecast

import (
	"fmt"
)

// SampleFormat identifies the on-the-wire layout of one interleaved PCM
// sample. It is a small enum, not an interface, because unlike IQ samples
// there's no variable-width vector type to dispatch on here -- every stage
// of this pipeline moves plain byte slices and only needs to know how to
// carve them into frames.
type SampleFormat uint8

const (
	// SampleFormatU8 indicates unsigned 8-bit PCM.
	SampleFormatU8 SampleFormat = 1

	// SampleFormatS16LE indicates signed 16-bit little-endian PCM.
	SampleFormatS16LE SampleFormat = 2

	// SampleFormatF32LE indicates 32-bit little-endian float PCM in [-1, 1].
	SampleFormatF32LE SampleFormat = 3
)

// BytesPerSample returns the number of bytes a single channel's sample
// occupies in this format.
func (sf SampleFormat) BytesPerSample() int {
	switch sf {
	case SampleFormatU8:
		return 1
	case SampleFormatS16LE:
		return 2
	case SampleFormatF32LE:
		return 4
	default:
		return 0
	}
}

// String returns a human readable name for the format.
func (sf SampleFormat) String() string {
	switch sf {
	case SampleFormatU8:
		return "u8"
	case SampleFormatS16LE:
		return "s16le"
	case SampleFormatF32LE:
		return "f32le"
	default:
		return "unknown"
	}
}

// ErrSampleFormatUnknown names a SampleFormat value outside the known
// enum. The sizing helpers do not return it: BytesPerSample, FrameSize,
// AlignDown and FrameCount report 0 for such a value.
var ErrSampleFormatUnknown = fmt.Errorf("capturecast: sample format is not understood")

// AudioParams fully describes the shape of a PCM stream: how fast it's
// clocked, how many interleaved channels it carries, and the width of each
// channel's sample. It is comparable with ==, which the pipeline relies on
// to detect when a resample stage is a no-op passthrough.
type AudioParams struct {
	SampleRate   uint32
	Channels     uint8
	SampleFormat SampleFormat
}

// FrameSize returns the number of bytes one frame -- one sample per channel
// -- occupies for these parameters.
func (p AudioParams) FrameSize() int {
	return int(p.Channels) * p.SampleFormat.BytesPerSample()
}

// AlignDown rounds n down to the nearest whole multiple of this format's
// frame size. The capture loop's scratch buffer and the decoder's read
// buffer are sized by calling AlignDown on a byte budget; the playback and
// resample buffers are sized in whole frames directly, so none of them can
// split a frame across two reads.
func (p AudioParams) AlignDown(n int) int {
	frame := p.FrameSize()
	if frame <= 0 {
		return 0
	}
	return (n / frame) * frame
}

// FrameCount returns how many whole frames fit in a buffer of n bytes.
func (p AudioParams) FrameCount(n int) int {
	frame := p.FrameSize()
	if frame <= 0 {
		return 0
	}
	return n / frame
}

// BytesForFrames returns the number of bytes occupied by the given number
// of frames at these parameters.
func (p AudioParams) BytesForFrames(frames int) int {
	return frames * p.FrameSize()
}

// vim: foldmethod=marker
