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

// Package resample adapts interleaved PCM from one capturecast.AudioParams
// to another, one channel at a time, using a real resampling library
// rather than hand-rolled DSP.
package resample

import (
	"encoding/binary"
	"math"

	"github.com/tphakala/go-audio-resampling/resampling"

	"go.loopcast.dev/capturecast"
)

// Resampler converts interleaved PCM from src to dst parameters. It is
// stateful and is meant to be constructed once per (src, dst) pair and
// reused across the life of the stream: Process's returned slice is backed
// by scratch memory owned by the Resampler and is only valid until the
// next call.
//
// When src and dst describe the same format and rate (but possibly a
// different channel layout is not supported -- channel count must match),
// Process is a byte-identical passthrough and the resampling library is
// never invoked, preserving the identity round-trip this pipeline's
// contract requires.
type Resampler struct {
	src, dst capturecast.AudioParams
	planes   [][]float64
	scratch  []byte
}

// New creates a Resampler converting from src to dst. src and dst must
// agree on channel count; this adapter resamples the time axis, not the
// channel layout.
func New(src, dst capturecast.AudioParams) *Resampler {
	return &Resampler{
		src:    src,
		dst:    dst,
		planes: make([][]float64, src.Channels),
	}
}

// Process resamples one buffer of interleaved PCM. in must hold a whole
// number of frames at the source format.
func (r *Resampler) Process(in []byte) ([]byte, error) {
	if r.src == r.dst {
		return in, nil
	}

	frames := r.src.FrameCount(len(in))
	channels := int(r.src.Channels)

	for ch := 0; ch < channels; ch++ {
		if cap(r.planes[ch]) < frames {
			r.planes[ch] = make([]float64, frames)
		} else {
			r.planes[ch] = r.planes[ch][:frames]
		}
	}
	deinterleave(in, r.src, r.planes)

	outFrames := 0
	resampledPlanes := make([][]float64, channels)
	for ch := 0; ch < channels; ch++ {
		out := resampling.ResampleMono(r.planes[ch], int(r.src.SampleRate), int(r.dst.SampleRate), resampling.QualityMedium)
		resampledPlanes[ch] = out
		if len(out) > outFrames {
			outFrames = len(out)
		}
	}

	needed := r.dst.BytesForFrames(outFrames)
	if cap(r.scratch) < needed {
		r.scratch = make([]byte, needed)
	} else {
		r.scratch = r.scratch[:needed]
	}
	interleave(resampledPlanes, outFrames, r.dst, r.scratch)
	return r.scratch, nil
}

func deinterleave(in []byte, params capturecast.AudioParams, planes [][]float64) {
	frameSize := params.FrameSize()
	sampleSize := params.SampleFormat.BytesPerSample()
	channels := int(params.Channels)
	frames := len(in) / frameSize

	for f := 0; f < frames; f++ {
		for ch := 0; ch < channels; ch++ {
			off := f*frameSize + ch*sampleSize
			planes[ch][f] = sampleToFloat(in[off:off+sampleSize], params.SampleFormat)
		}
	}
}

func interleave(planes [][]float64, frames int, params capturecast.AudioParams, out []byte) {
	frameSize := params.FrameSize()
	sampleSize := params.SampleFormat.BytesPerSample()
	channels := int(params.Channels)

	for f := 0; f < frames; f++ {
		for ch := 0; ch < channels; ch++ {
			off := f*frameSize + ch*sampleSize
			if off+sampleSize > len(out) {
				continue
			}
			var v float64
			if ch < len(planes) && f < len(planes[ch]) {
				v = planes[ch][f]
			}
			floatToSample(v, params.SampleFormat, out[off:off+sampleSize])
		}
	}
}

func sampleToFloat(b []byte, format capturecast.SampleFormat) float64 {
	switch format {
	case capturecast.SampleFormatF32LE:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
	case capturecast.SampleFormatS16LE:
		return float64(int16(binary.LittleEndian.Uint16(b))) / 32768.0
	case capturecast.SampleFormatU8:
		return (float64(b[0]) - 128.0) / 128.0
	default:
		return 0
	}
}

func floatToSample(v float64, format capturecast.SampleFormat, dst []byte) {
	if v > 1 {
		v = 1
	}
	if v < -1 {
		v = -1
	}
	switch format {
	case capturecast.SampleFormatF32LE:
		binary.LittleEndian.PutUint32(dst, math.Float32bits(float32(v)))
	case capturecast.SampleFormatS16LE:
		binary.LittleEndian.PutUint16(dst, uint16(int16(v*32767.0)))
	case capturecast.SampleFormatU8:
		dst[0] = byte(int(v*127.0) + 128)
	}
}

// vim: foldmethod=marker
