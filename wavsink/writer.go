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

// Package wavsink mirrors a PCM stream to a WAV file on disk, used as the
// optional persisted-state sink alongside (or instead of) local playback.
package wavsink

import (
	"encoding/binary"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"go.loopcast.dev/capturecast"
)

// Writer implements pipeline.Sink, encoding interleaved PCM bytes straight
// into a WAV file as they arrive. It always converts samples to 16-bit
// integers for the file, which is what go-audio/wav's encoder writes,
// regardless of the pipeline's own working sample format.
type Writer struct {
	file   *os.File
	enc    *wav.Encoder
	params capturecast.AudioParams
	intBuf *audio.IntBuffer
}

// Create opens path and prepares a WAV file matching params.
func Create(path string, params capturecast.AudioParams) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, &capturecast.DeviceError{Device: path, Err: err}
	}
	enc := wav.NewEncoder(f, int(params.SampleRate), 16, int(params.Channels), 1)
	return &Writer{
		file:   f,
		enc:    enc,
		params: params,
		intBuf: &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: int(params.Channels), SampleRate: int(params.SampleRate)},
			SourceBitDepth: 16,
		},
	}, nil
}

// Write implements pipeline.Sink, converting p from the pipeline's working
// format to 16-bit PCM and appending it to the file.
func (w *Writer) Write(p []byte) (int, error) {
	frameSize := w.params.FrameSize()
	frames := len(p) / frameSize
	sampleSize := w.params.SampleFormat.BytesPerSample()

	samples := make([]int, frames*int(w.params.Channels))
	idx := 0
	for f := 0; f < frames; f++ {
		for ch := 0; ch < int(w.params.Channels); ch++ {
			off := f*frameSize + ch*sampleSize
			samples[idx] = toInt16(p[off:off+sampleSize], w.params.SampleFormat)
			idx++
		}
	}
	w.intBuf.Data = samples

	if err := w.enc.Write(w.intBuf); err != nil {
		return 0, &capturecast.DeviceError{Device: w.file.Name(), Err: err}
	}
	return len(p), nil
}

// Close finalizes the WAV header and closes the underlying file.
func (w *Writer) Close() error {
	if err := w.enc.Close(); err != nil {
		_ = w.file.Close()
		return &capturecast.DeviceError{Device: w.file.Name(), Err: err}
	}
	return w.file.Close()
}

func toInt16(b []byte, format capturecast.SampleFormat) int {
	switch format {
	case capturecast.SampleFormatS16LE:
		return int(int16(binary.LittleEndian.Uint16(b)))
	case capturecast.SampleFormatF32LE:
		f := math.Float32frombits(binary.LittleEndian.Uint32(b))
		if f > 1 {
			f = 1
		}
		if f < -1 {
			f = -1
		}
		return int(f * 32767.0)
	case capturecast.SampleFormatU8:
		return (int(b[0]) - 128) * 256
	default:
		return 0
	}
}

// vim: foldmethod=marker
