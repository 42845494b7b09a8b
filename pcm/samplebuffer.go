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
	"encoding/binary"
	"math"

	"go.loopcast.dev/capturecast"
)

// sampleBuffer is a fixed-size, typed scratch buffer PortAudio reads into
// or writes from directly, plus the glue to move its contents to and from
// the flat interleaved-byte representation the rest of this pipeline
// speaks. PortAudio's blocking Read/Write API operates on native Go
// numeric slices rather than bytes, so this is the seam between its world
// and capturecast.AudioParams's.
type sampleBuffer interface {
	// iface returns the backing slice, suitable as the buffer argument to
	// portaudio.OpenStream.
	iface() interface{}

	// bytes returns the buffer's current contents as little-endian
	// interleaved bytes.
	bytes() []byte

	// loadBytes fills the buffer's native-typed contents from little-endian
	// interleaved bytes, for the playback direction.
	loadBytes(src []byte)
}

func newSampleBuffer(format capturecast.SampleFormat, n int) sampleBuffer {
	switch format {
	case capturecast.SampleFormatF32LE:
		return &f32Buffer{data: make([]float32, n)}
	case capturecast.SampleFormatS16LE:
		return &s16Buffer{data: make([]int16, n)}
	default:
		return &u8Buffer{data: make([]int8, n)}
	}
}

type f32Buffer struct{ data []float32 }

func (b *f32Buffer) iface() interface{} { return b.data }

func (b *f32Buffer) bytes() []byte {
	out := make([]byte, len(b.data)*4)
	for i, v := range b.data {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out
}

func (b *f32Buffer) loadBytes(src []byte) {
	for i := range b.data {
		if (i+1)*4 > len(src) {
			b.data[i] = 0
			continue
		}
		b.data[i] = math.Float32frombits(binary.LittleEndian.Uint32(src[i*4:]))
	}
}

type s16Buffer struct{ data []int16 }

func (b *s16Buffer) iface() interface{} { return b.data }

func (b *s16Buffer) bytes() []byte {
	out := make([]byte, len(b.data)*2)
	for i, v := range b.data {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(v))
	}
	return out
}

func (b *s16Buffer) loadBytes(src []byte) {
	for i := range b.data {
		if (i+1)*2 > len(src) {
			b.data[i] = 0
			continue
		}
		b.data[i] = int16(binary.LittleEndian.Uint16(src[i*2:]))
	}
}

type u8Buffer struct{ data []int8 }

func (b *u8Buffer) iface() interface{} { return b.data }

func (b *u8Buffer) bytes() []byte {
	out := make([]byte, len(b.data))
	for i, v := range b.data {
		out[i] = byte(uint8(v) + 128)
	}
	return out
}

func (b *u8Buffer) loadBytes(src []byte) {
	for i := range b.data {
		if i >= len(src) {
			b.data[i] = 0
			continue
		}
		b.data[i] = int8(int(src[i]) - 128)
	}
}

// vim: foldmethod=marker
