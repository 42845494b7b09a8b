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

// Package codec drives an external ffmpeg process as the lossy audio
// encoder and decoder this pipeline needs, rather than binding libavcodec
// directly: no verified Go binding for its encode/decode API appears
// anywhere in the example corpus, while wrapping the ffmpeg binary over
// pipes is a pattern the corpus demonstrates directly.
package codec

import (
	"fmt"

	"go.loopcast.dev/capturecast"
)

// Codec names one of the lossy audio codecs this pipeline can drive ffmpeg
// to speak.
type Codec uint8

const (
	CodecMP2 Codec = iota
	CodecAAC
	CodecAACLD
)

func (c Codec) String() string {
	switch c {
	case CodecMP2:
		return "mp2"
	case CodecAAC:
		return "aac"
	case CodecAACLD:
		return "aac_ld"
	default:
		return "unknown"
	}
}

// ffmpegCodecName returns the -c:a value for this codec.
func (c Codec) ffmpegCodecName() (string, error) {
	switch c {
	case CodecMP2:
		return "mp2", nil
	case CodecAAC:
		return "aac", nil
	case CodecAACLD:
		return "aac_latm", nil // LATM framing is ffmpeg's nearest stock equivalent to AAC-LD's low-delay streaming profile
	default:
		return "", capturecast.ErrUnsupportedCodec
	}
}

// muxerName returns the -f value used for the encoded output container.
// MP2 is requested as a raw elementary stream; AAC is requested muxed into
// ADTS and AAC-LD into LATM, so each packet is self-delimited on the wire.
func (c Codec) muxerName() (string, error) {
	switch c {
	case CodecMP2:
		return "mp2", nil
	case CodecAAC:
		return "adts", nil
	case CodecAACLD:
		return "latm", nil
	default:
		return "", capturecast.ErrUnsupportedCodec
	}
}

// Params configures an Encoder or Decoder.
type Params struct {
	Codec   Codec
	Audio   capturecast.AudioParams
	BitRate uint32
}

func pcmFormatArgs(p capturecast.AudioParams) []string {
	var fmtName string
	switch p.SampleFormat {
	case capturecast.SampleFormatF32LE:
		fmtName = "f32le"
	case capturecast.SampleFormatS16LE:
		fmtName = "s16le"
	case capturecast.SampleFormatU8:
		fmtName = "u8"
	}
	return []string{
		"-f", fmtName,
		"-ar", fmt.Sprintf("%d", p.SampleRate),
		"-ac", fmt.Sprintf("%d", p.Channels),
	}
}

// vim: foldmethod=marker
