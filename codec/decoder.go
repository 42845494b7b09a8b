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

package codec

import (
	"bufio"
	"fmt"
	"io"
	"os/exec"

	"github.com/charmbracelet/log"

	"go.loopcast.dev/capturecast"
)

// Decoder is the inverse of Encoder: it feeds codec packets to ffmpeg and
// surfaces raw interleaved PCM at the requested AudioParams. The
// pipeline.Orchestrator does not use it: its local monitor path is fed the
// same resampled PCM the encoder consumes.
type Decoder struct {
	params Params
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	pcm    chan []byte
	readErr chan error
}

// NewDecoder starts an ffmpeg subprocess configured to read codec packets
// on stdin and emit raw interleaved PCM at params.Audio on stdout.
func NewDecoder(params Params) (*Decoder, error) {
	codecName, err := params.Codec.ffmpegCodecName()
	if err != nil {
		return nil, err
	}
	muxer, err := params.Codec.muxerName()
	if err != nil {
		return nil, err
	}

	var outFmt string
	switch params.Audio.SampleFormat {
	case capturecast.SampleFormatF32LE:
		outFmt = "f32le"
	case capturecast.SampleFormatS16LE:
		outFmt = "s16le"
	case capturecast.SampleFormatU8:
		outFmt = "u8"
	}

	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-f", muxer, "-c:a", codecName, "-i", "pipe:0",
		"-f", outFmt,
		"-ar", fmt.Sprintf("%d", params.Audio.SampleRate),
		"-ac", fmt.Sprintf("%d", params.Audio.Channels),
		"pipe:1",
	}

	cmd := exec.Command("ffmpeg", args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, &capturecast.CodecError{Codec: params.Codec.String(), Err: err}
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &capturecast.CodecError{Codec: params.Codec.String(), Err: err}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, &capturecast.CodecError{Codec: params.Codec.String(), Err: err}
	}

	if err := cmd.Start(); err != nil {
		return nil, &capturecast.CodecError{Codec: params.Codec.String(), Err: err}
	}

	d := &Decoder{
		params:  params,
		cmd:     cmd,
		stdin:   stdin,
		pcm:     make(chan []byte, 64),
		readErr: make(chan error, 1),
	}

	go d.readPCM(stdout)
	go logStderr(params.Codec.String()+"-decode", stderr)

	return d, nil
}

func (d *Decoder) readPCM(stdout io.Reader) {
	defer close(d.pcm)
	r := bufio.NewReaderSize(stdout, 65536)
	frame := d.params.Audio.FrameSize()
	buf := make([]byte, d.params.Audio.AlignDown(8192))
	if buf == nil || len(buf) == 0 {
		buf = make([]byte, frame)
	}
	for {
		n, err := io.ReadFull(r, buf)
		if n > 0 {
			aligned := d.params.Audio.AlignDown(n)
			if aligned > 0 {
				pcm := make([]byte, aligned)
				copy(pcm, buf[:aligned])
				d.pcm <- pcm
			}
		}
		if err != nil {
			if err != io.EOF && err != io.ErrUnexpectedEOF {
				d.readErr <- err
			}
			return
		}
	}
}

// Write submits one codec packet for decoding.
func (d *Decoder) Write(p []byte) (int, error) {
	n, err := d.stdin.Write(p)
	if err != nil {
		return n, &capturecast.CodecError{Codec: d.params.Codec.String(), Err: err}
	}
	return n, nil
}

// Read returns the next buffered PCM chunk without blocking, following the
// same NotReady-is-not-an-error contract as Encoder.Read.
func (d *Decoder) Read() ([]byte, bool, error) {
	select {
	case err := <-d.readErr:
		return nil, false, &capturecast.CodecError{Codec: d.params.Codec.String(), Err: err}
	case pkt, ok := <-d.pcm:
		if !ok {
			return nil, false, nil
		}
		return pkt, true, nil
	default:
		return nil, false, nil
	}
}

// Close stops feeding ffmpeg and waits for it to exit.
func (d *Decoder) Close() error {
	closeErr := d.stdin.Close()
	waitErr := d.cmd.Wait()
	if closeErr != nil {
		return &capturecast.CodecError{Codec: d.params.Codec.String(), Err: closeErr}
	}
	if waitErr != nil {
		return &capturecast.CodecError{Codec: d.params.Codec.String(), Err: waitErr}
	}
	return nil
}

// vim: foldmethod=marker
