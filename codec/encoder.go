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

// Encoder feeds raw interleaved PCM into an ffmpeg subprocess and surfaces
// the codec's output packets. It implements pipeline.Sink on the write
// side (so a pipeline.ThreadBuffer can drain straight into it) and its
// Read method follows the same non-blocking "nothing ready yet" contract
// the rest of this pipeline uses instead of sentinel errors: Read never
// blocks and never treats an empty buffer as a failure.
type Encoder struct {
	params  Params
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	packets chan []byte
	readErr chan error
}

// NewEncoder starts an ffmpeg subprocess configured to read raw PCM on
// stdin and emit self-delimited codec packets on stdout.
func NewEncoder(params Params) (*Encoder, error) {
	codecName, err := params.Codec.ffmpegCodecName()
	if err != nil {
		return nil, err
	}
	muxer, err := params.Codec.muxerName()
	if err != nil {
		return nil, err
	}

	args := []string{"-hide_banner", "-loglevel", "error"}
	args = append(args, pcmFormatArgs(params.Audio)...)
	args = append(args, "-i", "pipe:0")
	args = append(args, "-c:a", codecName)
	if params.BitRate > 0 {
		args = append(args, "-b:a", fmt.Sprintf("%d", params.BitRate))
	}
	args = append(args, "-f", muxer, "pipe:1")

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

	e := &Encoder{
		params:  params,
		cmd:     cmd,
		stdin:   stdin,
		packets: make(chan []byte, 64),
		readErr: make(chan error, 1),
	}

	go e.readPackets(stdout)
	go logStderr(params.Codec.String(), stderr)

	return e, nil
}

// maxBlockSize bounds the size of a broadcast block. spec.md leaves
// packetization as an open question and puts the burden of staying under
// the path MTU on the sender, not the transport -- this keeps every block
// this pipeline ever hands to fanout.Server well under the usual
// 1500-byte Ethernet MTU without requiring a codec-specific bitstream
// parser to find exact packet boundaries in ffmpeg's stdout.
const maxBlockSize = 1400

func (e *Encoder) readPackets(stdout io.Reader) {
	defer close(e.packets)
	r := bufio.NewReaderSize(stdout, 65536)
	buf := make([]byte, maxBlockSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			pkt := make([]byte, n)
			copy(pkt, buf[:n])
			e.packets <- pkt
		}
		if err != nil {
			if err != io.EOF {
				e.readErr <- err
			}
			return
		}
	}
}

func logStderr(codec string, r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		log.Warn("ffmpeg", "codec", codec, "line", scanner.Text())
	}
}

// Write implements pipeline.Sink, feeding raw PCM to ffmpeg's stdin.
func (e *Encoder) Write(p []byte) (int, error) {
	n, err := e.stdin.Write(p)
	if err != nil {
		return n, &capturecast.CodecError{Codec: e.params.Codec.String(), Err: err}
	}
	return n, nil
}

// Read returns the next buffered codec packet without blocking. The
// second return value is false when nothing is ready yet; this is not an
// error and callers must not treat it as one.
func (e *Encoder) Read() ([]byte, bool, error) {
	select {
	case err := <-e.readErr:
		return nil, false, &capturecast.CodecError{Codec: e.params.Codec.String(), Err: err}
	case pkt, ok := <-e.packets:
		if !ok {
			return nil, false, nil
		}
		return pkt, true, nil
	default:
		return nil, false, nil
	}
}

// Close stops feeding ffmpeg, waits for it to flush and exit, and reports
// any error it surfaced.
func (e *Encoder) Close() error {
	closeErr := e.stdin.Close()
	waitErr := e.cmd.Wait()
	if closeErr != nil {
		return &capturecast.CodecError{Codec: e.params.Codec.String(), Err: closeErr}
	}
	if waitErr != nil {
		return &capturecast.CodecError{Codec: e.params.Codec.String(), Err: waitErr}
	}
	return nil
}

// vim: foldmethod=marker
