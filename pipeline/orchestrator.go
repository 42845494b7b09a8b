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

package pipeline

import (
	"time"

	"github.com/charmbracelet/log"

	"go.loopcast.dev/capturecast"
	"go.loopcast.dev/capturecast/codec"
	"go.loopcast.dev/capturecast/fanout"
	"go.loopcast.dev/capturecast/pcm"
	"go.loopcast.dev/capturecast/resample"
	"go.loopcast.dev/capturecast/signallatch"
	"go.loopcast.dev/capturecast/wavsink"
)

// Config gathers everything the orchestrator needs to wire a capture
// device through resampling and the codec to the fan-out server, and
// optionally out to a local monitor and/or a WAV file. It is the
// CLI-flag-shaped equivalent of the reference implementation's top-level
// run() arguments.
type Config struct {
	CaptureDevice  string
	Requested      capturecast.AudioParams
	PeriodTimeUsec uint32

	EncodeParams capturecast.AudioParams // zero value means "same as negotiated capture params"
	Codec        codec.Codec
	BitRate      uint32

	ListenAddr string

	PlayLocally    bool
	PlaybackDevice string
	SaveWav        bool
	WavPath        string
}

// Orchestrator wires C3 (capture) through C5 (resample) to two branches --
// C6/C7 (encode + broadcast) and the optional local monitor -- and tears
// them all down in a fixed order on shutdown. It is the Go shape of the
// reference implementation's lib.rs run().
type Orchestrator struct {
	cfg   Config
	latch *signallatch.Latch
}

// New creates an Orchestrator from cfg, bound to latch for shutdown.
func New(cfg Config, latch *signallatch.Latch) *Orchestrator {
	return &Orchestrator{cfg: cfg, latch: latch}
}

// Run blocks until the signal latch trips (or a fatal component error
// occurs), then tears every stage down in order: capture device, encode
// pipe, monitor pipe, fan-out server.
func (o *Orchestrator) Run() error {
	capturer, err := pcm.OpenCapture(pcm.CaptureParams{
		Device:         o.cfg.CaptureDevice,
		Requested:      o.cfg.Requested,
		PeriodTimeUsec: o.cfg.PeriodTimeUsec,
	})
	if err != nil {
		return err
	}
	defer capturer.Close()

	negotiated := capturer.Params()
	log.Info("capture negotiated", "rate", negotiated.SampleRate, "channels", negotiated.Channels, "format", negotiated.SampleFormat)

	encodeParams := o.cfg.EncodeParams
	if encodeParams == (capturecast.AudioParams{}) {
		encodeParams = negotiated
	}
	resampler := resample.New(negotiated, encodeParams)

	encoder, err := codec.NewEncoder(codec.Params{
		Codec:   o.cfg.Codec,
		Audio:   encodeParams,
		BitRate: o.cfg.BitRate,
	})
	if err != nil {
		_ = capturer.Close()
		return err
	}

	server, err := fanout.Listen(o.cfg.ListenAddr)
	if err != nil {
		_ = encoder.Close()
		_ = capturer.Close()
		return err
	}
	log.Info("broadcasting", "codec", o.cfg.Codec, "rate", encodeParams.SampleRate, "channels", encodeParams.Channels, "bitrate", o.cfg.BitRate)

	encodeTB := NewThreadBuffer("encode", encoder, DefaultBufferSize)

	var monitorTB *ThreadBuffer
	var player *pcm.Player
	var wavWriter *wavsink.Writer

	if o.cfg.PlayLocally {
		player, err = pcm.OpenPlayback(pcm.PlaybackParams{
			Device:         o.cfg.PlaybackDevice,
			Requested:      encodeParams,
			PeriodTimeUsec: o.cfg.PeriodTimeUsec,
		})
		if err != nil {
			log.Error("failed to open local playback, continuing without it", "err", err)
			player = nil
		}
	}
	if o.cfg.SaveWav {
		wavWriter, err = wavsink.Create(o.cfg.WavPath, encodeParams)
		if err != nil {
			log.Error("failed to open wav file, continuing without it", "err", err)
			wavWriter = nil
		}
	}
	if player != nil || wavWriter != nil {
		monitor := NewMultiSink(playerSink(player), wavSink(wavWriter))
		monitorTB = NewThreadBuffer("monitor", monitor, DefaultBufferSize)
	}

	serverDone := make(chan error, 1)
	go func() { serverDone <- server.Run(o.latch) }()

	packetPump := make(chan struct{})
	go o.pumpPackets(encoder, server, packetPump)

	captureErr := o.captureLoop(capturer, negotiated, resampler, encodeTB, monitorTB)
	o.latch.Trip()

	<-packetPump
	encodeTBErr := encodeTB.StopAndJoin()
	var monitorTBErr error
	if monitorTB != nil {
		monitorTBErr = monitorTB.StopAndJoin()
	}
	serverErr := <-serverDone

	for _, err := range []error{captureErr, encodeTBErr, monitorTBErr, serverErr} {
		if err != nil {
			return err
		}
	}
	return nil
}

// captureLoop reads aligned chunks from the capture device, resamples
// them, and fans the result out to the encode and monitor ThreadBuffers
// until the latch trips or the device reports a fatal error.
func (o *Orchestrator) captureLoop(capturer *pcm.Capturer, negotiated capturecast.AudioParams, resampler *resample.Resampler, encodeTB, monitorTB *ThreadBuffer) error {
	scratch := make([]byte, negotiated.AlignDown(DefaultBufferSize))
	if len(scratch) == 0 {
		scratch = make([]byte, negotiated.FrameSize())
	}

	for {
		select {
		case <-o.latch.Done():
			return nil
		default:
		}

		n, err := capturer.ReadInterleaved(scratch)
		if err != nil {
			return err
		}
		if n == 0 {
			continue
		}

		resampled, err := resampler.Process(scratch[:n])
		if err != nil {
			log.Error("resample failed, dropping chunk", "err", err)
			continue
		}

		if _, err := encodeTB.WriteData(resampled); err != nil {
			return err
		}
		if monitorTB != nil {
			if _, err := monitorTB.WriteData(resampled); err != nil {
				log.Warn("monitor write failed", "err", err)
			}
		}
	}
}

// pumpPackets drains encoded packets off the encoder and broadcasts them,
// polling since codec.Encoder.Read is non-blocking by contract.
func (o *Orchestrator) pumpPackets(encoder *codec.Encoder, server *fanout.Server, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-o.latch.Done():
			o.drainRemainingPackets(encoder, server)
			return
		case <-ticker.C:
			for {
				pkt, ready, err := encoder.Read()
				if err != nil {
					log.Error("encoder read failed", "err", err)
					return
				}
				if !ready {
					break
				}
				server.Broadcast(pkt)
			}
		}
	}
}

func (o *Orchestrator) drainRemainingPackets(encoder *codec.Encoder, server *fanout.Server) {
	for {
		pkt, ready, err := encoder.Read()
		if err != nil || !ready {
			return
		}
		server.Broadcast(pkt)
	}
}

func playerSink(p *pcm.Player) Sink {
	if p == nil {
		return nil
	}
	return p
}

func wavSink(w *wavsink.Writer) Sink {
	if w == nil {
		return nil
	}
	return w
}

// vim: foldmethod=marker
