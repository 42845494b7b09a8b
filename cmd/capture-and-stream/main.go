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

// Command capture-and-stream captures PCM audio from a loopback device,
// encodes it, and broadcasts it to any number of UDP listeners, optionally
// mirroring it to local playback and/or a WAV file.
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	flag "github.com/spf13/pflag"

	"go.loopcast.dev/capturecast"
	"go.loopcast.dev/capturecast/codec"
	"go.loopcast.dev/capturecast/pcm"
	"go.loopcast.dev/capturecast/pipeline"
	"go.loopcast.dev/capturecast/signallatch"
)

func main() {
	var (
		listDevices = flag.Bool("list-devices", false, "list available audio devices and exit")
		playLocally = flag.BoolP("play-locally", "p", false, "mirror the captured audio to local playback")
		saveWav     = flag.BoolP("save-wav", "w", false, "mirror the captured audio to a WAV file")
		device      = flag.StringP("alsa-aloop-device", "d", "hw:3,1", "capture device name")
		playback    = flag.String("playback-device", "default", "playback device name, used with --play-locally")
		wavPath     = flag.String("wav-path", "/tmp/audio.dump", "path to write the WAV mirror to")
		bitrate     = flag.Uint32P("bitrate", "b", 96_000, "encoder bitrate in bits/sec")
		codecName   = flag.StringP("codec", "c", "mp2", "codec to encode with: mp2, aac, aac-ld")
		listenAddr  = flag.String("listen", "0.0.0.0:25204", "UDP address to broadcast on")
		sampleRate  = flag.Uint32("sample-rate", 44100, "requested capture sample rate")
		channels    = flag.Uint8("channels", 2, "requested capture channel count")
	)
	flag.Parse()

	log.SetLevel(log.InfoLevel)

	if *listDevices {
		if err := runListDevices(); err != nil {
			log.Error("failed to list devices", "err", err)
			os.Exit(1)
		}
		return
	}

	c, err := parseCodec(*codecName)
	if err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}

	latch, stopSignals := signallatch.New()
	defer stopSignals()

	orch := pipeline.New(pipeline.Config{
		CaptureDevice: *device,
		Requested: capturecast.AudioParams{
			SampleRate:   *sampleRate,
			Channels:     *channels,
			SampleFormat: capturecast.SampleFormatF32LE,
		},
		Codec:          c,
		BitRate:        *bitrate,
		ListenAddr:     *listenAddr,
		PlayLocally:    *playLocally,
		PlaybackDevice: *playback,
		SaveWav:        *saveWav,
		WavPath:        *wavPath,
	}, latch)

	if err := orch.Run(); err != nil {
		log.Error("fatal pipeline error", "err", err)
		os.Exit(1)
	}
}

func parseCodec(name string) (codec.Codec, error) {
	switch name {
	case "mp2":
		return codec.CodecMP2, nil
	case "aac":
		return codec.CodecAAC, nil
	case "aac-ld":
		return codec.CodecAACLD, nil
	default:
		return 0, fmt.Errorf("unknown codec %q (expected mp2, aac, or aac-ld)", name)
	}
}

func runListDevices() error {
	devices, err := pcm.ListDevices()
	if err != nil {
		return err
	}
	for _, d := range devices {
		fmt.Printf("Card: #%d %s (in=%d out=%d rate=%.0f)\n", d.Index, d.Name, d.MaxInputCh, d.MaxOutputCh, d.DefaultRate)
	}
	return nil
}

// vim: foldmethod=marker
