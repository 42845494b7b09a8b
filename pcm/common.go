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

// Package pcm opens blocking capture and playback endpoints against the
// host's audio devices through PortAudio, negotiating the closest
// available match to a requested capturecast.AudioParams the same way the
// reference ALSA implementation negotiated hw_params against a device.
package pcm

import (
	"fmt"

	"github.com/gordonklaus/portaudio"

	"go.loopcast.dev/capturecast"
)

// preferredFormats is the fallback order a device's format is chosen from
// when the caller's preferred capturecast.SampleFormat is rejected. PortAudio
// itself can always produce float32, so negotiation can never exhaust this
// list the way an ALSA hw_params negotiation theoretically could.
var preferredFormats = []capturecast.SampleFormat{
	capturecast.SampleFormatF32LE,
	capturecast.SampleFormatS16LE,
	capturecast.SampleFormatU8,
}

func sampleFormatAccepted(requested capturecast.SampleFormat) []capturecast.SampleFormat {
	order := []capturecast.SampleFormat{requested}
	for _, f := range preferredFormats {
		if f != requested {
			order = append(order, f)
		}
	}
	return order
}

// initCount refcounts portaudio.Initialize/Terminate, which are process-global.
var initCount int

// initialize brings up the PortAudio runtime, refcounted so capture and
// playback endpoints can each open and close independently.
func initialize() error {
	initCount++
	if initCount > 1 {
		return nil
	}
	if err := portaudio.Initialize(); err != nil {
		initCount--
		return &capturecast.DeviceError{Device: "portaudio", Err: err}
	}
	return nil
}

func terminate() error {
	initCount--
	if initCount > 0 {
		return nil
	}
	if initCount < 0 {
		initCount = 0
	}
	return portaudio.Terminate()
}

// resolveDevice finds the *portaudio.DeviceInfo matching a user-supplied
// device name. "default" (and the empty string) defers to the host API's
// default; anything else is matched against the device's reported Name,
// which on Linux's ALSA host API is typically of the form "hw:3,1" or a
// human-readable card label -- both are accepted here.
func resolveDevice(name string, wantInput bool) (*portaudio.DeviceInfo, error) {
	if name == "" || name == "default" {
		host, err := portaudio.DefaultHostApi()
		if err != nil {
			return nil, &capturecast.DeviceError{Device: name, Err: err}
		}
		if wantInput {
			return host.DefaultInputDevice, nil
		}
		return host.DefaultOutputDevice, nil
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, &capturecast.DeviceError{Device: name, Err: err}
	}
	for _, d := range devices {
		if d.Name != name {
			continue
		}
		if wantInput && d.MaxInputChannels > 0 {
			return d, nil
		}
		if !wantInput && d.MaxOutputChannels > 0 {
			return d, nil
		}
	}
	return nil, &capturecast.DeviceError{
		Device: name,
		Err:    fmt.Errorf("no matching device with the required direction"),
	}
}

// vim: foldmethod=marker
