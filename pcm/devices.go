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
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// Device is a single enumerated audio device, trimmed to what
// --list-devices needs to print.
type Device struct {
	Index       int
	Name        string
	MaxInputCh  int
	MaxOutputCh int
	DefaultRate float64
}

// ListDevices enumerates every device PortAudio's host APIs can see. One
// "Card: #N ..." line per device is printed by the caller to reproduce the
// reference implementation's ALSA card-enumeration output, now backed by
// PortAudio device indices instead of ALSA card numbers.
func ListDevices() ([]Device, error) {
	if err := initialize(); err != nil {
		return nil, err
	}
	defer terminate()

	infos, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("pcm: enumerate devices: %w", err)
	}

	devices := make([]Device, 0, len(infos))
	for i, d := range infos {
		devices = append(devices, Device{
			Index:       i,
			Name:        d.Name,
			MaxInputCh:  d.MaxInputChannels,
			MaxOutputCh: d.MaxOutputChannels,
			DefaultRate: d.DefaultSampleRate,
		})
	}
	return devices, nil
}

// vim: foldmethod=marker
