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

// MultiSink fans the same bytes out to several Sinks, the way the monitor
// path needs to feed both a playback device and a WAV file from one
// ThreadBuffer. Modeled on the teacher's MultiWriter helper in writer.go,
// generalized from sdr.Writer to pipeline.Sink.
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink combines sinks into one. A nil entry is skipped, so callers
// can build the list conditionally without filtering it themselves.
func NewMultiSink(sinks ...Sink) *MultiSink {
	var filtered []Sink
	for _, s := range sinks {
		if s != nil {
			filtered = append(filtered, s)
		}
	}
	return &MultiSink{sinks: filtered}
}

// Write writes p to every wrapped sink, continuing past individual
// failures so one bad sink (e.g. a playback device xrun) doesn't starve
// the others, but remembering and returning the first error seen.
func (m *MultiSink) Write(p []byte) (int, error) {
	var firstErr error
	for _, s := range m.sinks {
		if _, err := s.Write(p); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return 0, firstErr
	}
	return len(p), nil
}

// Close closes every wrapped sink, returning the first error seen.
func (m *MultiSink) Close() error {
	var firstErr error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// vim: foldmethod=marker
