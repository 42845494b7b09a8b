package capturecast_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"go.loopcast.dev/capturecast"
)

func TestFrameSize(t *testing.T) {
	p := capturecast.AudioParams{
		SampleRate:   44100,
		Channels:     2,
		SampleFormat: capturecast.SampleFormatS16LE,
	}
	assert.Equal(t, 4, p.FrameSize())
	assert.Equal(t, 256, p.AlignDown(259))
	assert.Equal(t, 64, p.FrameCount(259))
	assert.Equal(t, 256, p.BytesForFrames(64))
}

func TestAlignDownUnknownFormat(t *testing.T) {
	p := capturecast.AudioParams{Channels: 2, SampleFormat: capturecast.SampleFormat(0xff)}
	assert.Equal(t, 0, p.AlignDown(1024))
}

func TestSampleFormatString(t *testing.T) {
	assert.Equal(t, "s16le", capturecast.SampleFormatS16LE.String())
	assert.Equal(t, "f32le", capturecast.SampleFormatF32LE.String())
	assert.Equal(t, "u8", capturecast.SampleFormatU8.String())
	assert.Equal(t, "unknown", capturecast.SampleFormat(0xff).String())
}

func TestPcmStateString(t *testing.T) {
	assert.Equal(t, "running", capturecast.PcmStateRunning.String())
	assert.Equal(t, "xrun", capturecast.PcmStateXRun.String())
}
