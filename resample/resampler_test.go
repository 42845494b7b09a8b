package resample_test

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"go.loopcast.dev/capturecast"
	"go.loopcast.dev/capturecast/resample"
)

func encodeF32(vals []float32) []byte {
	out := make([]byte, len(vals)*4)
	for i, v := range vals {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out
}

func TestResamplerIdentityPassthrough(t *testing.T) {
	params := capturecast.AudioParams{SampleRate: 44100, Channels: 2, SampleFormat: capturecast.SampleFormatF32LE}
	r := resample.New(params, params)

	in := encodeF32([]float32{0.1, -0.2, 0.3, -0.4})
	out, err := r.Process(in)
	assert.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestResamplerChangesLength(t *testing.T) {
	src := capturecast.AudioParams{SampleRate: 8000, Channels: 1, SampleFormat: capturecast.SampleFormatF32LE}
	dst := capturecast.AudioParams{SampleRate: 16000, Channels: 1, SampleFormat: capturecast.SampleFormatF32LE}
	r := resample.New(src, dst)

	samples := make([]float32, 256)
	for i := range samples {
		samples[i] = float32(math.Sin(float64(i) / 10))
	}
	in := encodeF32(samples)

	out, err := r.Process(in)
	assert.NoError(t, err)
	assert.Greater(t, len(out), len(in))
}
