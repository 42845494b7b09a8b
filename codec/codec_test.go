package codec_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"go.loopcast.dev/capturecast/codec"
)

func TestCodecString(t *testing.T) {
	assert.Equal(t, "mp2", codec.CodecMP2.String())
	assert.Equal(t, "aac", codec.CodecAAC.String())
	assert.Equal(t, "aac_ld", codec.CodecAACLD.String())
	assert.Equal(t, "unknown", codec.Codec(0xff).String())
}
