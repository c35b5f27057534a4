package compress

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sample = bytes.Repeat([]byte("vector tiles all the way down "), 64)

func TestDetectRaw(t *testing.T) {
	assert.Equal(t, EncodingNone, Detect([]byte{0x1a, 0x05, 0x01, 0x02}))
	assert.False(t, IsCompressed([]byte("plain")))
}

func TestGzipRoundTrip(t *testing.T) {
	packed, err := Deflate(sample, EncodingGzip, 6, StrategyDefault)
	require.NoError(t, err)
	assert.Equal(t, EncodingGzip, Detect(packed))

	out, err := Inflate(packed)
	require.NoError(t, err)
	assert.Equal(t, sample, out)
}

func TestZlibRoundTrip(t *testing.T) {
	packed, err := Deflate(sample, EncodingZlib, 9, StrategyDefault)
	require.NoError(t, err)
	assert.Equal(t, EncodingZlib, Detect(packed))

	out, err := Inflate(packed)
	require.NoError(t, err)
	assert.Equal(t, sample, out)
}

func TestInflatePassThrough(t *testing.T) {
	out, err := Inflate(sample)
	require.NoError(t, err)
	assert.Equal(t, sample, out)
}

func TestHuffmanOnlyStillDecodes(t *testing.T) {
	packed, err := Deflate(sample, EncodingGzip, 6, StrategyHuffmanOnly)
	require.NoError(t, err)
	out, err := Inflate(packed)
	require.NoError(t, err)
	assert.Equal(t, sample, out)
}

func TestLevelRange(t *testing.T) {
	_, err := Deflate(sample, EncodingGzip, 17, StrategyDefault)
	assert.Error(t, err)

	for level := 0; level <= 9; level++ {
		packed, err := Deflate(sample, EncodingZlib, level, StrategyDefault)
		require.NoError(t, err, "level %d", level)
		out, err := Inflate(packed)
		require.NoError(t, err)
		assert.Equal(t, sample, out)
	}
}

func TestInflateCorruptFraming(t *testing.T) {
	bad := []byte{0x1f, 0x8b, 0x00, 0x00, 0x01}
	_, err := Inflate(bad)
	assert.Error(t, err)
}

func TestParseStrategy(t *testing.T) {
	s, err := ParseStrategy("RLE")
	require.NoError(t, err)
	assert.Equal(t, StrategyRLE, s)

	s, err = ParseStrategy("")
	require.NoError(t, err)
	assert.Equal(t, StrategyDefault, s)

	_, err = ParseStrategy("BROTLI")
	assert.Error(t, err)
}
