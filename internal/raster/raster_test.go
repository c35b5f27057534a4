package raster

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func TestSniff(t *testing.T) {
	img := pngBytes(t, 4, 4)
	format, err := Sniff(img)
	require.NoError(t, err)
	assert.Equal(t, FormatPNG, format)

	format, err = Sniff([]byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10})
	require.NoError(t, err)
	assert.Equal(t, FormatJPEG, format)

	format, err = Sniff([]byte("RIFF0000WEBPVP8 "))
	require.NoError(t, err)
	assert.Equal(t, FormatWebP, format)

	format, err = Sniff([]byte{'I', 'I', 0x2a, 0x00, 0x08, 0x00, 0x00, 0x00})
	require.NoError(t, err)
	assert.Equal(t, FormatTIFF, format)

	_, err = Sniff([]byte("not an image"))
	assert.Error(t, err)
}

func TestConfigReadsDimensions(t *testing.T) {
	img := pngBytes(t, 12, 7)
	w, h, err := Config(img)
	require.NoError(t, err)
	assert.Equal(t, 12, w)
	assert.Equal(t, 7, h)
}

func TestConfigRejectsGarbage(t *testing.T) {
	_, _, err := Config([]byte{0x00, 0x01, 0x02})
	assert.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatWebP, f)

	f, err = ParseFormat("jpg")
	require.NoError(t, err)
	assert.Equal(t, FormatJPEG, f)

	_, err = ParseFormat("gif")
	assert.Error(t, err)
}

func TestParseScalingMethod(t *testing.T) {
	m, err := ParseScalingMethod("")
	require.NoError(t, err)
	assert.Equal(t, ScalingBilinear, m)

	m, err = ParseScalingMethod("lanczos")
	require.NoError(t, err)
	assert.Equal(t, ScalingLanczos, m)

	_, err = ParseScalingMethod("box")
	assert.Error(t, err)
}
