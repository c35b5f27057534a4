package vectortile

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeJPEG is a minimal buffer carrying the JPEG SOI marker; the
// engine sniffs containers, it never decodes pixels.
var fakeJPEG = []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}

func TestAddImageBuffer(t *testing.T) {
	tile, err := NewWithConfig(1, 0, 0, Config{TileSize: 256, BufferSize: 0})
	require.NoError(t, err)

	err = tile.AddImageBuffer(fakeJPEG, "img", ImageOptions{Format: "jpeg", Scaling: "gaussian"})
	require.NoError(t, err)

	assert.Equal(t, []string{"img"}, tile.Names())
	assert.False(t, tile.Empty())
	assert.Contains(t, tile.PaintedLayers(), "img")

	// The raster payload survives a data round trip untouched.
	data, err := tile.GetData(DefaultGetDataOptions())
	require.NoError(t, err)
	report := Info(data)
	require.Len(t, report.Layers, 1)
	assert.Equal(t, uint64(1), report.Layers[0].RasterFeatures)
	assert.Equal(t, uint64(1), report.Layers[0].Features)
}

func TestAddImageBufferPNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, 2, 2))))

	tile, err := New(0, 0, 0)
	require.NoError(t, err)
	require.NoError(t, tile.AddImageBuffer(buf.Bytes(), "raster", ImageOptions{Format: "png"}))
	assert.Equal(t, []string{"raster"}, tile.Names())
}

func TestAddImageBufferFormatMismatch(t *testing.T) {
	tile, err := New(0, 0, 0)
	require.NoError(t, err)
	err = tile.AddImageBuffer(fakeJPEG, "img", ImageOptions{Format: "png"})
	assert.ErrorIs(t, err, ErrIO)
}

func TestAddImageBufferRejectsBadOptions(t *testing.T) {
	tile, err := New(0, 0, 0)
	require.NoError(t, err)

	err = tile.AddImageBuffer(fakeJPEG, "img", ImageOptions{Format: "bmp"})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	err = tile.AddImageBuffer(fakeJPEG, "img", ImageOptions{Format: "jpeg", Scaling: "area"})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	err = tile.AddImageBuffer(nil, "img", ImageOptions{Format: "jpeg"})
	assert.ErrorIs(t, err, ErrIO)

	err = tile.AddImageBuffer(fakeJPEG, "", ImageOptions{Format: "jpeg"})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestAddImageBufferUnrecognizedContainer(t *testing.T) {
	tile, err := New(0, 0, 0)
	require.NoError(t, err)
	err = tile.AddImageBuffer([]byte("definitely not an image"), "img", ImageOptions{Format: "jpeg"})
	assert.ErrorIs(t, err, ErrIO)
}
