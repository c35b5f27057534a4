package vectortile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/vectortile/internal/compress"
	"github.com/MeKo-Tech/vectortile/internal/mvt"
	"github.com/MeKo-Tech/vectortile/internal/pbf"
)

func TestSetDataRoundTrip(t *testing.T) {
	src := tileWithWorldLayer(t, "world")
	data, err := src.GetData(DefaultGetDataOptions())
	require.NoError(t, err)
	require.NotEmpty(t, data)

	dst, err := New(0, 0, 0)
	require.NoError(t, err)
	require.NoError(t, dst.SetData(data, ParseOptions{}))
	assert.Equal(t, []string{"world"}, dst.Names())

	round, err := dst.GetData(DefaultGetDataOptions())
	require.NoError(t, err)
	assert.Equal(t, data, round)
}

func TestSetDataReplacesExistingLayers(t *testing.T) {
	tile := tileWithWorldLayer(t, "old")
	other := tileWithWorldLayer(t, "new")
	data, err := other.GetData(DefaultGetDataOptions())
	require.NoError(t, err)

	require.NoError(t, tile.SetData(data, ParseOptions{}))
	assert.Equal(t, []string{"new"}, tile.Names())
}

func TestSetDataGzipEqualsRaw(t *testing.T) {
	src := tileWithWorldLayer(t, "world")
	raw, err := src.GetData(DefaultGetDataOptions())
	require.NoError(t, err)

	packed, err := compress.Deflate(raw, compress.EncodingGzip, 6, compress.StrategyDefault)
	require.NoError(t, err)

	a, err := New(0, 0, 0)
	require.NoError(t, err)
	require.NoError(t, a.SetData(raw, ParseOptions{}))

	b, err := New(0, 0, 0)
	require.NoError(t, err)
	require.NoError(t, b.SetData(packed, ParseOptions{}))

	assert.Equal(t, Info(raw), Info(packed))
	assert.Equal(t, a.Names(), b.Names())
}

func TestAddDataFirstWriterWins(t *testing.T) {
	tile := tileWithWorldLayer(t, "world")
	before, ok := tile.layerBytes("world")
	require.True(t, ok)
	beforeCopy := append([]byte{}, before...)

	other, err := New(0, 0, 0)
	require.NoError(t, err)
	require.NoError(t, other.AddGeoJSON([]byte(pointGeoJSON), "world", DefaultEncodeOptions()))
	data, err := other.GetData(DefaultGetDataOptions())
	require.NoError(t, err)

	require.NoError(t, tile.AddData(data, ParseOptions{}))
	assert.Equal(t, []string{"world"}, tile.Names())

	after, ok := tile.layerBytes("world")
	require.True(t, ok)
	assert.Equal(t, beforeCopy, after)
	// The conflicting layer still counts as painted.
	assert.Contains(t, tile.PaintedLayers(), "world")
}

func TestAddDataAppendsDistinctLayers(t *testing.T) {
	tile := tileWithWorldLayer(t, "world")
	other, err := New(0, 0, 0)
	require.NoError(t, err)
	require.NoError(t, other.AddGeoJSON([]byte(pointGeoJSON), "cities", DefaultEncodeOptions()))
	data, err := other.GetData(DefaultGetDataOptions())
	require.NoError(t, err)

	require.NoError(t, tile.AddData(data, ParseOptions{}))
	assert.Equal(t, []string{"world", "cities"}, tile.Names())
}

func TestAddDataCorruptLeavesTileUntouched(t *testing.T) {
	tile := tileWithWorldLayer(t, "world")
	before, err := tile.GetData(DefaultGetDataOptions())
	require.NoError(t, err)

	err = tile.AddData([]byte{0x1a, 0xff, 0xff, 0xff, 0xff}, ParseOptions{})
	assert.ErrorIs(t, err, ErrCorruptInput)

	after, err := tile.GetData(DefaultGetDataOptions())
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, []string{"world"}, tile.Names())
}

func TestGetDataGzip(t *testing.T) {
	tile := tileWithWorldLayer(t, "world")
	raw, err := tile.GetData(DefaultGetDataOptions())
	require.NoError(t, err)

	packed, err := tile.GetData(GetDataOptions{Compression: "gzip", Level: 9})
	require.NoError(t, err)
	assert.True(t, compress.IsCompressed(packed))

	unpacked, err := compress.Inflate(packed)
	require.NoError(t, err)
	assert.Equal(t, raw, unpacked)
}

func TestGetDataRelease(t *testing.T) {
	tile := tileWithWorldLayer(t, "world")
	data, err := tile.GetData(GetDataOptions{Compression: "none", Level: -1, Release: true})
	require.NoError(t, err)
	assert.NotEmpty(t, data)
	assert.True(t, tile.Empty())
}

func TestGetDataRejectsBadOptions(t *testing.T) {
	tile := tileWithWorldLayer(t, "world")

	_, err := tile.GetData(GetDataOptions{Compression: "brotli"})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = tile.GetData(GetDataOptions{Compression: "gzip", Level: 12})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = tile.GetData(GetDataOptions{Compression: "gzip", Level: 6, Strategy: "SNAPPY"})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestAddDataUpgradeRewritesV1(t *testing.T) {
	v1 := buildVersionedLayer(t, "legacy", 1)

	tile, err := New(0, 0, 0)
	require.NoError(t, err)
	require.NoError(t, tile.AddData(v1, ParseOptions{Upgrade: true}))

	layers, err := tile.ToJSON(JSONOptions{})
	require.NoError(t, err)
	require.Len(t, layers, 1)
	assert.Equal(t, uint32(2), layers[0].Version)
}

func TestAddDataKeepsV1WithoutUpgrade(t *testing.T) {
	v1 := buildVersionedLayer(t, "legacy", 1)

	tile, err := New(0, 0, 0)
	require.NoError(t, err)
	require.NoError(t, tile.AddData(v1, ParseOptions{}))

	layers, err := tile.ToJSON(JSONOptions{})
	require.NoError(t, err)
	require.Len(t, layers, 1)
	assert.Equal(t, uint32(1), layers[0].Version)
}

func TestAddDataUpgradeRejectsFutureVersions(t *testing.T) {
	v9 := buildVersionedLayer(t, "future", 9)

	tile, err := New(0, 0, 0)
	require.NoError(t, err)
	err = tile.AddData(v9, ParseOptions{Upgrade: true})
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestUnsupportedVersionSurfacesInValidityReport(t *testing.T) {
	v9 := buildVersionedLayer(t, "future", 9)

	tile, err := New(0, 0, 0)
	require.NoError(t, err)
	require.NoError(t, tile.AddData(v9, ParseOptions{}))

	findings, err := tile.ReportGeometryValidity()
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, "LAYER_HAS_UNSUPPORTED_VERSION", findings[0].Message)
}

// buildVersionedLayer hand-assembles a tile buffer holding one point
// layer with an arbitrary version stamp.
func buildVersionedLayer(t *testing.T, name string, version uint32) []byte {
	t.Helper()
	body := pbf.NewWriter(64)
	body.Uint32(mvt.TagLayerVersion, version)
	body.String(mvt.TagLayerName, name)
	fw := pbf.NewWriter(32)
	fw.Uint32(mvt.TagFeatureType, uint32(mvt.GeomPoint))
	fw.PackedUint32(mvt.TagFeatureGeometry, []uint32{mvt.CommandInteger(mvt.CmdMoveTo, 1), pbf.ZigzagInt32(100), pbf.ZigzagInt32(100)})
	body.Message(mvt.TagLayerFeatures, fw.Bytes())
	body.Uint32(mvt.TagLayerExtent, 4096)

	w := pbf.NewWriter(128)
	w.Message(mvt.TagTileLayer, body.Bytes())
	return w.Bytes()
}
