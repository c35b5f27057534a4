package vectortile

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportsCleanTile(t *testing.T) {
	tile := tileWithWorldLayer(t, "world")

	simplicity, err := tile.ReportGeometrySimplicity()
	require.NoError(t, err)
	assert.Empty(t, simplicity)

	validity, err := tile.ReportGeometryValidity()
	require.NoError(t, err)
	assert.Empty(t, validity)
}

func TestReportFlagsNonSimpleGeometry(t *testing.T) {
	tile, err := New(0, 0, 0)
	require.NoError(t, err)

	// A bowtie: the ring self-intersects between its corners. The
	// strict-simple pass is disabled so the shape reaches the buffer.
	bowtie := `{"type": "Feature", "properties": {},
		"geometry": {"type": "Polygon", "coordinates": [
			[[-40, -30], [40, 30], [40, -30], [-10, 20], [-40, -30]]
		]}}`
	opts := DefaultEncodeOptions()
	opts.StrictlySimple = false
	require.NoError(t, tile.AddGeoJSON([]byte(bowtie), "bow", opts))
	require.False(t, tile.Empty())

	findings, err := tile.ReportGeometrySimplicity()
	require.NoError(t, err)
	require.NotEmpty(t, findings)
	assert.Equal(t, "bow", findings[0].Layer)
	assert.NotEmpty(t, findings[0].Reason)
}

func TestValidityFindingCarriesGeoJSON(t *testing.T) {
	tile, err := New(0, 0, 0)
	require.NoError(t, err)

	bowtie := `{"type": "Feature", "properties": {},
		"geometry": {"type": "Polygon", "coordinates": [
			[[-40, -30], [40, 30], [40, -30], [-10, 20], [-40, -30]]
		]}}`
	opts := DefaultEncodeOptions()
	opts.StrictlySimple = false
	require.NoError(t, tile.AddGeoJSON([]byte(bowtie), "bow", opts))

	findings, err := tile.ReportGeometryValidity()
	require.NoError(t, err)
	require.NotEmpty(t, findings)
	assert.Equal(t, "bow", findings[0].Layer)
	assert.True(t, strings.Contains(findings[0].GeoJSON, "FeatureCollection"))
}

func TestInfoOnGarbage(t *testing.T) {
	report := Info([]byte{0x1f, 0x8b, 0x00})
	assert.True(t, report.Errors)
	assert.Contains(t, report.TileErrors, "INVALID_PBF_BUFFER")
}

func TestInfoCountsLayers(t *testing.T) {
	tile := tileWithWorldLayer(t, "world")
	require.NoError(t, tile.AddGeoJSON([]byte(pointGeoJSON), "cities", DefaultEncodeOptions()))

	data, err := tile.GetData(DefaultGetDataOptions())
	require.NoError(t, err)

	report := Info(data)
	assert.False(t, report.Errors)
	require.Len(t, report.Layers, 2)
	assert.Equal(t, uint64(1), report.Layers[0].PolygonFeatures)
	assert.Equal(t, uint64(1), report.Layers[1].PointFeatures)
	assert.Equal(t, uint32(2), report.Layers[0].Version)
}
