package vectortile

import (
	"encoding/json"
	"testing"

	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddGeoJSONPaintsLayer(t *testing.T) {
	tile, err := New(0, 0, 0)
	require.NoError(t, err)
	require.NoError(t, tile.AddGeoJSON([]byte(worldGeoJSON), "world", DefaultEncodeOptions()))

	assert.Equal(t, []string{"world"}, tile.Names())
	assert.Equal(t, []string{"world"}, tile.PaintedLayers())
	assert.Empty(t, tile.EmptyLayers())
	assert.False(t, tile.Empty())
}

func TestAddGeoJSONOutsideTilePaintsEmpty(t *testing.T) {
	// Tile 2/0/0 covers the north-western corner; a feature near
	// (150, -40) clips away entirely.
	tile, err := New(2, 0, 0)
	require.NoError(t, err)
	far := `{"type": "Feature", "properties": {},
		"geometry": {"type": "Point", "coordinates": [150, -40]}}`
	require.NoError(t, tile.AddGeoJSON([]byte(far), "faraway", DefaultEncodeOptions()))

	// Painted but not present: the layer encoded zero features.
	assert.True(t, tile.Empty())
	assert.Equal(t, []string{"faraway"}, tile.PaintedLayers())
	assert.Equal(t, []string{"faraway"}, tile.EmptyLayers())
	assert.NotContains(t, tile.Names(), "faraway")
}

func TestAddGeoJSONRejectsDuplicates(t *testing.T) {
	tile := tileWithWorldLayer(t, "world")
	err := tile.AddGeoJSON([]byte(worldGeoJSON), "world", DefaultEncodeOptions())
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestAddGeoJSONRejectsGarbage(t *testing.T) {
	tile, err := New(0, 0, 0)
	require.NoError(t, err)
	err = tile.AddGeoJSON([]byte(`{"type": "Nonsense"}`), "bad", DefaultEncodeOptions())
	assert.ErrorIs(t, err, ErrCorruptInput)
}

func TestAddGeoJSONBareGeometry(t *testing.T) {
	tile, err := New(0, 0, 0)
	require.NoError(t, err)
	geom := `{"type": "Point", "coordinates": [5, 5]}`
	require.NoError(t, tile.AddGeoJSON([]byte(geom), "pt", DefaultEncodeOptions()))
	assert.Equal(t, []string{"pt"}, tile.Names())
}

func TestToGeoJSONByName(t *testing.T) {
	tile := tileWithWorldLayer(t, "world")

	out, err := tile.ToGeoJSON("world")
	require.NoError(t, err)

	fc, err := geojson.UnmarshalFeatureCollection([]byte(out))
	require.NoError(t, err)
	require.Len(t, fc.Features, 1)

	f := fc.Features[0]
	assert.Equal(t, "square", f.Properties["name"])
	assert.Equal(t, "world", f.Properties["layer"])

	// Round-tripped coordinates stay within one grid cell (~0.09
	// degrees of longitude at z0).
	b := f.Geometry.Bound()
	assert.InDelta(t, -40, b.Min[0], 0.1)
	assert.InDelta(t, 30, b.Max[1], 0.1)
}

func TestToGeoJSONByIndexAndSelectors(t *testing.T) {
	tile := tileWithWorldLayer(t, "world")
	require.NoError(t, tile.AddGeoJSON([]byte(pointGeoJSON), "cities", DefaultEncodeOptions()))

	byIndex, err := tile.ToGeoJSON("1")
	require.NoError(t, err)
	fc, err := geojson.UnmarshalFeatureCollection([]byte(byIndex))
	require.NoError(t, err)
	require.Len(t, fc.Features, 1)
	assert.Equal(t, "cities", fc.Features[0].Properties["layer"])

	all, err := tile.ToGeoJSON(SelectorAll)
	require.NoError(t, err)
	fc, err = geojson.UnmarshalFeatureCollection([]byte(all))
	require.NoError(t, err)
	assert.Len(t, fc.Features, 2)

	array, err := tile.ToGeoJSON(SelectorArray)
	require.NoError(t, err)
	var named []struct {
		Name string `json:"name"`
	}
	require.NoError(t, json.Unmarshal([]byte(array), &named))
	require.Len(t, named, 2)
	assert.Equal(t, "world", named[0].Name)
	assert.Equal(t, "cities", named[1].Name)
}

func TestToGeoJSONUnknownSelector(t *testing.T) {
	tile := tileWithWorldLayer(t, "world")

	_, err := tile.ToGeoJSON("absent")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = tile.ToGeoJSON("7")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestToJSONStructure(t *testing.T) {
	tile := tileWithWorldLayer(t, "world")

	layers, err := tile.ToJSON(JSONOptions{})
	require.NoError(t, err)
	require.Len(t, layers, 1)
	assert.Equal(t, "world", layers[0].Name)
	assert.Equal(t, uint32(4096), layers[0].Extent)
	assert.Equal(t, uint32(2), layers[0].Version)
	require.Len(t, layers[0].Features, 1)
	assert.NotEmpty(t, layers[0].Features[0].RawGeometry)
	assert.Nil(t, layers[0].Features[0].Geometry)

	decoded, err := tile.ToJSON(JSONOptions{DecodeGeometry: true})
	require.NoError(t, err)
	require.Len(t, decoded[0].Features, 1)
	assert.Empty(t, decoded[0].Features[0].RawGeometry)
	assert.NotNil(t, decoded[0].Features[0].Geometry)
}
