package projection

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForwardInverseRoundTrip(t *testing.T) {
	cases := []struct {
		name     string
		lon, lat float64
	}{
		{"origin", 0, 0},
		{"berlin", 13.404954, 52.520008},
		{"sydney", 151.209290, -33.868820},
		{"date line", 179.999, 0},
		{"far south", -70.0, -84.9},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			x, y := Forward(tc.lon, tc.lat)
			lon, lat := Inverse(x, y)
			assert.InDelta(t, tc.lon, lon, 1e-9)
			assert.InDelta(t, tc.lat, lat, 1e-9)
		})
	}
}

func TestForwardKnownValues(t *testing.T) {
	x, y := Forward(0, 0)
	assert.InDelta(t, 0, x, 1e-9)
	assert.InDelta(t, 0, y, 1e-9)

	x, _ = Forward(180, 0)
	assert.InDelta(t, MaxMercator, x, 1e-6)
}

func TestForwardClampsPoles(t *testing.T) {
	_, y := Forward(0, 90)
	require.False(t, math.IsInf(y, 1))
	require.False(t, math.IsNaN(y))
}

func TestTileEnvelopeWorld(t *testing.T) {
	// The tile bound round-trips through the maptile latitude
	// formula, so allow for floating point wobble well under a
	// millimeter.
	env := TileEnvelope(0, 0, 0)
	assert.InDelta(t, -MaxMercator, env[0], 1e-3)
	assert.InDelta(t, -MaxMercator, env[1], 1e-3)
	assert.InDelta(t, MaxMercator, env[2], 1e-3)
	assert.InDelta(t, MaxMercator, env[3], 1e-3)
}

func TestTileEnvelopeZ9(t *testing.T) {
	// Known mercator envelope of tile 9/112/195.
	env := TileEnvelope(9, 112, 195)
	assert.InDelta(t, -11271098.442818949, env[0], 1e-3)
	assert.InDelta(t, 4696291.017841229, env[1], 1e-3)
	assert.InDelta(t, -11192826.925854929, env[2], 1e-3)
	assert.InDelta(t, 4774562.534805248, env[3], 1e-3)
}

func TestTileBoundWGS84(t *testing.T) {
	// z1 (0,0) is the north-western quadrant.
	b := TileBound(1, 0, 0)
	assert.InDelta(t, -180, b.Min.Lon(), 1e-9)
	assert.InDelta(t, 0, b.Max.Lon(), 1e-9)
	assert.InDelta(t, 0, b.Min.Lat(), 1e-9)
	assert.InDelta(t, 85.05112877980659, b.Max.Lat(), 1e-9)
}

func TestBufferedEnvelope(t *testing.T) {
	env := TileEnvelope(0, 0, 0)
	buffered := BufferedEnvelope(0, 0, 0, 4096, 128)

	pad := TileSpan(0) * 128.0 / 4096.0
	assert.InDelta(t, env[0]-pad, buffered[0], 1e-6)
	assert.InDelta(t, env[3]+pad, buffered[3], 1e-6)
	assert.Greater(t, buffered.Width(), env.Width())
}

func TestBufferedEnvelopeNegativeBuffer(t *testing.T) {
	env := TileEnvelope(2, 1, 1)
	buffered := BufferedEnvelope(2, 1, 1, 4096, -64)
	assert.Less(t, buffered.Width(), env.Width())
	assert.Greater(t, buffered[0], env[0])
}

func TestTileSpanHalvesPerZoom(t *testing.T) {
	for z := uint32(0); z < 20; z++ {
		assert.InDelta(t, TileSpan(z)/2, TileSpan(z+1), 1e-6)
	}
}
