// Package projection converts between WGS84 (EPSG:4326) and Web
// Mercator (EPSG:3857) and computes the mercator envelope of tiles in
// the z/x/y pyramid. Tile addressing goes through orb/maptile; the
// mercator math itself is spherical-mercator arithmetic.
package projection

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
)

// EarthRadius is the WGS84 equatorial radius in meters, the sphere
// radius used by Web Mercator.
const EarthRadius = 6378137.0

// MaxMercator is half the extent of the mercator plane: the projected
// x of longitude 180.
const MaxMercator = math.Pi * EarthRadius

// WorldSize is the full width of the mercator plane in meters.
const WorldSize = 2 * MaxMercator

// Envelope is a mercator bounding box [minX, minY, maxX, maxY].
type Envelope [4]float64

// Bound returns the envelope as an orb.Bound for clipping.
func (e Envelope) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{e[0], e[1]},
		Max: orb.Point{e[2], e[3]},
	}
}

// Width returns the envelope width in meters.
func (e Envelope) Width() float64 { return e[2] - e[0] }

// Height returns the envelope height in meters.
func (e Envelope) Height() float64 { return e[3] - e[1] }

// Expand grows the envelope by pad meters on every side.
func (e Envelope) Expand(pad float64) Envelope {
	return Envelope{e[0] - pad, e[1] - pad, e[2] + pad, e[3] + pad}
}

// Forward projects a WGS84 lon/lat to mercator meters. Latitudes are
// clamped to the mercator domain so the forward direction is total.
func Forward(lon, lat float64) (x, y float64) {
	x = EarthRadius * lon * math.Pi / 180.0

	latRad := lat * math.Pi / 180.0
	// Clamp rather than overflow at the poles.
	const limit = math.Pi/2 - 1e-9
	if latRad > limit {
		latRad = limit
	} else if latRad < -limit {
		latRad = -limit
	}
	y = EarthRadius * math.Log(math.Tan(math.Pi/4.0+latRad/2.0))
	return x, y
}

// Inverse converts mercator meters back to WGS84 lon/lat.
func Inverse(x, y float64) (lon, lat float64) {
	lon = (x / EarthRadius) * 180.0 / math.Pi
	lat = (math.Atan(math.Exp(y/EarthRadius)) - math.Pi/4.0) * 2.0 * 180.0 / math.Pi
	return lon, lat
}

// ForwardPoint projects a WGS84 orb.Point to mercator.
func ForwardPoint(p orb.Point) orb.Point {
	x, y := Forward(p[0], p[1])
	return orb.Point{x, y}
}

// InversePoint converts a mercator orb.Point to WGS84.
func InversePoint(p orb.Point) orb.Point {
	lon, lat := Inverse(p[0], p[1])
	return orb.Point{lon, lat}
}

// TileSpan returns the side length in meters of a tile at zoom z.
func TileSpan(z uint32) float64 {
	return WorldSize / float64(uint64(1)<<z)
}

// Tile returns the maptile.Tile for the coordinate.
func Tile(z, x, y uint32) maptile.Tile {
	return maptile.New(x, y, maptile.Zoom(z))
}

// TileBound returns the tile's geographic bounding box in WGS84.
func TileBound(z, x, y uint32) orb.Bound {
	return Tile(z, x, y).Bound()
}

// TileEnvelope returns the mercator bounding box of tile (z, x, y):
// the WGS84 tile bound projected corner by corner.
func TileEnvelope(z, x, y uint32) Envelope {
	bound := TileBound(z, x, y)
	minX, minY := Forward(bound.Min.Lon(), bound.Min.Lat())
	maxX, maxY := Forward(bound.Max.Lon(), bound.Max.Lat())
	return Envelope{minX, minY, maxX, maxY}
}

// BufferedEnvelope returns the tile envelope expanded by bufferSize
// pixels at the tile's resolution. A negative buffer shrinks the
// envelope; callers must keep tileSize + 2*bufferSize positive.
func BufferedEnvelope(z, x, y uint32, tileSize uint32, bufferSize int32) Envelope {
	env := TileEnvelope(z, x, y)
	pad := TileSpan(z) * float64(bufferSize) / float64(tileSize)
	return env.Expand(pad)
}
