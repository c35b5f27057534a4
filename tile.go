// Package vectortile builds, mutates, queries, and re-encodes Mapbox
// Vector Tiles. A Tile is addressed by (z, x, y) in the Web-Mercator
// pyramid and owns an encoded MVT buffer together with a byte-range
// index of its layers, so layers can be appended, extracted, and
// spliced between tiles without re-parsing feature data.
package vectortile

import (
	"sort"

	"github.com/MeKo-Tech/vectortile/internal/mvt"
	"github.com/MeKo-Tech/vectortile/internal/projection"
)

// DefaultTileSize is the tile grid resolution used by New.
const DefaultTileSize = 4096

// DefaultBufferSize is the overflow margin, in grid pixels, used by
// New.
const DefaultBufferSize = 128

// Config carries the immutable dimensions of a tile.
type Config struct {
	// TileSize is the tile grid resolution; must be positive.
	TileSize uint32
	// BufferSize is the overflow margin in grid pixels. It may be
	// negative as long as TileSize + 2*BufferSize stays positive.
	BufferSize int32
}

// DefaultConfig returns the standard 4096/128 dimensions.
func DefaultConfig() Config {
	return Config{TileSize: DefaultTileSize, BufferSize: DefaultBufferSize}
}

type layerSpan struct {
	offset int
	length int
}

// Tile is an in-memory vector tile: immutable identity plus a mutable
// encoded buffer and the indexes derived from it. A Tile must not be
// mutated concurrently; read-only inspection is safe while no
// mutation is in flight.
type Tile struct {
	z, x, y    uint32
	tileSize   uint32
	bufferSize int32

	buffer  []byte
	layers  []string
	index   map[string]layerSpan
	painted map[string]struct{}
	empty   map[string]struct{}
}

// New creates an empty tile at (z, x, y) with default dimensions.
func New(z, x, y uint32) (*Tile, error) {
	return NewWithConfig(z, x, y, DefaultConfig())
}

// NewWithConfig creates an empty tile with explicit dimensions.
func NewWithConfig(z, x, y uint32, cfg Config) (*Tile, error) {
	if z >= 32 {
		return nil, invalidf("zoom %d out of range", z)
	}
	limit := uint64(1) << z
	if uint64(x) >= limit {
		return nil, invalidf("x %d out of range for zoom %d", x, z)
	}
	if uint64(y) >= limit {
		return nil, invalidf("y %d out of range for zoom %d", y, z)
	}
	if cfg.TileSize == 0 {
		return nil, invalidf("tile size must be positive")
	}
	if int64(cfg.TileSize)+2*int64(cfg.BufferSize) <= 0 {
		return nil, invalidf("buffer size %d too negative for tile size %d", cfg.BufferSize, cfg.TileSize)
	}
	return &Tile{
		z: z, x: x, y: y,
		tileSize:   cfg.TileSize,
		bufferSize: cfg.BufferSize,
		index:      make(map[string]layerSpan),
		painted:    make(map[string]struct{}),
		empty:      make(map[string]struct{}),
	}, nil
}

// Z returns the tile's zoom level.
func (t *Tile) Z() uint32 { return t.z }

// X returns the tile's column.
func (t *Tile) X() uint32 { return t.x }

// Y returns the tile's row.
func (t *Tile) Y() uint32 { return t.y }

// TileSize returns the tile grid resolution.
func (t *Tile) TileSize() uint32 { return t.tileSize }

// BufferSize returns the overflow margin in grid pixels.
func (t *Tile) BufferSize() int32 { return t.bufferSize }

// SetBufferSize adjusts the overflow margin. The combined dimension
// must stay positive.
func (t *Tile) SetBufferSize(size int32) error {
	if int64(t.tileSize)+2*int64(size) <= 0 {
		return invalidf("buffer size %d too negative for tile size %d", size, t.tileSize)
	}
	t.bufferSize = size
	return nil
}

// Extent returns the tile's mercator envelope
// [minX, minY, maxX, maxY].
func (t *Tile) Extent() [4]float64 {
	return projection.TileEnvelope(t.z, t.x, t.y)
}

// BufferedExtent returns the envelope expanded by the buffer margin.
func (t *Tile) BufferedExtent() [4]float64 {
	return projection.BufferedEnvelope(t.z, t.x, t.y, t.tileSize, t.bufferSize)
}

// Names returns the layer names in buffer order.
func (t *Tile) Names() []string {
	out := make([]string, len(t.layers))
	copy(out, t.layers)
	return out
}

// Empty reports whether the tile holds no layers.
func (t *Tile) Empty() bool { return len(t.layers) == 0 }

// Painted reports whether any layer was offered data during a build,
// even if nothing survived the pipeline.
func (t *Tile) Painted() bool { return len(t.painted) > 0 }

// PaintedLayers returns the sorted names of painted layers. Painted
// names may be absent from Names when the layer produced no features.
func (t *Tile) PaintedLayers() []string {
	return sortedSet(t.painted)
}

// EmptyLayers returns the sorted names of layers that were offered
// data but encoded zero features.
func (t *Tile) EmptyLayers() []string {
	return sortedSet(t.empty)
}

// HasLayer reports whether name is present in the encoded buffer.
func (t *Tile) HasLayer(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Clear empties the buffer and all derived indexes but preserves the
// tile's identity.
func (t *Tile) Clear() {
	t.buffer = nil
	t.layers = nil
	t.index = make(map[string]layerSpan)
	t.painted = make(map[string]struct{})
	t.empty = make(map[string]struct{})
}

// Layer extracts a single layer into a new tile sharing this tile's
// identity. The layer's bytes are copied verbatim.
func (t *Tile) Layer(name string) (*Tile, error) {
	span, ok := t.index[name]
	if !ok {
		return nil, invalidf("layer %q not found", name)
	}
	out, err := NewWithConfig(t.z, t.x, t.y, Config{TileSize: t.tileSize, BufferSize: t.bufferSize})
	if err != nil {
		return nil, err
	}
	out.appendLayer(name, t.buffer[span.offset:span.offset+span.length])
	return out, nil
}

// appendLayer copies an encoded layer field onto the buffer and
// indexes it. Earlier bytes are never rewritten.
func (t *Tile) appendLayer(name string, encoded []byte) {
	span := layerSpan{offset: len(t.buffer), length: len(encoded)}
	t.buffer = append(t.buffer, encoded...)
	t.layers = append(t.layers, name)
	t.index[name] = span
	t.painted[name] = struct{}{}
}

// markPainted records that a layer was offered data; emptied layers
// are tracked separately.
func (t *Tile) markPainted(name string, encodedFeatures int) {
	t.painted[name] = struct{}{}
	if encodedFeatures == 0 {
		t.empty[name] = struct{}{}
	}
}

// layerBytes returns the raw encoded field of a layer, aliasing the
// tile's buffer.
func (t *Tile) layerBytes(name string) ([]byte, bool) {
	span, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.buffer[span.offset : span.offset+span.length], true
}

// decodeLayer decodes one layer by name.
func (t *Tile) decodeLayer(name string) (*mvt.Layer, error) {
	raw, ok := t.layerBytes(name)
	if !ok {
		return nil, invalidf("layer %q not found", name)
	}
	ranges, _, err := mvt.ScanLayers(raw)
	if err != nil {
		return nil, corruptf("layer %q: %v", name, err)
	}
	if len(ranges) != 1 {
		return nil, corruptf("layer %q: expected one layer message, found %d", name, len(ranges))
	}
	layer, err := mvt.DecodeLayerRange(raw, ranges[0])
	if err != nil {
		return nil, corruptf("layer %q: %v", name, err)
	}
	return layer, nil
}

// gridTransform binds a layer extent to this tile's envelope.
func (t *Tile) gridTransform(extent uint32) mvt.GridTransform {
	return mvt.NewGridTransform(projection.TileEnvelope(t.z, t.x, t.y), extent)
}

func sortedSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
