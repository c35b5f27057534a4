package vectortile

import (
	"fmt"

	"github.com/MeKo-Tech/vectortile/internal/mvt"
	"github.com/MeKo-Tech/vectortile/internal/projection"
	"github.com/MeKo-Tech/vectortile/internal/raster"
)

// AddImageBuffer adds a raster layer holding the supplied image bytes
// verbatim. The bytes are treated as opaque: the container format is
// sniffed for sanity against the declared format, but pixels are
// never decoded. The raster feature spans the whole tile; renderers
// place the image from the tile's own extent.
func (t *Tile) AddImageBuffer(data []byte, layerName string, opts ImageOptions) error {
	if layerName == "" {
		return invalidf("layer name must not be empty")
	}
	if t.HasLayer(layerName) {
		return invalidf("layer %q already exists", layerName)
	}
	if len(data) == 0 {
		return fmt.Errorf("%w: empty image buffer", ErrIO)
	}

	format, err := raster.ParseFormat(string(opts.Format))
	if err != nil {
		return invalidf("%v", err)
	}
	if _, err := raster.ParseScalingMethod(string(opts.Scaling)); err != nil {
		return invalidf("%v", err)
	}
	sniffed, err := raster.Sniff(data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	if sniffed != format {
		return fmt.Errorf("%w: buffer is %s, declared %s", ErrIO, sniffed, format)
	}

	tileEnv := projection.TileEnvelope(t.z, t.x, t.y)
	buffered := projection.BufferedEnvelope(t.z, t.x, t.y, t.tileSize, t.bufferSize)

	// Raster features carry the image payload alone; placement is the
	// tile itself.
	feats := []mvt.SourceFeature{{Raster: data}}
	encoded, count, err := mvt.EncodeLayer(layerName, feats, tileEnv, buffered, mvt.DefaultEncodeOptions())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}

	t.markPainted(layerName, count)
	if count > 0 {
		t.appendLayer(layerName, encoded)
	}
	return nil
}
