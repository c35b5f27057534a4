package vectortile

import (
	"fmt"
	"runtime"

	"github.com/paulmach/orb"
	"golang.org/x/sync/errgroup"

	"github.com/MeKo-Tech/vectortile/internal/mvt"
	"github.com/MeKo-Tech/vectortile/internal/projection"
)

// Composite merges the layers of sources into t. When every source
// shares t's coordinates and no re-encoding option is set, source
// layer bytes are spliced onto t's buffer verbatim; otherwise each
// source layer is decoded and re-encoded against t's envelope.
//
// The output layer order is deterministic: t's existing layers, then
// each source's layers in source order, minus name conflicts, which
// resolve first-writer-wins. On error t is left unchanged.
func (t *Tile) Composite(sources []*Tile, opts CompositeOptions) error {
	if opts.ScaleFactor <= 0 {
		return invalidf("scale_factor must be positive")
	}
	if opts.AreaThreshold < 0 {
		return invalidf("area_threshold must not be negative")
	}
	if opts.SimplifyDistance < 0 {
		return invalidf("simplify_distance must not be negative")
	}
	if len(sources) == 0 {
		return nil
	}

	if t.spliceable(sources, opts) {
		return t.compositeSplice(sources)
	}
	return t.compositeReencode(sources, opts)
}

// spliceable reports whether the fast byte-copy path applies.
func (t *Tile) spliceable(sources []*Tile, opts CompositeOptions) bool {
	if opts.Reencode || opts.ScaleFactor != 1.0 || opts.OffsetX != 0 || opts.OffsetY != 0 {
		return false
	}
	if opts.MaxExtent != ([4]float64{}) {
		return false
	}
	for _, s := range sources {
		if s.z != t.z || s.x != t.x || s.y != t.y || s.tileSize != t.tileSize {
			return false
		}
	}
	return true
}

// compositeSplice appends source layer bytes through the raw-layer
// entry point. All appends are staged so a failure cannot leave t
// half-merged.
func (t *Tile) compositeSplice(sources []*Tile) error {
	staged := &stagedLayers{}
	for _, s := range sources {
		for _, name := range s.layers {
			raw, ok := s.layerBytes(name)
			if !ok {
				continue
			}
			encoded := make([]byte, len(raw))
			copy(encoded, raw)
			staged.names = append(staged.names, name)
			staged.encoded = append(staged.encoded, encoded)
		}
	}
	t.commit(staged)
	return nil
}

// sourceLayer is one unit of re-encode work.
type sourceLayer struct {
	source int
	tile   *Tile
	name   string
}

type encodedLayer struct {
	name    string
	encoded []byte
	count   int
}

// compositeReencode decodes each source layer to mercator features
// and re-encodes them against t's envelope. With an async threading
// mode, disjoint layers run on a worker pool and join before commit.
func (t *Tile) compositeReencode(sources []*Tile, opts CompositeOptions) error {
	var work []sourceLayer
	for si, s := range sources {
		for _, name := range s.layers {
			work = append(work, sourceLayer{source: si, tile: s, name: name})
		}
	}
	if len(work) == 0 {
		return nil
	}

	tileEnv := projection.TileEnvelope(t.z, t.x, t.y)
	clipEnv := projection.BufferedEnvelope(t.z, t.x, t.y, t.tileSize, t.bufferSize)
	if opts.MaxExtent != ([4]float64{}) {
		clipEnv = projection.Envelope(opts.MaxExtent)
	}

	results := make([]*encodedLayer, len(work))
	encodeOne := func(i int) error {
		w := work[i]
		enc, err := reencodeLayer(w.tile, w.name, tileEnv, clipEnv, opts)
		if err != nil {
			return &CompositeError{Source: w.source, Err: err}
		}
		results[i] = enc
		return nil
	}

	if opts.ThreadingMode&ThreadingAsync != 0 {
		var g errgroup.Group
		g.SetLimit(runtime.GOMAXPROCS(0))
		for i := range work {
			i := i
			g.Go(func() error { return encodeOne(i) })
		}
		if err := g.Wait(); err != nil {
			return err
		}
	} else {
		for i := range work {
			if err := encodeOne(i); err != nil {
				return err
			}
		}
	}

	// Join is ordered by work index, so layer order never depends on
	// the threading mode.
	staged := &stagedLayers{}
	emptied := make([]string, 0)
	for _, enc := range results {
		if enc == nil {
			continue
		}
		if enc.count == 0 {
			emptied = append(emptied, enc.name)
			continue
		}
		staged.names = append(staged.names, enc.name)
		staged.encoded = append(staged.encoded, enc.encoded)
	}
	t.commit(staged)
	for _, name := range emptied {
		t.markPainted(name, 0)
	}
	return nil
}

// reencodeLayer converts one source layer into an encoded layer for
// the target tile.
func reencodeLayer(s *Tile, name string, tileEnv, clipEnv projection.Envelope, opts CompositeOptions) (*encodedLayer, error) {
	layer, err := s.decodeLayer(name)
	if err != nil {
		return nil, err
	}
	tf := s.gridTransform(layer.Extent)

	span := projection.TileSpan(s.z)
	offX := float64(opts.OffsetX) * span / float64(s.tileSize)
	offY := float64(opts.OffsetY) * span / float64(s.tileSize)

	feats := make([]mvt.SourceFeature, 0, len(layer.Features))
	for i := range layer.Features {
		f := &layer.Features[i]
		g, err := layer.MercatorGeometry(f, tf)
		if err != nil {
			return nil, fmt.Errorf("%w: layer %q: %v", ErrCorruptInput, name, err)
		}
		if g == nil && len(f.Raster) == 0 {
			continue
		}
		props, err := layer.Properties(f)
		if err != nil {
			return nil, fmt.Errorf("%w: layer %q: %v", ErrCorruptInput, name, err)
		}
		if g != nil && (opts.ScaleFactor != 1.0 || offX != 0 || offY != 0) {
			g = scaleAbout(g, tileEnv, opts.ScaleFactor, offX, offY)
		}
		feats = append(feats, mvt.SourceFeature{
			ID:         f.ID,
			HasID:      f.HasID,
			Geometry:   g,
			Properties: props,
			Raster:     f.Raster,
		})
	}

	encOpts := opts.encodeOptions()
	encOpts.Extent = layer.Extent
	encoded, count, err := mvt.EncodeLayer(name, feats, tileEnv, clipEnv, encOpts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGeometry, err)
	}
	return &encodedLayer{name: name, encoded: encoded, count: count}, nil
}

// scaleAbout scales geometry about the target envelope's center and
// applies the tile-unit offsets, both in mercator meters.
func scaleAbout(g orb.Geometry, env projection.Envelope, factor, offX, offY float64) orb.Geometry {
	cx := (env[0] + env[2]) / 2
	cy := (env[1] + env[3]) / 2
	return mvt.TransformGeometry(g, func(p orb.Point) orb.Point {
		return orb.Point{
			cx + (p[0]-cx)*factor + offX,
			cy + (p[1]-cy)*factor - offY,
		}
	})
}
