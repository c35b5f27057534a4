package mvt

import (
	"fmt"

	"github.com/paulmach/orb"

	"github.com/MeKo-Tech/vectortile/internal/pbf"
)

// UpgradeLayer rewrites a decoded v1 layer so it satisfies the v2
// invariants: rings closed and re-wound from signed area, degenerate
// rings dropped, version stamped to 2. The returned bytes are a
// complete layer field ready to append to a tile buffer. Layers
// already at version 2 are re-emitted unchanged apart from the
// normalization, which is idempotent for conforming input.
func UpgradeLayer(l *Layer) ([]byte, error) {
	body := pbf.NewWriter(1024)
	body.Uint32(TagLayerVersion, DefaultVersion)
	body.String(TagLayerName, l.Name)

	for i := range l.Features {
		f := &l.Features[i]
		cmds := f.Geometry
		if f.Type == GeomPolygon && len(cmds) > 0 {
			g, err := DecodeGeometry(f.Type, cmds)
			if err != nil {
				return nil, fmt.Errorf("layer %q feature %d: %w", l.Name, i, err)
			}
			cmds = normalizePolygonCommands(g)
		}
		if len(cmds) == 0 && len(f.Raster) == 0 {
			continue
		}
		fw := pbf.NewWriter(64 + 2*len(cmds))
		if f.HasID {
			fw.Varint(TagFeatureID, f.ID)
		}
		if len(f.Tags) > 0 {
			fw.PackedUint32(TagFeatureTags, f.Tags)
		}
		fw.Uint32(TagFeatureType, uint32(f.Type))
		if len(cmds) > 0 {
			fw.PackedUint32(TagFeatureGeometry, cmds)
		}
		if len(f.Raster) > 0 {
			fw.BytesField(TagFeatureRaster, f.Raster)
		}
		body.Message(TagLayerFeatures, fw.Bytes())
	}

	for _, k := range l.Keys {
		body.String(TagLayerKeys, k)
	}
	for _, v := range l.Values {
		vw := pbf.NewWriter(16)
		v.encode(vw)
		body.Message(TagLayerValues, vw.Bytes())
	}
	body.Uint32(TagLayerExtent, l.Extent)

	out := pbf.NewWriter(body.Len() + 8)
	out.Message(TagTileLayer, body.Bytes())
	return out.Bytes(), nil
}

// normalizePolygonCommands rebuilds a polygon command stream from
// decoded grid geometry, re-deriving ring roles from signed area.
func normalizePolygonCommands(g orb.Geometry) []uint32 {
	var mp orb.MultiPolygon
	switch t := g.(type) {
	case orb.Polygon:
		mp = orb.MultiPolygon{t}
	case orb.MultiPolygon:
		mp = t
	default:
		return nil
	}

	cs := &commandStream{}
	for _, poly := range mp {
		wroteExterior := false
		for ri, ring := range poly {
			pts := closeRing(dedupePoints(quantizeAll(orb.LineString(ring))))
			if len(pts) < 4 {
				continue
			}
			area := gridArea(pts)
			if area == 0 {
				continue
			}
			exterior := ri == 0
			if !exterior && !wroteExterior {
				continue
			}
			pts = windRing(pts, area, exterior)
			if exterior {
				wroteExterior = true
			}
			cs.ring(pts)
		}
	}
	return cs.cmds
}
