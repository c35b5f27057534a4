package mvt

import (
	"fmt"

	"github.com/paulmach/orb"

	"github.com/MeKo-Tech/vectortile/internal/pbf"
)

// DecodeLayer parses one encoded layer message body. Unknown fields
// are skipped; structural damage surfaces as an error.
func DecodeLayer(body []byte) (*Layer, error) {
	l := &Layer{Version: 1, Extent: DefaultExtent}
	r := pbf.NewReader(body)
	for {
		ok, err := r.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		switch r.Tag() {
		case TagLayerName:
			s, err := r.String()
			if err != nil {
				return nil, err
			}
			l.Name = s
		case TagLayerFeatures:
			fb, err := r.Bytes()
			if err != nil {
				return nil, err
			}
			f, err := decodeFeature(fb)
			if err != nil {
				return nil, fmt.Errorf("layer %q feature %d: %w", l.Name, len(l.Features), err)
			}
			l.Features = append(l.Features, f)
		case TagLayerKeys:
			s, err := r.String()
			if err != nil {
				return nil, err
			}
			l.Keys = append(l.Keys, s)
		case TagLayerValues:
			vb, err := r.Bytes()
			if err != nil {
				return nil, err
			}
			v, err := decodeValue(vb)
			if err != nil {
				return nil, err
			}
			l.Values = append(l.Values, v)
		case TagLayerExtent:
			e, err := r.Uint32()
			if err != nil {
				return nil, err
			}
			l.Extent = e
		case TagLayerVersion:
			v, err := r.Uint32()
			if err != nil {
				return nil, err
			}
			l.Version = v
		default:
			if err := r.Skip(); err != nil {
				return nil, err
			}
		}
	}
	if l.Extent == 0 {
		return nil, fmt.Errorf("layer %q declares extent 0", l.Name)
	}
	return l, nil
}

func decodeFeature(body []byte) (Feature, error) {
	var f Feature
	r := pbf.NewReader(body)
	for {
		ok, err := r.Next()
		if err != nil {
			return f, err
		}
		if !ok {
			return f, nil
		}
		switch r.Tag() {
		case TagFeatureID:
			id, err := r.Varint()
			if err != nil {
				return f, err
			}
			f.ID = id
			f.HasID = true
		case TagFeatureTags:
			tags, err := r.PackedUint32()
			if err != nil {
				return f, err
			}
			f.Tags = tags
		case TagFeatureType:
			t, err := r.Uint32()
			if err != nil {
				return f, err
			}
			if t > uint32(GeomPolygon) {
				return f, fmt.Errorf("unknown geometry type %d", t)
			}
			f.Type = GeomType(t)
		case TagFeatureGeometry:
			g, err := r.PackedUint32()
			if err != nil {
				return f, err
			}
			f.Geometry = g
		case TagFeatureRaster:
			b, err := r.Bytes()
			if err != nil {
				return f, err
			}
			raster := make([]byte, len(b))
			copy(raster, b)
			f.Raster = raster
		default:
			if err := r.Skip(); err != nil {
				return f, err
			}
		}
	}
}

// gridRings walks a command stream into grid-space paths. Every
// MoveTo(1) begins a new path; ClosePath appends the path's first
// point, closing a ring.
func gridRings(cmds []uint32, closePaths bool) ([][]orb.Point, error) {
	var paths [][]orb.Point
	var cur []orb.Point
	var penX, penY int64

	i := 0
	for i < len(cmds) {
		id := CommandID(cmds[i])
		count := CommandCount(cmds[i])
		i++
		switch id {
		case CmdMoveTo, CmdLineTo:
			if uint64(i)+2*uint64(count) > uint64(len(cmds)) {
				return nil, fmt.Errorf("command stream truncated: %d parameter pairs missing", count)
			}
			for n := uint32(0); n < count; n++ {
				penX += int64(pbf.UnzigzagInt32(cmds[i]))
				penY += int64(pbf.UnzigzagInt32(cmds[i+1]))
				i += 2
				if id == CmdMoveTo && n == 0 {
					if len(cur) > 0 {
						paths = append(paths, cur)
					}
					cur = nil
				}
				cur = append(cur, orb.Point{float64(penX), float64(penY)})
			}
		case CmdClosePath:
			if count != 1 {
				return nil, fmt.Errorf("close path with count %d", count)
			}
			if len(cur) > 0 {
				if closePaths {
					cur = append(cur, cur[0])
				}
				paths = append(paths, cur)
				cur = nil
			}
		default:
			return nil, fmt.Errorf("unknown geometry command %d", id)
		}
	}
	if len(cur) > 0 {
		paths = append(paths, cur)
	}
	return paths, nil
}

// DecodeGeometry converts a feature's command stream to an orb
// geometry in grid coordinates. Polygons group rings by winding: a
// ring with positive signed area (clockwise on screen) begins a new
// polygon, negative-area rings become holes of the preceding one.
func DecodeGeometry(gt GeomType, cmds []uint32) (orb.Geometry, error) {
	switch gt {
	case GeomPoint:
		paths, err := gridRings(cmds, false)
		if err != nil {
			return nil, err
		}
		var pts orb.MultiPoint
		for _, p := range paths {
			pts = append(pts, p...)
		}
		if len(pts) == 0 {
			return nil, nil
		}
		if len(pts) == 1 {
			return pts[0], nil
		}
		return pts, nil
	case GeomLineString:
		paths, err := gridRings(cmds, false)
		if err != nil {
			return nil, err
		}
		var lines orb.MultiLineString
		for _, p := range paths {
			if len(p) >= 2 {
				lines = append(lines, orb.LineString(p))
			}
		}
		if len(lines) == 0 {
			return nil, nil
		}
		if len(lines) == 1 {
			return lines[0], nil
		}
		return lines, nil
	case GeomPolygon:
		paths, err := gridRings(cmds, true)
		if err != nil {
			return nil, err
		}
		var polys orb.MultiPolygon
		for _, p := range paths {
			if len(p) < 4 {
				continue
			}
			ring := orb.Ring(p)
			if signedArea(ring) > 0 || len(polys) == 0 {
				polys = append(polys, orb.Polygon{ring})
			} else {
				polys[len(polys)-1] = append(polys[len(polys)-1], ring)
			}
		}
		if len(polys) == 0 {
			return nil, nil
		}
		if len(polys) == 1 {
			return polys[0], nil
		}
		return polys, nil
	default:
		return nil, nil
	}
}

// TransformGeometry maps every coordinate through fn, preserving the
// geometry's shape. Collections recurse.
func TransformGeometry(g orb.Geometry, fn func(orb.Point) orb.Point) orb.Geometry {
	switch t := g.(type) {
	case nil:
		return nil
	case orb.Point:
		return fn(t)
	case orb.MultiPoint:
		out := make(orb.MultiPoint, len(t))
		for i, p := range t {
			out[i] = fn(p)
		}
		return out
	case orb.LineString:
		out := make(orb.LineString, len(t))
		for i, p := range t {
			out[i] = fn(p)
		}
		return out
	case orb.MultiLineString:
		out := make(orb.MultiLineString, len(t))
		for i, ls := range t {
			out[i] = TransformGeometry(ls, fn).(orb.LineString)
		}
		return out
	case orb.Ring:
		out := make(orb.Ring, len(t))
		for i, p := range t {
			out[i] = fn(p)
		}
		return out
	case orb.Polygon:
		out := make(orb.Polygon, len(t))
		for i, r := range t {
			out[i] = TransformGeometry(r, fn).(orb.Ring)
		}
		return out
	case orb.MultiPolygon:
		out := make(orb.MultiPolygon, len(t))
		for i, p := range t {
			out[i] = TransformGeometry(p, fn).(orb.Polygon)
		}
		return out
	case orb.Collection:
		out := make(orb.Collection, len(t))
		for i, m := range t {
			out[i] = TransformGeometry(m, fn)
		}
		return out
	case orb.Bound:
		return TransformGeometry(t.ToPolygon(), fn)
	default:
		return g
	}
}

// MercatorGeometry decodes a feature's geometry and reprojects it from
// grid space to mercator meters.
func (l *Layer) MercatorGeometry(f *Feature, tf GridTransform) (orb.Geometry, error) {
	g, err := DecodeGeometry(f.Type, f.Geometry)
	if err != nil || g == nil {
		return nil, err
	}
	return TransformGeometry(g, func(p orb.Point) orb.Point {
		x, y := tf.ToMercator(p[0], p[1])
		return orb.Point{x, y}
	}), nil
}

// signedArea is the shoelace sum over a grid-space ring. With grid y
// growing downward, screen-clockwise exterior rings come out positive.
func signedArea(ring orb.Ring) float64 {
	var sum float64
	n := len(ring)
	if n < 3 {
		return 0
	}
	for i := 0; i < n-1; i++ {
		sum += ring[i][0]*ring[i+1][1] - ring[i+1][0]*ring[i][1]
	}
	// Close implicitly if the ring is open.
	if ring[0] != ring[n-1] {
		sum += ring[n-1][0]*ring[0][1] - ring[0][0]*ring[n-1][1]
	}
	return sum / 2
}
