package mvt

import (
	"fmt"
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/clip"
	"github.com/paulmach/orb/simplify"

	"github.com/MeKo-Tech/vectortile/internal/geom"
	"github.com/MeKo-Tech/vectortile/internal/pbf"
	"github.com/MeKo-Tech/vectortile/internal/projection"
)

// FillType selects the rule used to classify polygon rings from their
// winding when the encoder re-derives ring roles.
type FillType int

const (
	FillEvenOdd FillType = iota
	FillNonZero
	FillPositive
	FillNegative
)

// ParseFillType maps an option name to a FillType.
func ParseFillType(name string) (FillType, error) {
	switch name {
	case "even_odd":
		return FillEvenOdd, nil
	case "non_zero":
		return FillNonZero, nil
	case "", "positive":
		return FillPositive, nil
	case "negative":
		return FillNegative, nil
	default:
		return FillPositive, fmt.Errorf("unknown fill type %q", name)
	}
}

// EncodeOptions steer the geometry pipeline.
type EncodeOptions struct {
	// Extent is the layer grid resolution.
	Extent uint32
	// Version is stamped into the layer; only 2 is written.
	Version uint32
	// SimplifyDistance is the Douglas-Peucker tolerance in grid
	// units; 0 disables simplification.
	SimplifyDistance float64
	// AreaThreshold drops rings whose grid-space area falls below it.
	AreaThreshold float64
	// StrictlySimple drops rings that self-intersect after
	// quantization.
	StrictlySimple bool
	// MultiPolygonUnion merges multi-polygon members that contain one
	// another before encoding.
	MultiPolygonUnion bool
	// FillType picks the ring classification rule.
	FillType FillType
	// ProcessAllRings re-derives exterior/hole roles from signed area
	// instead of trusting source ring order.
	ProcessAllRings bool
}

// DefaultEncodeOptions mirrors the defaults of the reference encoder.
func DefaultEncodeOptions() EncodeOptions {
	return EncodeOptions{
		Extent:         DefaultExtent,
		Version:        DefaultVersion,
		AreaThreshold:  0.1,
		StrictlySimple: true,
		FillType:       FillPositive,
	}
}

// SourceFeature is one input to the layer encoder. Geometry is in
// mercator meters; Raster carries an opaque image payload.
type SourceFeature struct {
	ID         uint64
	HasID      bool
	Geometry   orb.Geometry
	Properties map[string]interface{}
	Raster     []byte
}

// EncodeLayer runs feats through the pipeline and emits a complete
// layer message (key, length prefix and body) ready to append to a
// tile buffer. count is the number of features that survived; when it
// is zero no bytes are returned.
func EncodeLayer(name string, feats []SourceFeature, tileEnv, bufferedEnv projection.Envelope, opts EncodeOptions) (encoded []byte, count int, err error) {
	if opts.Extent == 0 {
		opts.Extent = DefaultExtent
	}
	if opts.Version == 0 {
		opts.Version = DefaultVersion
	}
	tf := NewGridTransform(tileEnv, opts.Extent)
	clipBound := bufferedEnv.Bound()

	enc := newLayerEncoder()
	for _, sf := range feats {
		f, ok, err := encodeFeature(sf, tf, clipBound, opts, enc)
		if err != nil {
			return nil, 0, fmt.Errorf("layer %q: %w", name, err)
		}
		if ok {
			enc.features = append(enc.features, f)
		}
	}
	if len(enc.features) == 0 {
		return nil, 0, nil
	}

	body := pbf.NewWriter(1024)
	body.Uint32(TagLayerVersion, opts.Version)
	body.String(TagLayerName, name)
	for _, f := range enc.features {
		fw := pbf.NewWriter(64 + 2*len(f.Geometry))
		if f.HasID {
			fw.Varint(TagFeatureID, f.ID)
		}
		if len(f.Tags) > 0 {
			fw.PackedUint32(TagFeatureTags, f.Tags)
		}
		fw.Uint32(TagFeatureType, uint32(f.Type))
		if len(f.Geometry) > 0 {
			fw.PackedUint32(TagFeatureGeometry, f.Geometry)
		}
		if len(f.Raster) > 0 {
			fw.BytesField(TagFeatureRaster, f.Raster)
		}
		body.Message(TagLayerFeatures, fw.Bytes())
	}
	for _, k := range enc.keys {
		body.String(TagLayerKeys, k)
	}
	for _, v := range enc.values {
		vw := pbf.NewWriter(16)
		v.encode(vw)
		body.Message(TagLayerValues, vw.Bytes())
	}
	body.Uint32(TagLayerExtent, opts.Extent)

	out := pbf.NewWriter(body.Len() + 8)
	out.Message(TagTileLayer, body.Bytes())
	return out.Bytes(), len(enc.features), nil
}

// layerEncoder interns keys and values across a layer's features.
type layerEncoder struct {
	keys     []string
	keyIdx   map[string]uint32
	values   []Value
	valueIdx map[Value]uint32
	features []Feature
}

func newLayerEncoder() *layerEncoder {
	return &layerEncoder{
		keyIdx:   make(map[string]uint32),
		valueIdx: make(map[Value]uint32),
	}
}

func (e *layerEncoder) internKey(k string) uint32 {
	if i, ok := e.keyIdx[k]; ok {
		return i
	}
	i := uint32(len(e.keys))
	e.keys = append(e.keys, k)
	e.keyIdx[k] = i
	return i
}

func (e *layerEncoder) internValue(v Value) uint32 {
	if i, ok := e.valueIdx[v]; ok {
		return i
	}
	i := uint32(len(e.values))
	e.values = append(e.values, v)
	e.valueIdx[v] = i
	return i
}

func (e *layerEncoder) tagsFor(props map[string]interface{}) []uint32 {
	if len(props) == 0 {
		return nil
	}
	names := make([]string, 0, len(props))
	for k := range props {
		names = append(names, k)
	}
	sort.Strings(names)
	tags := make([]uint32, 0, 2*len(names))
	for _, k := range names {
		tags = append(tags, e.internKey(k), e.internValue(FromNative(props[k])))
	}
	return tags
}

func encodeFeature(sf SourceFeature, tf GridTransform, clipBound orb.Bound, opts EncodeOptions, enc *layerEncoder) (Feature, bool, error) {
	f := Feature{
		ID:     sf.ID,
		HasID:  sf.HasID,
		Raster: sf.Raster,
	}

	if sf.Geometry != nil {
		clipped := clip.Geometry(clipBound, clone(sf.Geometry))
		if clipped != nil {
			grid := TransformGeometry(clipped, func(p orb.Point) orb.Point {
				gx, gy := tf.FromMercator(p[0], p[1])
				return orb.Point{gx, gy}
			})
			if opts.SimplifyDistance > 0 {
				grid = simplify.DouglasPeucker(opts.SimplifyDistance).Simplify(grid)
			}
			if grid != nil {
				gt, cmds, err := encodeGridGeometry(grid, opts)
				if err != nil {
					return f, false, err
				}
				f.Type = gt
				f.Geometry = cmds
			}
		}
	}

	if len(f.Geometry) == 0 && len(f.Raster) == 0 {
		return f, false, nil
	}
	f.Tags = enc.tagsFor(sf.Properties)
	return f, true, nil
}

// clone deep-copies a geometry so the pipeline never mutates caller
// data (orb's clip and simplify work in place).
func clone(g orb.Geometry) orb.Geometry {
	return TransformGeometry(g, func(p orb.Point) orb.Point { return p })
}

// encodeGridGeometry quantizes grid-space geometry and emits its
// command stream.
func encodeGridGeometry(g orb.Geometry, opts EncodeOptions) (GeomType, []uint32, error) {
	cs := &commandStream{}
	switch t := g.(type) {
	case orb.Point:
		cs.moveTo([]gridPoint{quantize(t)})
		return GeomPoint, cs.cmds, nil
	case orb.MultiPoint:
		pts := dedupePoints(quantizeAll(t))
		if len(pts) == 0 {
			return GeomUnknown, nil, nil
		}
		cs.moveTo(pts)
		return GeomPoint, cs.cmds, nil
	case orb.LineString:
		cs.lineString(quantizeAll(t))
		if len(cs.cmds) == 0 {
			return GeomUnknown, nil, nil
		}
		return GeomLineString, cs.cmds, nil
	case orb.MultiLineString:
		for _, ls := range t {
			cs.lineString(quantizeAll(ls))
		}
		if len(cs.cmds) == 0 {
			return GeomUnknown, nil, nil
		}
		return GeomLineString, cs.cmds, nil
	case orb.Ring:
		return encodeGridGeometry(orb.Polygon{t}, opts)
	case orb.Polygon:
		return encodePolygons(orb.MultiPolygon{t}, opts)
	case orb.MultiPolygon:
		return encodePolygons(t, opts)
	case orb.Collection:
		return GeomUnknown, nil, fmt.Errorf("geometry collections must be split before encoding")
	case orb.Bound:
		return encodeGridGeometry(t.ToPolygon(), opts)
	default:
		return GeomUnknown, nil, nil
	}
}

// ring role constants for classification.
type ringRole int

const (
	roleExterior ringRole = iota
	roleHole
	roleDropped
)

type classifiedRing struct {
	pts  []gridPoint
	area float64
	role ringRole
}

func encodePolygons(mp orb.MultiPolygon, opts EncodeOptions) (GeomType, []uint32, error) {
	if opts.MultiPolygonUnion {
		mp = unionContained(mp)
	}

	var rings []classifiedRing
	for _, poly := range mp {
		for ri, ring := range poly {
			pts := closeRing(dedupePoints(quantizeAll(orb.LineString(ring))))
			if len(pts) < 4 {
				continue
			}
			area := gridArea(pts)
			cr := classifiedRing{pts: pts, area: area}
			if math.Abs(area) < opts.AreaThreshold {
				cr.role = roleDropped
			} else if opts.ProcessAllRings {
				cr.role = classifyByFill(area, opts.FillType)
			} else if ri == 0 {
				cr.role = roleExterior
			} else {
				cr.role = roleHole
			}
			rings = append(rings, cr)
		}
	}

	cs := &commandStream{}
	seenExterior := false
	for _, cr := range rings {
		switch cr.role {
		case roleDropped:
			continue
		case roleExterior:
			cr.pts = windRing(cr.pts, cr.area, true)
			seenExterior = true
		case roleHole:
			if !seenExterior {
				// A hole with no shell before it cannot be expressed.
				continue
			}
			cr.pts = windRing(cr.pts, cr.area, false)
		}
		if opts.StrictlySimple && !ringIsSimple(cr.pts) {
			continue
		}
		cs.ring(cr.pts)
	}
	if len(cs.cmds) == 0 {
		return GeomUnknown, nil, nil
	}
	return GeomPolygon, cs.cmds, nil
}

// classifyByFill derives a ring's role from its signed area under the
// configured fill rule. Grid y grows downward, so positive area means
// screen-clockwise.
func classifyByFill(area float64, fill FillType) ringRole {
	switch fill {
	case FillNegative:
		if area < 0 {
			return roleExterior
		}
		return roleHole
	case FillEvenOdd, FillNonZero, FillPositive:
		if area > 0 {
			return roleExterior
		}
		return roleHole
	default:
		return roleExterior
	}
}

// unionContained merges multi-polygon members by discarding members
// fully contained in another member; overlap beyond containment is
// left to the fill rule at render time.
func unionContained(mp orb.MultiPolygon) orb.MultiPolygon {
	if len(mp) < 2 {
		return mp
	}
	out := make(orb.MultiPolygon, 0, len(mp))
	for i, cand := range mp {
		contained := false
		for j, other := range mp {
			if i == j {
				continue
			}
			if polygonCovers(other, cand) {
				contained = true
				break
			}
		}
		if !contained {
			out = append(out, cand)
		}
	}
	if len(out) == 0 {
		return mp[:1]
	}
	return out
}

// polygonCovers reports whether every vertex of inner's shell lies
// inside outer's shell.
func polygonCovers(outer, inner orb.Polygon) bool {
	if len(outer) == 0 || len(inner) == 0 {
		return false
	}
	if len(outer[0]) == len(inner[0]) && outer[0].Equal(inner[0]) {
		return false
	}
	for _, pt := range inner[0] {
		if !geom.RingContains(outer[0], pt[0], pt[1]) {
			return false
		}
	}
	return true
}

type gridPoint struct {
	x, y int64
}

func quantize(p orb.Point) gridPoint {
	return gridPoint{int64(math.Round(p[0])), int64(math.Round(p[1]))}
}

func quantizeAll(pts []orb.Point) []gridPoint {
	out := make([]gridPoint, len(pts))
	for i, p := range pts {
		out[i] = quantize(p)
	}
	return out
}

func dedupePoints(pts []gridPoint) []gridPoint {
	if len(pts) == 0 {
		return pts
	}
	out := pts[:1]
	for _, p := range pts[1:] {
		if p != out[len(out)-1] {
			out = append(out, p)
		}
	}
	return out
}

func closeRing(pts []gridPoint) []gridPoint {
	if len(pts) == 0 {
		return pts
	}
	if pts[0] != pts[len(pts)-1] {
		pts = append(pts, pts[0])
	}
	return pts
}

// gridArea is the signed shoelace area of a closed grid ring,
// positive for screen-clockwise.
func gridArea(pts []gridPoint) float64 {
	var sum int64
	for i := 0; i+1 < len(pts); i++ {
		sum += pts[i].x*pts[i+1].y - pts[i+1].x*pts[i].y
	}
	return float64(sum) / 2
}

// windRing forces the ring's orientation: exterior rings positive
// area, holes negative.
func windRing(pts []gridPoint, area float64, exterior bool) []gridPoint {
	if (exterior && area < 0) || (!exterior && area > 0) {
		for i, j := 0, len(pts)-1; i < j; i, j = i+1, j-1 {
			pts[i], pts[j] = pts[j], pts[i]
		}
	}
	return pts
}

func ringIsSimple(pts []gridPoint) bool {
	ring := make(orb.LineString, len(pts))
	for i, p := range pts {
		ring[i] = orb.Point{float64(p.x), float64(p.y)}
	}
	return geom.IsSimple(orb.Ring(ring)).Simple
}

// commandStream assembles packed command integers, tracking the pen.
type commandStream struct {
	cmds []uint32
	penX int64
	penY int64
}

func (cs *commandStream) param(x, y int64) {
	cs.cmds = append(cs.cmds,
		pbf.ZigzagInt32(int32(x-cs.penX)),
		pbf.ZigzagInt32(int32(y-cs.penY)))
	cs.penX, cs.penY = x, y
}

func (cs *commandStream) moveTo(pts []gridPoint) {
	if len(pts) == 0 {
		return
	}
	cs.cmds = append(cs.cmds, CommandInteger(CmdMoveTo, uint32(len(pts))))
	for _, p := range pts {
		cs.param(p.x, p.y)
	}
}

func (cs *commandStream) lineString(pts []gridPoint) {
	pts = dedupePoints(pts)
	if len(pts) < 2 {
		return
	}
	cs.moveTo(pts[:1])
	cs.cmds = append(cs.cmds, CommandInteger(CmdLineTo, uint32(len(pts)-1)))
	for _, p := range pts[1:] {
		cs.param(p.x, p.y)
	}
}

// ring emits a closed ring: the closing point is expressed by
// ClosePath, not repeated as a LineTo.
func (cs *commandStream) ring(pts []gridPoint) {
	if len(pts) < 4 {
		return
	}
	open := pts[:len(pts)-1]
	cs.moveTo(open[:1])
	cs.cmds = append(cs.cmds, CommandInteger(CmdLineTo, uint32(len(open)-1)))
	for _, p := range open[1:] {
		cs.param(p.x, p.y)
	}
	cs.cmds = append(cs.cmds, CommandInteger(CmdClosePath, 1))
}
