package mvt

import (
	"fmt"

	"github.com/MeKo-Tech/vectortile/internal/pbf"
	"github.com/MeKo-Tech/vectortile/internal/projection"
)

// Layer is a decoded MVT layer.
type Layer struct {
	Name     string
	Version  uint32
	Extent   uint32
	Keys     []string
	Values   []Value
	Features []Feature
}

// Feature is a decoded MVT feature. Geometry holds the raw command
// stream in layer grid coordinates; Tags alternate key and value
// dictionary indexes.
type Feature struct {
	ID       uint64
	HasID    bool
	Type     GeomType
	Tags     []uint32
	Geometry []uint32
	Raster   []byte
}

// Properties materializes a feature's attributes against the layer
// dictionaries. Indexes out of range are an encoding error.
func (l *Layer) Properties(f *Feature) (map[string]interface{}, error) {
	if len(f.Tags)%2 != 0 {
		return nil, fmt.Errorf("feature tag stream has odd length %d", len(f.Tags))
	}
	props := make(map[string]interface{}, len(f.Tags)/2)
	for i := 0; i+1 < len(f.Tags); i += 2 {
		ki, vi := f.Tags[i], f.Tags[i+1]
		if int(ki) >= len(l.Keys) {
			return nil, fmt.Errorf("key index %d out of range (%d keys)", ki, len(l.Keys))
		}
		if int(vi) >= len(l.Values) {
			return nil, fmt.Errorf("value index %d out of range (%d values)", vi, len(l.Values))
		}
		props[l.Keys[ki]] = l.Values[vi].Native()
	}
	return props, nil
}

// GridTransform maps between a layer's integer grid and mercator
// meters. Grid y grows downward, mercator y upward.
type GridTransform struct {
	OriginX float64 // mercator x of grid (0, 0)
	OriginY float64 // mercator y of grid (0, 0), the tile's top edge
	Scale   float64 // meters per grid unit
}

// NewGridTransform binds a layer extent to a tile's mercator envelope.
func NewGridTransform(env projection.Envelope, extent uint32) GridTransform {
	return GridTransform{
		OriginX: env[0],
		OriginY: env[3],
		Scale:   env.Width() / float64(extent),
	}
}

// ToMercator converts grid coordinates to mercator meters.
func (t GridTransform) ToMercator(gx, gy float64) (float64, float64) {
	return t.OriginX + gx*t.Scale, t.OriginY - gy*t.Scale
}

// FromMercator converts mercator meters to fractional grid
// coordinates.
func (t GridTransform) FromMercator(x, y float64) (float64, float64) {
	return (x - t.OriginX) / t.Scale, (t.OriginY - y) / t.Scale
}

// LayerRange locates one encoded layer inside a tile buffer. Offset
// and Length cover the complete field (key, length prefix and body) so
// the range can be spliced into another tile verbatim.
type LayerRange struct {
	Name    string
	Version uint32
	Offset  int
	Length  int
}

// ScanLayers indexes the layer messages of an uncompressed tile buffer
// without decoding features. Unknown top-level tags are skipped and
// counted.
func ScanLayers(buf []byte) (ranges []LayerRange, unknownTags int, err error) {
	r := pbf.NewReader(buf)
	for {
		start := r.Pos()
		ok, err := r.Next()
		if err != nil {
			return nil, unknownTags, err
		}
		if !ok {
			return ranges, unknownTags, nil
		}
		if r.Tag() != TagTileLayer || r.WireType() != pbf.WireBytes {
			unknownTags++
			if err := r.Skip(); err != nil {
				return nil, unknownTags, err
			}
			continue
		}
		body, err := r.Bytes()
		if err != nil {
			return nil, unknownTags, err
		}
		name, version, err := layerNameAndVersion(body)
		if err != nil {
			return nil, unknownTags, err
		}
		ranges = append(ranges, LayerRange{
			Name:    name,
			Version: version,
			Offset:  start,
			Length:  r.Pos() - start,
		})
	}
}

// DecodeLayerRange decodes the layer a ScanLayers range points at.
func DecodeLayerRange(buf []byte, lr LayerRange) (*Layer, error) {
	if lr.Offset < 0 || lr.Offset+lr.Length > len(buf) {
		return nil, fmt.Errorf("layer range [%d, %d) outside buffer of %d bytes", lr.Offset, lr.Offset+lr.Length, len(buf))
	}
	r := pbf.NewReader(buf[lr.Offset : lr.Offset+lr.Length])
	ok, err := r.Next()
	if err != nil {
		return nil, err
	}
	if !ok || r.Tag() != TagTileLayer {
		return nil, fmt.Errorf("layer range does not start with a layer field")
	}
	body, err := r.Bytes()
	if err != nil {
		return nil, err
	}
	return DecodeLayer(body)
}

// layerNameAndVersion reads just the name and version fields of a
// layer body.
func layerNameAndVersion(body []byte) (string, uint32, error) {
	r := pbf.NewReader(body)
	name := ""
	version := uint32(1)
	for {
		ok, err := r.Next()
		if err != nil {
			return name, version, err
		}
		if !ok {
			return name, version, nil
		}
		switch r.Tag() {
		case TagLayerName:
			s, err := r.String()
			if err != nil {
				return name, version, err
			}
			name = s
		case TagLayerVersion:
			v, err := r.Uint32()
			if err != nil {
				return name, version, err
			}
			version = v
		default:
			if err := r.Skip(); err != nil {
				return name, version, err
			}
		}
	}
}
