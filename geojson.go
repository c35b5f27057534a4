package vectortile

import (
	"fmt"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/MeKo-Tech/vectortile/internal/mvt"
	"github.com/MeKo-Tech/vectortile/internal/projection"
)

// Selectors understood by ToGeoJSON beyond layer names and indexes.
const (
	// SelectorAll merges every layer's features into one collection.
	SelectorAll = "__all__"
	// SelectorArray returns one named collection per layer.
	SelectorArray = "__array__"
)

// AddGeoJSON parses a GeoJSON feature collection (or single feature,
// or bare geometry) in WGS84 and encodes it as a new layer. The layer
// is recorded as painted even when nothing survives clipping.
func (t *Tile) AddGeoJSON(data []byte, layerName string, opts EncodeOptions) error {
	if layerName == "" {
		return invalidf("layer name must not be empty")
	}
	if t.HasLayer(layerName) {
		return invalidf("layer %q already exists", layerName)
	}

	feats, err := parseGeoJSON(data)
	if err != nil {
		return corruptf("geojson: %v", err)
	}

	source := make([]mvt.SourceFeature, 0, len(feats))
	for _, f := range feats {
		if f.Geometry == nil {
			continue
		}
		sf := mvt.SourceFeature{
			Geometry:   mvt.TransformGeometry(f.Geometry, projection.ForwardPoint),
			Properties: f.Properties,
		}
		if id, ok := featureID(f); ok {
			sf.ID = id
			sf.HasID = true
		}
		source = append(source, sf)
	}

	tileEnv := projection.TileEnvelope(t.z, t.x, t.y)
	buffered := projection.BufferedEnvelope(t.z, t.x, t.y, t.tileSize, t.bufferSize)
	encoded, count, err := mvt.EncodeLayer(layerName, splitCollections(source), tileEnv, buffered, opts.codec())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGeometry, err)
	}

	t.markPainted(layerName, count)
	if count > 0 {
		t.appendLayer(layerName, encoded)
	}
	return nil
}

// splitCollections flattens geometry collections into one source
// feature per member, since MVT features carry a single geometry
// type.
func splitCollections(feats []mvt.SourceFeature) []mvt.SourceFeature {
	out := make([]mvt.SourceFeature, 0, len(feats))
	for _, f := range feats {
		coll, ok := f.Geometry.(orb.Collection)
		if !ok {
			out = append(out, f)
			continue
		}
		for _, member := range coll {
			split := f
			split.Geometry = member
			out = append(out, split)
		}
	}
	return out
}

func parseGeoJSON(data []byte) ([]*geojson.Feature, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := jsonUnmarshal(data, &probe); err != nil {
		return nil, err
	}
	switch probe.Type {
	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			return nil, err
		}
		return fc.Features, nil
	case "Feature":
		f, err := geojson.UnmarshalFeature(data)
		if err != nil {
			return nil, err
		}
		return []*geojson.Feature{f}, nil
	default:
		g, err := geojson.UnmarshalGeometry(data)
		if err != nil {
			return nil, err
		}
		return []*geojson.Feature{geojson.NewFeature(g.Geometry())}, nil
	}
}

func featureID(f *geojson.Feature) (uint64, bool) {
	switch id := f.ID.(type) {
	case float64:
		if id >= 0 {
			return uint64(id), true
		}
	case int:
		if id >= 0 {
			return uint64(id), true
		}
	case int64:
		if id >= 0 {
			return uint64(id), true
		}
	case uint64:
		return id, true
	case string:
		if n, err := strconv.ParseUint(id, 10, 64); err == nil {
			return n, true
		}
	}
	return 0, false
}

// ToGeoJSON renders layers back to WGS84 GeoJSON. The selector is a
// layer name, a decimal layer index, SelectorAll, or SelectorArray.
func (t *Tile) ToGeoJSON(selector string) (string, error) {
	switch selector {
	case SelectorAll:
		fc := geojson.NewFeatureCollection()
		for _, name := range t.layers {
			if err := t.collectLayerGeoJSON(name, fc); err != nil {
				return "", err
			}
		}
		return marshalJSON(fc)
	case SelectorArray:
		type namedCollection struct {
			Name     string                     `json:"name"`
			Features *geojson.FeatureCollection `json:"features"`
		}
		var out []namedCollection
		for _, name := range t.layers {
			fc := geojson.NewFeatureCollection()
			if err := t.collectLayerGeoJSON(name, fc); err != nil {
				return "", err
			}
			out = append(out, namedCollection{Name: name, Features: fc})
		}
		return marshalJSON(out)
	default:
		name := selector
		if idx, err := strconv.Atoi(selector); err == nil {
			if idx < 0 || idx >= len(t.layers) {
				return "", invalidf("layer index %d out of range (%d layers)", idx, len(t.layers))
			}
			name = t.layers[idx]
		} else if !t.HasLayer(selector) {
			return "", invalidf("layer %q not found", selector)
		}
		fc := geojson.NewFeatureCollection()
		if err := t.collectLayerGeoJSON(name, fc); err != nil {
			return "", err
		}
		return marshalJSON(fc)
	}
}

func (t *Tile) collectLayerGeoJSON(name string, fc *geojson.FeatureCollection) error {
	layer, err := t.decodeLayer(name)
	if err != nil {
		return err
	}
	tf := t.gridTransform(layer.Extent)
	for i := range layer.Features {
		f := &layer.Features[i]
		merc, err := layer.MercatorGeometry(f, tf)
		if err != nil {
			return corruptf("layer %q: %v", name, err)
		}
		if merc == nil {
			continue
		}
		wgs := mvt.TransformGeometry(merc, projection.InversePoint)
		gf := geojson.NewFeature(wgs)
		if f.HasID {
			gf.ID = f.ID
		}
		props, err := layer.Properties(f)
		if err != nil {
			return corruptf("layer %q: %v", name, err)
		}
		gf.Properties = props
		if gf.Properties == nil {
			gf.Properties = geojson.Properties{}
		}
		gf.Properties["layer"] = name
		fc.Append(gf)
	}
	return nil
}

func marshalJSON(v interface{}) (string, error) {
	data, err := jsonMarshal(v)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrIO, err)
	}
	return string(data), nil
}
