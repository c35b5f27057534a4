package vectortile

import (
	"encoding/json"

	"github.com/paulmach/orb/geojson"

	"github.com/MeKo-Tech/vectortile/internal/mvt"
)

func jsonMarshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func jsonUnmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

// FeatureJSON is the introspection view of one feature.
type FeatureJSON struct {
	ID          *uint64                `json:"id,omitempty"`
	Type        uint32                 `json:"type"`
	RawGeometry []uint32               `json:"raw_geometry,omitempty"`
	Geometry    *geojson.Geometry      `json:"geometry,omitempty"`
	Properties  map[string]interface{} `json:"properties"`
	Raster      int                    `json:"raster_bytes,omitempty"`
}

// LayerJSON is the introspection view of one layer.
type LayerJSON struct {
	Name     string        `json:"name"`
	Extent   uint32        `json:"extent"`
	Version  uint32        `json:"version"`
	Features []FeatureJSON `json:"features"`
}

// ToJSON returns a structured view of the tile's layers for
// debugging. With DecodeGeometry set, command streams are decoded to
// grid-space coordinate geometry; otherwise the packed commands are
// returned verbatim.
func (t *Tile) ToJSON(opts JSONOptions) ([]LayerJSON, error) {
	out := make([]LayerJSON, 0, len(t.layers))
	for _, name := range t.layers {
		layer, err := t.decodeLayer(name)
		if err != nil {
			return nil, err
		}
		lj := LayerJSON{
			Name:     layer.Name,
			Extent:   layer.Extent,
			Version:  layer.Version,
			Features: make([]FeatureJSON, 0, len(layer.Features)),
		}
		for i := range layer.Features {
			f := &layer.Features[i]
			props, err := layer.Properties(f)
			if err != nil {
				return nil, corruptf("layer %q: %v", name, err)
			}
			fj := FeatureJSON{
				Type:       uint32(f.Type),
				Properties: props,
				Raster:     len(f.Raster),
			}
			if f.HasID {
				id := f.ID
				fj.ID = &id
			}
			if opts.DecodeGeometry {
				g, err := mvt.DecodeGeometry(f.Type, f.Geometry)
				if err != nil {
					return nil, corruptf("layer %q: %v", name, err)
				}
				if g != nil {
					fj.Geometry = geojson.NewGeometry(g)
				}
			} else {
				fj.RawGeometry = f.Geometry
			}
			lj.Features = append(lj.Features, fj)
		}
		out = append(out, lj)
	}
	return out, nil
}
