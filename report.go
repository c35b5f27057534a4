package vectortile

import (
	"github.com/paulmach/orb/geojson"

	"github.com/MeKo-Tech/vectortile/internal/geom"
	"github.com/MeKo-Tech/vectortile/internal/mvt"
	"github.com/MeKo-Tech/vectortile/internal/validate"
)

// SimplicityFinding identifies a feature whose geometry is not simple
// under the OGC rules.
type SimplicityFinding struct {
	Layer     string `json:"layer"`
	FeatureID uint64 `json:"feature_id"`
	Reason    string `json:"reason"`
}

// ValidityFinding identifies a feature whose geometry is invalid. The
// offending sub-geometry is rendered as GeoJSON for diagnostics.
type ValidityFinding struct {
	Layer     string `json:"layer"`
	FeatureID uint64 `json:"feature_id"`
	Message   string `json:"message"`
	GeoJSON   string `json:"geojson,omitempty"`
}

// ReportGeometrySimplicity decodes every v2 layer and lists the
// features that fail the simplicity predicate. Layers with versions
// other than 2 yield an UnsupportedVersion finding instead of being
// decoded.
func (t *Tile) ReportGeometrySimplicity() ([]SimplicityFinding, error) {
	var findings []SimplicityFinding
	for _, name := range t.layers {
		layer, err := t.decodeLayer(name)
		if err != nil {
			return nil, err
		}
		if layer.Version != 2 {
			findings = append(findings, SimplicityFinding{
				Layer:  name,
				Reason: validate.ErrUnsupportedVersion,
			})
			continue
		}
		for i := range layer.Features {
			f := &layer.Features[i]
			g, err := mvt.DecodeGeometry(f.Type, f.Geometry)
			if err != nil {
				return nil, corruptf("layer %q: %v", name, err)
			}
			if g == nil {
				continue
			}
			if check := geom.IsSimple(g); !check.Simple {
				findings = append(findings, SimplicityFinding{
					Layer:     name,
					FeatureID: f.ID,
					Reason:    check.Reason,
				})
			}
		}
	}
	return findings, nil
}

// ReportGeometryValidity decodes every v2 layer and lists the
// features that fail the validity predicate, with the offending
// sub-geometry as GeoJSON.
func (t *Tile) ReportGeometryValidity() ([]ValidityFinding, error) {
	var findings []ValidityFinding
	for _, name := range t.layers {
		layer, err := t.decodeLayer(name)
		if err != nil {
			return nil, err
		}
		if layer.Version != 2 {
			findings = append(findings, ValidityFinding{
				Layer:   name,
				Message: validate.ErrUnsupportedVersion,
			})
			continue
		}
		for i := range layer.Features {
			f := &layer.Features[i]
			g, err := mvt.DecodeGeometry(f.Type, f.Geometry)
			if err != nil {
				return nil, corruptf("layer %q: %v", name, err)
			}
			if g == nil {
				continue
			}
			check := geom.IsValid(g)
			if check.Valid {
				continue
			}
			finding := ValidityFinding{
				Layer:     name,
				FeatureID: f.ID,
				Message:   check.Reason,
			}
			if check.Offending != nil {
				fc := geojson.NewFeatureCollection()
				fc.Append(geojson.NewFeature(check.Offending))
				if data, err := jsonMarshal(fc); err == nil {
					finding.GeoJSON = string(data)
				}
			}
			findings = append(findings, finding)
		}
	}
	return findings, nil
}
