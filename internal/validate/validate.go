// Package validate performs the structural checks behind tile info
// reports: version and name constraints, dictionary integrity, and
// feature counts by geometry type. Geometry command streams are not
// decoded.
package validate

import (
	"github.com/MeKo-Tech/vectortile/internal/mvt"
)

// Validity error names, stable strings surfaced in info reports.
const (
	ErrInvalidBuffer        = "INVALID_PBF_BUFFER"
	ErrRepeatedLayerNames   = "TILE_REPEATED_LAYER_NAMES"
	ErrDifferentVersions    = "TILE_HAS_DIFFERENT_VERSIONS"
	ErrUnknownTag           = "TILE_HAS_UNKNOWN_TAG"
	ErrUnsupportedVersion   = "LAYER_HAS_UNSUPPORTED_VERSION"
	ErrLayerNoName          = "LAYER_HAS_NO_NAME"
	ErrLayerNoExtent        = "LAYER_HAS_NO_EXTENT"
	ErrLayerNoFeatures      = "LAYER_HAS_NO_FEATURES"
	ErrFeatureOddTags       = "FEATURE_HAS_ODD_TAG_COUNT"
	ErrFeatureTagsOutOfIdx  = "FEATURE_TAGS_EXCEED_DICTIONARIES"
	ErrFeatureNoGeomData    = "FEATURE_HAS_NO_GEOMETRY_DATA"
	ErrFeatureRasterAndGeom = "FEATURE_HAS_RASTER_AND_GEOMETRY"
)

// LayerReport summarizes one layer of a tile buffer.
type LayerReport struct {
	Name               string   `json:"name"`
	Features           uint64   `json:"features"`
	PointFeatures      uint64   `json:"point_features"`
	LinestringFeatures uint64   `json:"linestring_features"`
	PolygonFeatures    uint64   `json:"polygon_features"`
	UnknownFeatures    uint64   `json:"unknown_features"`
	RasterFeatures     uint64   `json:"raster_features"`
	Version            uint32   `json:"version"`
	Errors             []string `json:"errors,omitempty"`
}

// TileReport is the structured result of validating a tile buffer.
// It is always produced; findings are reported, never thrown.
type TileReport struct {
	Layers     []LayerReport `json:"layers"`
	Errors     bool          `json:"errors"`
	TileErrors []string      `json:"tile_errors,omitempty"`
}

// Tile validates an uncompressed tile buffer.
func Tile(data []byte) TileReport {
	var report TileReport
	tileErrors := newStringSet()

	ranges, unknown, err := mvt.ScanLayers(data)
	if err != nil {
		tileErrors.add(ErrInvalidBuffer)
		report.TileErrors = tileErrors.list()
		report.Errors = true
		return report
	}
	if unknown > 0 {
		tileErrors.add(ErrUnknownTag)
	}

	seen := make(map[string]struct{}, len(ranges))
	firstVersion := uint32(0)
	for i, lr := range ranges {
		layer, err := mvt.DecodeLayerRange(data, lr)
		if err != nil {
			tileErrors.add(ErrInvalidBuffer)
			continue
		}
		lrep := layerReport(layer)
		if layer.Name != "" {
			if _, dup := seen[layer.Name]; dup {
				tileErrors.add(ErrRepeatedLayerNames)
			}
			seen[layer.Name] = struct{}{}
		}
		if i == 0 {
			firstVersion = layer.Version
		} else if layer.Version != firstVersion {
			tileErrors.add(ErrDifferentVersions)
		}
		report.Layers = append(report.Layers, lrep)
	}

	report.TileErrors = tileErrors.list()
	if len(report.TileErrors) > 0 {
		report.Errors = true
	}
	for _, l := range report.Layers {
		if len(l.Errors) > 0 {
			report.Errors = true
		}
	}
	return report
}

func layerReport(layer *mvt.Layer) LayerReport {
	rep := LayerReport{
		Name:    layer.Name,
		Version: layer.Version,
	}
	layerErrors := newStringSet()

	if layer.Version < 1 || layer.Version > 2 {
		layerErrors.add(ErrUnsupportedVersion)
	}
	if layer.Name == "" {
		layerErrors.add(ErrLayerNoName)
	}
	if len(layer.Features) == 0 {
		layerErrors.add(ErrLayerNoFeatures)
	}

	for i := range layer.Features {
		f := &layer.Features[i]
		switch {
		case len(f.Raster) > 0 && len(f.Geometry) > 0:
			layerErrors.add(ErrFeatureRasterAndGeom)
			rep.RasterFeatures++
		case len(f.Raster) > 0:
			rep.RasterFeatures++
		case len(f.Geometry) == 0:
			layerErrors.add(ErrFeatureNoGeomData)
			rep.UnknownFeatures++
		default:
			switch f.Type {
			case mvt.GeomPoint:
				rep.PointFeatures++
			case mvt.GeomLineString:
				rep.LinestringFeatures++
			case mvt.GeomPolygon:
				rep.PolygonFeatures++
			default:
				rep.UnknownFeatures++
			}
		}

		if len(f.Tags)%2 != 0 {
			layerErrors.add(ErrFeatureOddTags)
		} else {
			for t := 0; t+1 < len(f.Tags); t += 2 {
				if int(f.Tags[t]) >= len(layer.Keys) || int(f.Tags[t+1]) >= len(layer.Values) {
					layerErrors.add(ErrFeatureTagsOutOfIdx)
					break
				}
			}
		}
	}
	rep.Features = rep.PointFeatures + rep.LinestringFeatures +
		rep.PolygonFeatures + rep.UnknownFeatures + rep.RasterFeatures
	rep.Errors = layerErrors.list()
	return rep
}

// stringSet keeps error names unique while preserving first-seen
// order.
type stringSet struct {
	seen  map[string]struct{}
	order []string
}

func newStringSet() *stringSet {
	return &stringSet{seen: make(map[string]struct{})}
}

func (s *stringSet) add(v string) {
	if _, ok := s.seen[v]; ok {
		return
	}
	s.seen[v] = struct{}{}
	s.order = append(s.order, v)
}

func (s *stringSet) list() []string { return s.order }
