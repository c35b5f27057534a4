package vectortile

import (
	"fmt"
	"math"
	"sort"

	"github.com/paulmach/orb"

	"github.com/MeKo-Tech/vectortile/internal/geom"
	"github.com/MeKo-Tech/vectortile/internal/projection"
)

// QueryFeature is a decoded feature returned by the query engine. It
// is an independent copy: mutating the tile afterwards does not
// invalidate it.
type QueryFeature struct {
	ID         uint64
	HasID      bool
	Type       string
	Geometry   orb.Geometry // mercator meters
	Properties map[string]interface{}
}

// QueryResult is one ranked hit of a single-point query. XHit and
// YHit are in WGS84.
type QueryResult struct {
	Layer    string
	Distance float64
	XHit     float64
	YHit     float64
	Feature  QueryFeature
}

// Query finds the features within tolerance of the WGS84 point
// (lon, lat). Results are ordered by layer name, then distance, then
// feature id, so the ranking is a total order. Polygon hits require
// containment and report distance zero.
func (t *Tile) Query(lon, lat float64, opts QueryOptions) ([]QueryResult, error) {
	if opts.Tolerance < 0 {
		return nil, invalidf("tolerance must not be negative")
	}
	if t.Empty() {
		return nil, nil
	}

	x, y := projection.Forward(lon, lat)

	names := t.layers
	if opts.Layer != "" {
		if !t.HasLayer(opts.Layer) {
			return nil, nil
		}
		names = []string{opts.Layer}
	}

	var results []QueryResult
	for _, name := range names {
		layer, err := t.decodeLayer(name)
		if err != nil {
			return nil, err
		}
		tf := t.gridTransform(layer.Extent)
		for i := range layer.Features {
			f := &layer.Features[i]
			merc, err := layer.MercatorGeometry(f, tf)
			if err != nil {
				return nil, corruptf("layer %q: %v", name, err)
			}
			if merc == nil {
				continue
			}
			p2p := geom.PointToGeometry(merc, x, y)
			if p2p.Distance < 0 || p2p.Distance > opts.Tolerance {
				continue
			}
			props, err := layer.Properties(f)
			if err != nil {
				return nil, corruptf("layer %q: %v", name, err)
			}
			hitLon, hitLat := projection.Inverse(p2p.HitX, p2p.HitY)
			if math.IsNaN(hitLon) || math.IsNaN(hitLat) {
				return nil, fmt.Errorf("%w: hit point cannot be reprojected", ErrProjection)
			}
			results = append(results, QueryResult{
				Layer:    name,
				Distance: p2p.Distance,
				XHit:     hitLon,
				YHit:     hitLat,
				Feature: QueryFeature{
					ID:         f.ID,
					HasID:      f.HasID,
					Type:       f.Type.String(),
					Geometry:   merc,
					Properties: props,
				},
			})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Layer != results[j].Layer {
			return results[i].Layer < results[j].Layer
		}
		if results[i].Distance != results[j].Distance {
			return results[i].Distance < results[j].Distance
		}
		return results[i].Feature.ID < results[j].Feature.ID
	})
	return results, nil
}

// QueryHit is one hit of a multi-point query, referencing a feature
// by its index in QueryManyResult.Features.
type QueryHit struct {
	Distance  float64
	FeatureID int
}

// QueryManyResult groups the shared features and the per-point hit
// lists of a multi-point query.
type QueryManyResult struct {
	// Features maps a running feature index to the feature. A feature
	// hit by several points is stored once.
	Features map[int]QueryResult
	// Hits maps each query point's index to its hits, ordered by
	// ascending distance.
	Hits map[int][]QueryHit
}

// QueryMany runs a batched point query against a single layer.
// Points are WGS84 [lon, lat] pairs. The layer option is required;
// fields projects feature attributes when non-empty.
func (t *Tile) QueryMany(points [][2]float64, opts QueryManyOptions) (*QueryManyResult, error) {
	if opts.Layer == "" {
		return nil, invalidf("options.Layer is required")
	}
	if opts.Tolerance < 0 {
		return nil, invalidf("tolerance must not be negative")
	}
	if len(points) == 0 {
		return nil, invalidf("at least one query point is required")
	}
	if !t.HasLayer(opts.Layer) {
		return nil, invalidf("layer %q not found", opts.Layer)
	}

	layer, err := t.decodeLayer(opts.Layer)
	if err != nil {
		return nil, err
	}
	tf := t.gridTransform(layer.Extent)

	merc := make([]orb.Point, len(points))
	for i, p := range points {
		x, y := projection.Forward(p[0], p[1])
		merc[i] = orb.Point{x, y}
	}

	var fields map[string]struct{}
	if len(opts.Fields) > 0 {
		fields = make(map[string]struct{}, len(opts.Fields))
		for _, f := range opts.Fields {
			fields[f] = struct{}{}
		}
	}

	result := &QueryManyResult{
		Features: make(map[int]QueryResult),
		Hits:     make(map[int][]QueryHit),
	}

	idx := 0
	for i := range layer.Features {
		f := &layer.Features[i]
		g, err := layer.MercatorGeometry(f, tf)
		if err != nil {
			return nil, corruptf("layer %q: %v", opts.Layer, err)
		}
		if g == nil {
			continue
		}

		hit := false
		for p, pt := range merc {
			p2p := geom.PointToGeometry(g, pt[0], pt[1])
			if p2p.Distance < 0 || p2p.Distance > opts.Tolerance {
				continue
			}
			if !hit {
				props, err := layer.Properties(f)
				if err != nil {
					return nil, corruptf("layer %q: %v", opts.Layer, err)
				}
				result.Features[idx] = QueryResult{
					Layer: opts.Layer,
					Feature: QueryFeature{
						ID:         f.ID,
						HasID:      f.HasID,
						Type:       f.Type.String(),
						Geometry:   g,
						Properties: projectFields(props, fields),
					},
				}
				hit = true
			}
			result.Hits[p] = append(result.Hits[p], QueryHit{
				Distance:  p2p.Distance,
				FeatureID: idx,
			})
		}
		if hit {
			idx++
		}
	}

	for p := range result.Hits {
		hits := result.Hits[p]
		sort.SliceStable(hits, func(i, j int) bool {
			return hits[i].Distance < hits[j].Distance
		})
	}
	return result, nil
}

// projectFields keeps only the requested attribute names; a nil set
// requests everything.
func projectFields(props map[string]interface{}, fields map[string]struct{}) map[string]interface{} {
	if fields == nil {
		return props
	}
	out := make(map[string]interface{}, len(fields))
	for k := range fields {
		if v, ok := props[k]; ok {
			out[k] = v
		}
	}
	return out
}
