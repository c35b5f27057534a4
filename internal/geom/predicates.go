package geom

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// SimplicityCheck is the outcome of an OGC simplicity test. When the
// geometry is not simple, Reason explains the first violation found.
type SimplicityCheck struct {
	Simple bool
	Reason string
}

// ValidityCheck is the outcome of an OGC validity test. Offending is
// the first sub-geometry that failed, for GeoJSON diagnostics.
type ValidityCheck struct {
	Valid     bool
	Reason    string
	Offending orb.Geometry
}

// IsSimple tests geom against the OGC Simple Features simplicity
// rules: no duplicate points in multipoints, no self-intersections in
// lines, and simple rings in polygons.
func IsSimple(geom orb.Geometry) SimplicityCheck {
	switch g := geom.(type) {
	case nil:
		return SimplicityCheck{Simple: true}
	case orb.Point:
		return SimplicityCheck{Simple: true}
	case orb.MultiPoint:
		seen := make(map[orb.Point]struct{}, len(g))
		for _, pt := range g {
			if _, dup := seen[pt]; dup {
				return SimplicityCheck{Reason: fmt.Sprintf("repeated point (%v, %v)", pt[0], pt[1])}
			}
			seen[pt] = struct{}{}
		}
		return SimplicityCheck{Simple: true}
	case orb.LineString:
		return lineSimple(g, false)
	case orb.MultiLineString:
		for i, line := range g {
			if c := lineSimple(line, false); !c.Simple {
				return SimplicityCheck{Reason: fmt.Sprintf("member %d: %s", i, c.Reason)}
			}
		}
		return SimplicityCheck{Simple: true}
	case orb.Ring:
		return lineSimple(orb.LineString(g), true)
	case orb.Polygon:
		for i, ring := range g {
			if c := lineSimple(orb.LineString(ring), true); !c.Simple {
				return SimplicityCheck{Reason: fmt.Sprintf("ring %d: %s", i, c.Reason)}
			}
		}
		return SimplicityCheck{Simple: true}
	case orb.MultiPolygon:
		for i, poly := range g {
			if c := IsSimple(poly); !c.Simple {
				return SimplicityCheck{Reason: fmt.Sprintf("polygon %d: %s", i, c.Reason)}
			}
		}
		return SimplicityCheck{Simple: true}
	case orb.Collection:
		for i, member := range g {
			if c := IsSimple(member); !c.Simple {
				return SimplicityCheck{Reason: fmt.Sprintf("collection member %d: %s", i, c.Reason)}
			}
		}
		return SimplicityCheck{Simple: true}
	default:
		return SimplicityCheck{Simple: true}
	}
}

// IsValid tests geom against the OGC validity rules the tile reports
// care about: closed rings with at least four points, non-zero ring
// area, simple rings, and holes contained by their shell.
func IsValid(geom orb.Geometry) ValidityCheck {
	switch g := geom.(type) {
	case nil:
		return ValidityCheck{Valid: true}
	case orb.Point, orb.MultiPoint, orb.LineString:
		return lineValidity(geom)
	case orb.MultiLineString:
		for _, line := range g {
			if c := lineValidity(line); !c.Valid {
				return c
			}
		}
		return ValidityCheck{Valid: true}
	case orb.Ring:
		return ringValid(g, orb.Polygon{g})
	case orb.Polygon:
		return polygonValid(g)
	case orb.MultiPolygon:
		for _, poly := range g {
			if c := polygonValid(poly); !c.Valid {
				return c
			}
		}
		return ValidityCheck{Valid: true}
	case orb.Collection:
		for _, member := range g {
			if c := IsValid(member); !c.Valid {
				return c
			}
		}
		return ValidityCheck{Valid: true}
	default:
		return ValidityCheck{Valid: true}
	}
}

func lineValidity(geom orb.Geometry) ValidityCheck {
	if line, ok := geom.(orb.LineString); ok && len(line) == 1 {
		return ValidityCheck{
			Reason:    "line string with a single point",
			Offending: geom,
		}
	}
	return ValidityCheck{Valid: true}
}

func polygonValid(poly orb.Polygon) ValidityCheck {
	if len(poly) == 0 {
		return ValidityCheck{Valid: true}
	}
	for _, ring := range poly {
		if c := ringValid(ring, poly); !c.Valid {
			return c
		}
	}
	shell := poly[0]
	for i, hole := range poly[1:] {
		for _, pt := range hole {
			if !RingContains(shell, pt[0], pt[1]) {
				return ValidityCheck{
					Reason:    fmt.Sprintf("hole %d extends outside the shell", i+1),
					Offending: orb.Polygon{shell, hole},
				}
			}
		}
	}
	return ValidityCheck{Valid: true}
}

func ringValid(ring orb.Ring, offending orb.Geometry) ValidityCheck {
	if len(ring) < 4 {
		return ValidityCheck{
			Reason:    fmt.Sprintf("ring has %d points, need at least 4", len(ring)),
			Offending: offending,
		}
	}
	if ring[0] != ring[len(ring)-1] {
		return ValidityCheck{Reason: "ring is not closed", Offending: offending}
	}
	if math.Abs(planar.Area(ring)) == 0 {
		return ValidityCheck{Reason: "ring has zero area", Offending: offending}
	}
	if c := lineSimple(orb.LineString(ring), true); !c.Simple {
		return ValidityCheck{Reason: c.Reason, Offending: offending}
	}
	return ValidityCheck{Valid: true}
}

// lineSimple checks a line (or closed ring) for self-intersections.
// Adjacent segments may share their common vertex; for rings the
// first and last segments may share the closing vertex.
func lineSimple(line orb.LineString, closed bool) SimplicityCheck {
	if !closed && len(line) > 2 && line[0] == line[len(line)-1] {
		// A closed line is a ring; its first and last segments may
		// share the closing vertex.
		closed = true
	}
	n := len(line) - 1
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			adjacent := j == i+1 || (closed && i == 0 && j == n-1)
			if segmentsCross(line[i], line[i+1], line[j], line[j+1], adjacent) {
				return SimplicityCheck{
					Reason: fmt.Sprintf("segments %d and %d intersect", i, j),
				}
			}
		}
	}
	return SimplicityCheck{Simple: true}
}

// segmentsCross reports a forbidden intersection between segments
// a1-a2 and b1-b2. Adjacent segments are allowed to meet at exactly
// their shared endpoint.
func segmentsCross(a1, a2, b1, b2 orb.Point, adjacent bool) bool {
	d1 := cross(b1, b2, a1)
	d2 := cross(b1, b2, a2)
	d3 := cross(a1, a2, b1)
	d4 := cross(a1, a2, b2)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}

	if adjacent {
		// Sharing an endpoint is fine; collinear overlap is not.
		return d1 == 0 && d2 == 0 && d3 == 0 && d4 == 0 && collinearOverlap(a1, a2, b1, b2)
	}

	if d1 == 0 && between(b1, b2, a1) {
		return true
	}
	if d2 == 0 && between(b1, b2, a2) {
		return true
	}
	if d3 == 0 && between(a1, a2, b1) {
		return true
	}
	if d4 == 0 && between(a1, a2, b2) {
		return true
	}
	return false
}

func cross(o, a, b orb.Point) float64 {
	return (a[0]-o[0])*(b[1]-o[1]) - (a[1]-o[1])*(b[0]-o[0])
}

func between(a, b, p orb.Point) bool {
	return math.Min(a[0], b[0]) <= p[0] && p[0] <= math.Max(a[0], b[0]) &&
		math.Min(a[1], b[1]) <= p[1] && p[1] <= math.Max(a[1], b[1])
}

func collinearOverlap(a1, a2, b1, b2 orb.Point) bool {
	// Project onto the dominant axis and test interval overlap beyond
	// a single shared endpoint.
	axis := 0
	if math.Abs(a2[1]-a1[1]) > math.Abs(a2[0]-a1[0]) {
		axis = 1
	}
	aMin, aMax := math.Min(a1[axis], a2[axis]), math.Max(a1[axis], a2[axis])
	bMin, bMax := math.Min(b1[axis], b2[axis]), math.Max(b1[axis], b2[axis])
	lo := math.Max(aMin, bMin)
	hi := math.Min(aMax, bMax)
	return hi > lo
}
