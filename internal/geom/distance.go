// Package geom implements the planar measurements the query engine
// needs: point-to-geometry distance with hit points, ray-cast
// containment, and the simplicity/validity predicates used by the
// geometry reports.
package geom

import (
	"math"

	"github.com/paulmach/orb"
)

// Result describes the closest approach of a query point to a
// geometry. A negative Distance means the geometry offered no match.
// For polygons containing the query point the distance is zero and
// the hit is the query point itself.
type Result struct {
	Distance float64
	HitX     float64
	HitY     float64
}

// noMatch is the sentinel result for empty or unmatched geometries.
func noMatch() Result {
	return Result{Distance: -1}
}

// maxCollectionDepth bounds recursion through nested collections.
const maxCollectionDepth = 8

// PointToGeometry computes the minimum distance from (x, y) to geom.
// Multi geometries take the minimum over members with ties resolved
// in favor of the earlier member, so results are deterministic.
func PointToGeometry(geom orb.Geometry, x, y float64) Result {
	return pointToGeometry(geom, x, y, 0)
}

func pointToGeometry(geom orb.Geometry, x, y float64, depth int) Result {
	if geom == nil || depth > maxCollectionDepth {
		return noMatch()
	}

	switch g := geom.(type) {
	case orb.Point:
		return Result{
			Distance: math.Hypot(g[0]-x, g[1]-y),
			HitX:     g[0],
			HitY:     g[1],
		}
	case orb.MultiPoint:
		best := noMatch()
		for _, pt := range g {
			sub := pointToGeometry(pt, x, y, depth)
			if sub.Distance >= 0 && (best.Distance < 0 || sub.Distance < best.Distance) {
				best = sub
			}
		}
		return best
	case orb.LineString:
		return lineStringDistance(g, x, y)
	case orb.MultiLineString:
		best := noMatch()
		for _, line := range g {
			sub := lineStringDistance(line, x, y)
			if sub.Distance >= 0 && (best.Distance < 0 || sub.Distance < best.Distance) {
				best = sub
			}
		}
		return best
	case orb.Ring:
		return pointToGeometry(orb.Polygon{g}, x, y, depth)
	case orb.Polygon:
		if PolygonContains(g, x, y) {
			return Result{Distance: 0, HitX: x, HitY: y}
		}
		return noMatch()
	case orb.MultiPolygon:
		best := noMatch()
		for _, poly := range g {
			sub := pointToGeometry(poly, x, y, depth)
			if sub.Distance >= 0 && (best.Distance < 0 || sub.Distance < best.Distance) {
				best = sub
			}
		}
		return best
	case orb.Collection:
		best := noMatch()
		for _, member := range g {
			sub := pointToGeometry(member, x, y, depth+1)
			if sub.Distance >= 0 && (best.Distance < 0 || sub.Distance < best.Distance) {
				best = sub
			}
		}
		return best
	case orb.Bound:
		return pointToGeometry(g.ToPolygon(), x, y, depth)
	default:
		return noMatch()
	}
}

// lineStringDistance finds the closest segment. The hit point is the
// start vertex of the first segment achieving the minimum, matching
// the deterministic tie-break of the reference implementation.
func lineStringDistance(line orb.LineString, x, y float64) Result {
	best := noMatch()
	for i := 0; i+1 < len(line); i++ {
		d := PointToSegment(x, y, line[i][0], line[i][1], line[i+1][0], line[i+1][1])
		if d >= 0 && (best.Distance < 0 || d < best.Distance) {
			best = Result{Distance: d, HitX: line[i][0], HitY: line[i][1]}
		}
	}
	return best
}

// PointToSegment returns the distance from (px, py) to the segment
// (ax, ay)-(bx, by).
func PointToSegment(px, py, ax, ay, bx, by float64) float64 {
	dx := bx - ax
	dy := by - ay
	if dx == 0 && dy == 0 {
		return math.Hypot(px-ax, py-ay)
	}
	t := ((px-ax)*dx + (py-ay)*dy) / (dx*dx + dy*dy)
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return math.Hypot(px-(ax+t*dx), py-(ay+t*dy))
}

// RingContains reports whether (x, y) lies inside the ring using the
// even-odd ray-casting rule. Points exactly on an edge count as
// inside.
func RingContains(ring orb.Ring, x, y float64) bool {
	if len(ring) < 3 {
		return false
	}
	inside := false
	n := len(ring)
	j := n - 1
	for i := 0; i < n; i++ {
		xi, yi := ring[i][0], ring[i][1]
		xj, yj := ring[j][0], ring[j][1]
		if onSegment(x, y, xi, yi, xj, yj) {
			return true
		}
		if (yi > y) != (yj > y) {
			cross := (xj-xi)*(y-yi)/(yj-yi) + xi
			if x < cross {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}

// PolygonContains applies ring 0 as exterior and the rest as holes.
func PolygonContains(poly orb.Polygon, x, y float64) bool {
	if len(poly) == 0 {
		return false
	}
	if !RingContains(poly[0], x, y) {
		return false
	}
	for _, hole := range poly[1:] {
		if RingContains(hole, x, y) {
			return false
		}
	}
	return true
}

func onSegment(px, py, ax, ay, bx, by float64) bool {
	const eps = 1e-12
	lenSq := (bx-ax)*(bx-ax) + (by-ay)*(by-ay)
	if lenSq == 0 {
		// A zero-length edge, such as a ring's repeated closing
		// vertex, touches only its own point.
		return px == ax && py == ay
	}
	cross := (bx-ax)*(py-ay) - (by-ay)*(px-ax)
	if math.Abs(cross) > eps*math.Max(1, math.Abs(bx-ax)+math.Abs(by-ay)) {
		return false
	}
	dot := (px-ax)*(bx-ax) + (py-ay)*(by-ay)
	if dot < 0 {
		return false
	}
	return dot <= lenSq
}
