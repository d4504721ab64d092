package shape

import (
	"math"
	"sort"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/op"
)

// PolygonRings is one polygon of a shape decomposed into an outer boundary
// and its holes. Outer winds counterclockwise, holes clockwise.
type PolygonRings struct {
	Outer []geom.Point
	Holes [][]geom.Point
}

// sliverArea is the ring area below which a ring is considered a degenerate
// byproduct of clipping and dropped.
const sliverArea = 1e-12

// PolygonsWithHoles splits the shape's ring set into polygons with assigned
// holes. Classification does not trust the kernel's output winding: a ring
// is a hole iff it nests inside an odd number of other rings, and each hole
// is attached to the smallest outer ring containing it. Windings are then
// normalized (outer CCW, holes CW) so extrusion and preview code can rely
// on orientation.
func (s Shape) PolygonsWithHoles() []PolygonRings {
	if s.IsEmpty() {
		return nil
	}

	type ringInfo struct {
		pts   []geom.Point
		area  float64 // absolute
		depth int
	}

	var rings []*ringInfo
	for _, r := range s.poly {
		a := math.Abs(signedArea(r))
		if len(r) < 3 || a < sliverArea {
			continue
		}
		pts := make([]geom.Point, len(r))
		copy(pts, r)
		rings = append(rings, &ringInfo{pts: pts, area: a})
	}
	if len(rings) == 0 {
		return nil
	}

	for i, ri := range rings {
		probe := ringProbe(ri.pts)
		for j, rj := range rings {
			if i == j {
				continue
			}
			if pointInRing(probe, rj.pts) {
				ri.depth++
			}
		}
	}

	// Largest outers first so holes attach to the innermost candidate last.
	sort.SliceStable(rings, func(i, j int) bool { return rings[i].area > rings[j].area })

	var out []PolygonRings
	outerIdx := make([]int, 0, len(rings))
	for _, ri := range rings {
		if ri.depth%2 == 0 {
			out = append(out, PolygonRings{Outer: orient(ri.pts, true)})
			outerIdx = append(outerIdx, len(out)-1)
		}
	}
	for _, ri := range rings {
		if ri.depth%2 == 0 {
			continue
		}
		probe := ringProbe(ri.pts)
		best := -1
		bestArea := math.Inf(1)
		for _, oi := range outerIdx {
			outer := out[oi].Outer
			if a := math.Abs(signedArea(outer)); a < bestArea && pointInRing(probe, outer) {
				best = oi
				bestArea = a
			}
		}
		if best < 0 {
			continue // orphan hole, nothing to cut it from
		}
		out[best].Holes = append(out[best].Holes, orient(ri.pts, false))
	}
	return out
}

// Normalized returns a copy of the shape with kernel-fixed winding: outer
// rings counterclockwise and nested rings alternating.
func (s Shape) Normalized() Shape {
	if s.IsEmpty() {
		return s
	}
	cloned := make(geom.Polygon, len(s.poly))
	for i, r := range s.poly {
		ring := make([]geom.Point, len(r))
		copy(ring, r)
		cloned[i] = ring
	}
	if err := op.FixOrientation(cloned); err != nil {
		return s
	}
	return Shape{poly: cloned}
}

// signedArea is the shoelace area of a ring: positive for counterclockwise.
func signedArea(r []geom.Point) float64 {
	if len(r) < 3 {
		return 0
	}
	a := 0.
	for i := 0; i < len(r); i++ {
		j := (i + 1) % len(r)
		a += r[i].X*r[j].Y - r[j].X*r[i].Y
	}
	return a / 2
}

// orient returns the ring wound counterclockwise (ccw=true) or clockwise.
func orient(r []geom.Point, ccw bool) []geom.Point {
	if (signedArea(r) > 0) == ccw {
		return r
	}
	rev := make([]geom.Point, len(r))
	for i, p := range r {
		rev[len(r)-1-i] = p
	}
	return rev
}

// ringProbe picks a point representative of the ring's interior: the
// midpoint of a vertex and the ring centroid when that lands inside,
// otherwise the first vertex. Vertices shared between touching rings would
// otherwise make nesting tests ambiguous.
func ringProbe(r []geom.Point) geom.Point {
	var cx, cy float64
	for _, p := range r {
		cx += p.X
		cy += p.Y
	}
	cx /= float64(len(r))
	cy /= float64(len(r))
	c := geom.Point{X: cx, Y: cy}
	if pointInRing(c, r) {
		return c
	}
	m := geom.Point{X: (r[0].X + c.X) / 2, Y: (r[0].Y + c.Y) / 2}
	if pointInRing(m, r) {
		return m
	}
	return r[0]
}

// pointInRing is a standard even-odd ray cast against one ring.
func pointInRing(p geom.Point, r []geom.Point) bool {
	in := false
	n := len(r)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		if (r[i].Y > p.Y) != (r[j].Y > p.Y) &&
			p.X < (r[j].X-r[i].X)*(p.Y-r[i].Y)/(r[j].Y-r[i].Y)+r[i].X {
			in = !in
		}
	}
	return in
}
