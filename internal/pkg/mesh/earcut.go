package mesh

import (
	"math"
	"sort"

	"github.com/ctessum/geom"
)

// triangulate produces a triangle fan-free triangulation of a polygon with
// holes by bridging each hole into the outer ring and then ear clipping the
// resulting simple ring. The outer ring must wind counterclockwise and the
// holes clockwise; results are returned as triplets of 2D points wound
// counterclockwise.
func triangulate(outer []geom.Point, holes [][]geom.Point) [][3]geom.Point {
	if len(outer) < 3 {
		return nil
	}
	ring := make([]geom.Point, len(outer))
	copy(ring, outer)

	if len(holes) > 0 {
		// Bridge the rightmost hole first; subsequent bridges may cut through
		// regions opened by earlier ones.
		sorted := make([][]geom.Point, len(holes))
		copy(sorted, holes)
		sort.SliceStable(sorted, func(i, j int) bool {
			return maxX(sorted[i]) > maxX(sorted[j])
		})
		for _, hole := range sorted {
			if len(hole) < 3 {
				continue
			}
			ring = bridgeHole(ring, hole)
		}
	}
	return clipEars(ring)
}

func maxX(ring []geom.Point) float64 {
	m := math.Inf(-1)
	for _, p := range ring {
		if p.X > m {
			m = p.X
		}
	}
	return m
}

// bridgeHole splices a hole ring into the outer ring through a pair of
// mutually visible vertices, doubling both so the result is one simple ring.
func bridgeHole(outer, hole []geom.Point) []geom.Point {
	mi := 0
	for i, p := range hole {
		if p.X > hole[mi].X {
			mi = i
		}
	}
	oi := visibleOuterVertex(outer, hole[mi])

	merged := make([]geom.Point, 0, len(outer)+len(hole)+2)
	merged = append(merged, outer[:oi+1]...)
	for k := 0; k < len(hole); k++ {
		merged = append(merged, hole[(mi+k)%len(hole)])
	}
	merged = append(merged, hole[mi], outer[oi])
	merged = append(merged, outer[oi+1:]...)
	return merged
}

// visibleOuterVertex finds an outer-ring vertex visible from point m inside
// the polygon, by casting a ray in +x from m to the nearest outer edge and
// then resolving occluding reflex vertices (Eberly's method).
func visibleOuterVertex(outer []geom.Point, m geom.Point) int {
	n := len(outer)
	bestX := math.Inf(1)
	edge := -1
	for i := 0; i < n; i++ {
		a, b := outer[i], outer[(i+1)%n]
		if (a.Y > m.Y) == (b.Y > m.Y) {
			continue
		}
		x := a.X + (m.Y-a.Y)*(b.X-a.X)/(b.Y-a.Y)
		if x >= m.X && x < bestX {
			bestX = x
			edge = i
		}
	}
	if edge < 0 {
		// Hole is not enclosed; fall back to the nearest vertex.
		return nearestVertex(outer, m)
	}

	a, b := outer[edge], outer[(edge+1)%len(outer)]
	cand := edge
	if b.X > a.X {
		cand = (edge + 1) % n
	}
	hit := geom.Point{X: bestX, Y: m.Y}

	// Any reflex vertex inside triangle (m, hit, cand) occludes the bridge;
	// pick the occluder closest in angle to the +x ray.
	best := cand
	bestTan := math.Inf(1)
	for i := 0; i < n; i++ {
		p := outer[i]
		if i == cand || p.X < m.X {
			continue
		}
		if !isReflex(outer, i) {
			continue
		}
		if !pointInTri(p, m, hit, outer[best]) {
			continue
		}
		tan := math.Abs(p.Y-m.Y) / (p.X - m.X)
		if tan < bestTan || (tan == bestTan && p.X > outer[best].X) {
			best = i
			bestTan = tan
		}
	}
	return best
}

func nearestVertex(ring []geom.Point, m geom.Point) int {
	best := 0
	bestD := math.Inf(1)
	for i, p := range ring {
		d := (p.X-m.X)*(p.X-m.X) + (p.Y-m.Y)*(p.Y-m.Y)
		if d < bestD {
			best = i
			bestD = d
		}
	}
	return best
}

func isReflex(ring []geom.Point, i int) bool {
	n := len(ring)
	return cross2(ring[(i+n-1)%n], ring[i], ring[(i+1)%n]) < 0
}

func cross2(a, b, c geom.Point) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

func pointInTri(p, a, b, c geom.Point) bool {
	d1 := cross2(a, b, p)
	d2 := cross2(b, c, p)
	d3 := cross2(c, a, p)
	hasNeg := d1 < 0 || d2 < 0 || d3 < 0
	hasPos := d1 > 0 || d2 > 0 || d3 > 0
	return !(hasNeg && hasPos)
}

// clipEars triangulates one simple counterclockwise ring. Bridge splices
// leave duplicated vertices and collinear runs, so degenerate ears are
// removed without emitting a triangle and the loop always terminates by
// force-clipping when no clean ear remains.
func clipEars(ring []geom.Point) [][3]geom.Point {
	idx := make([]int, 0, len(ring))
	for i := range ring {
		idx = append(idx, i)
	}
	var tris [][3]geom.Point

	for len(idx) > 3 {
		clipped := false
		for k := 0; k < len(idx); k++ {
			ia := idx[(k+len(idx)-1)%len(idx)]
			ib := idx[k]
			ic := idx[(k+1)%len(idx)]
			a, b, c := ring[ia], ring[ib], ring[ic]

			area2 := cross2(a, b, c)
			if math.Abs(area2) < 1e-15 {
				// Collinear or duplicate vertex, drop silently.
				idx = append(idx[:k], idx[k+1:]...)
				clipped = true
				break
			}
			if area2 < 0 {
				continue // reflex corner
			}
			blocked := false
			for _, j := range idx {
				if j == ia || j == ib || j == ic {
					continue
				}
				p := ring[j]
				if samePoint(p, a) || samePoint(p, b) || samePoint(p, c) {
					continue
				}
				if pointInTri(p, a, b, c) {
					blocked = true
					break
				}
			}
			if blocked {
				continue
			}
			tris = append(tris, [3]geom.Point{a, b, c})
			idx = append(idx[:k], idx[k+1:]...)
			clipped = true
			break
		}
		if !clipped {
			// Numerically stuck; clip the widest convex corner to make
			// progress rather than loop forever.
			best, bestArea := -1, 0.
			for k := 0; k < len(idx); k++ {
				a := ring[idx[(k+len(idx)-1)%len(idx)]]
				b := ring[idx[k]]
				c := ring[idx[(k+1)%len(idx)]]
				if ar := cross2(a, b, c); ar > bestArea {
					best, bestArea = k, ar
				}
			}
			if best < 0 {
				break
			}
			a := ring[idx[(best+len(idx)-1)%len(idx)]]
			b := ring[idx[best]]
			c := ring[idx[(best+1)%len(idx)]]
			tris = append(tris, [3]geom.Point{a, b, c})
			idx = append(idx[:best], idx[best+1:]...)
		}
	}
	if len(idx) == 3 {
		a, b, c := ring[idx[0]], ring[idx[1]], ring[idx[2]]
		if cross2(a, b, c) > 1e-15 {
			tris = append(tris, [3]geom.Point{a, b, c})
		}
	}
	return tris
}

func samePoint(a, b geom.Point) bool {
	return a.X == b.X && a.Y == b.Y
}
