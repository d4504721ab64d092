// Package shape wraps the ctessum/geom boolean kernel in a single tagged
// variant covering the empty / polygon / polygon-set cases, so that every
// pipeline step can apply set operations without type-switching on what the
// previous step produced. The zero Shape is the empty shape, and every
// operation is total over it: union with empty is identity, intersection
// and difference with an empty left operand stay empty.
package shape

import (
	"math"

	"github.com/ctessum/geom"
)

// Shape is an immutable areal geometry: possibly empty, possibly several
// disjoint polygons, possibly polygons with holes. All rings live in one
// geom.Polygon, the kernel's native multi-ring representation.
type Shape struct {
	poly geom.Polygon
}

// Empty returns the empty shape.
func Empty() Shape {
	return Shape{}
}

// New wraps a ring set, discarding degenerate rings with fewer than three
// distinct vertices.
func New(p geom.Polygon) Shape {
	var rings geom.Polygon
	for _, r := range p {
		// Drop a closing vertex that duplicates the first one; the
		// kernel works on implicitly closed rings.
		if len(r) > 1 && r[0].Equals(r[len(r)-1]) {
			r = r[:len(r)-1]
		}
		if len(r) < 3 {
			continue
		}
		rings = append(rings, r)
	}
	return Shape{poly: rings}
}

// IsEmpty reports whether the shape contains no rings.
func (s Shape) IsEmpty() bool {
	return len(s.poly) == 0
}

// Polygon returns the underlying ring set. Callers must not mutate it.
func (s Shape) Polygon() geom.Polygon {
	return s.poly
}

// Area returns the enclosed area, holes subtracted.
func (s Shape) Area() float64 {
	if s.IsEmpty() {
		return 0
	}
	return s.poly.Area()
}

// Bounds returns the bounding box, or nil for the empty shape.
func (s Shape) Bounds() *geom.Bounds {
	if s.IsEmpty() {
		return nil
	}
	return s.poly.Bounds()
}

// Union returns s ∪ o.
func (s Shape) Union(o Shape) Shape {
	if s.IsEmpty() {
		return o
	}
	if o.IsEmpty() {
		return s
	}
	return New(s.poly.Union(o.poly).(geom.Polygon))
}

// Intersect returns s ∩ o.
func (s Shape) Intersect(o Shape) Shape {
	if s.IsEmpty() || o.IsEmpty() {
		return Empty()
	}
	return New(s.poly.Intersection(o.poly).(geom.Polygon))
}

// Subtract returns s − o.
func (s Shape) Subtract(o Shape) Shape {
	if s.IsEmpty() {
		return Empty()
	}
	if o.IsEmpty() {
		return s
	}
	return New(s.poly.Difference(o.poly).(geom.Polygon))
}

// UnionAll folds a list of shapes into their union. An empty list yields the
// empty shape, which every downstream operation accepts.
func UnionAll(shapes []Shape) Shape {
	out := Empty()
	for _, s := range shapes {
		out = out.Union(s)
	}
	return out
}

// Translate shifts the shape by (dx, dy).
func (s Shape) Translate(dx, dy float64) Shape {
	if s.IsEmpty() {
		return s
	}
	out := make(geom.Polygon, len(s.poly))
	for i, r := range s.poly {
		ring := make([]geom.Point, len(r))
		for j, p := range r {
			ring[j] = geom.Point{X: p.X + dx, Y: p.Y + dy}
		}
		out[i] = ring
	}
	return Shape{poly: out}
}

// Scale multiplies every coordinate by f, about the origin.
func (s Shape) Scale(f float64) Shape {
	if s.IsEmpty() {
		return s
	}
	out := make(geom.Polygon, len(s.poly))
	for i, r := range s.poly {
		ring := make([]geom.Point, len(r))
		for j, p := range r {
			ring[j] = geom.Point{X: p.X * f, Y: p.Y * f}
		}
		out[i] = ring
	}
	return Shape{poly: out}
}

// Simplify applies Douglas-Peucker simplification with the given tolerance.
func (s Shape) Simplify(tolerance float64) Shape {
	if s.IsEmpty() || tolerance <= 0 {
		return s
	}
	simplified, ok := s.poly.Simplify(tolerance).(geom.Polygon)
	if !ok {
		return s
	}
	return New(simplified)
}

// Repair pushes the ring set through the boolean kernel by intersecting it
// with its own bounding box, which re-normalizes self-intersecting or
// inconsistently wound input into a clean decomposition.
func (s Shape) Repair() Shape {
	if s.IsEmpty() {
		return s
	}
	b := s.poly.Bounds()
	if b.Max.X <= b.Min.X || b.Max.Y <= b.Min.Y {
		return Empty()
	}
	// Expand slightly so boundary vertices stay strictly inside the clip.
	pad := math.Max(b.Max.X-b.Min.X, b.Max.Y-b.Min.Y) * 1e-6
	if pad == 0 {
		pad = 1e-9
	}
	box := geom.Polygon{{
		{X: b.Min.X - pad, Y: b.Min.Y - pad},
		{X: b.Max.X + pad, Y: b.Min.Y - pad},
		{X: b.Max.X + pad, Y: b.Max.Y + pad},
		{X: b.Min.X - pad, Y: b.Max.Y + pad},
	}}
	return New(s.poly.Intersection(box).(geom.Polygon))
}

// Circle approximates a disk of radius r centered at (cx, cy) with a regular
// polygon of the given segment count (counterclockwise).
func Circle(cx, cy, r float64, segments int) Shape {
	if r <= 0 {
		return Empty()
	}
	if segments < 8 {
		segments = 8
	}
	ring := make([]geom.Point, segments)
	for i := 0; i < segments; i++ {
		a := 2 * math.Pi * float64(i) / float64(segments)
		ring[i] = geom.Point{X: cx + r*math.Cos(a), Y: cy + r*math.Sin(a)}
	}
	return Shape{poly: geom.Polygon{ring}}
}
