package shape

import (
	"math"

	"github.com/ctessum/geom"
)

// BufferLine widens a polyline into an areal footprint of the given
// half-width, with square end caps: each segment becomes a rectangle
// extended by halfWidth past both endpoints, and the rectangles are unioned
// so that joints fill in without gaps (the mitered-join analogue of the
// original groove footprints).
func BufferLine(line geom.LineString, halfWidth float64) Shape {
	if halfWidth <= 0 || len(line) < 2 {
		return Empty()
	}
	out := Empty()
	for i := 0; i < len(line)-1; i++ {
		q := segmentQuad(line[i], line[i+1], halfWidth)
		if q.IsEmpty() {
			continue
		}
		out = out.Union(q)
	}
	return out
}

// Shrink offsets the shape inward by d: everything within d of the boundary
// is eroded away. A polygon narrower than 2d vanishes entirely, which the
// pipeline treats as "this feature contributes nothing", never as an error.
func (s Shape) Shrink(d float64) Shape {
	if s.IsEmpty() || d <= 0 {
		return s
	}
	edge := Empty()
	for _, r := range s.poly {
		n := len(r)
		for i := 0; i < n; i++ {
			q := segmentQuad(r[i], r[(i+1)%n], d)
			if q.IsEmpty() {
				continue
			}
			edge = edge.Union(q)
		}
	}
	return s.Subtract(edge)
}

// segmentQuad is the rectangle covering all points within halfWidth of the
// segment a-b, extended halfWidth beyond each endpoint (square caps).
func segmentQuad(a, b geom.Point, halfWidth float64) Shape {
	dx := b.X - a.X
	dy := b.Y - a.Y
	length := math.Hypot(dx, dy)
	if length == 0 {
		return Empty()
	}
	ux := dx / length
	uy := dy / length
	// Unit normal.
	nx := -uy
	ny := ux

	ax := a.X - ux*halfWidth
	ay := a.Y - uy*halfWidth
	bx := b.X + ux*halfWidth
	by := b.Y + uy*halfWidth

	return Shape{poly: geom.Polygon{{
		{X: ax + nx*halfWidth, Y: ay + ny*halfWidth},
		{X: bx + nx*halfWidth, Y: by + ny*halfWidth},
		{X: bx - nx*halfWidth, Y: by - ny*halfWidth},
		{X: ax - nx*halfWidth, Y: ay - ny*halfWidth},
	}}}
}
