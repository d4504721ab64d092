// Package mesh is the 3D kernel of the pipeline: it extrudes areal shapes
// into flat-capped prisms and serializes solids to printable file formats.
// Solids are plain triangle soups; pieces are composed by translation and
// concatenation, mirroring how the layer stack is assembled.
package mesh

import (
	"fmt"
	"io"
	"math"

	"github.com/ctessum/geom"

	"github.com/mgonzalezcanudas/print3dhood/internal/pkg/shape"
)

// Vec3 is a point in model space (meters).
type Vec3 struct {
	X, Y, Z float64
}

// Triangle is one face, wound counterclockwise seen from outside.
type Triangle [3]Vec3

// Normal returns the (unnormalized) face normal.
func (t Triangle) Normal() Vec3 {
	ux, uy, uz := t[1].X-t[0].X, t[1].Y-t[0].Y, t[1].Z-t[0].Z
	vx, vy, vz := t[2].X-t[0].X, t[2].Y-t[0].Y, t[2].Z-t[0].Z
	return Vec3{
		X: uy*vz - uz*vy,
		Y: uz*vx - ux*vz,
		Z: ux*vy - uy*vx,
	}
}

// Solid is a triangle mesh.
type Solid struct {
	Triangles []Triangle
}

// IsEmpty reports whether the solid has no faces.
func (s *Solid) IsEmpty() bool {
	return s == nil || len(s.Triangles) == 0
}

// Translate shifts the solid in place by (dx, dy, dz).
func (s *Solid) Translate(dx, dy, dz float64) *Solid {
	for i := range s.Triangles {
		for j := range s.Triangles[i] {
			s.Triangles[i][j].X += dx
			s.Triangles[i][j].Y += dy
			s.Triangles[i][j].Z += dz
		}
	}
	return s
}

// Volume returns the enclosed volume of a closed solid via the divergence
// theorem. Negative results indicate inverted winding.
func (s *Solid) Volume() float64 {
	v := 0.
	for _, t := range s.Triangles {
		v += t[0].X*(t[1].Y*t[2].Z-t[2].Y*t[1].Z) -
			t[0].Y*(t[1].X*t[2].Z-t[2].X*t[1].Z) +
			t[0].Z*(t[1].X*t[2].Y-t[2].X*t[1].Y)
	}
	return v / 6
}

// Concat merges solids into one. Nil and empty pieces are skipped.
func Concat(solids ...*Solid) *Solid {
	out := &Solid{}
	for _, s := range solids {
		if s.IsEmpty() {
			continue
		}
		out.Triangles = append(out.Triangles, s.Triangles...)
	}
	return out
}

// Extrude turns an areal shape into a prism of the given height with its
// base at z=0: triangulated top and bottom caps (holes preserved) and a
// wall strip per ring. An empty shape or non-positive height yields an
// empty solid.
func Extrude(s shape.Shape, height float64) *Solid {
	out := &Solid{}
	if s.IsEmpty() || height <= 0 {
		return out
	}
	for _, poly := range s.PolygonsWithHoles() {
		tris := triangulate(poly.Outer, poly.Holes)
		for _, tri := range tris {
			// Top cap, normal +z.
			out.Triangles = append(out.Triangles, Triangle{
				{X: tri[0].X, Y: tri[0].Y, Z: height},
				{X: tri[1].X, Y: tri[1].Y, Z: height},
				{X: tri[2].X, Y: tri[2].Y, Z: height},
			})
			// Bottom cap, reversed winding, normal -z.
			out.Triangles = append(out.Triangles, Triangle{
				{X: tri[0].X, Y: tri[0].Y, Z: 0},
				{X: tri[2].X, Y: tri[2].Y, Z: 0},
				{X: tri[1].X, Y: tri[1].Y, Z: 0},
			})
		}
		out.Triangles = append(out.Triangles, wall(poly.Outer, height)...)
		for _, hole := range poly.Holes {
			out.Triangles = append(out.Triangles, wall(hole, height)...)
		}
	}
	return out
}

// wall builds the side strip of one ring. With outers counterclockwise and
// holes clockwise, the same edge traversal yields outward-facing normals
// for both.
func wall(ring []geom.Point, height float64) []Triangle {
	var tris []Triangle
	n := len(ring)
	for i := 0; i < n; i++ {
		p := ring[i]
		q := ring[(i+1)%n]
		if p.X == q.X && p.Y == q.Y {
			continue
		}
		tris = append(tris,
			Triangle{
				{X: p.X, Y: p.Y, Z: 0},
				{X: q.X, Y: q.Y, Z: 0},
				{X: q.X, Y: q.Y, Z: height},
			},
			Triangle{
				{X: p.X, Y: p.Y, Z: 0},
				{X: q.X, Y: q.Y, Z: height},
				{X: p.X, Y: p.Y, Z: height},
			},
		)
	}
	return tris
}

// Encode serializes the solid in the named format ("stl" or "obj").
func Encode(w io.Writer, s *Solid, format string) error {
	switch format {
	case "stl":
		return encodeSTL(w, s)
	case "obj":
		return encodeOBJ(w, s)
	default:
		return fmt.Errorf("unsupported mesh format %q", format)
	}
}

func normalize(v Vec3) Vec3 {
	l := math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
	if l == 0 {
		return Vec3{}
	}
	return Vec3{X: v.X / l, Y: v.Y / l, Z: v.Z / l}
}
