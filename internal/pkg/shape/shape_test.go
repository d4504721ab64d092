package shape

import (
	"math"
	"testing"

	"github.com/ctessum/geom"
)

func square(x, y, size float64) Shape {
	return New(geom.Polygon{{
		{X: x, Y: y},
		{X: x + size, Y: y},
		{X: x + size, Y: y + size},
		{X: x, Y: y + size},
	}})
}

func TestUnionOverlapping(t *testing.T) {
	u := square(0, 0, 2).Union(square(1, 0, 2))
	if u.IsEmpty() {
		t.Fatal("union of overlapping squares is empty")
	}
	if got, want := u.Area(), 6.0; math.Abs(got-want) > 1e-9 {
		t.Errorf("union area = %g, want %g", got, want)
	}
}

func TestEmptyOperands(t *testing.T) {
	s := square(0, 0, 1)

	if got := Empty().Union(s); math.Abs(got.Area()-1) > 1e-9 {
		t.Errorf("empty ∪ s area = %g, want 1", got.Area())
	}
	if got := s.Union(Empty()); math.Abs(got.Area()-1) > 1e-9 {
		t.Errorf("s ∪ empty area = %g, want 1", got.Area())
	}
	if !Empty().Intersect(s).IsEmpty() {
		t.Error("empty ∩ s should be empty")
	}
	if !Empty().Subtract(s).IsEmpty() {
		t.Error("empty − s should be empty")
	}
	if got := s.Subtract(Empty()); math.Abs(got.Area()-1) > 1e-9 {
		t.Errorf("s − empty area = %g, want 1", got.Area())
	}
}

func TestUnionAllEmptyList(t *testing.T) {
	u := UnionAll(nil)
	if !u.IsEmpty() {
		t.Fatal("union of no shapes should be empty")
	}
	// The empty result must be usable by every downstream operation.
	if !u.Intersect(square(0, 0, 1)).IsEmpty() {
		t.Error("empty result should intersect to empty")
	}
	if got := square(0, 0, 1).Subtract(u).Area(); math.Abs(got-1) > 1e-9 {
		t.Errorf("subtracting empty changed area: %g", got)
	}
}

func TestSubtractMakesHole(t *testing.T) {
	d := square(0, 0, 4).Subtract(square(1, 1, 2))
	if got, want := d.Area(), 12.0; math.Abs(got-want) > 1e-9 {
		t.Errorf("donut area = %g, want %g", got, want)
	}
	polys := d.PolygonsWithHoles()
	if len(polys) != 1 {
		t.Fatalf("expected 1 polygon, got %d", len(polys))
	}
	if len(polys[0].Holes) != 1 {
		t.Fatalf("expected 1 hole, got %d", len(polys[0].Holes))
	}
	if signedArea(polys[0].Outer) <= 0 {
		t.Error("outer ring should be counterclockwise")
	}
	if signedArea(polys[0].Holes[0]) >= 0 {
		t.Error("hole ring should be clockwise")
	}
}

func TestPolygonsWithHolesDisjoint(t *testing.T) {
	u := square(0, 0, 1).Union(square(5, 5, 1))
	polys := u.PolygonsWithHoles()
	if len(polys) != 2 {
		t.Fatalf("expected 2 disjoint polygons, got %d", len(polys))
	}
	for _, p := range polys {
		if len(p.Holes) != 0 {
			t.Errorf("unexpected hole in disjoint square")
		}
	}
}

func TestTranslateScale(t *testing.T) {
	s := square(0, 0, 2).Translate(-1, -1).Scale(0.5)
	b := s.Bounds()
	if b == nil {
		t.Fatal("nil bounds")
	}
	for _, v := range []float64{b.Min.X + 0.5, b.Min.Y + 0.5, b.Max.X - 0.5, b.Max.Y - 0.5} {
		if math.Abs(v) > 1e-12 {
			t.Fatalf("bounds not centered/scaled: %+v", b)
		}
	}
	if got := s.Area(); math.Abs(got-1) > 1e-9 {
		t.Errorf("scaled area = %g, want 1", got)
	}
}

func TestCircle(t *testing.T) {
	c := Circle(0, 0, 0.1, 128)
	if c.IsEmpty() {
		t.Fatal("circle is empty")
	}
	// Inscribed polygon area approaches πr².
	want := math.Pi * 0.01
	if got := c.Area(); math.Abs(got-want)/want > 0.01 {
		t.Errorf("circle area = %g, want ≈%g", got, want)
	}
	for _, p := range c.Polygon()[0] {
		if math.Hypot(p.X, p.Y) > 0.1+1e-12 {
			t.Fatalf("vertex outside radius: %+v", p)
		}
	}
	if !Circle(0, 0, 0, 64).IsEmpty() {
		t.Error("zero-radius circle should be empty")
	}
}

func TestClipStaysInsideDisk(t *testing.T) {
	// Two overlapping "water" squares unioned then clipped to a disk must
	// stay inside the disk.
	disk := Circle(0, 0, 0.1, 128)
	u := UnionAll([]Shape{square(-0.05, -0.05, 0.2), square(0, 0, 0.3)})
	clipped := u.Intersect(disk)
	if clipped.IsEmpty() {
		t.Fatal("clip produced empty result")
	}
	for _, r := range clipped.Polygon() {
		for _, p := range r {
			if math.Hypot(p.X, p.Y) > 0.1+1e-9 {
				t.Fatalf("clipped vertex outside disk: %+v", p)
			}
		}
	}
}

func TestRepairSelfIntersecting(t *testing.T) {
	// Bowtie: self-intersecting ring.
	bowtie := New(geom.Polygon{{
		{X: 0, Y: 0},
		{X: 2, Y: 2},
		{X: 2, Y: 0},
		{X: 0, Y: 2},
	}})
	r := bowtie.Repair()
	if r.IsEmpty() {
		t.Fatal("repair emptied the bowtie")
	}
	// However the kernel resolves the crossing, the result stays within the
	// input bounds and keeps a positive, bounded area.
	if got := r.Area(); got <= 0 || got > 4+1e-9 {
		t.Errorf("repaired area = %g, want in (0, 4]", got)
	}
	b := r.Bounds()
	if b.Min.X < -1e-6 || b.Max.X > 2+1e-6 || b.Min.Y < -1e-6 || b.Max.Y > 2+1e-6 {
		t.Errorf("repair escaped input bounds: %+v", b)
	}
}

func TestBufferLine(t *testing.T) {
	line := geom.LineString{{X: 0, Y: 0}, {X: 10, Y: 0}}
	b := BufferLine(line, 0.5)
	if b.IsEmpty() {
		t.Fatal("buffered line is empty")
	}
	// Rectangle 11 long (square caps extend 0.5 past each end), 1 wide.
	if got, want := b.Area(), 11.0; math.Abs(got-want) > 1e-9 {
		t.Errorf("buffer area = %g, want %g", got, want)
	}
	if !BufferLine(line, 0).IsEmpty() {
		t.Error("zero-width buffer should be empty")
	}
	if !BufferLine(geom.LineString{{X: 1, Y: 1}}, 0.5).IsEmpty() {
		t.Error("single-point line should buffer to empty")
	}
}

func TestBufferLineCorner(t *testing.T) {
	line := geom.LineString{{X: 0, Y: 0}, {X: 5, Y: 0}, {X: 5, Y: 5}}
	b := BufferLine(line, 0.5)
	if b.IsEmpty() {
		t.Fatal("buffered polyline is empty")
	}
	// Two 6x1 rectangles overlapping in a 1x1-plus corner region; the union
	// must be a single connected polygon.
	if len(b.PolygonsWithHoles()) != 1 {
		t.Errorf("expected one connected buffer polygon, got %d", len(b.PolygonsWithHoles()))
	}
	if b.Area() > 12.0 || b.Area() < 10.0 {
		t.Errorf("buffer area = %g, outside expected range", b.Area())
	}
}

func TestShrink(t *testing.T) {
	s := square(0, 0, 10).Shrink(1)
	if s.IsEmpty() {
		t.Fatal("shrink emptied a large square")
	}
	if got, want := s.Area(), 64.0; math.Abs(got-want) > 0.5 {
		t.Errorf("shrunken area = %g, want ≈%g", got, want)
	}

	// A polygon narrower than twice the margin is fully consumed.
	if got := square(0, 0, 1.5).Shrink(1); !got.IsEmpty() {
		t.Errorf("narrow square should be consumed, area = %g", got.Area())
	}
}

func TestSimplify(t *testing.T) {
	// A square with a redundant collinear vertex.
	s := New(geom.Polygon{{
		{X: 0, Y: 0},
		{X: 1, Y: 0},
		{X: 2, Y: 0},
		{X: 2, Y: 2},
		{X: 0, Y: 2},
	}})
	simplified := s.Simplify(0.01)
	if got := simplified.Area(); math.Abs(got-4) > 1e-9 {
		t.Errorf("simplified area = %g, want 4", got)
	}
}
