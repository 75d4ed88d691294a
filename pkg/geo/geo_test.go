package geo

import (
	"math"
	"testing"
)

const tolerance = 0.01

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) < tol
}

// --- Point2D tests ---

func TestPointDistance(t *testing.T) {
	a := Pt(0, 0)
	b := Pt(3, 4)
	if !approxEqual(a.Distance(b), 5.0, tolerance) {
		t.Errorf("expected distance 5.0, got %f", a.Distance(b))
	}
}

func TestPointNormalize(t *testing.T) {
	p := Pt(3, 4)
	n := p.Normalize()
	if !approxEqual(n.Length(), 1.0, tolerance) {
		t.Errorf("expected unit length, got %f", n.Length())
	}
	if z := Origin.Normalize(); z != Origin {
		t.Errorf("expected zero vector, got %v", z)
	}
}

func TestPointLerp(t *testing.T) {
	a := Pt(0, 0)
	b := Pt(10, 10)
	mid := a.Lerp(b, 0.5)
	if !approxEqual(mid.X, 5, tolerance) || !approxEqual(mid.Y, 5, tolerance) {
		t.Errorf("expected (5,5), got (%f,%f)", mid.X, mid.Y)
	}
}

func TestPointPerpIsOrthogonal(t *testing.T) {
	p := Pt(2, 7)
	if !approxEqual(p.Dot(p.Perp()), 0, tolerance) {
		t.Errorf("expected perpendicular vector, dot = %f", p.Dot(p.Perp()))
	}
	if p.Cross(p.Perp()) <= 0 {
		t.Error("expected Perp to rotate counterclockwise")
	}
}

// --- Segment tests ---

func TestSegmentDistanceTo(t *testing.T) {
	s := Seg(0, 0, 10, 0)
	cases := []struct {
		pt   Point2D
		want float64
	}{
		{Pt(5, 3), 3},
		{Pt(-4, 3), 5},
		{Pt(13, -4), 5},
		{Pt(7, 0), 0},
	}
	for _, c := range cases {
		if got := s.DistanceTo(c.pt); !approxEqual(got, c.want, tolerance) {
			t.Errorf("DistanceTo(%v) = %f, want %f", c.pt, got, c.want)
		}
	}
}

func TestSplitLine(t *testing.T) {
	segs := SplitLine([]Point2D{Pt(0, 0), Pt(5, 0), Pt(5, 0), Pt(5, 5)})
	if len(segs) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segs))
	}
	if segs[1].A != Pt(5, 0) || segs[1].B != Pt(5, 5) {
		t.Errorf("unexpected second segment %v", segs[1])
	}
}

// --- Polygon tests ---

func TestPolygonAreaSquare(t *testing.T) {
	sq := Rect(0, 0, 10, 10)
	if !approxEqual(sq.Area(), 100, tolerance) {
		t.Errorf("expected area 100, got %f", sq.Area())
	}
}

func TestPolygonAreaTriangle(t *testing.T) {
	tri := NewPolygon(Pt(0, 0), Pt(10, 0), Pt(0, 10))
	if !approxEqual(tri.Area(), 50, tolerance) {
		t.Errorf("expected area 50, got %f", tri.Area())
	}
}

func TestPolygonAreaWithHole(t *testing.T) {
	p := Rect(0, 0, 10, 10)
	p.Holes = [][]Point2D{Rect(4, 4, 6, 6).Vertices}
	if !approxEqual(p.Area(), 96, tolerance) {
		t.Errorf("expected area 96, got %f", p.Area())
	}
	if p.Contains(Pt(5, 5)) {
		t.Error("expected hole centre to be outside")
	}
	if !p.Contains(Pt(1, 1)) {
		t.Error("expected (1,1) inside")
	}
}

func TestPolygonCentroid(t *testing.T) {
	c := Rect(0, 0, 10, 10).Centroid()
	if !approxEqual(c.X, 5, tolerance) || !approxEqual(c.Y, 5, tolerance) {
		t.Errorf("expected centroid (5,5), got (%f,%f)", c.X, c.Y)
	}
}

func TestPolygonCentroidLShape(t *testing.T) {
	// Two 10x10 squares side by side plus one on top of the left one.
	l := NewPolygon(Pt(0, 0), Pt(20, 0), Pt(20, 10), Pt(10, 10), Pt(10, 20), Pt(0, 20))
	c := l.Centroid()
	want := 25.0 / 3.0
	if !approxEqual(c.X, want, tolerance) || !approxEqual(c.Y, want, tolerance) {
		t.Errorf("expected centroid (%f,%f), got (%f,%f)", want, want, c.X, c.Y)
	}
}

func TestPolygonEnsureCCW(t *testing.T) {
	cw := Rect(0, 0, 10, 10).Reverse()
	if cw.IsCounterClockwise() {
		t.Fatal("expected reversed rectangle to be clockwise")
	}
	if !cw.EnsureCCW().IsCounterClockwise() {
		t.Error("expected EnsureCCW to produce counterclockwise ring")
	}
}

func TestPolygonContains(t *testing.T) {
	sq := Rect(0, 0, 10, 10)
	if !sq.Contains(Pt(5, 5)) {
		t.Error("expected (5,5) inside square")
	}
	if sq.Contains(Pt(15, 5)) {
		t.Error("expected (15,5) outside square")
	}
	if sq.Contains(Pt(-1, 5)) {
		t.Error("expected (-1,5) outside square")
	}
}

func TestPolygonCoversBoundary(t *testing.T) {
	sq := Rect(0, 0, 10, 10)
	if !sq.Covers(Pt(10, 5), 1e-9) {
		t.Error("expected boundary point to be covered")
	}
	if sq.Covers(Pt(10.5, 5), 1e-9) {
		t.Error("expected outside point not to be covered")
	}
}

func TestPolygonBoundingBox(t *testing.T) {
	p := NewPolygon(Pt(-5, -3), Pt(10, 0), Pt(7, 12))
	mn, mx := p.BoundingBox()
	if !approxEqual(mn.X, -5, tolerance) || !approxEqual(mn.Y, -3, tolerance) {
		t.Errorf("expected min (-5,-3), got (%f,%f)", mn.X, mn.Y)
	}
	if !approxEqual(mx.X, 10, tolerance) || !approxEqual(mx.Y, 12, tolerance) {
		t.Errorf("expected max (10,12), got (%f,%f)", mx.X, mx.Y)
	}
}

func TestPolygonPerimeter(t *testing.T) {
	if p := Rect(0, 0, 10, 10).Perimeter(); !approxEqual(p, 40, tolerance) {
		t.Errorf("expected perimeter 40, got %f", p)
	}
}

func TestPolygonTranslate(t *testing.T) {
	moved := Rect(0, 0, 8, 8).Translate(Pt(100, 50))
	mn, mx := moved.BoundingBox()
	if mn != Pt(100, 50) || mx != Pt(108, 58) {
		t.Errorf("unexpected bounds %v %v", mn, mx)
	}
}

func TestLargestFirstWinsTies(t *testing.T) {
	a := Rect(0, 0, 2, 2)
	b := Rect(10, 10, 12, 12)
	c := Rect(0, 0, 1, 1)
	got := Largest([]Polygon{c, a, b})
	if got.Vertices[0] != a.Vertices[0] {
		t.Errorf("expected first of the equal-area polygons, got %v", got.Vertices[0])
	}
	if !Largest(nil).IsEmpty() {
		t.Error("expected empty polygon for no input")
	}
}

func TestOrbRoundTripDropsClosingVertex(t *testing.T) {
	p := Rect(0, 0, 4, 3)
	p.Holes = [][]Point2D{Rect(1, 1, 2, 2).Vertices}
	op := p.Orb()
	if len(op[0]) != 5 {
		t.Fatalf("expected closed exterior ring of 5 points, got %d", len(op[0]))
	}
	back := PolygonFromOrb(op)
	if back.Len() != 4 || len(back.Holes) != 1 {
		t.Errorf("expected 4 vertices and 1 hole, got %d and %d", back.Len(), len(back.Holes))
	}
}
