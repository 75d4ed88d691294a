package geo

import "math"

// Polygon is a closed polygon: an exterior ring plus optional holes.
// Rings are stored open, without repeating the first vertex.
type Polygon struct {
	Vertices []Point2D   `json:"vertices"`
	Holes    [][]Point2D `json:"holes,omitempty"`
}

// NewPolygon creates a polygon from a list of exterior vertices.
func NewPolygon(pts ...Point2D) Polygon {
	return Polygon{Vertices: pts}
}

// Rect returns the axis-aligned rectangle [minX,maxX] x [minY,maxY], counterclockwise.
func Rect(minX, minY, maxX, maxY float64) Polygon {
	return NewPolygon(Pt(minX, minY), Pt(maxX, minY), Pt(maxX, maxY), Pt(minX, maxY))
}

// Len returns the number of exterior vertices.
func (p Polygon) Len() int {
	return len(p.Vertices)
}

// IsEmpty returns true if the polygon has fewer than 3 vertices.
func (p Polygon) IsEmpty() bool {
	return len(p.Vertices) < 3
}

// Edge returns the i-th exterior edge as (start, end). Wraps around.
func (p Polygon) Edge(i int) (Point2D, Point2D) {
	n := len(p.Vertices)
	return p.Vertices[i%n], p.Vertices[(i+1)%n]
}

// Edges returns the exterior ring as segments.
func (p Polygon) Edges() []Segment {
	n := len(p.Vertices)
	if n < 2 {
		return nil
	}
	out := make([]Segment, 0, n)
	for i := 0; i < n; i++ {
		a, b := p.Edge(i)
		out = append(out, Segment{A: a, B: b})
	}
	return out
}

// SignedArea returns the signed area of the exterior ring using the shoelace formula.
// Positive for counterclockwise winding, negative for clockwise.
func (p Polygon) SignedArea() float64 {
	return ringSignedArea(p.Vertices)
}

// Area returns the unsigned area of the exterior minus its holes.
func (p Polygon) Area() float64 {
	a := math.Abs(ringSignedArea(p.Vertices))
	for _, h := range p.Holes {
		a -= math.Abs(ringSignedArea(h))
	}
	return math.Max(a, 0)
}

// IsCounterClockwise returns true if the exterior vertices are in CCW order.
func (p Polygon) IsCounterClockwise() bool {
	return p.SignedArea() > 0
}

// EnsureCCW returns the polygon with a counterclockwise exterior and clockwise holes.
func (p Polygon) EnsureCCW() Polygon {
	out := Polygon{Vertices: p.Vertices}
	if ringSignedArea(p.Vertices) < 0 {
		out.Vertices = reverseRing(p.Vertices)
	}
	for _, h := range p.Holes {
		if ringSignedArea(h) > 0 {
			h = reverseRing(h)
		}
		out.Holes = append(out.Holes, h)
	}
	return out
}

// Reverse returns the polygon with reversed exterior vertex order.
func (p Polygon) Reverse() Polygon {
	return Polygon{Vertices: reverseRing(p.Vertices), Holes: p.Holes}
}

// Centroid returns the area centroid of the polygon, holes included.
func (p Polygon) Centroid() Point2D {
	n := len(p.Vertices)
	if n == 0 {
		return Point2D{}
	}
	c, a := ringCentroid(p.Vertices)
	if math.Abs(a) < 1e-12 {
		return c
	}
	a = math.Abs(a)
	sum := c.Scale(a)
	total := a
	for _, h := range p.Holes {
		hc, ha := ringCentroid(h)
		ha = math.Abs(ha)
		sum = sum.Sub(hc.Scale(ha))
		total -= ha
	}
	if total < 1e-12 {
		return c
	}
	return sum.Scale(1 / total)
}

// BoundingBox returns the axis-aligned bounding box as (min, max).
func (p Polygon) BoundingBox() (Point2D, Point2D) {
	if len(p.Vertices) == 0 {
		return Point2D{}, Point2D{}
	}
	minP := p.Vertices[0]
	maxP := p.Vertices[0]
	for _, v := range p.Vertices[1:] {
		minP.X = math.Min(minP.X, v.X)
		minP.Y = math.Min(minP.Y, v.Y)
		maxP.X = math.Max(maxP.X, v.X)
		maxP.Y = math.Max(maxP.Y, v.Y)
	}
	return minP, maxP
}

// Contains returns true if the point is strictly inside the exterior and outside every hole.
func (p Polygon) Contains(pt Point2D) bool {
	if len(p.Vertices) < 3 || !ringContains(p.Vertices, pt) {
		return false
	}
	for _, h := range p.Holes {
		if ringContains(h, pt) {
			return false
		}
	}
	return true
}

// DistanceToBoundary returns the distance from pt to the nearest ring edge.
func (p Polygon) DistanceToBoundary(pt Point2D) float64 {
	best := math.Inf(1)
	for _, ring := range append([][]Point2D{p.Vertices}, p.Holes...) {
		n := len(ring)
		for i := 0; i < n; i++ {
			d := Segment{A: ring[i], B: ring[(i+1)%n]}.DistanceTo(pt)
			best = math.Min(best, d)
		}
	}
	return best
}

// Covers reports whether pt lies inside the polygon or within eps of its boundary.
func (p Polygon) Covers(pt Point2D, eps float64) bool {
	return p.Contains(pt) || p.DistanceToBoundary(pt) <= eps
}

// Perimeter returns the total exterior perimeter length.
func (p Polygon) Perimeter() float64 {
	n := len(p.Vertices)
	if n < 2 {
		return 0
	}
	total := 0.0
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		total += p.Vertices[i].Distance(p.Vertices[j])
	}
	return total
}

// Translate returns the polygon moved by d.
func (p Polygon) Translate(d Point2D) Polygon {
	out := Polygon{Vertices: make([]Point2D, len(p.Vertices))}
	for i, v := range p.Vertices {
		out.Vertices[i] = v.Add(d)
	}
	for _, h := range p.Holes {
		moved := make([]Point2D, len(h))
		for i, v := range h {
			moved[i] = v.Add(d)
		}
		out.Holes = append(out.Holes, moved)
	}
	return out
}

// Largest returns the polygon with the greatest area; the first wins ties.
// Returns an empty polygon for an empty slice.
func Largest(ps []Polygon) Polygon {
	var best Polygon
	bestArea := -1.0
	for _, p := range ps {
		if a := p.Area(); a > bestArea {
			best, bestArea = p, a
		}
	}
	return best
}

func ringSignedArea(ring []Point2D) float64 {
	n := len(ring)
	if n < 3 {
		return 0
	}
	area := 0.0
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		area += ring[i].X * ring[j].Y
		area -= ring[j].X * ring[i].Y
	}
	return area / 2
}

// ringCentroid returns the centroid and signed area of a ring. Degenerate
// rings fall back to the vertex average.
func ringCentroid(ring []Point2D) (Point2D, float64) {
	n := len(ring)
	a := ringSignedArea(ring)
	if n < 3 || math.Abs(a) < 1e-12 {
		sum := Point2D{}
		for _, v := range ring {
			sum = sum.Add(v)
		}
		return sum.Scale(1.0 / float64(n)), 0
	}
	cx, cy := 0.0, 0.0
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		cross := ring[i].X*ring[j].Y - ring[j].X*ring[i].Y
		cx += (ring[i].X + ring[j].X) * cross
		cy += (ring[i].Y + ring[j].Y) * cross
	}
	f := 1.0 / (6.0 * a)
	return Point2D{cx * f, cy * f}, a
}

// ringContains is the even-odd ray casting test.
func ringContains(ring []Point2D, pt Point2D) bool {
	n := len(ring)
	inside := false
	j := n - 1
	for i := 0; i < n; i++ {
		vi, vj := ring[i], ring[j]
		if (vi.Y > pt.Y) != (vj.Y > pt.Y) &&
			pt.X < (vj.X-vi.X)*(pt.Y-vi.Y)/(vj.Y-vi.Y)+vi.X {
			inside = !inside
		}
		j = i
	}
	return inside
}

func reverseRing(ring []Point2D) []Point2D {
	n := len(ring)
	rev := make([]Point2D, n)
	for i, v := range ring {
		rev[n-1-i] = v
	}
	return rev
}
