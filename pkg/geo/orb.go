package geo

import "github.com/paulmach/orb"

// Orb converts the polygon to an orb.Polygon with closed rings.
func (p Polygon) Orb() orb.Polygon {
	if p.IsEmpty() {
		return orb.Polygon{}
	}
	out := orb.Polygon{closeRing(p.Vertices)}
	for _, h := range p.Holes {
		if len(h) >= 3 {
			out = append(out, closeRing(h))
		}
	}
	return out
}

// PolygonFromOrb converts an orb.Polygon, dropping the closing vertex of each ring.
func PolygonFromOrb(op orb.Polygon) Polygon {
	if len(op) == 0 {
		return Polygon{}
	}
	p := Polygon{Vertices: openRing(op[0])}
	for _, r := range op[1:] {
		if h := openRing(r); len(h) >= 3 {
			p.Holes = append(p.Holes, h)
		}
	}
	return p
}

// Orb converts the segment to a two-point orb.LineString.
func (s Segment) Orb() orb.LineString {
	return orb.LineString{s.A.Orb(), s.B.Orb()}
}

// Orb converts the point to an orb.Point.
func (p Point2D) Orb() orb.Point {
	return orb.Point{p.X, p.Y}
}

// PointFromOrb converts an orb.Point.
func PointFromOrb(p orb.Point) Point2D {
	return Point2D{X: p[0], Y: p[1]}
}

// PointsFromOrb converts a line string's vertices.
func PointsFromOrb(ls orb.LineString) []Point2D {
	out := make([]Point2D, len(ls))
	for i, p := range ls {
		out[i] = PointFromOrb(p)
	}
	return out
}

func closeRing(pts []Point2D) orb.Ring {
	r := make(orb.Ring, 0, len(pts)+1)
	for _, v := range pts {
		r = append(r, v.Orb())
	}
	return append(r, pts[0].Orb())
}

func openRing(r orb.Ring) []Point2D {
	pts := PointsFromOrb(orb.LineString(r))
	if n := len(pts); n > 1 && pts[0] == pts[n-1] {
		pts = pts[:n-1]
	}
	return pts
}
