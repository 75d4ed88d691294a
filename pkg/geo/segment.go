package geo

// Segment is a straight boundary piece between two points.
type Segment struct {
	A Point2D `json:"a"`
	B Point2D `json:"b"`
}

// Seg is a shorthand constructor for Segment.
func Seg(ax, ay, bx, by float64) Segment {
	return Segment{A: Pt(ax, ay), B: Pt(bx, by)}
}

// Length returns the segment length.
func (s Segment) Length() float64 {
	return s.A.Distance(s.B)
}

// MidPoint returns the point halfway along the segment.
func (s Segment) MidPoint() Point2D {
	return MidPoint(s.A, s.B)
}

// Reverse returns the segment with its endpoints swapped.
func (s Segment) Reverse() Segment {
	return Segment{A: s.B, B: s.A}
}

// DistanceTo returns the shortest distance from pt to the segment.
func (s Segment) DistanceTo(pt Point2D) float64 {
	d := s.B.Sub(s.A)
	l2 := d.Dot(d)
	if l2 < 1e-24 {
		return pt.Distance(s.A)
	}
	t := pt.Sub(s.A).Dot(d) / l2
	switch {
	case t <= 0:
		return pt.Distance(s.A)
	case t >= 1:
		return pt.Distance(s.B)
	}
	return pt.Distance(s.A.Lerp(s.B, t))
}

// SplitLine breaks a polyline into its consecutive two-point segments,
// dropping repeated vertices.
func SplitLine(pts []Point2D) []Segment {
	var out []Segment
	for i := 1; i < len(pts); i++ {
		if pts[i] == pts[i-1] {
			continue
		}
		out = append(out, Segment{A: pts[i-1], B: pts[i]})
	}
	return out
}
