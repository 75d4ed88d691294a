package geo

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/twpayne/go-geos"

	cerrors "github.com/eluisluzquadros/cogniticy/internal/errors"
)

const (
	quadSegs   = 8
	mitreLimit = 5.0
)

// Kernel runs polygon operations on GEOS. Geometries cross the boundary as
// WKT so that the rest of the module only sees Polygon and Segment values.
//
// A Kernel owns one GEOS context. Create one per parcel when processing in
// parallel.
type Kernel struct {
	ctx *geos.Context
}

// NewKernel returns a kernel with a fresh GEOS context.
func NewKernel() *Kernel {
	return &Kernel{ctx: geos.NewContext()}
}

// IsValid reports whether GEOS considers p a valid polygon.
func (k *Kernel) IsValid(p Polygon) bool {
	valid := false
	_ = k.do("is_valid", func() error {
		g, err := k.geom(p.Orb())
		if err != nil {
			return err
		}
		valid = !g.IsEmpty() && g.IsValid()
		return nil
	})
	return valid
}

// Repair returns p unchanged when valid; otherwise it runs MakeValid and
// keeps the largest polygonal piece.
func (k *Kernel) Repair(p Polygon) (Polygon, error) {
	var out Polygon
	err := k.do("repair", func() error {
		g, err := k.geom(p.Orb())
		if err != nil {
			return err
		}
		if !g.IsEmpty() && g.IsValid() {
			out = p
			return nil
		}
		ps, err := k.polygons(g.MakeValid())
		if err != nil {
			return err
		}
		if len(ps) == 0 {
			return fmt.Errorf("no polygonal part survives repair")
		}
		out = Largest(ps)
		return nil
	})
	return out, err
}

// Intersection returns the polygonal parts of a ∩ b.
func (k *Kernel) Intersection(a, b Polygon) ([]Polygon, error) {
	var out []Polygon
	err := k.do("intersection", func() error {
		ga, err := k.geom(a.Orb())
		if err != nil {
			return err
		}
		gb, err := k.geom(b.Orb())
		if err != nil {
			return err
		}
		out, err = k.polygons(ga.Intersection(gb))
		return err
	})
	return out, err
}

// Union dissolves ps into disjoint polygons.
func (k *Kernel) Union(ps []Polygon) ([]Polygon, error) {
	if len(ps) == 0 {
		return nil, nil
	}
	var out []Polygon
	err := k.do("union", func() error {
		c := make(orb.Collection, 0, len(ps))
		for _, p := range ps {
			if !p.IsEmpty() {
				c = append(c, p.Orb())
			}
		}
		g, err := k.geom(c)
		if err != nil {
			return err
		}
		out, err = k.polygons(g.UnaryUnion())
		return err
	})
	return out, err
}

// Buffer offsets the polygon boundary by d (negative shrinks) with flat caps
// and mitred joins.
func (k *Kernel) Buffer(p Polygon, d float64) ([]Polygon, error) {
	var out []Polygon
	err := k.do("buffer", func() error {
		g, err := k.geom(p.Orb())
		if err != nil {
			return err
		}
		out, err = k.polygons(g.BufferWithStyle(d, quadSegs, geos.BufCapStyleFlat, geos.BufJoinStyleMitre, mitreLimit))
		return err
	})
	return out, err
}

// OffsetSegment returns the segment shifted by d to its left (d > 0) or
// right (d < 0).
func (k *Kernel) OffsetSegment(s Segment, d float64) (Segment, error) {
	var out Segment
	err := k.do("offset", func() error {
		g, err := k.geom(s.Orb())
		if err != nil {
			return err
		}
		off := g.OffsetCurve(d, quadSegs, geos.BufJoinStyleMitre, mitreLimit)
		if off.IsEmpty() {
			return fmt.Errorf("offset of %v by %.3f is empty", s, d)
		}
		parsed, err := wkt.Unmarshal(off.ToWKT())
		if err != nil {
			return err
		}
		var ls orb.LineString
		switch t := parsed.(type) {
		case orb.LineString:
			ls = t
		case orb.MultiLineString:
			if len(t) > 0 {
				ls = t[0]
			}
		}
		if len(ls) < 2 {
			return fmt.Errorf("offset of %v by %.3f is not a line", s, d)
		}
		out = Segment{A: PointFromOrb(ls[0]), B: PointFromOrb(ls[len(ls)-1])}
		return nil
	})
	return out, err
}

// Polygonize nodes the segments and returns every closed face they bound.
func (k *Kernel) Polygonize(lines []Segment) ([]Polygon, error) {
	if len(lines) == 0 {
		return nil, nil
	}
	var out []Polygon
	err := k.do("polygonize", func() error {
		mls := make(orb.MultiLineString, 0, len(lines))
		for _, s := range lines {
			mls = append(mls, s.Orb())
		}
		g, err := k.geom(mls)
		if err != nil {
			return err
		}
		noded := g.UnaryUnion()
		out, err = k.polygons(k.ctx.Polygonize([]*geos.Geom{noded}))
		return err
	})
	return out, err
}

// OrientedBoundingBox returns the minimum-area rotated rectangle around p.
func (k *Kernel) OrientedBoundingBox(p Polygon) (Polygon, error) {
	var out Polygon
	err := k.do("oriented_bounding_box", func() error {
		g, err := k.geom(p.Orb())
		if err != nil {
			return err
		}
		ps, err := k.polygons(g.MinimumRotatedRectangle())
		if err != nil {
			return err
		}
		if len(ps) == 0 {
			return fmt.Errorf("bounding rectangle collapsed")
		}
		out = ps[0]
		return nil
	})
	return out, err
}

// do runs fn, converting both returned errors and GEOS panics into
// degenerate-geometry errors.
func (k *Kernel) do(op string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = cerrors.Degenerate(op, fmt.Errorf("%v", r))
		}
	}()
	if err := fn(); err != nil {
		return cerrors.Degenerate(op, err)
	}
	return nil
}

func (k *Kernel) geom(g orb.Geometry) (*geos.Geom, error) {
	return k.ctx.NewGeomFromWKT(wkt.MarshalString(g))
}

// polygons flattens g into its non-empty polygon parts.
func (k *Kernel) polygons(g *geos.Geom) ([]Polygon, error) {
	if g == nil || g.IsEmpty() {
		return nil, nil
	}
	switch g.TypeID() {
	case geos.TypeIDPolygon:
		op, err := wkt.UnmarshalPolygon(g.ToWKT())
		if err != nil {
			return nil, err
		}
		if p := PolygonFromOrb(op); !p.IsEmpty() && p.Area() > 0 {
			return []Polygon{p}, nil
		}
		return nil, nil
	case geos.TypeIDMultiPolygon, geos.TypeIDGeometryCollection:
		var out []Polygon
		for i := 0; i < g.NumGeometries(); i++ {
			ps, err := k.polygons(g.Geometry(i))
			if err != nil {
				return nil, err
			}
			out = append(out, ps...)
		}
		return out, nil
	}
	return nil, nil
}
