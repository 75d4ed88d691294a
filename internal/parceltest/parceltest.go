// Package parceltest provides edge classifications for tests that build
// parcels by hand.
package parceltest

import (
	"github.com/eluisluzquadros/cogniticy/pkg/geo"
	"github.com/eluisluzquadros/cogniticy/pkg/parcel"
)

// Classify classifies a rectangular-ish boundary by edge direction: the
// edge with the greatest Y midpoint is the front, the lowest is the back and
// the rest are sides. Only meaningful for axis-aligned lots.
func Classify(p geo.Polygon) parcel.EdgeClassification {
	edges := p.Edges()
	e := parcel.EdgeClassification{}
	if len(edges) < 3 {
		return e
	}
	hi, lo := 0, 0
	for i, s := range edges {
		if s.MidPoint().Y > edges[hi].MidPoint().Y {
			hi = i
		}
		if s.MidPoint().Y < edges[lo].MidPoint().Y {
			lo = i
		}
	}
	for i, s := range edges {
		switch i {
		case hi:
			e.Add(parcel.Front, s)
		case lo:
			e.Add(parcel.Back, s)
		default:
			e.Add(parcel.Side, s)
		}
	}
	return e
}
