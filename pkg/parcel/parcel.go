// Package parcel holds the immutable per-lot inputs of the massing engine:
// the boundary polygon and its classified boundary edges.
package parcel

import (
	"sort"
	"strconv"
	"strings"

	"github.com/eluisluzquadros/cogniticy/pkg/geo"
)

// Parcel is a lot boundary in a projected CRS. It is read-only once built.
type Parcel struct {
	ID       string
	Boundary geo.Polygon
	CRS      string
	Area     float64

	// Properties are the flat per-parcel overrides carried by the source feature.
	Properties map[string]any
}

// New builds a parcel and computes its planar area.
func New(id string, boundary geo.Polygon, crs string, props map[string]any) Parcel {
	return Parcel{
		ID:         id,
		Boundary:   boundary.EnsureCCW(),
		CRS:        crs,
		Area:       boundary.Area(),
		Properties: props,
	}
}

// Category is a boundary edge class.
type Category string

const (
	Front Category = "front"
	Back  Category = "back"
	Side  Category = "side"
)

// Categories lists the edge classes in the order the envelope engine visits them.
var Categories = []Category{Front, Back, Side}

var categoryAliases = map[string]Category{
	"front":    Front,
	"frente":   Front,
	"back":     Back,
	"fundo":    Back,
	"fundos":   Back,
	"side":     Side,
	"lateral":  Side,
	"laterais": Side,
}

// ParseCategory maps a source label to a Category. Labels are matched
// case-insensitively and include the Portuguese names used by cadastral data.
func ParseCategory(label string) (Category, bool) {
	c, ok := categoryAliases[strings.ToLower(strings.TrimSpace(label))]
	return c, ok
}

// EdgeClassification maps each category to its ordered boundary segments.
type EdgeClassification map[Category][]geo.Segment

// Add appends segments to a category.
func (e EdgeClassification) Add(c Category, segs ...geo.Segment) {
	e[c] = append(e[c], segs...)
}

// HasAny reports whether at least one of front, back or side carries a segment.
func (e EdgeClassification) HasAny() bool {
	for _, c := range Categories {
		if len(e[c]) > 0 {
			return true
		}
	}
	return false
}

// Count returns the number of segments across all categories.
func (e EdgeClassification) Count() int {
	n := 0
	for _, c := range Categories {
		n += len(e[c])
	}
	return n
}

// Summary renders the per-category segment counts, e.g. "back=1 front=1 side=2".
func (e EdgeClassification) Summary() string {
	parts := make([]string, 0, len(e))
	for c, segs := range e {
		parts = append(parts, string(c)+"="+strconv.Itoa(len(segs)))
	}
	sort.Strings(parts)
	return strings.Join(parts, " ")
}
