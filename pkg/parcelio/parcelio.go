// Package parcelio loads parcel boundaries and classified boundary edges from
// GeoJSON feature collections.
package parcelio

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"

	cerrors "github.com/eluisluzquadros/cogniticy/internal/errors"
	"github.com/eluisluzquadros/cogniticy/internal/logging"
	"github.com/eluisluzquadros/cogniticy/pkg/geo"
	"github.com/eluisluzquadros/cogniticy/pkg/parcel"
	"github.com/eluisluzquadros/cogniticy/pkg/zoning"
)

// Loader reads the parcel and edge layers named by a project.
type Loader struct {
	idProperty       string
	parcelProperty   string
	categoryProperty string
	crs              string
	logger           *zap.Logger
}

// NewLoader creates a loader using the property names of sim.
func NewLoader(sim zoning.Simulation, logger *zap.Logger) *Loader {
	l := &Loader{
		idProperty:       sim.ParcelIDProperty,
		parcelProperty:   sim.EdgeParcelProperty,
		categoryProperty: sim.EdgeCategoryProperty,
		crs:              sim.CRS,
		logger:           logging.OrNop(logger),
	}
	if l.idProperty == "" {
		l.idProperty = "numlote"
	}
	if l.parcelProperty == "" {
		l.parcelProperty = l.idProperty
	}
	if l.categoryProperty == "" {
		l.categoryProperty = "tipo"
	}
	return l
}

// Parcels reads a polygon layer. MultiPolygon features keep their largest
// polygon. Features without a polygon are skipped with a warning; the
// remaining properties become the parcel's zoning overrides.
func (l *Loader) Parcels(path string) ([]parcel.Parcel, error) {
	fc, err := read(path)
	if err != nil {
		return nil, err
	}
	crs := l.crs
	if crs == "" {
		crs = collectionCRS(fc)
	}

	seen := make(map[string]bool, len(fc.Features))
	out := make([]parcel.Parcel, 0, len(fc.Features))
	for i, f := range fc.Features {
		id := featureID(f, l.idProperty, i)
		log := l.logger.With(zap.String("parcel", id))

		boundary, ok := polygon(f.Geometry)
		if !ok {
			log.Warn("skipping feature without polygon geometry", zap.Int("feature", i))
			continue
		}
		if seen[id] {
			log.Warn("skipping duplicate parcel id", zap.Int("feature", i))
			continue
		}
		seen[id] = true

		props := make(map[string]any, len(f.Properties))
		for k, v := range f.Properties {
			if k != l.idProperty {
				props[k] = v
			}
		}
		out = append(out, parcel.New(id, boundary, crs, props))
	}
	l.logger.Debug("parcels loaded", zap.String("path", path), zap.Int("count", len(out)))
	return out, nil
}

// Edges reads a line layer and groups its segments by parcel ID. An empty
// path yields no classifications, which sends every parcel to the fallback.
func (l *Loader) Edges(path string) (map[string]parcel.EdgeClassification, error) {
	out := map[string]parcel.EdgeClassification{}
	if path == "" {
		return out, nil
	}
	fc, err := read(path)
	if err != nil {
		return nil, err
	}
	for i, f := range fc.Features {
		id := featureID(f, l.parcelProperty, i)
		label := fmt.Sprint(f.Properties[l.categoryProperty])
		cat, ok := parcel.ParseCategory(label)
		if !ok {
			l.logger.Warn("skipping edge with unknown category",
				zap.String("parcel", id), zap.String("category", label))
			continue
		}
		segs := segments(f.Geometry)
		if len(segs) == 0 {
			l.logger.Warn("skipping edge without line geometry", zap.String("parcel", id), zap.Int("feature", i))
			continue
		}
		ec, ok := out[id]
		if !ok {
			ec = parcel.EdgeClassification{}
			out[id] = ec
		}
		ec.Add(cat, segs...)
	}
	return out, nil
}

func read(path string) (*geojson.FeatureCollection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, cerrors.Wrapf(cerrors.KindIO, err, "reading %s", path)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, cerrors.Wrapf(cerrors.KindIO, err, "parsing GeoJSON %s", path)
	}
	return fc, nil
}

// featureID reads the ID property, then the feature id, then falls back to
// the feature index.
func featureID(f *geojson.Feature, prop string, index int) string {
	if v, ok := f.Properties[prop]; ok && v != nil {
		return idString(v)
	}
	if f.ID != nil {
		return idString(f.ID)
	}
	return "feature_" + strconv.Itoa(index)
}

func idString(v any) string {
	switch t := v.(type) {
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case string:
		return strings.TrimSpace(t)
	}
	return fmt.Sprint(v)
}

func polygon(g orb.Geometry) (geo.Polygon, bool) {
	switch t := g.(type) {
	case orb.Polygon:
		p := geo.PolygonFromOrb(t)
		return p, p.Len() >= 3
	case orb.MultiPolygon:
		ps := make([]geo.Polygon, 0, len(t))
		for _, op := range t {
			if p := geo.PolygonFromOrb(op); p.Len() >= 3 {
				ps = append(ps, p)
			}
		}
		p := geo.Largest(ps)
		return p, !p.IsEmpty()
	}
	return geo.Polygon{}, false
}

func segments(g orb.Geometry) []geo.Segment {
	switch t := g.(type) {
	case orb.LineString:
		return geo.SplitLine(geo.PointsFromOrb(t))
	case orb.MultiLineString:
		var out []geo.Segment
		for _, ls := range t {
			out = append(out, geo.SplitLine(geo.PointsFromOrb(ls))...)
		}
		return out
	}
	return nil
}

// collectionCRS reads the legacy "crs" member, e.g.
// {"type":"name","properties":{"name":"EPSG:31982"}}.
func collectionCRS(fc *geojson.FeatureCollection) string {
	crs, ok := fc.ExtraMembers["crs"].(map[string]any)
	if !ok {
		return ""
	}
	props, ok := crs["properties"].(map[string]any)
	if !ok {
		return ""
	}
	name, _ := props["name"].(string)
	return name
}
