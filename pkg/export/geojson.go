// Package export writes per-parcel GeoJSON layers and the batch summary
// table.
package export

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"

	cerrors "github.com/eluisluzquadros/cogniticy/internal/errors"
	"github.com/eluisluzquadros/cogniticy/internal/logging"
	"github.com/eluisluzquadros/cogniticy/pkg/massing"
	"github.com/eluisluzquadros/cogniticy/pkg/pipeline"
)

// Layer suffixes of the per-parcel GeoJSON files.
const (
	SuffixEnvelope          = "envelope"
	SuffixBaselineFootprint = "baseline_footprint"
	SuffixBaselineFloors    = "baseline_floors"
	SuffixBestFootprint     = "best_footprint"
	SuffixBestFloors        = "best_floors"
)

// Writer writes output files into one directory.
type Writer struct {
	dir     string
	project string
	logger  *zap.Logger
}

// NewWriter creates a writer for the project's output directory.
func NewWriter(dir, project string, logger *zap.Logger) *Writer {
	return &Writer{dir: dir, project: project, logger: logging.OrNop(logger)}
}

// FileName returns "<project>_<parcel>_<suffix>.geojson".
func (w *Writer) FileName(parcelID, suffix string) string {
	return fmt.Sprintf("%s_%s_%s.geojson", sanitize(w.project), sanitize(parcelID), suffix)
}

// Parcel writes the envelope and the baseline and best layers of a
// processed parcel and returns the written paths. Other results write
// nothing.
func (w *Writer) Parcel(r *pipeline.Result) ([]string, error) {
	if r.Status != pipeline.StatusProcessed || r.Resumed {
		return nil, nil
	}
	layers := []struct {
		suffix string
		fc     *geojson.FeatureCollection
	}{
		{SuffixEnvelope, EnvelopeFeatures(r)},
		{SuffixBaselineFootprint, FootprintFeatures(r.Baseline)},
		{SuffixBaselineFloors, FloorFeatures(r.Baseline)},
		{SuffixBestFootprint, FootprintFeatures(r.Best)},
		{SuffixBestFloors, FloorFeatures(r.Best)},
	}
	var paths []string
	for _, l := range layers {
		if len(l.fc.Features) == 0 {
			continue
		}
		path := filepath.Join(w.dir, w.FileName(r.ParcelID, l.suffix))
		if err := writeCollection(path, l.fc); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	w.logger.Debug("parcel layers written", zap.String("parcel", r.ParcelID), zap.Int("files", len(paths)))
	return paths, nil
}

// EnvelopeFeatures returns the base envelope as a single feature.
func EnvelopeFeatures(r *pipeline.Result) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	if r.Envelope.Polygon.IsEmpty() {
		return fc
	}
	f := geojson.NewFeature(r.Envelope.Polygon.Orb())
	f.Properties["numlote"] = r.ParcelID
	f.Properties["path"] = string(r.Envelope.Path)
	f.Properties["area"] = round2(r.Envelope.Area())
	f.Properties["front_setback"] = r.Envelope.Setbacks.Front
	f.Properties["back_setback"] = r.Envelope.Setbacks.Back
	f.Properties["side_setback"] = r.Envelope.Setbacks.Side
	fc.Append(f)
	return fc
}

// FootprintFeatures returns the ground footprint with the building record
// as properties. An empty massing yields an empty collection.
func FootprintFeatures(m *massing.Massing) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	if m == nil || m.Empty() {
		return fc
	}
	f := geojson.NewFeature(m.Footprint().Orb())
	f.Properties = properties(m.Record())
	fc.Append(f)
	return fc
}

// FloorFeatures returns one feature per floor with the floor record as
// properties.
func FloorFeatures(m *massing.Massing) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	if m == nil {
		return fc
	}
	for i, rec := range m.FloorRecords() {
		f := geojson.NewFeature(m.Floors[i].Footprint.Orb())
		f.Properties = properties(rec)
		fc.Append(f)
	}
	return fc
}

// properties flattens a record through its JSON tags.
func properties(rec any) geojson.Properties {
	data, err := json.Marshal(rec)
	if err != nil {
		return geojson.Properties{}
	}
	props := geojson.Properties{}
	if err := json.Unmarshal(data, &props); err != nil {
		return geojson.Properties{}
	}
	return props
}

func writeCollection(path string, fc *geojson.FeatureCollection) error {
	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return cerrors.Wrapf(cerrors.KindIO, err, "encoding %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return cerrors.Wrapf(cerrors.KindIO, err, "creating %s", filepath.Dir(path))
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return cerrors.Wrapf(cerrors.KindIO, err, "writing %s", path)
	}
	return nil
}

// ReadCollection loads a GeoJSON file written by Writer.
func ReadCollection(path string) (*geojson.FeatureCollection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, cerrors.Wrapf(cerrors.KindIO, err, "reading %s", path)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, cerrors.Wrapf(cerrors.KindIO, err, "parsing %s", path)
	}
	return fc, nil
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', ' ':
			return '_'
		}
		return r
	}, s)
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
