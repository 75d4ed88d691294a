// Package envelope derives the buildable polygon of a parcel from its
// classified boundary edges and per-category setbacks.
//
// Two paths exist. The face-aware path offsets each classified edge inward
// by its category setback and rebuilds the enclosed face. The fallback path
// buffers the whole boundary inward by the smallest setback and is used when
// edges are missing or the face-aware path produces nothing.
package envelope

import (
	"math"

	"go.uber.org/zap"

	cerrors "github.com/eluisluzquadros/cogniticy/internal/errors"
	"github.com/eluisluzquadros/cogniticy/internal/logging"
	"github.com/eluisluzquadros/cogniticy/pkg/geo"
	"github.com/eluisluzquadros/cogniticy/pkg/parcel"
	"github.com/eluisluzquadros/cogniticy/pkg/zoning"
)

const (
	// MinSegmentLength is the shortest edge that is offset; shorter edges are ignored.
	MinSegmentLength = 1e-6

	coverEps   = 1e-6
	negligible = 1e-6
)

// Path records how an envelope was obtained.
type Path string

const (
	PathFaceAware Path = "face_aware"
	PathFallback  Path = "fallback"
	PathParcel    Path = "parcel"
)

// Setbacks holds the inward distances per edge category.
type Setbacks struct {
	Front float64 `json:"front"`
	Back  float64 `json:"back"`
	Side  float64 `json:"side"`
}

// Of returns the setback for c.
func (s Setbacks) Of(c parcel.Category) float64 {
	switch c {
	case parcel.Front:
		return s.Front
	case parcel.Back:
		return s.Back
	default:
		return s.Side
	}
}

// Min returns the smallest of the three setbacks.
func (s Setbacks) Min() float64 {
	return math.Min(s.Front, math.Min(s.Back, s.Side))
}

// Zero reports whether every setback is zero.
func (s Setbacks) Zero() bool {
	return s.Front == 0 && s.Back == 0 && s.Side == 0
}

// FromZoning returns the minimum setbacks of a zoning envelope.
func FromZoning(z zoning.Envelope) Setbacks {
	return Setbacks{Front: z.MinFrontSetback, Back: z.MinBackSetback, Side: z.MinSideSetback}
}

// Result is a derived envelope together with the path that produced it.
type Result struct {
	Polygon  geo.Polygon `json:"polygon"`
	Path     Path        `json:"path"`
	Setbacks Setbacks    `json:"setbacks"`
}

// Area returns the envelope area.
func (r Result) Area() float64 { return r.Polygon.Area() }

// Engine derives envelopes on one geometry kernel.
type Engine struct {
	kernel *geo.Kernel
	logger *zap.Logger
}

// NewEngine creates an engine on the given kernel. A nil logger discards output.
func NewEngine(k *geo.Kernel, logger *zap.Logger) *Engine {
	return &Engine{kernel: k, logger: logging.OrNop(logger)}
}

// Kernel returns the geometry kernel the engine runs on.
func (e *Engine) Kernel() *geo.Kernel { return e.kernel }

// Derive returns the buildable polygon for the given setbacks. It fails
// with an ENVELOPE_EMPTY error when neither path yields a polygon.
func (e *Engine) Derive(p parcel.Parcel, edges parcel.EdgeClassification, front, back, side float64) (geo.Polygon, error) {
	r, err := e.Trace(p, edges, Setbacks{Front: front, Back: back, Side: side})
	return r.Polygon, err
}

// Base derives the ground envelope from the zoning minimum setbacks.
func (e *Engine) Base(p parcel.Parcel, edges parcel.EdgeClassification, z zoning.Envelope) (Result, error) {
	return e.Trace(p, edges, FromZoning(z))
}

// Trace is Derive that also reports which path produced the polygon.
func (e *Engine) Trace(p parcel.Parcel, edges parcel.EdgeClassification, sb Setbacks) (Result, error) {
	log := e.logger.With(zap.String("parcel", p.ID))
	res := Result{Setbacks: sb}

	if p.Boundary.IsEmpty() {
		return res, cerrors.EnvelopeEmpty("parcel %s has no boundary", p.ID)
	}

	if edges.HasAny() {
		poly, err := e.faceAware(log, p.Boundary, edges, sb)
		if err == nil {
			res.Polygon, res.Path = poly, PathFaceAware
			return res, nil
		}
		log.Warn("face-aware envelope failed, using uniform buffer",
			zap.String("edges", edges.Summary()),
			zap.Error(err))
	} else {
		log.Warn("no classified edges, using uniform buffer")
	}

	poly, path, err := e.fallback(p.Boundary, sb)
	if err != nil {
		return res, cerrors.Wrapf(cerrors.KindEnvelopeEmpty, err, "no envelope for parcel %s", p.ID)
	}
	res.Polygon, res.Path = poly, path
	return res, nil
}

// FaceAware derives the envelope from the classified edges only, without
// the uniform buffer fallback.
func (e *Engine) FaceAware(p parcel.Parcel, edges parcel.EdgeClassification, sb Setbacks) (geo.Polygon, error) {
	if p.Boundary.IsEmpty() || !edges.HasAny() {
		return geo.Polygon{}, cerrors.EnvelopeEmpty("parcel %s has no classified edges", p.ID)
	}
	return e.faceAware(e.logger.With(zap.String("parcel", p.ID)), p.Boundary, edges, sb)
}

// faceAware offsets each classified edge and polygonizes the result.
func (e *Engine) faceAware(log *zap.Logger, boundary geo.Polygon, edges parcel.EdgeClassification, sb Setbacks) (geo.Polygon, error) {
	centroid := boundary.Centroid()

	var lines []geo.Segment
	for _, c := range parcel.Categories {
		d := sb.Of(c)
		switch {
		case d < 0:
			log.Warn("negative setback ignored",
				zap.String("category", string(c)),
				zap.Float64("setback", d))
		case d == 0:
			lines = append(lines, edges[c]...)
		default:
			for _, s := range edges[c] {
				if s.Length() < MinSegmentLength {
					continue
				}
				off, err := e.inward(log, boundary, centroid, s, d)
				if err != nil {
					log.Warn("edge offset failed",
						zap.String("category", string(c)),
						zap.Float64("length", s.Length()),
						zap.Error(err))
					continue
				}
				lines = append(lines, off)
			}
		}
	}

	if len(lines) == 0 {
		if sb.Zero() {
			return boundary, nil
		}
		return geo.Polygon{}, cerrors.EnvelopeEmpty("no offset lines were produced")
	}

	faces, err := e.kernel.Polygonize(lines)
	if err != nil {
		return geo.Polygon{}, err
	}
	if len(faces) == 0 {
		return geo.Polygon{}, cerrors.EnvelopeEmpty("offset lines do not enclose a face")
	}

	var best geo.Polygon
	bestArea := 0.0
	for _, f := range faces {
		f, err := e.kernel.Repair(f.EnsureCCW())
		if err != nil {
			continue
		}
		pieces, err := e.kernel.Intersection(f, boundary)
		if err != nil || len(pieces) == 0 {
			continue
		}
		piece := geo.Largest(pieces)
		if a := piece.Area(); a > bestArea {
			best, bestArea = piece, a
		}
	}
	if bestArea <= negligible {
		return geo.Polygon{}, cerrors.EnvelopeEmpty("no face survives clipping to the parcel")
	}
	return best, nil
}

// inward offsets s by d toward the parcel interior: the side whose offset
// midpoint is covered by the boundary. When both or neither are covered the
// side closer to the centroid is taken, so the choice does not depend on the
// direction the edge was drawn in.
func (e *Engine) inward(log *zap.Logger, boundary geo.Polygon, centroid geo.Point2D, s geo.Segment, d float64) (geo.Segment, error) {
	left, errL := e.kernel.OffsetSegment(s, d)
	right, errR := e.kernel.OffsetSegment(s, -d)
	switch {
	case errL != nil && errR != nil:
		return geo.Segment{}, errL
	case errR != nil:
		return left, nil
	case errL != nil:
		return right, nil
	}

	inL := boundary.Covers(left.MidPoint(), coverEps)
	inR := boundary.Covers(right.MidPoint(), coverEps)
	switch {
	case inL && !inR:
		return left, nil
	case inR && !inL:
		return right, nil
	}
	log.Debug("ambiguous offset side, choosing by centroid distance",
		zap.Float64("length", s.Length()),
		zap.Bool("both_covered", inL))
	if centroid.Distance(left.MidPoint()) <= centroid.Distance(right.MidPoint()) {
		return left, nil
	}
	return right, nil
}

// fallback buffers the whole boundary inward by the smallest setback.
func (e *Engine) fallback(boundary geo.Polygon, sb Setbacks) (geo.Polygon, Path, error) {
	d := sb.Min()
	if d <= negligible {
		return boundary, PathParcel, nil
	}
	pieces, err := e.kernel.Buffer(boundary, -d)
	if err != nil {
		return geo.Polygon{}, PathFallback, err
	}
	best := geo.Largest(pieces)
	if best.IsEmpty() || best.Area() <= negligible {
		return geo.Polygon{}, PathFallback, cerrors.EnvelopeEmpty("inward buffer of %.2f collapses the parcel", d)
	}
	return best, PathFallback, nil
}
