package massing

import (
	"math"

	"go.uber.org/zap"

	"github.com/eluisluzquadros/cogniticy/internal/logging"
	"github.com/eluisluzquadros/cogniticy/pkg/envelope"
	"github.com/eluisluzquadros/cogniticy/pkg/geo"
	"github.com/eluisluzquadros/cogniticy/pkg/parcel"
	"github.com/eluisluzquadros/cogniticy/pkg/shape"
	"github.com/eluisluzquadros/cogniticy/pkg/zoning"
)

// negligibleFloor is the ground floor area below which even floor 0 is refused.
const negligibleFloor = 0.01

// MaxFloors bounds the stack when the height and FAR limits are too loose to stop it.
const MaxFloors = 500

// StackBuilder grows floors for one parcel. The parcel, its edges and its
// zoning are fixed at construction; each Build call stacks one candidate.
type StackBuilder struct {
	engine *envelope.Engine
	parcel parcel.Parcel
	edges  parcel.EdgeClassification
	zoning zoning.Envelope
	logger *zap.Logger
}

// NewStackBuilder creates a builder for parcel p.
func NewStackBuilder(engine *envelope.Engine, p parcel.Parcel, edges parcel.EdgeClassification, z zoning.Envelope, logger *zap.Logger) *StackBuilder {
	return &StackBuilder{
		engine: engine,
		parcel: p,
		edges:  edges,
		zoning: z,
		logger: logging.OrNop(logger).With(zap.String("parcel", p.ID)),
	}
}

// Zoning returns the constraint set the builder stacks under.
func (b *StackBuilder) Zoning() zoning.Envelope { return b.zoning }

// stack is the Growing state of the builder.
type stack struct {
	index  int
	height float64
	area   float64
	floors []Floor
}

// Build stacks floors on the candidate footprint until a limit stops it.
// A massing with no floors is a valid result.
func (b *StackBuilder) Build(c shape.Candidate) *Massing {
	m := &Massing{
		ParcelID:   b.parcel.ID,
		Generator:  c.Generator,
		Shape:      c.Shape,
		Morphology: c.Morphology,
		Params:     c.Params,
		ParcelArea: b.parcel.Area,
		Zoning:     b.zoning,
	}
	if c.Footprint.IsEmpty() || c.Footprint.Area() <= negligibleArea {
		m.Stop = StopEmptyCandidate
		return m
	}

	st := &stack{}
	for {
		f, reason := b.step(st, c.Footprint)
		if reason != StopNone {
			m.Stop = reason
			break
		}
		st.floors = append(st.floors, f)
		st.area += f.Area
		st.height += f.Height
		st.index++
	}
	m.Floors = st.floors
	m.minSide = b.minSide(m.Footprint())

	b.logger.Debug("stacking stopped",
		zap.String("shape", c.Shape),
		zap.Int("floors", len(m.Floors)),
		zap.Float64("height", m.TotalHeight()),
		zap.String("reason", string(m.Stop)))
	return m
}

// step computes floor st.index or the reason it cannot be built.
func (b *StackBuilder) step(st *stack, base geo.Polygon) (Floor, StopReason) {
	z := b.zoning
	i := st.index

	// Negated comparisons so a NaN limit stops the stack.
	h := z.FloorHeight(i)
	if i >= MaxFloors || !(h > 0) || !(st.height+h <= z.MaxHeight*Tolerance) {
		return Floor{}, StopHeight
	}

	sb := envelope.FromZoning(z)
	footprint := base
	progressive := z.ProgressiveSetback(i)
	if progressive {
		sb.Back += st.height * z.BackSetbackGrowthRate
		fp, ok := b.setBack(base, sb)
		if !ok {
			return Floor{}, StopSetback
		}
		footprint = fp
	}

	area := footprint.Area()
	if b.parcel.Area > negligibleArea && !((st.area+area)/b.parcel.Area <= z.MaxFAR*Tolerance) {
		return Floor{}, StopFAR
	}
	if area < z.MinFloorArea && (i > 0 || area <= negligibleFloor) {
		return Floor{}, StopMinArea
	}

	return Floor{
		Index:        i,
		Footprint:    footprint,
		BaseHeight:   st.height,
		TopHeight:    st.height + h,
		Height:       h,
		Area:         area,
		HasSetback:   progressive,
		FrontSetback: sb.Front,
		BackSetback:  sb.Back,
		SideSetback:  sb.Side,
	}, StopNone
}

// setBack re-derives the envelope with the grown back setback and keeps the
// part of the candidate footprint that still fits. Only the face-aware path
// is used: the uniform buffer cannot express a back-only setback.
func (b *StackBuilder) setBack(base geo.Polygon, sb envelope.Setbacks) (geo.Polygon, bool) {
	env, err := b.engine.FaceAware(b.parcel, b.edges, sb)
	if err != nil {
		b.logger.Debug("vertical setback leaves no envelope", zap.Float64("back", sb.Back), zap.Error(err))
		return geo.Polygon{}, false
	}
	pieces, err := b.engine.Kernel().Intersection(env, base)
	if err != nil {
		b.logger.Debug("vertical setback clip failed", zap.Error(err))
		return geo.Polygon{}, false
	}
	fp := geo.Largest(pieces)
	if fp.IsEmpty() || fp.Area() <= negligibleArea {
		return geo.Polygon{}, false
	}
	return fp, true
}

func (b *StackBuilder) minSide(footprint geo.Polygon) float64 {
	if footprint.IsEmpty() {
		return 0
	}
	obb, err := b.engine.Kernel().OrientedBoundingBox(footprint)
	if err != nil {
		return 0
	}
	shortest := math.Inf(1)
	for _, e := range obb.Edges() {
		if l := e.Length(); l > negligibleArea && l < shortest {
			shortest = l
		}
	}
	if math.IsInf(shortest, 1) {
		return 0
	}
	return shortest
}
