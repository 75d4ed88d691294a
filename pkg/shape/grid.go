package shape

import "github.com/eluisluzquadros/cogniticy/pkg/geo"

// Atomic primitives placed at each sample point.
var (
	cornerPrimitive = geo.Rect(0, 0, 8, 8)
	slabPrimitive   = geo.Rect(-4, -12, 4, 12)
)

// cornerEvery places a corner instead of a slab on every n-th sample point.
const cornerEvery = 5

// GridAllocated composes a footprint from slab and corner primitives placed
// on sample points of the envelope.
type GridAllocated struct {
	kernel  *geo.Kernel
	sampler Sampler
}

// NewGridAllocated creates the generator with the given sampler.
func NewGridAllocated(k *geo.Kernel, s Sampler) *GridAllocated {
	return &GridAllocated{kernel: k, sampler: s}
}

// Name implements Generator.
func (g *GridAllocated) Name() string { return NameGrid }

// Generate returns the union of all envelope-clipped primitives as a single
// candidate, or nothing when no primitive lands in the envelope.
func (g *GridAllocated) Generate(envelope geo.Polygon) ([]Candidate, error) {
	if envelope.IsEmpty() {
		return nil, nil
	}
	pts := g.sampler.Sample(envelope)

	var pieces []geo.Polygon
	slabs, corners := 0, 0
	for i, pt := range pts {
		prim := slabPrimitive
		if i%cornerEvery == 0 {
			prim = cornerPrimitive
			corners++
		} else {
			slabs++
		}
		clipped, err := g.kernel.Intersection(prim.Translate(pt), envelope)
		if err != nil {
			return nil, err
		}
		pieces = append(pieces, clipped...)
	}
	if len(pieces) == 0 {
		return nil, nil
	}

	union, err := g.kernel.Union(pieces)
	if err != nil {
		return nil, err
	}
	fp := geo.Largest(union)
	if fp.IsEmpty() || fp.Area() <= minPieceArea {
		return nil, nil
	}
	return []Candidate{{
		Footprint:  fp,
		Generator:  NameGrid,
		Shape:      "Grid Allocation",
		Morphology: "GRID",
		Params: map[string]any{
			"resolution": g.sampler.Resolution(),
			"points":     len(pts),
			"slabs":      slabs,
			"corners":    corners,
		},
	}}, nil
}
