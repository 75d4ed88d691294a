package shape

import "github.com/eluisluzquadros/cogniticy/pkg/geo"

// Orthogonal proposes the oriented bounding box of the envelope, clipped
// back to the envelope.
type Orthogonal struct {
	kernel *geo.Kernel
}

// NewOrthogonal creates the generator.
func NewOrthogonal(k *geo.Kernel) *Orthogonal {
	return &Orthogonal{kernel: k}
}

// Name implements Generator.
func (o *Orthogonal) Name() string { return NameOrthogonal }

// Generate returns at most one candidate.
func (o *Orthogonal) Generate(envelope geo.Polygon) ([]Candidate, error) {
	if envelope.IsEmpty() || envelope.Area() <= minPieceArea {
		return nil, nil
	}
	obb, err := o.kernel.OrientedBoundingBox(envelope)
	if err != nil {
		return nil, err
	}
	fp, ok, err := clip(o.kernel, obb, envelope)
	if err != nil || !ok {
		return nil, err
	}
	return []Candidate{{
		Footprint:  fp,
		Generator:  NameOrthogonal,
		Shape:      "Ortogonal",
		Morphology: "O",
		Params:     map[string]any{"source": "obb"},
	}}, nil
}
