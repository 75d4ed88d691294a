package shape

import (
	"fmt"

	"github.com/eluisluzquadros/cogniticy/pkg/geo"
)

// DefaultRatios are the leg ratios tried when none are configured.
var DefaultRatios = []float64{0.4, 0.5, 0.6}

// Composite proposes L-shaped footprints built from two rectangular legs
// sized as a fraction of the envelope's bounding box.
type Composite struct {
	kernel *geo.Kernel
	ratios []float64
}

// NewComposite creates the generator. An empty ratio list uses DefaultRatios.
func NewComposite(k *geo.Kernel, ratios []float64) *Composite {
	if len(ratios) == 0 {
		ratios = DefaultRatios
	}
	return &Composite{kernel: k, ratios: ratios}
}

// Name implements Generator.
func (c *Composite) Name() string { return NameComposite }

type lVariant struct {
	code string
	legs func(minP, maxP geo.Point2D, rw, rh float64) [2]geo.Polygon
}

var lVariants = []lVariant{
	{
		// Vertical leg on the left, horizontal leg along the bottom.
		code: "V1",
		legs: func(minP, maxP geo.Point2D, rw, rh float64) [2]geo.Polygon {
			return [2]geo.Polygon{
				geo.Rect(minP.X, minP.Y, minP.X+rw, maxP.Y),
				geo.Rect(minP.X, minP.Y, maxP.X, minP.Y+rh),
			}
		},
	},
	{
		// Horizontal leg along the top, vertical leg on the right.
		code: "H1",
		legs: func(minP, maxP geo.Point2D, rw, rh float64) [2]geo.Polygon {
			return [2]geo.Polygon{
				geo.Rect(minP.X, maxP.Y-rh, maxP.X, maxP.Y),
				geo.Rect(maxP.X-rw, minP.Y, maxP.X, maxP.Y),
			}
		},
	},
}

// Generate returns up to two candidates per ratio, ratio-major.
func (c *Composite) Generate(envelope geo.Polygon) ([]Candidate, error) {
	if envelope.IsEmpty() || envelope.Area() <= minPieceArea {
		return nil, nil
	}
	frame := envelope
	if obb, err := c.kernel.OrientedBoundingBox(envelope); err == nil {
		frame = obb
	}
	minP, maxP := frame.BoundingBox()
	w, h := maxP.X-minP.X, maxP.Y-minP.Y
	if w <= 1e-6 || h <= 1e-6 {
		return nil, nil
	}

	var out []Candidate
	for _, r := range c.ratios {
		if r <= 0 || r >= 1 {
			continue
		}
		for _, v := range lVariants {
			legs := v.legs(minP, maxP, w*r, h*r)
			union, err := c.kernel.Union(legs[:])
			if err != nil {
				return out, err
			}
			fp, ok, err := clip(c.kernel, geo.Largest(union), envelope)
			if err != nil {
				return out, err
			}
			if !ok {
				continue
			}
			out = append(out, Candidate{
				Footprint:  fp,
				Generator:  NameComposite,
				Shape:      fmt.Sprintf("L-Shape (%s, Ratio %.1f)", v.code, r),
				Morphology: fmt.Sprintf("L_%s_R%d", v.code, int(r*10)),
				Params:     map[string]any{"type": "L-" + v.code, "ratio": r},
			})
		}
	}
	return out, nil
}
