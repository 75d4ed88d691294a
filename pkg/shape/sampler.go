package shape

import (
	"fmt"
	"math"

	"github.com/eluisluzquadros/cogniticy/pkg/geo"
)

// MaxResolution is the finest hexagonal grid resolution.
const MaxResolution = 15

// DefaultResolution is used when a project does not set grid_resolution.
const DefaultResolution = 12

// hexEdgeKm is the average hexagon edge length per resolution, in km, of the
// H3 global grid. The planar sampler reuses these sizes so that resolutions
// keep their usual meaning.
var hexEdgeKm = [MaxResolution + 1]float64{
	1107.712591, 418.6760055, 158.2446558, 59.81085794,
	22.6063794, 8.544408276, 3.229482772, 1.220629759,
	0.461354684, 0.174375668, 0.065907807, 0.024910561,
	0.009415526, 0.003559893, 0.001348575, 0.000509713,
}

// Sampler returns points covering a polygon in a deterministic order.
type Sampler interface {
	Sample(p geo.Polygon) []geo.Point2D
	Resolution() int
}

// HexSampler lays a pointy-top hexagonal tessellation anchored at the
// coordinate origin over a projected polygon and returns the centres that
// fall strictly inside it, row by row from the bottom.
type HexSampler struct {
	resolution int
	edge       float64
}

// NewHexSampler creates a sampler for resolution 0 to MaxResolution.
func NewHexSampler(resolution int) (*HexSampler, error) {
	if resolution < 0 || resolution > MaxResolution {
		return nil, fmt.Errorf("hex resolution %d outside 0-%d", resolution, MaxResolution)
	}
	return &HexSampler{resolution: resolution, edge: hexEdgeKm[resolution] * 1000}, nil
}

// Resolution returns the grid resolution.
func (h *HexSampler) Resolution() int { return h.resolution }

// EdgeLength returns the hexagon edge length in metres.
func (h *HexSampler) EdgeLength() float64 { return h.edge }

// Sample implements Sampler.
func (h *HexSampler) Sample(p geo.Polygon) []geo.Point2D {
	if p.IsEmpty() {
		return nil
	}
	dx := math.Sqrt(3) * h.edge
	dy := 1.5 * h.edge
	minP, maxP := p.BoundingBox()

	var pts []geo.Point2D
	for row := int(math.Floor(minP.Y / dy)); float64(row)*dy <= maxP.Y; row++ {
		y := float64(row) * dy
		offset := 0.0
		if row%2 != 0 {
			offset = dx / 2
		}
		for col := int(math.Floor((minP.X-offset)/dx)) - 1; ; col++ {
			x := float64(col)*dx + offset
			if x > maxP.X {
				break
			}
			pt := geo.Pt(x, y)
			if p.Contains(pt) {
				pts = append(pts, pt)
			}
		}
	}
	return pts
}
