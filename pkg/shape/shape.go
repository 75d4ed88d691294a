// Package shape proposes alternative base footprints inside a buildable
// envelope. Each Generator is a pure function of the envelope and its own
// configuration.
package shape

import (
	"fmt"

	"github.com/eluisluzquadros/cogniticy/pkg/geo"
)

// Generator names as used in project configuration.
const (
	NameOrthogonal = "orthogonal"
	NameComposite  = "composite"
	NameGrid       = "grid"
)

// minPieceArea is the smallest footprint a generator will propose.
const minPieceArea = 0.1

// Candidate is an un-stacked footprint proposal.
type Candidate struct {
	Footprint  geo.Polygon    `json:"footprint"`
	Generator  string         `json:"generator"`
	Shape      string         `json:"shape_name"`
	Morphology string         `json:"morphology_type"`
	Params     map[string]any `json:"params,omitempty"`
}

// Generator produces candidate footprints from a base envelope. Candidates
// are returned in a deterministic order.
type Generator interface {
	Name() string
	Generate(envelope geo.Polygon) ([]Candidate, error)
}

// Config carries the generator settings from the project file.
type Config struct {
	Ratios     []float64
	Resolution int
}

// Known reports whether name is a registered generator.
func Known(name string) bool {
	switch name {
	case NameOrthogonal, NameComposite, NameGrid:
		return true
	}
	return false
}

// New builds the named generator on kernel k.
func New(name string, k *geo.Kernel, cfg Config) (Generator, error) {
	switch name {
	case NameOrthogonal:
		return NewOrthogonal(k), nil
	case NameComposite:
		return NewComposite(k, cfg.Ratios), nil
	case NameGrid:
		s, err := NewHexSampler(cfg.Resolution)
		if err != nil {
			return nil, err
		}
		return NewGridAllocated(k, s), nil
	}
	return nil, fmt.Errorf("unknown generator %q", name)
}

// Build returns the generators for names in the given order.
func Build(names []string, k *geo.Kernel, cfg Config) ([]Generator, error) {
	out := make([]Generator, 0, len(names))
	for _, n := range names {
		g, err := New(n, k, cfg)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

// clip intersects footprint with the envelope and keeps the largest piece
// when it is big enough to build on.
func clip(k *geo.Kernel, footprint, envelope geo.Polygon) (geo.Polygon, bool, error) {
	pieces, err := k.Intersection(footprint, envelope)
	if err != nil {
		return geo.Polygon{}, false, err
	}
	best := geo.Largest(pieces)
	if best.IsEmpty() || best.Area() <= minPieceArea {
		return geo.Polygon{}, false, nil
	}
	return best, true, nil
}
