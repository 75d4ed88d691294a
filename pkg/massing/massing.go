// Package massing models a building as an ordered stack of floors and grows
// that stack under height, FAR, floor-area and progressive setback limits.
package massing

import (
	"strconv"

	"github.com/eluisluzquadros/cogniticy/pkg/geo"
	"github.com/eluisluzquadros/cogniticy/pkg/zoning"
)

// Tolerance is the multiplicative slack applied to the height and FAR limits,
// both when stacking and when checking compliance.
const Tolerance = 1.001

const negligibleArea = 1e-6

// StopReason tells why stacking ended.
type StopReason string

const (
	StopNone           StopReason = ""
	StopHeight         StopReason = "height"
	StopSetback        StopReason = "setback"
	StopFAR            StopReason = "far"
	StopMinArea        StopReason = "min_area"
	StopEmptyCandidate StopReason = "empty_candidate"
)

// Floor is one storey of a massing. Floors are created by StackBuilder in
// increasing index order and never modified afterwards.
type Floor struct {
	Index      int         `json:"index"`
	Footprint  geo.Polygon `json:"footprint"`
	BaseHeight float64     `json:"base_height"`
	TopHeight  float64     `json:"top_height"`
	Height     float64     `json:"floor_height"`
	Area       float64     `json:"floor_area"`

	// HasSetback is set when the progressive back setback shaped this floor.
	HasSetback   bool    `json:"has_setback"`
	FrontSetback float64 `json:"front_setback"`
	BackSetback  float64 `json:"back_setback"`
	SideSetback  float64 `json:"side_setback"`
}

// Name returns "Ground" for floor 0 and "Floor N" above it.
func (f Floor) Name() string {
	if f.Index == 0 {
		return "Ground"
	}
	return "Floor " + strconv.Itoa(f.Index)
}

// Massing is a stacked building for one candidate footprint.
type Massing struct {
	ParcelID   string          `json:"parcel_id"`
	Generator  string          `json:"generator"`
	Shape      string          `json:"shape_name"`
	Morphology string          `json:"morphology_type"`
	Params     map[string]any  `json:"params,omitempty"`
	ParcelArea float64         `json:"parcel_area"`
	Zoning     zoning.Envelope `json:"zoning"`
	Floors     []Floor         `json:"floors"`
	Stop       StopReason      `json:"stop_reason"`

	// minSide is the shortest side of the ground footprint's oriented
	// bounding box, measured by the builder.
	minSide float64
}

// NumFloors returns the number of floors.
func (m *Massing) NumFloors() int { return len(m.Floors) }

// Empty reports whether the massing has no floors.
func (m *Massing) Empty() bool { return len(m.Floors) == 0 }

// Footprint returns the ground floor polygon, or an empty polygon.
func (m *Massing) Footprint() geo.Polygon {
	if m.Empty() {
		return geo.Polygon{}
	}
	return m.Floors[0].Footprint
}

// TotalBuiltArea sums the floor areas.
func (m *Massing) TotalBuiltArea() float64 {
	total := 0.0
	for _, f := range m.Floors {
		total += f.Area
	}
	return total
}

// TotalHeight is the top height of the last floor.
func (m *Massing) TotalHeight() float64 {
	if m.Empty() {
		return 0
	}
	return m.Floors[len(m.Floors)-1].TopHeight
}

// FAR is the built area over the parcel area.
func (m *Massing) FAR() float64 {
	if m.ParcelArea <= negligibleArea {
		return 0
	}
	return m.TotalBuiltArea() / m.ParcelArea
}

// LotCoverage is the ground floor area over the parcel area.
func (m *Massing) LotCoverage() float64 {
	if m.Empty() || m.ParcelArea <= negligibleArea {
		return 0
	}
	return m.Floors[0].Area / m.ParcelArea
}

// Slenderness is the total height over the shortest side of the ground
// footprint's oriented bounding box. Zero when unknown.
func (m *Massing) Slenderness() float64 {
	if m.minSide <= negligibleArea {
		return 0
	}
	return m.TotalHeight() / m.minSide
}

// Efficiency is the configured target efficiency, if any.
func (m *Massing) Efficiency() *float64 {
	return m.Zoning.TargetEfficiency
}
