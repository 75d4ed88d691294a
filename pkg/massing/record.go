package massing

import "math"

// FloorRecord is the exported property set of one floor.
type FloorRecord struct {
	ParcelID            string   `json:"numlote"`
	FloorNumber         int      `json:"floor_number"`
	FloorName           string   `json:"floor_name"`
	BaseHeight          float64  `json:"base_height"`
	TopHeight           float64  `json:"top_height"`
	FloorHeight         float64  `json:"floor_height"`
	HasSetback          bool     `json:"has_setback"`
	SetbackAmount       float64  `json:"setback_amount"`
	FloorArea           float64  `json:"floor_area"`
	ShapeName           string   `json:"shape_name"`
	MorphologyType      string   `json:"morphology_type"`
	Efficiency          *float64 `json:"efficiency"`
	AchievedFAR         float64  `json:"achieved_far"`
	TotalHeight         float64  `json:"total_height"`
	FrontSetbackApplied float64  `json:"front_setback_applied"`
	SideSetbackApplied  float64  `json:"side_setback_applied"`
}

// BuildingRecord is the exported property set of a whole massing.
type BuildingRecord struct {
	FID             string   `json:"fid"`
	ParcelID        string   `json:"numlote"`
	Zone            string   `json:"zot"`
	MorphologyType  string   `json:"morphology_type"`
	ShapeName       string   `json:"shape_name"`
	NumFloors       int      `json:"num_floors"`
	TotalHeight     float64  `json:"total_height"`
	AchievedFAR     float64  `json:"achieved_far"`
	Efficiency      *float64 `json:"efficiency"`
	Slenderness     *float64 `json:"slenderness"`
	MaxFAR          float64  `json:"max_far"`
	MaxHeight       float64  `json:"max_height"`
	MaxLotCoverage  float64  `json:"max_lot_coverage"`
	GFHeight        float64  `json:"gf_height"`
	UFHeight        float64  `json:"uf_height"`
	MinFrontSetback float64  `json:"min_front_setback"`
	MinBackSetback  float64  `json:"min_back_setback"`
	MinSideSetback  float64  `json:"min_side_setback"`
}

// FloorRecords returns one record per floor, rounded for export.
func (m *Massing) FloorRecords() []FloorRecord {
	out := make([]FloorRecord, 0, len(m.Floors))
	far := round3(m.FAR())
	height := round2(m.TotalHeight())
	eff := roundPtr(m.Efficiency(), 3)
	for _, f := range m.Floors {
		out = append(out, FloorRecord{
			ParcelID:            m.ParcelID,
			FloorNumber:         f.Index,
			FloorName:           f.Name(),
			BaseHeight:          round2(f.BaseHeight),
			TopHeight:           round2(f.TopHeight),
			FloorHeight:         round2(f.Height),
			HasSetback:          f.HasSetback,
			SetbackAmount:       round2(f.BackSetback),
			FloorArea:           round2(f.Area),
			ShapeName:           m.Shape,
			MorphologyType:      m.Morphology,
			Efficiency:          eff,
			AchievedFAR:         far,
			TotalHeight:         height,
			FrontSetbackApplied: round2(f.FrontSetback),
			SideSetbackApplied:  round2(f.SideSetback),
		})
	}
	return out
}

// Record returns the building-level record, rounded for export.
func (m *Massing) Record() BuildingRecord {
	z := m.Zoning
	var slender *float64
	if s := m.Slenderness(); s > 0 {
		v := round2(s)
		slender = &v
	}
	return BuildingRecord{
		FID:             m.ParcelID + "_" + m.Morphology,
		ParcelID:        m.ParcelID,
		Zone:            z.Zone,
		MorphologyType:  m.Morphology,
		ShapeName:       m.Shape,
		NumFloors:       m.NumFloors(),
		TotalHeight:     round2(m.TotalHeight()),
		AchievedFAR:     round3(m.FAR()),
		Efficiency:      roundPtr(m.Efficiency(), 3),
		Slenderness:     slender,
		MaxFAR:          z.MaxFAR,
		MaxHeight:       z.MaxHeight,
		MaxLotCoverage:  z.MaxLotCoverage,
		GFHeight:        z.GroundFloorHeight,
		UFHeight:        z.UpperFloorHeight,
		MinFrontSetback: z.MinFrontSetback,
		MinBackSetback:  z.MinBackSetback,
		MinSideSetback:  z.MinSideSetback,
	}
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round3(v float64) float64 { return math.Round(v*1000) / 1000 }

func roundPtr(v *float64, digits int) *float64 {
	if v == nil {
		return nil
	}
	p := math.Pow10(digits)
	r := math.Round(*v*p) / p
	return &r
}
