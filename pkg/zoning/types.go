package zoning

import (
	"path/filepath"

	"github.com/eluisluzquadros/cogniticy/internal/logging"
)

// Project is the top-level run configuration read from cogniticy.yaml.
type Project struct {
	SpecVersion   string         `yaml:"spec_version" json:"spec_version"`
	Name          string         `yaml:"project_name" json:"project_name"`
	Simulation    Simulation     `yaml:"simulation" json:"simulation"`
	Defaults      map[string]any `yaml:"defaults" json:"defaults"`
	Architectural map[string]any `yaml:"architectural" json:"architectural"`
	Modeling      Modeling       `yaml:"modeling" json:"modeling"`
	Logging       logging.Config `yaml:"logging" json:"logging"`

	// Dir is the directory the project was loaded from; relative paths resolve against it.
	Dir string `yaml:"-" json:"-"`
}

// Simulation describes the inputs and outputs of a batch run.
type Simulation struct {
	Parcels              string  `yaml:"parcels" json:"parcels"`
	Edges                string  `yaml:"edges" json:"edges"`
	ParcelIDProperty     string  `yaml:"parcel_id_property" json:"parcel_id_property"`
	EdgeParcelProperty   string  `yaml:"edge_parcel_property" json:"edge_parcel_property"`
	EdgeCategoryProperty string  `yaml:"edge_category_property" json:"edge_category_property"`
	CRS                  string  `yaml:"crs" json:"crs"`
	MinParcelArea        float64 `yaml:"min_parcel_area" json:"min_parcel_area"`
	Workers              int     `yaml:"workers" json:"workers"`
	OutputDirectory      string  `yaml:"output_directory" json:"output_directory"`
	SummaryFormat        string  `yaml:"summary_format" json:"summary_format"`
	Checkpoint           bool    `yaml:"checkpoint" json:"checkpoint"`
}

// Modeling selects the search strategy.
type Modeling struct {
	Mode             string    `yaml:"mode" json:"mode"`
	Objective        string    `yaml:"objective" json:"objective"`
	ShapeRatioSteps  []float64 `yaml:"shape_ratio_steps" json:"shape_ratio_steps"`
	GridResolution   int       `yaml:"grid_resolution" json:"grid_resolution"`
	Generators       []string  `yaml:"generators" json:"generators"`
	CandidateWorkers int       `yaml:"candidate_workers" json:"candidate_workers"`
}

// Modeling modes.
const (
	ModeBasic    = "basic"
	ModeAdvanced = "advanced"
)

// ObjectiveMaxFAR maximizes floor-area ratio while staying under the height limit.
const ObjectiveMaxFAR = "maximize_far_within_height"

// Summary formats.
const (
	SummaryCSV  = "csv"
	SummaryXLSX = "xlsx"
)

// Path resolves a project-relative path.
func (p *Project) Path(rel string) string {
	if rel == "" || filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(p.Dir, rel)
}

// ZoningDefaults returns the flat parameter map every parcel starts from:
// the architectural section overlaid with the zoning defaults.
func (p *Project) ZoningDefaults() map[string]any {
	return Merge(p.Architectural, p.Defaults)
}

// Envelope is the resolved, read-only constraint set for one parcel run.
// It is passed by value so no component can change another's copy.
type Envelope struct {
	Zone string `json:"zot,omitempty"`

	MaxHeight      float64 `json:"max_height"`
	MaxFAR         float64 `json:"max_far"`
	MaxLotCoverage float64 `json:"max_lot_coverage"`

	MinFrontSetback float64 `json:"min_front_setback"`
	MinBackSetback  float64 `json:"min_back_setback"`
	MinSideSetback  float64 `json:"min_side_setback"`

	GroundFloorHeight float64 `json:"ground_floor_height"`
	UpperFloorHeight  float64 `json:"upper_floor_height"`

	// SetbackStartFloor is the first floor index that receives the progressive back setback.
	SetbackStartFloor int `json:"setback_start_floor"`
	// BackSetbackGrowthRate is the fraction of the current height added to the back setback.
	BackSetbackGrowthRate float64 `json:"back_setback_growth_rate"`

	MinFloorArea     float64  `json:"min_floor_area"`
	TargetEfficiency *float64 `json:"target_efficiency,omitempty"`
}

// FloorHeight returns the storey height for floor index i.
func (e Envelope) FloorHeight(i int) float64 {
	if i == 0 {
		return e.GroundFloorHeight
	}
	return e.UpperFloorHeight
}

// ProgressiveSetback reports whether floor i gets an increased back setback.
func (e Envelope) ProgressiveSetback(i int) bool {
	return i >= e.SetbackStartFloor && e.BackSetbackGrowthRate > 0
}
