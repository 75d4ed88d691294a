package zoning

import (
	"os"
	"path/filepath"
	"testing"

	cerrors "github.com/eluisluzquadros/cogniticy/internal/errors"
)

func TestLoadProject(t *testing.T) {
	p, err := LoadProject("../../examples/demo")
	if err != nil {
		t.Fatalf("LoadProject failed: %v", err)
	}

	if p.SpecVersion != "0.1.0" {
		t.Errorf("spec_version = %q, want %q", p.SpecVersion, "0.1.0")
	}
	if p.Name != "demo" {
		t.Errorf("project_name = %q, want demo", p.Name)
	}
	if p.Simulation.Parcels != "parcels.geojson" {
		t.Errorf("parcels = %q, want parcels.geojson", p.Simulation.Parcels)
	}
	if got := p.Path(p.Simulation.Parcels); got != filepath.Join("../../examples/demo", "parcels.geojson") {
		t.Errorf("resolved parcels path = %q", got)
	}
	if p.Simulation.Workers != 2 {
		t.Errorf("workers = %d, want 2", p.Simulation.Workers)
	}
	if p.Modeling.Mode != ModeAdvanced {
		t.Errorf("mode = %q, want %q", p.Modeling.Mode, ModeAdvanced)
	}
	if len(p.Modeling.ShapeRatioSteps) != 3 {
		t.Errorf("shape_ratio_steps count = %d, want 3", len(p.Modeling.ShapeRatioSteps))
	}

	defaults := p.ZoningDefaults()
	if defaults[KeyMinFloorArea] != 20 {
		t.Errorf("min_floor_area default = %v, want 20", defaults[KeyMinFloorArea])
	}
	if defaults[KeyMaxFAR] != 4.0 {
		t.Errorf("max_far default = %v, want 4.0", defaults[KeyMaxFAR])
	}
}

func TestLoadFillsDefaults(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ProjectFile), []byte("spec_version: \"0.1.0\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	p, err := LoadProject(dir)
	if err != nil {
		t.Fatalf("LoadProject failed: %v", err)
	}
	if p.Simulation.ParcelIDProperty != "numlote" || p.Simulation.EdgeCategoryProperty != "tipo" {
		t.Errorf("unexpected property defaults: %+v", p.Simulation)
	}
	if p.Modeling.Mode != ModeBasic || p.Modeling.Objective != ObjectiveMaxFAR {
		t.Errorf("unexpected modeling defaults: %+v", p.Modeling)
	}
	if p.Modeling.GridResolution != 12 {
		t.Errorf("grid_resolution = %d, want 12", p.Modeling.GridResolution)
	}
	if p.Logging.Level != "info" {
		t.Errorf("logging level = %q, want info", p.Logging.Level)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := LoadProject(t.TempDir())
	if !cerrors.IsKind(err, cerrors.KindIO) {
		t.Errorf("expected IO error for missing project file, got %v", err)
	}
}

func TestLoadBadYAML(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ProjectFile), []byte("simulation: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := LoadProject(dir)
	if !cerrors.IsKind(err, cerrors.KindConfiguration) {
		t.Errorf("expected configuration error for bad YAML, got %v", err)
	}
}

func TestEnvelopeFloorHeight(t *testing.T) {
	e := Envelope{GroundFloorHeight: 4.5, UpperFloorHeight: 3, SetbackStartFloor: 2, BackSetbackGrowthRate: 0.1}
	if e.FloorHeight(0) != 4.5 || e.FloorHeight(3) != 3 {
		t.Errorf("unexpected floor heights %v %v", e.FloorHeight(0), e.FloorHeight(3))
	}
	if e.ProgressiveSetback(1) || !e.ProgressiveSetback(2) {
		t.Error("progressive setback should start at floor 2")
	}
	e.BackSetbackGrowthRate = 0
	if e.ProgressiveSetback(5) {
		t.Error("zero growth rate disables progressive setback")
	}
}
