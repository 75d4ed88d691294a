// Package zoning loads the project configuration and resolves the per-parcel
// zoning constraint set from project defaults and parcel overrides.
package zoning

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	cerrors "github.com/eluisluzquadros/cogniticy/internal/errors"
	"github.com/eluisluzquadros/cogniticy/internal/logging"
)

// ProjectFile is the configuration file name looked up in a project directory.
const ProjectFile = "cogniticy.yaml"

// Load reads a project from a YAML file and fills unset fields with defaults.
func Load(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, cerrors.Wrap(cerrors.KindIO, "reading project file", err).WithContext("path", path)
	}

	var p Project
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, cerrors.Wrap(cerrors.KindConfiguration, "parsing project YAML", err).WithContext("path", path)
	}
	p.Dir = filepath.Dir(path)
	applyDefaults(&p)

	return &p, nil
}

// LoadProject loads a project from a project directory.
// It looks for cogniticy.yaml in the given directory.
func LoadProject(projectDir string) (*Project, error) {
	return Load(filepath.Join(projectDir, ProjectFile))
}

func applyDefaults(p *Project) {
	if p.Name == "" {
		p.Name = "cogniticy_run"
	}
	s := &p.Simulation
	if s.ParcelIDProperty == "" {
		s.ParcelIDProperty = "numlote"
	}
	if s.EdgeParcelProperty == "" {
		s.EdgeParcelProperty = s.ParcelIDProperty
	}
	if s.EdgeCategoryProperty == "" {
		s.EdgeCategoryProperty = "tipo"
	}
	if s.Workers <= 0 {
		s.Workers = 1
	}
	if s.OutputDirectory == "" {
		s.OutputDirectory = "output"
	}
	if s.SummaryFormat == "" {
		s.SummaryFormat = SummaryCSV
	}

	m := &p.Modeling
	if m.Mode == "" {
		m.Mode = ModeBasic
	}
	if m.Objective == "" {
		m.Objective = ObjectiveMaxFAR
	}
	if len(m.ShapeRatioSteps) == 0 {
		m.ShapeRatioSteps = []float64{0.4, 0.5, 0.6}
	}
	if m.GridResolution == 0 {
		m.GridResolution = 12
	}
	if len(m.Generators) == 0 {
		m.Generators = []string{"orthogonal", "composite", "grid"}
	}
	if m.CandidateWorkers <= 0 {
		m.CandidateWorkers = 1
	}

	if p.Logging == (logging.Config{}) {
		p.Logging = logging.DefaultConfig()
	}
	if p.Defaults == nil {
		p.Defaults = map[string]any{}
	}
}
