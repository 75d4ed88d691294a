package validation

import (
	"errors"
	"fmt"

	cerrors "github.com/eluisluzquadros/cogniticy/internal/errors"
	"github.com/eluisluzquadros/cogniticy/pkg/geo"
	"github.com/eluisluzquadros/cogniticy/pkg/parcel"
	"github.com/eluisluzquadros/cogniticy/pkg/shape"
	"github.com/eluisluzquadros/cogniticy/pkg/zoning"
)

// ValidateSchema performs schema validation on a loaded project.
// It checks structural correctness before any parcel is read.
func ValidateSchema(p *zoning.Project) *Report {
	r := &Report{}

	validateSimulation(p, r)
	validateModeling(p, r)
	validateDefaults(p, r)

	return r
}

// ValidateProject validates the project and every parcel against it. A nil
// kernel skips the GEOS validity check.
func ValidateProject(p *zoning.Project, parcels []parcel.Parcel, k *geo.Kernel) *Report {
	r := ValidateSchema(p)
	defaults := p.ZoningDefaults()
	for _, pc := range parcels {
		pr := ValidateParcel(pc, defaults, k)
		if p.Simulation.MinParcelArea > 0 && pc.Area < p.Simulation.MinParcelArea {
			pr.Note(Finding{
				Stage:   StageGeometry,
				Message: fmt.Sprintf("area %.2f is below min_parcel_area %.2f; parcel will be skipped", pc.Area, p.Simulation.MinParcelArea),
				Field:   "simulation.min_parcel_area",
				Got:     pc.Area,
			})
		}
		r.Merge(pr.ForParcel(pc.ID))
	}
	return r
}

// ValidateParcel checks one parcel's geometry and resolved zoning.
func ValidateParcel(pc parcel.Parcel, defaults map[string]any, k *geo.Kernel) *Report {
	r := &Report{}
	validateGeometry(pc, k, r)
	validateZoning(pc, defaults, r)
	return r
}

func validateSimulation(p *zoning.Project, r *Report) {
	s := p.Simulation
	if s.Parcels == "" {
		r.Error(Finding{
			Stage:   StageSchema,
			Message: "simulation.parcels must name a GeoJSON file",
			Field:   "simulation.parcels",
			Want:    "path to a FeatureCollection",
		})
	}
	if s.Edges == "" {
		r.Warn(Finding{
			Stage:   StageSchema,
			Message: "no edges file configured; every parcel uses the uniform buffer fallback",
			Field:   "simulation.edges",
			Hint:    "Provide a GeoJSON of classified boundary lines (frente, fundos, lateral)",
		})
	}
	if s.SummaryFormat != zoning.SummaryCSV && s.SummaryFormat != zoning.SummaryXLSX {
		r.Error(Finding{
			Stage:   StageSchema,
			Message: fmt.Sprintf("unknown summary_format %q", s.SummaryFormat),
			Field:   "simulation.summary_format",
			Got:     s.SummaryFormat,
			Want:    "csv | xlsx",
		})
	}
	if s.MinParcelArea < 0 {
		r.Error(Finding{
			Stage:   StageSchema,
			Message: "min_parcel_area must be non-negative",
			Field:   "simulation.min_parcel_area",
			Got:     s.MinParcelArea,
			Want:    ">= 0",
		})
	}
	if s.CRS == "" {
		r.Note(Finding{
			Stage:   StageSchema,
			Message: "no crs set; coordinates are assumed to be projected metres",
			Field:   "simulation.crs",
		})
	}
}

func validateModeling(p *zoning.Project, r *Report) {
	m := p.Modeling
	if m.Mode != zoning.ModeBasic && m.Mode != zoning.ModeAdvanced {
		r.Error(Finding{
			Stage:   StageSchema,
			Message: fmt.Sprintf("unknown modeling mode %q", m.Mode),
			Field:   "modeling.mode",
			Got:     m.Mode,
			Want:    "basic | advanced",
		})
	}
	if m.Objective != zoning.ObjectiveMaxFAR {
		r.Error(Finding{
			Stage:   StageSchema,
			Message: fmt.Sprintf("unsupported objective %q", m.Objective),
			Field:   "modeling.objective",
			Got:     m.Objective,
			Want:    zoning.ObjectiveMaxFAR,
		})
	}
	for i, ratio := range m.ShapeRatioSteps {
		if ratio <= 0 || ratio >= 1 {
			r.Warn(Finding{
				Stage:   StageSchema,
				Message: fmt.Sprintf("shape ratio %.3f is outside (0, 1) and will be skipped", ratio),
				Field:   fmt.Sprintf("modeling.shape_ratio_steps[%d]", i),
				Got:     ratio,
				Want:    "0 < ratio < 1",
			})
		}
	}
	if m.GridResolution < 0 || m.GridResolution > shape.MaxResolution {
		r.Error(Finding{
			Stage:   StageSchema,
			Message: fmt.Sprintf("grid_resolution %d is outside valid range (0-%d)", m.GridResolution, shape.MaxResolution),
			Field:   "modeling.grid_resolution",
			Got:     m.GridResolution,
			Want:    fmt.Sprintf("0-%d", shape.MaxResolution),
		})
	}
	for i, name := range m.Generators {
		if !shape.Known(name) {
			r.Error(Finding{
				Stage:   StageSchema,
				Message: fmt.Sprintf("unknown generator %q", name),
				Field:   fmt.Sprintf("modeling.generators[%d]", i),
				Got:     name,
				Hint:    "Use one of: " + shape.NameOrthogonal + ", " + shape.NameComposite + ", " + shape.NameGrid,
			})
		}
	}
}

func validateDefaults(p *zoning.Project, r *Report) {
	defaults := zoning.Canonical(p.ZoningDefaults())
	missing := false
	for _, key := range []string{zoning.KeyMaxHeight, zoning.KeyMaxFAR} {
		if _, ok := defaults[key]; !ok {
			missing = true
			r.Warn(Finding{
				Stage:   StageSchema,
				Message: fmt.Sprintf("defaults.%s is not set; every parcel must provide it", key),
				Field:   "defaults." + key,
				Hint:    "Set a project-wide default in the defaults section",
			})
		}
	}
	if missing {
		return
	}
	if _, err := zoning.Resolve(defaults, nil); err != nil {
		r.Error(zoningFinding(StageSchema, "defaults", err))
	}
}

func validateGeometry(pc parcel.Parcel, k *geo.Kernel, r *Report) {
	if pc.Boundary.Len() < 3 || pc.Area <= 0 {
		r.Error(Finding{
			Stage:   StageGeometry,
			Message: "boundary has no area",
			Field:   "geometry",
			Got:     pc.Area,
			Want:    "a polygon with at least 3 vertices",
		})
		return
	}
	if k != nil && !k.IsValid(pc.Boundary) {
		r.Warn(Finding{
			Stage:   StageGeometry,
			Message: "boundary is not a valid polygon and will be repaired",
			Field:   "geometry",
		})
	}
}

func validateZoning(pc parcel.Parcel, defaults map[string]any, r *Report) {
	env, err := zoning.Resolve(defaults, pc.Properties)
	if err != nil {
		r.Error(zoningFinding(StageZoning, "properties", err))
		return
	}

	setbacks := []struct {
		key   string
		value float64
	}{
		{zoning.KeyMinFrontSetback, env.MinFrontSetback},
		{zoning.KeyMinBackSetback, env.MinBackSetback},
		{zoning.KeyMinSideSetback, env.MinSideSetback},
	}
	for _, s := range setbacks {
		if s.value < 0 {
			r.Warn(Finding{
				Stage:   StageZoning,
				Message: fmt.Sprintf("%s is negative; that edge category will not be offset", s.key),
				Field:   "properties." + s.key,
				Got:     s.value,
				Want:    ">= 0",
			})
		}
	}

	merged := zoning.Canonical(zoning.Merge(zoning.Canonical(defaults), zoning.Canonical(pc.Properties)))
	for _, key := range []string{zoning.KeyGroundFloorHeight, zoning.KeyUpperFloorHeight, zoning.KeyMinFloorArea} {
		if _, ok := merged[key]; !ok {
			r.Note(Finding{
				Stage:   StageZoning,
				Message: fmt.Sprintf("%s not set; using the default", key),
				Field:   "properties." + key,
			})
		}
	}

	if pc.Area > 0 && env.MinFloorArea > pc.Area {
		r.Warn(Finding{
			Stage:   StageZoning,
			Message: fmt.Sprintf("min_floor_area %.2f exceeds parcel area %.2f; no floor can be built", env.MinFloorArea, pc.Area),
			Field:   "properties." + zoning.KeyMinFloorArea,
			Got:     env.MinFloorArea,
		})
	}
}

func zoningFinding(stage Stage, prefix string, err error) Finding {
	res := Finding{Stage: stage, Message: err.Error(), Field: prefix}
	var ce *cerrors.Error
	if errors.As(err, &ce) {
		res.Message = ce.Message
		if ce.Cause != nil {
			res.Message += ": " + ce.Cause.Error()
		}
		if key, ok := ce.Context["key"].(string); ok {
			res.Field = prefix + "." + key
		}
		if v, ok := ce.Context["value"]; ok {
			res.Got = v
		}
	}
	return res
}
