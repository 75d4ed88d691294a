// Package pipeline runs the envelope, stacking and search chain for one
// parcel and fans it out across a batch of parcels.
package pipeline

import (
	"encoding/json"
	"errors"
	"math"
	"strings"

	"go.uber.org/zap"

	cerrors "github.com/eluisluzquadros/cogniticy/internal/errors"
	"github.com/eluisluzquadros/cogniticy/internal/logging"
	"github.com/eluisluzquadros/cogniticy/pkg/compliance"
	"github.com/eluisluzquadros/cogniticy/pkg/envelope"
	"github.com/eluisluzquadros/cogniticy/pkg/geo"
	"github.com/eluisluzquadros/cogniticy/pkg/massing"
	"github.com/eluisluzquadros/cogniticy/pkg/parcel"
	"github.com/eluisluzquadros/cogniticy/pkg/search"
	"github.com/eluisluzquadros/cogniticy/pkg/shape"
	"github.com/eluisluzquadros/cogniticy/pkg/zoning"
)

// Status is the per-parcel outcome.
type Status string

const (
	StatusProcessed     Status = "processed"
	StatusSkipped       Status = "skipped"
	StatusEnvelopeEmpty Status = "envelope_empty"
	StatusFailed        Status = "failed"
)

// Result is everything produced for one parcel. Scores may be infinite, so
// callers serialize the Summary and floor records rather than the Result.
type Result struct {
	ParcelID string
	Status   Status
	Reason   string
	Err      error

	// Resumed results were restored from a checkpoint and carry only the summary.
	Resumed bool

	Zoning         *zoning.Envelope
	Envelope       envelope.Result
	Baseline       *massing.Massing
	BaselineResult compliance.Result
	Best           *massing.Massing
	BestScore      float64
	BestResult     compliance.Result
	Log            []search.Evaluation
	Floors         []massing.FloorRecord
	Summary        Summary
}

// Processor runs the per-parcel chain for one project.
type Processor struct {
	project  *zoning.Project
	defaults map[string]any
	shapes   shape.Config
	logger   *zap.Logger
}

// NewProcessor checks the project-level settings that would fail every
// parcel the same way, so a bad project aborts before the batch starts.
func NewProcessor(p *zoning.Project, logger *zap.Logger) (*Processor, error) {
	if _, err := compliance.NewEvaluator(p.Modeling.Objective, nil); err != nil {
		return nil, err
	}
	for _, name := range p.Modeling.Generators {
		if !shape.Known(name) {
			return nil, cerrors.Configuration("unknown generator %q", name)
		}
	}
	if _, err := shape.NewHexSampler(p.Modeling.GridResolution); err != nil {
		return nil, cerrors.Wrap(cerrors.KindConfiguration, "modeling.grid_resolution", err)
	}
	return &Processor{
		project:  p,
		defaults: p.ZoningDefaults(),
		shapes:   shape.Config{Ratios: p.Modeling.ShapeRatioSteps, Resolution: p.Modeling.GridResolution},
		logger:   logging.OrNop(logger),
	}, nil
}

// withLogger returns a copy of pr that logs to l.
func (pr *Processor) withLogger(l *zap.Logger) *Processor {
	c := *pr
	c.logger = l
	return &c
}

// Run processes one parcel. Failures are reported through the result's
// status; Run itself never fails.
func (pr *Processor) Run(p parcel.Parcel, edges parcel.EdgeClassification) *Result {
	log := pr.logger.With(zap.String("parcel", p.ID))
	r := &Result{ParcelID: p.ID, BestScore: math.Inf(-1)}
	defer func() { r.Summary = summarize(r, p) }()

	if minArea := pr.project.Simulation.MinParcelArea; minArea > 0 && p.Area < minArea {
		return r.skip(log, "parcel area below min_parcel_area", nil)
	}

	z, err := zoning.Resolve(pr.defaults, p.Properties)
	if err != nil {
		return r.skip(log, "invalid zoning", err)
	}
	r.Zoning = &z

	k := geo.NewKernel()
	if !k.IsValid(p.Boundary) {
		repaired, err := k.Repair(p.Boundary)
		if err != nil {
			return r.fail(log, StatusEnvelopeEmpty, "parcel geometry could not be repaired", err)
		}
		log.Warn("parcel geometry repaired", zap.Float64("area", repaired.Area()))
		p = parcel.New(p.ID, repaired, p.CRS, p.Properties)
	}

	engine := envelope.NewEngine(k, log)
	env, err := engine.Base(p, edges, z)
	if err != nil {
		status := StatusFailed
		if cerrors.IsKind(err, cerrors.KindEnvelopeEmpty) || cerrors.IsKind(err, cerrors.KindGeometryDegenerate) {
			status = StatusEnvelopeEmpty
		}
		return r.fail(log, status, "no buildable envelope", err)
	}
	r.Envelope = env

	builder := massing.NewStackBuilder(engine, p, edges, z, log)
	eval, err := compliance.NewEvaluator(pr.project.Modeling.Objective, log)
	if err != nil {
		return r.fail(log, StatusFailed, "evaluator", err)
	}

	r.Baseline, r.BaselineResult = pr.baseline(k, builder, eval, env.Polygon, log)
	r.Best, r.BestScore, r.BestResult = r.Baseline, r.BaselineResult.Score, r.BaselineResult

	if pr.project.Modeling.Mode == zoning.ModeAdvanced {
		if err := pr.advanced(r, k, builder, eval, env.Polygon, log); err != nil {
			return r.fail(log, StatusFailed, "search", err)
		}
	}

	r.Status = StatusProcessed
	r.Floors = r.Best.FloorRecords()
	log.Info("parcel processed",
		zap.String("envelope_path", string(env.Path)),
		zap.Float64("envelope_area", env.Area()),
		zap.String("shape", r.Best.Shape),
		zap.Int("floors", r.Best.NumFloors()),
		zap.Float64("far", r.Best.FAR()),
		zap.Float64("score", r.BestScore))
	return r
}

// baseline stacks the oriented bounding box of the envelope. An envelope with
// no usable box yields a zero-floor massing.
func (pr *Processor) baseline(k *geo.Kernel, b *massing.StackBuilder, eval *compliance.Evaluator, env geo.Polygon, log *zap.Logger) (*massing.Massing, compliance.Result) {
	cs, err := shape.NewOrthogonal(k).Generate(env)
	if err != nil {
		log.Warn("baseline generator failed", zap.Error(err))
	}
	c := shape.Candidate{Generator: shape.NameOrthogonal, Shape: "Ortogonal", Morphology: "O"}
	if len(cs) > 0 {
		c = cs[0]
	}
	m := b.Build(c)
	_, res := eval.Evaluate(m)
	return m, res
}

func (pr *Processor) advanced(r *Result, k *geo.Kernel, b *massing.StackBuilder, eval *compliance.Evaluator, env geo.Polygon, log *zap.Logger) error {
	gens, err := shape.Build(pr.project.Modeling.Generators, k, pr.shapes)
	if err != nil {
		return err
	}
	opt := search.New(b, eval,
		search.WithWorkers(pr.project.Modeling.CandidateWorkers),
		search.WithLogger(log))
	out, err := opt.Optimize(env, gens)
	if err != nil {
		return err
	}
	r.Log = out.Log
	if out.Best == nil {
		log.Info("search found no massing, keeping baseline", zap.Int("candidates", len(out.Log)))
		return nil
	}
	r.Best, r.BestScore, r.BestResult = out.Best, out.BestScore, out.Result
	return nil
}

func (r *Result) skip(log *zap.Logger, reason string, err error) *Result {
	r.Status, r.Reason, r.Err = StatusSkipped, reasonOf(reason, err), err
	log.Warn("parcel skipped", zap.String("reason", r.Reason))
	return r
}

func (r *Result) fail(log *zap.Logger, status Status, reason string, err error) *Result {
	r.Status, r.Reason, r.Err = status, reasonOf(reason, err), err
	if status == StatusFailed {
		log.Error("parcel failed", zap.String("reason", r.Reason), zap.Error(err))
	} else {
		log.Warn("parcel has no envelope", zap.String("reason", r.Reason))
	}
	return r
}

func reasonOf(reason string, err error) string {
	if err == nil {
		return reason
	}
	var ce *cerrors.Error
	if errors.As(err, &ce) {
		msg := reason + ": " + ce.Message
		if ce.Cause != nil {
			msg += ": " + ce.Cause.Error()
		}
		return msg
	}
	return reason + ": " + err.Error()
}

// Summary is the flat per-parcel record written to the summary table and
// the checkpoint.
type Summary struct {
	RunID    string  `json:"run_id"`
	ParcelID string  `json:"numlote"`
	Zone     string  `json:"zot"`
	Status   Status  `json:"status"`
	Reason   string  `json:"reason"`
	Area     float64 `json:"parcel_area"`

	EnvelopePath string  `json:"envelope_path"`
	EnvelopeArea float64 `json:"envelope_area"`

	BaselineShape      string  `json:"baseline_shape"`
	BaselineMorphology string  `json:"baseline_morphology"`
	BaselineFloors     int     `json:"baseline_floors"`
	BaselineHeight     float64 `json:"baseline_height"`
	BaselineBuiltArea  float64 `json:"baseline_built_area"`
	BaselineFAR        float64 `json:"baseline_far"`
	BaselineCoverage   float64 `json:"baseline_coverage"`
	BaselineCompliant  bool    `json:"baseline_compliant"`
	BaselineViolations string  `json:"baseline_violations"`

	BestShape      string  `json:"best_shape"`
	BestMorphology string  `json:"best_morphology"`
	BestFloors     int     `json:"best_floors"`
	BestHeight     float64 `json:"best_height"`
	BestBuiltArea  float64 `json:"best_built_area"`
	BestFAR        float64 `json:"best_far"`
	BestCoverage   float64 `json:"best_coverage"`
	BestCompliant  bool    `json:"best_compliant"`
	BestViolations string  `json:"best_violations"`
	BestScore      float64 `json:"best_score"`
	BestParams     string  `json:"best_params"`

	Candidates int `json:"candidates"`
}

func summarize(r *Result, p parcel.Parcel) Summary {
	s := Summary{
		ParcelID:     r.ParcelID,
		Status:       r.Status,
		Reason:       r.Reason,
		Area:         round(p.Area, 2),
		EnvelopePath: string(r.Envelope.Path),
		EnvelopeArea: round(r.Envelope.Area(), 2),
		Candidates:   len(r.Log),
	}
	if r.Zoning != nil {
		s.Zone = r.Zoning.Zone
	}
	if m := r.Baseline; m != nil {
		s.BaselineShape, s.BaselineMorphology = m.Shape, m.Morphology
		s.BaselineFloors = m.NumFloors()
		s.BaselineHeight = round(m.TotalHeight(), 2)
		s.BaselineBuiltArea = round(m.TotalBuiltArea(), 2)
		s.BaselineFAR = round(m.FAR(), 3)
		s.BaselineCoverage = round(m.LotCoverage(), 3)
		s.BaselineCompliant = r.BaselineResult.Compliant
		s.BaselineViolations = strings.Join(r.BaselineResult.Violations, "; ")
	}
	if m := r.Best; m != nil {
		s.BestShape, s.BestMorphology = m.Shape, m.Morphology
		s.BestFloors = m.NumFloors()
		s.BestHeight = round(m.TotalHeight(), 2)
		s.BestBuiltArea = round(m.TotalBuiltArea(), 2)
		s.BestFAR = round(m.FAR(), 3)
		s.BestCoverage = round(m.LotCoverage(), 3)
		s.BestCompliant = r.BestResult.Compliant
		s.BestViolations = strings.Join(r.BestResult.Violations, "; ")
		if !math.IsInf(r.BestScore, 0) {
			s.BestScore = round(r.BestScore, 3)
		}
		if len(m.Params) > 0 {
			if b, err := json.Marshal(m.Params); err == nil {
				s.BestParams = string(b)
			}
		}
	}
	return s
}

func round(v float64, digits int) float64 {
	p := math.Pow(10, float64(digits))
	return math.Round(v*p) / p
}
