// Package compliance checks a stacked massing against its zoning limits and
// scores it for the search objective.
package compliance

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	cerrors "github.com/eluisluzquadros/cogniticy/internal/errors"
	"github.com/eluisluzquadros/cogniticy/internal/logging"
	"github.com/eluisluzquadros/cogniticy/pkg/massing"
	"github.com/eluisluzquadros/cogniticy/pkg/zoning"
)

// Penalty weights for non-compliant massings.
const (
	ViolationPenalty = 1000.0
	HeightPenalty    = 5.0
	FARPenalty       = 50.0
)

// Metrics is a snapshot of a scored massing.
type Metrics struct {
	ParcelID    string         `json:"numlote"`
	Generator   string         `json:"generator"`
	Shape       string         `json:"shape_name"`
	Morphology  string         `json:"morphology_type"`
	Floors      int            `json:"num_floors"`
	Height      float64        `json:"total_height"`
	BuiltArea   float64        `json:"total_built_area"`
	FAR         float64        `json:"achieved_far"`
	LotCoverage float64        `json:"achieved_lot_coverage"`
	Slenderness float64        `json:"slenderness"`
	Efficiency  *float64       `json:"efficiency,omitempty"`
	Compliant   bool           `json:"is_compliant"`
	Violations  []string       `json:"violations"`
	Score       float64        `json:"score"`
	Params      map[string]any `json:"params,omitempty"`
}

// Result is the outcome of evaluating one massing. Violations are data, not
// errors.
type Result struct {
	Score      float64  `json:"score"`
	Compliant  bool     `json:"compliant"`
	Violations []string `json:"violations"`
	Metrics    Metrics  `json:"metrics"`
}

// Evaluator scores massings for one objective.
type Evaluator struct {
	objective string
	logger    *zap.Logger
}

// NewEvaluator returns an evaluator for the objective. An empty objective
// selects the default.
func NewEvaluator(objective string, logger *zap.Logger) (*Evaluator, error) {
	if objective == "" {
		objective = zoning.ObjectiveMaxFAR
	}
	if objective != zoning.ObjectiveMaxFAR {
		return nil, cerrors.Configuration("unsupported objective %q", objective)
	}
	return &Evaluator{objective: objective, logger: logging.OrNop(logger)}, nil
}

// Check reports compliance and one violation per breached limit.
func Check(m *massing.Massing) (bool, []string) {
	z := m.Zoning
	violations := []string{}
	if h := m.TotalHeight(); h > z.MaxHeight*massing.Tolerance {
		violations = append(violations, fmt.Sprintf("height exceeded: %.2fm > %.2fm", h, z.MaxHeight))
	}
	if far := m.FAR(); far > z.MaxFAR*massing.Tolerance {
		violations = append(violations, fmt.Sprintf("FAR exceeded: %.3f > %.3f", far, z.MaxFAR))
	}
	if cov := m.LotCoverage(); cov > z.MaxLotCoverage*massing.Tolerance {
		violations = append(violations, fmt.Sprintf("lot coverage exceeded: %.3f > %.3f", cov, z.MaxLotCoverage))
	}
	return len(violations) == 0, violations
}

// Evaluate scores m. A massing without floors scores negative infinity so
// that it is never selected.
func (e *Evaluator) Evaluate(m *massing.Massing) (float64, Result) {
	res := Result{Metrics: snapshot(m)}
	if m == nil || m.Empty() {
		res.Score = math.Inf(-1)
		res.Violations = []string{}
		res.Metrics.Score = res.Score
		return res.Score, res
	}

	compliant, violations := Check(m)
	res.Compliant, res.Violations = compliant, violations
	res.Score = e.score(m, compliant, len(violations))

	res.Metrics.Compliant = compliant
	res.Metrics.Violations = violations
	res.Metrics.Score = res.Score

	e.logger.Debug("massing evaluated",
		zap.String("parcel", m.ParcelID),
		zap.String("shape", m.Shape),
		zap.Float64("score", res.Score),
		zap.Bool("compliant", compliant))
	return res.Score, res
}

func (e *Evaluator) score(m *massing.Massing, compliant bool, violations int) float64 {
	z := m.Zoning
	h, far := m.TotalHeight(), m.FAR()

	if compliant {
		score := far * 100
		ratio := 0.0
		if z.MaxHeight > 1e-6 {
			ratio = h / z.MaxHeight
		}
		if ratio <= 1 {
			score += ratio * 10
		}
		return score
	}

	score := -ViolationPenalty * float64(violations)
	if h > z.MaxHeight {
		score -= (h - z.MaxHeight) * HeightPenalty
	}
	if far > z.MaxFAR {
		score -= (far - z.MaxFAR) * FARPenalty
	}
	return score
}

func snapshot(m *massing.Massing) Metrics {
	if m == nil {
		return Metrics{Violations: []string{}}
	}
	return Metrics{
		ParcelID:    m.ParcelID,
		Generator:   m.Generator,
		Shape:       m.Shape,
		Morphology:  m.Morphology,
		Floors:      m.NumFloors(),
		Height:      m.TotalHeight(),
		BuiltArea:   m.TotalBuiltArea(),
		FAR:         m.FAR(),
		LotCoverage: m.LotCoverage(),
		Slenderness: m.Slenderness(),
		Efficiency:  m.Efficiency(),
		Violations:  []string{},
		Params:      m.Params,
	}
}
