// Package search runs every shape generator over a base envelope, stacks and
// scores each candidate, and keeps the best massing.
package search

import (
	"fmt"
	"math"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/eluisluzquadros/cogniticy/internal/logging"
	"github.com/eluisluzquadros/cogniticy/pkg/compliance"
	"github.com/eluisluzquadros/cogniticy/pkg/geo"
	"github.com/eluisluzquadros/cogniticy/pkg/massing"
	"github.com/eluisluzquadros/cogniticy/pkg/shape"
)

// Builder stacks a candidate footprint into a massing.
type Builder interface {
	Build(c shape.Candidate) *massing.Massing
}

// Scorer evaluates a massing.
type Scorer interface {
	Evaluate(m *massing.Massing) (float64, compliance.Result)
}

// Evaluation is one entry of the search log.
type Evaluation struct {
	GeneratorIndex int               `json:"generator_index"`
	CandidateIndex int               `json:"candidate_index"`
	Generator      string            `json:"generator"`
	Candidate      shape.Candidate   `json:"-"`
	Massing        *massing.Massing  `json:"-"`
	Result         compliance.Result `json:"result"`
	Err            error             `json:"-"`
}

// Score returns the evaluation score, or negative infinity for a failed one.
func (e Evaluation) Score() float64 {
	if e.Err != nil {
		return math.Inf(-1)
	}
	return e.Result.Score
}

// Outcome is the result of one optimization run.
type Outcome struct {
	// Best is nil when no candidate produced a massing with floors.
	Best      *massing.Massing
	BestScore float64
	Result    compliance.Result
	Log       []Evaluation
}

// Optimizer is a finite grid search over generator candidates.
type Optimizer struct {
	builder Builder
	scorer  Scorer
	workers int
	logger  *zap.Logger
}

// Option configures an Optimizer.
type Option func(*Optimizer)

// WithWorkers evaluates candidates on n goroutines. The selected massing does
// not depend on n.
func WithWorkers(n int) Option {
	return func(o *Optimizer) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithLogger sets the optimizer logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *Optimizer) { o.logger = logging.OrNop(l) }
}

// New creates an optimizer.
func New(b Builder, s Scorer, opts ...Option) *Optimizer {
	o := &Optimizer{builder: b, scorer: s, workers: 1, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Optimize generates candidates from every generator in order, evaluates all
// of them and returns the best. Ties go to the earliest candidate.
func (o *Optimizer) Optimize(envelope geo.Polygon, gens []shape.Generator) (*Outcome, error) {
	if envelope.IsEmpty() {
		return nil, fmt.Errorf("optimize: empty envelope")
	}

	var log []Evaluation
	for gi, g := range gens {
		cs, err := g.Generate(envelope)
		if err != nil {
			o.logger.Warn("generator failed", zap.String("generator", g.Name()), zap.Error(err))
			continue
		}
		for ci, c := range cs {
			log = append(log, Evaluation{
				GeneratorIndex: gi,
				CandidateIndex: ci,
				Generator:      g.Name(),
				Candidate:      c,
			})
		}
	}

	if err := o.evaluate(log); err != nil {
		return nil, err
	}

	out := &Outcome{Log: log, BestScore: math.Inf(-1)}
	if best, ok := reduce(log); ok {
		e := log[best]
		out.Best = e.Massing
		out.BestScore = e.Score()
		out.Result = e.Result
		o.logger.Info("best candidate",
			zap.String("generator", e.Generator),
			zap.String("shape", e.Candidate.Shape),
			zap.Float64("score", out.BestScore))
	} else {
		o.logger.Info("no candidate produced floors", zap.Int("candidates", len(log)))
	}
	return out, nil
}

// evaluate fills in each log entry. Entries are written by index, so the
// fan-out needs no locking.
func (o *Optimizer) evaluate(log []Evaluation) error {
	if o.workers <= 1 {
		for i := range log {
			o.evaluateOne(&log[i])
		}
		return nil
	}
	var g errgroup.Group
	g.SetLimit(o.workers)
	for i := range log {
		g.Go(func() error {
			o.evaluateOne(&log[i])
			return nil
		})
	}
	return g.Wait()
}

func (o *Optimizer) evaluateOne(e *Evaluation) {
	m := o.builder.Build(e.Candidate)
	if m == nil {
		e.Err = fmt.Errorf("candidate %q: no massing built", e.Candidate.Shape)
		o.logger.Error("candidate failed", zap.String("generator", e.Generator), zap.Error(e.Err))
		return
	}
	score, res := o.scorer.Evaluate(m)
	e.Massing, e.Result = m, res
	o.logger.Info("candidate evaluated",
		zap.String("generator", e.Generator),
		zap.String("shape", e.Candidate.Shape),
		zap.Int("floors", m.NumFloors()),
		zap.Float64("score", score),
		zap.Bool("compliant", res.Compliant))
}

// reduce folds the log in (generator, candidate) order with a strict
// comparison and returns the index of the best entry with floors.
func reduce(log []Evaluation) (int, bool) {
	best, bestScore := -1, math.Inf(-1)
	for i, e := range log {
		if e.Err != nil || e.Massing == nil || e.Massing.Empty() {
			continue
		}
		if s := e.Score(); best < 0 || s > bestScore {
			best, bestScore = i, s
		}
	}
	return best, best >= 0
}
