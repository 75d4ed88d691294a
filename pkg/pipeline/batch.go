package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/eluisluzquadros/cogniticy/internal/logging"
	"github.com/eluisluzquadros/cogniticy/pkg/checkpoint"
	"github.com/eluisluzquadros/cogniticy/pkg/parcel"
)

// Batch processes parcels in parallel. Each parcel gets its own geometry
// kernel, so workers share no geometry state.
type Batch struct {
	proc       *Processor
	workers    int
	checkpoint *checkpoint.Checkpoint
	runID      string
	logger     *zap.Logger

	mu   sync.Mutex
	errs []error
}

// BatchOption configures a Batch.
type BatchOption func(*Batch)

// WithWorkers sets the number of parcels processed at once.
func WithWorkers(n int) BatchOption {
	return func(b *Batch) {
		if n > 0 {
			b.workers = n
		}
	}
}

// WithCheckpoint records progress in c and skips parcels it marks done.
func WithCheckpoint(c *checkpoint.Checkpoint) BatchOption {
	return func(b *Batch) { b.checkpoint = c }
}

// WithLogger sets the batch logger.
func WithLogger(l *zap.Logger) BatchOption {
	return func(b *Batch) { b.logger = logging.OrNop(l) }
}

// NewBatch creates a batch runner with a fresh run ID.
func NewBatch(proc *Processor, opts ...BatchOption) *Batch {
	b := &Batch{proc: proc, workers: 1, runID: uuid.NewString(), logger: zap.NewNop()}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.With(zap.String("run_id", b.runID))
	b.proc = b.proc.withLogger(b.logger)
	if b.checkpoint != nil {
		b.checkpoint.SetRunID(b.runID)
	}
	return b
}

// RunID identifies this batch in logs, summaries and the checkpoint.
func (b *Batch) RunID() string { return b.runID }

// Run processes parcels and returns their results in input order. Parcel
// failures are reported through result statuses and Errors; Run returns an
// error only for cancellation or a checkpoint write failure, together with
// the results finished so far.
func (b *Batch) Run(ctx context.Context, parcels []parcel.Parcel, edges map[string]parcel.EdgeClassification) ([]*Result, error) {
	b.mu.Lock()
	b.errs = nil
	b.mu.Unlock()

	results := make([]*Result, len(parcels))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)

	b.logger.Info("batch started", zap.Int("parcels", len(parcels)), zap.Int("workers", b.workers))
	for i, p := range parcels {
		if gctx.Err() != nil {
			break
		}
		if r, ok := b.resume(p.ID); ok {
			results[i] = r
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r := b.proc.Run(p, edges[p.ID])
			r.Summary.RunID = b.runID
			results[i] = r
			b.record(r)
			return b.persist(r)
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	done := make([]*Result, 0, len(results))
	for _, r := range results {
		if r != nil {
			done = append(done, r)
		}
	}
	b.logger.Info("batch finished",
		zap.Int("parcels", len(parcels)),
		zap.Int("completed", len(done)),
		zap.Int("errors", len(b.Errors())))
	return done, err
}

// Errors returns the per-parcel failures of the last run.
func (b *Batch) Errors() []error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]error(nil), b.errs...)
}

func (b *Batch) record(r *Result) {
	if r.Status == StatusProcessed {
		return
	}
	err := r.Err
	if err == nil {
		err = fmt.Errorf("%s", r.Reason)
	}
	b.mu.Lock()
	b.errs = append(b.errs, fmt.Errorf("parcel %s: %s: %w", r.ParcelID, r.Status, err))
	b.mu.Unlock()
}

func (b *Batch) persist(r *Result) error {
	if b.checkpoint == nil {
		return nil
	}
	if r.Status == StatusFailed {
		return b.checkpoint.MarkFailed(r.ParcelID, r.Reason, r.Summary)
	}
	return b.checkpoint.MarkProcessed(r.ParcelID, r.Summary)
}

// resume restores a parcel finished by an earlier run.
func (b *Batch) resume(id string) (*Result, bool) {
	if b.checkpoint == nil || !b.checkpoint.Done(id) {
		return nil, false
	}
	var s Summary
	if ok, err := b.checkpoint.Summary(id, &s); !ok || err != nil {
		b.logger.Warn("checkpoint has no usable summary, reprocessing", zap.String("parcel", id), zap.Error(err))
		return nil, false
	}
	b.logger.Debug("parcel already processed", zap.String("parcel", id))
	return &Result{ParcelID: id, Status: s.Status, Reason: s.Reason, Resumed: true, Summary: s}, true
}
