package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/eluisluzquadros/cogniticy/internal/logging"
	"github.com/eluisluzquadros/cogniticy/pkg/checkpoint"
	"github.com/eluisluzquadros/cogniticy/pkg/envelope"
	"github.com/eluisluzquadros/cogniticy/pkg/export"
	"github.com/eluisluzquadros/cogniticy/pkg/geo"
	"github.com/eluisluzquadros/cogniticy/pkg/massing"
	"github.com/eluisluzquadros/cogniticy/pkg/parcel"
	"github.com/eluisluzquadros/cogniticy/pkg/parcelio"
	"github.com/eluisluzquadros/cogniticy/pkg/pipeline"
	"github.com/eluisluzquadros/cogniticy/pkg/validation"
	"github.com/eluisluzquadros/cogniticy/pkg/zoning"
)

// loadProject loads the project and builds its logger, applying the global
// flag overrides.
func loadProject(projectPath string, g *globalOptions) (*zoning.Project, *zap.Logger, error) {
	p, err := zoning.LoadProject(projectPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading project: %w", err)
	}
	cfg := p.Logging
	if g.logLevel != "" {
		cfg.Level = g.logLevel
	}
	if g.logFormat != "" {
		cfg.Format = g.logFormat
	}
	logger, err := logging.New(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("building logger: %w", err)
	}
	return p, logger.With(zap.String("project", p.Name)), nil
}

func loadParcels(p *zoning.Project, logger *zap.Logger) ([]parcel.Parcel, map[string]parcel.EdgeClassification, error) {
	l := parcelio.NewLoader(p.Simulation, logger)
	parcels, err := l.Parcels(p.Path(p.Simulation.Parcels))
	if err != nil {
		return nil, nil, fmt.Errorf("loading parcels: %w", err)
	}
	edges, err := l.Edges(p.Path(p.Simulation.Edges))
	if err != nil {
		return nil, nil, fmt.Errorf("loading edges: %w", err)
	}
	return parcels, edges, nil
}

func runValidate(projectPath string, g *globalOptions) error {
	p, logger, err := loadProject(projectPath, g)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	report := validation.ValidateSchema(p)
	if report.Valid() {
		parcels, _, err := loadParcels(p, logger)
		if err != nil {
			return err
		}
		report = validation.ValidateProject(p, parcels, geo.NewKernel())
	}

	printValidationReport(report)

	if !report.Valid() {
		os.Exit(1)
	}
	return nil
}

func runEnvelope(projectPath string, g *globalOptions) error {
	p, logger, err := loadProject(projectPath, g)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	parcels, edges, err := loadParcels(p, logger)
	if err != nil {
		return err
	}

	defaults := p.ZoningDefaults()
	rows := make([]envelopeRow, 0, len(parcels))
	for _, pc := range parcels {
		row := envelopeRow{ID: pc.ID, ParcelArea: pc.Area, Edges: edges[pc.ID].Summary()}
		z, err := zoning.Resolve(defaults, pc.Properties)
		if err != nil {
			row.Err = err
			rows = append(rows, row)
			continue
		}
		engine := envelope.NewEngine(geo.NewKernel(), logger)
		res, err := engine.Base(pc, edges[pc.ID], z)
		row.Result, row.Err = res, err
		rows = append(rows, row)
	}
	printEnvelopeTable(rows)
	return nil
}

func runSolve(ctx context.Context, projectPath string, g *globalOptions, opts *solveOptions) error {
	p, logger, err := loadProject(projectPath, g)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	schemaReport := validation.ValidateSchema(p)
	if err := schemaReport.Err(); err != nil {
		printValidationReport(schemaReport)
		return err
	}

	outDir := p.Path(p.Simulation.OutputDirectory)
	if opts.output != "" {
		outDir = opts.output
	}
	workers := p.Simulation.Workers
	if opts.workers > 0 {
		workers = opts.workers
	}

	parcels, edges, err := loadParcels(p, logger)
	if err != nil {
		return err
	}
	proc, err := pipeline.NewProcessor(p, logger)
	if err != nil {
		return fmt.Errorf("configuring pipeline: %w", err)
	}

	var cp *checkpoint.Checkpoint
	if p.Simulation.Checkpoint || opts.resume {
		cp, err = openCheckpoint(filepath.Join(outDir, checkpoint.FileName), p.Name, opts.resume)
		if err != nil {
			return err
		}
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	batch := pipeline.NewBatch(proc,
		pipeline.WithWorkers(workers),
		pipeline.WithCheckpoint(cp),
		pipeline.WithLogger(logger))
	results, runErr := batch.Run(ctx, parcels, edges)

	w := export.NewWriter(outDir, p.Name, logger)
	for _, r := range results {
		if _, err := w.Parcel(r); err != nil {
			return err
		}
	}
	summaryPath, err := w.Summary(export.Summaries(results), p.Simulation.SummaryFormat)
	if err != nil {
		return err
	}

	if opts.json {
		if err := printJSON(batch.RunID(), results); err != nil {
			return err
		}
	} else {
		printSolveTable(batch.RunID(), results)
		fmt.Printf("\nSummary written to %s\n", summaryPath)
	}
	printBatchErrors(batch.Errors())
	return runErr
}

// openCheckpoint starts a fresh checkpoint unless resuming.
func openCheckpoint(path, project string, resume bool) (*checkpoint.Checkpoint, error) {
	if !resume {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("clearing checkpoint: %w", err)
		}
	}
	return checkpoint.Open(path, project)
}

type jsonResult struct {
	Summary pipeline.Summary      `json:"summary"`
	Floors  []massing.FloorRecord `json:"floors"`
}

func printJSON(runID string, results []*pipeline.Result) error {
	out := struct {
		RunID   string       `json:"run_id"`
		Results []jsonResult `json:"results"`
	}{RunID: runID, Results: make([]jsonResult, len(results))}
	for i, r := range results {
		out.Results[i] = jsonResult{Summary: r.Summary, Floors: r.Floors}
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
