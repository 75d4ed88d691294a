package pipeline

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	cerrors "github.com/eluisluzquadros/cogniticy/internal/errors"
	"github.com/eluisluzquadros/cogniticy/internal/parceltest"
	"github.com/eluisluzquadros/cogniticy/pkg/checkpoint"
	"github.com/eluisluzquadros/cogniticy/pkg/envelope"
	"github.com/eluisluzquadros/cogniticy/pkg/geo"
	"github.com/eluisluzquadros/cogniticy/pkg/massing"
	"github.com/eluisluzquadros/cogniticy/pkg/parcel"
	"github.com/eluisluzquadros/cogniticy/pkg/parcelio"
	"github.com/eluisluzquadros/cogniticy/pkg/zoning"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testProject(mode string) *zoning.Project {
	return &zoning.Project{
		Name: "test",
		Defaults: map[string]any{
			zoning.KeyMaxHeight:         30,
			zoning.KeyMaxFAR:            4,
			zoning.KeyMaxLotCoverage:    0.8,
			zoning.KeyMinFrontSetback:   3,
			zoning.KeyMinBackSetback:    2,
			zoning.KeyMinSideSetback:    1,
			zoning.KeyGroundFloorHeight: 4.5,
			zoning.KeyUpperFloorHeight:  3,
			zoning.KeyMinFloorArea:      20,
		},
		Modeling: zoning.Modeling{
			Mode:             mode,
			Objective:        zoning.ObjectiveMaxFAR,
			ShapeRatioSteps:  []float64{0.4, 0.5},
			GridResolution:   12,
			Generators:       []string{"orthogonal", "composite"},
			CandidateWorkers: 2,
		},
	}
}

func rectParcel(id string, w, l float64, props map[string]any) (parcel.Parcel, parcel.EdgeClassification) {
	p := parcel.New(id, geo.Rect(0, 0, w, l), "EPSG:31982", props)
	return p, parceltest.Classify(p.Boundary)
}

func newProcessor(t *testing.T, p *zoning.Project) *Processor {
	t.Helper()
	pr, err := NewProcessor(p, nil)
	require.NoError(t, err)
	return pr
}

func TestRunBasicUsesBaseline(t *testing.T) {
	p, edges := rectParcel("L001", 20, 30, nil)
	r := newProcessor(t, testProject(zoning.ModeBasic)).Run(p, edges)

	require.Equal(t, StatusProcessed, r.Status, r.Reason)
	assert.Equal(t, envelope.PathFaceAware, r.Envelope.Path)
	assert.InDelta(t, 450, r.Envelope.Area(), 1e-6)
	require.NotNil(t, r.Best)
	assert.Same(t, r.Baseline, r.Best)
	assert.Empty(t, r.Log)

	assert.Equal(t, 5, r.Best.NumFloors())
	assert.Equal(t, massing.StopFAR, r.Best.Stop)
	assert.InDelta(t, 3.75*100+16.5/30*10, r.BestScore, 1e-6)
	assert.Len(t, r.Floors, 5)
	assert.Equal(t, "Ground", r.Floors[0].FloorName)

	s := r.Summary
	assert.Equal(t, "L001", s.ParcelID)
	assert.Equal(t, StatusProcessed, s.Status)
	assert.Equal(t, "face_aware", s.EnvelopePath)
	assert.Equal(t, "Ortogonal", s.BestShape)
	assert.Equal(t, 3.75, s.BestFAR)
	assert.True(t, s.BestCompliant)
	assert.Equal(t, `{"source":"obb"}`, s.BestParams)
}

func TestRunAdvancedSearches(t *testing.T) {
	p, edges := rectParcel("L001", 20, 30, nil)
	r := newProcessor(t, testProject(zoning.ModeAdvanced)).Run(p, edges)

	require.Equal(t, StatusProcessed, r.Status, r.Reason)
	assert.Len(t, r.Log, 5)
	assert.GreaterOrEqual(t, r.BestScore, r.BaselineResult.Score)
	assert.InDelta(t, 401.25, r.BestScore, 1e-6)
	assert.Equal(t, 7, r.Best.NumFloors())
	assert.Equal(t, 5, r.Summary.Candidates)
	assert.Equal(t, "Ortogonal", r.Summary.BaselineShape)
}

func TestRunStatuses(t *testing.T) {
	proj := testProject(zoning.ModeBasic)
	proj.Simulation.MinParcelArea = 50
	pr := newProcessor(t, proj)

	t.Run("below minimum area", func(t *testing.T) {
		p, edges := rectParcel("small", 5, 5, nil)
		r := pr.Run(p, edges)
		assert.Equal(t, StatusSkipped, r.Status)
		assert.Contains(t, r.Reason, "min_parcel_area")
		assert.Nil(t, r.Best)
	})

	t.Run("invalid zoning", func(t *testing.T) {
		p, edges := rectParcel("bad", 20, 30, map[string]any{"max_height": -5})
		r := pr.Run(p, edges)
		assert.Equal(t, StatusSkipped, r.Status)
		assert.True(t, cerrors.IsKind(r.Err, cerrors.KindConfiguration))
		assert.Contains(t, r.Reason, "max_height")
	})

	t.Run("envelope empty", func(t *testing.T) {
		p := parcel.New("tight", geo.Rect(0, 0, 10, 10), "", map[string]any{
			"min_front_setback": 6, "min_back_setback": 6, "min_side_setback": 6,
		})
		r := pr.Run(p, nil)
		assert.Equal(t, StatusEnvelopeEmpty, r.Status)
		assert.True(t, cerrors.IsKind(r.Err, cerrors.KindEnvelopeEmpty))
		assert.Nil(t, r.Best)
		assert.Equal(t, StatusEnvelopeEmpty, r.Summary.Status)
		assert.Zero(t, r.Summary.BestFloors)
	})

	t.Run("property overrides", func(t *testing.T) {
		p, edges := rectParcel("low", 20, 30, map[string]any{"max_height": 9, "zot": "ZR-2"})
		r := pr.Run(p, edges)
		require.Equal(t, StatusProcessed, r.Status)
		assert.Equal(t, 2, r.Best.NumFloors(), "4.5 + 3 fits under 9m, a third floor does not")
		assert.Equal(t, "ZR-2", r.Summary.Zone)
	})
}

func TestNewProcessorRejectsBadProject(t *testing.T) {
	p := testProject(zoning.ModeAdvanced)
	p.Modeling.Generators = []string{"orthogonal", "voronoi"}
	_, err := NewProcessor(p, nil)
	assert.True(t, cerrors.IsKind(err, cerrors.KindConfiguration))

	p = testProject(zoning.ModeAdvanced)
	p.Modeling.Objective = "minimize_cost"
	_, err = NewProcessor(p, nil)
	assert.True(t, cerrors.IsKind(err, cerrors.KindConfiguration))

	p = testProject(zoning.ModeAdvanced)
	p.Modeling.GridResolution = 16
	_, err = NewProcessor(p, nil)
	assert.True(t, cerrors.IsKind(err, cerrors.KindConfiguration))
}

func loadDemo(t *testing.T) (*zoning.Project, []parcel.Parcel, map[string]parcel.EdgeClassification) {
	t.Helper()
	proj, err := zoning.LoadProject("../../examples/demo")
	require.NoError(t, err)
	l := parcelio.NewLoader(proj.Simulation, nil)
	ps, err := l.Parcels(proj.Path(proj.Simulation.Parcels))
	require.NoError(t, err)
	edges, err := l.Edges(proj.Path(proj.Simulation.Edges))
	require.NoError(t, err)
	return proj, ps, edges
}

func statuses(rs []*Result) map[string]Status {
	out := map[string]Status{}
	for _, r := range rs {
		out[r.ParcelID] = r.Status
	}
	return out
}

func TestBatchDemo(t *testing.T) {
	proj, ps, edges := loadDemo(t)
	b := NewBatch(newProcessor(t, proj), WithWorkers(proj.Simulation.Workers))

	rs, err := b.Run(context.Background(), ps, edges)
	require.NoError(t, err)
	require.Len(t, rs, 4)

	for i, r := range rs {
		assert.Equal(t, ps[i].ID, r.ParcelID, "results keep input order")
		assert.Equal(t, b.RunID(), r.Summary.RunID)
	}
	assert.Equal(t, map[string]Status{
		"L001": StatusProcessed,
		"L002": StatusProcessed,
		"L003": StatusSkipped,
		"L004": StatusSkipped,
	}, statuses(rs))
	assert.Len(t, b.Errors(), 2)

	l2 := rs[1]
	assert.Equal(t, envelope.PathFallback, l2.Envelope.Path, "L002 has no classified edges")
	assert.Equal(t, massing.StopSetback, l2.Baseline.Stop, "no edges to re-derive the back setback from")
}

func TestBatchesKeepTheirOwnLogger(t *testing.T) {
	pr := newProcessor(t, testProject(zoning.ModeBasic))
	core, logs := observer.New(zap.DebugLevel)
	a := NewBatch(pr, WithLogger(zap.New(core)))
	b := NewBatch(pr, WithLogger(zap.New(core)))
	require.NotSame(t, pr, a.proc)
	require.NotSame(t, a.proc, b.proc)

	p, edges := rectParcel("L001", 20, 30, nil)
	_, err := a.Run(context.Background(), []parcel.Parcel{p}, map[string]parcel.EdgeClassification{"L001": edges})
	require.NoError(t, err)
	require.NotZero(t, logs.Len())
	for _, e := range logs.TakeAll() {
		assert.Equal(t, a.RunID(), e.ContextMap()["run_id"], e.Message)
	}

	pr.Run(p, edges)
	assert.Zero(t, logs.Len(), "the shared processor keeps its own logger")
}

func TestBatchResume(t *testing.T) {
	proj, ps, edges := loadDemo(t)
	path := filepath.Join(t.TempDir(), checkpoint.FileName)

	cp, err := checkpoint.Open(path, proj.Name)
	require.NoError(t, err)
	first := NewBatch(newProcessor(t, proj), WithWorkers(2), WithCheckpoint(cp))
	rs1, err := first.Run(context.Background(), ps, edges)
	require.NoError(t, err)

	cp, err = checkpoint.Open(path, proj.Name)
	require.NoError(t, err)
	assert.Equal(t, []string{"L001", "L002", "L003", "L004"}, cp.Processed())

	second := NewBatch(newProcessor(t, proj), WithCheckpoint(cp))
	rs2, err := second.Run(context.Background(), ps, edges)
	require.NoError(t, err)
	require.Len(t, rs2, 4)
	for i, r := range rs2 {
		assert.True(t, r.Resumed)
		assert.Equal(t, rs1[i].Summary, r.Summary)
	}
	assert.Empty(t, second.Errors())
}

func TestBatchCancelled(t *testing.T) {
	proj, ps, edges := loadDemo(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rs, err := NewBatch(newProcessor(t, proj), WithWorkers(2)).Run(ctx, ps, edges)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, rs)
}
