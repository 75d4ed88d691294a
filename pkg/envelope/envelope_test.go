package envelope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cerrors "github.com/eluisluzquadros/cogniticy/internal/errors"
	"github.com/eluisluzquadros/cogniticy/internal/parceltest"
	"github.com/eluisluzquadros/cogniticy/pkg/geo"
	"github.com/eluisluzquadros/cogniticy/pkg/parcel"
	"github.com/eluisluzquadros/cogniticy/pkg/zoning"
)

func rectParcel(w, l float64) parcel.Parcel {
	return parcel.New("P", geo.Rect(0, 0, w, l), "", nil)
}

// rectEdges classifies a w×l rectangle with the front on y=l and the back on y=0.
func rectEdges(w, l float64) parcel.EdgeClassification {
	e := parcel.EdgeClassification{}
	e.Add(parcel.Front, geo.Seg(0, l, w, l))
	e.Add(parcel.Back, geo.Seg(w, 0, 0, 0))
	e.Add(parcel.Side, geo.Seg(w, 0, w, l), geo.Seg(0, l, 0, 0))
	return e
}

func newEngine() *Engine {
	return NewEngine(geo.NewKernel(), nil)
}

func TestZeroSetbackIdentity(t *testing.T) {
	e := newEngine()
	for _, p := range []parcel.Parcel{
		rectParcel(20, 30),
		parcel.New("Q", geo.NewPolygon(geo.Pt(0, 0), geo.Pt(25, 2), geo.Pt(27, 18), geo.Pt(3, 21)), "", nil),
	} {
		got, err := e.Derive(p, parceltest.Classify(p.Boundary), 0, 0, 0)
		require.NoError(t, err)
		assert.InEpsilon(t, p.Area, got.Area(), 1e-6)
	}
}

func TestRectangularSetbackFormula(t *testing.T) {
	cases := []struct {
		w, l, f, b, s float64
	}{
		{20, 30, 3, 2, 1},
		{25, 40, 5, 4, 2},
		{12, 12, 1, 1, 1},
		{20, 30, 3, 0, 0},
		{20, 30, 0, 0, 1.5},
	}
	e := newEngine()
	for _, tc := range cases {
		p := rectParcel(tc.w, tc.l)
		got, err := e.Derive(p, rectEdges(tc.w, tc.l), tc.f, tc.b, tc.s)
		require.NoError(t, err)
		want := (tc.l - tc.f - tc.b) * (tc.w - 2*tc.s)
		assert.InDelta(t, want, got.Area(), 0.1, "w=%v l=%v f=%v b=%v s=%v", tc.w, tc.l, tc.f, tc.b, tc.s)

		minP, maxP := got.BoundingBox()
		assert.InDelta(t, tc.s, minP.X, 1e-6)
		assert.InDelta(t, tc.b, minP.Y, 1e-6)
		assert.InDelta(t, tc.w-tc.s, maxP.X, 1e-6)
		assert.InDelta(t, tc.l-tc.f, maxP.Y, 1e-6)
	}
}

func TestTracePathFaceAware(t *testing.T) {
	e := newEngine()
	r, err := e.Trace(rectParcel(20, 30), rectEdges(20, 30), Setbacks{Front: 3, Back: 2, Side: 1})
	require.NoError(t, err)
	assert.Equal(t, PathFaceAware, r.Path)
	assert.InDelta(t, 450, r.Area(), 0.1)
}

func TestFallbackMatchesUniformBuffer(t *testing.T) {
	k := geo.NewKernel()
	e := NewEngine(k, nil)
	parcels := []parcel.Parcel{
		rectParcel(20, 30),
		parcel.New("L", geo.NewPolygon(geo.Pt(0, 0), geo.Pt(40, 0), geo.Pt(40, 10), geo.Pt(10, 10), geo.Pt(10, 30), geo.Pt(0, 30)), "", nil),
	}
	for _, p := range parcels {
		r, err := e.Trace(p, parcel.EdgeClassification{}, Setbacks{Front: 2, Back: 2, Side: 2})
		require.NoError(t, err)
		assert.Equal(t, PathFallback, r.Path)

		buffered, err := k.Buffer(p.Boundary, -2)
		require.NoError(t, err)
		want := geo.Largest(buffered)
		assert.InDelta(t, want.Area(), r.Area(), 1e-9)
		assert.Equal(t, want.Len(), r.Polygon.Len())
	}
	r, _ := e.Trace(parcels[0], nil, Setbacks{Front: 2, Back: 2, Side: 2})
	assert.InDelta(t, 16*26, r.Area(), 1e-6)
}

func TestFallbackUsesSmallestSetback(t *testing.T) {
	e := newEngine()
	got, err := e.Derive(rectParcel(20, 30), nil, 5, 3, 1)
	require.NoError(t, err)
	assert.InDelta(t, 18*28, got.Area(), 1e-6)
}

func TestIncompleteEdgesFallBack(t *testing.T) {
	e := newEngine()
	edges := parcel.EdgeClassification{}
	edges.Add(parcel.Front, geo.Seg(0, 30, 20, 30))
	r, err := e.Trace(rectParcel(20, 30), edges, Setbacks{Front: 3, Back: 2, Side: 1})
	require.NoError(t, err)
	assert.Equal(t, PathFallback, r.Path)
	assert.InDelta(t, 18*28, r.Area(), 1e-6)
}

func TestReflexCornerFallsBack(t *testing.T) {
	e := newEngine()
	l := geo.NewPolygon(geo.Pt(0, 0), geo.Pt(40, 0), geo.Pt(40, 10), geo.Pt(10, 10), geo.Pt(10, 30), geo.Pt(0, 30))
	p := parcel.New("L", l, "", nil)
	edges := parcel.EdgeClassification{}
	edges.Add(parcel.Side, p.Boundary.Edges()...)
	r, err := e.Trace(p, edges, Setbacks{Side: 1})
	require.NoError(t, err)
	assert.Equal(t, PathParcel, r.Path, "open offset lines fall back, and a zero minimum keeps the parcel")
	assert.InDelta(t, p.Area, r.Area(), 1e-9)
}

func TestInwardAmbiguousSideUsesCentroid(t *testing.T) {
	e := newEngine()
	// A U-shaped lot whose notch is narrower than the offset: both offsets of
	// the notch's left wall land inside the lot.
	u := geo.NewPolygon(
		geo.Pt(0, 0), geo.Pt(20, 0), geo.Pt(20, 10), geo.Pt(15, 10),
		geo.Pt(15, 3), geo.Pt(13, 3), geo.Pt(13, 10), geo.Pt(0, 10),
	)
	log := e.logger
	for _, s := range []geo.Segment{geo.Seg(13, 3, 13, 10), geo.Seg(13, 10, 13, 3)} {
		left, err := e.kernel.OffsetSegment(s, 3)
		require.NoError(t, err)
		right, err := e.kernel.OffsetSegment(s, -3)
		require.NoError(t, err)
		require.True(t, u.Covers(left.MidPoint(), coverEps))
		require.True(t, u.Covers(right.MidPoint(), coverEps))

		got, err := e.inward(log, u, u.Centroid(), s, 3)
		require.NoError(t, err)
		assert.InDelta(t, 10, got.MidPoint().X, 1e-6, "segment %v", s)
		assert.InDelta(t, 6.5, got.MidPoint().Y, 1e-6, "segment %v", s)
	}
}

func TestInwardPicksCoveredSide(t *testing.T) {
	e := newEngine()
	r := geo.Rect(0, 0, 20, 30)
	for _, s := range []geo.Segment{geo.Seg(0, 30, 20, 30), geo.Seg(20, 30, 0, 30)} {
		got, err := e.inward(e.logger, r, r.Centroid(), s, 3)
		require.NoError(t, err)
		assert.InDelta(t, 27, got.MidPoint().Y, 1e-6, "segment %v", s)
	}
}

func TestNegativeSetbackIsIgnored(t *testing.T) {
	e := newEngine()
	r, err := e.Trace(rectParcel(20, 30), rectEdges(20, 30), Setbacks{Front: -1, Back: 2, Side: 1})
	require.NoError(t, err)
	// The front category is dropped so the offset lines stay open; the
	// fallback minimum is negative and leaves the parcel untouched.
	assert.Equal(t, PathParcel, r.Path)
	assert.InDelta(t, 600, r.Area(), 1e-9)
}

func TestEnvelopeEmpty(t *testing.T) {
	e := newEngine()
	_, err := e.Derive(rectParcel(4, 4), nil, 3, 3, 3)
	require.Error(t, err)
	assert.True(t, cerrors.IsKind(err, cerrors.KindEnvelopeEmpty))

	_, err = e.Derive(parcel.Parcel{ID: "none"}, nil, 1, 1, 1)
	assert.True(t, cerrors.IsKind(err, cerrors.KindEnvelopeEmpty))
}

func TestOversizedSetbacksAreEmpty(t *testing.T) {
	e := newEngine()
	_, err := e.Derive(rectParcel(6, 6), rectEdges(6, 6), 7, 7, 7)
	require.Error(t, err)
	assert.True(t, cerrors.IsKind(err, cerrors.KindEnvelopeEmpty))
}

func TestBaseUsesZoningSetbacks(t *testing.T) {
	e := newEngine()
	z := zoning.Envelope{MinFrontSetback: 3, MinBackSetback: 2, MinSideSetback: 1}
	r, err := e.Base(rectParcel(20, 30), rectEdges(20, 30), z)
	require.NoError(t, err)
	assert.Equal(t, Setbacks{Front: 3, Back: 2, Side: 1}, r.Setbacks)
	assert.InDelta(t, 450, r.Area(), 0.1)
}

func TestSetbacks(t *testing.T) {
	s := Setbacks{Front: 3, Back: 2, Side: 1}
	assert.Equal(t, 3.0, s.Of(parcel.Front))
	assert.Equal(t, 2.0, s.Of(parcel.Back))
	assert.Equal(t, 1.0, s.Of(parcel.Side))
	assert.Equal(t, 1.0, s.Min())
	assert.False(t, s.Zero())
	assert.True(t, Setbacks{}.Zero())
}
