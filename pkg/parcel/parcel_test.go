package parcel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eluisluzquadros/cogniticy/pkg/geo"
)

func TestNewComputesAreaAndOrientation(t *testing.T) {
	p := New("L1", geo.Rect(0, 0, 20, 30).Reverse(), "EPSG:31982", nil)
	assert.InDelta(t, 600.0, p.Area, 1e-9)
	assert.True(t, p.Boundary.IsCounterClockwise())
	assert.Equal(t, "EPSG:31982", p.CRS)
}

func TestParseCategoryAliases(t *testing.T) {
	cases := map[string]Category{
		"front":    Front,
		"Frente":   Front,
		" fundos ": Back,
		"back":     Back,
		"LATERAL":  Side,
		"laterais": Side,
	}
	for label, want := range cases {
		got, ok := ParseCategory(label)
		require.True(t, ok, "label %q", label)
		assert.Equal(t, want, got, "label %q", label)
	}
	_, ok := ParseCategory("esquina")
	assert.False(t, ok)
}

func TestEdgeClassificationHasAny(t *testing.T) {
	e := EdgeClassification{}
	assert.False(t, e.HasAny())

	e["corner"] = []geo.Segment{geo.Seg(0, 0, 1, 0)}
	assert.False(t, e.HasAny(), "unknown categories do not count")

	e.Add(Side, geo.Seg(0, 0, 0, 1))
	assert.True(t, e.HasAny())
	assert.Equal(t, 1, e.Count())
}
