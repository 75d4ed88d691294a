package parceltest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eluisluzquadros/cogniticy/pkg/geo"
	"github.com/eluisluzquadros/cogniticy/pkg/parcel"
)

func TestClassifyRectangle(t *testing.T) {
	e := Classify(geo.Rect(0, 0, 20, 30))
	require.Len(t, e[parcel.Front], 1)
	require.Len(t, e[parcel.Back], 1)
	require.Len(t, e[parcel.Side], 2)
	assert.InDelta(t, 30.0, e[parcel.Front][0].A.Y, 1e-9)
	assert.InDelta(t, 0.0, e[parcel.Back][0].A.Y, 1e-9)
	assert.Equal(t, "back=1 front=1 side=2", e.Summary())
}

func TestClassifyDegenerate(t *testing.T) {
	assert.False(t, Classify(geo.Polygon{}).HasAny())
}
