package gaze

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestPlanarVelocity(t *testing.T) {
	samples := []Sample{
		{Time: 0, X: 0, Y: 0},
		{Time: 0.5, X: 3, Y: 4},
		{Time: 1.5, X: 3, Y: 4},
	}
	p := PlanarVelocity(samples)
	require.Len(t, p.Speeds, 2)
	assert.InDelta(t, 10.0, p.Speeds[0], 1e-12)
	assert.InDelta(t, 0.0, p.Speeds[1], 1e-12)
	assert.False(t, p.Angular)
	assert.NoError(t, p.Err())
}

func TestPlanarVelocity_ShortInput(t *testing.T) {
	assert.Empty(t, PlanarVelocity(nil).Speeds)
	assert.Empty(t, PlanarVelocity([]Sample{{Time: 1}}).Speeds)
}

func TestVelocity_ZeroTimeDelta(t *testing.T) {
	samples := []Sample{
		{Time: 0, X: 0, Y: 0},
		{Time: 0, X: 0, Y: 0},
		{Time: 1, X: 1, Y: 0},
	}
	p := PlanarVelocity(samples)
	assert.True(t, math.IsInf(p.Speeds[0], 1), "zero delta should give +Inf, got %v", p.Speeds[0])
	assert.Equal(t, []int{0}, p.ZeroDeltas)

	err := p.Err()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrZeroTimeDelta))
	var zd *ZeroDeltaError
	require.True(t, errors.As(err, &zd))
	assert.Equal(t, []int{0}, zd.Indices)

	// +Inf always classifies as fast.
	runs := GroupFastRuns(p.Speeds, 1e9)
	assert.Equal(t, []Run[bool]{{Label: true, Start: 0, Length: 1}}, runs)
}

func TestAngularVelocity(t *testing.T) {
	geom := Geometry{EyeToDisplayDistance: 50, ScreenWidth: 1920, ScreenHeight: 1080}
	samples := []Sample{
		{Time: 0, X: 960, Y: 540},
		{Time: 0.5, X: 1010, Y: 540},
		{Time: 1.0, X: 1010, Y: 540},
	}
	p := AngularVelocity(samples, geom)
	require.Len(t, p.Speeds, 2)
	assert.True(t, p.Angular)
	// 50 units sideways at 50 units distance is 45 degrees, over 0.5 s.
	assert.InDelta(t, math.Pi/2, p.Speeds[0], 1e-12)
	assert.InDelta(t, 0.0, p.Speeds[1], 1e-12)
}

func TestComputeVelocity_Dispatch(t *testing.T) {
	samples := []Sample{{Time: 0, X: 960, Y: 540}, {Time: 1, X: 1010, Y: 540}}
	geom := Geometry{EyeToDisplayDistance: 50, ScreenWidth: 1920, ScreenHeight: 1080}
	assert.InDelta(t, 50.0, ComputeVelocity(samples, false, geom).Speeds[0], 1e-12)
	assert.InDelta(t, math.Pi/4, ComputeVelocity(samples, true, geom).Speeds[0], 1e-12)
}

func TestAngleBetween_Antiparallel(t *testing.T) {
	assert.InDelta(t, math.Pi, angleBetween(r3.Vec{X: 1, Y: 2, Z: 3}, r3.Vec{X: -1, Y: -2, Z: -3}), 1e-9)

	// Rounding can push the ratio just past the acos domain.
	got := clampedAcos(-1 - 1e-12)
	assert.False(t, math.IsNaN(got))
	assert.Equal(t, math.Pi, got)
	assert.Equal(t, 0.0, clampedAcos(1+1e-12))
}

func TestAngleBetween_ParallelNoNaN(t *testing.T) {
	v := r3.Vec{X: 0.1, Y: 0.7, Z: 50}
	got := angleBetween(v, r3.Scale(3, v))
	assert.False(t, math.IsNaN(got))
	assert.InDelta(t, 0.0, got, 1e-6)
	assert.Equal(t, 0.0, angleBetween(r3.Vec{}, v))
}
