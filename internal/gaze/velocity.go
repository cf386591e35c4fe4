package gaze

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Geometry describes the viewer/display arrangement used for angular
// velocity. The eye is assumed to sit on the axis through the display
// centre, EyeToDisplayDistance away from it, in the same units as the
// screen coordinates.
type Geometry struct {
	EyeToDisplayDistance float64
	ScreenWidth          float64
	ScreenHeight         float64
}

// VelocityProfile holds one speed per consecutive sample pair.
// Speeds[i] is the speed between samples i and i+1.
type VelocityProfile struct {
	Speeds     []float64
	Angular    bool
	ZeroDeltas []int
}

// Err reports pairs that had no elapsed time. Their speed is +Inf, which
// always classifies as fast, so the profile is still usable.
func (p VelocityProfile) Err() error {
	if len(p.ZeroDeltas) == 0 {
		return nil
	}
	return &ZeroDeltaError{Indices: append([]int(nil), p.ZeroDeltas...)}
}

// CheckTimeDeltas returns a *ZeroDeltaError listing the consecutive sample
// pairs with equal timestamps, indexed like VelocityProfile.Speeds, or nil.
func CheckTimeDeltas(samples []Sample) error {
	var p VelocityProfile
	for i := 0; i < pairCount(samples); i++ {
		p.rate(i, 0, samples[i+1].Time-samples[i].Time)
	}
	return p.Err()
}

// ComputeVelocity dispatches to AngularVelocity or PlanarVelocity.
func ComputeVelocity(samples []Sample, angular bool, geom Geometry) VelocityProfile {
	if angular {
		return AngularVelocity(samples, geom)
	}
	return PlanarVelocity(samples)
}

// PlanarVelocity returns the Euclidean screen speed between consecutive
// samples.
func PlanarVelocity(samples []Sample) VelocityProfile {
	p := VelocityProfile{Speeds: make([]float64, pairCount(samples))}
	for i := range p.Speeds {
		a, b := samples[i], samples[i+1]
		dist := math.Hypot(b.X-a.X, b.Y-a.Y)
		p.Speeds[i] = p.rate(i, dist, b.Time-a.Time)
	}
	return p
}

// AngularVelocity returns the angular speed (radians per second) of the
// gaze direction between consecutive samples.
func AngularVelocity(samples []Sample, geom Geometry) VelocityProfile {
	p := VelocityProfile{Speeds: make([]float64, pairCount(samples)), Angular: true}
	if len(p.Speeds) == 0 {
		return p
	}
	prev := geom.eyeVector(samples[0])
	for i := range p.Speeds {
		next := geom.eyeVector(samples[i+1])
		p.Speeds[i] = p.rate(i, angleBetween(prev, next), samples[i+1].Time-samples[i].Time)
		prev = next
	}
	return p
}

func (p *VelocityProfile) rate(i int, delta, dt float64) float64 {
	if dt == 0 {
		p.ZeroDeltas = append(p.ZeroDeltas, i)
		return math.Inf(1)
	}
	return delta / dt
}

// eyeVector re-centres a screen point on the display centre and lifts it
// to 3D at the eye-to-display distance.
func (g Geometry) eyeVector(s Sample) r3.Vec {
	return r3.Vec{
		X: s.X - g.ScreenWidth/2,
		Y: s.Y - g.ScreenHeight/2,
		Z: g.EyeToDisplayDistance,
	}
}

// angleBetween returns the angle between a and b in radians.
func angleBetween(a, b r3.Vec) float64 {
	denom := r3.Norm(a) * r3.Norm(b)
	if denom == 0 {
		return 0
	}
	return clampedAcos(r3.Dot(a, b) / denom)
}

// clampedAcos keeps rounding overshoot outside [-1, 1] from producing NaN.
func clampedAcos(ratio float64) float64 {
	return math.Acos(math.Max(-1, math.Min(1, ratio)))
}

func pairCount(samples []Sample) int {
	if len(samples) < 2 {
		return 0
	}
	return len(samples) - 1
}
