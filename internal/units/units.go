// Package units provides shared constants and validation for gaze speed units
package units

import "math"

// Unit constants
const (
	RadPerSec = "rad/s"
	DegPerSec = "deg/s"
	PxPerSec  = "px/s"
)

// ValidUnits contains all valid unit values
var ValidUnits = []string{RadPerSec, DegPerSec, PxPerSec}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return "rad/s, deg/s, px/s"
}

// SpeedUnitFor returns the native unit of a velocity profile.
func SpeedUnitFor(angular bool) string {
	if angular {
		return RadPerSec
	}
	return PxPerSec
}

// ConvertAngularSpeed converts an angular speed in radians per second to
// the target units. Planar speeds have no angular equivalent without
// geometry, so px/s and unknown units return the input unchanged.
func ConvertAngularSpeed(speedRadPerSec float64, targetUnits string) float64 {
	switch targetUnits {
	case DegPerSec:
		return speedRadPerSec * 180 / math.Pi
	default:
		return speedRadPerSec
	}
}

// ConvertSpeeds converts a profile's speeds from its native unit to the
// target unit. Only rad/s to deg/s changes values; any other pairing is
// returned as a copy.
func ConvertSpeeds(speeds []float64, angular bool, targetUnits string) []float64 {
	out := make([]float64, len(speeds))
	for i, v := range speeds {
		if angular {
			out[i] = ConvertAngularSpeed(v, targetUnits)
		} else {
			out[i] = v
		}
	}
	return out
}
