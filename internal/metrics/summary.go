// Package metrics computes per-trial scanpath metrics from detected
// fixations: summary statistics, fixed time windows and transitions
// between areas of interest.
package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/gaze.report/internal/gaze"
)

// Summary holds the scanpath metrics of a set of fixations.
// An empty fixation set produces a zero Summary.
type Summary struct {
	FixationCount           int     `json:"fixation_count"`
	AverageDurationSeconds  float64 `json:"average_duration_seconds"`
	AverageDurationSamples  float64 `json:"average_duration_samples"`
	AverageSaccadeLength    float64 `json:"average_saccade_length"`
	ScanpathDurationSeconds float64 `json:"scanpath_duration_seconds"`
}

// DurationSeconds returns the time span of a fixation.
func DurationSeconds(f gaze.Fixation) float64 {
	return f.TimeEnd - f.TimeStart
}

// DurationSamples returns the number of samples a fixation covers.
func DurationSamples(f gaze.Fixation) int {
	if f.DurationSamples > 0 {
		return f.DurationSamples
	}
	return f.EndIndex - f.StartIndex + 1
}

// SaccadeLengths returns the Euclidean distance between each pair of
// consecutive fixation centroids.
func SaccadeLengths(fixations []gaze.Fixation) []float64 {
	if len(fixations) < 2 {
		return nil
	}
	out := make([]float64, len(fixations)-1)
	for i := 1; i < len(fixations); i++ {
		out[i-1] = math.Hypot(fixations[i].X-fixations[i-1].X, fixations[i].Y-fixations[i-1].Y)
	}
	return out
}

// Summarize computes the Summary of fixations, which must be in
// chronological order.
func Summarize(fixations []gaze.Fixation) Summary {
	if len(fixations) == 0 {
		return Summary{}
	}

	seconds := make([]float64, len(fixations))
	samples := make([]float64, len(fixations))
	starts := make([]float64, len(fixations))
	ends := make([]float64, len(fixations))
	for i, f := range fixations {
		seconds[i] = DurationSeconds(f)
		samples[i] = float64(DurationSamples(f))
		starts[i] = f.TimeStart
		ends[i] = f.TimeEnd
	}

	s := Summary{
		FixationCount:           len(fixations),
		AverageDurationSeconds:  stat.Mean(seconds, nil),
		AverageDurationSamples:  stat.Mean(samples, nil),
		ScanpathDurationSeconds: floats.Max(ends) - floats.Min(starts),
	}
	if lengths := SaccadeLengths(fixations); len(lengths) > 0 {
		s.AverageSaccadeLength = stat.Mean(lengths, nil)
	}
	return s
}
