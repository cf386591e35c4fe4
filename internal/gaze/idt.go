package gaze

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DispersionConfig holds the IDT thresholds.
type DispersionConfig struct {
	// DispersionThreshold bounds (maxX-minX)+(maxY-minY) of a window,
	// in screen units.
	DispersionThreshold float64 `json:"dispersion_threshold"`
	// DurationThreshold is the window duration in seconds a stable window
	// must exceed before it is emitted as a fixation.
	DurationThreshold float64 `json:"duration_threshold"`
}

// Validate rejects negative or non-finite thresholds.
func (c DispersionConfig) Validate() error {
	if err := nonNegative("dispersion_threshold", c.DispersionThreshold); err != nil {
		return err
	}
	return nonNegative("duration_threshold", c.DurationThreshold)
}

// DispersionDiagnostics partitions the sample indices that did not end up
// inside an emitted fixation.
type DispersionDiagnostics struct {
	// Dropped holds window starts discarded because the window grew too
	// dispersed.
	Dropped []int `json:"dropped"`
	// TrailingStart is the first index of the window still open when the
	// scan reached the end of the trial; [TrailingStart, N) was never
	// emitted.
	TrailingStart int `json:"trailing_start"`
}

// DetectByDispersion segments samples with a sliding window that grows
// while its dispersion stays within DispersionThreshold and is emitted
// once its duration exceeds DurationThreshold.
//
// The emitted fixation's centroid covers the whole window [start, end]
// but its TimeEnd and EndIndex use end-1. Existing fixation exports
// depend on that boundary, so it is kept.
//
// Samples must be ordered by non-decreasing Time; this is not checked.
func DetectByDispersion(samples []Sample, cfg DispersionConfig) ([]Fixation, *DispersionDiagnostics, error) {
	return detectByDispersion(samples, cfg, nil)
}

// detectByDispersion takes an optional step callback so tests can observe
// the window indices.
func detectByDispersion(samples []Sample, cfg DispersionConfig, step func(start, end int)) ([]Fixation, *DispersionDiagnostics, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	n := len(samples)
	xs := make([]float64, n)
	ys := make([]float64, n)
	for i, s := range samples {
		xs[i] = s.X
		ys[i] = s.Y
	}

	var fixations []Fixation
	diag := &DispersionDiagnostics{}
	start, end := 0, 0

	for end < n {
		if step != nil {
			step(start, end)
		}

		wx := xs[start : end+1]
		wy := ys[start : end+1]

		if Dispersion(wx, wy) > cfg.DispersionThreshold {
			diag.Dropped = append(diag.Dropped, start)
			start++
			end = start
			continue
		}

		if samples[end].Time-samples[start].Time <= cfg.DurationThreshold {
			end++
			continue
		}

		last := end - 1
		fixations = append(fixations, Fixation{
			X:               stat.Mean(wx, nil),
			Y:               stat.Mean(wy, nil),
			TimeStart:       samples[start].Time,
			TimeEnd:         samples[last].Time,
			DurationSeconds: samples[last].Time - samples[start].Time,
			StartIndex:      start,
			EndIndex:        last,
		})
		start = end
	}

	diag.TrailingStart = start
	return fixations, diag, nil
}

// Dispersion returns the bounding-box dispersion (maxX-minX)+(maxY-minY).
// Empty input has zero dispersion.
func Dispersion(xs, ys []float64) float64 {
	if len(xs) == 0 || len(ys) == 0 {
		return 0
	}
	return (floats.Max(xs) - floats.Min(xs)) + (floats.Max(ys) - floats.Min(ys))
}

// Centroid returns the arithmetic mean position of samples.
func Centroid(samples []Sample) (x, y float64) {
	if len(samples) == 0 {
		return 0, 0
	}
	for _, s := range samples {
		x += s.X
		y += s.Y
	}
	n := float64(len(samples))
	return x / n, y / n
}

func nonNegative(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return &ConfigError{Field: field, Value: v, Reason: "must be finite"}
	}
	if v < 0 {
		return &ConfigError{Field: field, Value: v, Reason: "must be non-negative"}
	}
	return nil
}
