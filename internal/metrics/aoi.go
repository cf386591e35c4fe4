package metrics

import (
	"fmt"
	"math"

	"github.com/banshee-data/gaze.report/internal/gaze"
)

// Side values returned by Classify.
const (
	SideLeft  = -1
	SideOther = 0
	SideRight = 1
)

// Region is an axis-aligned area of interest in screen pixels. Bounds are
// inclusive. Side is the class assigned to fixations inside the region.
type Region struct {
	Name string  `json:"name"`
	Side int     `json:"side"`
	MinX float64 `json:"min_x"`
	MaxX float64 `json:"max_x"`
	MinY float64 `json:"min_y"`
	MaxY float64 `json:"max_y"`
}

// Validate rejects inverted or non-finite rectangles and unknown sides.
func (r Region) Validate() error {
	for _, v := range []float64{r.MinX, r.MaxX, r.MinY, r.MaxY} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("region %q has non-finite bound", r.Name)
		}
	}
	if r.MinX > r.MaxX || r.MinY > r.MaxY {
		return fmt.Errorf("region %q has min greater than max", r.Name)
	}
	if r.Side != SideLeft && r.Side != SideRight {
		return fmt.Errorf("region %q side must be -1 or 1, got %d", r.Name, r.Side)
	}
	return nil
}

// Contains reports whether (x, y) lies inside the region.
func (r Region) Contains(x, y float64) bool {
	return x >= r.MinX && x <= r.MaxX && y >= r.MinY && y <= r.MaxY
}

// Classify returns the Side of the first region containing the fixation
// centroid, or SideOther.
func Classify(f gaze.Fixation, regions []Region) int {
	for _, r := range regions {
		if r.Contains(f.X, f.Y) {
			return r.Side
		}
	}
	return SideOther
}

// TransitionIndices returns the indices of fixations whose class differs
// from the previous fixation. The first fixation always counts.
func TransitionIndices(fixations []gaze.Fixation, regions []Region) []int {
	var out []int
	prev := 0
	for i, f := range fixations {
		side := Classify(f, regions)
		if i == 0 || side != prev {
			out = append(out, i)
		}
		prev = side
	}
	return out
}

// Transitions counts TransitionIndices.
func Transitions(fixations []gaze.Fixation, regions []Region) int {
	return len(TransitionIndices(fixations, regions))
}

// TransitionsPerWindow counts transitions separately within each time window
// of the trial.
func TransitionsPerWindow(fixations []gaze.Fixation, regions []Region, window, trialDuration float64) ([]int, error) {
	starts, err := WindowStarts(window, trialDuration)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(starts))
	for i, start := range starts {
		out[i] = Transitions(Window(fixations, start, window), regions)
	}
	return out, nil
}

// MeanPerWindow averages per-window counts across trials. Trials with a
// different number of windows than the first are rejected.
func MeanPerWindow(counts [][]int) ([]float64, error) {
	if len(counts) == 0 {
		return nil, nil
	}
	n := len(counts[0])
	out := make([]float64, n)
	for i, c := range counts {
		if len(c) != n {
			return nil, fmt.Errorf("trial %d has %d windows, want %d", i, len(c), n)
		}
		for j, v := range c {
			out[j] += float64(v)
		}
	}
	for j := range out {
		out[j] /= float64(len(counts))
	}
	return out, nil
}
