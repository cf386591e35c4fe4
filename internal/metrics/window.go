package metrics

import (
	"fmt"
	"math"

	"github.com/banshee-data/gaze.report/internal/gaze"
)

// WindowSummary is the Summary of one time window of a trial.
type WindowSummary struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Summary Summary `json:"summary"`
}

// Window returns the fixations whose TimeStart lies in [start, start+length].
// Both bounds are inclusive, so a fixation starting exactly on a boundary
// belongs to both neighbouring windows.
func Window(fixations []gaze.Fixation, start, length float64) []gaze.Fixation {
	end := start + length
	var out []gaze.Fixation
	for _, f := range fixations {
		if f.TimeStart >= start && f.TimeStart <= end {
			out = append(out, f)
		}
	}
	return out
}

// WindowStarts returns the start of every window of the given length that
// begins before trialDuration.
func WindowStarts(window, trialDuration float64) ([]float64, error) {
	if !(window > 0) || math.IsInf(window, 0) {
		return nil, fmt.Errorf("window must be positive and finite, got %f", window)
	}
	if !(trialDuration > 0) || math.IsInf(trialDuration, 0) {
		return nil, fmt.Errorf("trial duration must be positive and finite, got %f", trialDuration)
	}
	n := int(math.Ceil(trialDuration / window))
	starts := make([]float64, n)
	for i := range starts {
		starts[i] = float64(i) * window
	}
	return starts, nil
}

// Windowed summarises each consecutive window of a trial.
func Windowed(fixations []gaze.Fixation, window, trialDuration float64) ([]WindowSummary, error) {
	starts, err := WindowStarts(window, trialDuration)
	if err != nil {
		return nil, err
	}
	out := make([]WindowSummary, len(starts))
	for i, start := range starts {
		out[i] = WindowSummary{
			Start:   start,
			End:     start + window,
			Summary: Summarize(Window(fixations, start, window)),
		}
	}
	return out, nil
}
