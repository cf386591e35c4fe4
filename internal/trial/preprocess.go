package trial

import (
	"errors"
	"fmt"

	"github.com/banshee-data/gaze.report/internal/gaze"
	"github.com/banshee-data/gaze.report/internal/monitoring"
)

var (
	// ErrEmptyTrial is returned when a trial has no rows.
	ErrEmptyTrial = errors.New("trial: no samples")
	// ErrNonMonotonic is returned when timestamps decrease.
	ErrNonMonotonic = errors.New("trial: timestamps are not in increasing order")
)

// Screen is the display size in pixels used for off-screen filtering.
type Screen struct {
	Width  float64
	Height float64
}

// Report counts the rows removed by each preprocessing step.
type Report struct {
	Total     int `json:"total"`
	Invalid   int `json:"invalid"`
	Blink     int `json:"blink"`
	OffScreen int `json:"off_screen"`
	Kept      int `json:"kept"`
}

// Dropped returns the number of rows removed.
func (r Report) Dropped() int {
	return r.Invalid + r.Blink + r.OffScreen
}

// Preprocess validates raw rows and converts the survivors into samples.
//
// Rows are removed in order: tracker-invalid rows, blinks (x <= 0 or
// y <= 0), then off-screen points (x > width or y > height). Timestamps
// are converted from microseconds to seconds elapsed since the first kept
// row. Equal consecutive timestamps are accepted here and surface later as
// zero time deltas in the velocity profile.
func Preprocess(raw []RawSample, screen Screen) ([]gaze.Sample, Report, error) {
	rep := Report{Total: len(raw)}
	if len(raw) == 0 {
		return nil, rep, ErrEmptyTrial
	}
	for i := 1; i < len(raw); i++ {
		if raw[i].TimestampMicros < raw[i-1].TimestampMicros {
			return nil, rep, fmt.Errorf("%w: row %d (%.0f < %.0f)", ErrNonMonotonic,
				i, raw[i].TimestampMicros, raw[i-1].TimestampMicros)
		}
	}

	samples := make([]gaze.Sample, 0, len(raw))
	var origin float64
	for _, r := range raw {
		switch {
		case r.Validity == ValidityInvalid:
			rep.Invalid++
			continue
		case r.X <= 0 || r.Y <= 0:
			rep.Blink++
			continue
		case r.X > screen.Width || r.Y > screen.Height:
			rep.OffScreen++
			continue
		}
		seconds := r.TimestampMicros * 1e-6
		if len(samples) == 0 {
			origin = seconds
		}
		samples = append(samples, gaze.Sample{Time: seconds - origin, X: r.X, Y: r.Y})
	}
	rep.Kept = len(samples)

	if rep.Invalid > 0 {
		monitoring.Logf("invalid: %d samples are dropped", rep.Invalid)
	}
	if rep.Blink > 0 {
		monitoring.Logf("blink: %d samples are dropped", rep.Blink)
	}
	if rep.OffScreen > 0 {
		monitoring.Logf("out of screen: %d samples are dropped", rep.OffScreen)
	}
	return samples, rep, nil
}
