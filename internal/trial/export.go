package trial

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/banshee-data/gaze.report/internal/gaze"
)

// FixationColumns is the header written by WriteFixationsCSV.
var FixationColumns = []string{
	"x", "y", "time_start", "time_end",
	"duration_seconds", "duration_samples", "start_index", "end_index",
}

// WriteFixationsCSV writes one row per fixation in detection order.
func WriteFixationsCSV(w io.Writer, fixations []gaze.Fixation) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(FixationColumns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	f64 := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	for i, f := range fixations {
		rec := []string{
			f64(f.X), f64(f.Y), f64(f.TimeStart), f64(f.TimeEnd),
			f64(f.DurationSeconds), strconv.Itoa(f.DurationSamples),
			strconv.Itoa(f.StartIndex), strconv.Itoa(f.EndIndex),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write fixation %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
