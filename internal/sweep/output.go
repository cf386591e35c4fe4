package sweep

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/banshee-data/gaze.report/internal/gaze"
)

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

type comboJSON struct {
	DispersionThreshold *float64 `json:"dispersion_threshold,omitempty"`
	DurationThreshold   *float64 `json:"duration_threshold,omitempty"`
	VelocityThreshold   *float64 `json:"velocity_threshold,omitempty"`
	PeakWindowWidth     *float64 `json:"peak_window_width,omitempty"`
}

func (r ComboResult) MarshalJSON() ([]byte, error) {
	type plain ComboResult
	out := struct {
		plain
		Combo    comboJSON `json:"combo"`
		Accepted *int      `json:"accepted_saccades,omitempty"`
		Rejected *int      `json:"rejected_saccades,omitempty"`
	}{plain: plain(r)}

	c := r.Combo
	switch r.Method {
	case gaze.MethodVelocity:
		out.Combo = comboJSON{VelocityThreshold: &c.VelocityThreshold, PeakWindowWidth: &c.PeakWindowWidth}
		out.Accepted, out.Rejected = &r.Accepted, &r.Rejected
	default:
		out.Combo = comboJSON{DispersionThreshold: &c.DispersionThreshold, DurationThreshold: &c.DurationThreshold}
	}
	return json.Marshal(out)
}

// Header returns the CSV header for results of method.
func Header(method gaze.Method) []string {
	var params []string
	if method == gaze.MethodVelocity {
		params = []string{"velocity_threshold", "peak_window_width"}
	} else {
		params = []string{"dispersion_threshold", "duration_threshold"}
	}
	return append(params,
		"fixation_count",
		"avg_duration_s",
		"avg_duration_samples",
		"avg_saccade_length",
		"scanpath_duration_s",
		"accepted_saccades",
		"rejected_saccades",
	)
}

// Row formats one result in Header order.
func Row(r ComboResult) []string {
	var params []string
	if r.Method == gaze.MethodVelocity {
		params = []string{formatFloat(r.Combo.VelocityThreshold), formatFloat(r.Combo.PeakWindowWidth)}
	} else {
		params = []string{formatFloat(r.Combo.DispersionThreshold), formatFloat(r.Combo.DurationThreshold)}
	}
	s := r.Summary
	return append(params,
		strconv.Itoa(s.FixationCount),
		formatFloat(s.AverageDurationSeconds),
		formatFloat(s.AverageDurationSamples),
		formatFloat(s.AverageSaccadeLength),
		formatFloat(s.ScanpathDurationSeconds),
		strconv.Itoa(r.Accepted),
		strconv.Itoa(r.Rejected),
	)
}

// WriteCSV writes results as CSV with a header row.
func WriteCSV(w io.Writer, method gaze.Method, results []ComboResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header(method)); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range results {
		if err := cw.Write(Row(r)); err != nil {
			return fmt.Errorf("write row %d: %w", r.Index, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
