package gaze

import (
	"sort"

	"gonum.org/v1/gonum/floats"
)

// VelocityConfig holds the SMT parameters.
type VelocityConfig struct {
	UseAngularVelocity   bool    `json:"use_angular_velocity"`
	EyeToDisplayDistance float64 `json:"eye_to_display_distance"`
	// PeakWindowWidth is the half-width, in velocity samples, of the window
	// around a candidate's centre that must contain its velocity peak.
	PeakWindowWidth   float64 `json:"peak_window_width"`
	VelocityThreshold float64 `json:"velocity_threshold"`
	ScreenWidth       float64 `json:"screen_width"`
	ScreenHeight      float64 `json:"screen_height"`
}

// Geometry returns the display geometry used for angular velocity.
func (c VelocityConfig) Geometry() Geometry {
	return Geometry{
		EyeToDisplayDistance: c.EyeToDisplayDistance,
		ScreenWidth:          c.ScreenWidth,
		ScreenHeight:         c.ScreenHeight,
	}
}

// Validate rejects negative thresholds and, for angular velocity, a
// non-positive eye distance.
func (c VelocityConfig) Validate() error {
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"peak_window_width", c.PeakWindowWidth},
		{"velocity_threshold", c.VelocityThreshold},
		{"screen_width", c.ScreenWidth},
		{"screen_height", c.ScreenHeight},
		{"eye_to_display_distance", c.EyeToDisplayDistance},
	} {
		if err := nonNegative(f.name, f.v); err != nil {
			return err
		}
	}
	if c.UseAngularVelocity && c.EyeToDisplayDistance == 0 {
		return &ConfigError{Field: "eye_to_display_distance", Value: c.EyeToDisplayDistance, Reason: "must be positive for angular velocity"}
	}
	return nil
}

// SaccadeCandidate is a run of above-threshold velocity samples after the
// final sample has been trimmed.
type SaccadeCandidate struct {
	Start     int     `json:"start"`
	Length    int     `json:"length"`
	Peak      float64 `json:"peak"`
	PeakIndex int     `json:"peak_index"`
	Center    float64 `json:"center"`
	Low       float64 `json:"low"`
	High      float64 `json:"high"`
	Accepted  bool    `json:"accepted"`
}

// VelocityDiagnostics carries the intermediate SMT state used for
// velocity plots.
type VelocityDiagnostics struct {
	Speeds     []float64          `json:"speeds"`
	Angular    bool               `json:"angular"`
	ZeroDeltas []int              `json:"zero_deltas,omitempty"`
	Threshold  float64            `json:"threshold"`
	Width      float64            `json:"width"`
	Candidates []SaccadeCandidate `json:"candidates"`
	Labels     []Label            `json:"labels"`
}

// Accepted returns the candidates confirmed as saccades.
func (d *VelocityDiagnostics) Accepted() []SaccadeCandidate {
	return d.filter(true)
}

// Rejected returns the candidates whose peak was off-centre.
func (d *VelocityDiagnostics) Rejected() []SaccadeCandidate {
	return d.filter(false)
}

func (d *VelocityDiagnostics) filter(accepted bool) []SaccadeCandidate {
	var out []SaccadeCandidate
	for _, c := range d.Candidates {
		if c.Accepted == accepted {
			out = append(out, c)
		}
	}
	return out
}

// Err surfaces zero time deltas found while computing velocity.
func (d *VelocityDiagnostics) Err() error {
	return VelocityProfile{ZeroDeltas: d.ZeroDeltas}.Err()
}

// DetectByVelocity segments samples by thresholding gaze velocity and
// validating each above-threshold run by the position of its peak.
// Fixations carry the position of their first sample and their length in
// samples (DurationSamples).
func DetectByVelocity(samples []Sample, cfg VelocityConfig) ([]Fixation, *VelocityDiagnostics, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	profile := ComputeVelocity(samples, cfg.UseAngularVelocity, cfg.Geometry())
	runs := GroupFastRuns(profile.Speeds, cfg.VelocityThreshold)
	candidates := ValidateCandidates(runs, profile.Speeds, cfg.PeakWindowWidth)
	labels := LabelSamples(samples, candidates)

	diag := &VelocityDiagnostics{
		Speeds:     profile.Speeds,
		Angular:    profile.Angular,
		ZeroDeltas: profile.ZeroDeltas,
		Threshold:  cfg.VelocityThreshold,
		Width:      cfg.PeakWindowWidth,
		Candidates: candidates,
		Labels:     labels,
	}
	return FixationsFromLabels(samples, labels), diag, nil
}

// GroupFastRuns returns the maximal runs of speeds strictly above
// threshold. NaN speeds are slow.
func GroupFastRuns(speeds []float64, threshold float64) []Run[bool] {
	fast := make([]bool, len(speeds))
	for i, v := range speeds {
		fast[i] = v > threshold
	}
	return RunsOf(Compress(fast), true)
}

// ValidateCandidates trims the last sample of every run and accepts a run
// when its first velocity peak lies within width of the run's centre.
// Runs that become empty after trimming are skipped entirely.
func ValidateCandidates(runs []Run[bool], speeds []float64, width float64) []SaccadeCandidate {
	var out []SaccadeCandidate
	for _, r := range runs {
		length := r.Length - 1
		if length < 1 {
			continue
		}
		window := speeds[r.Start : r.Start+length]
		peakIndex := r.Start + floats.MaxIdx(window)
		center := float64(r.Start) + float64(length)/2
		c := SaccadeCandidate{
			Start:     r.Start,
			Length:    length,
			Peak:      speeds[peakIndex],
			PeakIndex: peakIndex,
			Center:    center,
			Low:       center - width,
			High:      center + width,
		}
		p := float64(peakIndex)
		c.Accepted = p >= c.Low && p <= c.High
		out = append(out, c)
	}
	return out
}

// LabelSamples marks as saccade every sample whose time falls within
// [t[start], t[start+length]] of an accepted candidate. Everything else
// is a fixation.
func LabelSamples(samples []Sample, candidates []SaccadeCandidate) []Label {
	labels := make([]Label, len(samples))
	for i := range labels {
		labels[i] = LabelFixation
	}
	times := Times(samples)
	for _, c := range candidates {
		if !c.Accepted {
			continue
		}
		from := times[c.Start]
		to := times[c.Start+c.Length]
		lo := sort.SearchFloat64s(times, from)
		hi := sort.Search(len(times), func(i int) bool { return times[i] > to })
		for i := lo; i < hi; i++ {
			labels[i] = LabelSaccade
		}
	}
	return labels
}

// FixationsFromLabels compresses labels and turns each fixation run into
// a Fixation positioned at the run's first sample.
func FixationsFromLabels(samples []Sample, labels []Label) []Fixation {
	var out []Fixation
	for _, r := range RunsOf(Compress(labels), LabelFixation) {
		first, last := samples[r.Start], samples[r.End()]
		out = append(out, Fixation{
			X:               first.X,
			Y:               first.Y,
			TimeStart:       first.Time,
			TimeEnd:         last.Time,
			DurationSamples: r.Length,
			StartIndex:      r.Start,
			EndIndex:        r.End(),
		})
	}
	return out
}
