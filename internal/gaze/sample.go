package gaze

// Sample is one calibrated, on-screen, non-blink gaze measurement.
// Time is the elapsed time in seconds since the start of the trial.
type Sample struct {
	Time float64 `json:"time"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// Fixation is a period of stable gaze produced by a segmenter.
//
// The two segmenters report duration in different units and each fills
// only its own field: DetectByDispersion sets DurationSeconds and
// DetectByVelocity sets DurationSamples. StartIndex and EndIndex are the
// inclusive sample range the fixation was built from.
type Fixation struct {
	X               float64 `json:"x"`
	Y               float64 `json:"y"`
	TimeStart       float64 `json:"time_start"`
	TimeEnd         float64 `json:"time_end"`
	DurationSeconds float64 `json:"duration_seconds,omitempty"`
	DurationSamples int     `json:"duration_samples,omitempty"`
	StartIndex      int     `json:"start_index"`
	EndIndex        int     `json:"end_index"`
}

// Label classifies a single sample.
type Label string

const (
	LabelFixation Label = "fixation"
	LabelSaccade  Label = "saccade"
)

// Method names a segmentation algorithm.
type Method string

const (
	// MethodDispersion is identification by dispersion threshold (IDT).
	MethodDispersion Method = "idt"
	// MethodVelocity is the velocity threshold detector with peak
	// validation (SMT).
	MethodVelocity Method = "smt"
)

// ValidMethods lists the accepted Method values.
var ValidMethods = []Method{MethodDispersion, MethodVelocity}

// ParseMethod converts a user supplied string into a Method.
func ParseMethod(s string) (Method, error) {
	for _, m := range ValidMethods {
		if string(m) == s {
			return m, nil
		}
	}
	return "", &ConfigError{Field: "method", Value: s, Reason: "must be one of idt, smt"}
}

// Times returns the elapsed time of every sample.
func Times(samples []Sample) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = s.Time
	}
	return out
}
