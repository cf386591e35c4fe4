package gaze

import "fmt"

// Result is the output of a Segmenter. Exactly one of Dispersion or
// Velocity is set, matching Method.
type Result struct {
	Method     Method                 `json:"method"`
	Fixations  []Fixation             `json:"fixations"`
	Dispersion *DispersionDiagnostics `json:"dispersion,omitempty"`
	Velocity   *VelocityDiagnostics   `json:"velocity,omitempty"`
}

// Segmenter turns a trial's samples into fixations.
type Segmenter interface {
	Method() Method
	Segment(samples []Sample) (*Result, error)
}

// DispersionSegmenter runs DetectByDispersion.
type DispersionSegmenter struct {
	Config DispersionConfig
}

func (DispersionSegmenter) Method() Method { return MethodDispersion }

func (s DispersionSegmenter) Segment(samples []Sample) (*Result, error) {
	fixations, diag, err := DetectByDispersion(samples, s.Config)
	if err != nil {
		return nil, err
	}
	return &Result{Method: MethodDispersion, Fixations: fixations, Dispersion: diag}, nil
}

// VelocitySegmenter runs DetectByVelocity.
type VelocitySegmenter struct {
	Config VelocityConfig
}

func (VelocitySegmenter) Method() Method { return MethodVelocity }

func (s VelocitySegmenter) Segment(samples []Sample) (*Result, error) {
	fixations, diag, err := DetectByVelocity(samples, s.Config)
	if err != nil {
		return nil, err
	}
	return &Result{Method: MethodVelocity, Fixations: fixations, Velocity: diag}, nil
}

// NewSegmenter selects the implementation for method. The config that
// does not belong to method is ignored.
func NewSegmenter(method Method, dispersion DispersionConfig, velocity VelocityConfig) (Segmenter, error) {
	switch method {
	case MethodDispersion:
		if err := dispersion.Validate(); err != nil {
			return nil, err
		}
		return DispersionSegmenter{Config: dispersion}, nil
	case MethodVelocity:
		if err := velocity.Validate(); err != nil {
			return nil, err
		}
		return VelocitySegmenter{Config: velocity}, nil
	default:
		return nil, fmt.Errorf("unknown segmentation method %q: %w", method, ErrInvalidConfig)
	}
}
