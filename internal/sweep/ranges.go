// Package sweep evaluates a segmenter over a grid of threshold values and
// reports the resulting fixation metrics for each combination.
package sweep

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// RangeSpec is a float range written as "min:max:step".
type RangeSpec struct {
	Min  float64
	Max  float64
	Step float64
}

// ParseRangeSpec parses a "min:max:step" string into a RangeSpec.
func ParseRangeSpec(s string) (RangeSpec, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return RangeSpec{}, fmt.Errorf("invalid range format %q: expected min:max:step", s)
	}

	var vals [3]float64
	for i, name := range []string{"min", "max", "step"} {
		v, err := strconv.ParseFloat(strings.TrimSpace(parts[i]), 64)
		if err != nil {
			return RangeSpec{}, fmt.Errorf("invalid %s value %q: %w", name, parts[i], err)
		}
		vals[i] = v
	}
	if vals[2] <= 0 {
		return RangeSpec{}, fmt.Errorf("step must be positive, got %f", vals[2])
	}
	return RangeSpec{Min: vals[0], Max: vals[1], Step: vals[2]}, nil
}

// Values expands the range with GenerateRange.
func (r RangeSpec) Values() []float64 {
	return GenerateRange(r.Min, r.Max, r.Step)
}

// maxValues caps the length of a generated range.
const maxValues = 10000

// GenerateRange returns min, min+step, ... up to max inclusive, rounded to
// 1e-6. It returns nil when step is not positive, min > max or the range
// would exceed maxValues entries.
func GenerateRange(min, max, step float64) []float64 {
	if step <= 0 || min > max {
		return nil
	}
	expected := int((max-min)/step) + 1
	if expected > maxValues || expected < 0 {
		return nil
	}

	result := make([]float64, 0, expected)
	for i := 0; i <= expected; i++ {
		v := math.Round((min+float64(i)*step)*1e6) / 1e6
		if v > max+step/1000 {
			break
		}
		result = append(result, math.Min(v, max))
	}
	return result
}

// ParseCSVFloat64s parses a comma-separated list of floats. Empty input
// yields nil, nil.
func ParseCSVFloat64s(s string) ([]float64, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid float '%s': %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// ParseValues accepts either a "min:max:step" range or a comma-separated
// list.
func ParseValues(s string) ([]float64, error) {
	if strings.Contains(s, ":") {
		r, err := ParseRangeSpec(s)
		if err != nil {
			return nil, err
		}
		vals := r.Values()
		if len(vals) == 0 {
			return nil, fmt.Errorf("range %q is empty", s)
		}
		return vals, nil
	}
	return ParseCSVFloat64s(s)
}
