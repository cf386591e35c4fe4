package sweep

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/gaze.report/internal/gaze"
	"github.com/banshee-data/gaze.report/internal/metrics"
	"github.com/banshee-data/gaze.report/internal/monitoring"
)

var logf = monitoring.Prefixed("sweep")

// ErrEmptyGrid is returned when a grid produces no combinations.
var ErrEmptyGrid = errors.New("sweep grid is empty")

// Grid describes the threshold combinations to evaluate. The two axes
// that belong to Method are crossed; an empty axis falls back to the
// value in the base config.
type Grid struct {
	Method gaze.Method

	Dispersion gaze.DispersionConfig
	Velocity   gaze.VelocityConfig

	DispersionThresholds []float64
	DurationThresholds   []float64

	VelocityThresholds []float64
	PeakWindowWidths   []float64
}

// Combo is one point of the grid. Only the fields of the grid's method
// are set.
type Combo struct {
	DispersionThreshold float64 `json:"dispersion_threshold"`
	DurationThreshold   float64 `json:"duration_threshold"`
	VelocityThreshold   float64 `json:"velocity_threshold"`
	PeakWindowWidth     float64 `json:"peak_window_width"`
}

// ComboResult is the outcome of one combination. Its JSON form carries
// only the combo fields and saccade counts of Method, zeros included.
type ComboResult struct {
	Index    int             `json:"index"`
	Method   gaze.Method     `json:"method"`
	Combo    Combo           `json:"combo"`
	Summary  metrics.Summary `json:"summary"`
	Accepted int             `json:"accepted_saccades"`
	Rejected int             `json:"rejected_saccades"`
}

func orBase(vals []float64, base float64) []float64 {
	if len(vals) == 0 {
		return []float64{base}
	}
	return vals
}

// Combos expands the grid in row-major order: the first axis varies
// slowest.
func (g Grid) Combos() ([]Combo, error) {
	var out []Combo
	switch g.Method {
	case gaze.MethodDispersion:
		for _, d := range orBase(g.DispersionThresholds, g.Dispersion.DispersionThreshold) {
			for _, t := range orBase(g.DurationThresholds, g.Dispersion.DurationThreshold) {
				out = append(out, Combo{DispersionThreshold: d, DurationThreshold: t})
			}
		}
	case gaze.MethodVelocity:
		for _, v := range orBase(g.VelocityThresholds, g.Velocity.VelocityThreshold) {
			for _, w := range orBase(g.PeakWindowWidths, g.Velocity.PeakWindowWidth) {
				out = append(out, Combo{VelocityThreshold: v, PeakWindowWidth: w})
			}
		}
	default:
		return nil, fmt.Errorf("unknown segmentation method %q: %w", g.Method, gaze.ErrInvalidConfig)
	}
	if len(out) > maxValues {
		return nil, fmt.Errorf("sweep grid has %d combinations, limit is %d", len(out), maxValues)
	}
	return out, nil
}

// Segmenter builds the segmenter for one combination.
func (g Grid) Segmenter(c Combo) (gaze.Segmenter, error) {
	disp := g.Dispersion
	disp.DispersionThreshold = c.DispersionThreshold
	disp.DurationThreshold = c.DurationThreshold

	vel := g.Velocity
	vel.VelocityThreshold = c.VelocityThreshold
	vel.PeakWindowWidth = c.PeakWindowWidth

	return gaze.NewSegmenter(g.Method, disp, vel)
}

// Runner evaluates grids with bounded parallelism.
type Runner struct {
	// Workers caps concurrent segmentations; values below 1 mean 1.
	Workers int
	// Timings, when set, records per-method segmentation time.
	Timings *monitoring.Timings
}

// Run segments samples once per combination and summarises each result.
// Results are ordered like Grid.Combos regardless of completion order. The
// first failing combination cancels the rest.
func (r Runner) Run(ctx context.Context, samples []gaze.Sample, grid Grid) ([]ComboResult, error) {
	combos, err := grid.Combos()
	if err != nil {
		return nil, err
	}
	if len(combos) == 0 {
		return nil, ErrEmptyGrid
	}

	workers := r.Workers
	if workers < 1 {
		workers = 1
	}

	results := make([]ComboResult, len(combos))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, c := range combos {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			seg, err := grid.Segmenter(c)
			if err != nil {
				return fmt.Errorf("combo %d: %w", i, err)
			}
			if r.Timings != nil {
				seg = monitoring.TimedSegmenter{Segmenter: seg, Timings: r.Timings}
			}
			res, err := seg.Segment(samples)
			if err != nil {
				return fmt.Errorf("combo %d: %w", i, err)
			}

			out := ComboResult{
				Index:   i,
				Method:  grid.Method,
				Combo:   c,
				Summary: metrics.Summarize(res.Fixations),
			}
			if res.Velocity != nil {
				out.Accepted = len(res.Velocity.Accepted())
				out.Rejected = len(res.Velocity.Rejected())
			}
			results[i] = out
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	logf("evaluated %d %s combinations over %d samples", len(results), grid.Method, len(samples))
	return results, nil
}
