package plot

import (
	"fmt"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/gaze.report/internal/gaze"
	"github.com/banshee-data/gaze.report/internal/units"
)

// SpeedPoint is one plotted speed: the speed between sample i and i+1,
// placed at the time of sample i.
type SpeedPoint struct {
	Index int
	Time  float64
	Speed float64
}

// SpeedSeries pairs each finite speed with its sample time and converts it
// to unit. Pairs with a zero time delta have infinite speed and are left
// out.
func SpeedSeries(samples []gaze.Sample, diag *gaze.VelocityDiagnostics, unit string) []SpeedPoint {
	converted := units.ConvertSpeeds(diag.Speeds, diag.Angular, unit)
	out := make([]SpeedPoint, 0, len(converted))
	for i, v := range converted {
		if i >= len(samples) || math.IsInf(v, 0) || math.IsNaN(v) {
			continue
		}
		out = append(out, SpeedPoint{Index: i, Time: samples[i].Time, Speed: v})
	}
	return out
}

// PeakPoints returns the peak of each candidate, accepted or rejected,
// in unit.
func PeakPoints(samples []gaze.Sample, diag *gaze.VelocityDiagnostics, accepted bool, unit string) []SpeedPoint {
	var out []SpeedPoint
	for _, c := range diag.Candidates {
		if c.Accepted != accepted || c.PeakIndex >= len(samples) {
			continue
		}
		v := c.Peak
		if diag.Angular {
			v = units.ConvertAngularSpeed(v, unit)
		}
		if math.IsInf(v, 0) || math.IsNaN(v) {
			continue
		}
		out = append(out, SpeedPoint{Index: c.PeakIndex, Time: samples[c.PeakIndex].Time, Speed: v})
	}
	return out
}

func (s SpeedPoint) xy() plotter.XY { return plotter.XY{X: s.Time, Y: s.Speed} }

func toXYs(points []SpeedPoint) plotter.XYs {
	out := make(plotter.XYs, len(points))
	for i, p := range points {
		out[i] = p.xy()
	}
	return out
}

// VelocityPNG plots the speed profile of an SMT run with its threshold and
// the accepted and rejected candidate peaks.
func VelocityPNG(w io.Writer, samples []gaze.Sample, diag *gaze.VelocityDiagnostics, title, unit string) error {
	if diag == nil {
		return fmt.Errorf("velocity plot needs SMT diagnostics")
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "time (s)"
	p.Y.Label.Text = "speed (" + unit + ")"
	p.Add(plotter.NewGrid())
	p.Legend.Top = true

	threshold := diag.Threshold
	if diag.Angular {
		threshold = units.ConvertAngularSpeed(threshold, unit)
	}

	series := SpeedSeries(samples, diag, unit)
	if len(series) > 0 {
		line, err := plotter.NewLine(toXYs(series))
		if err != nil {
			return fmt.Errorf("speed line: %w", err)
		}
		line.Color = fixationColor
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add("speed", line)

		thr, err := plotter.NewLine(plotter.XYs{
			{X: series[0].Time, Y: threshold},
			{X: series[len(series)-1].Time, Y: threshold},
		})
		if err != nil {
			return fmt.Errorf("threshold line: %w", err)
		}
		thr.Color = pathColor
		thr.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
		p.Add(thr)
		p.Legend.Add(fmt.Sprintf("threshold %.3g", threshold), thr)
	}

	for _, group := range []struct {
		name     string
		accepted bool
		style    draw.GlyphStyle
	}{
		{"accepted peak", true, draw.GlyphStyle{Color: acceptedColor, Radius: vg.Points(4), Shape: draw.CircleGlyph{}}},
		{"rejected peak", false, draw.GlyphStyle{Color: rejectedColor, Radius: vg.Points(4), Shape: draw.CrossGlyph{}}},
	} {
		peaks := PeakPoints(samples, diag, group.accepted, unit)
		if len(peaks) == 0 {
			continue
		}
		sc, err := plotter.NewScatter(toXYs(peaks))
		if err != nil {
			return fmt.Errorf("%s: %w", group.name, err)
		}
		sc.GlyphStyle = group.style
		p.Add(sc)
		p.Legend.Add(group.name, sc)
	}

	return writePNG(p, w)
}
