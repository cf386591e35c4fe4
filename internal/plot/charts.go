package plot

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/gaze.report/internal/gaze"
	"github.com/banshee-data/gaze.report/internal/units"
)

// AssetsHost is where rendered pages load echarts.min.js from.
var AssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

func scatterData(points []SpeedPoint) []opts.ScatterData {
	out := make([]opts.ScatterData, len(points))
	for i, p := range points {
		out[i] = opts.ScatterData{Value: []interface{}{p.Time, p.Speed, p.Index}}
	}
	return out
}

// VelocityChartHTML renders an interactive velocity profile: the speed
// samples, the threshold as a mark line and the candidate peaks.
func VelocityChartHTML(w io.Writer, samples []gaze.Sample, diag *gaze.VelocityDiagnostics, title, unit string) error {
	if diag == nil {
		return fmt.Errorf("velocity chart needs SMT diagnostics")
	}
	threshold := diag.Threshold
	if diag.Angular {
		threshold = units.ConvertAngularSpeed(threshold, unit)
	}
	accepted := PeakPoints(samples, diag, true, unit)
	rejected := PeakPoints(samples, diag, false, unit)

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "1200px", Height: "600px", AssetsHost: AssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("threshold=%.4g %s accepted=%d rejected=%d", threshold, unit, len(accepted), len(rejected))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "inside"}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: "time (s)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: "speed (" + unit + ")", NameLocation: "middle", NameGap: 40}),
	)

	scatter.AddSeries("speed", scatterData(SpeedSeries(samples, diag, unit)),
		charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 3}),
		charts.WithMarkLineNameYAxisItemOpts(opts.MarkLineNameYAxisItem{Name: "threshold", YAxis: threshold}),
	)
	scatter.AddSeries("accepted peak", scatterData(accepted), charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 10}))
	scatter.AddSeries("rejected peak", scatterData(rejected), charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 8}))

	if err := scatter.Render(w); err != nil {
		return fmt.Errorf("render velocity chart: %w", err)
	}
	return nil
}

// ScanpathChartHTML renders fixation centroids as an interactive scatter
// sized by fixation duration.
func ScanpathChartHTML(w io.Writer, fixations []gaze.Fixation, title string, screenWidth, screenHeight float64) error {
	data := make([]opts.ScatterData, len(fixations))
	for i, f := range fixations {
		data[i] = opts.ScatterData{Value: []interface{}{f.X, f.Y, f.TimeEnd - f.TimeStart, i + 1}}
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "960px", Height: "540px", AssetsHost: AssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("fixations=%d", len(fixations))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Min: 0, Max: screenWidth, Name: "x (px)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Min: 0, Max: screenHeight, Inverse: opts.Bool(true), Name: "y (px)", NameLocation: "middle", NameGap: 40}),
	)
	scatter.AddSeries("fixations", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 12}))

	if err := scatter.Render(w); err != nil {
		return fmt.Errorf("render scanpath chart: %w", err)
	}
	return nil
}
