package plot

import (
	"fmt"
	"image/color"
	"io"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/gaze.report/internal/gaze"
)

// Image size used for every PNG.
const (
	ImageWidth  = 10 * vg.Inch
	ImageHeight = 6 * vg.Inch
)

var (
	pathColor     = color.RGBA{R: 90, G: 90, B: 90, A: 255}
	fixationColor = color.RGBA{R: 31, G: 119, B: 180, A: 200}
	acceptedColor = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	rejectedColor = color.RGBA{R: 255, G: 127, B: 14, A: 255}
)

// ScanpathPNG draws fixation centroids in screen space joined in order and
// numbered from 1. The y axis grows downwards like screen coordinates.
func ScanpathPNG(w io.Writer, fixations []gaze.Fixation, title string, screenWidth, screenHeight float64) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "x (px)"
	p.Y.Label.Text = "y (px)"
	p.X.Min, p.X.Max = 0, screenWidth
	p.Y.Min, p.Y.Max = 0, screenHeight
	p.Y.Scale = plot.InvertedScale{Normalizer: plot.LinearScale{}}
	p.Add(plotter.NewGrid())

	if len(fixations) > 0 {
		pts := make(plotter.XYs, len(fixations))
		labels := make([]string, len(fixations))
		for i, f := range fixations {
			pts[i] = plotter.XY{X: f.X, Y: f.Y}
			labels[i] = strconv.Itoa(i + 1)
		}

		path, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("scanpath line: %w", err)
		}
		path.Color = pathColor
		path.Width = vg.Points(1)

		points, err := plotter.NewScatter(pts)
		if err != nil {
			return fmt.Errorf("scanpath points: %w", err)
		}
		points.GlyphStyle.Shape = draw.CircleGlyph{}
		points.GlyphStyle.Color = fixationColor
		points.GlyphStyle.Radius = vg.Points(5)

		numbers, err := plotter.NewLabels(plotter.XYLabels{XYs: pts, Labels: labels})
		if err != nil {
			return fmt.Errorf("scanpath labels: %w", err)
		}

		p.Add(path, points, numbers)
	}

	return writePNG(p, w)
}

func writePNG(p *plot.Plot, w io.Writer) error {
	wt, err := p.WriterTo(ImageWidth, ImageHeight, "png")
	if err != nil {
		return fmt.Errorf("render png: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write png: %w", err)
	}
	return nil
}
