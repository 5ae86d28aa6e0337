package session

import (
	"fmt"
	"image/color"

	"visual-vertical/internal/estimator"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var (
	angleColor   = color.RGBA{R: 0, G: 160, B: 0, A: 255}
	uprightColor = color.RGBA{R: 120, G: 120, B: 120, A: 255}
)

// SavePlot draws the estimated angle per frame, with the upright reference,
// and writes it as an image (format from the extension).
func SavePlot(path, title string, results []estimator.Result) error {
	if len(results) == 0 {
		return ErrNoResults
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Frame"
	p.Y.Label.Text = "Visual vertical (deg)"
	p.Y.Min = 0
	p.Y.Max = 180

	pts := make(plotter.XYs, len(results))
	for i, r := range results {
		pts[i] = plotter.XY{X: float64(i), Y: r.Angle()}
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.Color = angleColor
	line.Width = vg.Points(1)
	p.Add(line)
	p.Legend.Add("VV angle", line)

	ref := plotter.NewFunction(func(float64) float64 { return estimator.UprightAngle })
	ref.Color = uprightColor
	ref.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
	p.Add(ref)
	p.Legend.Add("upright", ref)

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	if err := p.Save(14*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save angle plot: %w", err)
	}
	return nil
}
