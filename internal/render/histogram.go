// Package render draws the visual-vertical overlays: the histogram chart,
// the angle indicators, the de-rotated view and the combined debug frame.
// It only consumes estimation outputs and never feeds back into them.
package render

import (
	"image"
	"math"
	"strconv"

	"visual-vertical/internal/estimator"
	"visual-vertical/internal/histogram"
	"visual-vertical/pkg/colorutil"

	"gocv.io/x/gocv"
)

const (
	histHeightScale = 0.8   // Tallest bar uses 80% of the chart height
	histMinValue    = 0.001 // Floor for the tallest bar when scaling
	tickStep        = 30    // Degrees between axis ticks
	tickLength      = 10
	labelOffset     = 15
	labelFontScale  = 0.4
	thinLine        = 1
	thickLine       = 2
)

// Band is the angular band drawn as boundary markers, in degrees.
type Band struct {
	Min, Max float64
}

// HistogramImage draws hist as a bar chart of the given size with the
// angle axis reversed (180° on the left, 0° on the right), a green marker at
// the estimated angle and black markers at the band edges. An empty or
// all-zero histogram yields a blank white image. The caller closes the
// result.
func HistogramImage(hist histogram.Histogram, result estimator.Result, band Band, width, height int) gocv.Mat {
	img := gocv.NewMatWithSizeFromScalar(colorutil.Scalar(colorutil.White), height, width, gocv.MatTypeCV8UC3)

	sum := hist.Sum()
	if len(hist) == 0 || !(sum > 0) {
		return img
	}

	n := len(hist)
	barWidth := max(1, width/n)
	peak := hist[hist.ArgMax()] / sum
	scale := histHeightScale * float64(height) / math.Max(peak, histMinValue)

	for i, v := range hist {
		barHeight := int(math.Round(v / sum * scale))
		x := width - i*barWidth - barWidth
		gocv.Rectangle(&img, image.Rect(x, height-barHeight, x+barWidth, height), colorutil.Gray, -1)
	}

	marker := func(deg float64) int {
		return width - int(deg/histogram.BinWidth(n)*float64(barWidth)) - barWidth/2
	}

	vx := marker(result.Angle())
	gocv.Line(&img, image.Pt(vx, 0), image.Pt(vx, height), colorutil.Green, thickLine)

	for _, deg := range []float64{band.Min, band.Max} {
		bx := marker(deg)
		gocv.Line(&img, image.Pt(bx, 0), image.Pt(bx, height), colorutil.Black, thinLine)
	}

	for deg := 0; deg <= int(histogram.HalfCircle); deg += tickStep {
		tx := marker(float64(deg))
		gocv.Line(&img, image.Pt(tx, height-tickLength), image.Pt(tx, height), colorutil.Black, thinLine)
		gocv.PutText(&img, strconv.Itoa(deg), image.Pt(tx-labelOffset, height-labelOffset),
			gocv.FontHersheySimplex, labelFontScale, colorutil.Black, thinLine)
	}

	return img
}
