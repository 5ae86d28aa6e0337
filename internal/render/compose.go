package render

import (
	"fmt"
	"image"

	"visual-vertical/internal/estimator"
	"visual-vertical/internal/gradient"
	"visual-vertical/internal/histogram"
	"visual-vertical/pkg/colorutil"

	"gocv.io/x/gocv"
)

const (
	fpsTextScale = 1.0
	fpsTextY     = 30
)

// Panels are the inputs to Compose. Mask may be empty when the mask branch
// failed; it is then drawn black.
type Panels struct {
	Frame  gocv.Mat
	Field  *gradient.Field
	Mask   gocv.Mat
	Hist   histogram.Histogram
	Result estimator.Result
	Band   Band
	FPS    float64
}

// Compose lays out the debug view in three rows:
//
//	[ frame + indicators | calibrated frame ]
//	[ gradient magnitude | magnitude mask   ]
//	[          orientation histogram        ]
//
// The caller closes the result.
func Compose(p Panels) (gocv.Mat, error) {
	if p.Frame.Empty() {
		return gocv.NewMat(), fmt.Errorf("empty frame")
	}

	annotated := p.Frame.Clone()
	defer annotated.Close()
	DrawIndicators(&annotated, p.Result)

	calibrated := Calibrate(p.Frame, p.Result)
	defer calibrated.Close()
	gocv.Line(&calibrated, image.Pt(0, calibrated.Rows()/2), image.Pt(calibrated.Cols(), calibrated.Rows()/2),
		colorutil.Black, thickLine)

	top := gocv.NewMat()
	defer top.Close()
	gocv.Hconcat(annotated, calibrated, &top)

	middle := magnitudeRow(p, top.Cols(), top.Rows())
	defer middle.Close()

	hist := HistogramImage(p.Hist, p.Result, p.Band, top.Cols(), top.Rows()/2)
	defer hist.Close()

	upper := gocv.NewMat()
	defer upper.Close()
	gocv.Vconcat(top, middle, &upper)

	out := gocv.NewMat()
	gocv.Vconcat(upper, hist, &out)

	if p.FPS > 0 {
		gocv.PutText(&out, fmt.Sprintf("FPS: %.1f", p.FPS), image.Pt(out.Cols()-200, fpsTextY),
			gocv.FontHersheySimplex, fpsTextScale, colorutil.Green, thickLine)
	}
	return out, nil
}

// magnitudeRow renders the magnitude field and mask side by side as BGR,
// resized to width x height.
func magnitudeRow(p Panels, width, height int) gocv.Mat {
	rows, cols := p.Frame.Rows(), p.Frame.Cols()

	mag := grayPanel(fieldMagnitude(p.Field), rows, cols)
	defer mag.Close()
	mask := grayPanel(p.Mask, rows, cols)
	defer mask.Close()

	row := gocv.NewMat()
	gocv.Hconcat(mag, mask, &row)
	gocv.Resize(row, &row, image.Pt(width, height), 0, 0, gocv.InterpolationLinear)
	return row
}

func fieldMagnitude(f *gradient.Field) gocv.Mat {
	if f == nil {
		return gocv.NewMat()
	}
	return f.Magnitude
}

// grayPanel stretches a float field to 0..255 and converts it to BGR.
// Empty input produces a black panel of the frame size.
func grayPanel(src gocv.Mat, rows, cols int) gocv.Mat {
	if src.Empty() {
		return gocv.NewMatWithSizeFromScalar(colorutil.Scalar(colorutil.Black), rows, cols, gocv.MatTypeCV8UC3)
	}

	scaled := gocv.NewMat()
	defer scaled.Close()
	gocv.Normalize(src, &scaled, 0, 255, gocv.NormMinMax)

	gray := gocv.NewMat()
	defer gray.Close()
	scaled.ConvertTo(&gray, gocv.MatTypeCV8U)

	bgr := gocv.NewMat()
	gocv.CvtColor(gray, &bgr, gocv.ColorGrayToBGR)
	return bgr
}
