package render

import (
	"fmt"
	"image"
	"math"

	"visual-vertical/internal/estimator"
	"visual-vertical/pkg/colorutil"

	"gocv.io/x/gocv"
)

const (
	indicatorTextScale = 2.0
	indicatorTextX     = 10
	indicatorTextY     = 30
)

// DrawIndicators annotates frame in place with the angle readout, the
// horizontal and lower-vertical reference lines, the estimated horizon
// (green) and the gravity vector (red arrow, g spans half the frame height).
func DrawIndicators(frame *gocv.Mat, result estimator.Result) {
	rows, cols := frame.Rows(), frame.Cols()
	center := image.Pt(cols/2, rows/2)

	gocv.PutText(frame, fmt.Sprintf(" VV_dig=%d", int(result.Angle())),
		image.Pt(indicatorTextX, indicatorTextY), gocv.FontHersheyPlain,
		indicatorTextScale, colorutil.Green, thickLine)

	gocv.Line(frame, image.Pt(0, center.Y), image.Pt(cols, center.Y), colorutil.Black, thickLine)
	gocv.Line(frame, center, image.Pt(center.X, rows), colorutil.Black, thickLine)

	// The estimated horizon is perpendicular to the vertical. Screen y grows downward.
	length := float64(rows) / 2
	rad := result.AngleRad() - math.Pi/2
	dx, dy := int(length*math.Cos(rad)), int(length*math.Sin(rad))
	gocv.Line(frame, image.Pt(center.X-dx, center.Y+dy), image.Pt(center.X+dx, center.Y-dy), colorutil.Green, thickLine)

	accScale := length / estimator.Gravity
	acc := image.Pt(center.X+int(result.AccX()*accScale), center.Y-int(result.AccY()*accScale))
	gocv.ArrowedLine(frame, center, acc, colorutil.Red, thickLine)
}

// Calibrate rotates frame about its center so that the estimated vertical
// appears upright. The caller closes the result.
func Calibrate(frame gocv.Mat, result estimator.Result) gocv.Mat {
	rotated := gocv.NewMat()
	size := image.Pt(frame.Cols(), frame.Rows())
	rot := gocv.GetRotationMatrix2D(image.Pt(size.X/2, size.Y/2), estimator.UprightAngle-result.Angle(), 1.0)
	defer rot.Close()
	gocv.WarpAffine(frame, &rotated, rot, size)
	return rotated
}
