// Package colorutil provides the overlay colors shared by the renderers.
package colorutil

import (
	"image/color"

	"gocv.io/x/gocv"
)

// Overlay colors. gocv converts color.RGBA to OpenCV's BGR order itself.
var (
	Black = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Green = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	Red   = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	Gray  = color.RGBA{R: 100, G: 100, B: 100, A: 255}
)

// Scalar converts c to an OpenCV BGRA scalar, for filling new Mats.
func Scalar(c color.RGBA) gocv.Scalar {
	return gocv.NewScalar(float64(c.B), float64(c.G), float64(c.R), float64(c.A))
}
