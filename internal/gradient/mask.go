package gradient

import (
	"gocv.io/x/gocv"
)

// Mask builds the binary display mask of strong edges:
// erode(threshold(normalize(magnitude))). The result is CV_32F with values 0
// or 1 and must be closed by the caller. It plays no part in estimation.
func (b *Builder) Mask(field *Field) (gocv.Mat, error) {
	mask := gocv.NewMat()
	if field == nil || field.Magnitude.Empty() {
		return mask, ErrEmptyImage
	}

	gocv.Normalize(field.Magnitude, &mask, 0, 1, gocv.NormMinMax)
	gocv.Threshold(mask, &mask, float32(b.params.Threshold), 1, gocv.ThresholdBinary)

	// Erosion knocks out isolated noise pixels that survive the threshold.
	for i := 0; i < b.params.ErodeIterations; i++ {
		gocv.Erode(mask, &mask, b.erodeKernel)
	}
	return mask, nil
}
