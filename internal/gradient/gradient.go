// Package gradient computes the per-pixel gradient field (magnitude and
// orientation) of a video frame, and the thresholded magnitude mask used for
// display.
package gradient

import (
	"errors"
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// ErrEmptyImage is returned when Compute is handed an empty Mat.
var ErrEmptyImage = errors.New("empty image")

// Params controls denoising and the display mask.
type Params struct {
	BlurKernelSize  int     // Gaussian kernel size in pixels (odd, >= 1)
	BlurSigma       float64 // Gaussian sigma; 0 lets OpenCV derive it from the kernel
	Threshold       float64 // Mask threshold on normalized magnitude (0..1)
	ErodeKernelSize int     // Square erosion kernel size for the mask
	ErodeIterations int     // Number of erosion passes
}

// DefaultParams returns the parameters tuned for 640x360-ish input frames.
func DefaultParams() Params {
	return Params{
		BlurKernelSize:  11,
		BlurSigma:       3.0,
		Threshold:       0.25,
		ErodeKernelSize: 3,
		ErodeIterations: 1,
	}
}

// Validate checks that the parameters describe a usable filter chain.
func (p Params) Validate() error {
	if p.BlurKernelSize < 1 || p.BlurKernelSize%2 == 0 {
		return fmt.Errorf("blur kernel size must be a positive odd number, got %d", p.BlurKernelSize)
	}
	if p.BlurSigma < 0 {
		return fmt.Errorf("blur sigma must be non-negative, got %f", p.BlurSigma)
	}
	if p.Threshold < 0 || p.Threshold > 1 {
		return fmt.Errorf("threshold must be between 0 and 1, got %f", p.Threshold)
	}
	if p.ErodeKernelSize < 1 {
		return fmt.Errorf("erode kernel size must be positive, got %d", p.ErodeKernelSize)
	}
	if p.ErodeIterations < 0 {
		return fmt.Errorf("erode iterations must be non-negative, got %d", p.ErodeIterations)
	}
	return nil
}

// Field holds the gradient magnitude and orientation of one frame.
// Both Mats are CV_32F and the same size as the input frame. Angle is in
// degrees, folded into [0,180). Call Close when done.
type Field struct {
	Magnitude gocv.Mat
	Angle     gocv.Mat
}

// Close releases the native matrices.
func (f *Field) Close() {
	if f == nil {
		return
	}
	f.Magnitude.Close()
	f.Angle.Close()
}

// Rows returns the field height.
func (f *Field) Rows() int { return f.Magnitude.Rows() }

// Cols returns the field width.
func (f *Field) Cols() int { return f.Magnitude.Cols() }

// Data exposes the magnitude and angle samples as flat slices backed by the
// Mats. The slices are only valid until Close.
func (f *Field) Data() (magnitude, angle []float32, err error) {
	magnitude, err = f.Magnitude.DataPtrFloat32()
	if err != nil {
		return nil, nil, fmt.Errorf("magnitude data: %w", err)
	}
	angle, err = f.Angle.DataPtrFloat32()
	if err != nil {
		return nil, nil, fmt.Errorf("angle data: %w", err)
	}
	return magnitude, angle, nil
}

// Builder computes gradient fields. It is stateless apart from the erosion
// kernel and may be reused across frames.
type Builder struct {
	params      Params
	erodeKernel gocv.Mat
}

// NewBuilder validates params and prepares the erosion kernel.
func NewBuilder(params Params) (*Builder, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid gradient params: %w", err)
	}
	return &Builder{
		params: params,
		erodeKernel: gocv.GetStructuringElement(gocv.MorphRect,
			image.Point{X: params.ErodeKernelSize, Y: params.ErodeKernelSize}),
	}, nil
}

// Params returns the builder configuration.
func (b *Builder) Params() Params { return b.params }

// Close releases the erosion kernel.
func (b *Builder) Close() {
	b.erodeKernel.Close()
}

// Compute converts img to intensity, blurs it, differentiates it and returns
// the polar gradient field. A uniform image yields an all-zero magnitude.
func (b *Builder) Compute(img gocv.Mat) (*Field, error) {
	if img.Empty() {
		return nil, ErrEmptyImage
	}

	gray := toGray(img)
	defer gray.Close()

	gocv.GaussianBlur(gray, &gray,
		image.Point{X: b.params.BlurKernelSize, Y: b.params.BlurKernelSize},
		b.params.BlurSigma, b.params.BlurSigma, gocv.BorderDefault)

	intensity := gocv.NewMat()
	defer intensity.Close()
	gray.ConvertTo(&intensity, gocv.MatTypeCV32F)
	gocv.Normalize(intensity, &intensity, 0, 1, gocv.NormMinMax)

	gx := gocv.NewMat()
	defer gx.Close()
	gy := gocv.NewMat()
	defer gy.Close()
	gocv.Sobel(intensity, &gx, gocv.MatTypeCV32F, 1, 0, 3, 1, 0, gocv.BorderDefault)
	gocv.Sobel(intensity, &gy, gocv.MatTypeCV32F, 0, 1, 3, 1, 0, gocv.BorderDefault)
	// Image rows grow downward; flip so angles run counter-clockwise from +x.
	gy.MultiplyFloat(-1)

	field := &Field{
		Magnitude: gocv.NewMat(),
		Angle:     gocv.NewMat(),
	}
	gocv.CartToPolar(gx, gy, &field.Magnitude, &field.Angle, true)

	if err := foldAngles(field.Angle); err != nil {
		field.Close()
		return nil, err
	}
	return field, nil
}

// toGray returns a single-channel copy of img.
func toGray(img gocv.Mat) gocv.Mat {
	gray := gocv.NewMat()
	switch img.Channels() {
	case 3:
		gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)
	case 4:
		gocv.CvtColor(img, &gray, gocv.ColorBGRAToGray)
	default:
		img.CopyTo(&gray)
	}
	return gray
}

// foldAngles maps every angle in [0,360] into [0,180) in place.
func foldAngles(angle gocv.Mat) error {
	data, err := angle.DataPtrFloat32()
	if err != nil {
		return fmt.Errorf("angle data: %w", err)
	}
	for i, a := range data {
		if a >= 360 {
			a -= 360
		}
		if a >= 180 {
			a -= 180
		}
		if a < 0 {
			a = 0
		}
		data[i] = a
	}
	return nil
}
