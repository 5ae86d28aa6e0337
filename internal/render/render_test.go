package render

import (
	"image"
	"image/color"
	"testing"

	"visual-vertical/internal/estimator"
	"visual-vertical/internal/gradient"
	"visual-vertical/internal/histogram"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

var defaultBand = Band{Min: 30, Max: 150}

func testFrame() gocv.Mat {
	img := gocv.NewMatWithSize(120, 160, gocv.MatTypeCV8UC3)
	for y := 0; y < 120; y += 20 {
		gocv.Rectangle(&img, image.Rect(0, y, 160, y+10), color.RGBA{255, 255, 255, 255}, -1)
	}
	return img
}

func spike(n, bin int) histogram.Histogram {
	h := make(histogram.Histogram, n)
	h[bin] = 1
	return h
}

func TestHistogramImageBlank(t *testing.T) {
	for name, h := range map[string]histogram.Histogram{
		"nil":   nil,
		"zeros": make(histogram.Histogram, 180),
	} {
		t.Run(name, func(t *testing.T) {
			img := HistogramImage(h, estimator.Upright(), defaultBand, 360, 100)
			defer img.Close()

			assert.Equal(t, 100, img.Rows())
			assert.Equal(t, 360, img.Cols())

			mean := img.Mean()
			assert.Equal(t, 255.0, mean.Val1)
			assert.Equal(t, 255.0, mean.Val2)
			assert.Equal(t, 255.0, mean.Val3)
		})
	}
}

func TestHistogramImageDrawsBars(t *testing.T) {
	img := HistogramImage(spike(180, 45), estimator.NewResult(90), defaultBand, 360, 100)
	defer img.Close()

	require.Equal(t, 100, img.Rows())
	mean := img.Mean()
	assert.Less(t, mean.Val1, 255.0)

	// Reversed axis: bin 45 of 180 (2px bars) starts at x = 360-45*2-2.
	bar := img.GetVecbAt(95, 269)
	assert.Equal(t, gocv.Vecb{100, 100, 100}, bar)

	top := img.GetVecbAt(5, 269)
	assert.Equal(t, gocv.Vecb{255, 255, 255}, top)
}

func TestHistogramImageCoarseBins(t *testing.T) {
	img := HistogramImage(spike(18, 9), estimator.NewResult(90), defaultBand, 360, 100)
	defer img.Close()
	assert.Equal(t, 360, img.Cols())
}

func TestDrawIndicatorsKeepsSize(t *testing.T) {
	frame := testFrame()
	defer frame.Close()
	before := frame.Clone()
	defer before.Close()

	DrawIndicators(&frame, estimator.NewResult(75))

	assert.Equal(t, 120, frame.Rows())
	assert.Equal(t, 160, frame.Cols())

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(frame, before, &diff)
	assert.Positive(t, diff.Sum().Val2, "indicators should change the frame")
}

func TestCalibrate(t *testing.T) {
	frame := testFrame()
	defer frame.Close()

	upright := Calibrate(frame, estimator.Upright())
	defer upright.Close()
	assert.Equal(t, frame.Rows(), upright.Rows())
	assert.Equal(t, frame.Cols(), upright.Cols())

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(frame, upright, &diff)
	assert.Zero(t, diff.Sum().Val1, "upright estimate should not rotate")

	tilted := Calibrate(frame, estimator.NewResult(60))
	defer tilted.Close()
	gocv.AbsDiff(frame, tilted, &diff)
	assert.Positive(t, diff.Sum().Val1)
}

func TestCompose(t *testing.T) {
	frame := testFrame()
	defer frame.Close()

	b, err := gradient.NewBuilder(gradient.DefaultParams())
	require.NoError(t, err)
	defer b.Close()

	field, err := b.Compute(frame)
	require.NoError(t, err)
	defer field.Close()

	mask, err := b.Mask(field)
	require.NoError(t, err)
	defer mask.Close()

	hist, err := histogram.FromField(field, histogram.DefaultBins)
	require.NoError(t, err)

	out, err := Compose(Panels{
		Frame:  frame,
		Field:  field,
		Mask:   mask,
		Hist:   hist,
		Result: estimator.NewResult(88),
		Band:   defaultBand,
		FPS:    29.7,
	})
	require.NoError(t, err)
	defer out.Close()

	// [frame | calibrated] 120x320, [magnitude | mask] 120x320, histogram 60x320.
	assert.Equal(t, 320, out.Cols())
	assert.Equal(t, 300, out.Rows())
	assert.Equal(t, gocv.MatTypeCV8UC3, out.Type())
}

func TestComposeWithoutMask(t *testing.T) {
	frame := testFrame()
	defer frame.Close()
	mask := gocv.NewMat()
	defer mask.Close()

	out, err := Compose(Panels{
		Frame:  frame,
		Mask:   mask,
		Result: estimator.Upright(),
		Band:   defaultBand,
	})
	require.NoError(t, err)
	defer out.Close()
	assert.Equal(t, 300, out.Rows())
}

func TestComposeEmptyFrame(t *testing.T) {
	frame := gocv.NewMat()
	defer frame.Close()

	out, err := Compose(Panels{Frame: frame})
	defer out.Close()
	assert.Error(t, err)
}
