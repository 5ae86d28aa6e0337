package pipeline

import (
	"image"
	"image/color"
	"testing"
	"time"

	"visual-vertical/internal/estimator"
	"visual-vertical/internal/gradient"
	"visual-vertical/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

// stripes draws horizontal white bands on black, so every gradient points
// along the image y axis.
func stripes(t *testing.T) gocv.Mat {
	t.Helper()
	img := gocv.NewMatWithSize(120, 160, gocv.MatTypeCV8UC3)
	for y := 0; y < 120; y += 20 {
		gocv.Rectangle(&img, image.Rect(0, y, 160, y+10), color.RGBA{255, 255, 255, 255}, -1)
	}
	return img
}

func newProcessor(t *testing.T, opts Options) *Processor {
	t.Helper()
	p, err := New(gradient.DefaultParams(), estimator.DefaultParams(), opts, logging.Discard())
	require.NoError(t, err)
	t.Cleanup(p.Close)
	return p
}

func TestProcessHorizontalStripes(t *testing.T) {
	p := newProcessor(t, Options{Mask: true})
	frame := stripes(t)
	defer frame.Close()

	res, err := p.Process(frame)
	require.NoError(t, err)
	defer res.Close()

	assert.Equal(t, 0, res.Index)
	assert.Len(t, res.Hist, 180)
	assert.InDelta(t, 1.0, res.Hist.Sum(), 1e-9)
	assert.InDelta(t, 90.0, res.Result.Angle(), 1.5)
	assert.False(t, res.Mask.Empty())
	assert.Equal(t, frame.Rows(), res.Mask.Rows())
	require.NotEmpty(t, res.Peaks)
	assert.InDelta(t, 90, res.Peaks[0].Bin, 2)

	_, tracking := p.Estimator().Previous()
	assert.True(t, tracking)
	assert.Equal(t, 1, p.Frames())
}

func TestProcessUniformFrameHoldsSeed(t *testing.T) {
	p := newProcessor(t, Options{})
	frame := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(128, 128, 128, 0), 60, 80, gocv.MatTypeCV8UC3)
	defer frame.Close()

	res, err := p.Process(frame)
	require.NoError(t, err)
	defer res.Close()

	assert.True(t, res.Hist.Empty())
	assert.Empty(t, res.Peaks)
	assert.Equal(t, estimator.UprightAngle, res.Result.Angle())
	assert.True(t, res.Mask.Empty())
	assert.Empty(t, p.Estimator().History())
}

func TestProcessUsePeaks(t *testing.T) {
	p := newProcessor(t, Options{UsePeaks: true})
	frame := stripes(t)
	defer frame.Close()

	res, err := p.Process(frame)
	require.NoError(t, err)
	defer res.Close()

	assert.InDelta(t, 90.0, res.Result.Angle(), 2.0)
	assert.Len(t, p.Estimator().History(), 1)
}

func TestProcessEmptyFrame(t *testing.T) {
	p := newProcessor(t, Options{})
	empty := gocv.NewMat()
	defer empty.Close()

	_, err := p.Process(empty)
	require.ErrorIs(t, err, gradient.ErrEmptyImage)
	assert.Equal(t, 0, p.Frames())
}

func TestNewRejectsInvalidParams(t *testing.T) {
	ep := estimator.DefaultParams()
	ep.TopK = 0
	_, err := New(gradient.DefaultParams(), ep, Options{}, logging.Discard())
	assert.ErrorIs(t, err, estimator.ErrInvalidParams)

	gp := gradient.DefaultParams()
	gp.BlurKernelSize = 4
	_, err = New(gp, estimator.DefaultParams(), Options{}, logging.Discard())
	assert.Error(t, err)
}

func TestBandBins(t *testing.T) {
	tests := []struct {
		name       string
		min, max   float64
		bins       int
		start, end int
	}{
		{"default band", 30, 150, 180, 30, 151},
		{"full circle", 0, 180, 180, 0, 180},
		{"coarse bins", 30, 150, 18, 3, 16},
		{"no bins", 30, 150, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := BandBins(tt.min, tt.max, tt.bins)
			assert.Equal(t, tt.start, start)
			assert.Equal(t, tt.end, end)
		})
	}
}

func TestFPSCounter(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now := base
	c := newFPSCounter(func() time.Time { return now })

	now = now.Add(100 * time.Millisecond)
	assert.InDelta(t, 10.0, c.Tick(), 1e-9)
	assert.InDelta(t, 10.0, c.Instant(), 1e-9)

	now = now.Add(50 * time.Millisecond)
	assert.InDelta(t, 0.9*10+0.1*20, c.Tick(), 1e-9)
	assert.InDelta(t, 20.0, c.Instant(), 1e-9)

	assert.Equal(t, 2, c.Frames())
	assert.InDelta(t, 2/0.15, c.Average(), 1e-9)
}

func TestFPSCounterZeroInterval(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := newFPSCounter(func() time.Time { return now })

	assert.Equal(t, 0.0, c.Tick())
	assert.Equal(t, 0.0, c.Average())
	assert.Equal(t, 1, c.Frames())
}
