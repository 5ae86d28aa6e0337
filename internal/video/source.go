// Package video wraps OpenCV capture, encoding and display for the
// per-frame loop. None of it is used by the estimation core, which only sees
// materialized frames.
package video

import (
	"errors"
	"fmt"
	"image"
	"strconv"

	"gocv.io/x/gocv"
)

// ErrSourceUnavailable is returned when a camera or file cannot be opened.
var ErrSourceUnavailable = errors.New("video source unavailable")

// Requested camera capture settings.
const (
	CameraWidth  = 1280
	CameraHeight = 720
	CameraFPS    = 30
)

// DefaultFPS is used when a source does not report a frame rate.
const DefaultFPS = 30.0

// Capture reads frames from a video file or camera.
type Capture struct {
	name   string
	camera bool
	vc     *gocv.VideoCapture
}

// OpenFile opens a video file for reading.
func OpenFile(path string) (*Capture, error) {
	vc, err := gocv.VideoCaptureFile(path)
	if err != nil || !vc.IsOpened() {
		if vc != nil {
			vc.Close()
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, path, err)
	}
	return &Capture{name: path, vc: vc}, nil
}

// OpenCamera opens a capture device and requests 1280x720 at 30 FPS.
func OpenCamera(port int) (*Capture, error) {
	vc, err := gocv.VideoCaptureDevice(port)
	if err != nil || !vc.IsOpened() {
		if vc != nil {
			vc.Close()
		}
		return nil, fmt.Errorf("%w: camera #%d: %v", ErrSourceUnavailable, port, err)
	}
	vc.Set(gocv.VideoCaptureFrameWidth, CameraWidth)
	vc.Set(gocv.VideoCaptureFrameHeight, CameraHeight)
	vc.Set(gocv.VideoCaptureFPS, CameraFPS)
	return &Capture{name: "camera #" + strconv.Itoa(port), camera: true, vc: vc}, nil
}

// Name describes the source for logs.
func (c *Capture) Name() string { return c.name }

// IsCamera reports whether frames come from a live device.
func (c *Capture) IsCamera() bool { return c.camera }

// Read grabs the next frame into dst. It returns false at end of stream.
// A camera that hands back an empty frame is not at end of stream; the
// caller should skip the cycle.
func (c *Capture) Read(dst *gocv.Mat) (bool, error) {
	if !c.vc.IsOpened() {
		return false, ErrSourceUnavailable
	}
	if ok := c.vc.Read(dst); !ok {
		return false, nil
	}
	return true, nil
}

// FPS returns the source frame rate, or DefaultFPS if unknown.
func (c *Capture) FPS() float64 {
	fps := c.vc.Get(gocv.VideoCaptureFPS)
	if fps <= 0 {
		return DefaultFPS
	}
	return fps
}

// Size returns the native frame size.
func (c *Capture) Size() image.Point {
	return image.Point{
		X: int(c.vc.Get(gocv.VideoCaptureFrameWidth)),
		Y: int(c.vc.Get(gocv.VideoCaptureFrameHeight)),
	}
}

// Close releases the device or file.
func (c *Capture) Close() error {
	return c.vc.Close()
}

// Downscale shrinks src by an integer factor using area interpolation.
// Factors of 1 or less copy the frame unchanged. The caller closes the
// result.
func Downscale(src gocv.Mat, factor int) gocv.Mat {
	dst := gocv.NewMat()
	if factor <= 1 {
		src.CopyTo(&dst)
		return dst
	}
	size := image.Point{X: src.Cols() / factor, Y: src.Rows() / factor}
	gocv.Resize(src, &dst, size, 0, 0, gocv.InterpolationArea)
	return dst
}
