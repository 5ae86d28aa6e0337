package video

import (
	"fmt"
	"os"
	"path/filepath"

	"gocv.io/x/gocv"
)

// Codec used for result videos.
const Codec = "mp4v"

// Writer encodes composed frames to a file. The frame size is fixed by the
// first frame written.
type Writer struct {
	path string
	fps  float64
	vw   *gocv.VideoWriter
}

// NewWriter prepares a writer; the file is created lazily on the first frame
// because the composite size is not known until then.
func NewWriter(path string, fps float64) *Writer {
	if fps <= 0 {
		fps = DefaultFPS
	}
	return &Writer{path: path, fps: fps}
}

// Path returns the output file path.
func (w *Writer) Path() string { return w.path }

// Write appends a frame, opening the file on first use.
func (w *Writer) Write(frame gocv.Mat) error {
	if w.vw == nil {
		if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
			return fmt.Errorf("failed to create video directory: %w", err)
		}
		vw, err := gocv.VideoWriterFile(w.path, Codec, w.fps, frame.Cols(), frame.Rows(), true)
		if err != nil {
			return fmt.Errorf("could not create video writer for %s: %w", w.path, err)
		}
		w.vw = vw
	}
	return w.vw.Write(frame)
}

// Close finalizes the file.
func (w *Writer) Close() error {
	if w.vw == nil {
		return nil
	}
	return w.vw.Close()
}

// Display shows frames in a window and reports whether the user asked to
// stop.
type Display struct {
	window *gocv.Window
}

// Window title for the live view.
const WindowTitle = "Visual Vertical Estimation"

// NewDisplay opens the preview window.
func NewDisplay() *Display {
	return &Display{window: gocv.NewWindow(WindowTitle)}
}

// Show draws frame and polls the keyboard for 1 ms. It returns false when
// ESC or q was pressed.
func (d *Display) Show(frame gocv.Mat) bool {
	d.window.IMShow(frame)
	return !IsQuitKey(d.window.WaitKey(1))
}

// Close destroys the window.
func (d *Display) Close() error {
	return d.window.Close()
}

// IsQuitKey reports whether key ends the live loop (ESC, q or Q).
func IsQuitKey(key int) bool {
	return key == 27 || key == 'q' || key == 'Q'
}
