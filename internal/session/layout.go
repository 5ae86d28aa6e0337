// Package session writes the outputs of one estimation run: the per-frame
// CSV, the result video path, an angle chart, an optional SQLite store and a
// JSON manifest tying them together. Everything for a run lives in a
// date-stamped directory under the configured output root.
package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	dateFormat = "20060102"
	timeFormat = "150405"
)

// Layout names the files of one run.
type Layout struct {
	Dir    string // <output_dir>/<YYYYMMDD>
	Prefix string // VV_<stem>_<HHMMSS> or camera_<HHMMSS>
	video  string
}

// NewLayout derives the output names for a run started at now. For files the
// names carry the input stem; camera runs are named by time only.
func NewLayout(outputDir, source string, camera bool, now time.Time) Layout {
	dir := filepath.Join(outputDir, now.Format(dateFormat))
	clock := now.Format(timeFormat)

	if camera {
		prefix := "camera_" + clock
		return Layout{Dir: dir, Prefix: prefix, video: prefix + ".mp4"}
	}

	base := filepath.Base(source)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return Layout{
		Dir:    dir,
		Prefix: fmt.Sprintf("VV_%s_%s", stem, clock),
		video:  fmt.Sprintf("VV_Video_%s_%s.mp4", stem, clock),
	}
}

// Ensure creates the run directory.
func (l Layout) Ensure() error {
	if err := os.MkdirAll(l.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create result directory %s: %w", l.Dir, err)
	}
	return nil
}

func (l Layout) CSVPath() string      { return filepath.Join(l.Dir, l.Prefix+".csv") }
func (l Layout) VideoPath() string    { return filepath.Join(l.Dir, l.video) }
func (l Layout) PlotPath() string     { return filepath.Join(l.Dir, l.Prefix+"_angle.png") }
func (l Layout) ManifestPath() string { return filepath.Join(l.Dir, l.Prefix+"_session.json") }
func (l Layout) DBPath() string       { return filepath.Join(l.Dir, l.Prefix+"_session.db") }
