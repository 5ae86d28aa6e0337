package session

import (
	"errors"
	"fmt"

	"visual-vertical/internal/config"
	"visual-vertical/internal/estimator"

	"github.com/sirupsen/logrus"
)

// Recorder collects the per-frame results of a run and writes the session
// outputs when the run ends.
type Recorder struct {
	layout   Layout
	manifest *Manifest
	sqlite   bool
	results  []estimator.Result
	log      *logrus.Logger
}

// NewRecorder prepares the result directory of layout for a run of source.
func NewRecorder(cfg *config.Config, layout Layout, source string, camera bool, log *logrus.Logger) (*Recorder, error) {
	if err := layout.Ensure(); err != nil {
		return nil, err
	}
	log.WithField("dir", layout.Dir).Info("results will be saved to directory")

	return &Recorder{
		layout:   layout,
		manifest: NewManifest(source, camera, cfg),
		sqlite:   cfg.IO.SaveSQLite,
		log:      log,
	}, nil
}

// Layout returns the output names of the run.
func (r *Recorder) Layout() Layout { return r.layout }

// Manifest returns the run manifest.
func (r *Recorder) Manifest() *Manifest { return r.manifest }

// Add records the result of one processed frame.
func (r *Recorder) Add(result estimator.Result) {
	r.results = append(r.results, result)
}

// Results returns the recorded results.
func (r *Recorder) Results() []estimator.Result { return r.results }

// Finish writes the CSV, the angle plot, the SQLite store (if enabled) and
// the manifest. videoPath is recorded in the manifest when non-empty. Every
// output is attempted; the errors are joined.
func (r *Recorder) Finish(videoPath string, averageFPS float64) error {
	if len(r.results) == 0 {
		return ErrNoResults
	}

	m := r.manifest
	manifestPath := r.layout.ManifestPath()
	m.Frames = len(r.results)
	m.FinalAngle = r.results[len(r.results)-1].Angle()
	m.AverageFPS = averageFPS
	m.VideoPath = Relative(manifestPath, videoPath)

	var errs []error

	if err := SaveCSV(r.layout.CSVPath(), r.results); err != nil {
		errs = append(errs, fmt.Errorf("csv: %w", err))
	} else {
		m.CSVPath = Relative(manifestPath, r.layout.CSVPath())
		r.log.WithField("path", r.layout.CSVPath()).Info("results saved")
	}

	if err := SavePlot(r.layout.PlotPath(), r.layout.Prefix, r.results); err != nil {
		errs = append(errs, fmt.Errorf("plot: %w", err))
	} else {
		m.PlotPath = Relative(manifestPath, r.layout.PlotPath())
	}

	if r.sqlite {
		if err := r.saveStore(); err != nil {
			errs = append(errs, fmt.Errorf("sqlite: %w", err))
		} else {
			m.DBPath = Relative(manifestPath, r.layout.DBPath())
		}
	}

	if err := m.Save(manifestPath); err != nil {
		errs = append(errs, fmt.Errorf("manifest: %w", err))
	}

	r.log.WithFields(logrus.Fields{
		"session": m.ID,
		"frames":  m.Frames,
		"angle":   fmt.Sprintf("%.2f", m.FinalAngle),
	}).Info("session finished")

	return errors.Join(errs...)
}

func (r *Recorder) saveStore() error {
	store, err := OpenStore(r.layout.DBPath())
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.StartSession(r.manifest); err != nil {
		return err
	}
	return store.RecordResults(r.manifest.ID, r.results)
}
