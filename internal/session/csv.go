package session

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"visual-vertical/internal/estimator"
)

// ErrNoResults is returned when there is nothing to export.
var ErrNoResults = errors.New("no results to save")

// CSVHeader is the column header of the result CSV.
var CSVHeader = []string{"VV_acc_x[m/s^2]", "VV_acc_y[m/s^2]", "VV_acc_rad", "VV_acc_dig"}

// WriteCSV writes one row per result: acc_x, acc_y, angle_rad, angle.
func WriteCSV(w io.Writer, results []estimator.Result) error {
	if len(results) == 0 {
		return ErrNoResults
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, r := range results {
		row := []string{
			formatFloat(r.AccX()),
			formatFloat(r.AccY()),
			formatFloat(r.AngleRad()),
			formatFloat(r.Angle()),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveCSV writes results to path, creating its directory.
func SaveCSV(path string, results []estimator.Result) error {
	if len(results) == 0 {
		return ErrNoResults
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not open %s for writing: %w", path, err)
	}
	if err := WriteCSV(f, results); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Six significant digits, like a default iostream.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}
