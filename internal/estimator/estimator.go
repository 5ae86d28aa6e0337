// Package estimator turns orientation histograms into a temporally smoothed
// visual-vertical angle and its gravity vector.
//
// The estimator has two states. Before the first update it is uninitialized
// and Step seeds the smoothing from Params.SeedAngle. After that it tracks:
// every update blends the new instantaneous angle with the previous one.
// Any degenerate input (no in-band signal, zero weights, NaN) holds the
// previous result instead of failing.
package estimator

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"visual-vertical/internal/histogram"
	"visual-vertical/internal/peaks"

	"gonum.org/v1/gonum/stat"
)

// ErrInvalidParams wraps every parameter validation failure.
var ErrInvalidParams = errors.New("invalid estimator params")

// Params configures the estimator.
type Params struct {
	NumBins         int     // Histogram resolution; bins span [0,180)
	MinAngle        float64 // Lower edge of the plausible band, degrees (inclusive)
	MaxAngle        float64 // Upper edge of the plausible band, degrees (inclusive)
	SmoothingFactor float64 // Weight of the new estimate (alpha)
	TopK            int     // Bins averaged per update
	SeedAngle       float64 // Previous angle assumed before the first update
}

// DefaultParams returns the standard configuration: band [30,150],
// alpha 0.7, top 3 bins, seeded upright.
func DefaultParams() Params {
	return Params{
		NumBins:         histogram.DefaultBins,
		MinAngle:        30,
		MaxAngle:        150,
		SmoothingFactor: 0.7,
		TopK:            peaks.DefaultTopK,
		SeedAngle:       UprightAngle,
	}
}

// Validate rejects parameter sets that could never produce an estimate.
func (p Params) Validate() error {
	if p.NumBins <= 0 {
		return fmt.Errorf("%w: bin count must be positive, got %d", ErrInvalidParams, p.NumBins)
	}
	if p.MinAngle >= p.MaxAngle {
		return fmt.Errorf("%w: min angle %.1f must be below max angle %.1f", ErrInvalidParams, p.MinAngle, p.MaxAngle)
	}
	if p.MinAngle < 0 || p.MaxAngle > histogram.HalfCircle {
		return fmt.Errorf("%w: band [%.1f,%.1f] outside [0,180]", ErrInvalidParams, p.MinAngle, p.MaxAngle)
	}
	if p.TopK <= 0 {
		return fmt.Errorf("%w: top-k must be positive, got %d", ErrInvalidParams, p.TopK)
	}
	if math.IsNaN(p.SmoothingFactor) || p.SmoothingFactor < 0 || p.SmoothingFactor > 1 {
		return fmt.Errorf("%w: smoothing factor must be in [0,1], got %f", ErrInvalidParams, p.SmoothingFactor)
	}
	if math.IsNaN(p.SeedAngle) || math.IsInf(p.SeedAngle, 0) {
		return fmt.Errorf("%w: seed angle must be finite", ErrInvalidParams)
	}
	return nil
}

// Estimator holds the per-session state: the previous result and the history
// of every result it produced. It is not safe for concurrent use; give each
// stream its own instance.
type Estimator struct {
	params   Params
	previous Result
	tracking bool
	history  []Result
}

// New creates an estimator in the uninitialized state.
func New(params Params) (*Estimator, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Estimator{params: params}, nil
}

// Params returns the estimator configuration.
func (e *Estimator) Params() Params { return e.params }

// Step estimates from hist against the stored previous result, or against
// the seed result while uninitialized.
func (e *Estimator) Step(hist histogram.Histogram) Result {
	return e.Estimate(hist, e.prior())
}

// StepPeaks is Step for a ranked peak list.
func (e *Estimator) StepPeaks(found []peaks.Peak) Result {
	return e.EstimatePeaks(found, e.prior())
}

// Estimate computes a new result from the histogram bins in the band,
// smoothed against previous. If no bin in the band carries weight, previous
// is returned unchanged and nothing is recorded.
func (e *Estimator) Estimate(hist histogram.Histogram, previous Result) Result {
	n := len(hist)
	candidates := make([]peaks.Peak, 0, n)
	for bin, v := range hist {
		candidates = append(candidates, peaks.Peak{Bin: bin, Value: v})
	}
	return e.estimate(candidates, n, previous)
}

// EstimatePeaks is Estimate over a peak list instead of raw bins. Peak bins
// are interpreted against Params.NumBins.
func (e *Estimator) EstimatePeaks(found []peaks.Peak, previous Result) Result {
	candidates := make([]peaks.Peak, len(found))
	copy(candidates, found)
	return e.estimate(candidates, e.params.NumBins, previous)
}

// Previous returns the last produced result, and false while uninitialized.
func (e *Estimator) Previous() (Result, bool) {
	return e.previous, e.tracking
}

// History returns a copy of every result produced since the last Reset.
func (e *Estimator) History() []Result {
	out := make([]Result, len(e.history))
	copy(out, e.history)
	return out
}

// Reset returns the estimator to the uninitialized state and clears history.
func (e *Estimator) Reset() {
	e.previous = Result{}
	e.tracking = false
	e.history = nil
}

func (e *Estimator) prior() Result {
	if e.tracking {
		return e.previous
	}
	return NewResult(e.params.SeedAngle)
}

func (e *Estimator) estimate(candidates []peaks.Peak, numBins int, previous Result) Result {
	selected := e.selectInBand(candidates, numBins)
	if len(selected) == 0 {
		return previous
	}

	angles := make([]float64, len(selected))
	weights := make([]float64, len(selected))
	var sumWeights float64
	for i, c := range selected {
		angles[i] = histogram.BinToDegrees(c.Bin, numBins)
		weights[i] = c.Value
		sumWeights += c.Value
	}

	angle := previous.Angle()
	switch {
	case sumWeights <= 0:
	case len(selected) == 1:
		// w*x/w is not always exactly x in floating point.
		angle = angles[0]
	default:
		angle = stat.Mean(angles, weights)
	}
	if math.IsNaN(angle) {
		angle = previous.Angle()
	}

	// Always blend; large jumps are damped like any other change.
	alpha := e.params.SmoothingFactor
	smoothed := alpha*angle + (1-alpha)*previous.Angle()

	result := NewResult(smoothed)
	e.previous = result
	e.tracking = true
	e.history = append(e.history, result)
	return result
}

// selectInBand keeps candidates whose angle lies in [MinAngle,MaxAngle] and
// whose weight is positive, then returns the TopK heaviest (ties: lower bin).
func (e *Estimator) selectInBand(candidates []peaks.Peak, numBins int) []peaks.Peak {
	if numBins <= 0 {
		return nil
	}
	inBand := candidates[:0]
	for _, c := range candidates {
		if c.Bin < 0 || c.Bin >= numBins {
			continue
		}
		if !(c.Value > 0) || math.IsInf(c.Value, 0) {
			continue
		}
		deg := histogram.BinToDegrees(c.Bin, numBins)
		if deg < e.params.MinAngle || deg > e.params.MaxAngle {
			continue
		}
		inBand = append(inBand, c)
	}

	sort.SliceStable(inBand, func(i, j int) bool {
		if inBand[i].Value != inBand[j].Value {
			return inBand[i].Value > inBand[j].Value
		}
		return inBand[i].Bin < inBand[j].Bin
	})
	if len(inBand) > e.params.TopK {
		inBand = inBand[:e.params.TopK]
	}
	return inBand
}
