// Package pipeline runs the per-frame estimation chain:
// frame -> gradient field -> orientation histogram -> peaks -> estimator.
// The magnitude mask branches off the gradient field for display only.
package pipeline

import (
	"fmt"

	"visual-vertical/internal/config"
	"visual-vertical/internal/estimator"
	"visual-vertical/internal/gradient"
	"visual-vertical/internal/histogram"
	"visual-vertical/internal/peaks"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

// Options selects the optional parts of the chain.
type Options struct {
	Window   int  // Peak smoothing window in bins
	UsePeaks bool // Estimate from the peak list instead of raw bins
	Mask     bool // Compute the display mask
}

// FrameResult is everything produced for one frame. Field and Mask hold
// native memory; call Close when done.
type FrameResult struct {
	Index  int
	Field  *gradient.Field
	Mask   gocv.Mat
	Hist   histogram.Histogram
	Peaks  []peaks.Peak
	Result estimator.Result
}

// Close releases the field and mask.
func (r *FrameResult) Close() {
	if r == nil {
		return
	}
	r.Field.Close()
	r.Mask.Close()
}

// Processor runs the chain for a single stream. It is not safe for
// concurrent use.
type Processor struct {
	builder   *gradient.Builder
	estimator *estimator.Estimator
	opts      Options
	log       *logrus.Logger
	frames    int
}

// New builds a processor from explicit parameters.
func New(gp gradient.Params, ep estimator.Params, opts Options, log *logrus.Logger) (*Processor, error) {
	builder, err := gradient.NewBuilder(gp)
	if err != nil {
		return nil, err
	}
	est, err := estimator.New(ep)
	if err != nil {
		builder.Close()
		return nil, err
	}
	if opts.Window < 1 {
		opts.Window = peaks.DefaultWindow
	}
	return &Processor{
		builder:   builder,
		estimator: est,
		opts:      opts,
		log:       log,
	}, nil
}

// FromConfig builds a processor from a validated configuration.
func FromConfig(cfg *config.Config, mask bool, log *logrus.Logger) (*Processor, error) {
	return New(cfg.GradientParams(), cfg.EstimatorParams(), Options{
		Window:   cfg.Estimator.SmoothingWindow,
		UsePeaks: cfg.Estimator.UsePeaks,
		Mask:     mask,
	}, log)
}

// Estimator exposes the underlying estimator, mainly for its history.
func (p *Processor) Estimator() *estimator.Estimator { return p.estimator }

// Frames returns the number of frames processed.
func (p *Processor) Frames() int { return p.frames }

// Close releases native resources.
func (p *Processor) Close() {
	p.builder.Close()
}

// Process runs one frame through the chain. Only an empty or unreadable
// frame is an error; a frame without usable gradients holds the previous
// estimate.
func (p *Processor) Process(frame gocv.Mat) (*FrameResult, error) {
	field, err := p.builder.Compute(frame)
	if err != nil {
		return nil, fmt.Errorf("gradient: %w", err)
	}

	ep := p.estimator.Params()
	hist, err := histogram.FromField(field, ep.NumBins)
	if err != nil {
		field.Close()
		return nil, fmt.Errorf("histogram: %w", err)
	}

	start, end := BandBins(ep.MinAngle, ep.MaxAngle, ep.NumBins)
	found := peaks.Find(hist, start, end, p.opts.Window, ep.TopK)

	var result estimator.Result
	if p.opts.UsePeaks {
		result = p.estimator.StepPeaks(found)
	} else {
		result = p.estimator.Step(hist)
	}

	out := &FrameResult{
		Index:  p.frames,
		Field:  field,
		Mask:   gocv.NewMat(),
		Hist:   hist,
		Peaks:  found,
		Result: result,
	}
	p.frames++

	if p.opts.Mask {
		mask, err := p.builder.Mask(field)
		if err != nil {
			mask.Close()
			p.log.WithError(err).WithField("frame", out.Index).Warn("mask computation failed")
		} else {
			out.Mask.Close()
			out.Mask = mask
		}
	}

	p.log.WithFields(logrus.Fields{
		"frame": out.Index,
		"angle": fmt.Sprintf("%.2f", result.Angle()),
		"peaks": len(found),
	}).Debug("frame processed")

	return out, nil
}

// BandBins converts an inclusive degree band to the half-open bin range
// [start,end) used for peak search.
func BandBins(minAngle, maxAngle float64, numBins int) (start, end int) {
	if numBins <= 0 {
		return 0, 0
	}
	start = histogram.DegreesToBin(minAngle, numBins)
	if maxAngle >= histogram.HalfCircle {
		return start, numBins
	}
	end = histogram.DegreesToBin(maxAngle, numBins) + 1
	return start, end
}
