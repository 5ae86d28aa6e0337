// Package histogram builds magnitude-weighted orientation histograms over the
// half-circle [0,180) from a gradient field.
package histogram

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// HalfCircle is the angular span covered by every histogram, in degrees.
// A gradient direction and its 180° opposite describe the same line.
const HalfCircle = 180.0

// DefaultBins is the default histogram resolution (1° per bin).
const DefaultBins = 180

// Histogram is an ordered sequence of non-negative bin weights.
// A normalized histogram sums to 1.0, or is all zeros when there was no
// gradient energy in the frame.
type Histogram []float64

// Sum returns the total weight of the histogram.
func (h Histogram) Sum() float64 {
	if len(h) == 0 {
		return 0
	}
	return floats.Sum(h)
}

// Empty reports whether the histogram carries no orientation signal.
func (h Histogram) Empty() bool {
	for _, v := range h {
		if v > 0 {
			return false
		}
	}
	return true
}

// ArgMax returns the bin with the largest value, preferring the lowest index
// on ties. Returns -1 for an empty histogram.
func (h Histogram) ArgMax() int {
	best := -1
	for i, v := range h {
		if best < 0 || v > h[best] {
			best = i
		}
	}
	return best
}

// BinWidth returns the width of one bin in degrees for a histogram of n bins.
func BinWidth(n int) float64 {
	if n <= 0 {
		return 0
	}
	return HalfCircle / float64(n)
}

// BinToDegrees converts a bin index to its angle in degrees (the bin's lower edge).
func BinToDegrees(bin, n int) float64 {
	return float64(bin) * BinWidth(n)
}

// DegreesToBin converts an angle to the bin that contains it, after folding
// into [0,180).
func DegreesToBin(deg float64, n int) int {
	if n <= 0 {
		return 0
	}
	bin := int(math.Floor(Fold(deg) * float64(n) / HalfCircle))
	return clamp(bin, 0, n-1)
}

// Fold maps an angle in degrees into [0,180).
func Fold(deg float64) float64 {
	a := math.Mod(deg, HalfCircle)
	if a < 0 {
		a += HalfCircle
	}
	// Mod can return HalfCircle for tiny negative inputs after the add.
	if a >= HalfCircle {
		a = 0
	}
	return a
}

// Build accumulates magnitude per orientation bin and normalizes the result.
// If the total energy is not positive the all-zero histogram is returned;
// callers treat that as "no orientation signal", not as an error.
func Build(magnitude, angle []float32, numBins int) Histogram {
	if numBins <= 0 {
		return Histogram{}
	}
	hist := make(Histogram, numBins)

	n := min(len(magnitude), len(angle))
	scale := float64(numBins) / HalfCircle
	for i := 0; i < n; i++ {
		mag := float64(magnitude[i])
		ang := float64(angle[i])
		if mag <= 0 || math.IsNaN(mag) || math.IsInf(mag, 0) || math.IsNaN(ang) || math.IsInf(ang, 0) {
			continue
		}
		bin := clamp(int(math.Floor(Fold(ang)*scale)), 0, numBins-1)
		hist[bin] += mag
	}

	Normalize(hist)
	return hist
}

// Field is a source of co-sized magnitude and angle samples, such as a
// gradient.Field.
type Field interface {
	Data() (magnitude, angle []float32, err error)
}

// FromField builds a histogram directly from a gradient field.
func FromField(field Field, numBins int) (Histogram, error) {
	mag, ang, err := field.Data()
	if err != nil {
		return nil, err
	}
	return Build(mag, ang, numBins), nil
}

// Normalize scales h in place so it sums to 1. Histograms with a
// non-positive sum are zeroed.
func Normalize(h Histogram) {
	if len(h) == 0 {
		return
	}
	sum := floats.Sum(h)
	if sum <= 0 || math.IsNaN(sum) || math.IsInf(sum, 0) {
		for i := range h {
			h[i] = 0
		}
		return
	}
	floats.Scale(1/sum, h)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
