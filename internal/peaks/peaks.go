// Package peaks finds and ranks local maxima in an orientation histogram.
package peaks

import (
	"sort"
)

// Default extraction settings.
const (
	DefaultWindow = 5
	DefaultTopK   = 3
)

// Peak is a local maximum of the (smoothed) histogram.
type Peak struct {
	Bin   int     // Index into the full histogram
	Value float64 // Smoothed bin value
}

// Find returns the local maxima of hist inside the bin range [start,end),
// ordered by descending value with ties broken by ascending bin. At most
// topK peaks are returned (topK <= 0 means all).
//
// The histogram is smoothed with a circular moving average of the given
// window before peak marking, wrapping around the full half-circle. Peak
// marking itself treats the range as linear: the two range endpoints only
// need to exceed their single interior neighbor.
//
// An empty histogram or an empty/out-of-bounds range yields no peaks.
func Find(hist []float64, start, end, window, topK int) []Peak {
	n := len(hist)
	if n == 0 || start < 0 || end > n || start >= end {
		return nil
	}

	smoothed := Smooth(hist, start, end, window)
	return rank(markPeaks(smoothed, start), topK)
}

// Smooth returns the circular moving average of hist for bins [start,end).
// Neighbors outside the histogram wrap around modulo len(hist). Windows of
// 1 or less return a copy of the range; even windows are widened by one.
func Smooth(hist []float64, start, end, window int) []float64 {
	n := len(hist)
	out := make([]float64, end-start)
	if window <= 1 {
		copy(out, hist[start:end])
		return out
	}
	if window%2 == 0 {
		window++
	}

	half := window / 2
	for i := start; i < end; i++ {
		var sum float64
		for j := -half; j <= half; j++ {
			idx := ((i+j)%n + n) % n
			sum += hist[idx]
		}
		out[i-start] = sum / float64(window)
	}
	return out
}

// markPeaks scans a linear slice whose first element is bin offset.
func markPeaks(values []float64, offset int) []Peak {
	n := len(values)
	if n < 2 {
		return nil
	}

	var found []Peak
	for i := 0; i < n; i++ {
		v := values[i]
		switch i {
		case 0:
			if v > values[1] {
				found = append(found, Peak{Bin: offset, Value: v})
			}
		case n - 1:
			if v > values[n-2] {
				found = append(found, Peak{Bin: offset + i, Value: v})
			}
		default:
			if v > values[i-1] && v > values[i+1] {
				found = append(found, Peak{Bin: offset + i, Value: v})
			}
		}
	}
	return found
}

func rank(found []Peak, topK int) []Peak {
	sort.SliceStable(found, func(i, j int) bool {
		if found[i].Value != found[j].Value {
			return found[i].Value > found[j].Value
		}
		return found[i].Bin < found[j].Bin
	})
	if topK > 0 && len(found) > topK {
		found = found[:topK]
	}
	return found
}
